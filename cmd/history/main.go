package main

import (
	"chat-relay/domain/search"
	"chat-relay/repositories"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	indexPath := flag.String("index", "./data/bluge", "Path to bluge index")
	room := flag.String("room", "", "Room to list, newest first")
	cursor := flag.String("cursor", "", "Continue after this cursor")
	limit := flag.Int("limit", search.DefaultLimit, "Maximum number of messages")
	find := flag.String("search", "", `Full-text query, e.g. "deploy --author alice"`)
	flag.Parse()

	if *find != "" {
		if err := searchIndex(*indexPath, *room, *find, *limit); err != nil {
			log.Fatal(err)
		}
		return
	}
	if *room == "" {
		log.Fatal("-room is required when -search is not set")
	}
	if err := listRoom(*dbPath, *room, *cursor, *limit); err != nil {
		log.Fatal(err)
	}
}

func listRoom(path, room, cursor string, limit int) error {
	db, err := openDB(path)
	if err != nil {
		return fmt.Errorf("error while opening Badger: %w", err)
	}
	defer db.Close()

	repository := repositories.NewMessageRepository(db, logs.GetLoggerFromString("ERROR"), &limit)
	var from *string
	if cursor != "" {
		from = &cursor
	}
	messages, next, err := repository.GetMessages(room, from)
	if err != nil {
		return err
	}

	table := newTable("Time", "Author", "Lang", "Content")
	for _, m := range messages {
		table.Append([]string{m.At.Local().Format(time.DateTime), m.Author, m.Lang, m.Content})
	}
	table.Render()

	if next != nil && len(messages) == limit {
		color.Gray.Printf("more: -room %s -cursor %s\n", room, *next)
	}
	return nil
}

func searchIndex(path, room, input string, limit int) error {
	reader, err := bluge.OpenReader(bluge.DefaultConfig(path))
	if err != nil {
		return fmt.Errorf("error while opening bluge index: %w", err)
	}
	defer reader.Close()

	query := search.NewSearchQuery(input)
	if query.Room == "" {
		query.Room = room
	}
	if !strings.Contains(input, "--limit") {
		query.Limit = limit
	}

	hits, err := repositories.SearchMessages(context.Background(), reader, query)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		color.Yellow.Println("no match")
		return nil
	}

	table := newTable("Time", "Room", "Author", "Score", "Content")
	for _, hit := range hits {
		table.Append([]string{
			hit.At.Local().Format(time.DateTime),
			hit.Room,
			hit.Author,
			fmt.Sprintf("%.2f", hit.Score),
			hit.Content,
		})
	}
	table.Render()
	return nil
}

func newTable(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

// openDB opens the store read-only so that it can be inspected while the relay runs.
func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
