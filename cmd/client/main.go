package main

import (
	"bufio"
	"chat-relay/client"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string `env:"CHAT_SERVER_URL,default=ws://localhost:8080/ws"`
	Username  string `env:"CHAT_USERNAME,required=true"`
	Room      string `env:"CHAT_ROOM,default=general"`
	LogLevel  string `env:"LOG_LEVEL,default=INFO"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := client.Dial(ctx, config.ServerURL, printer{}, log)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", config.ServerURL, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = c.Close()
	}()

	if err := c.JoinRoom(config.Username, config.Room); err != nil {
		return exitRuntime, err
	}
	color.Cyanf(">>> Connected to %s as %s in %s (Ctrl+C to quit)\n", config.ServerURL, config.Username, config.Room)
	color.Gray.Println("/join <room>, /invite <connection id> <room>, /accept <room>, /typing, /stop")

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case <-c.Done():
			return exitRuntime, fmt.Errorf("connection closed by server")
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			if err := handleLine(c, config.Username, line); err != nil {
				return exitRuntime, err
			}
		}
	}
}

func handleLine(c *client.Client, username, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, "/") {
		return c.Send(line)
	}

	fields := strings.Fields(line)
	switch {
	case fields[0] == "/join" && len(fields) == 2:
		return c.JoinRoom(username, fields[1])
	case fields[0] == "/invite" && len(fields) == 3:
		return c.Invite(fields[1], fields[2])
	case fields[0] == "/accept" && len(fields) == 2:
		return c.AcceptInvite(fields[1])
	case fields[0] == "/typing":
		return c.Typing(true)
	case fields[0] == "/stop":
		return c.Typing(false)
	default:
		color.Red.Printf("unknown command %q\n", line)
		return nil
	}
}

// printer renders received events on the terminal.
type printer struct{}

func (printer) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.ChatMessage:
		fmt.Printf("[%s] %s: %s\n", evt.At.Local().Format(time.TimeOnly), color.Bold.Sprint(evt.Username), evt.Content)
	case event.Welcome:
		color.Green.Println(evt.Text)
	case event.Typing:
		color.Gray.Println(evt.Text)
	case event.RoomInvite:
		color.Yellow.Printf("%s invites you to %s (/accept %s)\n", evt.From, evt.Room, evt.Room)
	case event.UserList:
		entries := lo.MapToSlice(evt.Users, func(id domain.ConnectionID, name string) string {
			if name == "" {
				name = "?"
			}
			return fmt.Sprintf("%s(%s)", name, id)
		})
		sort.Strings(entries)
		color.Magenta.Printf("online: %s\n", strings.Join(entries, ", "))
	}
	return nil
}
