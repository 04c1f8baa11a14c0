package repositories

import (
	"chat-relay/domain/search"
	"context"
	"log/slog"
	"time"

	"github.com/blugelabs/bluge"
)

const (
	fieldNameRoom    = "room"
	fieldNameAuthor  = "author"
	fieldNameContent = "content"
	fieldNameAt      = "at"
	fieldNameLang    = "lang"
)

// SearchHit is one full-text match over the chat history.
type SearchHit struct {
	ID      string
	Room    string
	Author  string
	Content string
	Lang    string
	At      time.Time
	Score   float64
}

// SearchIndex keeps a bluge full-text index of chat messages next to the badger store.
type SearchIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchIndex(writer *bluge.Writer, log *slog.Logger) *SearchIndex {
	return &SearchIndex{writer: writer, log: log}
}

// Index adds or replaces the document of a message, keyed by message id.
func (s *SearchIndex) Index(message DiskMessage) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewKeywordField(fieldNameRoom, message.Room).StoreValue()).
		AddField(bluge.NewKeywordField(fieldNameAuthor, message.Author).StoreValue()).
		AddField(bluge.NewTextField(fieldNameContent, message.Content).StoreValue()).
		AddField(bluge.NewKeywordField(fieldNameLang, message.Lang).StoreValue()).
		AddField(bluge.NewDateTimeField(fieldNameAt, message.At).StoreValue().Sortable())
	return s.writer.Update(doc.ID(), doc)
}

// Search runs a query against a fresh snapshot of the live index.
func (s *SearchIndex) Search(ctx context.Context, query search.Query) ([]SearchHit, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			s.log.Debug("Closing bluge reader failed", "error", err)
		}
	}()
	return SearchMessages(ctx, reader, query)
}

// SearchMessages works on any reader, including one opened offline on an index directory.
// Hits are ordered newest first.
func SearchMessages(ctx context.Context, reader *bluge.Reader, query search.Query) ([]SearchHit, error) {
	var q bluge.Query = bluge.NewMatchAllQuery()
	if query.Room != "" || query.Terms != "" || query.Author != "" {
		boolean := bluge.NewBooleanQuery()
		if query.Room != "" {
			boolean.AddMust(bluge.NewTermQuery(query.Room).SetField(fieldNameRoom))
		}
		if query.Terms != "" {
			boolean.AddMust(bluge.NewMatchQuery(query.Terms).SetField(fieldNameContent))
		}
		if query.Author != "" {
			boolean.AddMust(bluge.NewTermQuery(query.Author).SetField(fieldNameAuthor))
		}
		q = boolean
	}

	limit := query.Limit
	if limit <= 0 {
		limit = search.DefaultLimit
	}
	request := bluge.NewTopNSearch(limit, q).SortBy([]string{"-" + fieldNameAt})

	matches, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var hits []SearchHit
	match, err := matches.Next()
	for err == nil && match != nil {
		hit := SearchHit{Score: match.Score}
		var visitErr error
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.ID = string(value)
			case fieldNameRoom:
				hit.Room = string(value)
			case fieldNameAuthor:
				hit.Author = string(value)
			case fieldNameContent:
				hit.Content = string(value)
			case fieldNameLang:
				hit.Lang = string(value)
			case fieldNameAt:
				hit.At, visitErr = bluge.DecodeDateTime(value)
				if visitErr != nil {
					return false
				}
				hit.At = hit.At.UTC()
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		if visitErr != nil {
			return nil, visitErr
		}
		hits = append(hits, hit)
		match, err = matches.Next()
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}
