//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	StoreMessage(message DiskMessage) error
	GetMessages(room string, cursor *string) ([]DiskMessage, *string, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

type DiskMessage struct {
	ID      uuid.UUID
	Room    string
	Author  string
	Content string
	At      time.Time
	Lang    string
}

// roomPrefix hex-encodes the room so that a room name containing ':'
// can never be a key prefix of another room.
func roomPrefix(room string) string {
	return fmt.Sprintf("msg:%s:", hex.EncodeToString([]byte(room)))
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{hex(room)}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func (m MessageRepository) StoreMessage(message DiskMessage) error {
	key := fmt.Sprintf("%s%019d:%s", roomPrefix(message.Room), message.At.UnixNano(), message.ID)
	value := marshalMessage(message)
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// GetMessages retrieves messages for a room, newest first, using a reverse prefix scan.
// The returned cursor is the key suffix of the last message read; pass it back
// to continue with older messages. A nil cursor means nothing was read.
func (m MessageRepository) GetMessages(room string, cursor *string) ([]DiskMessage, *string, error) {
	var byteMessages [][]byte
	var lastKey *string
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := roomPrefix(room)
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past the newest possible key, then walk backwards
			seekKey = append([]byte(prefixStr), 0xFF)
		default:
			seekKey = []byte(prefixStr + *cursor)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()) == prefixStr+*cursor {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(byteMessages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				break
			}
			item := it.Item()
			key := string(item.Key()[len(prefix):])
			lastKey = &key
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			byteMessages = append(byteMessages, value)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	diskMessages := make([]DiskMessage, 0, len(byteMessages))
	for _, b := range byteMessages {
		message, err := unmarshalMessage(b)
		if err != nil {
			return nil, nil, err
		}
		diskMessages = append(diskMessages, message)
	}
	return diskMessages, lastKey, nil
}
