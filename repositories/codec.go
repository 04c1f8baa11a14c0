package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

// Stored message records use the protobuf wire format so that older records
// stay readable when fields are added:
//
//	1: id (string)  2: room (string)  3: author (string)
//	4: content (string)  5: at (int64, unix nanoseconds)  6: lang (string)
const (
	fieldID      protowire.Number = 1
	fieldRoom    protowire.Number = 2
	fieldAuthor  protowire.Number = 3
	fieldContent protowire.Number = 4
	fieldAt      protowire.Number = 5
	fieldLang    protowire.Number = 6
)

func marshalMessage(m DiskMessage) []byte {
	var b []byte
	b = appendString(b, fieldID, m.ID.String())
	b = appendString(b, fieldRoom, m.Room)
	b = appendString(b, fieldAuthor, m.Author)
	b = appendString(b, fieldContent, m.Content)
	b = protowire.AppendTag(b, fieldAt, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.At.UnixNano()))
	if m.Lang != "" {
		b = appendString(b, fieldLang, m.Lang)
	}
	return b
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func unmarshalMessage(b []byte) (DiskMessage, error) {
	var m DiskMessage
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return DiskMessage{}, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case typ == protowire.BytesType && num != fieldAt:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return DiskMessage{}, protowire.ParseError(n)
			}
			b = b[n:]
			if err := m.setString(num, v); err != nil {
				return DiskMessage{}, err
			}
		case typ == protowire.VarintType && num == fieldAt:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return DiskMessage{}, protowire.ParseError(n)
			}
			b = b[n:]
			m.At = time.Unix(0, int64(v)).UTC()
		default:
			// Unknown field, written by a newer version
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return DiskMessage{}, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return m, nil
}

func (m *DiskMessage) setString(num protowire.Number, v string) error {
	switch num {
	case fieldID:
		id, err := uuid.Parse(v)
		if err != nil {
			return fmt.Errorf("invalid message id %q: %w", v, err)
		}
		m.ID = id
	case fieldRoom:
		m.Room = v
	case fieldAuthor:
		m.Author = v
	case fieldContent:
		m.Content = v
	case fieldLang:
		m.Lang = v
	}
	return nil
}
