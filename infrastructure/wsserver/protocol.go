package wsserver

import (
	"chat-relay/domain"
	"chat-relay/domain/chat"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// Inbound event names, as sent by clients.
const (
	JoinRoomEvent     = "joinRoom"
	ChatMessageEvent  = "chatMessage"
	TypingEvent       = "typing"
	StopTypingEvent   = "stopTyping"
	InviteToRoomEvent = "inviteToRoom"
	AcceptInviteEvent = "acceptInvite"
)

// Envelope is the JSON frame exchanged in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type JoinRoomPayload struct {
	// Display name is optional, an empty one is listed as "".
	Username string `json:"username" validate:"max=64"`
	Room     string `json:"room" validate:"required,max=128"`
}

type ChatMessagePayload struct {
	// Empty content is relayed like any other.
	Content string `json:"content"`
}

type InviteToRoomPayload struct {
	TargetConnectionID string `json:"targetConnectionId" validate:"required"`
	Room               string `json:"room" validate:"required,max=128"`
}

type AcceptInvitePayload struct {
	Room string `json:"room" validate:"required,max=128"`
}

type WelcomeData struct {
	Text string `json:"text"`
}

type ChatMessageData struct {
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type TypingData struct {
	Text string `json:"text"`
}

type RoomInviteData struct {
	Room string `json:"room"`
	From string `json:"from"`
}

// Decoder turns client frames into commands. A frame that fails to decode
// or validate is rejected on its own; it never affects the session.
type Decoder struct {
	validate         *validator.Validate
	maxContentLength int
}

func NewDecoder(maxContentLength int) *Decoder {
	return &Decoder{validate: validator.New(), maxContentLength: maxContentLength}
}

func (d *Decoder) Decode(id domain.ConnectionID, raw []byte) (chat.Command, error) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}

	switch envelope.Event {
	case JoinRoomEvent:
		var p JoinRoomPayload
		if err := d.payload(envelope.Data, &p); err != nil {
			return nil, err
		}
		return chat.JoinRoomCommand{Connection: id, Username: p.Username, Room: domain.RoomID(p.Room)}, nil
	case ChatMessageEvent:
		var p ChatMessagePayload
		if err := d.payload(envelope.Data, &p); err != nil {
			return nil, err
		}
		if d.maxContentLength > 0 {
			if err := d.validate.Var(p.Content, fmt.Sprintf("max=%d", d.maxContentLength)); err != nil {
				return nil, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
			}
		}
		return chat.PostMessageCommand{Connection: id, Content: p.Content}, nil
	case TypingEvent:
		return chat.TypingCommand{Connection: id, Active: true}, nil
	case StopTypingEvent:
		return chat.TypingCommand{Connection: id, Active: false}, nil
	case InviteToRoomEvent:
		var p InviteToRoomPayload
		if err := d.payload(envelope.Data, &p); err != nil {
			return nil, err
		}
		return chat.InviteCommand{
			Connection: id,
			Target:     domain.ConnectionID(p.TargetConnectionID),
			Room:       domain.RoomID(p.Room),
		}, nil
	case AcceptInviteEvent:
		var p AcceptInvitePayload
		if err := d.payload(envelope.Data, &p); err != nil {
			return nil, err
		}
		return chat.AcceptInviteCommand{Connection: id, Room: domain.RoomID(p.Room)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownEvent, envelope.Event)
	}
}

func (d *Decoder) payload(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", errors.ErrInvalidPayload)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	if err := d.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	return nil
}

// Encode renders an outbound event as an Envelope frame.
func Encode(e event.DomainEvent) ([]byte, error) {
	var data any
	switch evt := e.(type) {
	case event.UserList:
		data = lo.MapKeys(evt.Users, func(_ string, id domain.ConnectionID) string { return string(id) })
	case event.Welcome:
		data = WelcomeData{Text: evt.Text}
	case event.ChatMessage:
		data = ChatMessageData{Username: evt.Username, Content: evt.Content, Timestamp: evt.At}
	case event.Typing:
		data = TypingData{Text: evt.Text}
	case event.StopTyping:
		data = struct{}{}
	case event.RoomInvite:
		data = RoomInviteData{Room: string(evt.Room), From: evt.From}
	default:
		return nil, fmt.Errorf("%w: %T", errors.ErrUnknownEvent, e)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: string(e.EventType()), Data: raw})
}

// DecodeEvent is the client side of Encode.
func DecodeEvent(raw []byte) (event.DomainEvent, error) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}

	switch event.Type(envelope.Event) {
	case event.UserListType:
		var users map[string]string
		if err := json.Unmarshal(envelope.Data, &users); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
		}
		return event.UserList{Users: lo.MapKeys(users, func(_ string, id string) domain.ConnectionID {
			return domain.ConnectionID(id)
		})}, nil
	case event.WelcomeType:
		var d WelcomeData
		if err := json.Unmarshal(envelope.Data, &d); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
		}
		return event.Welcome{Text: d.Text}, nil
	case event.ChatMessageType:
		var d ChatMessageData
		if err := json.Unmarshal(envelope.Data, &d); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
		}
		return event.ChatMessage{Username: d.Username, Content: d.Content, At: d.Timestamp}, nil
	case event.TypingType:
		var d TypingData
		if err := json.Unmarshal(envelope.Data, &d); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
		}
		return event.Typing{Text: d.Text}, nil
	case event.StopTypingType:
		return event.StopTyping{}, nil
	case event.RoomInviteType:
		var d RoomInviteData
		if err := json.Unmarshal(envelope.Data, &d); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
		}
		return event.RoomInvite{Room: domain.RoomID(d.Room), From: d.From}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownEvent, envelope.Event)
	}
}

// EncodeCommand is the client side of Decoder.Decode.
func EncodeCommand(eventName string, payload any) ([]byte, error) {
	envelope := Envelope{Event: eventName}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		envelope.Data = raw
	}
	return json.Marshal(envelope)
}
