package sink

import (
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConnectionSink_Buffers_In_Order(t *testing.T) {
	req := require.New(t)
	sink := NewConnectionSink(3)

	req.NoError(sink.Consume(context.Background(), event.Welcome{Text: "one"}))
	req.NoError(sink.Consume(context.Background(), event.Welcome{Text: "two"}))

	req.Equal(event.Welcome{Text: "one"}, <-sink.Events())
	req.Equal(event.Welcome{Text: "two"}, <-sink.Events())
}

func TestConnectionSink_Full_Buffer_Drops(t *testing.T) {
	req := require.New(t)
	sink := NewConnectionSink(1)

	req.NoError(sink.Consume(context.Background(), event.StopTyping{}))
	err := sink.Consume(context.Background(), event.StopTyping{})

	req.ErrorIs(err, errors.ErrSinkFull)
	req.Len(sink.Events(), 1)
}

func TestConnectionSink_Close_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	sink := NewConnectionSink(1)

	sink.Close()
	sink.Close()

	req.ErrorIs(sink.Consume(context.Background(), event.StopTyping{}), errors.ErrSessionClosed)
	_, open := <-sink.Events()
	req.False(open)
}
