package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")

	ErrConnectionNotFound    = fmt.Errorf("connection not found")
	ErrNoCurrentRoom         = fmt.Errorf("connection has no current room")
	ErrNotJoined             = fmt.Errorf("connection has not joined a room yet")
	ErrSessionClosed         = fmt.Errorf("session is closed")
	ErrSinkFull              = fmt.Errorf("connection buffer is full")
	ErrPersistenceBufferFull = fmt.Errorf("persistence buffer is full")
	ErrPersistenceStopped    = fmt.Errorf("persistence worker is stopped")
	ErrUnknownCommand        = fmt.Errorf("unknown command")
	ErrUnknownEvent          = fmt.Errorf("unknown event")
	ErrInvalidPayload        = fmt.Errorf("invalid payload")
	ErrInvalidCharacter      = fmt.Errorf("replacement must be a single character")
)
