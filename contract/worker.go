//go:generate go run go.uber.org/mock/mockgen -source=worker.go -destination=../mocks/mock_worker.go -package=mocks
package contract

import (
	"context"
	"reflect"
)

// ISupervisor keeps long-running workers alive until its context ends.
type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker is a long-running loop. Returning nil means done for good;
// an error or a panic asks the supervisor for a restart.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName is the worker's type name, pointer indirections removed.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "<nil>"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
