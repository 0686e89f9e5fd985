// Package contract holds the small collaborator interfaces shared across
// registries, the chat server and the supervisor, so those packages never
// import each other directly.
package contract

import (
	"context"
	"reflect"
)

type WorkerName string

// Worker is anything the Supervisor can run and restart. It does not
// protect itself: a panicking Worker is recovered and restarted by its
// supervisor, not by the Worker itself.
type Worker interface {
	Run(ctx context.Context) error
}

// ISupervisor lets callers add workers and start/stop the supervision
// tree without depending on the concrete Supervisor type.
type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve a worker's type name for
// logging and supervision, avoiding a manual naming method on every Worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
