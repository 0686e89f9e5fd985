// Package kernel implements the serialization kernel: a single-writer
// actor giving one registry a single logical writer, safe concurrent
// readers, and strict request ordering. A fixed-command-type worker loop
// is generalized into a reusable (tag, args) -> (result, error) handler
// over any state type, so every registry (teams, projects, mentors,
// chat) can reuse one implementation instead of hand-writing its own
// select loop.
package kernel

import (
	"context"
	"fmt"

	"hackhub/contract"
	"hackhub/errors"
)

// Handler applies one request to state and returns its result. It runs
// on the kernel's single goroutine: it may freely mutate state without
// locking.
type Handler[S any] func(tag string, args any, state *S) (any, error)

// request is one enqueued unit of work.
type request struct {
	tag   string
	args  any
	reply chan reply // nil for a cast
}

type reply struct {
	value any
	err   error
}

// Kernel is a single-writer actor over state S. It implements
// contract.Worker so it can be supervised and crash-restarted; on
// restart, the load function passed to New runs again to rebuild state
// from the snapshot store.
type Kernel[S any] struct {
	name    string
	handler Handler[S]
	loadFn  func() S
	state   S
	queue   chan request
}

// DefaultBufferSize is used whenever a caller passes bufferSize <= 0,
// matching Config.BufferSize's own default.
const DefaultBufferSize = 256

// New builds a Kernel. loadFn is invoked at the start of every Run,
// before the run loop starts serving, to populate state (bootstrap
// replay).
// bufferSize bounds the request queue; a Cast blocks once it fills,
// trading an unbounded FIFO for a fixed memory ceiling under load.
func New[S any](name string, handler Handler[S], loadFn func() S, bufferSize int) *Kernel[S] {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Kernel[S]{
		name:    name,
		handler: handler,
		loadFn:  loadFn,
		queue:   make(chan request, bufferSize),
	}
}

var _ contract.Worker = (*Kernel[struct{}])(nil)

// Run implements contract.Worker: it bootstraps state, then serves
// requests from the queue strictly in arrival order until ctx is
// canceled. A panic inside the handler propagates up so the Supervisor
// can restart this kernel; the next Run re-bootstraps from loadFn.
func (k *Kernel[S]) Run(ctx context.Context) error {
	k.state = k.loadFn()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-k.queue:
			value, err := k.handler(req.tag, req.args, &k.state)
			if req.reply != nil {
				select {
				case req.reply <- reply{value: value, err: err}:
				default:
					// Caller already gave up (timeout); the mutation still
					// applied above regardless.
				}
			}
		}
	}
}

// Call enqueues a request and blocks for a reply or until timeout
// elapses. A timeout does not retract the request: the kernel still
// processes it in order, it simply stops waiting for the answer.
func (k *Kernel[S]) Call(ctx context.Context, tag string, args any) (any, error) {
	req := request{tag: tag, args: args, reply: make(chan reply, 1)}

	select {
	case k.queue <- req:
	case <-ctx.Done():
		return nil, fmt.Errorf("enqueue %s: %w", tag, ctx.Err())
	}

	select {
	case r := <-req.reply:
		return r.value, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", errors.ErrTimeout, ctx.Err())
	}
}

// Cast enqueues a request without waiting for a reply (used by
// chat.Server.SendMessage).
func (k *Kernel[S]) Cast(tag string, args any) {
	k.queue <- request{tag: tag, args: args}
}

// Name returns the kernel's worker name, used for supervisor logging.
func (k *Kernel[S]) Name() string { return k.name }
