package graphql

import (
	"context"
	"errors"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/nerrad567/holocron/internal/eventbus"
	"github.com/nerrad567/holocron/internal/human"
)

// Stream delivers the results of one subscription.
type Stream struct {
	results chan Result
	cancel  context.CancelFunc
	done    chan struct{}
}

// Results yields one Result per event. The channel is closed when the stream
// ends: on Close, when the parent context ends, or when the bus closes.
func (s *Stream) Results() <-chan Result {
	return s.results
}

// Close stops the stream and waits for it to release its bus handle.
// Close is idempotent.
func (s *Stream) Close() {
	s.cancel()
	<-s.done
}

// Done is closed once the stream has ended and released its bus handle.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Subscribe validates a subscription request and attaches it to the event
// bus. Events published after Subscribe returns are delivered on the stream.
//
// Invalid documents and non-subscription operations return a *QueryError.
func (e *Executor) Subscribe(ctx context.Context, req Request) (*Stream, error) {
	op, errs := e.prepare(req)
	if errs != nil {
		return nil, &QueryError{Errors: errs}
	}
	if op.def.Operation != ast.Subscription {
		return nil, &QueryError{Errors: gqlerror.List{codedError(CodeNotSubscription,
			"operation must be a subscription, got %s", op.def.Operation)}}
	}

	run := &execution{exec: e, op: op}
	fields := run.collectFields(op.def.SelectionSet, "Subscription")

	handle := e.bus.Subscribe()

	ctx, cancel := context.WithCancel(ctx)
	s := &Stream{
		results: make(chan Result),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.run(ctx, run, fields, handle)
	return s, nil
}

func (s *Stream) run(ctx context.Context, x *execution, fields []*ast.Field, handle *eventbus.Handle[human.Human]) {
	defer close(s.done)
	defer close(s.results)
	defer handle.Close()

	for {
		ev, err := handle.Next(ctx)

		var res Result
		var overrun *eventbus.OverrunError
		switch {
		case err == nil:
			res = Success(x.projectEvent(ev, fields))
		case errors.As(err, &overrun):
			x.exec.logger.Warn("subscription fell behind", "missed", overrun.Missed)
			res = Failure(codedError(CodeEventsMissed, "missed %d events", overrun.Missed))
		default:
			return
		}

		select {
		case s.results <- res:
		case <-ctx.Done():
			return
		}
	}
}

// projectEvent renders one created human through the subscription root.
func (x *execution) projectEvent(h human.Human, fields []*ast.Field) *object {
	out := newObject(len(fields))
	for _, f := range fields {
		key := responseKey(f)
		switch f.Name {
		case "__typename":
			out.set(key, "Subscription")
		case "humanCreated":
			out.set(key, x.projectHuman(h, f.SelectionSet))
		}
	}
	return out
}
