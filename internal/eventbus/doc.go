// Package eventbus is an in-process, single-topic publish/subscribe bus with
// bounded history.
//
// Every published event is written into a shared ring of fixed capacity.
// Subscribers hold a Handle, a private cursor into that ring. A handle sees
// each event published after it was created, in publish order, and never an
// event published before. Publishers never wait for readers.
//
// A handle that falls more than capacity events behind loses the oldest
// ones. Its next read reports an *OverrunError (matching ErrOverrun) with the
// number of events skipped, once, and then continues from the oldest event
// still retained.
//
// Usage:
//
//	bus := eventbus.New[human.Human](100)
//	h := bus.Subscribe()
//	defer h.Close()
//
//	for {
//	    ev, err := h.Next(ctx)
//	    var overrun *eventbus.OverrunError
//	    switch {
//	    case errors.As(err, &overrun):
//	        continue
//	    case err != nil:
//	        return err
//	    }
//	    handle(ev)
//	}
package eventbus
