package eventbus

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned once the bus or the handle has been closed.
	ErrClosed = errors.New("eventbus: closed")

	// ErrOverrun matches any *OverrunError.
	ErrOverrun = errors.New("eventbus: subscriber overrun")
)

// OverrunError reports that a handle fell behind the bus capacity and Missed
// events were dropped for it.
type OverrunError struct {
	Missed uint64
}

func (e *OverrunError) Error() string {
	return fmt.Sprintf("eventbus: missed %d events", e.Missed)
}

// Is reports whether target is ErrOverrun.
func (e *OverrunError) Is(target error) bool {
	return target == ErrOverrun
}
