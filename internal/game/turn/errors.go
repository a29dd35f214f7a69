package turn

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAction is returned for input that is not legal in the current
	// state. The state is unchanged when it is returned.
	ErrInvalidAction = errors.New("invalid action")
	// ErrUnbound is returned when a required collaborator is missing.
	ErrUnbound = errors.New("collaborator not bound")
)

// BindingError names the missing collaborator. It matches ErrUnbound.
type BindingError struct {
	Missing string
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("turn: no %s bound", e.Missing)
}

// Is lets errors.Is(err, ErrUnbound) match.
func (e *BindingError) Is(target error) bool { return target == ErrUnbound }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidAction, fmt.Sprintf(format, args...))
}
