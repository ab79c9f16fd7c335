package tree

import "errors"

// Errors returned by tree mutations. All of them abort the single offending
// operation before any state is changed or any batch is emitted.
var (
	// ErrAlreadyParented is returned when attaching a node that already has a parent.
	ErrAlreadyParented = errors.New("node already has a parent")
	// ErrReentrancy is returned when a collection or tree is mutated from inside
	// one of its own change notifications.
	ErrReentrancy = errors.New("mutation during change dispatch")
	// ErrUnsupportedOperation is returned when a capability (delete, copy, drop,
	// lazy load, edit) is invoked on a node kind that does not implement it.
	ErrUnsupportedOperation = errors.New("operation not supported")
	// ErrIndexOutOfRange is returned by index based accessors.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrInvalidCheckState is returned when trying to set the mixed state directly.
	ErrInvalidCheckState = errors.New("mixed is not a settable check state")
)
