package store

import "fmt"

// CorruptStateError reports a persisted collection that could not be decoded.
type CorruptStateError struct {
	Key string
	Err error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("store: corrupt state at key %q: %v", e.Key, e.Err)
}

func (e *CorruptStateError) Unwrap() error {
	return e.Err
}

// IndexError is returned by RemoveAt for a position outside the collection.
// Callers holding a current index never see it.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("store: index %d out of range [0,%d)", e.Index, e.Len)
}

// PersistError wraps a failed write. The mutation that caused it has been undone.
type PersistError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("store: persist %s at key %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
