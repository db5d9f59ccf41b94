package store

import "fmt"

// ReadError reports a failed snapshot read. Nothing has been diffed or
// mutated when one is returned.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("store: read snapshot: %v", e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// WriteError reports a failed write of a single path.
type WriteError struct {
	Path  string
	Value Value
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("store: write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// DeleteError reports a failed delete of a single path.
type DeleteError struct {
	Path string
	Err  error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("store: delete %s: %v", e.Path, e.Err)
}

func (e *DeleteError) Unwrap() error {
	return e.Err
}
