package normalize

import (
	"errors"
	"fmt"
)

// ErrMalformedRecord is the kind every *MalformedRecordError matches.
var ErrMalformedRecord = errors.New("malformed record")

// MalformedRecordError reports a field list that cannot be normalized.
type MalformedRecordError struct {
	Index int    // position of the offending field
	Field string // field name, possibly empty
	Err   error
}

func (e *MalformedRecordError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed record: field %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("malformed record: field %d (%s): %v", e.Index, e.Field, e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// Is matches ErrMalformedRecord.
func (e *MalformedRecordError) Is(target error) bool { return target == ErrMalformedRecord }

func malformed(i int, name, reason string) error {
	return &MalformedRecordError{Index: i, Field: name, Err: errors.New(reason)}
}

func malformedErr(i int, name string, err error) error {
	return &MalformedRecordError{Index: i, Field: name, Err: err}
}
