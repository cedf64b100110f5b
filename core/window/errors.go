package window

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMalformedInput matches every *MalformedInputError via errors.Is.
	ErrMalformedInput = errors.New("malformed input")
	// ErrInsufficientData matches every *InsufficientDataError via errors.Is.
	ErrInsufficientData = errors.New("insufficient data")
)

// MalformedInputError reports a sample series that violates ordering or value
// constraints. The series is never repaired.
type MalformedInputError struct {
	// Index of the offending sample, -1 when the series as a whole is at fault.
	Index  int
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("malformed input: %s", e.Reason)
	}
	return fmt.Sprintf("malformed input at sample %d: %s", e.Index, e.Reason)
}

// Is lets callers branch with errors.Is(err, ErrMalformedInput).
func (e *MalformedInputError) Is(target error) bool { return target == ErrMalformedInput }

// InsufficientDataError reports that no contiguous stretch of the series can
// hold the requested duration. LargestContiguous tells the caller what it
// could retry with.
type InsufficientDataError struct {
	Requested         time.Duration
	LargestContiguous time.Duration
	Reason            string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %s (requested %s, largest contiguous span %s)",
		e.Reason, e.Requested, e.LargestContiguous)
}

// Is lets callers branch with errors.Is(err, ErrInsufficientData).
func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

func malformed(idx int, format string, args ...any) error {
	return &MalformedInputError{Index: idx, Reason: fmt.Sprintf(format, args...)}
}

func insufficient(requested, largest time.Duration, reason string) error {
	return &InsufficientDataError{Requested: requested, LargestContiguous: largest, Reason: reason}
}
