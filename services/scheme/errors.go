package scheme

import (
	"errors"
	"fmt"
)

// ErrFrontMatterMissing is matched by every LookupError.
var ErrFrontMatterMissing = errors.New("front matter not configured")

// LookupError reports required configuration that could not be found. It
// aborts the build it occurred in and nothing else.
type LookupError struct {
	Name string
	Err  error
}

func (e *LookupError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("lookup %s: %s", e.Name, ErrFrontMatterMissing)
	}
	return fmt.Sprintf("lookup %s: %v", e.Name, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

func (e *LookupError) Is(target error) bool { return target == ErrFrontMatterMissing }

// PersistenceError is returned by Sync when the upsert batch was rolled back.
type PersistenceError struct {
	Code string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("persist scheme rows: %v", e.Err)
	}
	return fmt.Sprintf("persist scheme row %s: %v", e.Code, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistenceFailure reports whether err came from a failed row sync.
func IsPersistenceFailure(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
