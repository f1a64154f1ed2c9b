package domain

import "fmt"

// ValidationError reports bad input detected before any write. Callers
// must not retry without fixing the input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}
