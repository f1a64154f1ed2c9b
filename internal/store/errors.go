package store

import "errors"

// ErrNotFound is returned when a record id is absent at read, update or
// delete time. It is distinct from validation errors so callers can
// decide between no-op and alert. Any other repository error is a
// transient store failure and safe to retry.
var ErrNotFound = errors.New("record not found")
