package artifact

import "errors"

var (
	// ErrNotFound is returned when no clip exists for the session / turn pair.
	ErrNotFound = errors.New("audio clip not found")
)
