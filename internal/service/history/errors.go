package history

import "errors"

// Sentinel errors for the history service layer.
var (
	ErrNotFound = errors.New("history not found")
)
