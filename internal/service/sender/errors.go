package sender

import "errors"

// Sentinel errors for the sender service layer.
var (
	ErrNotFound     = errors.New("sender not found")
	ErrDuplicate    = errors.New("sender email already registered")
	ErrNoneSelected = errors.New("campaign selects no registered sender")
)
