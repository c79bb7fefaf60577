package campaign

import "errors"

// Sentinel errors for the campaign service layer.
var (
	ErrNotFound     = errors.New("campaign not found")
	ErrNoLeads      = errors.New("campaign has no leads file")
	ErrNoTemplate   = errors.New("campaign has no template")
	ErrInvalidInput = errors.New("invalid campaign input")
)
