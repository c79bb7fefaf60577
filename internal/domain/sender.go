package domain

import "time"

// Sender is one rotating account the engine may submit mail through.
//
// AppPassword is opaque: embedded whitespace is significant to the SMTP
// server, so the stored value is used verbatim and only ever trimmed for
// presence/length validation, never for use.
type Sender struct {
	ID          string    `json:"id" db:"id"`
	Email       string    `json:"email" db:"email"`
	AppPassword string    `json:"-" db:"app_password"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
