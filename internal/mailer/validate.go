package mailer

import (
	"errors"
	"net/mail"
	"strings"
)

// App passwords are typically issued as 16 characters, sometimes grouped
// with spaces. Validation bounds the trimmed length; the stored value
// keeps its whitespace.
const (
	minAppPasswordLen = 10
	maxAppPasswordLen = 20
)

var (
	ErrInvalidEmail       = errors.New("mailer: invalid sender email address")
	ErrInvalidAppPassword = errors.New("mailer: app password must be 10-20 characters")
)

// ValidateSenderEmail checks the address parses as a bare RFC 5322 address.
func ValidateSenderEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateAppPassword checks presence and plausible length. Only the
// trimmed form is measured; the untrimmed value is what gets stored and
// used.
func ValidateAppPassword(password string) error {
	trimmed := strings.TrimSpace(password)
	if len(trimmed) < minAppPasswordLen || len(trimmed) > maxAppPasswordLen {
		return ErrInvalidAppPassword
	}
	return nil
}
