// Package mailer submits campaign messages over authenticated SMTP and
// keeps the fire-and-forget audit trail of every attempt.
//
// Each sender account authenticates with its own app password, used
// verbatim: some SMTP servers issue passwords with embedded spaces, so the
// stored value is never trimmed before use.
package mailer

import (
	"fmt"
	"log"

	"gopkg.in/gomail.v2"

	"github.com/ignite/campaign-runner/internal/config"
	"github.com/ignite/campaign-runner/internal/domain"
)

// SMTP submits messages through a single configured submission endpoint,
// authenticating per sender. One dial per message: bulk sends are paced by
// the campaign delay anyway, so connection reuse buys nothing and a fresh
// session avoids half-dead connections during long runs.
type SMTP struct {
	host string
	port int
}

// NewSMTP builds the transport from configuration.
func NewSMTP(cfg config.SMTPConfig) *SMTP {
	return &SMTP{host: cfg.Host, port: cfg.Port}
}

// Send delivers one HTML message from the sender account to the recipient.
// The returned error text is what the engine logs; the engine itself only
// branches on nil vs non-nil.
func (s *SMTP) Send(sender *domain.Sender, recipient, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", sender.Email)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := s.dialer(sender)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send to %s via %s: %w", recipient, sender.Email, err)
	}
	return nil
}

// CheckHealth dials and authenticates as the sender, then disconnects.
// It proves the credential works without sending anything.
func (s *SMTP) CheckHealth(sender *domain.Sender) error {
	d := s.dialer(sender)
	sc, err := d.Dial()
	if err != nil {
		return fmt.Errorf("auth probe for %s: %w", sender.Email, err)
	}
	if err := sc.Close(); err != nil {
		log.Printf("[mailer] closing probe session for %s: %v", sender.Email, err)
	}
	return nil
}

func (s *SMTP) dialer(sender *domain.Sender) *gomail.Dialer {
	d := gomail.NewDialer(s.host, s.port, sender.Email, sender.AppPassword)
	return d
}
