package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/ignite/campaign-runner/internal/leads"
	"github.com/ignite/campaign-runner/internal/mailer"
	"github.com/ignite/campaign-runner/internal/pkg/httputil"
	"github.com/ignite/campaign-runner/internal/service/campaign"
	"github.com/ignite/campaign-runner/internal/service/history"
	"github.com/ignite/campaign-runner/internal/service/sender"
	"github.com/ignite/campaign-runner/internal/supervisor"
)

// Handlers holds the service dependencies for all HTTP handlers.
type Handlers struct {
	campaigns  *campaign.Service
	senders    *sender.Service
	histories  *history.Service
	supervisor *supervisor.Supervisor
	audit      mailer.AuditLog
	startedAt  time.Time
}

// NewHandlers creates the handler set.
func NewHandlers(
	campaigns *campaign.Service,
	senders *sender.Service,
	histories *history.Service,
	sup *supervisor.Supervisor,
	audit mailer.AuditLog,
) *Handlers {
	return &Handlers{
		campaigns:  campaigns,
		senders:    senders,
		histories:  histories,
		supervisor: sup,
		audit:      audit,
		startedAt:  time.Now(),
	}
}

// HealthCheck reports process liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{
		"status": "ok",
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// GetSupervisorStatus returns the supervisor's view of running and
// scheduled campaigns.
func (h *Handlers) GetSupervisorStatus(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, h.supervisor.Status())
}

// serviceError maps service sentinel errors to HTTP responses.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, campaign.ErrNotFound),
		errors.Is(err, sender.ErrNotFound),
		errors.Is(err, history.ErrNotFound):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, sender.ErrDuplicate):
		httputil.Conflict(w, err.Error())
	case errors.Is(err, campaign.ErrInvalidInput),
		errors.Is(err, campaign.ErrNoLeads),
		errors.Is(err, campaign.ErrNoTemplate),
		errors.Is(err, sender.ErrNoneSelected),
		errors.Is(err, leads.ErrEmptyFile),
		errors.Is(err, mailer.ErrInvalidEmail),
		errors.Is(err, mailer.ErrInvalidAppPassword):
		httputil.BadRequest(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}
