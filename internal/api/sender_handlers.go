package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/campaign-runner/internal/pkg/httputil"
	"github.com/ignite/campaign-runner/internal/service/sender"
)

// ListSenders returns all registered sender accounts.
func (h *Handlers) ListSenders(w http.ResponseWriter, r *http.Request) {
	list, err := h.senders.List(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, list)
}

// CreateSender registers a sender account. The app password is accepted
// once on creation and never returned.
func (h *Handlers) CreateSender(w http.ResponseWriter, r *http.Request) {
	var input sender.CreateInput
	if !httputil.Decode(w, r, &input) {
		return
	}
	s, err := h.senders.Create(r.Context(), input)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.Created(w, s)
}

// DeleteSender removes a sender account.
func (h *Handlers) DeleteSender(w http.ResponseWriter, r *http.Request) {
	if err := h.senders.Delete(r.Context(), chi.URLParam(r, "senderID")); err != nil {
		serviceError(w, err)
		return
	}
	httputil.NoContent(w)
}

// CheckSenderHealth probes the SMTP relay with the sender's credentials.
func (h *Handlers) CheckSenderHealth(w http.ResponseWriter, r *http.Request) {
	err := h.senders.CheckHealth(r.Context(), chi.URLParam(r, "senderID"))
	if err != nil && errors.Is(err, sender.ErrNotFound) {
		serviceError(w, err)
		return
	}
	resp := map[string]any{"healthy": err == nil}
	if err != nil {
		resp["error"] = err.Error()
	}
	httputil.OK(w, resp)
}

// GetEmailLogs returns the most recent send attempts, newest first.
func (h *Handlers) GetEmailLogs(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httputil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}
	entries, err := h.audit.Recent(r.Context(), limit)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, entries)
}
