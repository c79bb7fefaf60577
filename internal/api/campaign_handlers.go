package api

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/campaign-runner/internal/domain"
	"github.com/ignite/campaign-runner/internal/pkg/httputil"
	"github.com/ignite/campaign-runner/internal/service/campaign"
)

// maxUploadBytes caps lead and template uploads at 32 MB.
const maxUploadBytes = 32 << 20

// ListCampaigns returns all campaigns.
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	list, err := h.campaigns.List(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, list)
}

// CreateCampaign creates a new draft campaign.
func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var input campaign.Input
	if !httputil.Decode(w, r, &input) {
		return
	}
	c, err := h.campaigns.Create(r.Context(), input)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.Created(w, c)
}

// GetCampaign returns a single campaign by ID.
func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaigns.Get(r.Context(), chi.URLParam(r, "campaignID"))
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, c)
}

// UpdateCampaign replaces a campaign's configuration.
func (h *Handlers) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var input campaign.Input
	if !httputil.Decode(w, r, &input) {
		return
	}
	c, err := h.campaigns.Update(r.Context(), chi.URLParam(r, "campaignID"), input)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, c)
}

// DeleteCampaign removes a campaign with its history and documents. A
// running campaign is stopped first.
func (h *Handlers) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "campaignID")
	h.supervisor.Stop(r.Context(), id)
	if err := h.campaigns.Delete(r.Context(), id); err != nil {
		serviceError(w, err)
		return
	}
	httputil.NoContent(w)
}

// DuplicateCampaign clones a campaign into a fresh draft.
func (h *Handlers) DuplicateCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaigns.Duplicate(r.Context(), chi.URLParam(r, "campaignID"))
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.Created(w, c)
}

// ResetCampaign wipes a campaign's send history and counters.
func (h *Handlers) ResetCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "campaignID")
	// Quiesce the loop before wiping its ledger.
	h.supervisor.Stop(r.Context(), id)
	if err := h.campaigns.Reset(r.Context(), id); err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": "reset"})
}

// UploadLeads attaches a CSV lead list to the campaign. The file arrives
// either as a multipart "file" field or as the raw request body.
func (h *Handlers) UploadLeads(w http.ResponseWriter, r *http.Request) {
	data, ok := readUpload(w, r)
	if !ok {
		return
	}
	c, err := h.campaigns.UploadLeads(r.Context(), chi.URLParam(r, "campaignID"), data)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, c)
}

// UploadTemplate attaches an HTML template to the campaign.
func (h *Handlers) UploadTemplate(w http.ResponseWriter, r *http.Request) {
	data, ok := readUpload(w, r)
	if !ok {
		return
	}
	c, err := h.campaigns.UploadTemplate(r.Context(), chi.URLParam(r, "campaignID"), data)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, c)
}

// StartCampaign marks the campaign running and hands it to the
// supervisor's execution loop.
func (h *Handlers) StartCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "campaignID")
	if err := h.campaigns.SetStatus(r.Context(), id, domain.CampaignRunning); err != nil {
		serviceError(w, err)
		return
	}
	if !h.supervisor.Start(r.Context(), id) {
		httputil.Error(w, http.StatusConflict, "campaign could not be started")
		return
	}
	httputil.OK(w, map[string]string{"status": string(domain.CampaignRunning)})
}

// StopCampaign pauses a campaign. Stopping an idle campaign still
// persists the paused status.
func (h *Handlers) StopCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "campaignID")
	if !h.supervisor.Stop(r.Context(), id) {
		if err := h.campaigns.SetStatus(r.Context(), id, domain.CampaignPaused); err != nil {
			serviceError(w, err)
			return
		}
	}
	httputil.OK(w, map[string]string{"status": string(domain.CampaignPaused)})
}

// ScheduleCampaign registers the campaign's schedule trigger with the
// supervisor without starting it immediately.
func (h *Handlers) ScheduleCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "campaignID")
	if err := h.supervisor.ScheduleFutureActivation(r.Context(), id); err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": "scheduled"})
}

// GetCampaignHistory returns the campaign's send ledger. A campaign
// that has not sent yet gets an empty ledger, not an error.
func (h *Handlers) GetCampaignHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "campaignID")
	if _, err := h.campaigns.Get(r.Context(), id); err != nil {
		serviceError(w, err)
		return
	}
	ledger, err := h.histories.Get(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, ledger)
}

// GetCampaignStats returns live progress counters for a campaign.
func (h *Handlers) GetCampaignStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.campaigns.Stats(r.Context(), chi.URLParam(r, "campaignID"), time.Now())
	if err != nil {
		serviceError(w, err)
		return
	}
	httputil.OK(w, stats)
}

func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err == nil {
		file, _, ferr := r.FormFile("file")
		if ferr != nil {
			httputil.BadRequest(w, "multipart request is missing the file field")
			return nil, false
		}
		defer file.Close()
		data, rerr := io.ReadAll(file)
		if rerr != nil {
			httputil.BadRequest(w, "could not read uploaded file")
			return nil, false
		}
		return data, true
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.BadRequest(w, "could not read request body")
		return nil, false
	}
	if len(data) == 0 {
		httputil.BadRequest(w, "empty upload")
		return nil, false
	}
	return data, true
}
