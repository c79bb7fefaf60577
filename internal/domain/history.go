package domain

import "time"

// History is the durable per-campaign ledger of delivery outcomes.
//
// Sent, Failed, and Processing hold normalized (trimmed, lowercased)
// addresses. An address in Sent or Failed is never attempted again until
// the campaign is explicitly reset. Processing is a transient state: an
// entry older than the staleness window is abandoned and evicted so a
// crash mid-send cannot blacklist an address forever.
type History struct {
	CampaignID           string               `json:"campaign_id" db:"campaign_id"`
	Sent                 []string             `json:"sent" db:"sent"`
	Failed               []string             `json:"failed" db:"failed"`
	Processing           []string             `json:"processing" db:"processing"`
	ProcessingTimestamps map[string]time.Time `json:"processing_timestamps" db:"processing_timestamps"`
	DailySentTracking    map[string]int       `json:"daily_sent_tracking" db:"daily_sent_tracking"`
	UpdatedAt            time.Time            `json:"updated_at" db:"updated_at"`
}

// NewHistory returns an empty ledger for a campaign.
func NewHistory(campaignID string) *History {
	return &History{
		CampaignID:           campaignID,
		Sent:                 []string{},
		Failed:               []string{},
		Processing:           []string{},
		ProcessingTimestamps: make(map[string]time.Time),
		DailySentTracking:    make(map[string]int),
	}
}

// DateKey returns the DailySentTracking key for t's calendar day.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// SentOn returns how many messages were recorded sent on t's calendar day.
func (h *History) SentOn(t time.Time) int {
	if h.DailySentTracking == nil {
		return 0
	}
	return h.DailySentTracking[DateKey(t)]
}

// Blacklist returns the set of addresses excluded from further selection:
// sent, failed, and still-in-flight processing entries. Callers evict stale
// processing entries first.
func (h *History) Blacklist() map[string]struct{} {
	bl := make(map[string]struct{}, len(h.Sent)+len(h.Failed)+len(h.Processing))
	for _, a := range h.Sent {
		bl[a] = struct{}{}
	}
	for _, a := range h.Failed {
		bl[a] = struct{}{}
	}
	for _, a := range h.Processing {
		bl[a] = struct{}{}
	}
	return bl
}

// MarkProcessing records that addr entered the in-flight state at t.
func (h *History) MarkProcessing(addr string, t time.Time) {
	if !containsAddr(h.Processing, addr) {
		h.Processing = append(h.Processing, addr)
	}
	if h.ProcessingTimestamps == nil {
		h.ProcessingTimestamps = make(map[string]time.Time)
	}
	h.ProcessingTimestamps[addr] = t
}

// MarkSent records a successful delivery at t: addr leaves processing,
// joins sent, and t's daily counter advances.
func (h *History) MarkSent(addr string, t time.Time) {
	h.removeProcessing(addr)
	if !containsAddr(h.Sent, addr) {
		h.Sent = append(h.Sent, addr)
	}
	if h.DailySentTracking == nil {
		h.DailySentTracking = make(map[string]int)
	}
	h.DailySentTracking[DateKey(t)]++
}

// MarkFailed records a failed delivery: addr leaves processing and joins
// failed. The daily counter tracks successes only and does not advance.
func (h *History) MarkFailed(addr string) {
	h.removeProcessing(addr)
	if !containsAddr(h.Failed, addr) {
		h.Failed = append(h.Failed, addr)
	}
}

// EvictStale removes processing entries whose timestamps are at least
// window old at now, plus entries with no timestamp at all (unknowable age
// is treated as abandoned). It returns the evicted addresses.
func (h *History) EvictStale(window time.Duration, now time.Time) []string {
	if len(h.Processing) == 0 {
		return nil
	}
	var evicted []string
	kept := h.Processing[:0]
	for _, addr := range h.Processing {
		ts, ok := h.ProcessingTimestamps[addr]
		if ok && now.Sub(ts) < window {
			kept = append(kept, addr)
			continue
		}
		evicted = append(evicted, addr)
		delete(h.ProcessingTimestamps, addr)
	}
	h.Processing = kept
	return evicted
}

// Reset clears all outcome sets, timestamps, and daily counters.
func (h *History) Reset() {
	h.Sent = []string{}
	h.Failed = []string{}
	h.Processing = []string{}
	h.ProcessingTimestamps = make(map[string]time.Time)
	h.DailySentTracking = make(map[string]int)
}

func (h *History) removeProcessing(addr string) {
	for i, a := range h.Processing {
		if a == addr {
			h.Processing = append(h.Processing[:i], h.Processing[i+1:]...)
			break
		}
	}
	delete(h.ProcessingTimestamps, addr)
}

func containsAddr(list []string, addr string) bool {
	for _, a := range list {
		if a == addr {
			return true
		}
	}
	return false
}
