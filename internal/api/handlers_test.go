package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ignite/campaign-runner/internal/api"
	"github.com/ignite/campaign-runner/internal/config"
	"github.com/ignite/campaign-runner/internal/domain"
	"github.com/ignite/campaign-runner/internal/filestore"
	"github.com/ignite/campaign-runner/internal/mailer"
	"github.com/ignite/campaign-runner/internal/runner"
	"github.com/ignite/campaign-runner/internal/service/campaign"
	"github.com/ignite/campaign-runner/internal/service/history"
	"github.com/ignite/campaign-runner/internal/service/sender"
	"github.com/ignite/campaign-runner/internal/supervisor"
)

type memCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[string]*domain.Campaign
}

func (m *memCampaignRepo) Get(_ context.Context, id string) (*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, campaign.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCampaignRepo) List(_ context.Context) ([]domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Campaign{}
	for _, c := range m.campaigns {
		out = append(out, *c)
	}
	return out, nil
}

func (m *memCampaignRepo) Create(_ context.Context, c *domain.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *memCampaignRepo) Save(_ context.Context, c *domain.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.campaigns[c.ID]; !ok {
		return campaign.ErrNotFound
	}
	cp := *c
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *memCampaignRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.campaigns[id]; !ok {
		return campaign.ErrNotFound
	}
	delete(m.campaigns, id)
	return nil
}

func (m *memCampaignRepo) UpdateStatus(_ context.Context, id string, status domain.CampaignStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return campaign.ErrNotFound
	}
	c.Status = status
	return nil
}

func (m *memCampaignRepo) UpdateStats(_ context.Context, id string, totalSent, totalFailed int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return campaign.ErrNotFound
	}
	c.TotalSent = totalSent
	c.TotalFailed = totalFailed
	return nil
}

type memSenderRepo struct {
	mu      sync.Mutex
	senders []*domain.Sender
}

func (m *memSenderRepo) List(_ context.Context) ([]*domain.Sender, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Sender, len(m.senders))
	copy(out, m.senders)
	return out, nil
}

func (m *memSenderRepo) Get(_ context.Context, id string) (*domain.Sender, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.senders {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, sender.ErrNotFound
}

func (m *memSenderRepo) Create(_ context.Context, s *domain.Sender) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.senders {
		if existing.Email == s.Email {
			return sender.ErrDuplicate
		}
	}
	m.senders = append(m.senders, s)
	return nil
}

func (m *memSenderRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.senders {
		if s.ID == id {
			m.senders = append(m.senders[:i], m.senders[i+1:]...)
			return nil
		}
	}
	return sender.ErrNotFound
}

type memHistoryRepo struct {
	mu      sync.Mutex
	records map[string]*domain.History
}

func (m *memHistoryRepo) Get(_ context.Context, campaignID string) (*domain.History, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.records[campaignID]
	if !ok {
		return nil, history.ErrNotFound
	}
	cp := *h
	return &cp, nil
}

func (m *memHistoryRepo) Save(_ context.Context, h *domain.History) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *h
	m.records[h.CampaignID] = &cp
	return nil
}

func (m *memHistoryRepo) Delete(_ context.Context, campaignID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, campaignID)
	return nil
}

type sinkTransport struct {
	mu    sync.Mutex
	sends int
}

func (s *sinkTransport) Send(_ *domain.Sender, _, _, _ string) error {
	s.mu.Lock()
	s.sends++
	s.mu.Unlock()
	return nil
}

type testServer struct {
	handler   http.Handler
	repo      *memCampaignRepo
	transport *sinkTransport
	audit     *mailer.MemoryAuditLog
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repo := &memCampaignRepo{campaigns: make(map[string]*domain.Campaign)}
	histRepo := &memHistoryRepo{records: make(map[string]*domain.History)}
	senderRepo := &memSenderRepo{}
	files, err := filestore.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("filestore: %v", err)
	}

	histories := history.NewService(histRepo, time.Hour)
	campaigns := campaign.NewService(repo, histories, files,
		config.DefaultsConfig{DailyLimit: 120, DelaySeconds: 30, ScheduleTime: "10:00"})
	senders := sender.NewService(senderRepo, nil)
	transport := &sinkTransport{}
	audit := mailer.NewMemoryAuditLog()

	sup := supervisor.New(campaigns, senders, histories, transport, audit,
		runner.Config{PollInterval: 5 * time.Millisecond, ErrorCooldown: 5 * time.Millisecond})
	t.Cleanup(sup.Shutdown)

	srv := api.NewServer(config.ServerConfig{}, campaigns, senders, histories, sup, audit)
	return &testServer{handler: srv.Handler(), repo: repo, transport: transport, audit: audit}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func (ts *testServer) createCampaign(t *testing.T) domain.Campaign {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/campaigns", campaign.Input{
		Name:            "Launch",
		SubjectLine:     "Hello {{first_name}}",
		SelectedSenders: []string{"ops@x.com"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create campaign: status %d body %s", w.Code, w.Body)
	}
	return decodeBody[domain.Campaign](t, w)
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody[map[string]any](t, w)
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
}

func TestCampaignCRUD(t *testing.T) {
	ts := newTestServer(t)
	c := ts.createCampaign(t)

	if c.Status != domain.CampaignDraft {
		t.Errorf("new campaign status = %s, want draft", c.Status)
	}
	if c.DailyLimit != 120 || c.DelaySeconds != 30 {
		t.Errorf("defaults not applied: limit=%d delay=%d", c.DailyLimit, c.DelaySeconds)
	}

	w := ts.do(t, http.MethodGet, "/api/campaigns/"+c.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: status %d", w.Code)
	}

	w = ts.do(t, http.MethodPut, "/api/campaigns/"+c.ID, campaign.Input{
		Name:        "Launch v2",
		SubjectLine: "Hi",
		DailyLimit:  50,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", w.Code, w.Body)
	}
	updated := decodeBody[domain.Campaign](t, w)
	if updated.Name != "Launch v2" || updated.DailyLimit != 50 {
		t.Errorf("update not applied: %+v", updated)
	}

	w = ts.do(t, http.MethodGet, "/api/campaigns", nil)
	list := decodeBody[[]domain.Campaign](t, w)
	if len(list) != 1 {
		t.Fatalf("list length = %d", len(list))
	}

	w = ts.do(t, http.MethodDelete, "/api/campaigns/"+c.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", w.Code)
	}
	w = ts.do(t, http.MethodGet, "/api/campaigns/"+c.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", w.Code)
	}
}

func TestCreateCampaignValidation(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/campaigns", campaign.Input{SubjectLine: "Hi"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing name: status %d, want 400", w.Code)
	}

	w = ts.do(t, http.MethodPost, "/api/campaigns", campaign.Input{
		Name: "X", SubjectLine: "Hi", DailyLimit: 900,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("excessive daily_limit: status %d, want 400", w.Code)
	}

	w = ts.do(t, http.MethodPost, "/api/campaigns", "{not json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON: status %d, want 400", w.Code)
	}
}

func TestUploadAndStats(t *testing.T) {
	ts := newTestServer(t)
	c := ts.createCampaign(t)

	w := ts.do(t, http.MethodPost, "/api/campaigns/"+c.ID+"/leads",
		"email,first_name\na@x.com,Ann\nb@x.com,Ben\n")
	if w.Code != http.StatusOK {
		t.Fatalf("upload leads: status %d body %s", w.Code, w.Body)
	}
	withLeads := decodeBody[domain.Campaign](t, w)
	if withLeads.TotalLeads != 2 {
		t.Errorf("total leads = %d, want 2", withLeads.TotalLeads)
	}

	w = ts.do(t, http.MethodPost, "/api/campaigns/"+c.ID+"/template", "<p>Hi {{first_name}}</p>")
	if w.Code != http.StatusOK {
		t.Fatalf("upload template: status %d", w.Code)
	}

	w = ts.do(t, http.MethodGet, "/api/campaigns/"+c.ID+"/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: status %d", w.Code)
	}
	stats := decodeBody[campaign.Stats](t, w)
	if stats.TotalLeads != 2 || stats.TotalSent != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestUploadLeadsRejectsEmptyBody(t *testing.T) {
	ts := newTestServer(t)
	c := ts.createCampaign(t)

	w := ts.do(t, http.MethodPost, "/api/campaigns/"+c.ID+"/leads", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestStartRunsCampaign(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/senders", sender.CreateInput{
		Email: "ops@x.com", AppPassword: "abcd efgh ijkl",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create sender: status %d body %s", w.Code, w.Body)
	}

	c := ts.createCampaign(t)
	ts.do(t, http.MethodPost, "/api/campaigns/"+c.ID+"/leads", "email\na@x.com\nb@x.com\n")
	ts.do(t, http.MethodPost, "/api/campaigns/"+c.ID+"/template", "<p>hi</p>")

	// Zero the delay so the loop drains instantly.
	ts.repo.mu.Lock()
	ts.repo.campaigns[c.ID].DelaySeconds = 0
	ts.repo.mu.Unlock()

	w = ts.do(t, http.MethodPost, "/api/campaigns/"+c.ID+"/start", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("start: status %d body %s", w.Code, w.Body)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		got, _ := ts.repo.Get(context.Background(), c.ID)
		if got.Status == domain.CampaignCompleted {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	got, _ := ts.repo.Get(context.Background(), c.ID)
	if got.Status != domain.CampaignCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}
	if got.TotalSent != 2 {
		t.Errorf("total sent = %d, want 2", got.TotalSent)
	}

	w = ts.do(t, http.MethodGet, "/api/logs?limit=10", nil)
	entries := decodeBody[[]domain.EmailLogEntry](t, w)
	if len(entries) != 2 {
		t.Errorf("log entries = %d, want 2", len(entries))
	}
}

func TestStopIdleCampaignPersistsPaused(t *testing.T) {
	ts := newTestServer(t)
	c := ts.createCampaign(t)

	w := ts.do(t, http.MethodPost, "/api/campaigns/"+c.ID+"/stop", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stop: status %d", w.Code)
	}
	got, _ := ts.repo.Get(context.Background(), c.ID)
	if got.Status != domain.CampaignPaused {
		t.Errorf("status = %s, want paused", got.Status)
	}
}

func TestSenderEndpoints(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/senders", sender.CreateInput{
		Email: "ops@x.com", AppPassword: "abcd efgh ijkl",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", w.Code, w.Body)
	}
	created := decodeBody[domain.Sender](t, w)
	if created.ID == "" {
		t.Error("created sender has no ID")
	}
	if strings.Contains(w.Body.String(), "abcd efgh ijkl") {
		t.Error("app password leaked in response")
	}

	w = ts.do(t, http.MethodPost, "/api/senders", sender.CreateInput{
		Email: "ops@x.com", AppPassword: "abcd efgh ijkl",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate: status %d, want 409", w.Code)
	}

	w = ts.do(t, http.MethodPost, "/api/senders", sender.CreateInput{
		Email: "bad-address", AppPassword: "abcd efgh ijkl",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid email: status %d, want 400", w.Code)
	}

	w = ts.do(t, http.MethodPost, "/api/senders", sender.CreateInput{
		Email: "short@x.com", AppPassword: "short",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("short password: status %d, want 400", w.Code)
	}

	w = ts.do(t, http.MethodGet, "/api/senders", nil)
	list := decodeBody[[]domain.Sender](t, w)
	if len(list) != 1 {
		t.Fatalf("list length = %d", len(list))
	}

	w = ts.do(t, http.MethodDelete, "/api/senders/"+created.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", w.Code)
	}
	w = ts.do(t, http.MethodDelete, "/api/senders/"+created.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("delete missing: status %d, want 404", w.Code)
	}
}

func TestCampaignHistoryEndpoint(t *testing.T) {
	ts := newTestServer(t)
	c := ts.createCampaign(t)

	w := ts.do(t, http.MethodGet, "/api/campaigns/"+c.ID+"/history", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	ledger := decodeBody[domain.History](t, w)
	if len(ledger.Sent) != 0 || len(ledger.Failed) != 0 {
		t.Errorf("fresh campaign has ledger entries: %+v", ledger)
	}

	w = ts.do(t, http.MethodGet, "/api/campaigns/missing/history", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown campaign: status %d, want 404", w.Code)
	}
}

func TestSupervisorStatusEndpoint(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/supervisor/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	snap := decodeBody[supervisor.Snapshot](t, w)
	if snap.RunningCount != 0 || snap.ScheduledCount != 0 {
		t.Errorf("snapshot = %+v, want idle", snap)
	}
}

func TestLogsRejectsBadLimit(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/logs?limit=zero", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
