package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ignite/campaign-runner/internal/domain"
	"github.com/ignite/campaign-runner/internal/service/history"
)

// HistoryRepo implements history.Repository against PostgreSQL. The whole
// ledger is one row per campaign; Save is a full-document upsert so every
// attempt's write replaces the record in a single statement.
type HistoryRepo struct{ db *sql.DB }

// NewHistoryRepo creates a Postgres-backed history repository.
func NewHistoryRepo(db *sql.DB) *HistoryRepo { return &HistoryRepo{db: db} }

func (r *HistoryRepo) Get(ctx context.Context, campaignID string) (*domain.History, error) {
	h := &domain.History{CampaignID: campaignID}
	var sent, failed, processing, timestamps, daily []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT sent, failed, processing, processing_timestamps, daily_sent_tracking, updated_at
		FROM campaign_history
		WHERE campaign_id = $1
	`, campaignID).Scan(&sent, &failed, &processing, &timestamps, &daily, &h.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, history.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}

	for _, field := range []struct {
		data []byte
		dst  any
	}{
		{sent, &h.Sent},
		{failed, &h.Failed},
		{processing, &h.Processing},
		{timestamps, &h.ProcessingTimestamps},
		{daily, &h.DailySentTracking},
	} {
		if err := json.Unmarshal(field.data, field.dst); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
	}
	return h, nil
}

func (r *HistoryRepo) Save(ctx context.Context, h *domain.History) error {
	sent, err := json.Marshal(h.Sent)
	if err != nil {
		return fmt.Errorf("encode sent: %w", err)
	}
	failed, err := json.Marshal(h.Failed)
	if err != nil {
		return fmt.Errorf("encode failed: %w", err)
	}
	processing, err := json.Marshal(h.Processing)
	if err != nil {
		return fmt.Errorf("encode processing: %w", err)
	}
	timestamps, err := json.Marshal(h.ProcessingTimestamps)
	if err != nil {
		return fmt.Errorf("encode processing_timestamps: %w", err)
	}
	daily, err := json.Marshal(h.DailySentTracking)
	if err != nil {
		return fmt.Errorf("encode daily_sent_tracking: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO campaign_history
			(campaign_id, sent, failed, processing, processing_timestamps, daily_sent_tracking, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (campaign_id) DO UPDATE SET
			sent = EXCLUDED.sent,
			failed = EXCLUDED.failed,
			processing = EXCLUDED.processing,
			processing_timestamps = EXCLUDED.processing_timestamps,
			daily_sent_tracking = EXCLUDED.daily_sent_tracking,
			updated_at = NOW()
	`, h.CampaignID, sent, failed, processing, timestamps, daily)
	if err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

func (r *HistoryRepo) Delete(ctx context.Context, campaignID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM campaign_history WHERE campaign_id = $1`, campaignID); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}
