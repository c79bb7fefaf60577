package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ignite/campaign-runner/internal/domain"
	"github.com/ignite/campaign-runner/internal/service/campaign"
)

// CampaignRepo implements campaign.Repository against PostgreSQL.
// Structured fields (sender selection, schedule) live in JSONB columns so
// the record round-trips as one document.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

const campaignColumns = `
	id, name, description, status, subject_line, selected_senders,
	leads_file_id, template_file_id, daily_limit, delay_seconds, schedule,
	total_sent, total_failed, total_leads, created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	var senders, schedule []byte
	err := row.Scan(
		&c.ID, &c.Name, &c.Description, &c.Status, &c.SubjectLine, &senders,
		&c.LeadsFileID, &c.TemplateFileID, &c.DailyLimit, &c.DelaySeconds, &schedule,
		&c.TotalSent, &c.TotalFailed, &c.TotalLeads, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(senders, &c.SelectedSenders); err != nil {
		return nil, fmt.Errorf("decode selected_senders: %w", err)
	}
	if err := json.Unmarshal(schedule, &c.Schedule); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	return c, nil
}

func (r *CampaignRepo) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id)
	c, err := scanCampaign(row)
	if err == sql.ErrNoRows {
		return nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

func (r *CampaignRepo) List(ctx context.Context) ([]domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	out := []domain.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func encodeCampaign(c *domain.Campaign) (senders, schedule []byte, err error) {
	selected := c.SelectedSenders
	if selected == nil {
		selected = []string{}
	}
	senders, err = json.Marshal(selected)
	if err != nil {
		return nil, nil, fmt.Errorf("encode selected_senders: %w", err)
	}
	schedule, err = json.Marshal(c.Schedule)
	if err != nil {
		return nil, nil, fmt.Errorf("encode schedule: %w", err)
	}
	return senders, schedule, nil
}

func (r *CampaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	senders, schedule, err := encodeCampaign(c)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO campaigns
			(id, name, description, status, subject_line, selected_senders,
			 leads_file_id, template_file_id, daily_limit, delay_seconds, schedule,
			 total_sent, total_failed, total_leads, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
	`, c.ID, c.Name, c.Description, c.Status, c.SubjectLine, senders,
		c.LeadsFileID, c.TemplateFileID, c.DailyLimit, c.DelaySeconds, schedule,
		c.TotalSent, c.TotalFailed, c.TotalLeads)
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

func (r *CampaignRepo) Save(ctx context.Context, c *domain.Campaign) error {
	senders, schedule, err := encodeCampaign(c)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns SET
			name = $2, description = $3, status = $4, subject_line = $5,
			selected_senders = $6, leads_file_id = $7, template_file_id = $8,
			daily_limit = $9, delay_seconds = $10, schedule = $11,
			total_sent = $12, total_failed = $13, total_leads = $14,
			updated_at = NOW()
		WHERE id = $1
	`, c.ID, c.Name, c.Description, c.Status, c.SubjectLine, senders,
		c.LeadsFileID, c.TemplateFileID, c.DailyLimit, c.DelaySeconds, schedule,
		c.TotalSent, c.TotalFailed, c.TotalLeads)
	if err != nil {
		return fmt.Errorf("save campaign: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

func (r *CampaignRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

func (r *CampaignRepo) UpdateStatus(ctx context.Context, id string, status domain.CampaignStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

func (r *CampaignRepo) UpdateStats(ctx context.Context, id string, totalSent, totalFailed int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns SET total_sent = $1, total_failed = $2, updated_at = NOW()
		WHERE id = $3
	`, totalSent, totalFailed, id)
	if err != nil {
		return fmt.Errorf("update stats: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}
