package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/ignite/campaign-runner/internal/domain"
	"github.com/ignite/campaign-runner/internal/service/sender"
)

// SenderRepo implements sender.Repository against PostgreSQL.
type SenderRepo struct{ db *sql.DB }

// NewSenderRepo creates a Postgres-backed sender repository.
func NewSenderRepo(db *sql.DB) *SenderRepo { return &SenderRepo{db: db} }

func (r *SenderRepo) List(ctx context.Context) ([]*domain.Sender, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, email, app_password, created_at
		FROM senders
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list senders: %w", err)
	}
	defer rows.Close()

	out := []*domain.Sender{}
	for rows.Next() {
		s := &domain.Sender{}
		if err := rows.Scan(&s.ID, &s.Email, &s.AppPassword, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sender: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SenderRepo) Get(ctx context.Context, id string) (*domain.Sender, error) {
	s := &domain.Sender{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, app_password, created_at
		FROM senders
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Email, &s.AppPassword, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, sender.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sender: %w", err)
	}
	return s, nil
}

func (r *SenderRepo) Create(ctx context.Context, s *domain.Sender) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO senders (id, email, app_password, created_at)
		VALUES ($1, $2, $3, NOW())
	`, s.ID, s.Email, s.AppPassword)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return sender.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create sender: %w", err)
	}
	return nil
}

func (r *SenderRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM senders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete sender: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sender.ErrNotFound
	}
	return nil
}
