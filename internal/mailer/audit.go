package mailer

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/campaign-runner/internal/domain"
)

// AuditCap bounds how many attempt records the log retains.
const AuditCap = 1000

const auditKey = "campaign_runner:email_log"

// AuditLog records send attempts for inspection. Appends are best-effort:
// a failing log must never block or fail the engine.
type AuditLog interface {
	Append(ctx context.Context, entry domain.EmailLogEntry)
	Recent(ctx context.Context, limit int) ([]domain.EmailLogEntry, error)
}

// RedisAuditLog keeps the most recent entries in a capped Redis list,
// newest first.
type RedisAuditLog struct {
	client *redis.Client
}

// NewRedisAuditLog builds an audit log on an existing Redis client.
func NewRedisAuditLog(client *redis.Client) *RedisAuditLog {
	return &RedisAuditLog{client: client}
}

func (a *RedisAuditLog) Append(ctx context.Context, entry domain.EmailLogEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		log.Printf("[mailer] audit marshal: %v", err)
		return
	}
	pipe := a.client.TxPipeline()
	pipe.LPush(ctx, auditKey, data)
	pipe.LTrim(ctx, auditKey, 0, AuditCap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[mailer] audit append: %v", err)
	}
}

func (a *RedisAuditLog) Recent(ctx context.Context, limit int) ([]domain.EmailLogEntry, error) {
	if limit <= 0 || limit > AuditCap {
		limit = AuditCap
	}
	raw, err := a.client.LRange(ctx, auditKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.EmailLogEntry, 0, len(raw))
	for _, item := range raw {
		var e domain.EmailLogEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			log.Printf("[mailer] audit unmarshal: %v", err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// MemoryAuditLog is the in-process fallback when Redis is not configured.
// Same contract: capped, newest first.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []domain.EmailLogEntry
}

// NewMemoryAuditLog builds an empty in-memory audit log.
func NewMemoryAuditLog() *MemoryAuditLog {
	return &MemoryAuditLog{}
}

func (a *MemoryAuditLog) Append(_ context.Context, entry domain.EmailLogEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append([]domain.EmailLogEntry{entry}, a.entries...)
	if len(a.entries) > AuditCap {
		a.entries = a.entries[:AuditCap]
	}
}

func (a *MemoryAuditLog) Recent(_ context.Context, limit int) ([]domain.EmailLogEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if limit <= 0 || limit > len(a.entries) {
		limit = len(a.entries)
	}
	out := make([]domain.EmailLogEntry, limit)
	copy(out, a.entries[:limit])
	return out, nil
}
