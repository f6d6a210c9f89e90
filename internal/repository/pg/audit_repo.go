package pg

import (
	"context"
	"fmt"
	"time"

	"atelier-admin/internal/domain"
	"atelier-admin/pkg/logger"

	"github.com/google/uuid"
)

const createAuditTable = `
CREATE TABLE IF NOT EXISTS variant_save_audits (
	id          UUID PRIMARY KEY,
	product_id  TEXT NOT NULL,
	session_id  TEXT NOT NULL,
	user_id     TEXT NOT NULL,
	entries     INTEGER NOT NULL,
	created     INTEGER NOT NULL,
	updated     INTEGER NOT NULL,
	payload     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_variant_save_audits_product ON variant_save_audits (product_id, created_at DESC);
`

const insertAudit = `
INSERT INTO variant_save_audits (id, product_id, session_id, user_id, entries, created, updated, payload, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

type auditRepository struct {
	db DBTX
}

func NewAuditRepository(db DBTX) domain.SaveAuditRepository {
	return &auditRepository{db: db}
}

// EnsureAuditSchema creates the audit table when it does not exist.
func EnsureAuditSchema(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, createAuditTable); err != nil {
		return fmt.Errorf("create variant_save_audits: %w", err)
	}
	return nil
}

func (r *auditRepository) Record(ctx context.Context, a *domain.SaveAudit) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	payload := a.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	start := time.Now()
	_, err := r.db.Exec(ctx, insertAudit,
		a.ID, a.ProductID, a.SessionID, a.UserID,
		a.Entries, a.Created, a.Updated, string(payload), a.CreatedAt)
	logger.DBQuery("insert variant_save_audits", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("record save audit: %w", err)
	}
	return nil
}

type noopAuditRepository struct{}

// NewNoopAuditRepository is used when no database is configured.
func NewNoopAuditRepository() domain.SaveAuditRepository {
	return noopAuditRepository{}
}

func (noopAuditRepository) Record(context.Context, *domain.SaveAudit) error { return nil }
