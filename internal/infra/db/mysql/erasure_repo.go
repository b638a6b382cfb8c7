package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	domain "github.com/talentlens/talentlens/internal/domain/erasure"
)

type ErasureRepository struct {
	db *sql.DB
}

func NewErasureRepository(db *sql.DB) *ErasureRepository { return &ErasureRepository{db: db} }

func (r *ErasureRepository) Save(ctx context.Context, a *domain.Audit) error {
	const q = `
INSERT INTO erasure_audits
  (session_id, documents_json, result_deleted, status, error, requested_at, completed_at)
VALUES (?,?,?,?,?,?,?)
`
	docs, err := json.Marshal(a.DocumentsDeleted)
	if err != nil {
		docs = []byte("[]")
	}
	requested := a.RequestedAt
	if requested.IsZero() {
		requested = time.Now()
	}
	completed := a.CompletedAt
	if completed.IsZero() {
		completed = requested
	}
	res, err := r.db.ExecContext(ctx, q,
		stringOrDash(a.SessionID), string(docs), a.ResultDeleted,
		stringOrDash(a.Status), a.Error, requested, completed,
	)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		a.ID = id
	}
	return nil
}

// Latest returns the most recent audit for a session, or nil when the session
// was never erased.
func (r *ErasureRepository) Latest(ctx context.Context, sessionID string) (*domain.Audit, error) {
	const q = `
SELECT id, session_id, documents_json, result_deleted, status, error, requested_at, completed_at
FROM erasure_audits
WHERE session_id = ?
ORDER BY requested_at DESC, id DESC
LIMIT 1;`
	var a domain.Audit
	var docs string
	err := r.db.QueryRowContext(ctx, q, sessionID).Scan(
		&a.ID, &a.SessionID, &docs, &a.ResultDeleted,
		&a.Status, &a.Error, &a.RequestedAt, &a.CompletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(docs), &a.DocumentsDeleted); err != nil {
		a.DocumentsDeleted = nil
	}
	return &a, nil
}

var _ domain.Repository = (*ErasureRepository)(nil)
