package erasure

import "context"

// Repository port (interface for the erasure audit trail).
type Repository interface {
	Save(ctx context.Context, a *Audit) error
	// Latest returns the most recent audit row for a session, or nil when none exists.
	Latest(ctx context.Context, sessionID string) (*Audit, error)
}
