package sessions

import "context"

// Store port (interface for the session table). The backing implementation is
// process-local and non-durable; the port exists so a persistent store can be
// swapped in without touching the use-cases.
type Store interface {
	// Create initializes a pending session for the given field and returns a copy.
	Create(ctx context.Context, field Field) (*Session, error)

	// Get returns a copy of the session, or ErrNotFound.
	Get(ctx context.Context, id SessionID) (*Session, error)

	// Update applies mutate to the session under the store's lock so status
	// read-modify-write is atomic per session. Terminal sessions are rejected
	// with ErrInvalidState before mutate runs. Returns a copy of the updated
	// session.
	Update(ctx context.Context, id SessionID, mutate func(*Session) error) (*Session, error)

	// Delete removes the session. Deleting an unknown id is a no-op.
	Delete(ctx context.Context, id SessionID) error

	// List returns copies of all live sessions (retention sweep support).
	List(ctx context.Context) ([]*Session, error)
}
