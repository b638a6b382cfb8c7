package erasure

import "time"

// Audit is one append-only record of a data-erasure request, kept after the
// session itself is gone so deletion can be proven later.
type Audit struct {
	ID               int64     `json:"id,omitempty"`
	SessionID        string    `json:"session_id"`
	DocumentsDeleted []string  `json:"documents_deleted"`
	ResultDeleted    bool      `json:"result_deleted"`
	Status           string    `json:"status"` // completed | failed
	Error            string    `json:"error,omitempty"`
	RequestedAt      time.Time `json:"requested_at"`
	CompletedAt      time.Time `json:"completed_at"`
}

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)
