package sessions

import (
	"time"

	"github.com/talentlens/talentlens/internal/domain/analysis"
)

// SessionID is the opaque token handed to the wizard frontend.
type SessionID string

// Field enum: the Global Talent endorsement route the applicant is assessed against.
type Field string

const (
	FieldDigitalTechnology Field = "digital_technology"
	FieldArtsCulture       Field = "arts_culture"
	FieldScienceResearch   Field = "science_research"
)

var fieldNames = map[Field]string{
	FieldDigitalTechnology: "Digital Technology",
	FieldArtsCulture:       "Arts and Culture",
	FieldScienceResearch:   "Science and Research",
}

// Fields returns the recognized fields in display order.
func Fields() []Field {
	return []Field{FieldDigitalTechnology, FieldArtsCulture, FieldScienceResearch}
}

func (f Field) Valid() bool {
	_, ok := fieldNames[f]
	return ok
}

func (f Field) DisplayName() string { return fieldNames[f] }

// Status enum
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Terminal reports whether the status admits no further mutation.
func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusError }

// DocKind classifies an uploaded evidence document.
type DocKind string

const (
	DocCV        DocKind = "cv"
	DocLetter    DocKind = "recommendation_letter"
	DocPortfolio DocKind = "portfolio_item"
)

// DocumentRef points at one stored upload. The blob itself is opaque;
// text extraction happens only inside the analysis pipeline.
type DocumentRef struct {
	Kind        DocKind   `json:"kind"`
	Filename    string    `json:"filename"`
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Aggregate Root: Session
type Session struct {
	ID           SessionID        `json:"session_id"`
	Field        Field            `json:"field"`
	Answers      map[string]any   `json:"answers,omitempty"`
	Documents    []DocumentRef    `json:"documents,omitempty"`
	Status       Status           `json:"status"`
	Result       *analysis.Result `json:"result,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
}

// CountByKind counts stored documents of one kind.
func (s *Session) CountByKind(k DocKind) int {
	n := 0
	for _, d := range s.Documents {
		if d.Kind == k {
			n++
		}
	}
	return n
}

// HasCV reports whether the mandatory CV document is present.
func (s *Session) HasCV() bool { return s.CountByKind(DocCV) > 0 }

// Clone returns a deep copy safe to hand outside the store's lock.
func (s *Session) Clone() *Session {
	cp := *s
	if s.Answers != nil {
		cp.Answers = make(map[string]any, len(s.Answers))
		for k, v := range s.Answers {
			cp.Answers[k] = v
		}
	}
	if s.Documents != nil {
		cp.Documents = make([]DocumentRef, len(s.Documents))
		copy(cp.Documents, s.Documents)
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
