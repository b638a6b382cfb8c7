package analysis

import (
	"math"
	"time"
)

// RecordID type for AnalysisRecord
type RecordID string

// Record is the immutable snapshot persisted once per finished analysis
// (success or failure). It carries the derived scalars the analytics
// endpoints aggregate over; the live session keeps the full payload.
type Record struct {
	ID              RecordID  `json:"id"`
	SessionID       string    `json:"session_id"`
	Field           string    `json:"field"`
	Status          string    `json:"status"` // completed | error
	ErrorMessage    string    `json:"error_message,omitempty"`
	Likelihood      float64   `json:"likelihood"`
	OverallScore    int       `json:"overall_score"`
	Recommendation  string    `json:"recommendation"`
	AssessmentLevel string    `json:"assessment_level,omitempty"`
	StrengthsCount  int       `json:"strengths_count"`
	WeaknessesCount int       `json:"weaknesses_count"`
	GapsCount       int       `json:"gaps_count"`
	RoadmapWeeks    int       `json:"roadmap_weeks"`
	DocumentCount   int       `json:"document_count"`
	ArtifactURL     string    `json:"artifact_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	CompletedAt     time.Time `json:"completed_at"`
}

const (
	RecordStatusCompleted = "completed"
	RecordStatusError     = "error"
)

// NewRecord builds the completed-analysis snapshot from a finalized result.
func NewRecord(id RecordID, sessionID, field string, res *Result, docCount int, artifactURL string, createdAt, completedAt time.Time) *Record {
	return &Record{
		ID:              id,
		SessionID:       sessionID,
		Field:           field,
		Status:          RecordStatusCompleted,
		Likelihood:      res.Likelihood,
		OverallScore:    int(math.Round(res.Likelihood * 100)),
		Recommendation:  Bucket(res.Likelihood),
		AssessmentLevel: res.AssessmentLevel,
		StrengthsCount:  len(res.Strengths),
		WeaknessesCount: len(res.CVFeedback.Weaknesses),
		GapsCount:       len(res.Gaps),
		RoadmapWeeks:    res.Roadmap.TotalWeeks,
		DocumentCount:   docCount,
		ArtifactURL:     artifactURL,
		CreatedAt:       createdAt,
		CompletedAt:     completedAt,
	}
}

// NewErrorRecord builds the failed-analysis snapshot.
func NewErrorRecord(id RecordID, sessionID, field, message string, docCount int, createdAt, completedAt time.Time) *Record {
	return &Record{
		ID:             id,
		SessionID:      sessionID,
		Field:          field,
		Status:         RecordStatusError,
		ErrorMessage:   message,
		Recommendation: RecommendationUnavailable,
		DocumentCount:  docCount,
		CreatedAt:      createdAt,
		CompletedAt:    completedAt,
	}
}
