package analysis

import "context"

// Document is one piece of extracted evidence text handed to the LLM.
type Document struct {
	Filename string
	Text     string
}

// Evidence is the assembled input for one assessment call.
type Evidence struct {
	Field     string
	FieldName string
	CV        *Document
	Letters   []Document
	Portfolio []Document
	Answers   map[string]any
}

// Client port (interface for the LLM service). Implementations return the raw
// reply body; schema validation is the orchestrator's job via Parse.
type Client interface {
	Assess(ctx context.Context, ev Evidence) (string, error)
}

// ListFilter narrows the analytics listing.
type ListFilter struct {
	Skip   int
	Limit  int
	Field  string
	Status string
}

// FieldStats is one by-field aggregation row.
type FieldStats struct {
	Field         string  `json:"field"`
	Count         int64   `json:"count"`
	AvgScore      float64 `json:"avg_score"`
	AvgLikelihood float64 `json:"avg_likelihood"`
}

// RecommendationStats is one by-recommendation aggregation row.
type RecommendationStats struct {
	Recommendation string `json:"recommendation"`
	Count          int64  `json:"count"`
}

// Overview is the dashboard aggregate over all records.
type Overview struct {
	TotalAnalyses    int64                 `json:"total_analyses"`
	Completed        int64                 `json:"completed"`
	Errors           int64                 `json:"errors"`
	SuccessRate      float64               `json:"success_rate"`
	ByField          []FieldStats          `json:"by_field"`
	ByRecommendation []RecommendationStats `json:"by_recommendation"`
	Recent30Days     int64                 `json:"recent_30_days"`
}

// RecordRepository port (interface for persistence of AnalysisRecords).
type RecordRepository interface {
	Save(ctx context.Context, r *Record) error
	Overview(ctx context.Context) (*Overview, error)
	List(ctx context.Context, f ListFilter) ([]*Record, int64, error)
	Export(ctx context.Context) ([]*Record, error)
}

// ArtifactStore port (interface for result artifact storage).
type ArtifactStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
	UploadAndCleanup(ctx context.Context, localPath, key string) (string, error)
}
