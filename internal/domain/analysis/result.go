package analysis

// Result is the fixed schema the LLM reply must satisfy. Field names match
// the JSON the model is instructed to emit.
type Result struct {
	Likelihood        float64         `json:"likelihood"`
	AssessmentLevel   string          `json:"assessment_level"`
	EvidencePresent   EvidencePresent `json:"evidence_present"`
	CVFeedback        CVFeedback      `json:"cv_feedback"`
	Gaps              []Gap           `json:"gaps"`
	Strengths         []string        `json:"strengths"`
	OverallAssessment string          `json:"overall_assessment"`
	NextSteps         []string        `json:"next_steps,omitempty"`
	Roadmap           Roadmap         `json:"roadmap"`
}

type EvidencePresent struct {
	MandatoryDocuments  MandatoryDocuments `json:"mandatory_documents"`
	InnovationEvidence  []string           `json:"innovation_evidence,omitempty"`
	RecognitionEvidence []string           `json:"recognition_evidence,omitempty"`
}

type MandatoryDocuments struct {
	CV                    string `json:"cv"`
	RecommendationLetters string `json:"recommendation_letters"`
	PortfolioEvidence     string `json:"portfolio_evidence"`
}

type CVFeedback struct {
	Score                      int      `json:"score"`
	Strengths                  []string `json:"strengths,omitempty"`
	Weaknesses                 []string `json:"weaknesses,omitempty"`
	ImprovementRecommendations []string `json:"improvement_recommendations,omitempty"`
}

// Gap is one identified missing or weak piece of evidence.
type Gap struct {
	Type           string `json:"type"`
	Severity       string `json:"severity"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}

type Roadmap struct {
	Milestones            []Milestone `json:"milestones"`
	TotalWeeks            int         `json:"total_weeks"`
	FeasibilityAssessment string      `json:"feasibility_assessment,omitempty"`
	CriticalPath          []string    `json:"critical_path,omitempty"`
}

type Milestone struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	DurationWeeks     int      `json:"duration_weeks"`
	Priority          string   `json:"priority"`
	EvidenceToCollect []string `json:"evidence_to_collect,omitempty"`
	AddressesGaps     []string `json:"addresses_gaps,omitempty"`
}

// Finalize recomputes the derived values the caller must not trust from the
// model: the roadmap total is always the sum of its milestone durations.
func (r *Result) Finalize() {
	total := 0
	for _, m := range r.Roadmap.Milestones {
		total += m.DurationWeeks
	}
	r.Roadmap.TotalWeeks = total
}

// Recommendation buckets derived from likelihood. Fixed buckets keep the
// analytics grouping stable across model versions.
const (
	RecommendationReady       = "ready_to_apply"
	RecommendationImprove     = "apply_with_improvements"
	RecommendationBuild       = "build_evidence"
	RecommendationNotReady    = "not_ready"
	RecommendationUnavailable = "unavailable"
)

// Bucket maps a likelihood score to its recommendation bucket.
func Bucket(likelihood float64) string {
	switch {
	case likelihood >= 0.75:
		return RecommendationReady
	case likelihood >= 0.5:
		return RecommendationImprove
	case likelihood >= 0.3:
		return RecommendationBuild
	default:
		return RecommendationNotReady
	}
}
