package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validReply = `{
  "likelihood": 0.62,
  "assessment_level": "exceptional_promise",
  "evidence_present": {
    "mandatory_documents": {"cv": "present", "recommendation_letters": "2 of 3 provided", "portfolio_evidence": "3 items provided"}
  },
  "cv_feedback": {
    "score": 70,
    "strengths": ["clear impact statements"],
    "weaknesses": ["no metrics on team leadership"],
    "improvement_recommendations": ["quantify outcomes"]
  },
  "gaps": [
    {"type": "recognition", "severity": "High", "description": "no external recognition", "recommendation": "apply for industry awards"}
  ],
  "strengths": ["strong open source record"],
  "overall_assessment": "promising profile with gaps in recognition",
  "next_steps": ["collect third letter"],
  "roadmap": {
    "milestones": [
      {"title": "Publish talks", "description": "speak at two conferences", "duration_weeks": 8, "priority": "high"},
      {"title": "Awards", "description": "submit award applications", "duration_weeks": 4, "priority": "medium"}
    ],
    "total_weeks": 99,
    "feasibility_assessment": "achievable in one quarter"
  }
}`

func TestParseValidReply(t *testing.T) {
	res, err := Parse(validReply)
	require.NoError(t, err)

	assert.Equal(t, 0.62, res.Likelihood)
	assert.Equal(t, "exceptional_promise", res.AssessmentLevel)
	require.Len(t, res.Gaps, 1)
	assert.Equal(t, "high", res.Gaps[0].Severity, "severity should be normalized to lowercase")
	assert.Equal(t, 12, res.Roadmap.TotalWeeks, "total weeks must be recomputed from milestones")
}

func TestParseStripsMarkdownFences(t *testing.T) {
	res, err := Parse("```json\n" + validReply + "\n```")
	require.NoError(t, err)
	assert.Equal(t, 0.62, res.Likelihood)
}

func TestParseRejections(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "I think the applicant looks strong."},
		{"likelihood above one", `{"likelihood": 1.4, "assessment_level": "x", "roadmap": {"milestones": []}}`},
		{"likelihood negative", `{"likelihood": -0.1, "assessment_level": "x", "roadmap": {"milestones": []}}`},
		{"missing assessment level", `{"likelihood": 0.5, "roadmap": {"milestones": []}}`},
		{"bad severity", `{"likelihood": 0.5, "assessment_level": "x", "gaps": [{"type": "a", "severity": "catastrophic", "description": "d", "recommendation": "r"}], "roadmap": {"milestones": []}}`},
		{"negative milestone duration", `{"likelihood": 0.5, "assessment_level": "x", "roadmap": {"milestones": [{"title": "t", "description": "d", "duration_weeks": -3}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUpstream)
		})
	}
}

func TestBucket(t *testing.T) {
	assert.Equal(t, RecommendationReady, Bucket(0.9))
	assert.Equal(t, RecommendationReady, Bucket(0.75))
	assert.Equal(t, RecommendationImprove, Bucket(0.6))
	assert.Equal(t, RecommendationBuild, Bucket(0.3))
	assert.Equal(t, RecommendationNotReady, Bucket(0.1))
}

func TestNewRecordDerivedScalars(t *testing.T) {
	res, err := Parse(validReply)
	require.NoError(t, err)

	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	completed := created.Add(90 * time.Second)
	rec := NewRecord("rec_1", "sess_1", "digital_technology", res, 4, "http://minio/r.json", created, completed)

	assert.Equal(t, RecordStatusCompleted, rec.Status)
	assert.Equal(t, 62, rec.OverallScore)
	assert.Equal(t, RecommendationImprove, rec.Recommendation)
	assert.Equal(t, 1, rec.StrengthsCount)
	assert.Equal(t, 1, rec.WeaknessesCount)
	assert.Equal(t, 1, rec.GapsCount)
	assert.Equal(t, 12, rec.RoadmapWeeks)
	assert.Equal(t, 4, rec.DocumentCount)
}

func TestNewErrorRecord(t *testing.T) {
	now := time.Now().UTC()
	rec := NewErrorRecord("rec_2", "sess_2", "arts_culture", "upstream timeout", 2, now, now)

	assert.Equal(t, RecordStatusError, rec.Status)
	assert.Equal(t, "upstream timeout", rec.ErrorMessage)
	assert.Equal(t, RecommendationUnavailable, rec.Recommendation)
	assert.Zero(t, rec.OverallScore)
}
