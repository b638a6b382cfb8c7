package questionnaire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentlens/talentlens/internal/domain/sessions"
)

func TestForIncludesCommonQuestionsFirst(t *testing.T) {
	for _, field := range sessions.Fields() {
		qs := For(field)
		require.NotEmpty(t, qs, "field %s has no questions", field)
		assert.Equal(t, "years_experience", qs[0].ID)
	}
}

func TestForFieldSpecificQuestions(t *testing.T) {
	ids := func(field sessions.Field) map[string]bool {
		out := map[string]bool{}
		for _, q := range For(field) {
			out[q.ID] = true
		}
		return out
	}

	assert.True(t, ids(sessions.FieldDigitalTechnology)["github_url"])
	assert.True(t, ids(sessions.FieldArtsCulture)["international_prizes"])
	assert.True(t, ids(sessions.FieldScienceResearch)["peer_reviewed_pubs"])
	assert.False(t, ids(sessions.FieldArtsCulture)["github_url"])
}

func TestValidateAcceptsCompleteAnswers(t *testing.T) {
	answers := map[string]any{}
	for _, q := range For(sessions.FieldDigitalTechnology) {
		switch q.Type {
		case TypeNumber:
			answers[q.ID] = float64(6)
		case TypeYesNo:
			answers[q.ID] = true
		default:
			answers[q.ID] = "https://github.com/someone"
		}
	}
	assert.NoError(t, Validate(sessions.FieldDigitalTechnology, answers))
}

func TestValidateRejectsEmptyAnswers(t *testing.T) {
	err := Validate(sessions.FieldDigitalTechnology, nil)
	assert.ErrorIs(t, err, ErrInvalidAnswers)
}

func TestValidateRejectsMissingRequired(t *testing.T) {
	err := Validate(sessions.FieldDigitalTechnology, map[string]any{"github_url": "https://github.com/x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAnswers)
}

func TestValidateRejectsWrongType(t *testing.T) {
	answers := map[string]any{"years_experience": "six"}
	err := Validate(sessions.FieldDigitalTechnology, answers)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAnswers)
}

func TestValidateToleratesUnknownIDs(t *testing.T) {
	answers := map[string]any{"ui_step": 3}
	for _, q := range For(sessions.FieldArtsCulture) {
		if q.Required {
			switch q.Type {
			case TypeNumber:
				answers[q.ID] = float64(2)
			case TypeYesNo:
				answers[q.ID] = true
			default:
				answers[q.ID] = "some text"
			}
		}
	}
	assert.NoError(t, Validate(sessions.FieldArtsCulture, answers))
}
