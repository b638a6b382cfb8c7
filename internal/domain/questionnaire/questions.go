package questionnaire

import (
	"errors"
	"fmt"

	"github.com/talentlens/talentlens/internal/domain/sessions"
)

// ErrInvalidAnswers indicates a submission that violates the field's question set.
var ErrInvalidAnswers = errors.New("invalid questionnaire answers")

// AnswerType enum
type AnswerType string

const (
	TypeNumber AnswerType = "number"
	TypeYesNo  AnswerType = "yes_no"
	TypeText   AnswerType = "text"
)

// Question is one descriptor served to the wizard.
type Question struct {
	ID       string     `json:"id"`
	Prompt   string     `json:"question"`
	Type     AnswerType `json:"type"`
	Required bool       `json:"required"`
	HelpText string     `json:"help_text,omitempty"`
}

var commonQuestions = []Question{
	{ID: "years_experience", Prompt: "How many years of professional experience do you have in your field?", Type: TypeNumber, Required: true},
}

var fieldQuestions = map[sessions.Field][]Question{
	sessions.FieldDigitalTechnology: {
		{ID: "github_url", Prompt: "GitHub profile URL (if applicable)", Type: TypeText},
		{ID: "portfolio_url", Prompt: "Portfolio or personal website URL", Type: TypeText, Required: true,
			HelpText: "Your portfolio website showcasing your projects, work, and achievements"},
		{ID: "has_founded_company", Prompt: "Have you founded or held a senior role in a product-led digital technology company?", Type: TypeYesNo, Required: true},
		{ID: "publications", Prompt: "Number of technical publications, research papers, or significant blog posts", Type: TypeNumber, Required: true},
		{ID: "speaking_engagements", Prompt: "Have you spoken at prominent tech conferences or events?", Type: TypeYesNo, Required: true},
		{ID: "awards", Prompt: "List any industry awards or recognition you have received", Type: TypeText},
		{ID: "open_source", Prompt: "Do you have significant open-source contributions? (provide GitHub stars/forks if applicable)", Type: TypeText},
	},
	sessions.FieldArtsCulture: {
		{ID: "portfolio_url", Prompt: "Portfolio, exhibition website, or online gallery URL", Type: TypeText, Required: true,
			HelpText: "Website showcasing your artistic work, exhibitions, or performances"},
		{ID: "countries_worked", Prompt: "How many countries have you worked or exhibited in?", Type: TypeNumber, Required: true},
		{ID: "international_prizes", Prompt: "List any international prizes or awards", Type: TypeText},
		{ID: "media_coverage", Prompt: "Have you received international media coverage?", Type: TypeYesNo, Required: true},
		{ID: "major_venues", Prompt: "List major venues or platforms where your work has been presented", Type: TypeText},
	},
	sessions.FieldScienceResearch: {
		{ID: "portfolio_url", Prompt: "Academic or research profile URL (e.g., personal website, Google Scholar, ResearchGate)", Type: TypeText,
			HelpText: "Link to your academic profile or personal research website"},
		{ID: "peer_reviewed_pubs", Prompt: "Number of peer-reviewed publications", Type: TypeNumber, Required: true},
		{ID: "citations", Prompt: "Approximate number of citations of your work", Type: TypeNumber},
		{ID: "research_grants", Prompt: "Have you been PI or Co-I on research grants?", Type: TypeYesNo, Required: true},
		{ID: "academic_position", Prompt: "Do you hold an academic position at a leading institution?", Type: TypeYesNo, Required: true},
		{ID: "fellowships", Prompt: "List any individual fellowships or research prizes", Type: TypeText},
	},
}

// For returns the ordered question set for a field (common questions first).
func For(field sessions.Field) []Question {
	qs := make([]Question, 0, len(commonQuestions)+len(fieldQuestions[field]))
	qs = append(qs, commonQuestions...)
	qs = append(qs, fieldQuestions[field]...)
	return qs
}

// Validate checks submitted answers against the field's question set:
// required questions must be answered and each answer must match its declared
// type. Unknown answer ids are tolerated (the wizard may send UI-only keys).
func Validate(field sessions.Field, answers map[string]any) error {
	if len(answers) == 0 {
		return fmt.Errorf("%w: no answers submitted", ErrInvalidAnswers)
	}
	for _, q := range For(field) {
		v, ok := answers[q.ID]
		if !ok || v == nil {
			if q.Required {
				return fmt.Errorf("%w: missing required answer %q", ErrInvalidAnswers, q.ID)
			}
			continue
		}
		if err := checkType(q, v); err != nil {
			return err
		}
	}
	return nil
}

func checkType(q Question, v any) error {
	switch q.Type {
	case TypeNumber:
		// json numbers decode as float64
		switch v.(type) {
		case float64, int, int64:
			return nil
		}
		return fmt.Errorf("%w: answer %q must be a number", ErrInvalidAnswers, q.ID)
	case TypeYesNo:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("%w: answer %q must be true or false", ErrInvalidAnswers, q.ID)
		}
	case TypeText:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("%w: answer %q must be text", ErrInvalidAnswers, q.ID)
		}
	}
	return nil
}
