package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/talentlens/talentlens/internal/domain/analysis"
)

// GetSystemPrompt provides strict directions and the schema for JSON output.
func GetSystemPrompt() string {
	return `You are an expert UK Global Talent Visa assessor with deep knowledge of the endorsement criteria used by Tech Nation, Arts Council England, and the Royal Society / British Academy / Royal Academy of Engineering. You must produce one valid JSON object only (no markdown, no commentary). Do not include code fences.

Requirements:
- Output must be a single JSON object matching the schema below.
- likelihood is a number between 0.0 and 1.0.
- Use lowercase severity values for gaps: critical, high, medium, low.
- roadmap.total_weeks must equal the sum of the milestone duration_weeks values.
- Ground every claim in the evidence provided; never invent achievements the applicant did not supply.
- Be honest about weaknesses. An over-optimistic assessment harms the applicant.

Schema (example with empty values):
{
  "likelihood": 0.0,
  "assessment_level": "<exceptional_talent|exceptional_promise|insufficient>",
  "evidence_present": {
    "mandatory_documents": {
      "cv": "<present|missing>",
      "recommendation_letters": "<e.g. 2 of 3 provided>",
      "portfolio_evidence": "<e.g. 4 items provided>"
    },
    "innovation_evidence": ["<string>"],
    "recognition_evidence": ["<string>"]
  },
  "cv_feedback": {
    "score": 0,
    "strengths": ["<string>"],
    "weaknesses": ["<string>"],
    "improvement_recommendations": ["<string>"]
  },
  "gaps": [
    {
      "type": "<string>",
      "severity": "<critical|high|medium|low>",
      "description": "<string>",
      "recommendation": "<string>"
    }
  ],
  "strengths": ["<string>"],
  "overall_assessment": "<string>",
  "next_steps": ["<string>"],
  "roadmap": {
    "milestones": [
      {
        "title": "<string>",
        "description": "<string>",
        "duration_weeks": 0,
        "priority": "<high|medium|low>",
        "evidence_to_collect": ["<string>"],
        "addresses_gaps": ["<string>"]
      }
    ],
    "total_weeks": 0,
    "feasibility_assessment": "<string>",
    "critical_path": ["<string>"]
  }
}`
}

// fieldCriteria summarizes the endorsing body and its headline criteria per field.
var fieldCriteria = map[string]string{
	"digital_technology": `Endorsing body: Tech Nation.
Mandatory criteria: a proven track record of innovation as a founder or senior executive of a product-led digital technology company, or as an employee working on a new digital field or concept.
Optional criteria (at least two): recognition beyond the applicant's occupation, significant technical/commercial/entrepreneurial contributions, academic contributions through research, exceptional ability demonstrated by impact outside their immediate occupation.`,
	"arts_culture": `Endorsing body: Arts Council England.
Criteria: a substantial track record in the relevant field over the last five years, evidenced by international awards or nominations, media recognition in more than one country, and appearances, exhibitions, performances or publications of international standing.`,
	"science_research": `Endorsing body: The Royal Society, British Academy, or Royal Academy of Engineering.
Criteria: a PhD or equivalent research experience, active research career in a UK-relevant discipline, peer-reviewed publications, international research collaborations, research grants as principal or co-investigator, and recognition such as fellowships, prizes, or invited keynotes.`,
}

// GetUserPrompt assembles the evidence bundle into one user message.
func GetUserPrompt(ev analysis.Evidence) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Assess this applicant for the UK Global Talent Visa in the %s route.\n\n", ev.FieldName)

	if crit, ok := fieldCriteria[ev.Field]; ok {
		b.WriteString("## Endorsement criteria\n")
		b.WriteString(crit)
		b.WriteString("\n\n")
	}

	b.WriteString("## Questionnaire answers\n")
	if answers, err := json.MarshalIndent(ev.Answers, "", "  "); err == nil {
		b.Write(answers)
	}
	b.WriteString("\n\n")

	if ev.CV != nil {
		fmt.Fprintf(&b, "## CV (%s)\n%s\n\n", ev.CV.Filename, ev.CV.Text)
	} else {
		b.WriteString("## CV\nNot provided.\n\n")
	}

	if len(ev.Letters) > 0 {
		b.WriteString("## Recommendation letters\n")
		for i, l := range ev.Letters {
			fmt.Fprintf(&b, "### Letter %d (%s)\n%s\n\n", i+1, l.Filename, l.Text)
		}
	}

	if len(ev.Portfolio) > 0 {
		b.WriteString("## Portfolio evidence\n")
		for _, p := range ev.Portfolio {
			fmt.Fprintf(&b, "### %s\n%s\n\n", p.Filename, p.Text)
		}
	}

	b.WriteString("Respond with the JSON object per the schema. Include a realistic preparation roadmap even when the applicant is close to ready.")
	return b.String()
}
