package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

var validSeverities = map[string]bool{
	"critical": true,
	"high":     true,
	"medium":   true,
	"low":      true,
}

// Parse validates a raw LLM reply against the required schema. Models
// occasionally wrap JSON in markdown fences despite instructions, so fences
// are stripped before unmarshalling. Any schema deviation is an upstream
// failure: the caller stores it as the session's error state.
func Parse(raw string) (*Result, error) {
	clean := stripFences(raw)
	if clean == "" {
		return nil, fmt.Errorf("%w: empty response", ErrUpstream)
	}

	var res Result
	if err := json.Unmarshal([]byte(clean), &res); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrUpstream, err)
	}

	if res.Likelihood < 0 || res.Likelihood > 1 {
		return nil, fmt.Errorf("%w: likelihood %v outside [0,1]", ErrUpstream, res.Likelihood)
	}
	if strings.TrimSpace(res.AssessmentLevel) == "" {
		return nil, fmt.Errorf("%w: missing assessment_level", ErrUpstream)
	}
	for i, g := range res.Gaps {
		sev := strings.ToLower(strings.TrimSpace(g.Severity))
		if !validSeverities[sev] {
			return nil, fmt.Errorf("%w: gap %d has invalid severity %q", ErrUpstream, i, g.Severity)
		}
		res.Gaps[i].Severity = sev
	}
	for i, m := range res.Roadmap.Milestones {
		if m.DurationWeeks < 0 {
			return nil, fmt.Errorf("%w: milestone %d has negative duration", ErrUpstream, i)
		}
		if strings.TrimSpace(m.Title) == "" {
			return nil, fmt.Errorf("%w: milestone %d has no title", ErrUpstream, i)
		}
	}

	res.Finalize()
	return &res, nil
}

// stripFences removes a leading ```json / ``` fence and the trailing fence.
func stripFences(s string) string {
	clean := strings.TrimSpace(s)
	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}
