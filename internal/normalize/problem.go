// Package normalize converts raw provider output into canonical result
// records.
//
// DESIGN: Providers are not contractually bound to exact formatting. Each
// field is recovered by an explicit ordered list of extractor strategies,
// applied in fixed priority order; the first match wins. Freeform modes
// always degrade gracefully to a structurally valid result. Only JSON mode
// (problem extraction) can hard-fail: malformed JSON there means the
// screenshots need retaking, and there is nothing safe to build on.
//
// Everything in this package is pure and deterministic given its input text.
package normalize

import (
	"encoding/json"
	"strings"

	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/fault"
)

// ProblemInfo is the structured problem extracted from screenshots.
type ProblemInfo struct {
	ProblemStatement string `json:"problem_statement"`
	Constraints      string `json:"constraints,omitempty"`
	ExampleInput     string `json:"example_input,omitempty"`
	ExampleOutput    string `json:"example_output,omitempty"`
}

// ParseProblem parses the extraction response as JSON, tolerating markdown
// code fences around the document. Parse failure is terminal: it returns a
// ParseError and no recovery is attempted.
func ParseProblem(text string) (*ProblemInfo, error) {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var info ProblemInfo
	if err := json.Unmarshal([]byte(cleaned), &info); err != nil {
		return nil, fault.New(fault.ParseError,
			"Failed to parse problem information. Please try again or use clearer screenshots.")
	}
	return &info, nil
}
