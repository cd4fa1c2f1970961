package normalize

import (
	"regexp"
	"strings"
)

// SolutionResult is the canonical record produced from a solution response.
// Thoughts is never empty, and both complexity fields always match the
// "O(...) - reason" contract.
type SolutionResult struct {
	Code            string   `json:"code"`
	Thoughts        []string `json:"thoughts"`
	TimeComplexity  string   `json:"time_complexity"`
	SpaceComplexity string   `json:"space_complexity"`
}

// Documented defaults used when the provider omits a field entirely.
const (
	DefaultThought = "Solution approach based on efficiency and readability"

	DefaultTimeComplexity = "O(n) - Linear time complexity because we only iterate through the array once. " +
		"Each element is processed exactly one time, and the hashmap lookups are O(1) operations."

	DefaultSpaceComplexity = "O(n) - Linear space complexity because we store elements in the hashmap. " +
		"In the worst case, we might need to store all elements before finding the solution pair."

	// defaultNotation is spliced in when a complexity clause lacks a Big-O token.
	defaultNotation = "O(n)"
)

var (
	codeFencePattern = regexp.MustCompile("(?s)```(?:[a-zA-Z0-9]+)?[ \t]*\n?(.*?)```")

	thoughtsSectionPattern = regexp.MustCompile(`(?is)(?:Thoughts:|Key Insights:|Reasoning:|Approach:)(.*?)(?:Time complexity:|$)`)

	bulletLinePattern = regexp.MustCompile(`(?m)^\s*(?:[-*•]|\d+\.)\s+(.+)$`)

	bigOPattern = regexp.MustCompile(`(?i)O\([^)]+\)`)

	// Labeled lines that terminate a complexity clause.
	sectionLabelPattern = regexp.MustCompile(`(?i)^\s*(?:#{1,6}\s|time complexity|space complexity|thoughts:|key insights:|reasoning:|approach:)`)

	timeLabelPattern  = regexp.MustCompile(`(?i)^\s*(?:\*\*)?time complexity(?:\*\*)?:?\s*`)
	spaceLabelPattern = regexp.MustCompile(`(?i)^\s*(?:\*\*)?space complexity(?:\*\*)?:?\s*`)
)

// ParseSolution normalizes a freeform solution response. It never fails:
// every field has a fallback strategy ending in a documented default.
func ParseSolution(text string) *SolutionResult {
	return &SolutionResult{
		Code:            extractCode(text),
		Thoughts:        extractThoughts(text),
		TimeComplexity:  extractComplexity(text, timeLabelPattern, DefaultTimeComplexity),
		SpaceComplexity: extractComplexity(text, spaceLabelPattern, DefaultSpaceComplexity),
	}
}

// extractCode takes the first fenced code block; with no fencing the entire
// response is treated as code. Missing fences are never a failure.
func extractCode(text string) string {
	if m := codeFencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

// thoughtStrategies are tried in priority order against the thoughts section.
var thoughtStrategies = []func(string) []string{
	bulletThoughts,
	lineThoughts,
}

// extractThoughts locates the labeled thoughts section and applies the
// strategy cascade. The result is never empty.
func extractThoughts(text string) []string {
	if m := thoughtsSectionPattern.FindStringSubmatch(text); m != nil {
		for _, strategy := range thoughtStrategies {
			if thoughts := strategy(m[1]); len(thoughts) > 0 {
				return thoughts
			}
		}
	}
	return []string{DefaultThought}
}

func bulletThoughts(section string) []string {
	var thoughts []string
	for _, m := range bulletLinePattern.FindAllStringSubmatch(section, -1) {
		if t := strings.TrimSpace(m[1]); t != "" {
			thoughts = append(thoughts, t)
		}
	}
	return thoughts
}

func lineThoughts(section string) []string {
	var thoughts []string
	for _, line := range strings.Split(section, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			thoughts = append(thoughts, t)
		}
	}
	return thoughts
}

// extractComplexity pulls the clause following a complexity label: the rest
// of the label line plus contiguous following lines up to the next labeled
// section or blank line. The clause is then normalized to "O(...) - reason";
// an absent label yields the documented default, not an error.
func extractComplexity(text string, label *regexp.Regexp, fallback string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		loc := label.FindStringIndex(line)
		if loc == nil {
			continue
		}
		clause := []string{strings.TrimSpace(line[loc[1]:])}
		for _, next := range lines[i+1:] {
			if strings.TrimSpace(next) == "" || sectionLabelPattern.MatchString(next) {
				break
			}
			clause = append(clause, strings.TrimSpace(next))
		}
		joined := strings.TrimSpace(strings.Join(clause, "\n"))
		if joined == "" {
			break
		}
		return formatComplexity(joined)
	}
	return fallback
}

// formatComplexity enforces the "O(...) - reason" invariant: a missing Big-O
// token gets the default notation prepended; a present token with no
// separator gets "notation - rest" spliced in.
func formatComplexity(clause string) string {
	notation := bigOPattern.FindString(clause)
	if notation == "" {
		return defaultNotation + " - " + clause
	}
	if strings.Contains(clause, "-") || strings.Contains(strings.ToLower(clause), "because") {
		return clause
	}
	rest := strings.TrimSpace(strings.Replace(clause, notation, "", 1))
	if rest == "" {
		rest = "see the solution explanation"
	}
	return notation + " - " + rest
}
