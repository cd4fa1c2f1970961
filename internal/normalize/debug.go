package normalize

import (
	"regexp"
	"strings"
)

// DebugResult is the canonical record produced from a debug response.
type DebugResult struct {
	Code            string   `json:"code"`
	DebugAnalysis   string   `json:"debug_analysis"`
	Thoughts        []string `json:"thoughts"`
	TimeComplexity  string   `json:"time_complexity"`
	SpaceComplexity string   `json:"space_complexity"`
}

const (
	// DebugCodeSentinel is used when the response contains no fenced block.
	DebugCodeSentinel = "// Debug mode - see analysis below"

	// DebugComplexitySentinel fills both complexity fields in debug mode.
	DebugComplexitySentinel = "N/A - Debug mode"

	// DefaultDebugThought is the fallback when no bullet lines are found.
	DefaultDebugThought = "Debug analysis based on your screenshots"

	// maxDebugThoughts caps the thoughts derived from bullet lines.
	maxDebugThoughts = 5
)

// CanonicalDebugHeaders are the five section headers the debug prompt
// demands, in order. The rigid contract exists so sections can be sliced
// reliably regardless of provider.
var CanonicalDebugHeaders = []string{
	"### Issues Identified",
	"### Specific Improvements and Corrections",
	"### Optimizations",
	"### Explanation of Changes Needed",
	"### Key Points",
}

// headerRelabels replace loosely-matching synonym phrases with the canonical
// header when a provider ignored the section contract. First occurrence only,
// tried in canonical order.
var headerRelabels = []struct {
	synonym   *regexp.Regexp
	canonical string
}{
	{regexp.MustCompile(`(?i)issues identified|problems found|bugs found`), "### Issues Identified"},
	{regexp.MustCompile(`(?i)specific improvements and corrections|code improvements|suggested changes|improvements`), "### Specific Improvements and Corrections"},
	{regexp.MustCompile(`(?i)optimizations|performance improvements`), "### Optimizations"},
	{regexp.MustCompile(`(?i)explanation of changes needed|detailed analysis|explanation`), "### Explanation of Changes Needed"},
	{regexp.MustCompile(`(?i)key points|key takeaways`), "### Key Points"},
}

var anyHeaderPattern = regexp.MustCompile(`(?m)^#{1,3} `)

// ParseDebug normalizes a freeform debug response. Missing sections degrade
// gracefully: the analysis text is relabeled when recognizable, never
// rejected.
func ParseDebug(text string) *DebugResult {
	code := DebugCodeSentinel
	if m := codeFencePattern.FindStringSubmatch(text); m != nil {
		if c := strings.TrimSpace(m[1]); c != "" {
			code = c
		}
	}

	analysis := relabelSections(text)

	thoughts := bulletThoughts(analysis)
	if len(thoughts) > maxDebugThoughts {
		thoughts = thoughts[:maxDebugThoughts]
	}
	if len(thoughts) == 0 {
		thoughts = []string{DefaultDebugThought}
	}

	return &DebugResult{
		Code:            code,
		DebugAnalysis:   analysis,
		Thoughts:        thoughts,
		TimeComplexity:  DebugComplexitySentinel,
		SpaceComplexity: DebugComplexitySentinel,
	}
}

// relabelSections rewrites synonym phrases into the canonical headers when
// the response carries no markdown headers at all. Responses that already
// use headers are left untouched.
func relabelSections(text string) string {
	if anyHeaderPattern.MatchString(text) {
		return text
	}
	for _, r := range headerRelabels {
		text = replaceFirst(r.synonym, text, r.canonical)
	}
	return text
}

// replaceFirst replaces only the first match of re in text.
func replaceFirst(re *regexp.Regexp, text, replacement string) string {
	loc := re.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return text[:loc[0]] + replacement + text[loc[1]:]
}
