package normalize

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDebugWellFormedResponse(t *testing.T) {
	text := "### Issues Identified\n" +
		"- Off-by-one in the loop bound\n" +
		"- Missing null check\n\n" +
		"### Specific Improvements and Corrections\n" +
		"- Change `<=` to `<`\n\n" +
		"### Optimizations\n" +
		"- None needed\n\n" +
		"### Explanation of Changes Needed\n" +
		"The loop reads past the last element.\n\n" +
		"### Key Points\n" +
		"- Watch loop bounds\n\n" +
		"```python\nfor i in range(len(a)):\n    pass\n```"

	result := ParseDebug(text)

	assert.Contains(t, result.Code, "for i in range")
	assert.Equal(t, text, result.DebugAnalysis)
	assert.Equal(t, "Off-by-one in the loop bound", result.Thoughts[0])
	assert.Equal(t, DebugComplexitySentinel, result.TimeComplexity)
	assert.Equal(t, DebugComplexitySentinel, result.SpaceComplexity)
}

func TestParseDebugRelabelsSynonymSections(t *testing.T) {
	text := "Problems found: the loop bound is wrong.\n" +
		"- fix the loop bound\n" +
		"Suggested changes: use < instead of <=.\n" +
		"Key takeaways: always test boundaries.\n"

	result := ParseDebug(text)

	assert.Contains(t, result.DebugAnalysis, "### Issues Identified")
	assert.Contains(t, result.DebugAnalysis, "### Specific Improvements and Corrections")
	assert.Contains(t, result.DebugAnalysis, "### Key Points")
}

func TestParseDebugLeavesHeaderedResponseUntouched(t *testing.T) {
	text := "## My Own Issues Identified Heading\nsome analysis"
	result := ParseDebug(text)
	assert.Equal(t, text, result.DebugAnalysis)
}

func TestParseDebugNoCodeUsesSentinel(t *testing.T) {
	result := ParseDebug("### Issues Identified\n- something is wrong")
	assert.Equal(t, DebugCodeSentinel, result.Code)
}

func TestParseDebugThoughtsCappedAtFive(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("### Issues Identified\n")
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&sb, "- issue number %d\n", i)
	}
	result := ParseDebug(sb.String())
	assert.Len(t, result.Thoughts, 5)
}

func TestParseDebugNoBulletsUsesPlaceholderThought(t *testing.T) {
	result := ParseDebug("### Explanation of Changes Needed\nplain prose only")
	assert.Equal(t, []string{DefaultDebugThought}, result.Thoughts)
}
