package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/fault"
)

func TestParseProblemStripsCodeFences(t *testing.T) {
	text := "```json\n{\"problem_statement\": \"Two Sum\", \"constraints\": \"n <= 10^4\"}\n```"

	info, err := ParseProblem(text)
	require.NoError(t, err)
	assert.Equal(t, "Two Sum", info.ProblemStatement)
	assert.Equal(t, "n <= 10^4", info.Constraints)
}

func TestParseProblemPlainJSON(t *testing.T) {
	info, err := ParseProblem(`{"problem_statement": "Reverse a list"}`)
	require.NoError(t, err)
	assert.Equal(t, "Reverse a list", info.ProblemStatement)
	assert.Empty(t, info.ExampleInput)
}

func TestParseProblemMalformedIsTerminal(t *testing.T) {
	_, err := ParseProblem("Sure! Here is the problem I can see: Two Sum.")
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.ParseError))
}
