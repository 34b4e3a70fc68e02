package advisory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStructuredVerdict(t *testing.T) {
	out, err := ParseStructuredVerdict(`{"verdict":"CONFIRM","confidence":82,"reasons":["extreme score","full quality"]}`)
	require.NoError(t, err)
	assert.Equal(t, "CONFIRM", out.Verdict)
	assert.Equal(t, 82, out.Confidence)
	assert.Len(t, out.Reasons, 2)
}

func TestParseStructuredVerdictCodeFence(t *testing.T) {
	content := "```json\n{\"verdict\":\"WAIT\",\"reasons\":[\"thin data\"]}\n```"
	out, err := ParseStructuredVerdict(content)
	require.NoError(t, err)
	assert.Equal(t, "WAIT", out.Verdict)
}

func TestParseStructuredVerdictProseWrapped(t *testing.T) {
	content := `Here is my assessment: {"verdict":"SKIP","confidence":60} hope that helps`
	out, err := ParseStructuredVerdict(content)
	require.NoError(t, err)
	assert.Equal(t, "SKIP", out.Verdict)
}

func TestParseStructuredVerdictRejectsUnknownVerdict(t *testing.T) {
	_, err := ParseStructuredVerdict(`{"verdict":"HOLD"}`)
	assert.Error(t, err)
}

func TestParseStructuredVerdictRejectsMissingVerdict(t *testing.T) {
	_, err := ParseStructuredVerdict(`{"confidence":90}`)
	assert.Error(t, err)
}

func TestParseStructuredVerdictRejectsNonJSON(t *testing.T) {
	_, err := ParseStructuredVerdict("I cannot decide.")
	assert.Error(t, err)
}

func TestParseStructuredVerdictRejectsOutOfRangeConfidence(t *testing.T) {
	_, err := ParseStructuredVerdict(`{"verdict":"CONFIRM","confidence":140}`)
	assert.Error(t, err)
}
