package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutcome_PlainJSON(t *testing.T) {
	outcome, err := ParseOutcome(`{"leaked": true, "reason": "raw SSN visible"}`)
	require.NoError(t, err)
	assert.True(t, outcome.Leaked)
	assert.Equal(t, "raw SSN visible", outcome.Reason)
}

func TestParseOutcome_CleanVerdict(t *testing.T) {
	outcome, err := ParseOutcome(`{"leaked": false, "reason": ""}`)
	require.NoError(t, err)
	assert.False(t, outcome.Leaked)
}

func TestParseOutcome_StripsMarkdownFences(t *testing.T) {
	payloads := []string{
		"```json\n{\"leaked\": true, \"reason\": \"name exposed\"}\n```",
		"```\n{\"leaked\": true, \"reason\": \"name exposed\"}\n```",
		"  \n```json\n{\"leaked\": true, \"reason\": \"name exposed\"}\n```  ",
	}

	for _, payload := range payloads {
		outcome, err := ParseOutcome(payload)
		require.NoError(t, err, "payload %q", payload)
		assert.True(t, outcome.Leaked)
		assert.Equal(t, "name exposed", outcome.Reason)
	}
}

func TestParseOutcome_RejectsGarbage(t *testing.T) {
	for _, payload := range []string{
		"",
		"   ",
		"```json\n```",
		"the model refuses to answer in JSON",
		`{"leaked": "maybe"}`,
	} {
		_, err := ParseOutcome(payload)
		assert.Error(t, err, "payload %q", payload)
	}
}

func TestParseOutcome_IgnoresUnknownFields(t *testing.T) {
	outcome, err := ParseOutcome(`{"leaked": false, "reason": "clean", "confidence": 0.97}`)
	require.NoError(t, err)
	assert.False(t, outcome.Leaked)
	assert.Equal(t, "clean", outcome.Reason)
}
