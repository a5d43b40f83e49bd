package structurer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantTier string
		wantKey  string
	}{
		{
			name:     "bare JSON object",
			input:    `{"overall_sentiment": "positive"}`,
			wantTier: TierDirect,
			wantKey:  "overall_sentiment",
		},
		{
			name:     "fenced code block with language tag",
			input:    "Here is the analysis:\n```json\n{\"patterns\": []}\n```\nDone.",
			wantTier: TierFenced,
			wantKey:  "patterns",
		},
		{
			name:     "fenced code block without language tag",
			input:    "```\n{\"confidence\": 0.9}\n```",
			wantTier: TierFenced,
			wantKey:  "confidence",
		},
		{
			name:     "object embedded in prose",
			input:    `The result is {"title": "Fix onboarding"} as requested.`,
			wantTier: TierScan,
			wantKey:  "title",
		},
		{
			name:     "nested braces in prose",
			input:    `Output: {"outer": {"inner": 1}} trailing text`,
			wantTier: TierScan,
			wantKey:  "outer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, tier, err := Extract(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTier, tier)
			assert.Contains(t, obj, tt.wantKey)
		})
	}
}

func TestExtractFailures(t *testing.T) {
	for _, input := range []string{"", "   ", "no json here", "{broken json", "[1, 2, 3]"} {
		_, _, err := Extract(input)
		assert.Error(t, err, "input: %q", input)
	}
}

func TestExtractPrefersDirectParse(t *testing.T) {
	obj, tier, err := Extract(`{"a": 1, "b": {"c": 2}}`)
	require.NoError(t, err)
	assert.Equal(t, TierDirect, tier)
	assert.Len(t, obj, 2)
}
