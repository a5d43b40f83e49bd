package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "custintel", cfg.App.Name)
	assert.Equal(t, 2*time.Minute, cfg.Pipeline.StageTimeout)
	assert.Equal(t, 50, cfg.Pipeline.SentimentSampleSize)
	assert.Equal(t, 30, cfg.Pipeline.PatternSampleSize)
	assert.Equal(t, "data", cfg.Data.SampleDir)
	assert.Equal(t, "reports", cfg.Output.ReportDir)
	assert.Equal(t, "reports/evaluations", cfg.Output.EvalDir)
	assert.Equal(t, 60*time.Second, cfg.AI.RequestTimeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PIPELINE_SENTIMENT_SAMPLE_SIZE", "10")
	t.Setenv("AI_FORCE_MOCK", "true")
	t.Setenv("OUTPUT_REPORT_DIR", "/tmp/reports")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Pipeline.SentimentSampleSize)
	assert.True(t, cfg.AI.ForceMock)
	assert.Equal(t, "/tmp/reports", cfg.Output.ReportDir)
}

func TestProviders(t *testing.T) {
	tests := []struct {
		name  string
		order string
		want  []string
	}{
		{"default order", "gemini,openai,claude,ollama", []string{"gemini", "openai", "claude", "ollama"}},
		{"whitespace and case", " Gemini , OLLAMA ", []string{"gemini", "ollama"}},
		{"empty entries dropped", "gemini,,claude", []string{"gemini", "claude"}},
		{"empty string", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := AIConfig{ProviderOrder: tt.order}
			assert.Equal(t, tt.want, cfg.Providers())
		})
	}
}
