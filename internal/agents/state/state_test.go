package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custintel/internal/feedback"
)

func TestNewState(t *testing.T) {
	st := New("Acme", "Widget", []string{"reviews"})

	assert.Equal(t, "Acme", st.CompanyName)
	assert.Equal(t, "Widget", st.ProductName)
	assert.Equal(t, StepInitialization, st.CurrentStep)
	assert.Equal(t, 0, st.IterationCount)
	assert.NotNil(t, st.RawData)
	assert.NotNil(t, st.Errors)
}

func TestCompleteStage(t *testing.T) {
	st := New("Acme", "Widget", []string{"reviews"})

	st.CompleteStage(StepCollectionCompleted)
	assert.Equal(t, StepCollectionCompleted, st.CurrentStep)
	assert.Equal(t, 1, st.IterationCount)

	st.CompleteStage(StepSentimentCompleted)
	assert.Equal(t, StepSentimentCompleted, st.CurrentStep)
	assert.Equal(t, 2, st.IterationCount)
}

func TestAddErrorAppendOnly(t *testing.T) {
	st := New("Acme", "Widget", []string{"reviews"})

	st.AddError("first")
	st.AddError("second")
	assert.Equal(t, []string{"first", "second"}, st.Errors)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*State)
		wantValid bool
		wantError string
	}{
		{
			name:      "valid initial state",
			mutate:    func(*State) {},
			wantValid: true,
		},
		{
			name:      "missing company",
			mutate:    func(s *State) { s.CompanyName = "" },
			wantValid: false,
			wantError: "Missing required field: company_name",
		},
		{
			name:      "missing product",
			mutate:    func(s *State) { s.ProductName = "" },
			wantValid: false,
			wantError: "Missing required field: product_name",
		},
		{
			name:      "no data sources",
			mutate:    func(s *State) { s.DataSources = nil },
			wantValid: false,
			wantError: "data_sources must be a non-empty list",
		},
		{
			name:      "negative iteration count",
			mutate:    func(s *State) { s.IterationCount = -1 },
			wantValid: false,
			wantError: "iteration_count must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := New("Acme", "Widget", []string{"reviews"})
			tt.mutate(st)

			result := st.Validate()
			assert.Equal(t, tt.wantValid, result.Valid)
			if tt.wantError != "" {
				require.NotEmpty(t, result.Errors)
				assert.Contains(t, result.Errors, tt.wantError)
			}
		})
	}
}

func TestValidateUnknownStepWarns(t *testing.T) {
	st := New("Acme", "Widget", []string{"reviews"})
	st.CurrentStep = "made_up_step"

	result := st.Validate()
	assert.True(t, result.Valid, "unknown step is a warning, not an error")
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "made_up_step")
}

func TestSummarize(t *testing.T) {
	st := New("Acme", "Widget", []string{"reviews"})
	summary := st.Summarize()
	assert.False(t, summary.PipelineComplete)
	assert.False(t, summary.DataCollected)

	st.RawData = []feedback.Record{{"text": "hello"}}
	st.SentimentResults = feedback.SentimentResult{OverallSentiment: "positive"}
	st.Patterns = []feedback.Pattern{{PatternType: "pain_point", Description: "slow"}}
	st.Opportunities = []feedback.Opportunity{{Title: "Speed up"}}
	st.StrategyRecommendations = []feedback.Recommendation{{Action: "Optimize"}}
	st.ExecutiveSummary = "Summary text."
	st.CurrentStep = StepStrategyCompleted
	st.IterationCount = 5

	summary = st.Summarize()
	assert.True(t, summary.DataCollected)
	assert.True(t, summary.SentimentAnalyzed)
	assert.True(t, summary.PatternsDetected)
	assert.True(t, summary.OpportunitiesFound)
	assert.True(t, summary.StrategyGenerated)
	assert.True(t, summary.PipelineComplete)
	assert.Equal(t, 5, summary.IterationCount)
}

func TestSummarizeStrategyNeedsSummaryText(t *testing.T) {
	st := New("Acme", "Widget", []string{"reviews"})
	st.StrategyRecommendations = []feedback.Recommendation{{Action: "Optimize"}}

	summary := st.Summarize()
	assert.False(t, summary.StrategyGenerated, "recommendations without an executive summary are incomplete")
}
