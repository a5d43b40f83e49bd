package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custintel/internal/adapters/ai"
	"custintel/internal/adapters/config"
	"custintel/internal/agents"
	"custintel/internal/agents/state"
	"custintel/internal/feedback"
	"custintel/internal/sampledata"
)

func testConfig() *config.Config {
	return &config.Config{
		Pipeline: config.PipelineConfig{
			StageTimeout:        2 * time.Minute,
			SentimentSampleSize: 50,
			PatternSampleSize:   30,
		},
	}
}

func testOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()

	gateway := ai.NewGateway(context.Background(), ai.GatewayConfig{ForceMock: true})
	dir := t.TempDir()
	factory := func(company, product string) agents.DataLoader {
		return sampledata.NewLoader(filepath.Join(dir, "data"), company, product)
	}

	cfg := testConfig()
	cfg.Output.ReportDir = filepath.Join(dir, "reports")
	return New(cfg, gateway, factory)
}

func TestRunFullPipelineMockMode(t *testing.T) {
	o := testOrchestrator(t)

	st, err := o.Run(context.Background(), "Acme", "Widget", []string{"reviews", "tickets", "surveys"})
	require.NoError(t, err)
	require.NotNil(t, st)

	assert.Equal(t, state.StepStrategyCompleted, st.CurrentStep)
	assert.Equal(t, 5, st.IterationCount)

	// three sources with no files on disk synthesize 20 records each
	assert.Len(t, st.RawData, 60)
	assert.NotEmpty(t, st.DataSummary)

	assert.NotEmpty(t, st.SentimentResults.OverallSentiment)
	assert.Len(t, st.Patterns, 2)

	assert.GreaterOrEqual(t, len(st.Opportunities), 5)
	assert.LessOrEqual(t, len(st.Opportunities), 8)
	for i, opp := range st.Opportunities {
		assert.Equal(t, i+1, opp.Rank)
	}

	assert.NotEmpty(t, st.StrategyRecommendations)
	assert.Contains(t, st.ExecutiveSummary, "Acme")
	assert.NotEmpty(t, st.Roadmap.Phase1Immediate)

	require.NotNil(t, st.PerformanceMetrics)
	assert.Equal(t, 5, st.PerformanceMetrics.StagesCompleted+st.PerformanceMetrics.StagesFailed)
	assert.Equal(t, 60, st.PerformanceMetrics.RecordsProcessed)

	require.NotNil(t, st.ValidationReport)
	assert.Len(t, st.StageTimings, 5)

	summary := st.Summarize()
	assert.True(t, summary.PipelineComplete)
}

func TestRunWritesStrategyReport(t *testing.T) {
	o := testOrchestrator(t)

	st, err := o.Run(context.Background(), "Acme", "Widget", []string{"reviews"})
	require.NoError(t, err)
	require.NotEmpty(t, st.StrategyRecommendations)

	matches, err := filepath.Glob(filepath.Join(o.cfg.Output.ReportDir, "strategy_report_*.md"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Contains(t, matches[0], st.WorkflowID)

	content, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "Acme")
}

type panickyAgent struct{}

func (panickyAgent) Name() string { return agents.AgentPatternDetector }

func (panickyAgent) Process(context.Context, *state.State) error {
	panic("nil pattern catalog")
}

func TestRunStageRecoversPanic(t *testing.T) {
	o := testOrchestrator(t)
	st := state.New("Acme", "Widget", []string{"reviews"})
	st.StageTimings = map[string]state.StageTiming{}

	var ok bool
	require.NotPanics(t, func() {
		ok = o.runStage(context.Background(), panickyAgent{}, st, o.log)
	})

	assert.False(t, ok)
	require.NotEmpty(t, st.Errors)
	assert.Contains(t, st.Errors[0], agents.AgentPatternDetector)
	assert.Contains(t, st.Errors[0], "stage panicked: nil pattern catalog")
	assert.Equal(t, "failed", st.StageTimings[agents.AgentPatternDetector].Status)
}

type erroringAgent struct{}

func (erroringAgent) Name() string { return agents.AgentSentimentAnalyzer }

func (erroringAgent) Process(context.Context, *state.State) error {
	return fmt.Errorf("template render failed")
}

func TestRunStageRecordsReturnedError(t *testing.T) {
	o := testOrchestrator(t)
	st := state.New("Acme", "Widget", []string{"reviews"})
	st.StageTimings = map[string]state.StageTiming{}

	ok := o.runStage(context.Background(), erroringAgent{}, st, o.log)

	assert.False(t, ok)
	require.NotEmpty(t, st.Errors)
	assert.Contains(t, st.Errors[0], agents.AgentSentimentAnalyzer)
	assert.Contains(t, st.Errors[0], "template render failed")
}

type offlineLoader struct{}

func (offlineLoader) Load(_ context.Context, source string) ([]feedback.Record, error) {
	return nil, fmt.Errorf("%s store offline", source)
}

func TestRunAllSourcesFailing(t *testing.T) {
	gateway := ai.NewGateway(context.Background(), ai.GatewayConfig{ForceMock: true})
	cfg := testConfig()
	cfg.Output.ReportDir = t.TempDir()
	o := New(cfg, gateway, func(company, product string) agents.DataLoader {
		return offlineLoader{}
	})

	st, err := o.Run(context.Background(), "Acme", "Widget", []string{"reviews", "tickets", "surveys"})
	require.NoError(t, err, "collection failure degrades the run, it does not abort it")
	require.NotNil(t, st)

	require.NotNil(t, st.RawData, "raw data stays a typed empty list")
	assert.Empty(t, st.RawData)

	joined := strings.Join(st.Errors, "\n")
	assert.Contains(t, joined, "Failed to collect data from reviews")
	assert.Contains(t, joined, "Failed to collect data from tickets")
	assert.Contains(t, joined, "Failed to collect data from surveys")
	assert.Contains(t, joined, "No data collected")
	assert.Contains(t, joined, "No raw data available for sentiment analysis")

	assert.Empty(t, st.SentimentResults.OverallSentiment)

	require.NotNil(t, st.PerformanceMetrics)
	assert.Greater(t, st.PerformanceMetrics.StagesFailed, 0)
	assert.Equal(t, 0, st.PerformanceMetrics.RecordsProcessed)
	assert.Len(t, st.StageTimings, 5, "every stage still runs")
}

func TestRunWorkflowIDFormat(t *testing.T) {
	o := testOrchestrator(t)

	st, err := o.Run(context.Background(), "Acme Corp", "Widget", []string{"reviews"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(st.WorkflowID, "acme_corp_"), "got %q", st.WorkflowID)
}

func TestRunPreFlightFailure(t *testing.T) {
	o := testOrchestrator(t)

	st, err := o.Run(context.Background(), "", "Widget", []string{"reviews"})
	require.Error(t, err)
	require.NotNil(t, st)

	assert.Equal(t, state.StepFailed, st.CurrentStep)
	assert.Equal(t, 0, st.IterationCount)
	require.Len(t, st.Errors, 1)
	assert.Contains(t, st.Errors[0], "initial state validation failed")
	assert.Contains(t, st.Errors[0], "company_name")

	require.NotNil(t, st.PerformanceMetrics)
	assert.Equal(t, 1, st.PerformanceMetrics.StagesFailed)
	assert.Nil(t, st.ValidationReport)
}

func TestRunNoSourcesFailsPreFlight(t *testing.T) {
	o := testOrchestrator(t)

	_, err := o.Run(context.Background(), "Acme", "Widget", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data_sources")
}

func TestRunUnknownSourceIsTolerated(t *testing.T) {
	o := testOrchestrator(t)

	st, err := o.Run(context.Background(), "Acme", "Widget", []string{"reviews", "forum_posts"})
	require.NoError(t, err)
	assert.Equal(t, state.StepStrategyCompleted, st.CurrentStep)
	assert.Len(t, st.RawData, 40, "unknown sources still synthesize records")
}

func TestValidateStageOutput(t *testing.T) {
	rich := func() *state.State {
		st := state.New("Acme", "Widget", []string{"reviews"})
		return st
	}

	t.Run("collector with no data errors", func(t *testing.T) {
		errs, _ := validateStageOutput(agents.AgentDataCollector, rich())
		assert.Equal(t, []string{"No data collected"}, errs)
	})

	t.Run("sentiment missing entirely errors", func(t *testing.T) {
		errs, _ := validateStageOutput(agents.AgentSentimentAnalyzer, rich())
		assert.Equal(t, []string{"No sentiment analysis results"}, errs)
	})

	t.Run("sentiment summary without classification warns", func(t *testing.T) {
		st := rich()
		st.SentimentResults.AnalysisSummary = "Something happened."
		errs, warns := validateStageOutput(agents.AgentSentimentAnalyzer, st)
		assert.Empty(t, errs)
		assert.Equal(t, []string{"Missing overall sentiment classification"}, warns)
	})

	t.Run("no patterns warns only", func(t *testing.T) {
		errs, warns := validateStageOutput(agents.AgentPatternDetector, rich())
		assert.Empty(t, errs)
		assert.Equal(t, []string{"No patterns detected"}, warns)
	})

	t.Run("strategy with no recommendations errors", func(t *testing.T) {
		errs, warns := validateStageOutput(agents.AgentStrategyCreator, rich())
		assert.Equal(t, []string{"No strategy recommendations generated"}, errs)
		assert.Equal(t, []string{"Executive summary too short or missing"}, warns)
	})
}

func TestValidateFinal(t *testing.T) {
	o := testOrchestrator(t)

	st := state.New("Acme", "Widget", []string{"reviews"})
	for i := 0; i < 20; i++ {
		st.RawData = append(st.RawData, feedback.Record{"text": "feedback"})
	}
	st.Patterns = []feedback.Pattern{
		{PatternType: "pain_point", Description: "slow loading"},
	}
	st.Opportunities = []feedback.Opportunity{
		{Title: "Speed up", Description: "Address slow loading across the product"},
		{Title: "Moonshot", Description: "Build a completely new analytics suite"},
	}
	st.StrategyRecommendations = []feedback.Recommendation{
		{Action: "Optimize page loads", Priority: 9},
	}

	report := o.validateFinal(st)
	require.NotNil(t, report)

	// 1 recommendation against 20 records (expected 2) gives 0.5 coverage
	assert.InDelta(t, 0.5, report.CoverageScore, 1e-9)
	// first opportunity embeds the pattern text, second does not
	assert.InDelta(t, 0.5, report.HallucinationRate, 1e-9)
	assert.InDelta(t, 0.5, report.OverallScore, 1e-9)
	assert.Empty(t, report.Issues)
}

func TestIsKnownSource(t *testing.T) {
	assert.True(t, isKnownSource("reviews"))
	assert.True(t, isKnownSource("tickets"))
	assert.True(t, isKnownSource("surveys"))
	assert.False(t, isKnownSource("forum_posts"))
}
