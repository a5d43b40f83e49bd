package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"custintel/internal/adapters/ai"
	"custintel/internal/adapters/config"
	"custintel/internal/agents"
	"custintel/internal/agents/state"
	"custintel/internal/metrics"
	"custintel/internal/reports"
	"custintel/pkg/errors"
	"custintel/pkg/logger"
)

// knownSources are the data sources the pipeline has loaders for.
// Unknown sources are allowed but flagged.
var knownSources = []string{"reviews", "tickets", "surveys"}

// LoaderFactory builds a data loader scoped to one company/product
// pair. The orchestrator calls it once per run.
type LoaderFactory func(company, product string) agents.DataLoader

// Orchestrator drives the five-stage pipeline over a shared state:
// collection, sentiment, patterns, opportunities, strategy. Stage
// failures are recorded and the run continues; only pre-flight
// validation aborts a run.
type Orchestrator struct {
	cfg       *config.Config
	gateway   *ai.Gateway
	newLoader LoaderFactory
	reports   *reports.Writer
	log       *logger.Logger
}

// New creates an orchestrator bound to the adopted model gateway.
func New(cfg *config.Config, gateway *ai.Gateway, newLoader LoaderFactory) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		gateway:   gateway,
		newLoader: newLoader,
		reports:   reports.NewWriter(cfg.Output.ReportDir),
		log:       logger.Get().With("component", "orchestrator"),
	}
}

// Run executes the full pipeline for one company/product pair and
// returns the final state with performance metrics and the validation
// report attached. The returned state is non-nil even on failure.
func (o *Orchestrator) Run(ctx context.Context, company, product string, sources []string) (*state.State, error) {
	workflowID := fmt.Sprintf("%s_%d", strings.ReplaceAll(strings.ToLower(company), " ", "_"), time.Now().Unix())
	log := o.log.With("workflow_id", workflowID)

	log.Infof("Starting customer intelligence analysis for %s / %s (sources: %s)",
		company, product, strings.Join(sources, ", "))

	st := state.New(company, product, sources)
	st.WorkflowID = workflowID
	st.StageTimings = map[string]state.StageTiming{}

	started := time.Now()

	if validation := st.Validate(); !validation.Valid {
		msg := fmt.Sprintf("Workflow execution failed: initial state validation failed: %s",
			strings.Join(validation.Errors, "; "))
		log.Error(msg)

		st.CurrentStep = state.StepFailed
		st.IterationCount = 0
		st.Errors = []string{msg}
		st.PerformanceMetrics = &state.PerformanceMetrics{
			TotalRuntime: time.Since(started),
			StagesFailed: 1,
			ErrorCount:   1,
		}
		metrics.RecordWorkflowRun(time.Since(started), 0, true)
		return st, fmt.Errorf("%s", msg)
	}
	for _, source := range sources {
		if !isKnownSource(source) {
			log.Warnf("Unknown data source: %s", source)
		}
	}

	loader := o.newLoader(company, product)
	stages := []agents.Agent{
		agents.NewDataCollector(o.gateway, loader),
		agents.NewSentimentAnalyzer(o.gateway, o.cfg.Pipeline.SentimentSampleSize),
		agents.NewPatternDetector(o.gateway, o.cfg.Pipeline.PatternSampleSize),
		agents.NewOpportunityFinder(o.gateway),
		agents.NewStrategyCreator(o.gateway),
	}

	completed, failed := 0, 0
	for _, stage := range stages {
		if o.runStage(ctx, stage, st, log) {
			completed++
		} else {
			failed++
		}
	}

	if len(st.StrategyRecommendations) > 0 {
		if path, reportErr := o.reports.WriteStrategyReport(st); reportErr != nil {
			log.Warnf("Failed to write strategy report: %v", reportErr)
		} else {
			log.Infof("Strategy report written to %s", path)
		}
	}

	st.PerformanceMetrics = &state.PerformanceMetrics{
		TotalRuntime:     time.Since(started),
		StagesCompleted:  completed,
		StagesFailed:     failed,
		RecordsProcessed: len(st.RawData),
		ErrorCount:       len(st.Errors),
	}
	st.ValidationReport = o.validateFinal(st)

	metrics.RecordWorkflowRun(time.Since(started), len(st.RawData), failed > 0 && completed == 0)

	log.Infof("Workflow completed in %s: %d stages ok, %d failed, %d errors",
		st.PerformanceMetrics.TotalRuntime.Round(time.Millisecond), completed, failed, len(st.Errors))
	return st, nil
}

// runStage executes one agent under the stage timeout, validates its
// output and records timing. Returns true if the stage completed.
func (o *Orchestrator) runStage(ctx context.Context, stage agents.Agent, st *state.State, log *logger.Logger) bool {
	name := stage.Name()
	log.Infof("Running stage: %s", name)

	stageCtx := ctx
	if o.cfg.Pipeline.StageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, o.cfg.Pipeline.StageTimeout)
		defer cancel()
	}

	start := time.Now()
	err := o.executeStage(stageCtx, stage, st)
	duration := time.Since(start)

	if err != nil {
		st.AddError(fmt.Sprintf("%s: %v", name, err))
	}

	stageErrs, stageWarns := validateStageOutput(name, st)
	for _, w := range stageWarns {
		log.Warnf("%s validation: %s", name, w)
	}
	if name == agents.AgentStrategyCreator && len(stageWarns) > 2 {
		stageErrs = append(stageErrs, fmt.Sprintf("Too many strategy validation warnings: %s",
			strings.Join(stageWarns, "; ")))
	}
	for _, e := range stageErrs {
		st.AddError(fmt.Sprintf("%s: %s", name, e))
	}

	failed := err != nil || len(stageErrs) > 0
	status := "completed"
	if failed {
		status = "failed"
	}
	st.StageTimings[name] = state.StageTiming{Status: status, Duration: duration}
	metrics.RecordStageExecution(name, duration, err)

	if failed {
		log.Warnf("Stage %s failed after %s", name, duration.Round(time.Millisecond))
	} else {
		log.Infof("Stage %s completed in %s", name, duration.Round(time.Millisecond))
	}
	return !failed
}

// executeStage invokes one agent, converting a panic into a stage
// error so a misbehaving agent can never take down the whole run.
func (o *Orchestrator) executeStage(ctx context.Context, stage agents.Agent, st *state.State) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(errors.ErrInternal, "stage panicked: %v", r)
			o.log.Errorf("Stage panic recovered in %s: %v", stage.Name(), r)
		}
	}()

	return stage.Process(ctx, st)
}

// validateStageOutput applies per-stage sanity rules to the state
// after a stage ran. Errors mark the stage failed; warnings are
// logged and, for the strategy stage, counted toward a hard limit.
func validateStageOutput(name string, st *state.State) (errs, warns []string) {
	switch name {
	case agents.AgentDataCollector:
		if len(st.RawData) == 0 {
			errs = append(errs, "No data collected")
		} else if len(st.RawData) < 5 {
			warns = append(warns, "Very small dataset collected")
		}

	case agents.AgentSentimentAnalyzer:
		if st.SentimentResults.OverallSentiment == "" && st.SentimentResults.AnalysisSummary == "" {
			errs = append(errs, "No sentiment analysis results")
		} else if st.SentimentResults.OverallSentiment == "" {
			warns = append(warns, "Missing overall sentiment classification")
		}

	case agents.AgentPatternDetector:
		if len(st.Patterns) == 0 {
			warns = append(warns, "No patterns detected")
		} else if len(st.Patterns) > 20 {
			warns = append(warns, "Unusually high number of patterns detected")
		}

	case agents.AgentOpportunityFinder:
		if len(st.Opportunities) == 0 {
			warns = append(warns, "No opportunities identified")
		}
		if len(st.Patterns) > 0 && len(st.Opportunities) > len(st.Patterns)*2 {
			warns = append(warns, "Too many opportunities relative to patterns detected")
		}

	case agents.AgentStrategyCreator:
		if len(st.StrategyRecommendations) == 0 {
			errs = append(errs, "No strategy recommendations generated")
		} else if len(st.StrategyRecommendations) < 3 {
			warns = append(warns, "Very few strategy recommendations")
		}
		if len(st.ExecutiveSummary) < 100 {
			warns = append(warns, "Executive summary too short or missing")
		}
	}
	return errs, warns
}

// validateFinal cross-checks the finished run: are recommendations
// proportionate to the evidence, and are opportunities grounded in
// detected patterns rather than invented.
func (o *Orchestrator) validateFinal(st *state.State) *state.ValidationReport {
	report := &state.ValidationReport{Issues: []string{}}
	var scores []float64

	if len(st.RawData) > 0 && len(st.StrategyRecommendations) > 0 {
		expected := float64(len(st.RawData)) * 0.1
		if expected < 1 {
			expected = 1
		}
		coverage := float64(len(st.StrategyRecommendations)) / expected
		if coverage > 1 {
			coverage = 1
		}
		report.CoverageScore = coverage
		scores = append(scores, coverage)

		if coverage < 0.5 {
			report.Issues = append(report.Issues, "Recommendations cover few of the identified pain points")
		}
	}

	if len(st.Opportunities) > 0 && len(st.Patterns) > 0 {
		supported := 0
		for _, opp := range st.Opportunities {
			oppText := strings.ToLower(opp.Description)
			for _, p := range st.Patterns {
				patternText := strings.ToLower(p.Description)
				if strings.Contains(oppText, patternText) || strings.Contains(patternText, oppText) {
					supported++
					break
				}
			}
		}
		report.HallucinationRate = 1.0 - float64(supported)/float64(len(st.Opportunities))
		scores = append(scores, 1.0-report.HallucinationRate)

		if report.HallucinationRate > 0.5 {
			report.Issues = append(report.Issues, "Most opportunities are not grounded in detected patterns")
		}
	}

	if len(scores) > 0 {
		var sum float64
		for _, s := range scores {
			sum += s
		}
		report.OverallScore = sum / float64(len(scores))
	}
	return report
}

func isKnownSource(source string) bool {
	for _, s := range knownSources {
		if s == source {
			return true
		}
	}
	return false
}
