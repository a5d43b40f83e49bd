package state

import (
	"fmt"
	"time"

	"custintel/internal/feedback"
)

// Pipeline step markers. Each stage stamps its completion marker so the
// orchestrator and validators can tell how far a run progressed.
const (
	StepInitialization       = "initialization"
	StepCollectionCompleted  = "data_collection_completed"
	StepSentimentCompleted   = "sentiment_analysis_completed"
	StepPatternsCompleted    = "pattern_detection_completed"
	StepOpportunityCompleted = "opportunity_finding_completed"
	StepStrategyCompleted    = "strategy_creation_completed"

	// StepFailed is only set by the orchestrator on pre-flight failure,
	// never by a stage.
	StepFailed = "failed"
)

// State is the single shared record every pipeline stage reads from and
// writes to. Stages only touch their own output fields plus the shared
// metadata (CurrentStep, IterationCount, Errors).
type State struct {
	// Inputs
	CompanyName string   `json:"company_name"`
	ProductName string   `json:"product_name"`
	DataSources []string `json:"data_sources"`

	// Data collection output
	RawData     []feedback.Record `json:"raw_data"`
	DataSummary map[string]any    `json:"data_summary"`

	// Sentiment analysis output
	SentimentResults   feedback.SentimentResult   `json:"sentiment_results"`
	SentimentBreakdown feedback.SentimentBreakdown `json:"sentiment_breakdown"`

	// Pattern detection output
	Patterns []feedback.Pattern `json:"patterns"`
	Trends   feedback.Trends    `json:"trends"`

	// Opportunity output
	Opportunities []feedback.Opportunity `json:"opportunities"`

	// Strategy output
	StrategyRecommendations []feedback.Recommendation `json:"strategy_recommendations"`
	ExecutiveSummary        string                    `json:"executive_summary"`
	Roadmap                 feedback.Roadmap          `json:"implementation_roadmap"`

	// Metadata
	CurrentStep    string   `json:"current_step"`
	IterationCount int      `json:"iteration_count"`
	Errors         []string `json:"errors"`

	// Attached by the orchestrator after the run
	WorkflowID         string                  `json:"workflow_id"`
	PerformanceMetrics *PerformanceMetrics     `json:"performance_metrics,omitempty"`
	ValidationReport   *ValidationReport       `json:"validation_report,omitempty"`
	StageTimings       map[string]StageTiming  `json:"stage_timings,omitempty"`
}

// StageTiming records one stage's wall-clock execution.
type StageTiming struct {
	Status   string        `json:"status"` // completed|failed
	Duration time.Duration `json:"duration"`
}

// PerformanceMetrics summarizes a finished run.
type PerformanceMetrics struct {
	TotalRuntime     time.Duration `json:"total_runtime"`
	StagesCompleted  int           `json:"stages_completed"`
	StagesFailed     int           `json:"stages_failed"`
	RecordsProcessed int           `json:"records_processed"`
	ErrorCount       int           `json:"error_count"`
}

// ValidationReport carries per-stage rule results from the final
// validation pass.
type ValidationReport struct {
	CoverageScore     float64  `json:"coverage_score"`
	HallucinationRate float64  `json:"hallucination_rate"`
	OverallScore      float64  `json:"overall_score"`
	Issues            []string `json:"issues"`
}

// New creates an initial state with all output fields empty.
func New(companyName, productName string, dataSources []string) *State {
	return &State{
		CompanyName: companyName,
		ProductName: productName,
		DataSources: dataSources,

		RawData:     []feedback.Record{},
		DataSummary: map[string]any{},

		Patterns:      []feedback.Pattern{},
		Opportunities: []feedback.Opportunity{},

		StrategyRecommendations: []feedback.Recommendation{},

		CurrentStep:    StepInitialization,
		IterationCount: 0,
		Errors:         []string{},
	}
}

// AddError appends an error message. Errors are append-only: stages
// record what went wrong and carry on.
func (s *State) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}

// CompleteStage stamps the step marker and bumps the iteration count.
func (s *State) CompleteStage(step string) {
	s.CurrentStep = step
	s.IterationCount++
}

// ValidationResult is the outcome of a structural state check.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

var validSteps = map[string]bool{
	StepInitialization:       true,
	StepCollectionCompleted:  true,
	StepSentimentCompleted:   true,
	StepPatternsCompleted:    true,
	StepOpportunityCompleted: true,
	StepStrategyCompleted:    true,
	StepFailed:               true,
}

// Validate checks the state for structural consistency.
func (s *State) Validate() ValidationResult {
	result := ValidationResult{Valid: true, Errors: []string{}, Warnings: []string{}}

	if s.CompanyName == "" {
		result.Errors = append(result.Errors, "Missing required field: company_name")
		result.Valid = false
	}
	if s.ProductName == "" {
		result.Errors = append(result.Errors, "Missing required field: product_name")
		result.Valid = false
	}
	if len(s.DataSources) == 0 {
		result.Errors = append(result.Errors, "data_sources must be a non-empty list")
		result.Valid = false
	}
	if s.IterationCount < 0 {
		result.Errors = append(result.Errors, "iteration_count must be non-negative")
		result.Valid = false
	}
	if !validSteps[s.CurrentStep] {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Unexpected current_step: %s", s.CurrentStep))
	}

	return result
}

// Summary reports which stages have produced output.
type Summary struct {
	CompanyName       string   `json:"company_name"`
	ProductName       string   `json:"product_name"`
	DataSources       []string `json:"data_sources"`
	CurrentStep       string   `json:"current_step"`
	IterationCount    int      `json:"iteration_count"`
	ErrorCount        int      `json:"error_count"`
	DataCollected     bool     `json:"data_collected"`
	SentimentAnalyzed bool     `json:"sentiment_analyzed"`
	PatternsDetected  bool     `json:"patterns_detected"`
	OpportunitiesFound bool    `json:"opportunities_found"`
	StrategyGenerated bool     `json:"strategy_generated"`
	PipelineComplete  bool     `json:"pipeline_complete"`
}

// Summarize reports pipeline progress based on which output fields hold data.
func (s *State) Summarize() Summary {
	dataCollected := len(s.RawData) > 0
	sentimentAnalyzed := s.SentimentResults.OverallSentiment != ""
	patternsDetected := len(s.Patterns) > 0
	opportunitiesFound := len(s.Opportunities) > 0
	strategyGenerated := len(s.StrategyRecommendations) > 0 && s.ExecutiveSummary != ""

	return Summary{
		CompanyName:        s.CompanyName,
		ProductName:        s.ProductName,
		DataSources:        s.DataSources,
		CurrentStep:        s.CurrentStep,
		IterationCount:     s.IterationCount,
		ErrorCount:         len(s.Errors),
		DataCollected:      dataCollected,
		SentimentAnalyzed:  sentimentAnalyzed,
		PatternsDetected:   patternsDetected,
		OpportunitiesFound: opportunitiesFound,
		StrategyGenerated:  strategyGenerated,
		PipelineComplete: dataCollected && sentimentAnalyzed && patternsDetected &&
			opportunitiesFound && strategyGenerated,
	}
}
