package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Stage metrics
	StageExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "custintel_stage_executions_total",
			Help: "Total number of pipeline stage executions",
		},
		[]string{"stage", "status"}, // status: success|error
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "custintel_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	// Model call metrics
	ModelCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "custintel_model_calls_total",
			Help: "Total number of model invocations",
		},
		[]string{"agent", "provider", "status"}, // status: success|error|mock_fallback
	)

	ModelLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "custintel_model_latency_seconds",
			Help:    "Model invocation latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"agent", "provider"},
	)

	// Workflow metrics
	WorkflowRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "custintel_workflow_runs_total",
			Help: "Total number of workflow runs",
		},
		[]string{"status"}, // status: completed|failed
	)

	WorkflowDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "custintel_workflow_duration_seconds",
			Help:    "End-to-end workflow duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	RecordsCollected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "custintel_records_collected_total",
			Help: "Total feedback records collected across workflow runs",
		},
	)

	// Structurer metrics
	ExtractionOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "custintel_extraction_outcomes_total",
			Help: "Structured output extraction outcomes by tier",
		},
		[]string{"schema", "tier"}, // tier: direct|fenced|scan|fallback
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(StageExecutions)
	prometheus.MustRegister(StageDuration)

	prometheus.MustRegister(ModelCalls)
	prometheus.MustRegister(ModelLatency)

	prometheus.MustRegister(WorkflowRuns)
	prometheus.MustRegister(WorkflowDuration)
	prometheus.MustRegister(RecordsCollected)

	prometheus.MustRegister(ExtractionOutcomes)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordStageExecution records a pipeline stage execution
func RecordStageExecution(stage string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	StageExecutions.WithLabelValues(stage, status).Inc()
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordModelCall records a model invocation
func RecordModelCall(agent, provider string, latency time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	ModelCalls.WithLabelValues(agent, provider, status).Inc()
	ModelLatency.WithLabelValues(agent, provider).Observe(latency.Seconds())
}

// RecordModelFallback records a model call served by the mock generator
// after a provider failure
func RecordModelFallback(agent, provider string, latency time.Duration) {
	ModelCalls.WithLabelValues(agent, provider, "mock_fallback").Inc()
	ModelLatency.WithLabelValues(agent, provider).Observe(latency.Seconds())
}

// RecordWorkflowRun records a complete workflow run
func RecordWorkflowRun(duration time.Duration, records int, failed bool) {
	status := "completed"
	if failed {
		status = "failed"
	}

	WorkflowRuns.WithLabelValues(status).Inc()
	WorkflowDuration.Observe(duration.Seconds())

	if records > 0 {
		RecordsCollected.Add(float64(records))
	}
}

// RecordExtraction records which extraction tier produced a structured result
func RecordExtraction(schema, tier string) {
	ExtractionOutcomes.WithLabelValues(schema, tier).Inc()
}
