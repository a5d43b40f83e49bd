package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"custintel/internal/adapters/ai"
	"custintel/internal/adapters/config"
	"custintel/internal/adapters/errors/noop"
	"custintel/internal/adapters/errors/sentry"
	"custintel/internal/agents"
	"custintel/internal/evaluator"
	"custintel/internal/metrics"
	"custintel/internal/reports"
	"custintel/internal/sampledata"
	"custintel/internal/workflow"
	"custintel/pkg/errors"
	"custintel/pkg/logger"
)

func main() {
	company := flag.String("company", "", "company to analyze (required)")
	product := flag.String("product", "", "product to analyze (required)")
	sources := flag.String("sources", "reviews,tickets,surveys", "comma-separated data sources")
	flag.Parse()

	if *company == "" || *product == "" {
		fmt.Fprintln(os.Stderr, "usage: custintel -company <name> -product <name> [-sources reviews,tickets,surveys]")
		os.Exit(2)
	}

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	if err := initLogger(cfg); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	// Initialize error tracker
	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)
	defer errorTracker.Flush(context.Background())

	// Initialize metrics
	metrics.Init()
	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Addr, log)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Adopt a model provider (or fall back to mock mode)
	gateway := ai.NewGateway(ctx, ai.GatewayConfig{
		GeminiKey:      cfg.AI.GeminiKey,
		OpenAIKey:      cfg.AI.OpenAIKey,
		ClaudeKey:      cfg.AI.ClaudeKey,
		OllamaHost:     cfg.AI.OllamaHost,
		ProviderOrder:  cfg.AI.Providers(),
		ForceMock:      cfg.AI.ForceMock,
		RequestTimeout: cfg.AI.RequestTimeout,
		RatePerSecond:  cfg.AI.RatePerSecond,
		RateBurst:      cfg.AI.RateBurst,
	})
	log.Infof("Model provider: %s (%s mode)", gateway.ProviderName(), gateway.Mode())

	// Run the pipeline
	orchestrator := workflow.New(cfg, gateway, func(company, product string) agents.DataLoader {
		return sampledata.NewLoader(cfg.Data.SampleDir, company, product)
	})

	sourceList := splitSources(*sources)
	st, err := orchestrator.Run(ctx, *company, *product, sourceList)
	if err != nil {
		log.Errorf("Workflow failed: %v", err)
		os.Exit(1)
	}

	// Evaluate the run and persist the report
	eval := evaluator.New()
	report := eval.Evaluate(st)
	if _, err := eval.SaveReport(report, cfg.Output.EvalDir); err != nil {
		log.Warnf("Failed to save evaluation report: %v", err)
	}

	// Write the final report; the orchestrator already persisted the
	// strategy report as part of the run.
	writer := reports.NewWriter(cfg.Output.ReportDir)
	finalPath, err := writer.WriteFinalReport(st)
	if err != nil {
		log.Warnf("Failed to write final report: %v", err)
	}

	summary := st.Summarize()
	log.Infof("Analysis complete: %d records, %d patterns, %d opportunities, %d recommendations (pipeline complete: %t)",
		len(st.RawData), len(st.Patterns), len(st.Opportunities), len(st.StrategyRecommendations), summary.PipelineComplete)
	if finalPath != "" {
		fmt.Println("Report:", finalPath)
	}
}

// loadConfig loads application configuration from environment
func loadConfig() (*config.Config, error) {
	return config.Load()
}

// initLogger initializes structured logging
func initLogger(cfg *config.Config) error {
	return logger.Init(cfg.App.LogLevel, cfg.App.Env)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

func serveMetrics(addr string, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	log.Infof("Metrics server listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warnf("Metrics server stopped: %v", err)
	}
}

func splitSources(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
