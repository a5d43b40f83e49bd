package agents

import (
	"context"

	"custintel/internal/adapters/ai"
	"custintel/internal/agents/state"
	"custintel/internal/feedback"
	"custintel/internal/structurer"
	"custintel/pkg/templates"
)

// SentimentAnalyzer classifies the emotional tone of the collected
// feedback: overall sentiment, per-emotion intensities, key topics and
// a confidence estimate.
type SentimentAnalyzer struct {
	BaseAgent
	structure  *structurer.Structurer
	registry   *templates.Registry
	sampleSize int
}

// NewSentimentAnalyzer builds the sentiment stage. sampleSize caps how
// many feedback texts are included in the prompt.
func NewSentimentAnalyzer(gateway *ai.Gateway, sampleSize int) *SentimentAnalyzer {
	if sampleSize <= 0 {
		sampleSize = 50
	}
	return &SentimentAnalyzer{
		BaseAgent:  newBaseAgent(AgentSentimentAnalyzer, gateway, 0.4),
		structure:  structurer.New(),
		registry:   templates.Get(),
		sampleSize: sampleSize,
	}
}

type sentimentTaskData struct {
	TotalItems   int
	SourceCount  any
	TotalRecords any
	DateEarliest string
	DateLatest   string
	Samples      []string
}

// Process analyzes the raw feedback and writes sentiment results and
// the detailed breakdown back to the state. With no raw data the stage
// records an error and leaves the step marker untouched.
func (a *SentimentAnalyzer) Process(ctx context.Context, st *state.State) error {
	if len(st.RawData) == 0 {
		msg := "No raw data available for sentiment analysis"
		a.log.Warn(msg)
		st.AddError(msg)
		return nil
	}

	a.log.Infof("Analyzing sentiment in %d feedback items", len(st.RawData))

	samples := sampleTexts(st.RawData, a.sampleSize, 200)

	data := sentimentTaskData{
		TotalItems:   len(st.RawData),
		SourceCount:  summaryValue(st.DataSummary, "data_sources_processed", "multiple"),
		TotalRecords: summaryValue(st.DataSummary, "total_records", 0),
		DateEarliest: dateRangeValue(st.DataSummary, "earliest"),
		DateLatest:   dateRangeValue(st.DataSummary, "latest"),
		Samples:      firstN(samples, 10),
	}

	system, err := a.registry.Render("prompts/sentiment_system", nil)
	if err != nil {
		return err
	}
	task, err := a.registry.Render("prompts/sentiment_task", data)
	if err != nil {
		return err
	}

	raw, err := a.Execute(ctx, system, task, st, map[string]any{
		"sample_size": len(samples),
	})
	if err != nil {
		return err
	}

	out := a.structure.StructureSentiment(raw)
	if out.UsedFallback {
		st.AddError("Sentiment analysis response could not be parsed, fallback applied")
	}

	st.SentimentResults = out.Overall
	st.SentimentBreakdown = out.Breakdown
	st.CompleteStage(state.StepSentimentCompleted)

	a.log.Infof("Sentiment analysis completed: %s (score %.2f, confidence %.2f)",
		out.Overall.OverallSentiment, out.Overall.SentimentScore, out.Overall.Confidence)
	return nil
}

// sampleTexts returns up to limit feedback texts, each clipped to
// maxLen with an ellipsis marker to keep the prompt bounded.
func sampleTexts(records []feedback.Record, limit, maxLen int) []string {
	var texts []string
	for _, r := range records {
		if len(texts) == limit {
			break
		}
		text := r.Text()
		if text == "" {
			continue
		}
		if len(text) > maxLen {
			text = text[:maxLen] + "..."
		}
		texts = append(texts, text)
	}
	return texts
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func summaryValue(summary map[string]any, key string, fallback any) any {
	if v, ok := summary[key]; ok && v != nil {
		return v
	}
	return fallback
}

func dateRangeValue(summary map[string]any, key string) string {
	if dr, ok := summary["date_range"].(map[string]any); ok {
		if v, ok := dr[key].(string); ok && v != "" {
			return v
		}
	}
	return "N/A"
}
