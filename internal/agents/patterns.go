package agents

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"custintel/internal/adapters/ai"
	"custintel/internal/agents/state"
	"custintel/internal/feedback"
	"custintel/internal/structurer"
	"custintel/pkg/templates"
)

// PatternDetector mines the feedback for recurring themes: pain
// points, feature requests, bugs and usability issues.
type PatternDetector struct {
	BaseAgent
	structure  *structurer.Structurer
	registry   *templates.Registry
	sampleSize int
}

// NewPatternDetector builds the pattern detection stage.
func NewPatternDetector(gateway *ai.Gateway, sampleSize int) *PatternDetector {
	if sampleSize <= 0 {
		sampleSize = 30
	}
	return &PatternDetector{
		BaseAgent:  newBaseAgent(AgentPatternDetector, gateway, 0.3),
		structure:  structurer.New(),
		registry:   templates.Get(),
		sampleSize: sampleSize,
	}
}

type patternsTaskData struct {
	TotalItems       int
	OverallSentiment string
	SentimentScore   float64
	KeyTopics        []string
	Samples          []string
}

// Process detects patterns in the raw feedback, sorts them by severity
// and frequency, and derives the trend summary.
func (a *PatternDetector) Process(ctx context.Context, st *state.State) error {
	if len(st.RawData) == 0 {
		msg := "No raw data available for pattern detection"
		a.log.Warn(msg)
		st.AddError(msg)
		return nil
	}

	a.log.Infof("Detecting patterns across %d feedback items", len(st.RawData))

	data := patternsTaskData{
		TotalItems:       len(st.RawData),
		OverallSentiment: st.SentimentResults.OverallSentiment,
		SentimentScore:   st.SentimentResults.SentimentScore,
		KeyTopics:        st.SentimentResults.KeyTopics,
		Samples:          sampleTexts(st.RawData, a.sampleSize, 150),
	}

	system, err := a.registry.Render("prompts/patterns_system", nil)
	if err != nil {
		return err
	}
	task, err := a.registry.Render("prompts/patterns_task", data)
	if err != nil {
		return err
	}

	raw, err := a.Execute(ctx, system, task, st, map[string]any{
		"overall_sentiment": st.SentimentResults.OverallSentiment,
		"sample_size":       len(data.Samples),
	})
	if err != nil {
		return err
	}

	patterns, usedFallback := a.structure.StructurePatterns(raw)
	if usedFallback {
		st.AddError("Pattern detection response could not be parsed, fallback applied")
	}

	st.Patterns = patterns
	st.Trends = summarizeTrends(patterns)
	st.CompleteStage(state.StepPatternsCompleted)

	a.log.Infof("Pattern detection completed: %d patterns found", len(patterns))
	return nil
}

// summarizeTrends aggregates the detected pattern set into the trend
// view consumed by downstream stages and reports.
func summarizeTrends(patterns []feedback.Pattern) feedback.Trends {
	trends := feedback.Trends{
		TotalPatterns:        len(patterns),
		PatternDistribution:  map[string]int{},
		SeverityDistribution: map[string]int{},
	}
	if len(patterns) == 0 {
		return trends
	}

	var impactSum float64
	for _, p := range patterns {
		trends.PatternDistribution[p.PatternType]++
		trends.SeverityDistribution[p.Severity]++
		impactSum += p.ImpactScore

		if p.ImpactScore > 5.0 {
			trends.HighImpactPatterns++
		}
		if p.Severity == "critical" {
			trends.CriticalPatterns++
		}
	}
	trends.AverageImpactScore = math.Round(impactSum/float64(len(patterns))*100) / 100

	types := make([]string, 0, len(trends.PatternDistribution))
	for t := range trends.PatternDistribution {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		if trends.PatternDistribution[types[i]] != trends.PatternDistribution[types[j]] {
			return trends.PatternDistribution[types[i]] > trends.PatternDistribution[types[j]]
		}
		return types[i] < types[j]
	})
	if len(types) > 3 {
		types = types[:3]
	}
	trends.TopPatternTypes = types

	return trends
}

// patternSummaries renders compact one-line descriptions of the top
// patterns for inclusion in downstream prompts.
func patternSummaries(patterns []feedback.Pattern, limit, descLen int) []string {
	var summaries []string
	for _, p := range patterns {
		if len(summaries) == limit {
			break
		}
		desc := p.Description
		if len(desc) > descLen {
			desc = desc[:descLen]
		}
		summaries = append(summaries, fmt.Sprintf("%s: %s (freq: %d, severity: %s)",
			p.PatternType, strings.TrimSpace(desc), p.Frequency, p.Severity))
	}
	return summaries
}
