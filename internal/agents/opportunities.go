package agents

import (
	"context"

	"custintel/internal/adapters/ai"
	"custintel/internal/agents/state"
	"custintel/internal/structurer"
	"custintel/pkg/templates"
)

// OpportunityFinder converts detected patterns into prioritized
// business opportunities with impact, effort and timeline estimates.
type OpportunityFinder struct {
	BaseAgent
	structure *structurer.Structurer
	registry  *templates.Registry
}

// NewOpportunityFinder builds the opportunity finding stage.
func NewOpportunityFinder(gateway *ai.Gateway) *OpportunityFinder {
	return &OpportunityFinder{
		BaseAgent: newBaseAgent(AgentOpportunityFinder, gateway, 0.5),
		structure: structurer.New(),
		registry:  templates.Get(),
	}
}

type opportunitiesTaskData struct {
	PatternCount       int
	OverallSentiment   string
	SentimentScore     float64
	KeyTopics          []string
	TotalPatterns      int
	HighImpactPatterns int
	CriticalPatterns   int
	PatternSummaries   []string
}

// Process derives ranked opportunities from the detected patterns. An
// empty pattern set is noted but the stage still runs: the model (or
// generator) can propose opportunities from sentiment context alone.
func (a *OpportunityFinder) Process(ctx context.Context, st *state.State) error {
	if len(st.Patterns) == 0 {
		msg := "No patterns available for opportunity finding"
		a.log.Warn(msg)
		st.AddError(msg)
	}

	a.log.Infof("Finding opportunities from %d patterns", len(st.Patterns))

	data := opportunitiesTaskData{
		PatternCount:       len(st.Patterns),
		OverallSentiment:   st.SentimentResults.OverallSentiment,
		SentimentScore:     st.SentimentResults.SentimentScore,
		KeyTopics:          st.SentimentResults.KeyTopics,
		TotalPatterns:      st.Trends.TotalPatterns,
		HighImpactPatterns: st.Trends.HighImpactPatterns,
		CriticalPatterns:   st.Trends.CriticalPatterns,
		PatternSummaries:   patternSummaries(st.Patterns, 15, 120),
	}

	system, err := a.registry.Render("prompts/opportunities_system", nil)
	if err != nil {
		return err
	}
	task, err := a.registry.Render("prompts/opportunities_task", data)
	if err != nil {
		return err
	}

	raw, err := a.Execute(ctx, system, task, st, map[string]any{
		"pattern_count":     len(st.Patterns),
		"overall_sentiment": st.SentimentResults.OverallSentiment,
	})
	if err != nil {
		return err
	}

	opportunities, usedFallback := a.structure.StructureOpportunities(raw, st.Patterns)
	if usedFallback {
		st.AddError("Opportunity finding response could not be parsed, fallback applied")
	}

	st.Opportunities = opportunities
	st.CompleteStage(state.StepOpportunityCompleted)

	a.log.Infof("Opportunity finding completed: %d opportunities identified", len(opportunities))
	return nil
}
