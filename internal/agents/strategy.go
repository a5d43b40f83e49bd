package agents

import (
	"context"
	"fmt"

	"custintel/internal/adapters/ai"
	"custintel/internal/agents/state"
	"custintel/internal/feedback"
	"custintel/internal/structurer"
	"custintel/pkg/templates"
)

// StrategyCreator turns ranked opportunities into an executive-level
// action plan: prioritized recommendations, an executive summary and a
// phased implementation roadmap.
type StrategyCreator struct {
	BaseAgent
	structure *structurer.Structurer
	registry  *templates.Registry
}

// NewStrategyCreator builds the final pipeline stage.
func NewStrategyCreator(gateway *ai.Gateway) *StrategyCreator {
	return &StrategyCreator{
		BaseAgent: newBaseAgent(AgentStrategyCreator, gateway, 0.6),
		structure: structurer.New(),
		registry:  templates.Get(),
	}
}

type strategyTaskData struct {
	Company              string
	Product              string
	TotalRecords         int
	OverallSentiment     string
	SentimentScore       float64
	PatternCount         int
	PatternSummaries     []string
	OpportunityCount     int
	OpportunitySummaries []string
}

// Process synthesizes the full analysis into strategic recommendations.
// Without opportunities there is nothing to recommend, so the stage
// records an error and leaves the step marker untouched.
func (a *StrategyCreator) Process(ctx context.Context, st *state.State) error {
	if len(st.Opportunities) == 0 {
		msg := "No opportunities available for strategy creation"
		a.log.Warn(msg)
		st.AddError(msg)
		return nil
	}

	a.log.Infof("Creating strategy from %d opportunities", len(st.Opportunities))

	data := strategyTaskData{
		Company:              st.CompanyName,
		Product:              st.ProductName,
		TotalRecords:         len(st.RawData),
		OverallSentiment:     st.SentimentResults.OverallSentiment,
		SentimentScore:       st.SentimentResults.SentimentScore,
		PatternCount:         len(st.Patterns),
		PatternSummaries:     patternSummaries(st.Patterns, 5, 100),
		OpportunityCount:     len(st.Opportunities),
		OpportunitySummaries: opportunitySummaries(st.Opportunities, 3, 100),
	}

	system, err := a.registry.Render("prompts/strategy_system", nil)
	if err != nil {
		return err
	}
	task, err := a.registry.Render("prompts/strategy_task", data)
	if err != nil {
		return err
	}

	raw, err := a.Execute(ctx, system, task, st, map[string]any{
		"opportunity_count": len(st.Opportunities),
		"pattern_count":     len(st.Patterns),
	})
	if err != nil {
		return err
	}

	out := a.structure.StructureStrategy(raw)
	if out.UsedFallback {
		st.AddError("Strategy creation response could not be parsed, fallback applied")
	}

	st.StrategyRecommendations = out.Recommendations
	st.ExecutiveSummary = out.ExecutiveSummary
	st.Roadmap = out.Roadmap
	st.CompleteStage(state.StepStrategyCompleted)

	a.log.Infof("Strategy creation completed: %d recommendations", len(out.Recommendations))
	return nil
}

// opportunitySummaries renders compact one-line descriptions of the
// top-ranked opportunities for the strategy prompt.
func opportunitySummaries(opportunities []feedback.Opportunity, limit, descLen int) []string {
	var summaries []string
	for _, o := range opportunities {
		if len(summaries) == limit {
			break
		}
		desc := o.Description
		if len(desc) > descLen {
			desc = desc[:descLen]
		}
		summaries = append(summaries, fmt.Sprintf("%s (%s, impact %.0f, %s): %s",
			o.Title, o.Priority, o.ImpactScore, o.Timeline, desc))
	}
	return summaries
}
