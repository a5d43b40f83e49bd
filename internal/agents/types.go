package agents

import (
	"context"

	"custintel/internal/agents/state"
)

// Stage agent names. These double as the labels on metrics and logs.
const (
	AgentDataCollector     = "data_collector"
	AgentSentimentAnalyzer = "sentiment_analyzer"
	AgentPatternDetector   = "pattern_detector"
	AgentOpportunityFinder = "opportunity_finder"
	AgentStrategyCreator   = "strategy_creator"
)

// Agent is a single pipeline stage. Process reads its inputs from the
// shared state and writes its outputs back into it; a returned error
// means the stage could not produce usable output at all.
type Agent interface {
	Name() string
	Process(ctx context.Context, st *state.State) error
}
