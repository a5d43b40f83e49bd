package structurer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custintel/internal/feedback"
)

func TestStructureSentimentValid(t *testing.T) {
	raw := `{
		"overall_sentiment": "positive",
		"sentiment_score": 0.6,
		"emotions": {"satisfaction": 0.8, "frustration": 0.2, "delight": 0.05},
		"key_topics": ["performance", "pricing"],
		"confidence": 0.85,
		"analysis_summary": "Customers are largely happy."
	}`

	out := New().StructureSentiment(raw)
	require.False(t, out.UsedFallback)

	assert.Equal(t, "positive", out.Overall.OverallSentiment)
	assert.InDelta(t, 0.6, out.Overall.SentimentScore, 1e-9)
	assert.InDelta(t, 0.85, out.Overall.Confidence, 1e-9)

	assert.Equal(t, map[string]float64{"positive": 0.7, "neutral": 0.2, "negative": 0.1},
		out.Breakdown.SentimentDistribution)

	// delight at 0.05 is below the intensity floor
	require.Len(t, out.Breakdown.TopEmotions, 2)
	assert.Equal(t, "satisfaction", out.Breakdown.TopEmotions[0].Emotion)
	assert.Equal(t, "frustration", out.Breakdown.TopEmotions[1].Emotion)
}

func TestStructureSentimentDefaultsConfidence(t *testing.T) {
	raw := `{
		"overall_sentiment": "neutral",
		"sentiment_score": 0.0,
		"emotions": {},
		"key_topics": ["support"]
	}`

	out := New().StructureSentiment(raw)
	require.False(t, out.UsedFallback)
	assert.InDelta(t, 0.8, out.Overall.Confidence, 1e-9)
}

func TestStructureSentimentClampsConfidence(t *testing.T) {
	tests := []struct {
		name       string
		confidence string
		want       float64
	}{
		{"above one", "3.7", 1.0},
		{"negative", "-0.4", 0.0},
		{"in range untouched", "0.9", 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `{"overall_sentiment": "positive", "sentiment_score": 0.5, "emotions": {"joy": 0.6},
				"key_topics": ["speed"], "confidence": ` + tt.confidence + `}`

			out := New().StructureSentiment(raw)
			require.False(t, out.UsedFallback)
			assert.InDelta(t, tt.want, out.Overall.Confidence, 1e-9)
		})
	}
}

func TestStructureSentimentZeroScoreIsValid(t *testing.T) {
	raw := `{"overall_sentiment": "neutral", "sentiment_score": 0, "emotions": {"x": 0.5}, "key_topics": ["a"]}`

	out := New().StructureSentiment(raw)
	assert.False(t, out.UsedFallback)
}

func TestStructureSentimentFallback(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"unparseable", "not json at all"},
		{"missing overall_sentiment", `{"sentiment_score": 0.5, "emotions": {}, "key_topics": []}`},
		{"missing emotions", `{"overall_sentiment": "mixed", "sentiment_score": 0.5, "key_topics": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := New().StructureSentiment(tt.raw)
			require.True(t, out.UsedFallback)
			assert.Equal(t, "neutral", out.Overall.OverallSentiment)
			assert.InDelta(t, 0.3, out.Overall.Confidence, 1e-9)
			assert.Equal(t, "Analysis failed due to parsing error", out.Overall.AnalysisSummary)
		})
	}
}

func TestStructurePatterns(t *testing.T) {
	raw := `{"patterns": [
		{"pattern_type": "feature_request", "description": "Wants mobile app", "frequency": 4, "severity": "medium", "examples": ["x"]},
		{"pattern_type": "pain_point", "description": "Slow loading", "frequency": 12, "severity": "high", "examples": ["y"]},
		{"pattern_type": "bug_report", "description": "", "frequency": 3, "severity": "low", "examples": ["z"]}
	]}`

	patterns, usedFallback := New().StructurePatterns(raw)
	require.False(t, usedFallback)
	require.Len(t, patterns, 2, "pattern with empty description must be dropped")

	// high severity sorts first
	assert.Equal(t, "pain_point", patterns[0].PatternType)
	assert.InDelta(t, 3.6, patterns[0].ImpactScore, 1e-9) // 3 * 12 * 0.1
	assert.InDelta(t, 0.8, patterns[1].ImpactScore, 1e-9) // 2 * 4 * 0.1
}

func TestStructurePatternsImpactCapped(t *testing.T) {
	raw := `{"patterns": [
		{"pattern_type": "pain_point", "description": "Everything is broken", "frequency": 99, "severity": "critical", "examples": ["x"]}
	]}`

	patterns, usedFallback := New().StructurePatterns(raw)
	require.False(t, usedFallback)
	assert.InDelta(t, 10.0, patterns[0].ImpactScore, 1e-9)
}

func TestStructurePatternsFallback(t *testing.T) {
	for _, raw := range []string{"garbage", `{"patterns": []}`, `{"patterns": [{"pattern_type": ""}]}`} {
		patterns, usedFallback := New().StructurePatterns(raw)
		require.True(t, usedFallback, "input: %q", raw)
		require.Len(t, patterns, 1)
		assert.Equal(t, "general_feedback", patterns[0].PatternType)
	}
}

func TestStructureOpportunities(t *testing.T) {
	raw := `{"opportunities": [
		{"title": "Small win", "description": "Quick fix", "category": "technical", "priority": "medium",
		 "impact_score": 6, "effort_estimate": "small", "timeline": "immediate"},
		{"title": "Big bet", "description": "Platform rewrite", "category": "product", "priority": "high",
		 "impact_score": 9, "effort_estimate": "large", "timeline": "long-term"}
	]}`

	opportunities, usedFallback := New().StructureOpportunities(raw, nil)
	require.False(t, usedFallback)
	require.Len(t, opportunities, 2)

	// 6/1 = 6.0 beats 9/3 = 3.0
	assert.Equal(t, "Small win", opportunities[0].Title)
	assert.Equal(t, 1, opportunities[0].Rank)
	assert.InDelta(t, 6.0, opportunities[0].PriorityScore, 1e-9)
	assert.Equal(t, 3, opportunities[0].TimelineScore)

	assert.Equal(t, "Big bet", opportunities[1].Title)
	assert.Equal(t, 2, opportunities[1].Rank)
	assert.InDelta(t, 3.0, opportunities[1].PriorityScore, 1e-9)
}

func TestStructureOpportunitiesImpactLabel(t *testing.T) {
	raw := `{"opportunities": [
		{"title": "Labelled", "description": "d", "category": "product", "priority": "high",
		 "impact_score": "high", "effort_estimate": "medium", "timeline": "short-term"}
	]}`

	opportunities, usedFallback := New().StructureOpportunities(raw, nil)
	require.False(t, usedFallback)
	assert.InDelta(t, 8.0, opportunities[0].ImpactScore, 1e-9)
	assert.InDelta(t, 4.0, opportunities[0].PriorityScore, 1e-9)
}

func TestStructureOpportunitiesFallback(t *testing.T) {
	opportunities, usedFallback := New().StructureOpportunities(`{"opportunities": []}`, nil)
	require.True(t, usedFallback)
	require.Len(t, opportunities, 1)
	assert.Equal(t, "Customer Feedback Analysis", opportunities[0].Title)
	assert.Equal(t, 1, opportunities[0].Rank)
}

func TestStructureOpportunitiesFallbackFromPatterns(t *testing.T) {
	patterns := []feedback.Pattern{
		{PatternType: "bug_report", Description: "App crashes on login", Frequency: 14, Severity: "critical", ImpactScore: 5.6},
		{PatternType: "pain_point", Description: "Checkout is confusing", Frequency: 9, Severity: "high", ImpactScore: 2.7},
		{PatternType: "usability_issue", Description: "Settings hard to find", Frequency: 6, Severity: "medium", ImpactScore: 1.2},
		{PatternType: "feature_request", Description: "Wants dark mode", Frequency: 5, Severity: "low", ImpactScore: 0.5},
		{PatternType: "support_issue", Description: "Slow ticket responses", Frequency: 4, Severity: "medium", ImpactScore: 0.8},
		{PatternType: "praise", Description: "Loves the onboarding", Frequency: 3, Severity: "low", ImpactScore: 0.3},
	}

	opportunities, usedFallback := New().StructureOpportunities("totally unparseable model output", patterns)
	require.True(t, usedFallback)
	require.Len(t, opportunities, 5, "one fallback per pattern, capped at five")

	byTitle := map[string]feedback.Opportunity{}
	for _, o := range opportunities {
		byTitle[o.Title] = o
	}

	crash, ok := byTitle["Address Bug Report"]
	require.True(t, ok)
	assert.Equal(t, "technical", crash.Category)
	assert.Equal(t, "high", crash.Priority)
	assert.Equal(t, "immediate", crash.Timeline)
	assert.InDelta(t, 5.6, crash.ImpactScore, 1e-9)
	assert.Equal(t, "App crashes on login", crash.SupportingData)
	assert.Contains(t, crash.Description, "App crashes on login")

	checkout, ok := byTitle["Address Pain Point"]
	require.True(t, ok)
	assert.Equal(t, "product", checkout.Category, "unmapped pattern types land in product")
	assert.Equal(t, "short-term", checkout.Timeline)
	assert.Equal(t, "Checkout is confusing", checkout.SupportingData)

	// derived records go through the same enhancement and ranking
	for i, o := range opportunities {
		assert.Equal(t, i+1, o.Rank)
		assert.Greater(t, o.PriorityScore, 0.0)
		assert.InDelta(t, 2.0, o.EffortScore, 1e-9)
	}
	for i := 1; i < len(opportunities); i++ {
		assert.GreaterOrEqual(t, opportunities[i-1].PriorityScore, opportunities[i].PriorityScore)
	}
}

func TestOpportunityFromPatternDefaults(t *testing.T) {
	opp := opportunityFromPattern(feedback.Pattern{
		PatternType: "pain_point",
		Description: "Slow sync",
		Frequency:   2,
		Severity:    "low",
	})

	assert.Equal(t, "low", opp.Priority)
	assert.Equal(t, "long-term", opp.Timeline)
	assert.InDelta(t, 5.0, opp.ImpactScore, 1e-9, "zero impact falls back to a midline score")
	assert.InDelta(t, 2.5, opp.PriorityScore, 1e-9)
}

func TestRankStable(t *testing.T) {
	opportunities := []feedback.Opportunity{
		{Title: "a", PriorityScore: 2, ImpactScore: 5, TimelineScore: 2},
		{Title: "b", PriorityScore: 2, ImpactScore: 5, TimelineScore: 2},
		{Title: "c", PriorityScore: 4, ImpactScore: 5, TimelineScore: 2},
	}

	ranked := Rank(opportunities)
	assert.Equal(t, "c", ranked[0].Title)
	assert.Equal(t, "a", ranked[1].Title, "equal opportunities keep their order")
	assert.Equal(t, "b", ranked[2].Title)
	assert.Equal(t, []int{1, 2, 3}, []int{ranked[0].Rank, ranked[1].Rank, ranked[2].Rank})
}

func TestStructureStrategy(t *testing.T) {
	raw := `{
		"recommendations": [
			{"category": "product", "action": "Ship mobile app", "rationale": "r", "expected_impact": "e",
			 "timeline": "short-term", "priority": 6, "owner": "Product Team"},
			{"category": "technical", "action": "Fix crashes", "rationale": "r", "expected_impact": "e",
			 "timeline": "immediate", "priority": 9, "owner": "Engineering Team"}
		],
		"executive_summary": "Things look promising.",
		"implementation_roadmap": {"phase_1_immediate": ["Fix crashes"]}
	}`

	out := New().StructureStrategy(raw)
	require.False(t, out.UsedFallback)
	require.Len(t, out.Recommendations, 2)

	assert.Equal(t, "Fix crashes", out.Recommendations[0].Action, "sorted by priority desc")
	assert.Equal(t, "Things look promising.", out.ExecutiveSummary)
	assert.Equal(t, []string{"Fix crashes"}, out.Roadmap.Phase1Immediate)
}

func TestStructureStrategyDefaultSummary(t *testing.T) {
	raw := `{"recommendations": [{"category": "c", "action": "a", "rationale": "r", "expected_impact": "e", "timeline": "t", "priority": 5, "owner": "o"}]}`

	out := New().StructureStrategy(raw)
	require.False(t, out.UsedFallback)
	assert.Equal(t, "Strategic analysis completed.", out.ExecutiveSummary)
}

func TestStructureStrategyFallback(t *testing.T) {
	for _, raw := range []string{"garbage", `{"recommendations": []}`} {
		out := New().StructureStrategy(raw)
		require.True(t, out.UsedFallback, "input: %q", raw)
		require.Len(t, out.Recommendations, 1)
		assert.Equal(t, "Implement customer feedback analysis system", out.Recommendations[0].Action)
		assert.NotEmpty(t, out.ExecutiveSummary)
	}
}

func TestTruthyFields(t *testing.T) {
	m := map[string]any{
		"s":     "value",
		"empty": "",
		"zero":  float64(0),
		"n":     float64(3),
		"list":  []any{1},
		"none":  []any{},
	}

	assert.True(t, truthyFields(m, "s", "n", "list"))
	assert.False(t, truthyFields(m, "empty"))
	assert.False(t, truthyFields(m, "zero"))
	assert.False(t, truthyFields(m, "none"))
	assert.False(t, truthyFields(m, "missing"))
}
