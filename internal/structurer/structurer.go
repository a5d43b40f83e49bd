package structurer

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"custintel/internal/feedback"
	"custintel/internal/metrics"
	"custintel/pkg/logger"
	"custintel/pkg/templates"
)

// Structurer turns raw model responses into validated, enhanced domain
// records. Parsing never fails the pipeline: every schema has a fallback
// record used when extraction or validation comes up empty.
type Structurer struct {
	log *logger.Logger
}

func New() *Structurer {
	return &Structurer{
		log: logger.Get().With("component", "structurer"),
	}
}

// SentimentOutput bundles the overall result with its breakdown.
type SentimentOutput struct {
	Overall   feedback.SentimentResult
	Breakdown feedback.SentimentBreakdown

	// UsedFallback is set when the response could not be parsed.
	UsedFallback bool
}

// StructureSentiment parses a sentiment analysis response.
func (s *Structurer) StructureSentiment(raw string) SentimentOutput {
	obj, tier, err := Extract(raw)
	if err != nil {
		s.log.Warnf("Failed to parse sentiment response: %v", err)
		metrics.RecordExtraction("sentiment", "fallback")
		return sentimentFallback()
	}

	// Required fields must be present; zero values are legitimate
	// (a sentiment_score of 0.0 is a valid neutral reading).
	for _, field := range []string{"overall_sentiment", "sentiment_score", "emotions", "key_topics"} {
		if _, ok := obj[field]; !ok {
			s.log.Warnf("Sentiment response missing field %q", field)
			metrics.RecordExtraction("sentiment", "fallback")
			return sentimentFallback()
		}
	}

	var result feedback.SentimentResult
	if decodeErr := roundTrip(obj, &result); decodeErr != nil {
		s.log.Warnf("Failed to decode sentiment response: %v", decodeErr)
		metrics.RecordExtraction("sentiment", "fallback")
		return sentimentFallback()
	}
	if result.Confidence == 0 {
		result.Confidence = 0.8
	}
	result.Confidence = clamp01(result.Confidence)

	metrics.RecordExtraction("sentiment", tier)

	return SentimentOutput{
		Overall: result,
		Breakdown: feedback.SentimentBreakdown{
			Emotions:              result.Emotions,
			KeyTopics:             result.KeyTopics,
			SentimentDistribution: sentimentDistribution(result.SentimentScore),
			TopEmotions:           topEmotions(result.Emotions, 3),
		},
	}
}

func sentimentFallback() SentimentOutput {
	return SentimentOutput{
		Overall: feedback.SentimentResult{
			OverallSentiment: "neutral",
			SentimentScore:   0.0,
			Confidence:       0.3,
			AnalysisSummary:  "Analysis failed due to parsing error",
			Emotions:         map[string]float64{},
			KeyTopics:        []string{},
		},
		Breakdown: feedback.SentimentBreakdown{
			Emotions:              map[string]float64{},
			KeyTopics:             []string{},
			SentimentDistribution: map[string]float64{},
			TopEmotions:           []feedback.EmotionIntensity{},
		},
		UsedFallback: true,
	}
}

func sentimentDistribution(score float64) map[string]float64 {
	switch {
	case score > 0.3:
		return map[string]float64{"positive": 0.7, "neutral": 0.2, "negative": 0.1}
	case score < -0.3:
		return map[string]float64{"positive": 0.1, "neutral": 0.2, "negative": 0.7}
	default:
		return map[string]float64{"positive": 0.3, "neutral": 0.4, "negative": 0.3}
	}
}

func topEmotions(emotions map[string]float64, n int) []feedback.EmotionIntensity {
	ranked := make([]feedback.EmotionIntensity, 0, len(emotions))
	for emotion, intensity := range emotions {
		ranked = append(ranked, feedback.EmotionIntensity{Emotion: emotion, Intensity: intensity})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Intensity != ranked[j].Intensity {
			return ranked[i].Intensity > ranked[j].Intensity
		}
		return ranked[i].Emotion < ranked[j].Emotion
	})

	out := make([]feedback.EmotionIntensity, 0, n)
	for _, e := range ranked {
		if len(out) == n {
			break
		}
		if e.Intensity > 0.1 {
			out = append(out, e)
		}
	}
	return out
}

// StructurePatterns parses a pattern detection response, keeping only
// valid patterns sorted by severity then frequency.
func (s *Structurer) StructurePatterns(raw string) ([]feedback.Pattern, bool) {
	obj, tier, err := Extract(raw)
	if err != nil {
		s.log.Warnf("Failed to parse pattern response: %v", err)
		metrics.RecordExtraction("pattern", "fallback")
		return patternFallback(), true
	}

	items, _ := obj["patterns"].([]any)
	patterns := make([]feedback.Pattern, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok || !truthyFields(m, "pattern_type", "description", "frequency", "severity", "examples") {
			continue
		}

		var p feedback.Pattern
		if decodeErr := roundTrip(m, &p); decodeErr != nil {
			continue
		}
		enhancePattern(&p)
		patterns = append(patterns, p)
	}

	if len(patterns) == 0 {
		metrics.RecordExtraction("pattern", "fallback")
		return patternFallback(), true
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		si := feedback.SeverityWeights[patterns[i].Severity]
		sj := feedback.SeverityWeights[patterns[j].Severity]
		if si != sj {
			return si > sj
		}
		return patterns[i].Frequency > patterns[j].Frequency
	})

	metrics.RecordExtraction("pattern", tier)
	return patterns, false
}

func enhancePattern(p *feedback.Pattern) {
	weight := feedback.SeverityWeights[p.Severity]
	if weight == 0 {
		weight = 1
	}
	p.ImpactScore = round2(math.Min(weight*float64(p.Frequency)*0.1, 10.0))
}

func patternFallback() []feedback.Pattern {
	return []feedback.Pattern{
		{
			PatternType: "general_feedback",
			Description: "General customer feedback patterns detected",
			Frequency:   1,
			Severity:    "medium",
			Examples:    []string{"Various customer comments"},
			ImpactScore: 1.0,
		},
	}
}

// StructureOpportunities parses an opportunity response and ranks the
// validated opportunities. The detected patterns are carried along so
// a parsing failure can fall back to pattern-derived opportunities
// instead of a generic placeholder.
func (s *Structurer) StructureOpportunities(raw string, patterns []feedback.Pattern) ([]feedback.Opportunity, bool) {
	obj, tier, err := Extract(raw)
	if err != nil {
		s.log.Warnf("Failed to parse opportunity response: %v", err)
		metrics.RecordExtraction("opportunity", "fallback")
		return opportunityFallback(patterns), true
	}

	items, _ := obj["opportunities"].([]any)
	opportunities := make([]feedback.Opportunity, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok || !truthyFields(m, "title", "description", "category", "priority", "impact_score") {
			continue
		}

		opp, decodeErr := decodeOpportunity(m)
		if decodeErr != nil {
			continue
		}
		enhanceOpportunity(&opp)
		opportunities = append(opportunities, opp)
	}

	if len(opportunities) == 0 {
		metrics.RecordExtraction("opportunity", "fallback")
		return opportunityFallback(patterns), true
	}

	metrics.RecordExtraction("opportunity", tier)
	return Rank(opportunities), false
}

// decodeOpportunity tolerates impact_score arriving as a label ("high")
// instead of a number.
func decodeOpportunity(m map[string]any) (feedback.Opportunity, error) {
	if label, ok := m["impact_score"].(string); ok {
		score, found := feedback.ImpactScores[strings.ToLower(label)]
		if !found {
			score = 5
		}
		m["impact_score"] = score
	}

	var opp feedback.Opportunity
	err := roundTrip(m, &opp)
	return opp, err
}

func enhanceOpportunity(o *feedback.Opportunity) {
	effort, ok := feedback.EffortScores[strings.ToLower(o.EffortEstimate)]
	if !ok {
		effort = 2
	}
	o.EffortScore = effort
	o.PriorityScore = round2(o.ImpactScore / effort)

	timeline, ok := feedback.TimelineScores[strings.ToLower(o.Timeline)]
	if !ok {
		timeline = 2
	}
	o.TimelineScore = timeline
}

// Rank orders opportunities by priority score, then impact, then
// timeline urgency, and stamps 1-based ranks. The sort is stable so
// equal opportunities keep their model-given order.
func Rank(opportunities []feedback.Opportunity) []feedback.Opportunity {
	sort.SliceStable(opportunities, func(i, j int) bool {
		a, b := opportunities[i], opportunities[j]
		if a.PriorityScore != b.PriorityScore {
			return a.PriorityScore > b.PriorityScore
		}
		if a.ImpactScore != b.ImpactScore {
			return a.ImpactScore > b.ImpactScore
		}
		return a.TimelineScore > b.TimelineScore
	})

	for i := range opportunities {
		opportunities[i].Rank = i + 1
	}
	return opportunities
}

// fallbackCategories maps a pattern type to the opportunity category
// its derived fallback lands in. Unlisted types default to "product".
var fallbackCategories = map[string]string{
	"bug_report":        "technical",
	"performance_issue": "technical",
	"usability_issue":   "design",
	"support_issue":     "support",
	"praise":            "service",
}

// opportunityFallback derives one opportunity per detected pattern (up
// to 5) so traceability to the evidence survives a parsing failure.
// With no patterns available it returns a single generic record.
func opportunityFallback(patterns []feedback.Pattern) []feedback.Opportunity {
	if len(patterns) == 0 {
		return []feedback.Opportunity{
			{
				Title:          "Customer Feedback Analysis",
				Description:    "Implement systematic customer feedback analysis to identify improvement areas",
				Category:       "product",
				Priority:       "high",
				ImpactScore:    7,
				EffortEstimate: "medium",
				Timeline:       "short-term",
				SupportingData: "General customer feedback patterns",
				SuccessMetrics: []string{"Customer satisfaction improvement"},
				Risks:          []string{"Resource allocation for analysis"},
				EffortScore:    2,
				PriorityScore:  3.5,
				TimelineScore:  2,
				Rank:           1,
			},
		}
	}

	opportunities := make([]feedback.Opportunity, 0, 5)
	for _, p := range patterns {
		if len(opportunities) == 5 {
			break
		}
		opportunities = append(opportunities, opportunityFromPattern(p))
	}
	return Rank(opportunities)
}

// opportunityFromPattern templates a single fallback opportunity from
// a detected pattern, keyed by its pattern type and severity.
func opportunityFromPattern(p feedback.Pattern) feedback.Opportunity {
	typeLabel := strings.ReplaceAll(p.PatternType, "_", " ")

	category, ok := fallbackCategories[p.PatternType]
	if !ok {
		category = "product"
	}

	priority := "low"
	timeline := "long-term"
	switch p.Severity {
	case "critical":
		priority = "high"
		timeline = "immediate"
	case "high":
		priority = "high"
		timeline = "short-term"
	case "medium":
		priority = "medium"
		timeline = "short-term"
	}

	impact := p.ImpactScore
	if impact == 0 {
		impact = 5
	}

	opp := feedback.Opportunity{
		Title:          "Address " + templates.TitleWords(p.PatternType),
		Description:    fmt.Sprintf("Resolve the recurring %s affecting %d customers: %s", typeLabel, p.Frequency, p.Description),
		Category:       category,
		Priority:       priority,
		ImpactScore:    impact,
		EffortEstimate: "medium",
		Timeline:       timeline,
		SupportingData: p.Description,
		SuccessMetrics: []string{fmt.Sprintf("Reduction in %s reports", typeLabel)},
		Risks:          []string{"Derived from pattern frequency without model analysis"},
	}
	enhanceOpportunity(&opp)
	return opp
}

// StrategyOutput bundles recommendations with the executive summary and
// optional roadmap.
type StrategyOutput struct {
	Recommendations  []feedback.Recommendation
	ExecutiveSummary string
	Roadmap          feedback.Roadmap

	UsedFallback bool
}

// StructureStrategy parses a strategy response, sorting recommendations
// by priority descending.
func (s *Structurer) StructureStrategy(raw string) StrategyOutput {
	obj, tier, err := Extract(raw)
	if err != nil {
		s.log.Warnf("Failed to parse strategy response: %v", err)
		metrics.RecordExtraction("strategy", "fallback")
		return strategyFallback()
	}

	var decoded struct {
		Recommendations  []feedback.Recommendation `json:"recommendations"`
		ExecutiveSummary string                    `json:"executive_summary"`
		Roadmap          feedback.Roadmap          `json:"implementation_roadmap"`
	}
	if decodeErr := roundTrip(obj, &decoded); decodeErr != nil || len(decoded.Recommendations) == 0 {
		s.log.Warnf("Failed to decode strategy response: %v", decodeErr)
		metrics.RecordExtraction("strategy", "fallback")
		return strategyFallback()
	}

	if decoded.ExecutiveSummary == "" {
		decoded.ExecutiveSummary = "Strategic analysis completed."
	}

	sort.SliceStable(decoded.Recommendations, func(i, j int) bool {
		return decoded.Recommendations[i].Priority > decoded.Recommendations[j].Priority
	})

	metrics.RecordExtraction("strategy", tier)
	return StrategyOutput{
		Recommendations:  decoded.Recommendations,
		ExecutiveSummary: decoded.ExecutiveSummary,
		Roadmap:          decoded.Roadmap,
	}
}

func strategyFallback() StrategyOutput {
	return StrategyOutput{
		Recommendations: []feedback.Recommendation{
			{
				Category:       "general",
				Action:         "Implement customer feedback analysis system",
				Rationale:      "Systematic analysis of customer feedback is essential for improvement",
				ExpectedImpact: "Better understanding of customer needs and improved satisfaction",
				Timeline:       "short-term",
				Priority:       8,
				Owner:          "Product Team",
				SuccessMetrics: []string{"Customer satisfaction improvement"},
				Dependencies:   []string{},
				Risks:          []string{"Resource allocation"},
			},
		},
		ExecutiveSummary: "Customer intelligence analysis has identified key areas for improvement. " +
			"Implementation of a systematic feedback analysis system will provide valuable insights " +
			"for product and service enhancements that drive customer satisfaction and business growth.",
		UsedFallback: true,
	}
}

// truthyFields reports whether every named field is present and
// non-empty. Zero numbers, empty strings and empty slices all fail.
func truthyFields(m map[string]any, fields ...string) bool {
	for _, field := range fields {
		v, ok := m[field]
		if !ok || v == nil {
			return false
		}
		switch t := v.(type) {
		case string:
			if t == "" {
				return false
			}
		case float64:
			if t == 0 {
				return false
			}
		case []any:
			if len(t) == 0 {
				return false
			}
		case bool:
			if !t {
				return false
			}
		}
	}
	return true
}

// roundTrip re-encodes a generic map into a typed struct.
func roundTrip(src any, dst any) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
