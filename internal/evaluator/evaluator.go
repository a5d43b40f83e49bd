package evaluator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"custintel/internal/agents/state"
	"custintel/internal/feedback"
	"custintel/pkg/errors"
	"custintel/pkg/logger"
)

// Report is the full evaluation of one pipeline run.
type Report struct {
	ID            string             `json:"id"`
	Timestamp     time.Time          `json:"timestamp"`
	WorkflowID    string             `json:"workflow_id"`
	Performance   PerformanceEval    `json:"performance_metrics"`
	Hallucination HallucinationEval  `json:"hallucination_metrics"`
	Coverage      CoverageEval       `json:"coverage_metrics"`
	Actionability ActionabilityEval  `json:"actionability_metrics"`
	Impact        BusinessImpactEval `json:"business_impact"`
	OverallScore  float64            `json:"overall_score"`
	Suggestions   []string           `json:"recommendations"`
}

// PerformanceEval scores runtime behavior of the run.
type PerformanceEval struct {
	TotalRuntimeSeconds float64 `json:"total_runtime_seconds"`
	StagesCompleted     int     `json:"stages_completed"`
	StagesFailed        int     `json:"stages_failed"`
	ErrorRate           float64 `json:"error_rate"`
	EfficiencyScore     float64 `json:"efficiency_score"`
}

// HallucinationEval measures how much generated output is grounded in
// the collected feedback.
type HallucinationEval struct {
	OverallRate       float64  `json:"overall_hallucination_rate"`
	OpportunityCount  int      `json:"opportunity_hallucinations"`
	StrategyCount     int      `json:"strategy_hallucinations"`
	OpportunityRate   float64  `json:"opportunity_hallucination_rate"`
	StrategyRate      float64  `json:"strategy_hallucination_rate"`
	UnsupportedClaims []string `json:"unsupported_claims"`
	ConfidenceScore   float64  `json:"confidence_score"`
}

// CoverageEval measures how much of the feedback the analysis covers.
type CoverageEval struct {
	OverallCoverage   float64 `json:"overall_coverage"`
	PainPointsCovered int     `json:"pain_points_covered"`
	TotalPainPoints   int     `json:"total_pain_points"`
	ThemesCovered     int     `json:"feedback_themes_covered"`
	TotalThemes       int     `json:"total_feedback_themes"`
	PainPointCoverage float64 `json:"pain_point_coverage"`
	ThemeCoverage     float64 `json:"theme_coverage"`
}

// ActionabilityEval measures whether recommendations can actually be
// executed: specific, measurable, owned and scheduled.
type ActionabilityEval struct {
	OverallActionability    float64 `json:"overall_actionability"`
	ActionableCount         int     `json:"actionable_recommendations"`
	TotalItems              int     `json:"total_recommendations"`
	ImplementationReadiness float64 `json:"implementation_readiness"`
}

// BusinessImpactEval is a rough estimate of what acting on the
// recommendations could be worth.
type BusinessImpactEval struct {
	EstimatedImpactScore    float64 `json:"estimated_impact_score"`
	SatisfactionImprovement float64 `json:"customer_satisfaction_improvement"`
	ROIEstimate             float64 `json:"roi_estimate"`
}

// Trends aggregates evaluation history across runs.
type Trends struct {
	TotalRuns            int     `json:"total_runs"`
	AvgOverallScore      float64 `json:"avg_overall_score"`
	AvgHallucinationRate float64 `json:"avg_hallucination_rate"`
	AvgRuntimeSeconds    float64 `json:"avg_runtime"`
	ImprovementSlope     float64 `json:"improvement_trend"`
}

// Evaluator scores finished runs and keeps an in-memory history for
// trend analysis.
type Evaluator struct {
	mu      sync.Mutex
	history []Report
	log     *logger.Logger
}

// New creates an evaluator with empty history.
func New() *Evaluator {
	return &Evaluator{log: logger.Get().With("component", "evaluator")}
}

// Evaluate scores one run across all metric families and appends the
// report to the history.
func (e *Evaluator) Evaluate(st *state.State) Report {
	report := Report{
		ID:            uuid.NewString(),
		Timestamp:     time.Now(),
		WorkflowID:    st.WorkflowID,
		Performance:   evaluatePerformance(st),
		Hallucination: evaluateHallucinations(st),
		Coverage:      evaluateCoverage(st),
		Actionability: evaluateActionability(st),
		Impact:        estimateBusinessImpact(st),
	}

	scores := []float64{
		report.Performance.EfficiencyScore,
		1.0 - report.Hallucination.OverallRate,
		report.Coverage.OverallCoverage,
		report.Actionability.OverallActionability,
	}
	var sum float64
	var n int
	for _, s := range scores {
		if s > 0 {
			sum += s
			n++
		}
	}
	if n > 0 {
		report.OverallScore = sum / float64(n)
	}

	report.Suggestions = improvementSuggestions(report)

	e.mu.Lock()
	e.history = append(e.history, report)
	e.mu.Unlock()

	e.log.Infof("Evaluated workflow %s: overall score %.2f", st.WorkflowID, report.OverallScore)
	return report
}

func evaluatePerformance(st *state.State) PerformanceEval {
	eval := PerformanceEval{}
	if st.PerformanceMetrics == nil {
		return eval
	}

	pm := st.PerformanceMetrics
	eval.TotalRuntimeSeconds = pm.TotalRuntime.Seconds()
	eval.StagesCompleted = pm.StagesCompleted
	eval.StagesFailed = pm.StagesFailed

	total := pm.StagesCompleted + pm.StagesFailed
	if total > 0 {
		eval.ErrorRate = float64(pm.StagesFailed) / float64(total)
	}

	completionRate := float64(pm.StagesCompleted) / float64(maxInt(total, 1))
	runtime := eval.TotalRuntimeSeconds
	if runtime < 30 {
		runtime = 30
	}
	runtimeScore := 300.0 / runtime // target: under five minutes
	if runtimeScore > 1 {
		runtimeScore = 1
	}
	eval.EfficiencyScore = (completionRate + runtimeScore) / 2
	return eval
}

func evaluateHallucinations(st *state.State) HallucinationEval {
	eval := HallucinationEval{UnsupportedClaims: []string{}}

	if len(st.RawData) == 0 {
		eval.OverallRate = 1.0
		return eval
	}

	haystack := feedbackHaystack(st.RawData)

	for _, opp := range st.Opportunities {
		if !termsSupported(opp.Description, haystack) {
			eval.OpportunityCount++
			eval.UnsupportedClaims = append(eval.UnsupportedClaims, "Opportunity: "+opp.Title)
		}
	}
	for _, rec := range st.StrategyRecommendations {
		if !termsSupported(rec.Rationale, haystack) {
			eval.StrategyCount++
			eval.UnsupportedClaims = append(eval.UnsupportedClaims, "Recommendation: "+rec.Action)
		}
	}

	if len(st.Opportunities) > 0 {
		eval.OpportunityRate = float64(eval.OpportunityCount) / float64(len(st.Opportunities))
	}
	if len(st.StrategyRecommendations) > 0 {
		eval.StrategyRate = float64(eval.StrategyCount) / float64(len(st.StrategyRecommendations))
	}

	totalItems := len(st.Opportunities) + len(st.StrategyRecommendations)
	eval.OverallRate = float64(eval.OpportunityCount+eval.StrategyCount) / float64(maxInt(totalItems, 1))
	eval.ConfidenceScore = 1.0 - eval.OverallRate
	return eval
}

// termsSupported checks whether the leading key terms of generated
// text actually appear in the feedback corpus. Below 30% overlap the
// claim is considered unsupported.
func termsSupported(text, haystack string) bool {
	terms := strings.Fields(strings.ToLower(text))
	if len(terms) > 5 {
		terms = terms[:5]
	}
	if len(terms) == 0 {
		return true
	}

	supported := 0
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			supported++
		}
	}
	return float64(supported)/float64(len(terms)) >= 0.3
}

func feedbackHaystack(records []feedback.Record) string {
	var b strings.Builder
	for _, r := range records {
		for _, field := range []string{"text", "description", "comments"} {
			if v, ok := r[field].(string); ok && v != "" {
				b.WriteString(strings.ToLower(v))
				b.WriteString(" ")
			}
		}
	}
	return b.String()
}

var painIndicators = []string{
	"problem", "issue", "bug", "error", "slow", "difficult", "confusing", "broken", "doesn't work",
}

var topicKeywords = map[string][]string{
	"performance": {"slow", "fast", "performance", "speed", "loading"},
	"ui":          {"interface", "design", "ui", "ux", "layout", "navigation"},
	"pricing":     {"price", "cost", "expensive", "cheap", "pricing", "billing"},
	"support":     {"support", "help", "customer service", "response", "helpful"},
	"features":    {"feature", "functionality", "capability", "tool", "option"},
}

func evaluateCoverage(st *state.State) CoverageEval {
	eval := CoverageEval{}
	if len(st.RawData) == 0 {
		return eval
	}

	for _, r := range st.RawData {
		if hasPainPoint(r) {
			eval.TotalPainPoints++
		}
	}

	for _, p := range st.Patterns {
		switch p.PatternType {
		case "pain_point", "bug", "bug_report", "technical_issue":
			eval.PainPointsCovered++
		}
	}

	allTopics := map[string]bool{}
	for _, r := range st.RawData {
		for _, topic := range extractTopics(recordText(r)) {
			allTopics[topic] = true
		}
	}
	eval.TotalThemes = len(allTopics)

	patternTopics := map[string]bool{}
	for _, p := range st.Patterns {
		for _, topic := range extractTopics(p.Description) {
			patternTopics[topic] = true
		}
	}
	for topic := range patternTopics {
		if allTopics[topic] {
			eval.ThemesCovered++
		}
	}

	var scores []float64
	if eval.TotalPainPoints > 0 {
		eval.PainPointCoverage = clamp01(float64(eval.PainPointsCovered) / float64(eval.TotalPainPoints))
		scores = append(scores, eval.PainPointCoverage)
	}
	if eval.TotalThemes > 0 {
		eval.ThemeCoverage = float64(eval.ThemesCovered) / float64(eval.TotalThemes)
		scores = append(scores, eval.ThemeCoverage)
	}
	if len(scores) > 0 {
		var sum float64
		for _, s := range scores {
			sum += s
		}
		eval.OverallCoverage = sum / float64(len(scores))
	}
	return eval
}

func hasPainPoint(r feedback.Record) bool {
	text := strings.ToLower(recordText(r))
	for _, indicator := range painIndicators {
		if strings.Contains(text, indicator) {
			return true
		}
	}
	return false
}

func recordText(r feedback.Record) string {
	var parts []string
	for _, field := range []string{"text", "description", "comments"} {
		if v, ok := r[field].(string); ok && v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func extractTopics(text string) []string {
	lowered := strings.ToLower(text)
	var topics []string
	for topic, keywords := range topicKeywords {
		for _, kw := range keywords {
			if strings.Contains(lowered, kw) {
				topics = append(topics, topic)
				break
			}
		}
	}
	return topics
}

func evaluateActionability(st *state.State) ActionabilityEval {
	eval := ActionabilityEval{}

	total := len(st.StrategyRecommendations) + len(st.Opportunities)
	eval.TotalItems = total
	if total == 0 {
		return eval
	}

	hasTimelines, hasOwners := 0, 0

	for _, rec := range st.StrategyRecommendations {
		score := actionabilityScore(rec.Action, len(rec.SuccessMetrics) > 0, rec.Timeline, rec.Owner, rec.EffortLevel)
		if score >= 0.7 {
			eval.ActionableCount++
		}
		if rec.Timeline != "unknown" {
			hasTimelines++
		}
		if rec.Owner != "" {
			hasOwners++
		}
	}
	for _, opp := range st.Opportunities {
		score := actionabilityScore(opp.Description, len(opp.SuccessMetrics) > 0, opp.Timeline, "", opp.EffortEstimate)
		if score >= 0.7 {
			eval.ActionableCount++
		}
		if opp.Timeline != "unknown" {
			hasTimelines++
		}
	}

	eval.OverallActionability = float64(eval.ActionableCount) / float64(total)
	eval.ImplementationReadiness = float64(hasTimelines+hasOwners) / float64(2*total)
	return eval
}

// actionabilityScore grades one item against the criteria that make a
// recommendation executable. Only criteria the item engages with are
// counted, so a missing owner on an opportunity is not a penalty.
func actionabilityScore(action string, hasMetrics bool, timeline, owner, effort string) float64 {
	var score float64
	var total int

	if action != "" {
		if len(action) > 20 {
			score++
		}
		total++
	}
	if hasMetrics {
		score++
		total++
	}
	if timeline != "" && timeline != "unknown" {
		score++
		total++
	}
	if owner != "" {
		score++
		total++
	}
	if effort != "" {
		score++
		total++
	}

	if total == 0 {
		return 0
	}
	return score / float64(total)
}

func estimateBusinessImpact(st *state.State) BusinessImpactEval {
	eval := BusinessImpactEval{}

	var scores []float64
	for _, opp := range st.Opportunities {
		scores = append(scores, opp.ImpactScore)
	}
	for _, rec := range st.StrategyRecommendations {
		scores = append(scores, float64(rec.Priority))
	}

	if len(scores) > 0 {
		var sum float64
		for _, s := range scores {
			sum += s
		}
		eval.EstimatedImpactScore = sum / float64(len(scores)) / 10.0
	}

	// Baseline is neutral sentiment; improvement is measured against it.
	after := clamp01(st.SentimentResults.SentimentScore + 1)
	eval.SatisfactionImprovement = after - 0.5

	if eval.EstimatedImpactScore > 0 {
		eval.ROIEstimate = eval.EstimatedImpactScore * eval.SatisfactionImprovement
	}
	return eval
}

func improvementSuggestions(report Report) []string {
	var suggestions []string

	if report.Performance.ErrorRate > 0.2 {
		suggestions = append(suggestions, "Improve error handling and agent reliability")
	}
	if report.Performance.EfficiencyScore < 0.7 {
		suggestions = append(suggestions, "Optimize agent execution time and workflow efficiency")
	}
	if report.Hallucination.OverallRate > 0.3 {
		suggestions = append(suggestions, "Strengthen hallucination prevention with better grounding checks")
	}
	if report.Hallucination.ConfidenceScore < 0.7 {
		suggestions = append(suggestions, "Improve prompt engineering for more reliable outputs")
	}
	if report.Coverage.OverallCoverage < 0.6 {
		suggestions = append(suggestions, "Enhance pattern detection to cover more customer feedback themes")
	}
	if report.Actionability.OverallActionability < 0.7 {
		suggestions = append(suggestions, "Generate more specific and measurable recommendations")
	}

	return suggestions
}

// SaveReport writes the evaluation report as indented JSON under dir
// and returns the written path.
func (e *Evaluator) SaveReport(report Report, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create evaluation dir %s", dir)
	}

	path := filepath.Join(dir, "evaluation_report_"+report.WorkflowID+".json")
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "marshal evaluation report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", path)
	}

	e.log.Infof("Evaluation report saved to %s", path)
	return path, nil
}

// History returns a copy of the evaluation reports recorded so far.
func (e *Evaluator) History() []Report {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Report, len(e.history))
	copy(out, e.history)
	return out
}

// PerformanceTrends summarizes the evaluation history; the slope is a
// least-squares fit over the last five overall scores.
func (e *Evaluator) PerformanceTrends() (Trends, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.history) == 0 {
		return Trends{}, errors.Wrap(errors.ErrNoData, "no evaluation history available")
	}

	trends := Trends{TotalRuns: len(e.history)}
	var scoreSum, rateSum, runtimeSum float64
	runtimeCount := 0
	for _, r := range e.history {
		scoreSum += r.OverallScore
		rateSum += r.Hallucination.OverallRate
		if r.Performance.TotalRuntimeSeconds > 0 {
			runtimeSum += r.Performance.TotalRuntimeSeconds
			runtimeCount++
		}
	}
	trends.AvgOverallScore = scoreSum / float64(len(e.history))
	trends.AvgHallucinationRate = rateSum / float64(len(e.history))
	if runtimeCount > 0 {
		trends.AvgRuntimeSeconds = runtimeSum / float64(runtimeCount)
	}

	recent := e.history
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	if len(recent) > 1 {
		trends.ImprovementSlope = slope(recent)
	}
	return trends, nil
}

// slope fits overall scores against run index with least squares.
func slope(reports []Report) float64 {
	n := float64(len(reports))
	var sumX, sumY, sumXY, sumXX float64
	for i, r := range reports {
		x := float64(i)
		sumX += x
		sumY += r.OverallScore
		sumXY += x * r.OverallScore
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
