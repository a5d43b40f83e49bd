package feedback

// Pattern is a recurring theme detected across feedback records.
type Pattern struct {
	PatternType string   `json:"pattern_type"`
	Description string   `json:"description"`
	Frequency   int      `json:"frequency"`
	Severity    string   `json:"severity"`
	Examples    []string `json:"examples"`
	ImpactScore float64  `json:"impact_score"`
}

// Opportunity is a prioritized business opportunity derived from patterns.
type Opportunity struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Category       string   `json:"category"`
	Priority       string   `json:"priority"`
	ImpactScore    float64  `json:"impact_score"`
	EffortEstimate string   `json:"effort_estimate"`
	Timeline       string   `json:"timeline"`
	SupportingData string   `json:"supporting_data"`
	SuccessMetrics []string `json:"success_metrics"`
	Risks          []string `json:"risks"`

	// Derived during structuring.
	EffortScore   float64 `json:"effort_score"`
	PriorityScore float64 `json:"priority_score"`
	TimelineScore int     `json:"timeline_score"`
	Rank          int     `json:"rank"`
}

// Recommendation is an executive-level strategic action item.
type Recommendation struct {
	Category       string   `json:"category"`
	Action         string   `json:"action"`
	Rationale      string   `json:"rationale"`
	ExpectedImpact string   `json:"expected_impact"`
	Timeline       string   `json:"timeline"`
	Priority       int      `json:"priority"`
	Owner          string   `json:"owner"`
	SuccessMetrics []string `json:"success_metrics"`
	Dependencies   []string `json:"dependencies"`
	Risks          []string `json:"risks"`
	EffortLevel    string   `json:"effort_level"`
}

// SentimentResult is the overall sentiment assessment of a feedback corpus.
type SentimentResult struct {
	OverallSentiment string             `json:"overall_sentiment"`
	SentimentScore   float64            `json:"sentiment_score"`
	Emotions         map[string]float64 `json:"emotions"`
	KeyTopics        []string           `json:"key_topics"`
	Confidence       float64            `json:"confidence"`
	AnalysisSummary  string             `json:"analysis_summary"`
}

// EmotionIntensity pairs an emotion with its intensity score.
type EmotionIntensity struct {
	Emotion   string  `json:"emotion"`
	Intensity float64 `json:"intensity"`
}

// SentimentBreakdown is the detailed view backing a SentimentResult.
type SentimentBreakdown struct {
	Emotions              map[string]float64 `json:"emotions"`
	KeyTopics             []string           `json:"key_topics"`
	SentimentDistribution map[string]float64 `json:"sentiment_distribution"`
	TopEmotions           []EmotionIntensity `json:"top_emotions"`
}

// Trends summarizes the detected pattern set.
type Trends struct {
	TotalPatterns        int            `json:"total_patterns"`
	PatternDistribution  map[string]int `json:"pattern_distribution"`
	SeverityDistribution map[string]int `json:"severity_distribution"`
	AverageImpactScore   float64        `json:"average_impact_score"`
	HighImpactPatterns   int            `json:"high_impact_patterns"`
	CriticalPatterns     int            `json:"critical_patterns"`
	TopPatternTypes      []string       `json:"top_pattern_types"`
}

// Roadmap groups recommended actions into implementation phases.
type Roadmap struct {
	Phase1Immediate      []string `json:"phase_1_immediate"`
	Phase2ShortTerm      []string `json:"phase_2_short_term"`
	Phase3LongTerm       []string `json:"phase_3_long_term"`
	KeyMilestones        []string `json:"key_milestones"`
	ResourceRequirements []string `json:"resource_requirements"`
}

// Severity weights for pattern impact scoring.
var SeverityWeights = map[string]float64{
	"critical": 4,
	"high":     3,
	"medium":   2,
	"low":      1,
}

// Impact label to numeric score for opportunity enhancement.
var ImpactScores = map[string]float64{
	"high":   8,
	"medium": 5,
	"low":    3,
}

// Effort label to numeric score. Lower is cheaper.
var EffortScores = map[string]float64{
	"small":  1,
	"medium": 2,
	"large":  3,
}

// Timeline label to urgency score. Higher is sooner.
var TimelineScores = map[string]int{
	"immediate":  3,
	"short-term": 2,
	"long-term":  1,
}
