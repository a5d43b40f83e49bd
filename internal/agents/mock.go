package agents

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"custintel/internal/feedback"
	"custintel/pkg/errors"
)

// MockContext carries the run inputs the deterministic generator needs.
// Downstream stages pass their upstream outputs so mock payloads stay
// consistent across the whole pipeline.
type MockContext struct {
	Company       string
	Product       string
	SampleSize    int
	Patterns      []feedback.Pattern
	Opportunities []feedback.Opportunity
	Sentiment     feedback.SentimentResult
}

// Seed derives a small stable seed from the company and product names,
// so repeated runs for the same pair produce identical payloads while
// different pairs get visibly different output.
func (mc MockContext) Seed() int {
	h := fnv.New32a()
	h.Write([]byte(mc.Company + mc.Product))
	return int(h.Sum32() % 1000)
}

// GenerateMock produces a deterministic JSON payload for the named
// agent. The payloads match the shape of real model responses, so the
// same structuring path handles both.
func GenerateMock(agentName string, mc MockContext) (string, error) {
	switch agentName {
	case AgentDataCollector:
		return mockCollectorSummary(mc)
	case AgentSentimentAnalyzer:
		return mockSentiment(mc)
	case AgentPatternDetector:
		return mockPatterns(mc)
	case AgentOpportunityFinder:
		return mockOpportunities(mc)
	case AgentStrategyCreator:
		return mockStrategy(mc)
	default:
		return "", errors.Wrapf(errors.ErrInvalidInput, "no mock generator for agent %q", agentName)
	}
}

func mockCollectorSummary(mc MockContext) (string, error) {
	h := mc.Seed()
	payload := map[string]any{
		"total_records":          35 + h%15,
		"data_sources_processed": 3,
		"average_rating":         mockRound(3.5+float64(h%20-10)/100, 1),
	}
	return marshalMock(payload)
}

var mockTopicSets = [][]string{
	{"performance", "user_interface", "pricing"},
	{"customer_support", "features", "reliability"},
	{"mobile_experience", "speed", "usability"},
	{"integration", "documentation", "scalability"},
}

func mockSentiment(mc MockContext) (string, error) {
	h := mc.Seed()

	sentiments := []string{"mixed", "positive", "negative"}
	sentiment := sentiments[h%3]
	score := mockRound(0.2+float64(h%40-20)/100, 2)
	topics := mockTopicSets[h%4]

	emotions := map[string]float64{
		"satisfaction": mockRound(0.3+float64(h%30)/100, 2),
		"frustration":  mockRound(0.2+float64(h%25)/100, 2),
		"delight":      mockRound(0.15+float64(h%20)/100, 2),
		"confusion":    mockRound(0.1+float64(h%15)/100, 2),
	}

	sampleSize := mc.SampleSize
	if sampleSize <= 0 {
		sampleSize = 40
	}

	var confidence float64
	switch {
	case sampleSize >= 100:
		confidence = 0.85
	case sampleSize >= 50:
		confidence = 0.75
	case sampleSize >= 20:
		confidence = 0.65
	default:
		confidence = 0.50
	}
	if sentiment == "mixed" {
		confidence -= 0.10
	} else {
		confidence += 0.05
	}
	confidence = mockRound(math.Max(0.40, math.Min(0.95, confidence)), 2)

	level := "low"
	switch {
	case confidence >= 0.75:
		level = "high"
	case confidence >= 0.60:
		level = "moderate"
	}

	conf := fmt.Sprintf("%.0f%%", confidence*100)
	summaries := []string{
		fmt.Sprintf("Customer feedback shows %s sentiments with %s confidence (%s). Analysis based on %d feedback items. Key concerns include %s and %s, while %s receives positive feedback.",
			sentiment, level, conf, sampleSize, topics[0], topics[1], topics[2]),
		fmt.Sprintf("Analysis of %s's %s shows %s sentiment with %s certainty from %d items. Customers appreciate %s but struggle with %s and %s.",
			mc.Company, mc.Product, sentiment, conf, sampleSize, topics[2], topics[0], topics[1]),
		fmt.Sprintf("Feedback for %s indicates %s sentiment (confidence: %s) across %d data points on %s, %s, and %s.",
			mc.Product, sentiment, conf, sampleSize, topics[0], topics[1], topics[2]),
	}

	payload := map[string]any{
		"overall_sentiment": sentiment,
		"sentiment_score":   score,
		"emotions":          emotions,
		"key_topics":        topics,
		"confidence":        confidence,
		"sample_size":       sampleSize,
		"analysis_summary":  summaries[h%3],
	}
	return marshalMock(payload)
}

func mockPatternCatalog(company, product string) map[string][]string {
	return map[string][]string{
		"pain_point": {
			fmt.Sprintf("Customers frequently report slow loading times and performance issues with %s", product),
			fmt.Sprintf("Users struggle with complex navigation and confusing interface in %s", product),
			fmt.Sprintf("Pricing concerns and value proposition questions for %s's %s", company, product),
		},
		"feature_request": {
			fmt.Sprintf("Multiple requests for mobile app improvements and responsive design for %s", product),
			fmt.Sprintf("Customers want better integration options and API access for %s", product),
			fmt.Sprintf("Feature requests for advanced analytics and reporting in %s", product),
		},
		"bug_report": {
			fmt.Sprintf("Frequent crash reports and stability issues in %s", product),
			fmt.Sprintf("Data sync problems and consistency issues with %s", product),
			fmt.Sprintf("Login and authentication problems reported for %s", product),
		},
		"usability_issue": {
			fmt.Sprintf("Complex user interface causing confusion with %s", product),
			fmt.Sprintf("Learning curve too steep for new users of %s", product),
			fmt.Sprintf("Mobile responsiveness issues with %s", product),
		},
	}
}

func mockPatterns(mc MockContext) (string, error) {
	h := mc.Seed()

	types := []string{"pain_point", "feature_request", "bug_report", "usability_issue"}
	catalog := mockPatternCatalog(mc.Company, mc.Product)

	first := types[h%4]
	second := types[(h+1)%4]

	patterns := []map[string]any{
		{
			"pattern_type":    first,
			"description":     catalog[first][h%3],
			"frequency":       8 + h%10,
			"severity":        "high",
			"examples":        []string{"Example issue 1", "Example issue 2"},
			"business_impact": "Significant user impact",
			"impact_score":    mockRound(7.5+float64(h%20)/10, 1),
		},
		{
			"pattern_type":    second,
			"description":     catalog[second][(h+1)%3],
			"frequency":       6 + (h+3)%8,
			"severity":        "medium",
			"examples":        []string{"Feature request 1", "Feature request 2"},
			"business_impact": "Enhancement opportunity",
			"impact_score":    mockRound(5.0+float64(h%30)/10, 1),
		},
	}

	return marshalMock(map[string]any{"patterns": patterns})
}

type mockOpportunityTemplate struct {
	titles       []string
	descriptions []string
	category     string
	baseImpact   int
}

func mockOpportunityTemplates(company, product string) []mockOpportunityTemplate {
	return []mockOpportunityTemplate{
		{
			titles: []string{
				fmt.Sprintf("Optimize %s Performance and Scalability", product),
				fmt.Sprintf("Enhance %s Speed for %s Users", product, company),
				fmt.Sprintf("Improve %s Response Times and Reliability", product),
				fmt.Sprintf("Boost %s System Efficiency", product),
			},
			descriptions: []string{
				fmt.Sprintf("Address performance bottlenecks in %s through targeted optimization", product),
				fmt.Sprintf("Implement caching and database optimization for %s", product),
				fmt.Sprintf("Reduce latency and improve response times across %s", product),
				fmt.Sprintf("Scale %s infrastructure to handle growing %s user base", product, company),
			},
			category:   "technical",
			baseImpact: 8,
		},
		{
			titles: []string{
				fmt.Sprintf("Develop Advanced %s Mobile Experience", product),
				fmt.Sprintf("Build %s Native Mobile Apps for %s", product, company),
				fmt.Sprintf("Enhance %s Mobile Responsiveness", product),
				fmt.Sprintf("Launch %s iOS and Android Applications", product),
			},
			descriptions: []string{
				fmt.Sprintf("Create dedicated mobile applications for %s to improve user engagement", product),
				fmt.Sprintf("Implement responsive design improvements for %s mobile web", product),
				fmt.Sprintf("Add offline capabilities to %s mobile experience", product),
				fmt.Sprintf("Optimize %s for mobile-first %s customers", product, company),
			},
			category:   "product",
			baseImpact: 7,
		},
		{
			titles: []string{
				fmt.Sprintf("Redesign %s User Interface for %s", product, company),
				fmt.Sprintf("Modernize %s User Experience", product),
				fmt.Sprintf("Simplify %s Navigation and Workflow", product),
				fmt.Sprintf("Enhance %s Visual Design and Usability", product),
			},
			descriptions: []string{
				fmt.Sprintf("Conduct UX research and redesign %s interface based on %s user feedback", product, company),
				fmt.Sprintf("Simplify complex workflows in %s to reduce learning curve", product),
				fmt.Sprintf("Implement modern design patterns to improve %s aesthetics", product),
				fmt.Sprintf("Improve information architecture in %s for better discoverability", product),
			},
			category:   "design",
			baseImpact: 6,
		},
		{
			titles: []string{
				fmt.Sprintf("Fix Critical %s Stability Issues", product),
				fmt.Sprintf("Resolve %s Bug Backlog for %s", product, company),
				fmt.Sprintf("Eliminate %s Crash Reports", product),
				fmt.Sprintf("Address %s Data Integrity Problems", product),
			},
			descriptions: []string{
				fmt.Sprintf("Prioritize and fix high-severity bugs affecting %s stability", product),
				fmt.Sprintf("Implement comprehensive testing to prevent %s regressions", product),
				fmt.Sprintf("Address root causes of %s crashes and errors", product),
				fmt.Sprintf("Improve error handling and recovery in %s", product),
			},
			category:   "technical",
			baseImpact: 9,
		},
		{
			titles: []string{
				fmt.Sprintf("Expand %s Integration Ecosystem", product),
				fmt.Sprintf("Build %s API Platform for %s", product, company),
				fmt.Sprintf("Add Third-Party Integrations to %s", product),
				fmt.Sprintf("Enable %s Webhook System", product),
			},
			descriptions: []string{
				fmt.Sprintf("Develop comprehensive API documentation for %s integrations", product),
				fmt.Sprintf("Build integrations with popular tools used by %s customers", company),
				fmt.Sprintf("Create webhook system for real-time %s data synchronization", product),
				fmt.Sprintf("Enable Zapier/Make integrations for %s workflow automation", product),
			},
			category:   "product",
			baseImpact: 7,
		},
		{
			titles: []string{
				fmt.Sprintf("Strengthen %s Security Infrastructure", product),
				fmt.Sprintf("Implement %s Advanced Authentication for %s", product, company),
				fmt.Sprintf("Enhance %s Data Encryption", product),
				fmt.Sprintf("Achieve %s SOC 2 Compliance", product),
			},
			descriptions: []string{
				fmt.Sprintf("Implement enterprise-grade security features in %s", product),
				fmt.Sprintf("Add multi-factor authentication and SSO to %s", product),
				fmt.Sprintf("Enhance data encryption at rest and in transit for %s", product),
				fmt.Sprintf("Complete security audits and compliance certifications for %s", product),
			},
			category:   "security",
			baseImpact: 8,
		},
		{
			titles: []string{
				fmt.Sprintf("Improve %s Onboarding Experience", product),
				fmt.Sprintf("Create %s Interactive Tutorials for %s", product, company),
				fmt.Sprintf("Enhance %s Documentation and Help Center", product),
				fmt.Sprintf("Build %s Knowledge Base", product),
			},
			descriptions: []string{
				fmt.Sprintf("Design interactive onboarding flow to reduce %s time-to-value", product),
				fmt.Sprintf("Create video tutorials and guides for %s key features", product),
				fmt.Sprintf("Improve help documentation based on %s support tickets", company),
				fmt.Sprintf("Implement in-app guidance and tooltips in %s", product),
			},
			category:   "support",
			baseImpact: 6,
		},
		{
			titles: []string{
				fmt.Sprintf("Add Advanced Analytics to %s", product),
				fmt.Sprintf("Build %s Reporting Dashboard for %s", product, company),
				fmt.Sprintf("Implement %s Data Export Features", product),
				fmt.Sprintf("Create %s Custom Report Builder", product),
			},
			descriptions: []string{
				fmt.Sprintf("Develop comprehensive analytics dashboard for %s users", product),
				fmt.Sprintf("Add customizable reporting capabilities to %s", product),
				fmt.Sprintf("Enable data export in multiple formats from %s", product),
				fmt.Sprintf("Implement real-time metrics and KPI tracking in %s", product),
			},
			category:   "product",
			baseImpact: 7,
		},
	}
}

func mockOpportunities(mc MockContext) (string, error) {
	h := mc.Seed()
	templates := mockOpportunityTemplates(mc.Company, mc.Product)

	count := 5 + h%4
	opportunities := make([]map[string]any, 0, count)

	for i := 0; i < count; i++ {
		tmpl := templates[(h+i*17)%len(templates)]
		title := tmpl.titles[(h+i*7)%len(tmpl.titles)]
		description := tmpl.descriptions[(h+i*11)%len(tmpl.descriptions)]

		impact := tmpl.baseImpact + (h+i*13)%5 - 2
		if impact < 3 {
			impact = 3
		}
		if impact > 10 {
			impact = 10
		}

		var effortOptions []string
		switch {
		case impact >= 8:
			effortOptions = []string{"medium", "large", "large"}
		case impact >= 6:
			effortOptions = []string{"small", "medium", "medium"}
		default:
			effortOptions = []string{"small", "small", "medium"}
		}
		effort := effortOptions[(h+i)%len(effortOptions)]

		timelineOptions := []string{"immediate", "short-term", "short-term", "long-term"}
		timeline := timelineOptions[(h+i*19)%len(timelineOptions)]

		priority := "low"
		switch {
		case impact >= 8 && (effort == "small" || effort == "medium"):
			priority = "high"
		case impact >= 6:
			priority = "medium"
		}

		supporting := fmt.Sprintf("%s customer feedback analysis #%d", mc.Company, i+1)
		if i < len(mc.Patterns) && mc.Patterns[i].Description != "" {
			supporting = clip(mc.Patterns[i].Description, 80)
		}

		opportunities = append(opportunities, map[string]any{
			"title":            title,
			"description":      description,
			"category":         tmpl.category,
			"priority":         priority,
			"impact_score":     impact,
			"effort_estimate":  effort,
			"timeline":         timeline,
			"supporting_data":  supporting,
			"expected_outcome": fmt.Sprintf("Enhanced %s experience for %s customers", mc.Product, mc.Company),
			"success_metrics":  []string{"user satisfaction score", "engagement rate", "feature adoption"},
			"risks":            []string{"resource constraints", "timeline pressure"},
		})
	}

	return marshalMock(map[string]any{"opportunities": opportunities})
}

var mockOwnerByCategory = map[string]string{
	"technical": "Engineering Team",
	"product":   "Product Team",
	"design":    "Design Team",
	"support":   "Customer Success Team",
	"security":  "Security Team",
	"marketing": "Marketing Team",
}

func mockStrategy(mc MockContext) (string, error) {
	h := mc.Seed()

	limit := 5 + h%4
	if len(mc.Opportunities) < limit {
		limit = len(mc.Opportunities)
	}

	recommendations := make([]map[string]any, 0, limit)
	highPriority := 0
	immediate := 0

	for i := 0; i < limit; i++ {
		opp := mc.Opportunities[i]

		owner, ok := mockOwnerByCategory[opp.Category]
		if !ok {
			owner = "Product Team"
		}

		impact := opp.ImpactScore
		effort := opp.EffortEstimate
		if effort == "" {
			effort = "medium"
		}
		timeline := opp.Timeline
		if timeline == "" {
			timeline = "short-term"
		}

		var expectedImpact string
		switch {
		case impact >= 8:
			expectedImpact = fmt.Sprintf("High impact - Will significantly improve user satisfaction and reduce churn for %s customers. Expected to drive measurable improvements in key metrics.", mc.Company)
		case impact >= 6:
			expectedImpact = fmt.Sprintf("Medium impact - Notable enhancement to %s functionality and user experience. Will address common pain points reported by %s users.", mc.Product, mc.Company)
		default:
			expectedImpact = fmt.Sprintf("Incremental impact - Steady improvement to %s capabilities. Contributes to overall platform quality for %s.", mc.Product, mc.Company)
		}

		metrics := []string{
			"User satisfaction score (NPS)",
			"Feature adoption rate",
			"Customer retention improvement",
		}

		dependencies := []string{
			fmt.Sprintf("%s capacity and resources", owner),
			"Technical infrastructure readiness",
			"User research and validation",
		}

		var risks []string
		switch effort {
		case "small":
			risks = []string{"Timeline pressure", "Resource availability"}
		case "medium":
			risks = []string{"Scope creep risk", "Integration complexity", "User adoption challenges"}
		default:
			risks = []string{"Technical complexity", "Extended timeline", "Budget constraints"}
		}

		priority := 10 - i
		if priority < 1 {
			priority = 1
		}
		if impact >= 8 && priority < 10 {
			priority++
		}

		if priority >= 8 {
			highPriority++
		}
		if timeline == "immediate" {
			immediate++
		}

		recommendations = append(recommendations, map[string]any{
			"category":        opp.Category,
			"action":          opp.Title,
			"rationale":       fmt.Sprintf("%s This addresses critical needs identified in %s's customer feedback analysis and will significantly improve %s user satisfaction.", opp.Description, mc.Company, mc.Product),
			"expected_impact": expectedImpact,
			"timeline":        timeline,
			"priority":        priority,
			"owner":           owner,
			"success_metrics": metrics,
			"dependencies":    dependencies,
			"risks":           risks,
			"effort_level":    effort,
		})
	}

	summary := mockExecutiveSummary(mc, recommendations, highPriority)
	roadmap := mockRoadmap(mc, recommendations, immediate)

	payload := map[string]any{
		"recommendations":        recommendations,
		"executive_summary":      summary,
		"implementation_roadmap": roadmap,
		"total_recommendations":  len(recommendations),
		"high_priority_count":    highPriority,
		"immediate_actions":      immediate,
		"estimated_timeline":     "12-24 weeks for comprehensive implementation",
		"success_probability":    "High - based on validated customer feedback and clear priorities",
	}
	return marshalMock(payload)
}

func mockExecutiveSummary(mc MockContext, recs []map[string]any, highPriority int) string {
	score := mc.Sentiment.SentimentScore
	confidence := fmt.Sprintf("%.0f%%", mc.Sentiment.Confidence*100)

	var sentimentPhrase, outlook string
	switch mc.Sentiment.OverallSentiment {
	case "positive":
		sentimentPhrase = fmt.Sprintf("positive customer sentiment (score: %.2f, confidence: %s)", score, confidence)
		outlook = "Strong foundation for continued growth"
	case "negative":
		sentimentPhrase = fmt.Sprintf("concerning negative feedback (score: %.2f, confidence: %s)", score, confidence)
		outlook = "Urgent action required to address customer concerns"
	default:
		sentimentPhrase = fmt.Sprintf("mixed customer sentiment (score: %.2f, confidence: %s)", score, confidence)
		outlook = "Balanced approach needed to address varying customer needs"
	}

	var criticalIssues []string
	for _, p := range mc.Patterns {
		if len(criticalIssues) >= 3 {
			break
		}
		if p.Severity == "critical" || p.Severity == "high" {
			criticalIssues = append(criticalIssues, strings.TrimSpace(clip(p.Description, 60)))
		}
	}
	keyFindings := "performance optimization needs and user experience enhancements"
	if len(criticalIssues) > 0 {
		limit := 2
		if len(criticalIssues) < limit {
			limit = len(criticalIssues)
		}
		keyFindings = strings.Join(criticalIssues[:limit], ". ")
	}

	var topTitles []string
	for i, opp := range mc.Opportunities {
		if i >= 3 {
			break
		}
		topTitles = append(topTitles, opp.Title)
	}
	priorities := "system improvements and feature development"
	if len(topTitles) > 0 {
		priorities = strings.Join(topTitles, ", ")
	}

	paragraphs := []string{
		fmt.Sprintf("Customer intelligence analysis for %s's %s reveals %s.", mc.Company, mc.Product, sentimentPhrase),
		fmt.Sprintf("Our analysis identified %d distinct patterns across customer feedback, leading to %d strategic opportunities for improvement. %s.",
			len(mc.Patterns), len(mc.Opportunities), outlook),
		fmt.Sprintf("Key findings include: %s. These insights directly inform our strategic recommendations.", keyFindings),
		fmt.Sprintf("Priority initiatives: %s. We recommend %d specific actions, with %d high-priority items requiring immediate attention.",
			priorities, len(recs), highPriority),
		fmt.Sprintf("Implementation of these recommendations will directly address validated customer pain points and drive measurable improvements in satisfaction, retention, and product-market fit for %s.", mc.Company),
	}
	return strings.Join(paragraphs, "\n\n")
}

func mockRoadmap(mc MockContext, recs []map[string]any, immediate int) map[string]any {
	topN := 3
	if len(recs) < topN {
		topN = len(recs)
	}

	leadOwner := "Product Team"
	if len(recs) > 0 {
		if owner, ok := recs[0]["owner"].(string); ok && owner != "" {
			leadOwner = owner
		}
	}

	return map[string]any{
		"phase_1_immediate": []string{
			fmt.Sprintf("Launch critical fixes for %s (%d immediate actions identified)", mc.Product, immediate),
			"Deploy quick wins to address top customer pain points",
			fmt.Sprintf("Establish metrics tracking for %s customer satisfaction", mc.Company),
		},
		"phase_2_short_term": []string{
			fmt.Sprintf("Roll out %s core improvements (30-90 days)", mc.Product),
			fmt.Sprintf("Implement top %d priority recommendations", topN),
			"Integrate continuous feedback mechanisms",
		},
		"phase_3_long_term": []string{
			fmt.Sprintf("Complete %s strategic transformation (90+ days)", mc.Product),
			fmt.Sprintf("Scale successful initiatives across %s platform", mc.Company),
			"Build advanced capabilities based on validated market demand",
		},
		"key_milestones": []string{
			fmt.Sprintf("Week 4: Critical %s improvements deployed to %s users", mc.Product, mc.Company),
			"Week 12: Major feature updates and optimizations completed",
			"Week 24: Full strategic roadmap delivered and validated",
		},
		"resource_requirements": []string{
			leadOwner,
			"Engineering resources (2-3 full-time developers)",
			"Design and UX support (1 designer)",
			"QA and testing resources",
			"Project management and coordination",
		},
	}
}

func marshalMock(payload map[string]any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "marshal mock payload")
	}
	return string(data), nil
}

func mockRound(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
