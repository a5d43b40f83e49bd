package reports

import (
	"os"
	"path/filepath"
	"time"

	"custintel/internal/agents/state"
	"custintel/internal/feedback"
	"custintel/pkg/errors"
	"custintel/pkg/logger"
	"custintel/pkg/templates"
)

// Writer renders run results into markdown reports on disk.
type Writer struct {
	dir      string
	registry *templates.Registry
	log      *logger.Logger
}

// NewWriter creates a report writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{
		dir:      dir,
		registry: templates.Get(),
		log:      logger.Get().With("component", "reports"),
	}
}

type strategyReportData struct {
	Company          string
	Product          string
	GeneratedAt      string
	WorkflowID       string
	ExecutiveSummary string
	Recommendations  []feedback.Recommendation
	Roadmap          feedback.Roadmap
}

type finalReportData struct {
	Company           string
	Product           string
	GeneratedAt       string
	WorkflowID        string
	Runtime           string
	TotalRecords      int64
	Sources           []string
	AverageRating     float64
	OverallSentiment  string
	SentimentScore    float64
	Confidence        float64
	KeyTopics         []string
	SentimentSummary  string
	Patterns          []feedback.Pattern
	Opportunities     []feedback.Opportunity
	ExecutiveSummary  string
	OverallScore      float64
	CoverageScore     float64
	HallucinationRate float64
	Errors            []string
}

// WriteStrategyReport renders the standalone strategy document.
func (w *Writer) WriteStrategyReport(st *state.State) (string, error) {
	data := strategyReportData{
		Company:          st.CompanyName,
		Product:          st.ProductName,
		GeneratedAt:      time.Now().Format("2006-01-02 15:04"),
		WorkflowID:       st.WorkflowID,
		ExecutiveSummary: st.ExecutiveSummary,
		Recommendations:  st.StrategyRecommendations,
		Roadmap:          st.Roadmap,
	}
	return w.render("reports/strategy", "strategy_report_"+st.WorkflowID+".md", data)
}

// WriteFinalReport renders the full customer intelligence report
// covering every stage's output plus the validation results.
func (w *Writer) WriteFinalReport(st *state.State) (string, error) {
	data := finalReportData{
		Company:          st.CompanyName,
		Product:          st.ProductName,
		GeneratedAt:      time.Now().Format("2006-01-02 15:04"),
		WorkflowID:       st.WorkflowID,
		TotalRecords:     int64(len(st.RawData)),
		Sources:          st.DataSources,
		AverageRating:    averageRating(st.DataSummary),
		OverallSentiment: st.SentimentResults.OverallSentiment,
		SentimentScore:   st.SentimentResults.SentimentScore,
		Confidence:       st.SentimentResults.Confidence,
		KeyTopics:        st.SentimentResults.KeyTopics,
		SentimentSummary: st.SentimentResults.AnalysisSummary,
		Patterns:         st.Patterns,
		Opportunities:    st.Opportunities,
		ExecutiveSummary: st.ExecutiveSummary,
		Errors:           st.Errors,
	}
	if st.PerformanceMetrics != nil {
		data.Runtime = st.PerformanceMetrics.TotalRuntime.Round(time.Millisecond).String()
	}
	if st.ValidationReport != nil {
		data.OverallScore = st.ValidationReport.OverallScore
		data.CoverageScore = st.ValidationReport.CoverageScore
		data.HallucinationRate = st.ValidationReport.HallucinationRate
	}
	return w.render("reports/final", "final_report_"+st.WorkflowID+".md", data)
}

func (w *Writer) render(templateID, filename string, data any) (string, error) {
	content, err := w.registry.Render(templateID, data)
	if err != nil {
		return "", errors.Wrapf(err, "render %s", templateID)
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create report dir %s", w.dir)
	}

	path := filepath.Join(w.dir, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", path)
	}

	w.log.Infof("Report written to %s", path)
	return path, nil
}

func averageRating(summary map[string]any) float64 {
	stats, ok := summary["rating_statistics"].(map[string]any)
	if !ok {
		return 0
	}
	if v, ok := stats["average_rating"].(float64); ok {
		return v
	}
	return 0
}
