package feedback

import (
	"strings"
)

// Record is a single piece of customer feedback. Sources carry different
// shapes (reviews, tickets, survey responses), so records stay schemaless
// and expose typed accessors for the fields analysis cares about.
type Record map[string]any

// textFields are checked in order when extracting analyzable text.
var textFields = []string{"text", "review_text", "description", "comments", "subject"}

// Text returns the first non-empty text field of the record.
func (r Record) Text() string {
	for _, field := range textFields {
		if v, ok := r[field].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// Source returns the record's source tag, if present.
func (r Record) Source() string {
	if v, ok := r["source"].(string); ok {
		return v
	}
	return ""
}

// Rating returns the record's numeric rating and whether one was found.
// Reviews carry "rating", surveys "overall_satisfaction", tickets an
// optional "customer_satisfaction".
func (r Record) Rating() (float64, bool) {
	for _, field := range []string{"rating", "overall_satisfaction", "customer_satisfaction"} {
		if v, ok := toFloat(r[field]); ok {
			return v, true
		}
	}
	return 0, false
}

// Date returns the record's date string, if present. Reviews and
// surveys carry "date", tickets "created_date".
func (r Record) Date() string {
	for _, field := range []string{"date", "created_date"} {
		if v, ok := r[field].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// CombinedText lowercases and concatenates the analyzable text of all
// records. Used as the evidence haystack for grounding checks.
func CombinedText(records []Record) string {
	var b strings.Builder
	for _, r := range records {
		if t := r.Text(); t != "" {
			b.WriteString(strings.ToLower(t))
			b.WriteString(" ")
		}
	}
	return b.String()
}
