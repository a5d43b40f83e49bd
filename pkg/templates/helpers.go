package templates

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/dustin/go-humanize"
)

// helperFuncs returns the function map shared by every template in the
// registry. Keep it small: formatting only, no business logic.
func helperFuncs() template.FuncMap {
	return template.FuncMap{
		"title":    TitleWords,
		"upper":    strings.ToUpper,
		"lower":    strings.ToLower,
		"join":     strings.Join,
		"comma":    humanize.Comma,
		"pct":      Percent,
		"score":    Score,
		"truncate": Truncate,
		"add":      func(a, b int) int { return a + b },
	}
}

// TitleWords capitalizes the first letter of each underscore- or
// space-separated word ("pain_point" -> "Pain Point").
func TitleWords(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == ' ' || r == '-'
	})
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Percent formats a 0..1 ratio as a percentage with one decimal.
func Percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// Score formats a score with two decimals.
func Score(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// Truncate shortens a string to n runes, appending an ellipsis when cut.
func Truncate(n int, s string) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
