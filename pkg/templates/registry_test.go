package templates

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoadsEmbeddedTemplates(t *testing.T) {
	registry := Get()

	ids := registry.List()
	assert.NotEmpty(t, ids)

	for _, id := range []string{
		"prompts/sentiment_system",
		"prompts/sentiment_task",
		"prompts/patterns_system",
		"prompts/patterns_task",
		"prompts/opportunities_system",
		"prompts/opportunities_task",
		"prompts/strategy_system",
		"prompts/strategy_task",
		"reports/strategy",
		"reports/final",
	} {
		_, err := registry.GetTemplate(id)
		assert.NoError(t, err, id)
	}
}

func TestGetTemplateUnknownID(t *testing.T) {
	_, err := Get().GetTemplate("prompts/nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template not found")
}

func TestRenderSentimentTask(t *testing.T) {
	out, err := Get().Render("prompts/sentiment_task", map[string]any{
		"TotalItems":   42,
		"SourceCount":  3,
		"TotalRecords": 60,
		"DateEarliest": "2026-01-01",
		"DateLatest":   "2026-03-01",
		"Samples":      []string{"Great product", "Too slow"},
	})
	require.NoError(t, err)

	assert.Contains(t, out, "Analyzing 42 customer feedback items from 3 sources.")
	assert.Contains(t, out, "- Total Records: 60")
	assert.Contains(t, out, "- Great product")
	assert.Contains(t, out, "- Too slow")
}

func TestNewRegistryFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"greeting.tmpl":        &fstest.MapFile{Data: []byte("Hello {{.Name}}!")},
		"nested/farewell.tmpl": &fstest.MapFile{Data: []byte("Bye {{.Name}}.")},
		"ignored.txt":          &fstest.MapFile{Data: []byte("not a template")},
	}

	registry, err := NewRegistryFromFS(fsys, ".")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"greeting", "nested/farewell"}, registry.List())

	out, err := registry.Render("greeting", map[string]string{"Name": "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Acme!", out)
}

func TestNewRegistryFromFSBadTemplate(t *testing.T) {
	fsys := fstest.MapFS{
		"broken.tmpl": &fstest.MapFile{Data: []byte("{{.Unclosed")},
	}

	_, err := NewRegistryFromFS(fsys, ".")
	assert.Error(t, err)
}

func TestTitleWords(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"pain_point", "Pain Point"},
		{"short-term", "Short Term"},
		{"already Title", "Already Title"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TitleWords(tt.in), tt.in)
	}
}

func TestPercentAndScore(t *testing.T) {
	assert.Equal(t, "85.0%", Percent(0.85))
	assert.Equal(t, "0.0%", Percent(0))
	assert.Equal(t, "0.85", Score(0.85))
	assert.Equal(t, "3.60", Score(3.6))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate(10, "hello"))
	assert.Equal(t, "hel...", Truncate(3, "hello"))
	assert.Equal(t, "héllo", Truncate(5, "héllo"), "runes, not bytes")
}
