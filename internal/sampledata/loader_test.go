package sampledata

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custintel/internal/feedback"
)

func TestSynthesizeDeterministic(t *testing.T) {
	a := NewLoader(t.TempDir(), "Acme", "Widget")
	b := NewLoader(t.TempDir(), "Acme", "Widget")

	first := a.Synthesize("reviews", 20)
	second := b.Synthesize("reviews", 20)

	require.Len(t, first, 20)
	require.Len(t, second, 20)
	for i := range first {
		assert.Equal(t, first[i]["id"], second[i]["id"])
		assert.Equal(t, first[i]["text"], second[i]["text"])
		assert.Equal(t, first[i]["rating"], second[i]["rating"])
	}
}

func TestSynthesizeDiffersAcrossSources(t *testing.T) {
	loader := NewLoader(t.TempDir(), "Acme", "Widget")

	reviews := loader.Synthesize("reviews", 5)
	tickets := loader.Synthesize("tickets", 5)
	surveys := loader.Synthesize("surveys", 5)

	assert.Equal(t, "review_0000", reviews[0]["id"])
	assert.Equal(t, "ticket_0000", tickets[0]["id"])
	assert.Equal(t, "survey_0000", surveys[0]["id"])

	assert.Equal(t, "mock_review_platform", reviews[0]["source"])
	assert.NotContains(t, tickets[0], "source")
	assert.Contains(t, surveys[0], "responses")
}

func TestSynthesizeReviewFields(t *testing.T) {
	loader := NewLoader(t.TempDir(), "Acme", "Widget")

	for _, r := range loader.Synthesize("reviews", 20) {
		rating, ok := r.Rating()
		require.True(t, ok)
		assert.GreaterOrEqual(t, rating, 1.0)
		assert.LessOrEqual(t, rating, 5.0)
		assert.NotEmpty(t, r.Text())
		assert.NotEmpty(t, r.Date())
	}
}

func TestLoadPrefersJSONFile(t *testing.T) {
	dir := t.TempDir()
	records := []feedback.Record{
		{"id": "r1", "text": "Loved it", "rating": 5.0, "source": "store"},
		{"id": "r2", "text": "Hated it", "rating": 1.0, "source": "store"},
	}
	data, err := json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reviews.json"), data, 0o644))

	loader := NewLoader(dir, "Acme", "Widget")
	got, err := loader.Load(context.Background(), "reviews")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "Loved it", got[0].Text())
}

func TestLoadSourceFileMapping(t *testing.T) {
	dir := t.TempDir()
	data, err := json.Marshal([]feedback.Record{{"id": "t1", "description": "broken"}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "support_tickets.json"), data, 0o644))

	loader := NewLoader(dir, "Acme", "Widget")
	got, err := loader.Load(context.Background(), "tickets")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "broken", got[0].Text())
}

func TestLoadCSVFallback(t *testing.T) {
	dir := t.TempDir()
	csv := "id,text,rating,verified\nr1,Great stuff,5,true\nr2,Not great,2,false\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reviews.csv"), []byte(csv), 0o644))

	loader := NewLoader(dir, "Acme", "Widget")
	got, err := loader.Load(context.Background(), "reviews")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Great stuff", got[0].Text())
	assert.Equal(t, 5.0, got[0]["rating"], "numeric cells are coerced")
	assert.Equal(t, true, got[0]["verified"], "boolean cells are coerced")
	assert.Equal(t, false, got[1]["verified"])
}

func TestLoadSynthesizesWhenNoFiles(t *testing.T) {
	loader := NewLoader(t.TempDir(), "Acme", "Widget")

	got, err := loader.Load(context.Background(), "reviews")
	require.NoError(t, err)
	assert.Len(t, got, 20)
}

func TestLoadRespectsCanceledContext(t *testing.T) {
	loader := NewLoader(t.TempDir(), "Acme", "Widget")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := loader.Load(ctx, "reviews")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadCorruptJSONFallsBackToSynthetic(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reviews.json"), []byte("{not json"), 0o644))

	loader := NewLoader(dir, "Acme", "Widget")
	got, err := loader.Load(context.Background(), "reviews")
	require.NoError(t, err)
	assert.Len(t, got, 20, "unreadable file falls back to synthetic data")
}

func TestCoerceCell(t *testing.T) {
	assert.Equal(t, 3.5, coerceCell("3.5"))
	assert.Equal(t, true, coerceCell("true"))
	assert.Equal(t, "hello", coerceCell("hello"))
}
