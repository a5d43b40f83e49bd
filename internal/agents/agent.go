package agents

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"custintel/internal/adapters/ai"
	"custintel/internal/agents/state"
	"custintel/internal/metrics"
	"custintel/pkg/logger"
)

// BaseAgent carries the pieces every model-backed stage shares: the
// adopted gateway, a scoped logger, and sampling parameters. Stage
// agents embed it and call Execute with their rendered prompts.
type BaseAgent struct {
	name        string
	gateway     *ai.Gateway
	log         *logger.Logger
	temperature float64
	maxTokens   int
}

func newBaseAgent(name string, gateway *ai.Gateway, temperature float64) BaseAgent {
	return BaseAgent{
		name:        name,
		gateway:     gateway,
		log:         logger.Get().With("agent", name),
		temperature: temperature,
		maxTokens:   4096,
	}
}

// Name returns the agent's stage name.
func (b *BaseAgent) Name() string { return b.name }

// Execute runs one model call for this agent. In mock mode the call is
// served by the deterministic generator; a live call that fails with a
// credentials error also falls back to the generator so the pipeline
// keeps moving. Other failures are recorded on the state and returned.
func (b *BaseAgent) Execute(ctx context.Context, system, task string, st *state.State, extra map[string]any) (string, error) {
	mc := mockContextFrom(st, extra)

	if b.gateway.Mode() == ai.ModeMock {
		b.log.Infof("Using mock response for agent %q (no model available)", b.name)
		metrics.RecordModelCall(b.name, ai.ProviderNameMock.String(), 0, nil)
		return GenerateMock(b.name, mc)
	}

	formatted := b.formatTask(task, st, extra)
	provider := b.gateway.ProviderName().String()

	start := time.Now()
	content, err := b.gateway.Invoke(ctx, ai.ChatRequest{
		System:      system,
		Messages:    []ai.Message{{Role: ai.RoleUser, Content: formatted}},
		Temperature: b.temperature,
		MaxTokens:   b.maxTokens,
	})
	latency := time.Since(start)

	if err != nil {
		if ai.IsCredentialError(err) {
			b.log.Warnf("Model call failed with credential error, using mock response: %v", err)
			metrics.RecordModelFallback(b.name, provider, latency)
			return GenerateMock(b.name, mc)
		}

		msg := fmt.Sprintf("Failed to execute task for agent '%s': %v", b.name, err)
		b.log.Error(msg)
		st.AddError(msg)
		metrics.RecordModelCall(b.name, provider, latency, err)
		return "", err
	}

	metrics.RecordModelCall(b.name, provider, latency, nil)
	return content, nil
}

// formatTask wraps the rendered task body with the run context so the
// model always sees who it is analyzing and how far the pipeline is.
func (b *BaseAgent) formatTask(task string, st *state.State, extra map[string]any) string {
	parts := []string{"Task: " + task}

	if st.CompanyName != "" {
		parts = append(parts, "Company: "+st.CompanyName)
	}
	if st.ProductName != "" {
		parts = append(parts, "Product: "+st.ProductName)
	}
	if len(st.DataSources) > 0 {
		parts = append(parts, "Data Sources: "+strings.Join(st.DataSources, ", "))
	}
	if st.CurrentStep != "" {
		parts = append(parts, "Current Pipeline Step: "+st.CurrentStep)
	}

	if len(extra) > 0 {
		keys := make([]string, 0, len(extra))
		for k := range extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var items []string
		for _, k := range keys {
			v := extra[k]
			formatted, ok := formatContextValue(v)
			if !ok {
				continue
			}
			items = append(items, fmt.Sprintf("- %s: %s", k, formatted))
			if len(items) == 5 {
				break
			}
		}
		if len(items) > 0 {
			parts = append(parts, "Additional Context:")
			parts = append(parts, items...)
		}
	}

	return strings.Join(parts, "\n\n")
}

// formatContextValue renders one context entry. Collections are
// stringified and clipped so a large payload never floods the prompt.
func formatContextValue(v any) (string, bool) {
	if v == nil {
		return "", false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		if rv.Len() == 0 {
			return "", false
		}
		return clip(fmt.Sprintf("%v", v), 200) + "...", true
	case reflect.String:
		s := rv.String()
		if s == "" {
			return "", false
		}
		return s, true
	default:
		return fmt.Sprintf("%v", v), true
	}
}

// mockContextFrom assembles the generator's inputs from the shared
// state, so downstream mock payloads stay consistent with upstream
// stage output.
func mockContextFrom(st *state.State, extra map[string]any) MockContext {
	mc := MockContext{
		Company:       st.CompanyName,
		Product:       st.ProductName,
		Patterns:      st.Patterns,
		Opportunities: st.Opportunities,
		Sentiment:     st.SentimentResults,
	}
	if n, ok := extra["sample_size"].(int); ok {
		mc.SampleSize = n
	}
	return mc
}
