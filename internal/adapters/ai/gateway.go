package ai

import (
	"context"
	"strings"
	"time"

	"custintel/pkg/errors"
	"custintel/pkg/logger"
)

// Mode indicates how the gateway serves model calls.
type Mode string

const (
	// ModeLive routes calls to an adopted provider.
	ModeLive Mode = "live"

	// ModeMock means no provider was usable; agents fall back to the
	// deterministic generator.
	ModeMock Mode = "mock"
)

// GatewayConfig carries everything needed to build the provider chain.
type GatewayConfig struct {
	GeminiKey  string
	OpenAIKey  string
	ClaudeKey  string
	OllamaHost string

	// ProviderOrder is tried front to back; the first provider whose
	// probe succeeds is adopted for the whole run.
	ProviderOrder []string

	// ForceMock skips probing and pins the gateway to mock mode.
	ForceMock bool

	RequestTimeout time.Duration
	RatePerSecond  float64
	RateBurst      int
}

// Gateway owns the single provider adopted for a pipeline run. Adoption
// happens once at construction; agents only see Invoke.
type Gateway struct {
	provider ChatProvider
	mode     Mode
	limiter  RateLimiter
	log      *logger.Logger
}

// NewGateway probes configured providers in order and adopts the first
// reachable one. It never fails: with no usable provider the gateway
// comes up in mock mode.
func NewGateway(ctx context.Context, cfg GatewayConfig) *Gateway {
	log := logger.Get().With("component", "ai_gateway")

	g := &Gateway{
		mode:    ModeMock,
		limiter: NewNoOpLimiter(),
		log:     log,
	}

	if cfg.ForceMock {
		log.Info("Model gateway pinned to mock mode")
		return g
	}

	order := cfg.ProviderOrder
	if len(order) == 0 {
		for _, p := range AllProviderNames() {
			order = append(order, p.String())
		}
	}

	for _, name := range order {
		provider := buildProvider(ProviderName(name), cfg)
		if provider == nil {
			log.Warnf("Unknown provider in order: %s", name)
			continue
		}

		if err := provider.Probe(ctx); err != nil {
			log.Debugf("Provider %s not usable: %v", provider.Name(), err)
			continue
		}

		g.provider = provider
		g.mode = ModeLive
		if cfg.RatePerSecond > 0 {
			g.limiter = NewTokenBucketLimiter(provider.Name(), cfg.RatePerSecond, cfg.RateBurst)
		}
		log.Infof("Adopted model provider: %s", provider.Name())
		return g
	}

	log.Warn("No model provider available, falling back to mock mode")
	return g
}

func buildProvider(name ProviderName, cfg GatewayConfig) ChatProvider {
	switch name {
	case ProviderNameGemini:
		return NewGeminiProvider(cfg.GeminiKey, "", cfg.RequestTimeout)
	case ProviderNameOpenAI:
		return NewOpenAIProvider(cfg.OpenAIKey, "", cfg.RequestTimeout)
	case ProviderNameClaude:
		return NewClaudeProvider(cfg.ClaudeKey, "", cfg.RequestTimeout)
	case ProviderNameOllama:
		return NewOllamaProvider(cfg.OllamaHost, "", cfg.RequestTimeout)
	default:
		return nil
	}
}

// Mode reports whether the gateway serves live or mock responses.
func (g *Gateway) Mode() Mode {
	return g.mode
}

// ProviderName reports the adopted provider, or "mock".
func (g *Gateway) ProviderName() ProviderName {
	if g.provider == nil {
		return ProviderNameMock
	}
	return g.provider.Name()
}

// Invoke sends one completion request through the adopted provider.
func (g *Gateway) Invoke(ctx context.Context, req ChatRequest) (string, error) {
	if g.mode == ModeMock || g.provider == nil {
		return "", errors.Wrap(errors.ErrProviderUnavailable, "gateway is in mock mode")
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := g.provider.Chat(ctx, req)
	if err != nil {
		return "", err
	}
	if resp.Content == "" {
		return "", errors.Wrapf(errors.ErrEmptyResponse, "provider %s", g.provider.Name())
	}
	return resp.Content, nil
}

// IsCredentialError reports whether err looks like a credentials problem.
// Agents retry such failures through the mock generator instead of
// failing the stage.
func IsCredentialError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errors.ErrCredentials) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"api key", "credential", "unauthorized", "401", "permission denied"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
