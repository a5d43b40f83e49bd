package ai

import (
	"context"
	"time"

	"google.golang.org/genai"

	"custintel/pkg/errors"
)

// Ensure GeminiProvider implements ChatProvider
var _ ChatProvider = (*GeminiProvider)(nil)

// GeminiProvider talks to the Gemini API via the official genai SDK.
type GeminiProvider struct {
	apiKey  string
	model   string
	timeout time.Duration

	client *genai.Client
}

// NewGeminiProvider creates a new Gemini chat provider. The client is
// created lazily on first use so construction never fails.
func NewGeminiProvider(apiKey string, model string, timeout time.Duration) *GeminiProvider {
	if model == "" {
		model = ModelGeminiFlash
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &GeminiProvider{
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
	}
}

func (p *GeminiProvider) Name() ProviderName {
	return ProviderNameGemini
}

// Probe verifies credentials are configured.
func (p *GeminiProvider) Probe(ctx context.Context) error {
	if p.apiKey == "" {
		return errors.Wrap(errors.ErrCredentials, "GEMINI_API_KEY not set")
	}
	return nil
}

func (p *GeminiProvider) ensureClient(ctx context.Context) error {
	if p.client != nil {
		return nil
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return errors.Wrap(err, "create gemini client")
	}
	p.client = cli
	return nil
}

// Chat sends a completion request to the Gemini API.
func (p *GeminiProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if p.apiKey == "" {
		return nil, errors.Wrap(errors.ErrCredentials, "gemini API key not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.ensureClient(ctx); err != nil {
		return nil, err
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		role := genai.RoleUser
		if msg.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}

	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		cfg.Temperature = &temp
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "gemini API call failed")
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyResponse, "gemini returned no candidates")
	}

	out := &ChatResponse{
		Model:   p.model,
		Content: resp.Candidates[0].Content.Parts[0].Text,
	}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}
