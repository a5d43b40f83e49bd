package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"custintel/pkg/errors"
)

// Ensure OllamaProvider implements ChatProvider
var _ ChatProvider = (*OllamaProvider)(nil)

// OllamaProvider talks to a local Ollama instance.
type OllamaProvider struct {
	host    string
	model   string
	timeout time.Duration
}

// NewOllamaProvider creates a new Ollama chat provider.
func NewOllamaProvider(host string, model string, timeout time.Duration) *OllamaProvider {
	if host == "" {
		host = "http://localhost:11434"
	}
	if model == "" {
		model = ModelOllamaLlama
	}
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &OllamaProvider{
		host:    strings.TrimRight(host, "/"),
		model:   model,
		timeout: timeout,
	}
}

func (p *OllamaProvider) Name() ProviderName {
	return ProviderNameOllama
}

// Probe checks the Ollama endpoint is reachable.
func (p *OllamaProvider) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", p.host+"/api/tags", nil)
	if err != nil {
		return errors.Wrap(err, "create ollama probe request")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Wrapf(errors.ErrUnavailable, "ollama not reachable at %s: %v", p.host, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(errors.ErrUnavailable, "ollama probe returned %d", resp.StatusCode)
	}
	return nil
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`

	PromptEvalCount int `json:"prompt_eval_count"`
	EvalCount       int `json:"eval_count"`
}

// Chat sends a chat completion request to Ollama.
func (p *OllamaProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	ollamaReq := ollamaChatRequest{
		Model:  p.model,
		Stream: false,
	}
	if req.System != "" {
		ollamaReq.Messages = append(ollamaReq.Messages, ollamaMessage{Role: "system", Content: req.System})
	}
	for _, msg := range req.Messages {
		ollamaReq.Messages = append(ollamaReq.Messages, ollamaMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	if req.Temperature > 0 {
		ollamaReq.Options = map[string]any{"temperature": req.Temperature}
	}

	body, err := json.Marshal(ollamaReq)
	if err != nil {
		return nil, errors.Wrap(err, "marshal ollama request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create HTTP request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: p.timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "send ollama request")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read ollama response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrExternal, "ollama API error (%d): %s",
			resp.StatusCode, string(respBody))
	}

	var ollamaResp ollamaChatResponse
	if err := json.Unmarshal(respBody, &ollamaResp); err != nil {
		return nil, errors.Wrap(err, "unmarshal ollama response")
	}

	if ollamaResp.Message.Content == "" {
		return nil, errors.Wrap(errors.ErrEmptyResponse, "ollama returned empty message")
	}

	return &ChatResponse{
		Model:   ollamaResp.Model,
		Content: ollamaResp.Message.Content,
		Usage: Usage{
			PromptTokens:     ollamaResp.PromptEvalCount,
			CompletionTokens: ollamaResp.EvalCount,
			TotalTokens:      ollamaResp.PromptEvalCount + ollamaResp.EvalCount,
		},
	}, nil
}
