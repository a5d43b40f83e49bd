package ai

// ProviderName represents an AI provider identifier
type ProviderName string

// Provider name constants
const (
	ProviderNameGemini ProviderName = "gemini"
	ProviderNameOpenAI ProviderName = "openai"
	ProviderNameClaude ProviderName = "claude"
	ProviderNameOllama ProviderName = "ollama"

	// ProviderNameMock is reported when the gateway runs on the
	// deterministic generator instead of a live provider.
	ProviderNameMock ProviderName = "mock"
)

// String returns the string representation of the provider name
func (p ProviderName) String() string {
	return string(p)
}

// IsValid checks if the provider name is supported
func (p ProviderName) IsValid() bool {
	switch p {
	case ProviderNameGemini, ProviderNameOpenAI, ProviderNameClaude, ProviderNameOllama:
		return true
	default:
		return false
	}
}

// AllProviderNames returns all supported provider names in preference order
func AllProviderNames() []ProviderName {
	return []ProviderName{
		ProviderNameGemini,
		ProviderNameOpenAI,
		ProviderNameClaude,
		ProviderNameOllama,
	}
}

// Default model per provider
const (
	ModelGeminiFlash  = "gemini-2.5-flash"
	ModelGPT4oMini    = "gpt-4o-mini"
	ModelClaudeSonnet = "claude-sonnet-4-5-20250929"
	ModelOllamaLlama  = "llama3.1"
)
