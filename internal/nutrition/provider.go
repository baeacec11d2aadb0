package nutrition

import (
	"context"
	"fmt"
	"time"
)

// Provider names.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Image is an inline image payload.
type Image struct {
	Data     []byte
	MIMEType string
}

// Request is one generation call. A nil Schema asks for free text.
type Request struct {
	System string
	Prompt string
	Image  *Image
	Schema *Schema
}

// Provider sends a Request to a model and returns its raw text answer.
//
// Implementations map transport failures and non-2xx answers to
// ErrNetwork and never retry.
type Provider interface {
	Name() string
	Model() string
	Generate(ctx context.Context, credential string, req Request) (string, error)
}

// ProviderConfig configures a Provider.
type ProviderConfig struct {
	Name    string
	Model   string
	BaseURL string
	Timeout time.Duration
}

const defaultTimeout = 60 * time.Second

// NewProvider builds the provider named by cfg.Name.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Name {
	case ProviderGemini, "":
		return newGeminiProvider(cfg), nil
	case ProviderOpenAI:
		return newOpenAIProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Name)
	}
}
