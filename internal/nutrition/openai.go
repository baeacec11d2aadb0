package nutrition

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
)

// openAIProvider talks to any OpenAI-compatible chat endpoint through
// langchaingo.
//
// The schema travels in the system message and the entries come back
// under "items"; ParseEntries accepts that shape. Images are sent as
// base64 data URLs.
type openAIProvider struct {
	model      string
	baseURL    string
	httpClient *http.Client
}

func newOpenAIProvider(cfg ProviderConfig) *openAIProvider {
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	timeout := defaultTimeout
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	return &openAIProvider{
		model:      model,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (o *openAIProvider) Name() string  { return ProviderOpenAI }
func (o *openAIProvider) Model() string { return o.model }

// Generate implements Provider.
func (o *openAIProvider) Generate(ctx context.Context, credential string, req Request) (string, error) {
	llm, err := openai.New(
		openai.WithBaseURL(o.baseURL),
		openai.WithModel(o.model),
		openai.WithToken(credential),
		openai.WithHTTPClient(o.httpClient),
	)
	if err != nil {
		return "", fmt.Errorf("creating OpenAI client: %w", err)
	}

	messages, err := o.messages(req)
	if err != nil {
		return "", err
	}

	resp, err := llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", networkError(fmt.Errorf("API request failed: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from API")
	}
	return resp.Choices[0].Content, nil
}

func (o *openAIProvider) messages(req Request) ([]llms.MessageContent, error) {
	var out []llms.MessageContent

	system := req.System
	if req.Schema != nil {
		raw, err := json.Marshal(req.Schema)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal schema: %w", err)
		}
		system += "\n\nReturn a JSON object with a single key \"items\" whose value matches this schema:\n" + string(raw)
	}
	if system != "" {
		out = append(out, llms.TextParts(schema.ChatMessageTypeSystem, system))
	}

	user := llms.MessageContent{Role: schema.ChatMessageTypeHuman}
	if req.Image != nil {
		user.Parts = append(user.Parts, llms.ImageURLPart(dataURL(req.Image.MIMEType, req.Image.Data)))
	}
	if req.Prompt != "" {
		user.Parts = append(user.Parts, llms.TextPart(req.Prompt))
	}
	return append(out, user), nil
}

func dataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

var _ Provider = (*openAIProvider)(nil)
