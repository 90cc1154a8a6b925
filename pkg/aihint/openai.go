package aihint

import (
	"context"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	openAIModel   = "gpt-4o-mini"
	openAITimeout = 10 * time.Second

	systemPrompt = "You are a market hint generator. Return ONE short sentence (<=160 ASCII chars), neutral tone, no emojis. Output only the sentence."
)

// OpenAIProvider asks an OpenAI chat model for a one-line hint. The API key
// comes from OPENAI_API_KEY.
type OpenAIProvider struct {
	model llms.Model
}

// NewOpenAIProvider builds the provider. It fails if no API key is configured.
func NewOpenAIProvider() (*OpenAIProvider, error) {
	model, err := openai.New(openai.WithModel(openAIModel))
	if err != nil {
		return nil, err
	}
	return &OpenAIProvider{model: model}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

// Fetch sends the input as a single user message under the hint system
// prompt. An empty completion yields a nil result.
func (p *OpenAIProvider) Fetch(ctx context.Context, input string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, openAITimeout)
	defer cancel()

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, input),
	}
	resp, err := p.model.GenerateContent(ctx, content,
		llms.WithTemperature(0.2),
		llms.WithMaxTokens(80),
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return nil, nil
	}
	return &Result{ShortReason: resp.Choices[0].Content}, nil
}
