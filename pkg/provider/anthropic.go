package provider

import (
	"context"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/charmbracelet/log"

	"github.com/crumbworks/genchat/pkg/types"
)

/*
anthropicRoleMap compresses convertMessages' switch.
*/
var anthropicRoleMap = map[string]func(string) anthropic.MessageParam{
	"user": func(text string) anthropic.MessageParam {
		return anthropic.NewUserMessage(anthropic.NewTextBlock(text))
	},
	"assistant": func(text string) anthropic.MessageParam {
		return anthropic.NewAssistantMessage(anthropic.NewTextBlock(text))
	},
}

/*
AnthropicProvider is a provider for the Anthropic API.
*/
type AnthropicProvider struct {
	client    *anthropic.Client
	apiKey    string
	model     string
	maxTokens int64
}

type AnthropicProviderOption func(*AnthropicProvider)

func WithAnthropicAPIKey(apiKey string) AnthropicProviderOption {
	return func(prvdr *AnthropicProvider) {
		prvdr.apiKey = apiKey
	}
}

func WithAnthropicModel(model string) AnthropicProviderOption {
	return func(prvdr *AnthropicProvider) {
		if model != "" {
			prvdr.model = model
		}
	}
}

func NewAnthropicProvider(options ...AnthropicProviderOption) *AnthropicProvider {
	prvdr := &AnthropicProvider{
		model:     "claude-3-5-haiku-latest",
		maxTokens: 4096,
	}

	for _, option := range options {
		option(prvdr)
	}

	client := anthropic.NewClient(option.WithAPIKey(prvdr.apiKey))
	prvdr.client = &client

	return prvdr
}

func (prvdr *AnthropicProvider) Stream(
	ctx context.Context, messages []types.ChatMessage, onDelta func(string),
) (string, error) {
	stream := prvdr.client.Messages.NewStreaming(ctx, prvdr.params(messages))
	message := anthropic.Message{}

	var full strings.Builder

	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			log.Error("failed to accumulate message event", "error", err)
			continue
		}

		switch event := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if event.Delta.Text != "" {
				full.WriteString(event.Delta.Text)
				onDelta(event.Delta.Text)
			}
		}
	}

	if err := stream.Err(); err != nil {
		return full.String(), err
	}

	return full.String(), nil
}

func (prvdr *AnthropicProvider) Complete(
	ctx context.Context, messages []types.ChatMessage,
) (string, error) {
	message, err := prvdr.client.Messages.New(ctx, prvdr.params(messages))
	if err != nil {
		return "", err
	}

	var full strings.Builder
	for _, block := range message.Content {
		full.WriteString(block.Text)
	}

	return full.String(), nil
}

func (prvdr *AnthropicProvider) params(messages []types.ChatMessage) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(prvdr.model),
		MaxTokens: prvdr.maxTokens,
	}

	for i, msg := range messages {
		// Anthropic carries the system prompt outside the message list.
		if i == 0 && msg.Role == "system" {
			params.System = []anthropic.TextBlockParam{{Text: msg.Content}}
			continue
		}

		convert, ok := anthropicRoleMap[msg.Role]
		if !ok {
			convert = anthropicRoleMap["user"]
		}
		params.Messages = append(params.Messages, convert(msg.Content))
	}

	return params
}
