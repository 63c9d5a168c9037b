package provider

import (
	"context"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/crumbworks/genchat/pkg/types"
)

/*
ollamaRoleMap compresses convertMessages' switch.
*/
var ollamaRoleMap = map[string]string{
	"system":    "system",
	"user":      "user",
	"assistant": "assistant",
}

/*
OllamaProvider is a provider for a local Ollama instance. It needs no API
key; the client honors OLLAMA_HOST.
*/
type OllamaProvider struct {
	client *api.Client
	model  string
}

type OllamaProviderOption func(*OllamaProvider)

func WithOllamaModel(model string) OllamaProviderOption {
	return func(prvdr *OllamaProvider) {
		if model != "" {
			prvdr.model = model
		}
	}
}

func NewOllamaProvider(options ...OllamaProviderOption) (*OllamaProvider, error) {
	prvdr := &OllamaProvider{
		model: "llama3.2",
	}

	for _, option := range options {
		option(prvdr)
	}

	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, err
	}

	prvdr.client = client
	return prvdr, nil
}

func (prvdr *OllamaProvider) Stream(
	ctx context.Context, messages []types.ChatMessage, onDelta func(string),
) (string, error) {
	stream := true
	req := &api.ChatRequest{
		Model:    prvdr.model,
		Messages: prvdr.convertMessages(messages),
		Stream:   &stream,
	}

	var full strings.Builder

	err := prvdr.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		if resp.Message.Content != "" {
			full.WriteString(resp.Message.Content)
			onDelta(resp.Message.Content)
		}
		return nil
	})

	return full.String(), err
}

func (prvdr *OllamaProvider) Complete(
	ctx context.Context, messages []types.ChatMessage,
) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    prvdr.model,
		Messages: prvdr.convertMessages(messages),
		Stream:   &stream,
	}

	var full strings.Builder

	err := prvdr.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		full.WriteString(resp.Message.Content)
		return nil
	})

	return full.String(), err
}

func (prvdr *OllamaProvider) convertMessages(messages []types.ChatMessage) []api.Message {
	out := make([]api.Message, 0, len(messages))

	for _, msg := range messages {
		role, ok := ollamaRoleMap[msg.Role]
		if !ok {
			role = "user"
		}
		out = append(out, api.Message{Role: role, Content: msg.Content})
	}

	return out
}
