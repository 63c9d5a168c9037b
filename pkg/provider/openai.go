package provider

import (
	"context"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/crumbworks/genchat/pkg/types"
)

/*
openaiRoleMap compresses convertMessages' switch.
*/
var openaiRoleMap = map[string]func(string) openai.ChatCompletionMessageParamUnion{
	"system":    openai.SystemMessage[string],
	"user":      openai.UserMessage[string],
	"assistant": openai.AssistantMessage[string],
}

/*
OpenAIProvider is a provider for the OpenAI API.
*/
type OpenAIProvider struct {
	client      *openai.Client
	apiKey      string
	model       string
	temperature float64
}

type OpenAIProviderOption func(*OpenAIProvider)

func WithOpenAIAPIKey(apiKey string) OpenAIProviderOption {
	return func(prvdr *OpenAIProvider) {
		prvdr.apiKey = apiKey
	}
}

func WithOpenAIModel(model string) OpenAIProviderOption {
	return func(prvdr *OpenAIProvider) {
		if model != "" {
			prvdr.model = model
		}
	}
}

func WithOpenAITemperature(temperature float64) OpenAIProviderOption {
	return func(prvdr *OpenAIProvider) {
		prvdr.temperature = temperature
	}
}

func NewOpenAIProvider(options ...OpenAIProviderOption) *OpenAIProvider {
	prvdr := &OpenAIProvider{
		model:       "gpt-4o-mini",
		temperature: 0.7,
	}

	for _, option := range options {
		option(prvdr)
	}

	client := openai.NewClient(option.WithAPIKey(prvdr.apiKey))
	prvdr.client = &client

	return prvdr
}

func (prvdr *OpenAIProvider) Stream(
	ctx context.Context, messages []types.ChatMessage, onDelta func(string),
) (string, error) {
	stream := prvdr.client.Chat.Completions.NewStreaming(ctx, prvdr.params(messages))
	acc := openai.ChatCompletionAccumulator{}

	var full strings.Builder

	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}

		full.WriteString(chunk.Choices[0].Delta.Content)
		onDelta(chunk.Choices[0].Delta.Content)
	}

	if err := stream.Err(); err != nil {
		return full.String(), err
	}

	return full.String(), nil
}

func (prvdr *OpenAIProvider) Complete(
	ctx context.Context, messages []types.ChatMessage,
) (string, error) {
	completion, err := prvdr.client.Chat.Completions.New(ctx, prvdr.params(messages))
	if err != nil {
		return "", err
	}

	if len(completion.Choices) == 0 {
		return "", nil
	}

	return completion.Choices[0].Message.Content, nil
}

func (prvdr *OpenAIProvider) params(messages []types.ChatMessage) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(prvdr.model),
		Messages:    prvdr.convertMessages(messages),
		Temperature: openai.Float(prvdr.temperature),
	}
}

func (prvdr *OpenAIProvider) convertMessages(
	messages []types.ChatMessage,
) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))

	for _, msg := range messages {
		convert, ok := openaiRoleMap[msg.Role]
		if !ok {
			convert = openai.UserMessage[string]
		}
		out = append(out, convert(msg.Content))
	}

	return out
}
