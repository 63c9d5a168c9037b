package provider

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/crumbworks/genchat/pkg/types"
)

/*
googleRoleMap compresses convertMessages' switch.
*/
var googleRoleMap = map[string]string{
	"system":    "user",
	"user":      "user",
	"assistant": "model",
	"model":     "model",
}

/*
GoogleProvider is a provider for the Gemini API. It is the default provider;
the original service this replaces was Gemini-only.
*/
type GoogleProvider struct {
	client      *genai.Client
	apiKey      string
	model       string
	temperature float64
}

type GoogleProviderOption func(*GoogleProvider)

func WithGoogleAPIKey(apiKey string) GoogleProviderOption {
	return func(prvdr *GoogleProvider) {
		prvdr.apiKey = apiKey
	}
}

func WithGoogleModel(model string) GoogleProviderOption {
	return func(prvdr *GoogleProvider) {
		if model != "" {
			prvdr.model = model
		}
	}
}

func WithGoogleTemperature(temperature float64) GoogleProviderOption {
	return func(prvdr *GoogleProvider) {
		prvdr.temperature = temperature
	}
}

func NewGoogleProvider(options ...GoogleProviderOption) (*GoogleProvider, error) {
	prvdr := &GoogleProvider{
		model:       "gemini-1.5-flash",
		temperature: 0.7,
	}

	for _, option := range options {
		option(prvdr)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  prvdr.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	prvdr.client = client
	return prvdr, nil
}

func (prvdr *GoogleProvider) Stream(
	ctx context.Context, messages []types.ChatMessage, onDelta func(string),
) (string, error) {
	contents, config := prvdr.convertMessages(messages)

	var full strings.Builder

	for resp, err := range prvdr.client.Models.GenerateContentStream(
		ctx, prvdr.model, contents, config,
	) {
		if err != nil {
			return full.String(), err
		}
		if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			continue
		}

		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text == "" {
				continue
			}
			full.WriteString(part.Text)
			onDelta(part.Text)
		}
	}

	return full.String(), nil
}

func (prvdr *GoogleProvider) Complete(
	ctx context.Context, messages []types.ChatMessage,
) (string, error) {
	contents, config := prvdr.convertMessages(messages)

	resp, err := prvdr.client.Models.GenerateContent(ctx, prvdr.model, contents, config)
	if err != nil {
		return "", err
	}

	var full strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			full.WriteString(part.Text)
		}
	}

	return full.String(), nil
}

/*
convertMessages maps chat turns onto Gemini contents. A leading system
message becomes the system instruction rather than a user turn, which is
how Gemini expects prompts to arrive.
*/
func (prvdr *GoogleProvider) convertMessages(
	messages []types.ChatMessage,
) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(prvdr.temperature)),
	}

	contents := make([]*genai.Content, 0, len(messages))

	for i, msg := range messages {
		if i == 0 && msg.Role == "system" {
			config.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: msg.Content}},
			}
			continue
		}

		role, ok := googleRoleMap[msg.Role]
		if !ok {
			role = "user"
		}

		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}

	return contents, config
}
