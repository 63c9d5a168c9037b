package provider

import (
	"context"
	"os"

	"github.com/spf13/viper"

	"github.com/crumbworks/genchat/pkg/errors"
	"github.com/crumbworks/genchat/pkg/types"
)

/*
Interface abstracts the hosted text-generation service. Stream invokes
onDelta for every output chunk as it arrives and returns the accumulated
response; Complete blocks for the full response. Both treat the message
slice as the complete prompt, a leading "system" message included.
*/
type Interface interface {
	Stream(ctx context.Context, messages []types.ChatMessage, onDelta func(string)) (string, error)
	Complete(ctx context.Context, messages []types.ChatMessage) (string, error)
}

/*
FromConfig builds the provider selected in the config file (provider.name,
provider.model, provider.temperature). A missing credential is a
client-visible configuration error, not a crash; the HTTP layer maps it to
a 400.
*/
func FromConfig() (Interface, error) {
	v := viper.GetViper()

	name := v.GetString("provider.name")
	model := v.GetString("provider.model")
	temperature := v.GetFloat64("provider.temperature")

	switch name {
	case "google", "gemini", "":
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			apiKey = os.Getenv("GOOGLE_API_KEY")
		}
		if apiKey == "" {
			return nil, errors.ErrMissingAPIKey.WithMessagef(
				"GEMINI_API_KEY environment variable is required",
			)
		}
		prvdr, err := NewGoogleProvider(
			WithGoogleAPIKey(apiKey),
			WithGoogleModel(model),
			WithGoogleTemperature(temperature),
		)
		if err != nil {
			return nil, err
		}
		return prvdr, nil
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, errors.ErrMissingAPIKey.WithMessagef(
				"OPENAI_API_KEY environment variable is required",
			)
		}
		return NewOpenAIProvider(
			WithOpenAIAPIKey(apiKey),
			WithOpenAIModel(model),
			WithOpenAITemperature(temperature),
		), nil
	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, errors.ErrMissingAPIKey.WithMessagef(
				"ANTHROPIC_API_KEY environment variable is required",
			)
		}
		return NewAnthropicProvider(
			WithAnthropicAPIKey(apiKey),
			WithAnthropicModel(model),
		), nil
	case "ollama":
		prvdr, err := NewOllamaProvider(WithOllamaModel(model))
		if err != nil {
			return nil, err
		}
		return prvdr, nil
	}

	return nil, errors.ErrUnknownProvider.WithMessagef("unknown provider %q", name)
}
