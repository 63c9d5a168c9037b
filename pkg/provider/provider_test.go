package provider

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crumbworks/genchat/pkg/errors"
	"github.com/crumbworks/genchat/pkg/types"
)

func TestFromConfigMissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	viper.Set("provider.name", "google")
	defer viper.Set("provider.name", "")

	prvdr, err := FromConfig()
	assert.Nil(t, prvdr)

	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errors.ErrMissingAPIKey.Status, apiErr.Status)
}

func TestFromConfigUnknownProvider(t *testing.T) {
	viper.Set("provider.name", "carrier-pigeon")
	defer viper.Set("provider.name", "")

	prvdr, err := FromConfig()
	assert.Nil(t, prvdr)

	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errors.ErrUnknownProvider.Status, apiErr.Status)
}

func TestGoogleConvertMessages(t *testing.T) {
	prvdr, err := NewGoogleProvider(
		WithGoogleAPIKey("test-key"),
		WithGoogleModel("gemini-1.5-flash"),
		WithGoogleTemperature(0.7),
	)
	require.NoError(t, err)

	contents, config := prvdr.convertMessages([]types.ChatMessage{
		{Role: "system", Content: "be terse"},
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "user", Content: "bye"},
	})

	// The leading system turn becomes the system instruction.
	require.NotNil(t, config.SystemInstruction)
	assert.Equal(t, "be terse", config.SystemInstruction.Parts[0].Text)

	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "user", contents[2].Role)
	assert.Equal(t, "hello", contents[1].Parts[0].Text)
}

func TestOpenAIConvertMessages(t *testing.T) {
	prvdr := NewOpenAIProvider(WithOpenAIAPIKey("test-key"))

	out := prvdr.convertMessages([]types.ChatMessage{
		{Role: "system", Content: "be terse"},
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "narrator", Content: "meanwhile"},
	})

	// Unknown roles fall back to user turns rather than being dropped.
	assert.Len(t, out, 4)
}

func TestAnthropicParams(t *testing.T) {
	prvdr := NewAnthropicProvider(
		WithAnthropicAPIKey("test-key"),
		WithAnthropicModel("claude-3-5-haiku-latest"),
	)

	params := prvdr.params([]types.ChatMessage{
		{Role: "system", Content: "be terse"},
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	})

	require.Len(t, params.System, 1)
	assert.Equal(t, "be terse", params.System[0].Text)
	assert.Len(t, params.Messages, 2)
	assert.Equal(t, int64(4096), int64(params.MaxTokens))
}

func TestOllamaConvertMessages(t *testing.T) {
	prvdr, err := NewOllamaProvider(WithOllamaModel("llama3.2"))
	require.NoError(t, err)

	out := prvdr.convertMessages([]types.ChatMessage{
		{Role: "system", Content: "be terse"},
		{Role: "user", Content: "hi"},
	})

	require.Len(t, out, 2)
	assert.Equal(t, "system", out[0].Role)
	assert.Equal(t, "user", out[1].Role)
}
