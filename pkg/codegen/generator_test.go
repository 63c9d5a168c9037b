package codegen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crumbworks/genchat/pkg/types"
)

type stubProvider struct {
	response string
	err      error
}

func (s *stubProvider) Stream(
	ctx context.Context, messages []types.ChatMessage, onDelta func(string),
) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	onDelta(s.response)
	return s.response, nil
}

func (s *stubProvider) Complete(
	ctx context.Context, messages []types.ChatMessage,
) (string, error) {
	return s.response, s.err
}

func TestGenerateStructuredResponse(t *testing.T) {
	gen := NewGenerator(&stubProvider{
		response: `Here you go:
{
  "description": "A button",
  "files": [
    {"filename": "index.html", "language": "html", "content": "<button>hi</button>"}
  ]
}`,
	})

	result := gen.Generate(context.Background(), "create a button")

	assert.Equal(t, "A button", result.Description)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "index.html", result.Files[0].Filename)
	assert.Equal(t, "html", result.Files[0].Language)
}

func TestGenerateProviderError(t *testing.T) {
	gen := NewGenerator(&stubProvider{err: errors.New("upstream down")})

	result := gen.Generate(context.Background(), "create a button")

	assert.Equal(t, "Error occurred during code generation", result.Description)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "error.txt", result.Files[0].Filename)
	assert.Contains(t, result.Files[0].Content, "upstream down")
}

func TestParseResultFallback(t *testing.T) {
	// No JSON at all: the whole response becomes one text file.
	result := ParseResult("just use a <button> tag")

	assert.Equal(t, "Generated code", result.Description)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "generated_code.txt", result.Files[0].Filename)
	assert.Equal(t, "just use a <button> tag", result.Files[0].Content)
}

func TestParseResultMalformedJSON(t *testing.T) {
	result := ParseResult(`{"description": "broken`)

	// Unbalanced braces never match the blob regex, so this takes the
	// single-file fallback path.
	assert.Equal(t, "Generated code", result.Description)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "generated_code.txt", result.Files[0].Filename)
}

func TestParseResultDefaults(t *testing.T) {
	result := ParseResult(`{"files": []}`)

	assert.Equal(t, "Generated code files", result.Description)
	assert.Empty(t, result.Files)
}
