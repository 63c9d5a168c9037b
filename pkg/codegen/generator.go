package codegen

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/crumbworks/genchat/pkg/provider"
	"github.com/crumbworks/genchat/pkg/types"
)

const systemPrompt = `You are a code generation assistant. When a user asks for code, you should:

1. Analyze what they're asking for
2. Generate the appropriate code files
3. Return the result in this exact JSON format:

{
  "description": "Brief description of what was created",
  "files": [
    {
      "filename": "index.html",
      "language": "html",
      "content": "<!DOCTYPE html>..."
    },
    {
      "filename": "style.css",
      "language": "css",
      "content": "body { margin: 0; }"
    },
    {
      "filename": "script.js",
      "language": "javascript",
      "content": "console.log('Hello');"
    }
  ]
}

Rules:
- Always provide complete, working code
- Use appropriate file extensions
- Include all necessary files (HTML, CSS, JS if it's a web component)
- Keep code clean and well-commented
- Make sure the code actually works together
- For simple requests, you might only need 1-2 files
- For complex requests, break into logical files

Generate code for the following request:`

// jsonBlob grabs the outermost {...} span, since models tend to wrap the
// JSON in prose or markdown fences.
var jsonBlob = regexp.MustCompile(`(?s)\{.*\}`)

/*
Generator turns a natural-language request into code files by prompting the
configured provider for structured JSON output. Provider failures never
propagate as errors: the result degrades to an error.txt file so the caller
always gets a well-formed response.
*/
type Generator struct {
	provider provider.Interface
}

func NewGenerator(prvdr provider.Interface) *Generator {
	return &Generator{provider: prvdr}
}

func (gen *Generator) Generate(
	ctx context.Context, request string,
) types.CodeGenerationResponse {
	content, err := gen.provider.Complete(ctx, []types.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: request},
	})
	if err != nil {
		log.Error("code generation failed", "error", err)
		return types.CodeGenerationResponse{
			Description: "Error occurred during code generation",
			Files: []types.CodeFile{{
				Filename: "error.txt",
				Content:  fmt.Sprintf("Error generating code: %s", err),
				Language: "text",
			}},
		}
	}

	return ParseResult(content)
}

// ParseResult extracts the structured file list from a raw model response.
// When no parseable JSON is present the entire response is returned as a
// single text file, matching the fallback clients already rely on.
func ParseResult(content string) types.CodeGenerationResponse {
	content = strings.TrimSpace(content)

	if match := jsonBlob.FindString(content); match != "" {
		var result types.CodeGenerationResponse
		if err := json.Unmarshal([]byte(match), &result); err == nil {
			if result.Description == "" {
				result.Description = "Generated code files"
			}
			if result.Files == nil {
				result.Files = []types.CodeFile{}
			}
			return result
		}
	}

	return types.CodeGenerationResponse{
		Description: "Generated code",
		Files: []types.CodeFile{{
			Filename: "generated_code.txt",
			Content:  content,
			Language: "text",
		}},
	}
}
