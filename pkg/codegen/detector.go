package codegen

import (
	"regexp"
	"strings"
)

// Detector decides whether a chat message is asking for code generation.
// It is a stateless keyword/regex heuristic, deliberately cheap so it can
// run on every incoming message before any model call.

var programmingKeywords = []string{
	"create", "build", "make", "write", "generate", "code",
	"html", "css", "javascript", "js", "python", "react",
	"component", "function", "class", "button", "form",
	"website", "page", "app", "application", "script",
}

var codePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(html|css|js|javascript|python|react|vue|angular)\b`),
	regexp.MustCompile(`\b(create|build|make|write|generate)\s+(a|an)?\s*(button|form|component|page|website|app)`),
	regexp.MustCompile(`\b(show me|give me|can you)\s+(code|example)`),
	regexp.MustCompile(`\bfiles?\s+(for|with)`),
	regexp.MustCompile(`\b(frontend|backend|full.?stack)\b`),
}

type Detector struct{}

func NewDetector() *Detector {
	return &Detector{}
}

// IsProgrammingQuestion reports whether the message looks like a request
// for code. A message qualifies when it contains at least two programming
// keywords, or matches at least one of the stronger regex patterns.
func (d *Detector) IsProgrammingQuestion(message string) bool {
	lower := strings.ToLower(message)

	keywordMatches := 0
	for _, keyword := range programmingKeywords {
		if strings.Contains(lower, keyword) {
			keywordMatches++
		}
	}
	if keywordMatches >= 2 {
		return true
	}

	for _, pattern := range codePatterns {
		if pattern.MatchString(lower) {
			return true
		}
	}

	return false
}
