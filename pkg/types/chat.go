package types

// Wire schemas for the chat API. Streamed responses are newline-delimited
// JSON: one StreamEvent per line, terminated by a "complete" or "error"
// event so clients can always detect a clean end of stream.

// ChatMessage is a single turn in a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of a streaming chat call. History and session id
// are optional; when a session id is present and no history is supplied the
// server restores history from session memory.
type ChatRequest struct {
	Message             string        `json:"message"`
	ConversationHistory []ChatMessage `json:"conversation_history,omitempty"`
	SessionID           string        `json:"session_id,omitempty"`
}

// Stream event types.
const (
	EventChunk    = "chunk"
	EventComplete = "complete"
	EventError    = "error"
)

// StreamEvent is one NDJSON line of a streamed chat response.
type StreamEvent struct {
	Type           string `json:"type"`
	Content        string `json:"content,omitempty"`
	FullResponse   string `json:"full_response,omitempty"`
	MessageCount   int    `json:"message_count,omitempty"`
	SessionID      string `json:"session_id,omitempty"`
	CodeGeneration bool   `json:"code_generation,omitempty"`
}

// NewChunkEvent wraps one model output delta.
func NewChunkEvent(content string) StreamEvent {
	return StreamEvent{Type: EventChunk, Content: content}
}

// NewErrorEvent carries an upstream failure in-band so a partially streamed
// response still terminates cleanly.
func NewErrorEvent(message string) StreamEvent {
	return StreamEvent{Type: EventError, Content: message}
}

// CodeGenerationRequest asks the model to produce code files for a prompt.
type CodeGenerationRequest struct {
	Prompt string `json:"prompt"`
}

// CodeFile is one generated source file.
type CodeFile struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Language string `json:"language"`
}

// CodeGenerationResponse is the structured result of a generation call.
type CodeGenerationResponse struct {
	Description string     `json:"description"`
	Files       []CodeFile `json:"files"`
}

// SessionResponse returns a freshly created session identifier.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// HistoryResponse returns the stored conversation history for a session.
type HistoryResponse struct {
	SessionID string        `json:"session_id"`
	History   []ChatMessage `json:"history"`
}

// CleanupResponse reports how many expired entries a sweep removed.
type CleanupResponse struct {
	CleanedEntries int `json:"cleaned_entries"`
}
