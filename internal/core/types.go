package core

import "fmt"

// Message roles understood by every adapter.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in the conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemMessage returns a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage returns a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage returns an assistant-role message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

func (m Message) String() string {
	return fmt.Sprintf("Message{role=%q, content=%q}", m.Role, m.Content)
}

// CompletionRequest is the vendor-neutral chat completion request.
// Optional fields are pointers so that an unset value is omitted from the
// wire body while an explicit zero is still sent.
type CompletionRequest struct {
	Model            string    `json:"model,omitempty"`
	Messages         []Message `json:"messages"`
	Temperature      *float64  `json:"temperature,omitempty"`
	MaxTokens        *int      `json:"max_tokens,omitempty"`
	Stream           *bool     `json:"stream,omitempty"`
	TopP             *float64  `json:"top_p,omitempty"`
	FrequencyPenalty *float64  `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64  `json:"presence_penalty,omitempty"`
}

// Clone returns a shallow copy of the request with its own message slice.
// Pointer fields are shared; they are never written through.
func (r *CompletionRequest) Clone() *CompletionRequest {
	clone := *r
	clone.Messages = append([]Message(nil), r.Messages...)
	return &clone
}

// CompletionResponse is the vendor-neutral chat completion response.
type CompletionResponse struct {
	ID                string   `json:"id"`
	Object            string   `json:"object"`
	Created           int64    `json:"created"`
	Model             string   `json:"model"`
	Choices           []Choice `json:"choices"`
	Usage             *Usage   `json:"usage,omitempty"`
	SystemFingerprint string   `json:"system_fingerprint,omitempty"`
}

// Content returns the message content of the first choice.
// The boolean is false when the vendor returned no choices.
func (r *CompletionResponse) Content() (string, bool) {
	if r == nil || len(r.Choices) == 0 {
		return "", false
	}
	return r.Choices[0].Message.Content, true
}

func (r *CompletionResponse) String() string {
	content, _ := r.Content()
	return fmt.Sprintf("CompletionResponse{id=%q, model=%q, content=%q, usage=%s}", r.ID, r.Model, content, r.Usage)
}

// Choice represents a single completion choice
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage represents token usage information
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func (u *Usage) String() string {
	if u == nil {
		return "<nil>"
	}
	return fmt.Sprintf("Usage{prompt=%d, completion=%d, total=%d}", u.PromptTokens, u.CompletionTokens, u.TotalTokens)
}
