package core

// RequestBuilder assembles a CompletionRequest incrementally.
// No validation happens here; roles and numeric ranges are taken as given.
type RequestBuilder struct {
	req CompletionRequest
}

// NewRequestBuilder returns an empty builder.
func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{req: CompletionRequest{Messages: []Message{}}}
}

func (b *RequestBuilder) Model(model string) *RequestBuilder {
	b.req.Model = model
	return b
}

// AddMessage appends a message; conversation order is insertion order.
func (b *RequestBuilder) AddMessage(role, content string) *RequestBuilder {
	b.req.Messages = append(b.req.Messages, Message{Role: role, Content: content})
	return b
}

func (b *RequestBuilder) AddSystemMessage(content string) *RequestBuilder {
	return b.AddMessage(RoleSystem, content)
}

func (b *RequestBuilder) AddUserMessage(content string) *RequestBuilder {
	return b.AddMessage(RoleUser, content)
}

func (b *RequestBuilder) AddAssistantMessage(content string) *RequestBuilder {
	return b.AddMessage(RoleAssistant, content)
}

func (b *RequestBuilder) Temperature(v float64) *RequestBuilder {
	b.req.Temperature = &v
	return b
}

func (b *RequestBuilder) MaxTokens(v int) *RequestBuilder {
	b.req.MaxTokens = &v
	return b
}

func (b *RequestBuilder) Stream(v bool) *RequestBuilder {
	b.req.Stream = &v
	return b
}

func (b *RequestBuilder) TopP(v float64) *RequestBuilder {
	b.req.TopP = &v
	return b
}

func (b *RequestBuilder) FrequencyPenalty(v float64) *RequestBuilder {
	b.req.FrequencyPenalty = &v
	return b
}

func (b *RequestBuilder) PresencePenalty(v float64) *RequestBuilder {
	b.req.PresencePenalty = &v
	return b
}

// Build returns a snapshot of the request. Further builder calls do not
// affect requests that were already built.
func (b *RequestBuilder) Build() *CompletionRequest {
	return b.req.Clone()
}
