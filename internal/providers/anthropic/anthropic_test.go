package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"pgregory.net/rapid"

	"llmconnector/internal/core"
	"llmconnector/internal/providers"
)

const successBody = `{
	"id": "msg_123",
	"type": "message",
	"role": "assistant",
	"model": "claude-3-5-sonnet-20241022",
	"content": [{"type": "text", "text": "Hello! How can I help you today?"}],
	"stop_reason": "end_turn",
	"stop_sequence": null,
	"usage": {"input_tokens": 10, "output_tokens": 20}
}`

func testConfig(baseURL string) *core.Configuration {
	cfg := core.NewConfiguration(core.ProviderAnthropic, "test-api-key")
	cfg.APIBaseURL = baseURL
	return cfg
}

func TestConvertToAnthropicRequest(t *testing.T) {
	cfgMaxTokens := 512

	tests := []struct {
		name    string
		cfg     func(*core.Configuration)
		input   *core.CompletionRequest
		checkFn func(*testing.T, *anthropicRequest)
	}{
		{
			name:  "basic request uses defaults",
			input: core.NewRequestBuilder().AddUserMessage("Hello").Build(),
			checkFn: func(t *testing.T, req *anthropicRequest) {
				if req.Model != "claude-3-5-sonnet-20241022" {
					t.Errorf("Model = %q, want provider default", req.Model)
				}
				if len(req.Messages) != 1 || req.Messages[0].Content != "Hello" {
					t.Errorf("Messages = %v", req.Messages)
				}
				if req.MaxTokens != 1024 {
					t.Errorf("MaxTokens = %d, want 1024", req.MaxTokens)
				}
				if req.Temperature != 1.0 {
					t.Errorf("Temperature = %v, want 1.0", req.Temperature)
				}
				if req.System != nil {
					t.Errorf("System = %q, want unset", *req.System)
				}
			},
		},
		{
			name: "configuration model and max tokens",
			cfg: func(c *core.Configuration) {
				c.Model = "claude-3-opus-20240229"
				c.MaxTokens = &cfgMaxTokens
				c.Temperature = 0.3
			},
			input: core.NewRequestBuilder().AddUserMessage("Hello").Build(),
			checkFn: func(t *testing.T, req *anthropicRequest) {
				if req.Model != "claude-3-opus-20240229" {
					t.Errorf("Model = %q, want configured model", req.Model)
				}
				if req.MaxTokens != 512 {
					t.Errorf("MaxTokens = %d, want 512", req.MaxTokens)
				}
				if req.Temperature != 0.3 {
					t.Errorf("Temperature = %v, want 0.3", req.Temperature)
				}
			},
		},
		{
			name: "request values win",
			cfg: func(c *core.Configuration) {
				c.Model = "claude-3-opus-20240229"
				c.MaxTokens = &cfgMaxTokens
			},
			input: core.NewRequestBuilder().
				Model("claude-3-haiku-20240307").
				MaxTokens(64).
				Temperature(0).
				AddUserMessage("Hello").
				Build(),
			checkFn: func(t *testing.T, req *anthropicRequest) {
				if req.Model != "claude-3-haiku-20240307" {
					t.Errorf("Model = %q", req.Model)
				}
				if req.MaxTokens != 64 {
					t.Errorf("MaxTokens = %d, want 64", req.MaxTokens)
				}
				if req.Temperature != 0 {
					t.Errorf("Temperature = %v, want 0", req.Temperature)
				}
			},
		},
		{
			name: "system message extracted",
			input: core.NewRequestBuilder().
				AddSystemMessage("You are a helpful assistant").
				AddUserMessage("Hello").
				AddAssistantMessage("Hi").
				AddUserMessage("How are you?").
				Build(),
			checkFn: func(t *testing.T, req *anthropicRequest) {
				if req.System == nil || *req.System != "You are a helpful assistant" {
					t.Errorf("System = %v, want the system prompt", req.System)
				}
				want := []anthropicMessage{
					{Role: "user", Content: "Hello"},
					{Role: "assistant", Content: "Hi"},
					{Role: "user", Content: "How are you?"},
				}
				if len(req.Messages) != len(want) {
					t.Fatalf("len(Messages) = %d, want %d", len(req.Messages), len(want))
				}
				for i := range want {
					if req.Messages[i] != want[i] {
						t.Errorf("Messages[%d] = %v, want %v", i, req.Messages[i], want[i])
					}
				}
			},
		},
		{
			name: "last system message wins",
			input: core.NewRequestBuilder().
				AddSystemMessage("first").
				AddUserMessage("Hello").
				AddSystemMessage("second").
				Build(),
			checkFn: func(t *testing.T, req *anthropicRequest) {
				if req.System == nil || *req.System != "second" {
					t.Errorf("System = %v, want second", req.System)
				}
				if len(req.Messages) != 1 {
					t.Errorf("len(Messages) = %d, want 1", len(req.Messages))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig("")
			if tt.cfg != nil {
				tt.cfg(cfg)
			}
			p := newProvider(cfg, providers.ProviderOptions{})
			before := tt.input.Clone()

			tt.checkFn(t, p.convertToAnthropicRequest(tt.input))

			if tt.input.Model != before.Model || tt.input.MaxTokens != before.MaxTokens || len(tt.input.Messages) != len(before.Messages) {
				t.Error("input request must not be modified")
			}
		})
	}
}

func TestConvertToAnthropicRequest_SystemSplitProperty(t *testing.T) {
	p := newProvider(testConfig(""), providers.ProviderOptions{})

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 10).Draw(rt, "n")
		systemAt := rapid.IntRange(0, n).Draw(rt, "systemAt")
		systemContent := rapid.String().Draw(rt, "system")

		var others []anthropicMessage
		builder := core.NewRequestBuilder()
		for i := 0; i <= n; i++ {
			if i == systemAt {
				builder.AddSystemMessage(systemContent)
			}
			if i == n {
				break
			}
			role := rapid.SampledFrom([]string{core.RoleUser, core.RoleAssistant}).Draw(rt, "role")
			content := rapid.String().Draw(rt, "content")
			builder.AddMessage(role, content)
			others = append(others, anthropicMessage{Role: role, Content: content})
		}

		req := p.convertToAnthropicRequest(builder.Build())
		if req.System == nil || *req.System != systemContent {
			rt.Fatalf("System = %v, want %q", req.System, systemContent)
		}
		if len(req.Messages) != len(others) {
			rt.Fatalf("len(Messages) = %d, want %d", len(req.Messages), len(others))
		}
		for i := range others {
			if req.Messages[i] != others[i] {
				rt.Fatalf("Messages[%d] = %v, want %v", i, req.Messages[i], others[i])
			}
		}
	})
}

func TestConvertFromAnthropicResponse(t *testing.T) {
	p := newProvider(testConfig(""), providers.ProviderOptions{})

	result, err := p.convertFromAnthropicResponse([]byte(successBody))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ID != "msg_123" {
		t.Errorf("ID = %q, want %q", result.ID, "msg_123")
	}
	if result.Object != "chat.completion" {
		t.Errorf("Object = %q, want %q", result.Object, "chat.completion")
	}
	if result.Model != "claude-3-5-sonnet-20241022" {
		t.Errorf("Model = %q, want %q", result.Model, "claude-3-5-sonnet-20241022")
	}
	if result.Created == 0 {
		t.Error("Created should be set")
	}
	if len(result.Choices) != 1 {
		t.Fatalf("len(Choices) = %d, want 1", len(result.Choices))
	}
	choice := result.Choices[0]
	if choice.Index != 0 {
		t.Errorf("Index = %d, want 0", choice.Index)
	}
	if choice.Message.Content != "Hello! How can I help you today?" {
		t.Errorf("Message content = %q", choice.Message.Content)
	}
	if choice.Message.Role != "assistant" {
		t.Errorf("Message role = %q, want %q", choice.Message.Role, "assistant")
	}
	if choice.FinishReason != "end_turn" {
		t.Errorf("FinishReason = %q, want %q", choice.FinishReason, "end_turn")
	}
	if result.Usage == nil {
		t.Fatal("Usage should not be nil")
	}
	if result.Usage.PromptTokens != 10 || result.Usage.CompletionTokens != 20 || result.Usage.TotalTokens != 30 {
		t.Errorf("Usage = %s", result.Usage)
	}
}

func TestConvertFromAnthropicResponse_Degraded(t *testing.T) {
	p := newProvider(testConfig(""), providers.ProviderOptions{})

	tests := []struct {
		name        string
		body        string
		wantContent string
		wantUsage   bool
	}{
		{"missing content", `{"id":"m","model":"c","stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":2}}`, "", true},
		{"empty content", `{"id":"m","model":"c","stop_reason":"end_turn","content":[]}`, "", false},
		{"non-text block", `{"id":"m","model":"c","stop_reason":"tool_use","content":[{"type":"tool_use","id":"t"}]}`, "", false},
		{"missing usage", `{"id":"m","model":"c","stop_reason":"end_turn","content":[{"type":"text","text":"ok"}]}`, "ok", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := p.convertFromAnthropicResponse([]byte(tt.body))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			content, ok := resp.Content()
			if !ok || content != tt.wantContent {
				t.Errorf("Content() = %q, %v; want %q, true", content, ok, tt.wantContent)
			}
			if (resp.Usage != nil) != tt.wantUsage {
				t.Errorf("Usage = %v, wantUsage %v", resp.Usage, tt.wantUsage)
			}
		})
	}
}

func TestConvertFromAnthropicResponse_ParseErrors(t *testing.T) {
	p := newProvider(testConfig(""), providers.ProviderOptions{})

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"id":`},
		{"missing id", `{"model":"c","stop_reason":"end_turn"}`},
		{"missing model", `{"id":"m","stop_reason":"end_turn"}`},
		{"missing stop_reason", `{"id":"m","model":"c"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.convertFromAnthropicResponse([]byte(tt.body))
			var gwErr *core.GatewayError
			if !errors.As(err, &gwErr) {
				t.Fatalf("expected *core.GatewayError, got %v", err)
			}
			if gwErr.Type != core.ErrorTypeParse {
				t.Errorf("Type = %q, want %q", gwErr.Type, core.ErrorTypeParse)
			}
			if gwErr.Provider != "Anthropic" {
				t.Errorf("Provider = %q, want Anthropic", gwErr.Provider)
			}
		})
	}
}

func TestConvertFromAnthropicResponse_UsageSumProperty(t *testing.T) {
	p := newProvider(testConfig(""), providers.ProviderOptions{})

	rapid.Check(t, func(rt *rapid.T) {
		input := rapid.IntRange(0, 1_000_000).Draw(rt, "input")
		output := rapid.IntRange(0, 1_000_000).Draw(rt, "output")

		body, _ := json.Marshal(map[string]any{
			"id":          "msg",
			"model":       "claude",
			"stop_reason": "end_turn",
			"content":     []map[string]string{{"type": "text", "text": "x"}},
			"usage":       map[string]int{"input_tokens": input, "output_tokens": output},
		})

		resp, err := p.convertFromAnthropicResponse(body)
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}
		if resp.Usage.TotalTokens != input+output {
			rt.Fatalf("TotalTokens = %d, want %d", resp.Usage.TotalTokens, input+output)
		}
	})
}

func TestComplete(t *testing.T) {
	var (
		gotBody    map[string]any
		gotHeaders http.Header
		gotPath    string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeaders = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(successBody))
	}))
	defer server.Close()

	p := newProvider(testConfig(server.URL+"/"), providers.ProviderOptions{})
	req := core.NewRequestBuilder().
		AddSystemMessage("Be brief").
		AddUserMessage("Hello").
		Build()

	resp, err := p.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/messages" {
		t.Errorf("path = %q, want /messages", gotPath)
	}
	if gotHeaders.Get("x-api-key") != "test-api-key" {
		t.Errorf("x-api-key = %q", gotHeaders.Get("x-api-key"))
	}
	if gotHeaders.Get("anthropic-version") != "2023-06-01" {
		t.Errorf("anthropic-version = %q", gotHeaders.Get("anthropic-version"))
	}
	if gotHeaders.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", gotHeaders.Get("Content-Type"))
	}
	if gotHeaders.Get("Authorization") != "" {
		t.Error("Authorization header must not be sent to Anthropic")
	}

	if gotBody["system"] != "Be brief" {
		t.Errorf("system = %v", gotBody["system"])
	}
	if gotBody["max_tokens"] != float64(1024) {
		t.Errorf("max_tokens = %v, want 1024", gotBody["max_tokens"])
	}
	if gotBody["temperature"] != 1.0 {
		t.Errorf("temperature = %v, want 1.0", gotBody["temperature"])
	}
	if messages, _ := gotBody["messages"].([]any); len(messages) != 1 {
		t.Errorf("messages = %v, want only the user message", gotBody["messages"])
	}

	if content, _ := resp.Content(); content != "Hello! How can I help you today?" {
		t.Errorf("content = %q", content)
	}
	if req.MaxTokens != nil || req.Model != "" || len(req.Messages) != 2 {
		t.Error("input request must not be modified")
	}
}

func TestComplete_NoSystemFieldWithoutSystemMessage(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(successBody))
	}))
	defer server.Close()

	p := newProvider(testConfig(server.URL), providers.ProviderOptions{})
	if _, err := p.Complete(context.Background(), core.NewRequestBuilder().AddUserMessage("Hi").Build()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := gotBody["system"]; ok {
		t.Errorf("system should be omitted, body = %v", gotBody)
	}
}

func TestComplete_Errors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantType   core.ErrorType
		wantStatus int
	}{
		{"unauthorized", http.StatusUnauthorized, `{"type":"error","error":{"type":"authentication_error"}}`, core.ErrorTypeProvider, http.StatusUnauthorized},
		{"overloaded", 529, `{"type":"error","error":{"type":"overloaded_error"}}`, core.ErrorTypeProvider, 529},
		{"malformed success", http.StatusOK, `<html>`, core.ErrorTypeParse, core.StatusCodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := newProvider(testConfig(server.URL), providers.ProviderOptions{})
			_, err := p.Complete(context.Background(), core.NewRequestBuilder().AddUserMessage("Hi").Build())

			var gwErr *core.GatewayError
			if !errors.As(err, &gwErr) {
				t.Fatalf("expected *core.GatewayError, got %v", err)
			}
			if gwErr.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", gwErr.Type, tt.wantType)
			}
			if gwErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", gwErr.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestTestConnection(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		want       bool
	}{
		{"content returned", http.StatusOK, successBody, true},
		{"server error", http.StatusInternalServerError, `{}`, false},
		{"missing required field", http.StatusOK, `{"id":"m"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var probe anthropicRequest
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				raw, _ := io.ReadAll(r.Body)
				_ = json.Unmarshal(raw, &probe)
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := newProvider(testConfig(server.URL), providers.ProviderOptions{})
			if got := p.TestConnection(context.Background()); got != tt.want {
				t.Errorf("TestConnection() = %v, want %v", got, tt.want)
			}
			if probe.MaxTokens != 5 || probe.Model != "claude-3-5-sonnet-20241022" {
				t.Errorf("unexpected probe %+v", probe)
			}
		})
	}
}
