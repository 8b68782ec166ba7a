package llmclient

import (
	"context"
	"time"
)

// RequestInfo describes an outgoing vendor call.
type RequestInfo struct {
	Provider string
	Model    string
	Endpoint string
	Method   string
}

// ResponseInfo describes a finished vendor call. StatusCode is -1 when no
// HTTP response was received.
type ResponseInfo struct {
	RequestInfo
	StatusCode int
	Duration   time.Duration
	Error      error
}

// Hooks observe vendor round-trips. Either callback may be nil.
type Hooks struct {
	// OnRequestStart runs before the request is sent; the returned context
	// is used for the rest of the call.
	OnRequestStart func(ctx context.Context, info RequestInfo) context.Context
	// OnRequestEnd runs once per call, after success or failure.
	OnRequestEnd func(ctx context.Context, info ResponseInfo)
}

func (h Hooks) start(ctx context.Context, info RequestInfo) context.Context {
	if h.OnRequestStart == nil {
		return ctx
	}
	if next := h.OnRequestStart(ctx, info); next != nil {
		return next
	}
	return ctx
}

func (h Hooks) end(ctx context.Context, info ResponseInfo) {
	if h.OnRequestEnd != nil {
		h.OnRequestEnd(ctx, info)
	}
}
