// Package core defines the canonical model, the provider contract and the
// error taxonomy shared by every adapter.
package core

import "context"

// ProviderClient is the seam every vendor adapter satisfies.
type ProviderClient interface {
	// Complete sends a completion request and translates the vendor reply.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// TestConnection issues a minimal real completion and reports whether
	// content came back. It never returns an error.
	TestConnection(ctx context.Context) bool

	// Configuration returns the configuration the adapter is bound to.
	Configuration() *Configuration
}
