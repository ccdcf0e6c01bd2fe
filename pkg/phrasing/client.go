// Package phrasing is the second stage of the decide-then-phrase split: the
// decision is already final when this package runs, and the only job left is
// wording the chat response. An LLM may be consulted under a hard timeout; a
// deterministic template generator produces acceptable output with zero LLM
// calls, so phrasing never fails and never influences the decision.
package phrasing

import "context"

// Message is one chat turn passed to the completion client.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options are completion sampling options.
type Options struct {
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// Client is the text-completion collaborator. Implementations must honor
// ctx cancellation; the phraser wraps every call in a short timeout.
type Client interface {
	Complete(ctx context.Context, systemPrompt string, history []Message, opts *Options) (string, error)
}
