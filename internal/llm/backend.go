// Package llm provides chat-completion backends for answer generation.
package llm

import "context"

// Message is a single model reply with the content and the model that
// produced it.
type Message struct {
	Content string
	Model   string
}

// Backend sends a prompt to a language model and returns its reply. The
// return type is deliberately loose: backends may return a string, a
// *Message, or a provider-specific value, and callers are expected to
// extract text from whatever comes back.
type Backend interface {
	Invoke(ctx context.Context, prompt string) (any, error)
}
