package domain

import "context"

// Message is one role-tagged entry of a chat-style completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateOptions carries per-call completion parameters.
type GenerateOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// LLMResponse carries the completion output and whether it finished.
type LLMResponse struct {
	Text string
	Done bool
}

// ChatClient defines the capability to send role-tagged messages to a
// completion service and receive the generated text.
type ChatClient interface {
	Chat(ctx context.Context, messages []Message, opts GenerateOptions) (*LLMResponse, error)
	Version() string
}
