package llm

import "context"

// Provider generates report commentary from a single prompt. The
// screener never holds a conversation, so the surface is one-shot.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Request holds the completion parameters.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Response holds the completion and its token usage.
type Response struct {
	Content      string
	Usage        Usage
	FinishReason string
}

// Usage tracks token consumption
type Usage struct {
	InputTokens  int
	OutputTokens int
}
