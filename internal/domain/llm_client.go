package domain

import "context"

// LLMClient defines the capability to send a prompt to a generative model and receive text.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (*LLMResponse, error)
	Version() string
}

// LLMResponse carries the model output and whether the generation finished normally.
type LLMResponse struct {
	Text string
	Done bool
}
