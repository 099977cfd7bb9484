// Package ai holds the contract for the text generation providers used to
// write score rationales and tailored documents.
package ai

import "context"

// Generator produces text for a prompt. Implementations make exactly one
// provider call per invocation: no retries and no streaming.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Provider names a configured text generation backend.
type Provider interface {
	Generator
	Provider() string
	Model() string
}
