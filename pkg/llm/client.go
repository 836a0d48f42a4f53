// Package llm abstracts the language model calls made by the
// generator, reflector and curator collaborators.
package llm

import (
	"context"
)

// Client generates completions. Implementations must be safe for
// concurrent use; the offline adaptation loop calls them from multiple
// goroutines.
type Client interface {
	// Generate returns the model's text completion for prompt.
	Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error)
	// GenerateJSON instructs the model to answer with a bare JSON
	// object and unmarshals it into out.
	GenerateJSON(ctx context.Context, prompt string, out interface{}, opts ...GenerateOption) error
}

// GenerateOptions carries per-call tuning. Zero values defer to the
// client's defaults.
type GenerateOptions struct {
	Model        string
	MaxTokens    int
	Temperature  float64
	SystemPrompt string
}

// GenerateOption mutates a GenerateOptions.
type GenerateOption func(*GenerateOptions)

// WithModel overrides the model for one call.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) { o.Model = model }
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) GenerateOption {
	return func(o *GenerateOptions) { o.MaxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) GenerateOption {
	return func(o *GenerateOptions) { o.Temperature = t }
}

// WithSystemPrompt sets the system prompt for one call.
func WithSystemPrompt(prompt string) GenerateOption {
	return func(o *GenerateOptions) { o.SystemPrompt = prompt }
}

// ApplyOptions folds opts over defaults.
func ApplyOptions(defaults GenerateOptions, opts ...GenerateOption) GenerateOptions {
	for _, opt := range opts {
		opt(&defaults)
	}
	return defaults
}
