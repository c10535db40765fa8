// Package llm defines the text-generation capability consumed by the tool
// layer. Providers live under contrib/provider.
package llm

import "context"

// Generator produces text for a prompt. Implementations wrap transport
// failures (quota, timeout, network) in a GenerationError so callers can
// apply a uniform retry-then-degrade policy.
type Generator interface {
	// Generate generates a response for the prompt
	Generate(ctx context.Context, prompt string) (string, error)

	// SetTemperature updates the temperature setting for generation
	SetTemperature(temp float64)

	// SetModel updates the model to use for generation
	SetModel(model string)
}
