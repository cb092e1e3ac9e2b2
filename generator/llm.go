package generator

import "context"

// LLMClient abstracts the text model so it can be swapped or mocked.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// ImageClient abstracts the image model.
type ImageClient interface {
	Generate(ctx context.Context, prompt string) (Image, error)
}

// LLMSettings is the base configuration handed to concrete clients.
type LLMSettings struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
}

// ImageSettings configures an ImageClient.
type ImageSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Size     string
}

// temperature prefers the prompt's own setting over the client default.
func temperature(p Prompt, fallback float64) float64 {
	if p.Temperature > 0 {
		return p.Temperature
	}
	return fallback
}
