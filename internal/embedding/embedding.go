// Package embedding turns definition source text into fixed-dimension
// vectors through a pluggable provider and caches them by content hash.
package embedding

import (
	"context"
	"fmt"
	"strings"
)

// Embedder converts text to vectors. Implementations must return exactly
// one vector per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension returns the vector size, or 0 when it is only known after
	// the first response.
	Dimension() int
	// Name identifies the provider and model for cache keys.
	Name() string
}

// Provider names
const (
	ProviderLocal  = "local"
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// Options selects and configures a provider.
type Options struct {
	Provider  string
	Model     string
	Dimension int
	BaseURL   string
	APIKey    string
}

// NewEmbedder builds the provider named in opts. The "none" provider
// returns a nil Embedder, which disables similarity analysis.
func NewEmbedder(ctx context.Context, opts Options) (Embedder, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = ProviderLocal
	}

	switch provider {
	case ProviderLocal:
		return NewLocalEmbedder(opts.Dimension), nil
	case ProviderOllama:
		return NewOllamaEmbedder(opts.Model, opts.Dimension, opts.BaseURL), nil
	case ProviderGemini:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		model := opts.Model
		if model == "" {
			model = DefaultGeminiModel
		}
		return NewGeminiEmbedder(ctx, opts.APIKey, model, opts.Dimension)
	case ProviderNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported embedder provider: %s", opts.Provider)
	}
}
