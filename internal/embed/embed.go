// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed turns entry text into embedding vectors.
package embed

import "context"

// Embedder returns the embedding vector for a single text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// EmbedderFunc adapts a function to the Embedder interface.
type EmbedderFunc func(ctx context.Context, text string) ([]float64, error)

// Embed calls f.
func (f EmbedderFunc) Embed(ctx context.Context, text string) ([]float64, error) {
	return f(ctx, text)
}
