// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store defines where enriched documents are written and how they are
// searched afterwards.
package store

import (
	"context"
	"math"

	"github.com/pdiddy/medkb/pkg/types"
)

// Store persists documents and manages the vector search index.
type Store interface {
	// InsertMany writes docs in one batch and returns the generated ids in
	// input order.
	InsertMany(ctx context.Context, docs []types.Document) ([]string, error)

	// IndexExists reports whether an index called name exists.
	IndexExists(ctx context.Context, name string) (bool, error)

	// CreateVectorIndex creates idx.
	CreateVectorIndex(ctx context.Context, idx types.VectorIndex) error

	// Close releases the connection.
	Close(ctx context.Context) error
}

// Searcher runs nearest-neighbour queries against a vector index.
type Searcher interface {
	Search(ctx context.Context, idx types.VectorIndex, vector []float64, limit int) ([]types.SearchResult, error)
}

// Cosine returns the cosine similarity of a and b, or 0 when the lengths
// differ or either vector has zero magnitude.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
