// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve answers a free-text query with the closest knowledge base
// entries and assembles them into a bounded context string.
package retrieve

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/pdiddy/medkb/internal/embed"
	"github.com/pdiddy/medkb/internal/store"
	"github.com/pdiddy/medkb/pkg/types"
)

const (
	// DefaultLimit is the number of entries retrieved per query.
	DefaultLimit = 3

	// MaxContextChars bounds the assembled context.
	MaxContextChars = 4000

	// MaxQueryChars bounds the query text sent for embedding.
	MaxQueryChars = 1000
)

// Result holds the matches for a query and the context built from them.
type Result struct {
	Query   string               `json:"query" yaml:"query"`
	Matches []types.SearchResult `json:"matches" yaml:"matches"`
	Context string               `json:"context" yaml:"context"`
}

// Run embeds query, searches idx for the closest limit entries, and joins
// their texts into a context of at most MaxContextChars characters. A
// non-positive limit uses DefaultLimit.
func Run(ctx context.Context, e embed.Embedder, s store.Searcher, idx types.VectorIndex, query string, limit int) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query is empty")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	query = Truncate(query, MaxQueryChars)

	vec, err := e.Embed(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "embedding query")
	}

	matches, err := s.Search(ctx, idx, vec, limit)
	if err != nil {
		return nil, errors.Wrap(err, "searching")
	}

	texts := lo.Map(matches, func(m types.SearchResult, _ int) string { return m.Text })
	return &Result{
		Query:   query,
		Matches: matches,
		Context: Truncate(strings.Join(texts, "\n"), MaxContextChars),
	}, nil
}

// Truncate shortens text to at most max characters. When it has to cut, it
// cuts back to just after the last period if there is one.
func Truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	cut := string(runes[:max])
	if i := strings.LastIndex(cut, "."); i > 0 {
		return cut[:i+1]
	}
	return cut
}
