// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich combines an entry, its category labels, and its embedding
// into the document that is persisted.
package enrich

import (
	"time"

	"github.com/samber/lo"

	"github.com/pdiddy/medkb/pkg/types"
)

// Document returns the persisted form of entry. The entry map is copied, not
// mutated. Both timestamps are set to now in UTC.
func Document(entry types.Entry, cat types.Category, embedding []float64, now time.Time) types.Document {
	now = now.UTC()
	return types.Document{
		Fields:      lo.Assign(map[string]any(entry)),
		Category:    cat.Category,
		Subcategory: cat.Subcategory,
		Embedding:   embedding,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
