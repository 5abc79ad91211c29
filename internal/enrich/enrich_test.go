// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/medkb/pkg/types"
)

func TestDocument(t *testing.T) {
	cat := types.Category{Category: "cardiac", Subcategory: "arrest"}
	entry := types.Entry{"text": "check pulse", "priority": int64(1)}
	vec := []float64{0.1, 0.2, 0.3}
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, time.FixedZone("CEST", 2*60*60))

	doc := Document(entry, cat, vec, now)

	assert.Equal(t, "cardiac", doc.Category)
	assert.Equal(t, "arrest", doc.Subcategory)
	assert.Equal(t, vec, doc.Embedding)
	assert.Equal(t, "check pulse", doc.Text())
	assert.Equal(t, int64(1), doc.Fields["priority"])
	assert.True(t, doc.CreatedAt.Equal(now))
	assert.Equal(t, time.UTC, doc.CreatedAt.Location())
	assert.Equal(t, doc.CreatedAt, doc.UpdatedAt)
}

func TestDocumentDoesNotMutateEntry(t *testing.T) {
	entry := types.Entry{"text": "start CPR"}
	cat := types.Category{Category: "cardiac", Subcategory: "arrest"}

	doc := Document(entry, cat, []float64{1}, time.Now())
	doc.Fields["extra"] = true

	assert.Equal(t, types.Entry{"text": "start CPR"}, entry)
}

func TestDocumentLabelsWinOverEntryFields(t *testing.T) {
	entry := types.Entry{"text": "apply pressure", "category": "stale"}
	cat := types.Category{Category: "trauma", Subcategory: "bleeding"}

	doc := Document(entry, cat, []float64{1}, time.Now())

	assert.Equal(t, "trauma", doc.Category)
	assert.True(t, types.IsReservedField("category"))
	assert.False(t, types.IsReservedField("text"))
}
