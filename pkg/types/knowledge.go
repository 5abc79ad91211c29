// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Field names shared by entries, documents, and the vector index.
const (
	FieldText        = "text"
	FieldCategory    = "category"
	FieldSubcategory = "subcategory"
	FieldEmbedding   = "embedding"
	FieldCreatedAt   = "created_at"
	FieldUpdatedAt   = "updated_at"
)

// EmbeddingDimensions is the vector length produced by Titan text embeddings v1
// and configured on the vector search index.
const EmbeddingDimensions = 1536

// KnowledgeBase is the on-disk medical knowledge base.
type KnowledgeBase struct {
	// Protocols holds the categories in file order.
	Protocols []Category `json:"protocols" yaml:"protocols"`
}

// Category is a labelled group of entries, e.g. cardiac/arrest.
type Category struct {
	Category    string  `json:"category" yaml:"category"`
	Subcategory string  `json:"subcategory" yaml:"subcategory"`
	Entries     []Entry `json:"entries" yaml:"entries"`
}

// Label returns "category/subcategory" for log and progress output.
func (c Category) Label() string {
	return c.Category + "/" + c.Subcategory
}

// Entry is one unit of medical guidance. Fields are free-form; every entry
// carries at least a string "text" field.
type Entry map[string]any

// Text returns the entry's text field, or "" when absent or not a string.
func (e Entry) Text() string {
	s, _ := e[FieldText].(string)
	return s
}

// Document is the persisted form of an Entry: its original fields plus the
// parent category labels, the embedding, and timestamps.
type Document struct {
	// Fields are the entry's original fields. Keys that collide with the
	// labelled fields below are ignored when the document is written.
	Fields map[string]any `json:"fields" yaml:"fields"`

	Category    string    `json:"category" yaml:"category"`
	Subcategory string    `json:"subcategory" yaml:"subcategory"`
	Embedding   []float64 `json:"embedding" yaml:"embedding"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// Text returns the document's text field.
func (d Document) Text() string {
	return Entry(d.Fields).Text()
}

// IsReservedField reports whether key is written from a Document's labelled
// fields rather than from Fields.
func IsReservedField(key string) bool {
	switch key {
	case FieldCategory, FieldSubcategory, FieldEmbedding, FieldCreatedAt, FieldUpdatedAt:
		return true
	}
	return false
}

// VectorIndex describes a vector search index over the embedding field.
type VectorIndex struct {
	Name       string `json:"name" yaml:"name"`
	Path       string `json:"path" yaml:"path"`
	Dimensions int    `json:"dimensions" yaml:"dimensions"`
	Similarity string `json:"similarity" yaml:"similarity"`
}

// DefaultVectorIndex returns the index the loader ensures on every run.
func DefaultVectorIndex() VectorIndex {
	return VectorIndex{
		Name:       "vector_index",
		Path:       FieldEmbedding,
		Dimensions: EmbeddingDimensions,
		Similarity: "cosine",
	}
}

// SearchResult is one match from a similarity search.
type SearchResult struct {
	Text        string  `json:"text" yaml:"text"`
	Category    string  `json:"category" yaml:"category"`
	Subcategory string  `json:"subcategory" yaml:"subcategory"`
	Score       float64 `json:"score" yaml:"score"`
}
