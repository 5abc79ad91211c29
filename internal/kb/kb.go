// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package kb reads the static medical knowledge base from disk.
package kb

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/medkb/pkg/types"
)

// DefaultPath is the knowledge base file read when no path is given,
// relative to the working directory.
const DefaultPath = "med_data.json"

// Load reads and validates the knowledge base at path. Files ending in .yaml
// or .yml are decoded as YAML; everything else as JSON. Any failure is fatal
// and matches types.ErrKnowledgeBase.
func Load(path string) (*types.KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.KindError(types.ErrKnowledgeBase, errors.Wrapf(err, "reading %s", path))
	}

	kb, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, types.KindError(types.ErrKnowledgeBase, errors.Wrapf(err, "parsing %s", path))
	}
	return kb, nil
}

// Format selects the knowledge base encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Parse decodes and validates a knowledge base.
func Parse(data []byte, format Format) (*types.KnowledgeBase, error) {
	var raw struct {
		Protocols *[]types.Category `json:"protocols" yaml:"protocols"`
	}

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, errors.Wrap(err, "decoding yaml")
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, errors.Wrap(err, "decoding json")
		}
		if err := dec.Decode(&struct{}{}); err != io.EOF {
			if err == nil {
				err = errors.New("unexpected data after top-level object")
			}
			return nil, errors.Wrap(err, "decoding json")
		}
	}

	if raw.Protocols == nil {
		return nil, errors.New(`missing top-level "protocols" field`)
	}

	kb := &types.KnowledgeBase{Protocols: *raw.Protocols}
	for _, cat := range kb.Protocols {
		for _, entry := range cat.Entries {
			for k, v := range entry {
				entry[k] = normalizeNumbers(v)
			}
		}
	}
	if err := Validate(kb); err != nil {
		return nil, err
	}
	return kb, nil
}

// normalizeNumbers turns json.Number values into int64 where they are
// integral and float64 otherwise, so they are stored as numbers.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
	case []any:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
	}
	return v
}

// Validate checks that every entry carries a string text field. The text is
// sent for embedding as is, so blank strings are allowed.
func Validate(kb *types.KnowledgeBase) error {
	for i, cat := range kb.Protocols {
		for j, entry := range cat.Entries {
			if entry == nil {
				return errors.Errorf("protocols[%d] (%s) entry %d is null", i, cat.Label(), j)
			}
			if _, ok := entry[types.FieldText].(string); !ok {
				return errors.Errorf("protocols[%d] (%s) entry %d has no text", i, cat.Label(), j)
			}
		}
	}
	return nil
}

// Count returns the total number of entries across all categories.
func Count(kb *types.KnowledgeBase) int {
	return lo.SumBy(kb.Protocols, func(c types.Category) int { return len(c.Entries) })
}
