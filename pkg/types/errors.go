// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "github.com/pkg/errors"

// Error kinds. Every failure a run can end with matches exactly one of these
// through errors.Is.
var (
	ErrConfig        = errors.New("configuration error")
	ErrKnowledgeBase = errors.New("knowledge base error")
	ErrEmbedding     = errors.New("embedding service error")
	ErrDatabase      = errors.New("database error")
)

type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string {
	return e.kind.Error() + ": " + e.err.Error()
}

func (e *kindError) Unwrap() []error {
	return []error{e.kind, e.err}
}

// KindError tags err with kind. The result matches both kind and err's chain.
// A nil err returns nil; an err that already matches kind is returned as is.
func KindError(kind, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kind) {
		return err
	}
	return &kindError{kind: kind, err: err}
}
