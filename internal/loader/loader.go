// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package loader runs a load: embed every knowledge base entry, insert the
// enriched documents in one batch, and make sure the vector index exists.
//
// Entries are embedded one at a time in file order. The first failure ends the
// run; nothing is retried and documents already inserted are not removed.
package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/pdiddy/medkb/internal/embed"
	"github.com/pdiddy/medkb/internal/enrich"
	"github.com/pdiddy/medkb/internal/kb"
	"github.com/pdiddy/medkb/internal/store"
	"github.com/pdiddy/medkb/pkg/types"
)

// Loader owns one store connection for the duration of a run.
type Loader struct {
	embedder embed.Embedder
	store    store.Store
	index    types.VectorIndex
	log      *slog.Logger
	now      func() time.Time
}

// New returns a Loader that writes to st. Run closes st.
func New(e embed.Embedder, st store.Store, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{
		embedder: e,
		store:    st,
		index:    types.DefaultVectorIndex(),
		log:      log,
		now:      time.Now,
	}
}

// Summary holds counts from a load run.
type Summary struct {
	Categories   int
	Entries      int
	Inserted     int
	IndexCreated bool
}

// Run loads base into the store and writes progress lines to w. The store is
// closed exactly once before Run returns, whatever the outcome.
func (l *Loader) Run(ctx context.Context, base *types.KnowledgeBase, w io.Writer) (summary Summary, err error) {
	defer func() {
		if cerr := l.store.Close(context.WithoutCancel(ctx)); cerr != nil {
			l.log.Error("closing store", "error", cerr)
			if err == nil {
				err = cerr
			}
		}
	}()

	summary.Categories = len(base.Protocols)
	summary.Entries = kb.Count(base)

	docs, err := l.prepare(ctx, base, w)
	if err != nil {
		return summary, err
	}

	if len(docs) > 0 {
		ids, err := l.store.InsertMany(ctx, docs)
		if err != nil {
			l.log.Error("inserting documents", "documents", len(docs), "error", err)
			return summary, err
		}
		summary.Inserted = len(ids)
		fmt.Fprintf(w, "inserted %d documents\n", len(ids))
	}

	created, err := l.ensureIndex(ctx)
	if err != nil {
		return summary, err
	}
	summary.IndexCreated = created
	if created {
		fmt.Fprintf(w, "created vector search index %s\n", l.index.Name)
	}
	return summary, nil
}

// prepare embeds and enriches every entry in category, then entry, order.
func (l *Loader) prepare(ctx context.Context, base *types.KnowledgeBase, w io.Writer) ([]types.Document, error) {
	total := kb.Count(base)
	docs := make([]types.Document, 0, total)

	for ci, cat := range base.Protocols {
		for ei, entry := range cat.Entries {
			if err := ctx.Err(); err != nil {
				l.log.Error("load cancelled",
					"category", cat.Category,
					"subcategory", cat.Subcategory,
					"protocol", ci,
					"entry", ei,
					"error", err,
				)
				return nil, err
			}

			vec, err := l.embedder.Embed(ctx, entry.Text())
			if err != nil {
				l.log.Error("embedding entry",
					"category", cat.Category,
					"subcategory", cat.Subcategory,
					"protocol", ci,
					"entry", ei,
					"code", embed.ErrorCode(err),
					"error", err,
				)
				return nil, errors.Wrapf(err, "embedding %s entry %d", cat.Label(), ei)
			}
			if len(vec) != l.index.Dimensions {
				err := types.KindError(types.ErrEmbedding,
					errors.Errorf("%s entry %d: got %d dimensions, want %d", cat.Label(), ei, len(vec), l.index.Dimensions))
				l.log.Error("embedding entry", "category", cat.Category, "subcategory", cat.Subcategory, "entry", ei, "error", err)
				return nil, err
			}

			docs = append(docs, enrich.Document(entry, cat, vec, l.now()))
			l.log.Debug("embedded entry", "category", cat.Category, "subcategory", cat.Subcategory, "entry", ei)
		}
		fmt.Fprintf(w, "embedded %s (%d entries, %d/%d)\n", cat.Label(), len(cat.Entries), len(docs), total)
	}

	return docs, nil
}

// ensureIndex creates the vector index unless one with the same name exists.
func (l *Loader) ensureIndex(ctx context.Context) (bool, error) {
	exists, err := l.store.IndexExists(ctx, l.index.Name)
	if err != nil {
		l.log.Error("listing indexes", "index", l.index.Name, "error", err)
		return false, err
	}
	if exists {
		l.log.Info("vector index already exists", "index", l.index.Name)
		return false, nil
	}

	if err := l.store.CreateVectorIndex(ctx, l.index); err != nil {
		l.log.Error("creating vector index", "index", l.index.Name, "error", err)
		return false, err
	}
	l.log.Info("created vector search index", "index", l.index.Name,
		"dimensions", l.index.Dimensions, "similarity", l.index.Similarity)
	return true, nil
}
