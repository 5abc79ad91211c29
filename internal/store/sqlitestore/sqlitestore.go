// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sqlitestore keeps loaded documents in a local SQLite file. It
// follows the same contract as the Atlas store so a run can be inspected
// without a cluster; vector search is a brute-force cosine scan.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/pdiddy/medkb/internal/store"
	"github.com/pdiddy/medkb/pkg/types"
)

// Store is a store.Store and store.Searcher backed by a SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and its schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, dbError(errors.Wrap(err, "creating database directory"))
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, dbError(errors.Wrap(err, "opening database"))
	}

	s := &Store{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, dbError(errors.Wrap(err, "creating schema"))
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database connection.
func (s *Store) Close(context.Context) error {
	return dbError(s.db.Close())
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			text TEXT NOT NULL,
			category TEXT NOT NULL,
			subcategory TEXT NOT NULL,
			fields TEXT NOT NULL,
			embedding TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_category ON documents(category, subcategory)`,
		`CREATE TABLE IF NOT EXISTS vector_indexes (
			name TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			dimensions INTEGER NOT NULL,
			similarity TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "executing schema statement")
		}
	}
	return nil
}

// InsertMany writes docs in a single transaction: either all rows are
// inserted or none are.
func (s *Store) InsertMany(ctx context.Context, docs []types.Document) ([]string, error) {
	ids, err := s.insertMany(ctx, docs)
	return ids, dbError(err)
}

func (s *Store) insertMany(ctx context.Context, docs []types.Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (text, category, subcategory, fields, embedding, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, errors.Wrap(err, "preparing insert")
	}
	defer stmt.Close()

	ids := make([]string, 0, len(docs))
	for i, doc := range docs {
		fields := lo.OmitBy(doc.Fields, func(k string, _ any) bool { return types.IsReservedField(k) })
		fieldsJSON, err := json.Marshal(fields)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding fields of document %d", i)
		}
		embeddingJSON, err := json.Marshal(doc.Embedding)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding embedding of document %d", i)
		}

		res, err := stmt.ExecContext(ctx,
			doc.Text(), doc.Category, doc.Subcategory,
			string(fieldsJSON), string(embeddingJSON),
			doc.CreatedAt.UTC().Format(time.RFC3339Nano),
			doc.UpdatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return nil, errors.Wrapf(err, "inserting document %d", i)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, errors.Wrapf(err, "reading id of document %d", i)
		}
		ids = append(ids, strconv.FormatInt(id, 10))
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing insert")
	}
	return ids, nil
}

// IndexExists reports whether a vector index or a SQLite index called name
// exists.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT (SELECT count(*) FROM vector_indexes WHERE name = ?)
		      + (SELECT count(*) FROM sqlite_master WHERE type = 'index' AND name = ?)`,
		name, name,
	).Scan(&count)
	if err != nil {
		return false, dbError(errors.Wrapf(err, "checking index %s", name))
	}
	return count > 0, nil
}

// CreateVectorIndex records idx. Creating an index that already exists is an
// error.
func (s *Store) CreateVectorIndex(ctx context.Context, idx types.VectorIndex) error {
	if idx.Dimensions <= 0 {
		return dbError(errors.Errorf("vector index %s: dimensions must be positive", idx.Name))
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO vector_indexes (name, path, dimensions, similarity) VALUES (?, ?, ?, ?)`,
		idx.Name, idx.Path, idx.Dimensions, idx.Similarity,
	)
	if err != nil {
		return dbError(errors.Wrapf(err, "creating vector index %s", idx.Name))
	}
	return nil
}

// Search scores every document against vector by cosine similarity and
// returns the best limit matches. idx must have been created first.
func (s *Store) Search(ctx context.Context, idx types.VectorIndex, vector []float64, limit int) ([]types.SearchResult, error) {
	results, err := s.search(ctx, idx, vector, limit)
	return results, dbError(err)
}

func (s *Store) search(ctx context.Context, idx types.VectorIndex, vector []float64, limit int) ([]types.SearchResult, error) {
	if limit <= 0 {
		return nil, errors.Errorf("search limit must be positive, got %d", limit)
	}

	var dims int
	err := s.db.QueryRowContext(ctx,
		`SELECT dimensions FROM vector_indexes WHERE name = ?`, idx.Name,
	).Scan(&dims)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Errorf("vector index %s does not exist", idx.Name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading vector index %s", idx.Name)
	}
	if len(vector) != dims {
		return nil, errors.Errorf("query vector has %d dimensions, index %s has %d", len(vector), idx.Name, dims)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT text, category, subcategory, embedding FROM documents`)
	if err != nil {
		return nil, errors.Wrap(err, "querying documents")
	}
	defer rows.Close()

	var results []types.SearchResult
	for rows.Next() {
		var r types.SearchResult
		var embeddingJSON string
		if err := rows.Scan(&r.Text, &r.Category, &r.Subcategory, &embeddingJSON); err != nil {
			return nil, errors.Wrap(err, "scanning document")
		}
		var embedding []float64
		if err := json.Unmarshal([]byte(embeddingJSON), &embedding); err != nil {
			return nil, errors.Wrap(err, "decoding embedding")
		}
		r.Score = store.Cosine(vector, embedding)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating documents")
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM documents`).Scan(&n); err != nil {
		return 0, dbError(errors.Wrap(err, "counting documents"))
	}
	return n, nil
}

func dbError(err error) error {
	return types.KindError(types.ErrDatabase, err)
}
