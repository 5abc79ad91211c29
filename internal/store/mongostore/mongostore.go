// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mongostore writes documents to a MongoDB Atlas collection and
// manages its Atlas Vector Search index.
package mongostore

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/pdiddy/medkb/pkg/types"
)

// Store is a store.Store and store.Searcher backed by one MongoDB collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Open connects to cfg.URI, verifies the connection, and selects the
// configured database and collection. The caller must Close the store.
func Open(ctx context.Context, cfg types.MongoConfig) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, dbError(errors.Wrap(err, "connecting to mongodb"))
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, dbError(errors.Wrap(err, "pinging mongodb"))
	}
	return New(client, client.Database(cfg.Database).Collection(cfg.Collection)), nil
}

// New wraps an existing collection. client may be nil when the caller owns
// the connection; Close is then a no-op.
func New(client *mongo.Client, coll *mongo.Collection) *Store {
	return &Store{client: client, coll: coll}
}

// Namespace returns "database.collection".
func (s *Store) Namespace() string {
	return s.coll.Database().Name() + "." + s.coll.Name()
}

// InsertMany inserts docs with a single ordered insertMany and returns the
// generated _id values as hex strings.
func (s *Store) InsertMany(ctx context.Context, docs []types.Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	batch := make([]interface{}, len(docs))
	for i, doc := range docs {
		batch[i] = toBSON(doc)
	}

	res, err := s.coll.InsertMany(ctx, batch, options.InsertMany().SetOrdered(true))
	if err != nil {
		return nil, dbError(errors.Wrapf(err, "inserting %d documents into %s", len(docs), s.Namespace()))
	}
	return lo.Map(res.InsertedIDs, func(id interface{}, _ int) string { return idString(id) }), nil
}

// IndexExists reports whether a regular index or an Atlas Search index
// called name exists on the collection.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cur, err := s.coll.Indexes().List(ctx)
	if err != nil {
		return false, dbError(errors.Wrapf(err, "listing indexes on %s", s.Namespace()))
	}
	var specs []indexName
	if err := cur.All(ctx, &specs); err != nil {
		return false, dbError(errors.Wrap(err, "reading index list"))
	}
	if lo.ContainsBy(specs, func(n indexName) bool { return n.Name == name }) {
		return true, nil
	}

	cur, err = s.coll.SearchIndexes().List(ctx, options.SearchIndexes().SetName(name))
	if err != nil {
		return false, dbError(errors.Wrapf(err, "listing search indexes on %s", s.Namespace()))
	}
	var search []indexName
	if err := cur.All(ctx, &search); err != nil {
		return false, dbError(errors.Wrap(err, "reading search index list"))
	}
	return lo.ContainsBy(search, func(n indexName) bool { return n.Name == name }), nil
}

type indexName struct {
	Name string `bson:"name"`
}

// CreateVectorIndex creates an Atlas Vector Search index with
// createSearchIndexes. Index builds are asynchronous on the server; the call
// returns once the build is accepted.
func (s *Store) CreateVectorIndex(ctx context.Context, idx types.VectorIndex) error {
	cmd := createSearchIndexesCommand(s.coll.Name(), idx)
	if err := s.coll.Database().RunCommand(ctx, cmd).Err(); err != nil {
		return dbError(errors.Wrapf(err, "creating vector index %s on %s", idx.Name, s.Namespace()))
	}
	return nil
}

// Search runs a $vectorSearch aggregation against idx and returns up to
// limit matches ordered by score.
func (s *Store) Search(ctx context.Context, idx types.VectorIndex, vector []float64, limit int) ([]types.SearchResult, error) {
	if limit <= 0 {
		return nil, dbError(errors.Errorf("search limit must be positive, got %d", limit))
	}

	cur, err := s.coll.Aggregate(ctx, vectorSearchPipeline(idx, vector, limit))
	if err != nil {
		return nil, dbError(errors.Wrapf(err, "searching %s", idx.Name))
	}
	var hits []searchHit
	if err := cur.All(ctx, &hits); err != nil {
		return nil, dbError(errors.Wrap(err, "reading search results"))
	}
	return lo.Map(hits, func(h searchHit, _ int) types.SearchResult {
		return types.SearchResult{
			Text:        h.Text,
			Category:    h.Category,
			Subcategory: h.Subcategory,
			Score:       h.Score,
		}
	}), nil
}

type searchHit struct {
	Text        string  `bson:"text"`
	Category    string  `bson:"category"`
	Subcategory string  `bson:"subcategory"`
	Score       float64 `bson:"score"`
}

// Close disconnects the client if the store owns one.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Disconnect(ctx); err != nil {
		return dbError(errors.Wrap(err, "disconnecting from mongodb"))
	}
	return nil
}

// toBSON lays out a document as the entry fields in key order followed by
// the labelled fields. Entry fields named like a labelled field are dropped.
func toBSON(doc types.Document) bson.D {
	keys := lo.Filter(lo.Keys(doc.Fields), func(k string, _ int) bool { return !types.IsReservedField(k) })
	sort.Strings(keys)

	d := make(bson.D, 0, len(keys)+5)
	for _, k := range keys {
		d = append(d, bson.E{Key: k, Value: doc.Fields[k]})
	}
	return append(d,
		bson.E{Key: types.FieldCategory, Value: doc.Category},
		bson.E{Key: types.FieldSubcategory, Value: doc.Subcategory},
		bson.E{Key: types.FieldEmbedding, Value: doc.Embedding},
		bson.E{Key: types.FieldCreatedAt, Value: doc.CreatedAt},
		bson.E{Key: types.FieldUpdatedAt, Value: doc.UpdatedAt},
	)
}

func createSearchIndexesCommand(collection string, idx types.VectorIndex) bson.D {
	return bson.D{
		{Key: "createSearchIndexes", Value: collection},
		{Key: "indexes", Value: bson.A{
			bson.D{
				{Key: "name", Value: idx.Name},
				{Key: "type", Value: "vectorSearch"},
				{Key: "definition", Value: bson.D{
					{Key: "fields", Value: bson.A{
						bson.D{
							{Key: "type", Value: "vector"},
							{Key: "path", Value: idx.Path},
							{Key: "numDimensions", Value: idx.Dimensions},
							{Key: "similarity", Value: idx.Similarity},
						},
					}},
				}},
			},
		}},
	}
}

// numCandidatesFactor is how many candidates $vectorSearch considers per
// requested result.
const numCandidatesFactor = 10

func vectorSearchPipeline(idx types.VectorIndex, vector []float64, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: idx.Name},
			{Key: "path", Value: idx.Path},
			{Key: "queryVector", Value: vector},
			{Key: "numCandidates", Value: limit * numCandidatesFactor},
			{Key: "limit", Value: limit},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: types.FieldText, Value: 1},
			{Key: types.FieldCategory, Value: 1},
			{Key: types.FieldSubcategory, Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}
}

func idString(id interface{}) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(id)
}

func dbError(err error) error {
	return types.KindError(types.ErrDatabase, err)
}
