package connector

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FindOptions carries the cursor modifiers a query operation accepts.
type FindOptions struct {
	Skip  int64
	Limit int64
	Sort  bson.D
}

// WriteSummary reports the effect of a single update write.
type WriteSummary struct {
	Matched  int64
	Modified int64
	Upserted interface{}
}

// Collection is the surface the operation dispatcher drives. The mongo-backed
// implementation lives below; tests substitute their own.
type Collection interface {
	Find(ctx context.Context, filter bson.M, opts FindOptions) ([]bson.M, error)
	Aggregate(ctx context.Context, pipeline []bson.M) ([]bson.M, error)
	InsertMany(ctx context.Context, docs []bson.M) ([]interface{}, error)
	UpdateOne(ctx context.Context, filter bson.M, update bson.M, upsert bool) (WriteSummary, error)
	FindOneAndUpdate(ctx context.Context, filter bson.M, update bson.M, upsert bool) (bson.M, error)
	FindOneAndReplace(ctx context.Context, filter bson.M, replacement bson.M, upsert bool) (bson.M, error)
	DeleteMany(ctx context.Context, filter bson.M) (int64, error)
}

type mongoCollection struct {
	coll *mongo.Collection
}

// NewCollection wraps a driver collection handle in the Collection surface.
func NewCollection(coll *mongo.Collection) Collection {
	return &mongoCollection{coll: coll}
}

func (m *mongoCollection) Find(ctx context.Context, filter bson.M, opts FindOptions) ([]bson.M, error) {
	findOpts := options.Find()
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if len(opts.Sort) > 0 {
		findOpts.SetSort(opts.Sort)
	}

	cursor, err := m.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to execute find: %v", err)
	}
	defer cursor.Close(ctx)

	return drainCursor(ctx, cursor)
}

func (m *mongoCollection) Aggregate(ctx context.Context, pipeline []bson.M) ([]bson.M, error) {
	cursor, err := m.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to execute aggregation: %v", err)
	}
	defer cursor.Close(ctx)

	return drainCursor(ctx, cursor)
}

func (m *mongoCollection) InsertMany(ctx context.Context, docs []bson.M) ([]interface{}, error) {
	payload := make([]interface{}, len(docs))
	for i, doc := range docs {
		payload[i] = doc
	}

	result, err := m.coll.InsertMany(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to insert documents: %v", err)
	}
	return result.InsertedIDs, nil
}

func (m *mongoCollection) UpdateOne(ctx context.Context, filter bson.M, update bson.M, upsert bool) (WriteSummary, error) {
	opts := options.Update().SetUpsert(upsert)
	result, err := m.coll.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return WriteSummary{}, fmt.Errorf("failed to update document: %v", err)
	}
	return WriteSummary{
		Matched:  result.MatchedCount,
		Modified: result.ModifiedCount,
		Upserted: result.UpsertedID,
	}, nil
}

func (m *mongoCollection) FindOneAndUpdate(ctx context.Context, filter bson.M, update bson.M, upsert bool) (bson.M, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(upsert).
		SetReturnDocument(options.After)

	var doc bson.M
	err := m.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return bson.M{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update document: %v", err)
	}
	return doc, nil
}

func (m *mongoCollection) FindOneAndReplace(ctx context.Context, filter bson.M, replacement bson.M, upsert bool) (bson.M, error) {
	opts := options.FindOneAndReplace().
		SetUpsert(upsert).
		SetReturnDocument(options.After)

	var doc bson.M
	err := m.coll.FindOneAndReplace(ctx, filter, replacement, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return bson.M{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to replace document: %v", err)
	}
	return doc, nil
}

func (m *mongoCollection) DeleteMany(ctx context.Context, filter bson.M) (int64, error) {
	result, err := m.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete documents: %v", err)
	}
	return result.DeletedCount, nil
}

func drainCursor(ctx context.Context, cursor *mongo.Cursor) ([]bson.M, error) {
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to read cursor: %v", err)
	}
	return docs, nil
}
