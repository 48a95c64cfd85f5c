package connector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeCollection stubs the collection surface and counts calls, so tests can
// assert which verbs ran without a live server.
type fakeCollection struct {
	calls int

	findFn	func(filter bson.M, opts FindOptions) ([]bson.M, error)
	aggFn	func(pipeline []bson.M) ([]bson.M, error)
	insertFn	func(docs []bson.M) ([]interface{}, error)
	updateFn	func(filter, update bson.M, upsert bool) (WriteSummary, error)
	fouFn	func(filter, update bson.M, upsert bool) (bson.M, error)
	forFn	func(filter, replacement bson.M, upsert bool) (bson.M, error)
	deleteFn	func(filter bson.M) (int64, error)
}

func (f *fakeCollection) Find(_ context.Context, filter bson.M, opts FindOptions) ([]bson.M, error) {
	f.calls++
	return f.findFn(filter, opts)
}

func (f *fakeCollection) Aggregate(_ context.Context, pipeline []bson.M) ([]bson.M, error) {
	f.calls++
	return f.aggFn(pipeline)
}

func (f *fakeCollection) InsertMany(_ context.Context, docs []bson.M) ([]interface{}, error) {
	f.calls++
	return f.insertFn(docs)
}

func (f *fakeCollection) UpdateOne(_ context.Context, filter, update bson.M, upsert bool) (WriteSummary, error) {
	f.calls++
	return f.updateFn(filter, update, upsert)
}

func (f *fakeCollection) FindOneAndUpdate(_ context.Context, filter, update bson.M, upsert bool) (bson.M, error) {
	f.calls++
	return f.fouFn(filter, update, upsert)
}

func (f *fakeCollection) FindOneAndReplace(_ context.Context, filter, replacement bson.M, upsert bool) (bson.M, error) {
	f.calls++
	return f.forFn(filter, replacement, upsert)
}

func (f *fakeCollection) DeleteMany(_ context.Context, filter bson.M) (int64, error) {
	f.calls++
	return f.deleteFn(filter)
}

func mustOID(t *testing.T, hex string) primitive.ObjectID {
	t.Helper()
	oid, err := primitive.ObjectIDFromHex(hex)
	require.NoError(t, err)
	return oid
}

func TestParseOperation(t *testing.T) {
	for name := range operationNames {
		op, err := ParseOperation(name)
		require.NoError(t, err)
		assert.Equal(t, name, op.String())
	}
}

func TestParseOperationUnknown(t *testing.T) {
	_, err := ParseOperation("foo")
	assert.ErrorIs(t, err, ErrUnsupportedOperation)
}

func TestExecuteFind(t *testing.T) {
	fake := &fakeCollection{
		findFn: func(filter bson.M, opts FindOptions) ([]bson.M, error) {
			assert.Equal(t, bson.M{"status": "active"}, filter)
			return []bson.M{
				{"_id": mustOID(t, "507f1f77bcf86cd799439011"), "status": "active"},
				{"_id": mustOID(t, "507f1f77bcf86cd799439012"), "status": "active"},
			}, nil
		},
	}

	out, err := Execute(context.Background(), fake, OpFind, Params{Query: `{"status":"active"}`}, nil, false)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "507f1f77bcf86cd799439011", out[0].JSON["_id"])
	assert.Equal(t, "507f1f77bcf86cd799439012", out[1].JSON["_id"])
	assert.Equal(t, 1, fake.calls)
}

func TestExecuteFindAppliesOptions(t *testing.T) {
	fake := &fakeCollection{
		findFn: func(filter bson.M, opts FindOptions) ([]bson.M, error) {
			assert.Equal(t, int64(10), opts.Skip)
			assert.Equal(t, int64(5), opts.Limit)
			require.Len(t, opts.Sort, 1)
			assert.Equal(t, "createdAt", opts.Sort[0].Key)
			return nil, nil
		},
	}

	params := Params{Skip: 10, Limit: 5, Sort: `{"createdAt": -1}`}
	_, err := Execute(context.Background(), fake, OpFind, params, nil, false)
	require.NoError(t, err)
}

func TestExecuteFindRejectsEmptySort(t *testing.T) {
	fake := &fakeCollection{}

	_, err := Execute(context.Background(), fake, OpFind, Params{Sort: `{}`}, nil, false)
	assert.ErrorIs(t, err, ErrEmptySort)
	assert.Zero(t, fake.calls)
}

func TestExecuteAggregate(t *testing.T) {
	fake := &fakeCollection{
		aggFn: func(pipeline []bson.M) ([]bson.M, error) {
			require.Len(t, pipeline, 2)
			return []bson.M{{"total": 7}}, nil
		},
	}

	params := Params{Query: `[{"$match": {"status": "active"}}, {"$count": "total"}]`}
	out, err := Execute(context.Background(), fake, OpAggregate, params, nil, false)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 0, out[0].PairedItem)
}

func TestExecuteInsert(t *testing.T) {
	idA := mustOID(t, "65f000000000000000000001")
	idB := mustOID(t, "65f000000000000000000002")

	fake := &fakeCollection{
		insertFn: func(docs []bson.M) ([]interface{}, error) {
			require.Len(t, docs, 2)
			return []interface{}{idA, idB}, nil
		},
	}

	items := []Item{
		{JSON: map[string]interface{}{"name": "a"}, PairedItem: 0},
		{JSON: map[string]interface{}{"name": "b"}, PairedItem: 1},
	}

	out, err := Execute(context.Background(), fake, OpInsert, Params{}, items, false)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "a", out[0].JSON["name"])
	assert.Equal(t, idA.Hex(), out[0].JSON["id"])
	assert.Equal(t, 0, out[0].PairedItem)

	assert.Equal(t, "b", out[1].JSON["name"])
	assert.Equal(t, idB.Hex(), out[1].JSON["id"])
	assert.Equal(t, 1, out[1].PairedItem)
}

func TestExecuteInsertBadIdentifierFailsBatch(t *testing.T) {
	fake := &fakeCollection{}

	items := []Item{{JSON: map[string]interface{}{"_id": "nope"}}}
	params := Params{IDFields: "_id"}

	_, err := Execute(context.Background(), fake, OpInsert, params, items, false)
	require.Error(t, err)

	var idErr *IdentifierError
	assert.ErrorAs(t, err, &idErr)
	assert.Zero(t, fake.calls)
}

func TestExecuteUpdateStripsIdentifierFromBody(t *testing.T) {
	fake := &fakeCollection{
		updateFn: func(filter, update bson.M, upsert bool) (WriteSummary, error) {
			oid, ok := filter["_id"].(primitive.ObjectID)
			require.True(t, ok)
			assert.Equal(t, "507f1f77bcf86cd799439011", oid.Hex())

			body, ok := update["$set"].(bson.M)
			require.True(t, ok)
			assert.NotContains(t, body, "_id")
			assert.Equal(t, "b", body["name"])
			assert.False(t, upsert)
			return WriteSummary{Matched: 1, Modified: 1}, nil
		},
	}

	items := []Item{{JSON: map[string]interface{}{
		"_id":  "507f1f77bcf86cd799439011",
		"name": "b",
	}}}

	out, err := Execute(context.Background(), fake, OpUpdate, Params{UpdateKey: "_id"}, items, false)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].JSON["matchedCount"])
	assert.NotContains(t, out[0].JSON, "_id")
}

func TestExecuteUpdateAppendsUpdateKeyToSelector(t *testing.T) {
	fake := &fakeCollection{
		updateFn: func(filter, update bson.M, upsert bool) (WriteSummary, error) {
			assert.Equal(t, bson.M{"sku": "X1"}, filter)
			body := update["$set"].(bson.M)
			assert.Equal(t, "widget", body["name"])
			assert.Equal(t, "X1", body["sku"])
			return WriteSummary{Matched: 1, Modified: 1}, nil
		},
	}

	items := []Item{{JSON: map[string]interface{}{
		"sku":    "X1",
		"name":   "widget",
		"secret": "hidden",
	}}}
	params := Params{UpdateKey: "sku", Fields: "name"}

	_, err := Execute(context.Background(), fake, OpUpdate, params, items, false)
	require.NoError(t, err)
}

func TestExecuteUpdateDottedUpdateKey(t *testing.T) {
	fake := &fakeCollection{
		updateFn: func(filter, update bson.M, upsert bool) (WriteSummary, error) {
			assert.Equal(t, bson.M{"meta.sku": "X1"}, filter)

			body := update["$set"].(bson.M)
			meta, ok := body["meta"].(map[string]interface{})
			require.True(t, ok)
			assert.Equal(t, "X1", meta["sku"])
			return WriteSummary{Matched: 1, Modified: 1}, nil
		},
	}

	items := []Item{{JSON: map[string]interface{}{
		"meta.sku": "X1",
		"name":     "widget",
	}}}
	params := Params{UpdateKey: "meta.sku", UseDotNotation: true}

	out, err := Execute(context.Background(), fake, OpUpdate, params, items, false)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 1, fake.calls)
}

func TestExecuteUpdateMissingKeyFails(t *testing.T) {
	fake := &fakeCollection{}

	items := []Item{{JSON: map[string]interface{}{"name": "b"}}}

	_, err := Execute(context.Background(), fake, OpUpdate, Params{UpdateKey: "sku"}, items, false)
	require.Error(t, err)
	assert.Zero(t, fake.calls)
}

func TestExecuteUpdateContinueOnFailIsolatesItem(t *testing.T) {
	fake := &fakeCollection{
		updateFn: func(filter, update bson.M, upsert bool) (WriteSummary, error) {
			return WriteSummary{Matched: 1, Modified: 1}, nil
		},
	}

	items := []Item{
		{JSON: map[string]interface{}{"_id": "507f1f77bcf86cd799439011", "n": 1}},
		{JSON: map[string]interface{}{"_id": "bad", "n": 2}},
		{JSON: map[string]interface{}{"_id": "507f1f77bcf86cd799439013", "n": 3}},
	}

	out, err := Execute(context.Background(), fake, OpUpdate, Params{UpdateKey: "_id"}, items, true)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, 1, out[0].JSON["n"])
	assert.Equal(t, 0, out[0].PairedItem)

	assert.Contains(t, out[1].JSON, "error")
	assert.Equal(t, 1, out[1].PairedItem)

	assert.Equal(t, 3, out[2].JSON["n"])
	assert.Equal(t, 2, out[2].PairedItem)
	assert.Equal(t, 2, fake.calls)
}

func TestExecuteUpdateAbortsWithoutContinueOnFail(t *testing.T) {
	fake := &fakeCollection{
		updateFn: func(filter, update bson.M, upsert bool) (WriteSummary, error) {
			return WriteSummary{}, errors.New("write concern failure")
		},
	}

	items := []Item{{JSON: map[string]interface{}{"_id": "507f1f77bcf86cd799439011"}}}

	_, err := Execute(context.Background(), fake, OpUpdate, Params{UpdateKey: "_id"}, items, false)
	require.Error(t, err)

	var dbErr *DatabaseError
	assert.ErrorAs(t, err, &dbErr)
}

func TestExecuteFindOneAndUpdate(t *testing.T) {
	fake := &fakeCollection{
		fouFn: func(filter, update bson.M, upsert bool) (bson.M, error) {
			assert.True(t, upsert)
			return bson.M{"_id": mustOID(t, "507f1f77bcf86cd799439011"), "name": "b"}, nil
		},
	}

	items := []Item{{JSON: map[string]interface{}{"_id": "507f1f77bcf86cd799439011", "name": "b"}}}
	params := Params{UpdateKey: "_id", Upsert: true}

	out, err := Execute(context.Background(), fake, OpFindOneAndUpdate, params, items, false)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "507f1f77bcf86cd799439011", out[0].JSON["_id"])
}

func TestExecuteFindOneAndReplaceSendsWholeBody(t *testing.T) {
	fake := &fakeCollection{
		forFn: func(filter, replacement bson.M, upsert bool) (bson.M, error) {
			// Replacement body is the document itself, never a $set wrapper.
			assert.NotContains(t, replacement, "$set")
			assert.Equal(t, "b", replacement["name"])
			return replacement, nil
		},
	}

	items := []Item{{JSON: map[string]interface{}{"_id": "507f1f77bcf86cd799439011", "name": "b"}}}

	out, err := Execute(context.Background(), fake, OpFindOneAndReplace, Params{UpdateKey: "_id"}, items, false)
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestExecuteDelete(t *testing.T) {
	fake := &fakeCollection{
		deleteFn: func(filter bson.M) (int64, error) {
			assert.Equal(t, bson.M{"status": "stale"}, filter)
			return 4, nil
		},
	}

	out, err := Execute(context.Background(), fake, OpDelete, Params{Query: `{"status":"stale"}`}, nil, false)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(4), out[0].JSON["deletedCount"])
}

func TestExecuteBatchErrorContinueOnFail(t *testing.T) {
	fake := &fakeCollection{
		findFn: func(filter bson.M, opts FindOptions) ([]bson.M, error) {
			return nil, errors.New("connection reset")
		},
	}

	out, err := Execute(context.Background(), fake, OpFind, Params{}, nil, true)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Contains(t, out[0].JSON["error"], "connection reset")
	assert.Equal(t, 0, out[0].PairedItem)
}

func TestExecuteParseErrorBeforeAnyCall(t *testing.T) {
	fake := &fakeCollection{}

	_, err := Execute(context.Background(), fake, OpFind, Params{Query: `{"bad":`}, nil, false)
	require.Error(t, err)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
	assert.Zero(t, fake.calls)
}
