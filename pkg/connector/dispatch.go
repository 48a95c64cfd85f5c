package connector

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// Operation is the closed set of verbs an invocation can request.
type Operation int

const (
	OpAggregate Operation = iota
	OpDelete
	OpFind
	OpFindOneAndReplace
	OpFindOneAndUpdate
	OpInsert
	OpUpdate
)

var operationNames = map[string]Operation{
	"aggregate":         OpAggregate,
	"delete":            OpDelete,
	"find":              OpFind,
	"findOneAndReplace": OpFindOneAndReplace,
	"findOneAndUpdate":  OpFindOneAndUpdate,
	"insert":            OpInsert,
	"update":            OpUpdate,
}

func (op Operation) String() string {
	for name, o := range operationNames {
		if o == op {
			return name
		}
	}
	return fmt.Sprintf("Operation(%d)", int(op))
}

// ParseOperation resolves an operation name. Callers resolve the operation
// before acquiring a session, so an unknown name never costs a connection.
func ParseOperation(name string) (Operation, error) {
	op, ok := operationNames[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedOperation, name)
	}
	return op, nil
}

// Execute runs one operation for the whole batch of input items against a
// collection and returns the paired output items.
//
// Failure policy depends on the operation's cardinality. The per-item verbs
// (update, findOneAndUpdate, findOneAndReplace) catch each item's error and,
// with continue-on-failure active, emit an annotated error item in its place
// while the rest of the batch proceeds. The single-call verbs (aggregate,
// find, insert, delete) apply the same rule at batch granularity: the whole
// response collapses to one error item, or the error propagates.
func Execute(ctx context.Context, coll Collection, op Operation, params Params, items []Item, continueOnFail bool) ([]Item, error) {
	switch op {
	case OpAggregate:
		out, err := runAggregate(ctx, coll, params)
		return batchResult(out, err, continueOnFail)
	case OpDelete:
		out, err := runDelete(ctx, coll, params)
		return batchResult(out, err, continueOnFail)
	case OpFind:
		out, err := runFind(ctx, coll, params)
		return batchResult(out, err, continueOnFail)
	case OpInsert:
		out, err := runInsert(ctx, coll, params, items)
		return batchResult(out, err, continueOnFail)
	case OpUpdate, OpFindOneAndUpdate, OpFindOneAndReplace:
		return runPerItem(ctx, coll, op, params, items, continueOnFail)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedOperation, op)
	}
}

// batchResult applies the whole-batch failure policy.
func batchResult(out []Item, err error, continueOnFail bool) ([]Item, error) {
	if err == nil {
		return out, nil
	}
	if continueOnFail {
		return []Item{errorItem(err, 0)}, nil
	}
	return nil, err
}

func errorItem(err error, pairedTo int) Item {
	return Item{
		JSON:       map[string]interface{}{"error": err.Error()},
		PairedItem: pairedTo,
	}
}

func runAggregate(ctx context.Context, coll Collection, params Params) ([]Item, error) {
	pipeline, err := ParsePipeline(params.Query)
	if err != nil {
		return nil, err
	}

	docs, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, &DatabaseError{Op: "aggregate", Err: err}
	}
	return documentsToItems(docs), nil
}

func runFind(ctx context.Context, coll Collection, params Params) ([]Item, error) {
	filter, err := ParseQuery(params.Query)
	if err != nil {
		return nil, err
	}

	opts := FindOptions{}
	if params.Skip > 0 {
		opts.Skip = params.Skip
	}
	if params.Limit > 0 {
		opts.Limit = params.Limit
	}
	if params.Sort != "" {
		sort, err := ParseSort(params.Sort)
		if err != nil {
			return nil, err
		}
		opts.Sort = sort
	}

	docs, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, &DatabaseError{Op: "find", Err: err}
	}
	return documentsToItems(docs), nil
}

func runDelete(ctx context.Context, coll Collection, params Params) ([]Item, error) {
	filter, err := ParseQuery(params.Query)
	if err != nil {
		return nil, err
	}

	deleted, err := coll.DeleteMany(ctx, filter)
	if err != nil {
		return nil, &DatabaseError{Op: "delete", Err: err}
	}
	return []Item{{
		JSON:       map[string]interface{}{"deletedCount": deleted},
		PairedItem: 0,
	}}, nil
}

func runInsert(ctx context.Context, coll Collection, params Params, items []Item) ([]Item, error) {
	opts := NormalizeOptions{
		Fields:         SplitFields(params.Fields),
		UseDotNotation: params.UseDotNotation,
		DateFields:     SplitFields(params.DateFields),
		IDFields:       SplitFields(params.IDFields),
	}

	records := make([]map[string]interface{}, len(items))
	for i, item := range items {
		records[i] = item.JSON
	}

	docs, err := NormalizeItems(records, opts)
	if err != nil {
		return nil, err
	}

	insertedIDs, err := coll.InsertMany(ctx, docs)
	if err != nil {
		return nil, &DatabaseError{Op: "insert", Err: err}
	}

	out := make([]Item, len(docs))
	for i, doc := range docs {
		json := StringifyDocument(doc)
		// Each generated identifier is merged back onto its document by
		// positional index.
		if i < len(insertedIDs) {
			json["id"] = StringifyObjectIDs(insertedIDs[i])
		}
		out[i] = Item{JSON: json, PairedItem: i}
	}
	return out, nil
}

// runPerItem drives the three one-call-per-item verbs. Items are processed
// sequentially in input order; the output always has one entry per input.
func runPerItem(ctx context.Context, coll Collection, op Operation, params Params, items []Item, continueOnFail bool) ([]Item, error) {
	fields := SplitFields(params.Fields)
	if params.UpdateKey != "" && !containsField(fields, params.UpdateKey) && len(fields) > 0 {
		fields = append(fields, params.UpdateKey)
	}

	opts := NormalizeOptions{
		Fields:         fields,
		UseDotNotation: params.UseDotNotation,
		DateFields:     SplitFields(params.DateFields),
		IDFields:       SplitFields(params.IDFields),
	}

	out := make([]Item, 0, len(items))
	for i, item := range items {
		result, err := executeOne(ctx, coll, op, params, opts, item.JSON)
		if err != nil {
			if continueOnFail {
				out = append(out, errorItem(err, i))
				continue
			}
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, Item{JSON: result, PairedItem: i})
	}
	return out, nil
}

func executeOne(ctx context.Context, coll Collection, op Operation, params Params, opts NormalizeOptions, record map[string]interface{}) (map[string]interface{}, error) {
	doc, err := NormalizeItem(record, opts)
	if err != nil {
		return nil, err
	}

	filter, body, err := buildUpdateFilter(doc, params.UpdateKey, opts.UseDotNotation)
	if err != nil {
		return nil, err
	}

	switch op {
	case OpUpdate:
		summary, err := coll.UpdateOne(ctx, filter, bson.M{"$set": body}, params.Upsert)
		if err != nil {
			return nil, &DatabaseError{Op: "update", Err: err}
		}
		result := StringifyDocument(body)
		result["matchedCount"] = summary.Matched
		result["modifiedCount"] = summary.Modified
		if summary.Upserted != nil {
			result["upsertedId"] = StringifyObjectIDs(summary.Upserted)
		}
		return result, nil

	case OpFindOneAndUpdate:
		updated, err := coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": body}, params.Upsert)
		if err != nil {
			return nil, &DatabaseError{Op: "findOneAndUpdate", Err: err}
		}
		return StringifyDocument(updated), nil

	case OpFindOneAndReplace:
		replaced, err := coll.FindOneAndReplace(ctx, filter, body, params.Upsert)
		if err != nil {
			return nil, &DatabaseError{Op: "findOneAndReplace", Err: err}
		}
		return StringifyDocument(replaced), nil

	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedOperation, op)
	}
}

// buildUpdateFilter derives the single-key filter locating the target
// document. When the update key is the identifier field, its value is coerced
// to ObjectID and removed from the body: the identifier belongs in the filter
// only, never duplicated into the update payload.
func buildUpdateFilter(doc bson.M, updateKey string, useDotNotation bool) (bson.M, bson.M, error) {
	value, ok := doc[updateKey]
	if !ok && useDotNotation && strings.Contains(updateKey, ".") {
		// A dotted update key was rewritten into nested documents during
		// normalization; read it back through the path. The dotted form
		// itself stays valid as a filter key.
		value, ok = getPath(doc, strings.Split(updateKey, "."))
	}
	if !ok {
		return nil, nil, fmt.Errorf("item does not contain the update key %q", updateKey)
	}

	if updateKey == "_id" {
		coerced, err := coerceObjectID(updateKey, value)
		if err != nil {
			return nil, nil, err
		}
		value = coerced
		delete(doc, "_id")
	}

	return bson.M{updateKey: value}, doc, nil
}

func documentsToItems(docs []bson.M) []Item {
	items := make([]Item, len(docs))
	for i, doc := range docs {
		items[i] = Item{JSON: StringifyDocument(doc), PairedItem: 0}
	}
	return items
}
