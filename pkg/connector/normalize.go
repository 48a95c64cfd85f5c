package connector

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// dateLayouts is tried in order when coercing a date-field string value.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"01-02-2006",
	time.RFC1123,
	time.RFC1123Z,
	time.RFC822,
	time.RFC822Z,
	time.RFC850,
	time.UnixDate,
	time.ANSIC,
}

// NormalizeItems shapes a batch of raw input records into BSON-ready
// documents, preserving input order and cardinality. The first record that
// fails identifier coercion aborts the pass with the item index attached.
func NormalizeItems(items []map[string]interface{}, opts NormalizeOptions) ([]bson.M, error) {
	docs := make([]bson.M, 0, len(items))
	for i, item := range items {
		doc, err := NormalizeItem(item, opts)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// NormalizeItem produces a BSON-ready document from one input record:
//
//  1. Candidate keys come from the field selector, or every key of the record
//     when the selector is empty.
//  2. Values are deep-copied, so later mutation never reaches the caller's
//     record.
//  3. Date-selected fields are coerced best-effort: a value that does not
//     parse as a date passes through unchanged.
//  4. Identifier-selected fields are coerced hard: an invalid value fails the
//     whole record.
//  5. With dot notation enabled, a key "a.b.c" is stored as nested documents
//     {a: {b: {c: value}}} instead of a flat key.
func NormalizeItem(item map[string]interface{}, opts NormalizeOptions) (bson.M, error) {
	keys := opts.Fields
	if len(keys) == 0 {
		keys = make([]string, 0, len(item))
		for k := range item {
			keys = append(keys, k)
		}
		// Map iteration order is random; keep copy-all deterministic.
		sort.Strings(keys)
	}

	doc := bson.M{}
	for _, key := range keys {
		value, ok := item[key]
		if !ok {
			continue
		}
		value = copyValue(value)

		if containsField(opts.DateFields, key) {
			value = coerceDate(value)
		}
		if containsField(opts.IDFields, key) {
			coerced, err := coerceObjectID(key, value)
			if err != nil {
				return nil, err
			}
			value = coerced
		}

		if opts.UseDotNotation && strings.Contains(key, ".") {
			setPath(doc, strings.Split(key, "."), value)
		} else {
			doc[key] = value
		}
	}

	return doc, nil
}

// setPath assigns value at a nested path, creating intermediate documents as
// needed. Existing intermediate documents are reused so sibling dotted keys
// merge into one subtree.
func setPath(doc bson.M, path []string, value interface{}) {
	cur := map[string]interface{}(doc)
	for _, seg := range path[:len(path)-1] {
		switch next := cur[seg].(type) {
		case bson.M:
			cur = next
		case map[string]interface{}:
			cur = next
		default:
			m := map[string]interface{}{}
			cur[seg] = m
			cur = m
		}
	}
	cur[path[len(path)-1]] = value
}

// getPath reads the value at a nested path previously produced by setPath.
func getPath(doc bson.M, path []string) (interface{}, bool) {
	cur := map[string]interface{}(doc)
	for _, seg := range path[:len(path)-1] {
		switch next := cur[seg].(type) {
		case bson.M:
			cur = next
		case map[string]interface{}:
			cur = next
		default:
			return nil, false
		}
	}
	value, ok := cur[path[len(path)-1]]
	return value, ok
}

// copyValue returns a copy deep enough that no mutable structure is shared
// with the caller's record.
func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = copyValue(val)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = copyValue(val)
		}
		return out
	case bson.A:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = copyValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = copyValue(val)
		}
		return out
	default:
		return v
	}
}

// coerceDate converts a string or numeric value to a BSON date-time. Numbers
// are treated as Unix epoch milliseconds. Coercion is best-effort: a value
// that cannot be parsed is returned unchanged, never an error.
func coerceDate(v interface{}) interface{} {
	switch t := v.(type) {
	case time.Time:
		return primitive.NewDateTimeFromTime(t)
	case primitive.DateTime:
		return t
	case string:
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, t); err == nil {
				return primitive.NewDateTimeFromTime(ts)
			}
		}
		return v
	case float64:
		return primitive.NewDateTimeFromTime(time.UnixMilli(int64(t)).UTC())
	case int64:
		return primitive.NewDateTimeFromTime(time.UnixMilli(t).UTC())
	case int:
		return primitive.NewDateTimeFromTime(time.UnixMilli(int64(t)).UTC())
	default:
		return v
	}
}

// coerceObjectID converts an identifier-field value to ObjectID. An absent
// value gets a freshly generated identifier; a string must be valid 24-hex.
func coerceObjectID(field string, v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t, nil
	case nil:
		return primitive.NewObjectID(), nil
	case string:
		oid, err := primitive.ObjectIDFromHex(t)
		if err != nil {
			return nil, &IdentifierError{Field: field, Value: t}
		}
		return oid, nil
	default:
		return nil, &IdentifierError{Field: field, Value: v}
	}
}

func containsField(fields []string, key string) bool {
	for _, f := range fields {
		if f == key {
			return true
		}
	}
	return false
}
