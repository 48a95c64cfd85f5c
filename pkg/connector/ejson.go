package connector

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ParseQuery parses an Extended-JSON document (query or filter). The relaxed
// Extended-JSON markers ($oid, $date, $numberLong, ...) are decoded to their
// BSON-native types by the driver.
//
// After parsing, a top-level "_id" whose value is a plain string is coerced to
// ObjectID when it is valid 24-hex — a convenience for callers who paste raw
// hex instead of an {"$oid": ...} wrapper. The coercion applies only to a
// field literally named "_id"; generalizing it would change matching semantics
// for existing callers.
func ParseQuery(s string) (bson.M, error) {
	if strings.TrimSpace(s) == "" {
		s = "{}"
	}

	var doc bson.M
	if err := bson.UnmarshalExtJSON([]byte(s), false, &doc); err != nil {
		return nil, &ParseError{Input: s, Err: err}
	}

	if raw, ok := doc["_id"].(string); ok {
		if oid, err := primitive.ObjectIDFromHex(raw); err == nil {
			doc["_id"] = oid
		}
	}

	return doc, nil
}

// ParsePipeline parses an Extended-JSON aggregation pipeline array.
func ParsePipeline(s string) ([]bson.M, error) {
	if strings.TrimSpace(s) == "" {
		s = "[]"
	}

	// The extended JSON reader wants a document at the top level, so the
	// array is wrapped before parsing.
	var wrapper struct {
		Stages []bson.M `bson:"stages"`
	}
	if err := bson.UnmarshalExtJSON([]byte(`{"stages":`+s+`}`), false, &wrapper); err != nil {
		return nil, &ParseError{Input: s, Err: err}
	}

	return wrapper.Stages, nil
}

// ParseSort parses an Extended-JSON sort specification into an ordered
// document. The result must be a non-empty plain mapping; anything else is
// rejected before it reaches the driver.
func ParseSort(s string) (bson.D, error) {
	var sort bson.D
	if err := bson.UnmarshalExtJSON([]byte(s), false, &sort); err != nil {
		return nil, &ParseError{Input: s, Err: err}
	}
	if len(sort) == 0 {
		return nil, ErrEmptySort
	}
	return sort, nil
}
