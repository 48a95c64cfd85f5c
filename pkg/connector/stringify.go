package connector

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StringifyObjectIDs walks a decoded document and replaces every ObjectID
// with its 24-character hex form, so results serialize to plain JSON the way
// callers expect. The walk is idempotent: strings pass through untouched.
func StringifyObjectIDs(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case bson.M:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = StringifyObjectIDs(val)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = StringifyObjectIDs(val)
		}
		return out
	case bson.D:
		out := make(map[string]interface{}, len(t))
		for _, e := range t {
			out[e.Key] = StringifyObjectIDs(e.Value)
		}
		return out
	case bson.A:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = StringifyObjectIDs(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = StringifyObjectIDs(val)
		}
		return out
	case []bson.M:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = StringifyObjectIDs(val)
		}
		return out
	default:
		return v
	}
}

// StringifyDocument is StringifyObjectIDs specialized to a top-level
// document, keeping the map shape callers hand around.
func StringifyDocument(doc bson.M) map[string]interface{} {
	out, ok := StringifyObjectIDs(doc).(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return out
}
