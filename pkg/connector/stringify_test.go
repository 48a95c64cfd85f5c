package connector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStringifyDocument(t *testing.T) {
	oid, err := primitive.ObjectIDFromHex("507f1f77bcf86cd799439011")
	require.NoError(t, err)

	out := StringifyDocument(bson.M{
		"_id":    oid,
		"status": "active",
		"nested": bson.M{"ref": oid},
		"list":   bson.A{oid, "plain"},
	})

	assert.Equal(t, "507f1f77bcf86cd799439011", out["_id"])
	assert.Equal(t, "active", out["status"])

	nested := out["nested"].(map[string]interface{})
	assert.Equal(t, "507f1f77bcf86cd799439011", nested["ref"])

	list := out["list"].([]interface{})
	assert.Equal(t, "507f1f77bcf86cd799439011", list[0])
	assert.Equal(t, "plain", list[1])
}

func TestStringifyOrderedDocument(t *testing.T) {
	oid, err := primitive.ObjectIDFromHex("507f1f77bcf86cd799439011")
	require.NoError(t, err)

	out := StringifyObjectIDs(bson.D{{Key: "_id", Value: oid}})
	assert.Equal(t, map[string]interface{}{"_id": "507f1f77bcf86cd799439011"}, out)
}

func TestStringifyIsIdempotent(t *testing.T) {
	oid, err := primitive.ObjectIDFromHex("507f1f77bcf86cd799439011")
	require.NoError(t, err)

	once := StringifyDocument(bson.M{"_id": oid})
	twice := StringifyObjectIDs(once)
	assert.Equal(t, map[string]interface{}(once), twice)
}
