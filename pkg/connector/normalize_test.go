package connector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNormalizeItemCopyAll(t *testing.T) {
	record := map[string]interface{}{"name": "a", "age": 30}

	doc, err := NormalizeItem(record, NormalizeOptions{})
	require.NoError(t, err)
	assert.Equal(t, "a", doc["name"])
	assert.Equal(t, 30, doc["age"])
	assert.Len(t, doc, 2)
}

func TestNormalizeItemFieldSelector(t *testing.T) {
	record := map[string]interface{}{"name": "a", "age": 30, "secret": "x"}

	doc, err := NormalizeItem(record, NormalizeOptions{Fields: []string{"name", "age"}})
	require.NoError(t, err)
	assert.Len(t, doc, 2)
	assert.NotContains(t, doc, "secret")
}

func TestNormalizeItemMissingSelectedFieldSkipped(t *testing.T) {
	record := map[string]interface{}{"name": "a"}

	doc, err := NormalizeItem(record, NormalizeOptions{Fields: []string{"name", "age"}})
	require.NoError(t, err)
	assert.Len(t, doc, 1)
	assert.NotContains(t, doc, "age")
}

func TestNormalizeItemDotNotation(t *testing.T) {
	record := map[string]interface{}{
		"address.city": "Oslo",
		"address.zip":  "0150",
		"name":         "a",
	}

	doc, err := NormalizeItem(record, NormalizeOptions{UseDotNotation: true})
	require.NoError(t, err)

	address, ok := doc["address"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Oslo", address["city"])
	assert.Equal(t, "0150", address["zip"])
	assert.Equal(t, "a", doc["name"])
	assert.NotContains(t, doc, "address.city")
}

func TestNormalizeItemDotNotationDisabled(t *testing.T) {
	record := map[string]interface{}{"address.city": "Oslo"}

	doc, err := NormalizeItem(record, NormalizeOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Oslo", doc["address.city"])
}

func TestNormalizeItemDeepNestedPath(t *testing.T) {
	record := map[string]interface{}{"a.b.c": 1}

	doc, err := NormalizeItem(record, NormalizeOptions{UseDotNotation: true})
	require.NoError(t, err)

	b := doc["a"].(map[string]interface{})["b"].(map[string]interface{})
	assert.Equal(t, 1, b["c"])
}

func TestNormalizeItemDateCoercion(t *testing.T) {
	record := map[string]interface{}{
		"created": "2024-03-01T10:30:00Z",
		"updated": float64(1709288100000),
		"note":    "2024-03-01T10:30:00Z",
	}

	doc, err := NormalizeItem(record, NormalizeOptions{DateFields: []string{"created", "updated"}})
	require.NoError(t, err)

	created, ok := doc["created"].(primitive.DateTime)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), created.Time().UTC())

	_, ok = doc["updated"].(primitive.DateTime)
	assert.True(t, ok)

	// Fields not named in the date selector are left alone.
	assert.Equal(t, "2024-03-01T10:30:00Z", doc["note"])
}

func TestNormalizeItemDateCoercionFailureIsSilent(t *testing.T) {
	record := map[string]interface{}{"created": "not a date"}

	doc, err := NormalizeItem(record, NormalizeOptions{DateFields: []string{"created"}})
	require.NoError(t, err)
	assert.Equal(t, "not a date", doc["created"])
}

func TestNormalizeItemIDCoercion(t *testing.T) {
	record := map[string]interface{}{"_id": "507f1f77bcf86cd799439011"}

	doc, err := NormalizeItem(record, NormalizeOptions{IDFields: []string{"_id"}})
	require.NoError(t, err)

	oid, ok := doc["_id"].(primitive.ObjectID)
	require.True(t, ok)
	assert.Equal(t, "507f1f77bcf86cd799439011", oid.Hex())
}

func TestNormalizeItemIDCoercionNilGeneratesID(t *testing.T) {
	record := map[string]interface{}{"_id": nil}

	doc, err := NormalizeItem(record, NormalizeOptions{IDFields: []string{"_id"}})
	require.NoError(t, err)

	oid, ok := doc["_id"].(primitive.ObjectID)
	require.True(t, ok)
	assert.False(t, oid.IsZero())
}

func TestNormalizeItemIDCoercionFailureIsHard(t *testing.T) {
	record := map[string]interface{}{"_id": "nope"}

	_, err := NormalizeItem(record, NormalizeOptions{IDFields: []string{"_id"}})
	require.Error(t, err)

	var idErr *IdentifierError
	require.ErrorAs(t, err, &idErr)
	assert.Equal(t, "_id", idErr.Field)
}

func TestNormalizeItemDoesNotShareStructure(t *testing.T) {
	nested := map[string]interface{}{"inner": "original"}
	record := map[string]interface{}{"data": nested}

	doc, err := NormalizeItem(record, NormalizeOptions{})
	require.NoError(t, err)

	doc["data"].(map[string]interface{})["inner"] = "mutated"
	assert.Equal(t, "original", nested["inner"])
}

func TestNormalizeItemsPreservesOrder(t *testing.T) {
	records := []map[string]interface{}{
		{"n": 1},
		{"n": 2},
		{"n": 3},
	}

	docs, err := NormalizeItems(records, NormalizeOptions{})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	for i, doc := range docs {
		assert.Equal(t, i+1, doc["n"])
	}
}

func TestNormalizeItemsReportsFailingIndex(t *testing.T) {
	records := []map[string]interface{}{
		{"_id": "507f1f77bcf86cd799439011"},
		{"_id": "bad"},
	}

	_, err := NormalizeItems(records, NormalizeOptions{IDFields: []string{"_id"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item 1")
}
