package connector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitFields(t *testing.T) {
	assert.Equal(t, []string{"name", "age"}, SplitFields("name,age"))
	assert.Equal(t, []string{"name", "age"}, SplitFields(" name , age "))
	assert.Equal(t, []string{"name"}, SplitFields("name,,  ,"))
}

func TestSplitFieldsEmpty(t *testing.T) {
	assert.Empty(t, SplitFields(""))
	assert.Empty(t, SplitFields("   "))
	assert.Empty(t, SplitFields(" , , "))
}
