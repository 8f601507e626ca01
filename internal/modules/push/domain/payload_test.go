package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringifyData(t *testing.T) {
	var nilPtr *int
	got := StringifyData(map[string]any{
		"nil":    nil,
		"str":    "hello",
		"int":    42,
		"int64":  int64(7),
		"float":  1.5,
		"bool":   true,
		"map":    map[string]any{"a": 1},
		"slice":  []int{1, 2},
		"nilptr": nilPtr,
	})

	assert.Equal(t, "", got["nil"])
	assert.Equal(t, "hello", got["str"])
	assert.Equal(t, "42", got["int"])
	assert.Equal(t, "7", got["int64"])
	assert.Equal(t, "1.5", got["float"])
	assert.Equal(t, "true", got["bool"])
	assert.JSONEq(t, `{"a":1}`, got["map"])
	assert.Equal(t, "[1,2]", got["slice"])
	assert.Equal(t, "", got["nilptr"])
	assert.Len(t, got, 9)
}

func TestStringifyData_Empty(t *testing.T) {
	assert.NotNil(t, StringifyData(nil))
	assert.Empty(t, StringifyData(nil))
}
