package util

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalJSON_KeepsLargeIntegers(t *testing.T) {
	var got map[string]interface{}
	require.NoError(t, UnmarshalJSON([]byte(`{"id":9007199254740993,"ratio":0.5}`), &got))

	assert.Equal(t, json.Number("9007199254740993"), got["id"])
	assert.Equal(t, json.Number("0.5"), got["ratio"])
}

func TestDecodeJSON_Errors(t *testing.T) {
	var got map[string]interface{}
	assert.Error(t, DecodeJSON(nil, &got))
	assert.Error(t, DecodeJSON(strings.NewReader("{bad"), &got))
}
