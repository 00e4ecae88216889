package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateParameters(t *testing.T) {
	schema := ObjectSchema([]string{"query"}, map[string]string{"query": "search text"})

	require.NoError(t, ValidateParameters(map[string]any{"query": "weather", "extra": 1}, schema))

	err := ValidateParameters(map[string]any{}, schema)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "query", verr.Field)

	err = ValidateParameters(map[string]any{"query": 42}, schema)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "expected type string")
}

func TestValidateParameters_DecodedRequired(t *testing.T) {
	schema := map[string]any{
		"required": []any{"n"},
		"properties": map[string]any{
			"n": map[string]any{"type": "integer"},
		},
	}
	assert.NoError(t, ValidateParameters(map[string]any{"n": float64(3)}, schema))
	assert.Error(t, ValidateParameters(map[string]any{"n": 3.5}, schema))
	assert.Error(t, ValidateParameters(map[string]any{}, schema))
}
