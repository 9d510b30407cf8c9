package toolset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileToolSchemaAcceptsValidSchema(t *testing.T) {
	t.Parallel()

	sch, err := compileToolSchema("plus", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "integer"},
			"b": map[string]any{"type": "integer"},
		},
		"required": []any{"a", "b"},
	})
	require.NoError(t, err)
	require.NotNil(t, sch)

	err = sch.Validate(map[string]any{"a": 1.0, "b": 2.0})
	assert.NoError(t, err)

	err = sch.Validate(map[string]any{"a": 1.0})
	assert.Error(t, err)
}

func TestCompileToolSchemaAcceptsNilParameters(t *testing.T) {
	t.Parallel()

	sch, err := compileToolSchema("noop", nil)
	require.NoError(t, err)
	require.NotNil(t, sch)
	assert.NoError(t, sch.Validate(map[string]any{"anything": 1.0}))
}

func TestCompileToolSchemaRejectsInvalidSchema(t *testing.T) {
	t.Parallel()

	_, err := compileToolSchema("bad", map[string]any{
		"type": "not-a-real-type",
	})
	require.Error(t, err)

	var regErr *ToolRegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, "bad", regErr.ToolName)
}
