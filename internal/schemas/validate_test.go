package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig_Valid(t *testing.T) {
	doc := `{"model": "gemini-2.5-flash", "fetch_pages": 2, "export_path": "out.txt", "verbose": true}`
	assert.NoError(t, ValidateConfig([]byte(doc)))
}

func TestValidateConfig_EmptyObject(t *testing.T) {
	assert.NoError(t, ValidateConfig([]byte(`{}`)))
}

func TestValidateConfig_UnknownField(t *testing.T) {
	err := ValidateConfig([]byte(`{"max_bullets": 3}`))
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.NotEmpty(t, ve.Errors)
	assert.Equal(t, "(root)", ve.Errors[0].Field)
}

func TestValidateConfig_WrongType(t *testing.T) {
	err := ValidateConfig([]byte(`{"fetch_pages": "two"}`))
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "fetch_pages", ve.Errors[0].Field)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidateConfig_OutOfRange(t *testing.T) {
	err := ValidateConfig([]byte(`{"port": 70000}`))
	assert.Error(t, err)
}

func TestValidateConfig_MalformedJSON(t *testing.T) {
	err := ValidateConfig([]byte(`{ not json`))
	require.Error(t, err)

	var le *SchemaLoadError
	assert.True(t, errors.As(err, &le))
	assert.Equal(t, ConfigSchemaName, le.Name)
}

func TestValidateJSONString(t *testing.T) {
	schema := `{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}`

	assert.NoError(t, ValidateJSONString(schema, `{"name": "Acme"}`))

	err := ValidateJSONString(schema, `{}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}
