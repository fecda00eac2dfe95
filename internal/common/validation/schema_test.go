package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lookupSchema = `{
	"type": "object",
	"required": ["field"],
	"properties": {
		"field": {"type": "string", "enum": ["states", "cities"]},
		"query": {"type": "string", "maxLength": 5},
		"page": {"type": "integer", "minimum": 0}
	}
}`

func TestSchema_Validate(t *testing.T) {
	schema := MustCompile(lookupSchema)

	tests := []struct {
		name           string
		doc            string
		validateOutput func(t *testing.T, result *ValidationResult)
	}{
		{
			name: "valid document with extra variables",
			doc:  `{"field":"states","query":"Kar","processVar":true}`,
			validateOutput: func(t *testing.T, result *ValidationResult) {
				assert.True(t, result.Valid)
				assert.Empty(t, result.Errors)
			},
		},
		{
			name: "missing required field",
			doc:  `{"query":"Kar"}`,
			validateOutput: func(t *testing.T, result *ValidationResult) {
				assert.False(t, result.Valid)
				require.Len(t, result.Errors, 1)
				assert.Equal(t, "REQUIRED", result.Errors[0].Code)
			},
		},
		{
			name: "wrong enum and length",
			doc:  `{"field":"towns","query":"Karnataka"}`,
			validateOutput: func(t *testing.T, result *ValidationResult) {
				assert.False(t, result.Valid)
				assert.True(t, result.HasErrors("field"))
				assert.True(t, result.HasErrors("query"))
				assert.Len(t, result.GetErrorMessages(), 2)
			},
		},
		{
			name: "not json",
			doc:  `{"field":`,
			validateOutput: func(t *testing.T, result *ValidationResult) {
				assert.False(t, result.Valid)
				assert.Equal(t, "INVALID_JSON", result.Errors[0].Code)
				assert.True(t, result.HasErrors("(root)"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validateOutput(t, schema.Validate([]byte(tt.doc)))
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)

	_, err = CompileMap(map[string]interface{}{"type": "object"})
	assert.NoError(t, err)

	assert.Panics(t, func() { MustCompile(`not a schema`) })
}

func TestValidationResult_GetErrorsForField(t *testing.T) {
	result := &ValidationResult{Errors: []ValidationError{
		{Field: "criteria.gender", Message: "bad"},
		{Field: "criteria", Message: "bad"},
		{Field: "criteriaX", Message: "bad"},
	}}
	assert.Len(t, result.GetErrorsForField("criteria"), 2)
}
