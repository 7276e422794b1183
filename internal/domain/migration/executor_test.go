package migration

import (
	"testing"
	"unicode/utf8"

	"github.com/formvault/backend/internal/domain/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateChain(t *testing.T) {
	t.Run("empty chain has nothing to complain about", func(t *testing.T) {
		errs := ValidateChain(nil, map[string]any{"name": "Ada"})
		assert.Empty(t, errs)
	})

	t.Run("reports missing required field with no default", func(t *testing.T) {
		strategy := edge(t, "1.0.0", "1.1.0")
		strategy.Transformations["email"] = Transformation{Required: true}

		errs := ValidateChain([]Strategy{strategy}, map[string]any{})
		assert.Contains(t, errs, "Required field email missing with no default")
	})

	t.Run("missing field with default is fine", func(t *testing.T) {
		strategy := edge(t, "1.0.0", "1.1.0")
		strategy.Transformations["age"] = Transformation{DefaultValue: 0}
		strategy.ValidationRules["age"] = schema.Properties{Required: true, Minimum: floatPtr(0)}

		errs := ValidateChain([]Strategy{strategy}, map[string]any{})
		assert.Empty(t, errs)
	})

	t.Run("reports impossible type conversions", func(t *testing.T) {
		strategy := edge(t, "1.0.0", "1.1.0")
		strategy.Transformations["age"] = Transformation{
			FromType:           schema.FieldTypeText,
			ToType:             schema.FieldTypeNumber,
			ConversionRequired: true,
		}

		errs := ValidateChain([]Strategy{strategy}, map[string]any{"age": "thirty"})
		assert.Contains(t, errs, "Field age requires type conversion")

		errs = ValidateChain([]Strategy{strategy}, map[string]any{"age": "30"})
		assert.Empty(t, errs)
	})

	t.Run("checks rules against the converted and cleaned value", func(t *testing.T) {
		strategy := edge(t, "1.0.0", "1.1.0")
		strategy.Transformations["age"] = Transformation{
			FromType:           schema.FieldTypeText,
			ToType:             schema.FieldTypeNumber,
			ConversionRequired: true,
		}
		strategy.ValidationRules["age"] = schema.Properties{Maximum: floatPtr(150)}

		// clamping happens before the bound check, so an out-of-range value
		// validates clean
		errs := ValidateChain([]Strategy{strategy}, map[string]any{"age": "200"})
		assert.Empty(t, errs)
	})

	t.Run("reports strings below minimum length after truncation", func(t *testing.T) {
		strategy := edge(t, "1.0.0", "1.1.0")
		strategy.ValidationRules["code"] = schema.Properties{MinLength: intPtr(5)}

		errs := ValidateChain([]Strategy{strategy}, map[string]any{"code": "abc"})
		assert.Contains(t, errs, "Field code below minimum length")
	})

	t.Run("measures minimum length in characters, not bytes", func(t *testing.T) {
		strategy := edge(t, "1.0.0", "1.1.0")
		strategy.ValidationRules["code"] = schema.Properties{MinLength: intPtr(5)}

		// three characters, nine bytes
		errs := ValidateChain([]Strategy{strategy}, map[string]any{"code": "日本語"})
		assert.Contains(t, errs, "Field code below minimum length")

		errs = ValidateChain([]Strategy{strategy}, map[string]any{"code": "日本語のテ"})
		assert.Empty(t, errs)
	})

	t.Run("reports explicit null for required fields", func(t *testing.T) {
		strategy := edge(t, "1.0.0", "1.1.0")
		strategy.Transformations["email"] = Transformation{Required: true}
		strategy.ValidationRules["age"] = schema.Properties{Required: true}

		errs := ValidateChain([]Strategy{strategy}, map[string]any{"email": nil, "age": nil})
		assert.Contains(t, errs, "Required field email cannot be null")
		assert.Contains(t, errs, "Required field age cannot be null")
	})

	t.Run("null with a default is fine", func(t *testing.T) {
		strategy := edge(t, "1.0.0", "1.1.0")
		strategy.Transformations["age"] = Transformation{Required: true, DefaultValue: 0}
		strategy.ValidationRules["age"] = schema.Properties{Required: true}

		errs := ValidateChain([]Strategy{strategy}, map[string]any{"age": nil})
		assert.Empty(t, errs)
	})

	t.Run("reports pattern mismatches", func(t *testing.T) {
		strategy := edge(t, "1.0.0", "1.1.0")
		strategy.ValidationRules["zip"] = schema.Properties{Pattern: `\d{5}`}

		errs := ValidateChain([]Strategy{strategy}, map[string]any{"zip": "abcde"})
		assert.Contains(t, errs, "Field zip does not match required pattern")

		errs = ValidateChain([]Strategy{strategy}, map[string]any{"zip": "94105"})
		assert.Empty(t, errs)
	})

	t.Run("collects every error, not just the first", func(t *testing.T) {
		strategy := edge(t, "1.0.0", "1.1.0")
		strategy.Transformations["email"] = Transformation{Required: true}
		strategy.Transformations["age"] = Transformation{
			FromType:           schema.FieldTypeText,
			ToType:             schema.FieldTypeNumber,
			ConversionRequired: true,
		}

		errs := ValidateChain([]Strategy{strategy}, map[string]any{"age": "unknown"})
		assert.Contains(t, errs, "Required field email missing with no default")
		assert.Contains(t, errs, "Field age requires type conversion")
	})

	t.Run("never mutates the input record", func(t *testing.T) {
		target := "full_name"
		strategy := edge(t, "1.0.0", "1.1.0")
		strategy.FieldMappings["name"] = &target
		strategy.FieldMappings["ssn"] = nil

		data := map[string]any{"name": "Ada", "ssn": "123-45-6789"}
		ValidateChain([]Strategy{strategy}, data)

		assert.Equal(t, map[string]any{"name": "Ada", "ssn": "123-45-6789"}, data)
	})

	t.Run("mappings are visible to later strategies in the chain", func(t *testing.T) {
		target := "full_name"
		first := edge(t, "1.0.0", "1.1.0")
		first.FieldMappings["name"] = &target

		second := edge(t, "1.1.0", "1.2.0")
		second.Transformations["full_name"] = Transformation{Required: true}

		errs := ValidateChain([]Strategy{first, second}, map[string]any{"name": "Ada"})
		assert.Empty(t, errs)
	})
}

func TestExecuteChain(t *testing.T) {
	t.Run("empty chain returns an equal copy", func(t *testing.T) {
		data := map[string]any{"name": "Ada"}
		got, err := ExecuteChain(nil, data)
		require.NoError(t, err)
		assert.Equal(t, data, got)

		got["name"] = "Grace"
		assert.Equal(t, "Ada", data["name"])
	})

	t.Run("applies renames and drops", func(t *testing.T) {
		target := "full_name"
		strategy := edge(t, "1.0.0", "1.1.0")
		strategy.FieldMappings["name"] = &target
		strategy.FieldMappings["ssn"] = nil

		got, err := ExecuteChain([]Strategy{strategy}, map[string]any{"name": "Ada", "ssn": "123-45-6789"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"full_name": "Ada"}, got)
	})

	t.Run("injects defaults for missing fields", func(t *testing.T) {
		strategy := edge(t, "1.0.0", "1.1.0")
		strategy.Transformations["age"] = Transformation{DefaultValue: 0}

		got, err := ExecuteChain([]Strategy{strategy}, map[string]any{"name": "Ada"})
		require.NoError(t, err)
		assert.Equal(t, 0, got["age"])
	})

	t.Run("performs type conversions", func(t *testing.T) {
		strategy := edge(t, "1.0.0", "1.1.0")
		strategy.Transformations["age"] = Transformation{
			FromType:           schema.FieldTypeText,
			ToType:             schema.FieldTypeNumber,
			ConversionRequired: true,
		}

		got, err := ExecuteChain([]Strategy{strategy}, map[string]any{"age": "30"})
		require.NoError(t, err)
		assert.Equal(t, 30, got["age"])
	})

	t.Run("truncates strings to exactly maxLength", func(t *testing.T) {
		strategy := edge(t, "1.0.0", "1.1.0")
		strategy.ValidationRules["name"] = schema.Properties{MaxLength: intPtr(10)}

		long := "XXXXXXXXXXXXXXXXXXXX"
		got, err := ExecuteChain([]Strategy{strategy}, map[string]any{"name": long})
		require.NoError(t, err)
		assert.Len(t, got["name"], 10)
	})

	t.Run("truncates multi-byte strings on character boundaries", func(t *testing.T) {
		strategy := edge(t, "1.0.0", "1.1.0")
		strategy.ValidationRules["name"] = schema.Properties{MaxLength: intPtr(5)}

		got, err := ExecuteChain([]Strategy{strategy}, map[string]any{"name": "日本語のテキスト"})
		require.NoError(t, err)
		assert.Equal(t, "日本語のテ", got["name"])
		assert.True(t, utf8.ValidString(got["name"].(string)))
	})

	t.Run("clamps numbers to exactly the bound", func(t *testing.T) {
		strategy := edge(t, "1.0.0", "1.1.0")
		strategy.ValidationRules["age"] = schema.Properties{Minimum: floatPtr(0), Maximum: floatPtr(150)}

		got, err := ExecuteChain([]Strategy{strategy}, map[string]any{"age": -5})
		require.NoError(t, err)
		assert.Equal(t, 0, got["age"])

		got, err = ExecuteChain([]Strategy{strategy}, map[string]any{"age": 200.0})
		require.NoError(t, err)
		assert.Equal(t, 150.0, got["age"])
	})

	t.Run("fails on missing required field without default", func(t *testing.T) {
		strategy := edge(t, "1.0.0", "1.1.0")
		strategy.Transformations["email"] = Transformation{Required: true}

		_, err := ExecuteChain([]Strategy{strategy}, map[string]any{})
		assert.Error(t, err)
	})

	t.Run("fails on explicit null for a required field", func(t *testing.T) {
		strategy := edge(t, "1.0.0", "1.1.0")
		strategy.Transformations["email"] = Transformation{Required: true}

		_, err := ExecuteChain([]Strategy{strategy}, map[string]any{"email": nil})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be null")

		ruled := edge(t, "1.0.0", "1.1.0")
		ruled.ValidationRules["age"] = schema.Properties{Required: true}

		_, err = ExecuteChain([]Strategy{ruled}, map[string]any{"age": nil})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be null")
	})

	t.Run("replaces explicit null with the default", func(t *testing.T) {
		strategy := edge(t, "1.0.0", "1.1.0")
		strategy.Transformations["age"] = Transformation{Required: true, DefaultValue: 0}

		got, err := ExecuteChain([]Strategy{strategy}, map[string]any{"age": nil})
		require.NoError(t, err)
		assert.Equal(t, 0, got["age"])
	})

	t.Run("values without rules pass through unchanged", func(t *testing.T) {
		strategy := edge(t, "1.0.0", "1.1.0")

		got, err := ExecuteChain([]Strategy{strategy}, map[string]any{"untouched": "value"})
		require.NoError(t, err)
		assert.Equal(t, "value", got["untouched"])
	})
}
