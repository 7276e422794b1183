package migration

import (
	"testing"

	"github.com/formvault/backend/internal/domain/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }

func fieldDef(id string, fieldType schema.FieldType, props schema.Properties) *schema.FieldDefinition {
	return &schema.FieldDefinition{FieldID: id, FieldType: fieldType, Properties: props}
}

func TestBuildStrategy(t *testing.T) {
	t.Run("removed field maps to nil", func(t *testing.T) {
		changes := []schema.FieldChange{{
			FieldID:    "ssn",
			ChangeType: schema.ChangeTypeRemoved,
			Previous:   fieldDef("ssn", schema.FieldTypeText, schema.Properties{Required: true}),
		}}

		strategy, err := BuildStrategy("i485", "1.0.0", "1.1.0", changes, false)
		require.NoError(t, err)

		target, ok := strategy.FieldMappings["ssn"]
		require.True(t, ok)
		assert.Nil(t, target)
		assert.Empty(t, strategy.Transformations)
		assert.Empty(t, strategy.ValidationRules)
	})

	t.Run("type change records a required conversion", func(t *testing.T) {
		changes := []schema.FieldChange{{
			FieldID:    "age",
			ChangeType: schema.ChangeTypeModified,
			Previous:   fieldDef("age", schema.FieldTypeText, schema.Properties{}),
			New:        fieldDef("age", schema.FieldTypeNumber, schema.Properties{}),
		}}

		strategy, err := BuildStrategy("i485", "1.0.0", "1.1.0", changes, false)
		require.NoError(t, err)

		transformation := strategy.Transformations["age"]
		assert.Equal(t, schema.FieldTypeText, transformation.FromType)
		assert.Equal(t, schema.FieldTypeNumber, transformation.ToType)
		assert.True(t, transformation.ConversionRequired)
	})

	t.Run("property change records new validation rules", func(t *testing.T) {
		changes := []schema.FieldChange{{
			FieldID:    "name",
			ChangeType: schema.ChangeTypeModified,
			Previous:   fieldDef("name", schema.FieldTypeText, schema.Properties{MaxLength: intPtr(50)}),
			New:        fieldDef("name", schema.FieldTypeText, schema.Properties{MaxLength: intPtr(100)}),
		}}

		strategy, err := BuildStrategy("i485", "1.0.0", "1.1.0", changes, false)
		require.NoError(t, err)

		rules, ok := strategy.ValidationRules["name"]
		require.True(t, ok)
		assert.Equal(t, 100, *rules.MaxLength)
		assert.Empty(t, strategy.Transformations)
	})

	t.Run("rename carries a field mapping", func(t *testing.T) {
		changes := []schema.FieldChange{{
			FieldID:    "full_name",
			ChangeType: schema.ChangeTypeModified,
			Previous:   fieldDef("applicant_name", schema.FieldTypeText, schema.Properties{}),
			New:        fieldDef("full_name", schema.FieldTypeText, schema.Properties{}),
		}}

		strategy, err := BuildStrategy("i485", "1.0.0", "1.1.0", changes, false)
		require.NoError(t, err)

		target, ok := strategy.FieldMappings["applicant_name"]
		require.True(t, ok)
		require.NotNil(t, target)
		assert.Equal(t, "full_name", *target)
	})

	t.Run("added field with default records default injection", func(t *testing.T) {
		changes := []schema.FieldChange{{
			FieldID:    "age",
			ChangeType: schema.ChangeTypeAdded,
			New:        fieldDef("age", schema.FieldTypeNumber, schema.Properties{Default: 0, Required: true, Minimum: floatPtr(0)}),
		}}

		strategy, err := BuildStrategy("i485", "1.0.0", "1.1.0", changes, false)
		require.NoError(t, err)

		transformation := strategy.Transformations["age"]
		assert.Equal(t, 0, transformation.DefaultValue)
		assert.False(t, transformation.Required)

		rules, ok := strategy.ValidationRules["age"]
		require.True(t, ok)
		assert.True(t, rules.Required)
	})

	t.Run("added required field without default must be supplied", func(t *testing.T) {
		changes := []schema.FieldChange{{
			FieldID:    "email",
			ChangeType: schema.ChangeTypeAdded,
			New:        fieldDef("email", schema.FieldTypeText, schema.Properties{Required: true}),
		}}

		strategy, err := BuildStrategy("i485", "1.0.0", "1.1.0", changes, false)
		require.NoError(t, err)

		transformation := strategy.Transformations["email"]
		assert.True(t, transformation.Required)
		assert.False(t, transformation.HasDefault())
	})

	t.Run("added field without properties leaves no rules", func(t *testing.T) {
		changes := []schema.FieldChange{{
			FieldID:    "notes",
			ChangeType: schema.ChangeTypeAdded,
			New:        fieldDef("notes", schema.FieldTypeText, schema.Properties{}),
		}}

		strategy, err := BuildStrategy("i485", "1.0.0", "1.1.0", changes, false)
		require.NoError(t, err)
		assert.Empty(t, strategy.Transformations)
		assert.Empty(t, strategy.ValidationRules)
	})

	t.Run("breaking changes force manual migration", func(t *testing.T) {
		strategy, err := BuildStrategy("i485", "1.0.0", "2.0.0", nil, true)
		require.NoError(t, err)
		assert.Equal(t, TypeManual, strategy.Type)
	})

	t.Run("non-breaking changes migrate in place", func(t *testing.T) {
		strategy, err := BuildStrategy("i485", "1.0.0", "1.1.0", nil, false)
		require.NoError(t, err)
		assert.Equal(t, TypeInPlace, strategy.Type)
	})

	t.Run("identical changes build identical strategies", func(t *testing.T) {
		changes := []schema.FieldChange{{
			FieldID:    "age",
			ChangeType: schema.ChangeTypeModified,
			Previous:   fieldDef("age", schema.FieldTypeText, schema.Properties{}),
			New:        fieldDef("age", schema.FieldTypeNumber, schema.Properties{Minimum: floatPtr(0)}),
		}}

		first, err := BuildStrategy("i485", "1.0.0", "1.1.0", changes, false)
		require.NoError(t, err)
		second, err := BuildStrategy("i485", "1.0.0", "1.1.0", changes, false)
		require.NoError(t, err)

		assert.Equal(t, first.FieldMappings, second.FieldMappings)
		assert.Equal(t, first.Transformations, second.Transformations)
		assert.Equal(t, first.ValidationRules, second.ValidationRules)
	})

	t.Run("rejects identity transitions", func(t *testing.T) {
		_, err := BuildStrategy("i485", "1.0.0", "1.0.0", nil, false)
		assert.Error(t, err)
	})

	t.Run("rejects malformed changes", func(t *testing.T) {
		changes := []schema.FieldChange{{
			FieldID:    "broken",
			ChangeType: schema.ChangeTypeAdded,
		}}
		_, err := BuildStrategy("i485", "1.0.0", "1.1.0", changes, false)
		assert.Error(t, err)
	})
}
