package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textField(id, label string) FieldDefinition {
	return FieldDefinition{FieldID: id, FieldType: FieldTypeText, Label: label}
}

func TestDiffIdenticalSchemas(t *testing.T) {
	fields := []FieldDefinition{
		textField("name", "Name"),
		{FieldID: "age", FieldType: FieldTypeNumber, Properties: Properties{Minimum: floatPtr(0)}},
	}

	changes := NewDiffer().DiffFields(fields, fields)
	assert.Empty(t, changes)
}

func TestDiffModified(t *testing.T) {
	old := []FieldDefinition{{FieldID: "name", FieldType: FieldTypeText, Properties: Properties{MaxLength: intPtr(50)}}}
	updated := []FieldDefinition{{FieldID: "name", FieldType: FieldTypeText, Properties: Properties{MaxLength: intPtr(100)}}}

	changes := NewDiffer().DiffFields(old, updated)
	require.Len(t, changes, 1)
	assert.Equal(t, ChangeTypeModified, changes[0].ChangeType)
	assert.Equal(t, "name", changes[0].FieldID)
	assert.Equal(t, 50, *changes[0].Previous.Properties.MaxLength)
	assert.Equal(t, 100, *changes[0].New.Properties.MaxLength)
}

func TestDiffAddedAndRemoved(t *testing.T) {
	old := []FieldDefinition{textField("ssn", "Social Security Number")}
	updated := []FieldDefinition{{FieldID: "age", FieldType: FieldTypeNumber, Label: "Age"}}

	changes := NewDiffer().DiffFields(old, updated)
	require.Len(t, changes, 2)

	assert.Equal(t, ChangeTypeAdded, changes[0].ChangeType)
	assert.Equal(t, "age", changes[0].FieldID)
	assert.Nil(t, changes[0].Previous)

	assert.Equal(t, ChangeTypeRemoved, changes[1].ChangeType)
	assert.Equal(t, "ssn", changes[1].FieldID)
	assert.Nil(t, changes[1].New)
}

func TestDiffRenameDetection(t *testing.T) {
	t.Run("near-identical labels collapse into one modified change", func(t *testing.T) {
		old := []FieldDefinition{textField("applicant_name", "Applicant Name")}
		updated := []FieldDefinition{textField("full_name", "Applicant Names")}

		changes := NewDiffer().DiffFields(old, updated)
		require.Len(t, changes, 1)
		assert.Equal(t, ChangeTypeModified, changes[0].ChangeType)
		assert.Equal(t, "full_name", changes[0].FieldID)
		assert.Equal(t, "applicant_name", changes[0].Previous.FieldID)
		assert.True(t, changes[0].IsRename())
	})

	t.Run("similarity is case and formatting insensitive", func(t *testing.T) {
		old := []FieldDefinition{textField("f1", "Date-of-Birth")}
		updated := []FieldDefinition{textField("f2", "date of birth")}

		changes := NewDiffer().DiffFields(old, updated)
		require.Len(t, changes, 1)
		assert.Equal(t, ChangeTypeModified, changes[0].ChangeType)
	})

	t.Run("dissimilar fields stay added plus removed", func(t *testing.T) {
		old := []FieldDefinition{textField("ssn", "Social Security Number")}
		updated := []FieldDefinition{textField("zip", "Postal Code")}

		changes := NewDiffer().DiffFields(old, updated)
		require.Len(t, changes, 2)
		assert.Equal(t, ChangeTypeAdded, changes[0].ChangeType)
		assert.Equal(t, ChangeTypeRemoved, changes[1].ChangeType)
	})

	t.Run("ties break to the lowest old field id", func(t *testing.T) {
		old := []FieldDefinition{
			textField("b_name", "Customer Name"),
			textField("a_name", "Customer Name"),
		}
		updated := []FieldDefinition{
			textField("c_name", "Customer Name"),
			textField("d_name", "Customer Name"),
		}

		changes := NewDiffer().DiffFields(old, updated)
		require.Len(t, changes, 2)
		assert.Equal(t, "a_name", changes[0].Previous.FieldID)
		assert.Equal(t, "b_name", changes[1].Previous.FieldID)
	})

	t.Run("a consumed old field is not matched twice", func(t *testing.T) {
		old := []FieldDefinition{textField("old_name", "Name")}
		updated := []FieldDefinition{
			textField("new_name", "Name"),
			textField("alt_name", "Name"),
		}

		changes := NewDiffer().DiffFields(old, updated)
		require.Len(t, changes, 2)
		assert.Equal(t, ChangeTypeModified, changes[0].ChangeType)
		assert.Equal(t, "old_name", changes[0].Previous.FieldID)
		assert.Equal(t, ChangeTypeAdded, changes[1].ChangeType)
		assert.Equal(t, "alt_name", changes[1].FieldID)
	})
}

// Every field id from either side must appear in exactly one change, or in
// none when the field is unchanged.
func TestDiffCompleteness(t *testing.T) {
	old := []FieldDefinition{
		textField("unchanged", "Stays"),
		{FieldID: "retyped", FieldType: FieldTypeText},
		textField("dropped", "Completely Unrelated Label"),
		textField("first_name", "First Name"),
	}
	updated := []FieldDefinition{
		textField("unchanged", "Stays"),
		{FieldID: "retyped", FieldType: FieldTypeNumber},
		textField("given_name", "First Name"),
		{FieldID: "brand_new", FieldType: FieldTypeBoolean, Label: "Nothing Like The Others"},
	}

	changes := NewDiffer().DiffFields(old, updated)

	seen := map[string]int{}
	for _, c := range changes {
		require.NoError(t, c.Validate())
		seen[c.FieldID]++
		if c.Previous != nil {
			if c.Previous.FieldID != c.FieldID {
				seen[c.Previous.FieldID]++
			}
		}
	}

	for id, count := range seen {
		assert.Equal(t, 1, count, "field %s appears in %d changes", id, count)
	}
	assert.NotContains(t, seen, "unchanged")
	assert.Contains(t, seen, "retyped")
	assert.Contains(t, seen, "dropped")
	assert.Contains(t, seen, "first_name")
	assert.Contains(t, seen, "given_name")
	assert.Contains(t, seen, "brand_new")
}

func TestDiffThreshold(t *testing.T) {
	differ := &Differ{SimilarityThreshold: 0.99}
	old := []FieldDefinition{textField("f1", "Applicant Name")}
	updated := []FieldDefinition{textField("f2", "Applicant Names")}

	changes := differ.DiffFields(old, updated)
	require.Len(t, changes, 2)
	assert.Equal(t, ChangeTypeAdded, changes[0].ChangeType)
}
