package migration

import (
	"github.com/formvault/backend/internal/domain/schema"
)

// BuildStrategy derives a migration strategy from the field changes between
// two schema versions. Deriving a strategy twice from the same changes yields
// the same mappings, transformations and validation rules.
//
// Breaking changes force manual migration; everything else migrates in place.
func BuildStrategy(formType, fromVersion, toVersion string, changes []schema.FieldChange, breakingChanges bool) (*Strategy, error) {
	migrationType := TypeInPlace
	if breakingChanges {
		migrationType = TypeManual
	}

	strategy, err := NewStrategy(formType, fromVersion, toVersion, migrationType)
	if err != nil {
		return nil, err
	}

	for _, change := range changes {
		if err := change.Validate(); err != nil {
			return nil, err
		}

		switch change.ChangeType {
		case schema.ChangeTypeModified:
			oldField := *change.Previous
			newField := *change.New

			// A rename carries its old id so migration can move the value
			if change.IsRename() {
				target := newField.FieldID
				strategy.FieldMappings[oldField.FieldID] = &target
			}

			if oldField.FieldType != newField.FieldType {
				strategy.Transformations[change.FieldID] = Transformation{
					FromType:           oldField.FieldType,
					ToType:             newField.FieldType,
					ConversionRequired: true,
				}
			}

			if !oldField.Properties.Equal(newField.Properties) {
				strategy.ValidationRules[change.FieldID] = newField.Properties
			}

		case schema.ChangeTypeRemoved:
			// Removed fields are dropped on migration, never validated
			strategy.FieldMappings[change.FieldID] = nil

		case schema.ChangeTypeAdded:
			props := change.New.Properties
			if props.HasDefault() {
				strategy.Transformations[change.FieldID] = Transformation{
					DefaultValue: props.Default,
				}
			} else if props.Required {
				strategy.Transformations[change.FieldID] = Transformation{
					Required: true,
				}
			}

			if !props.IsZero() {
				strategy.ValidationRules[change.FieldID] = props
			}
		}
	}

	return strategy, nil
}
