package schema

import "github.com/formvault/backend/internal/domain/shared"

// ChangeType classifies a structural difference between two schema versions
type ChangeType string

const (
	ChangeTypeAdded    ChangeType = "added"
	ChangeTypeRemoved  ChangeType = "removed"
	ChangeTypeModified ChangeType = "modified"
)

// IsValid reports whether the change type is supported
func (t ChangeType) IsValid() bool {
	switch t {
	case ChangeTypeAdded, ChangeTypeRemoved, ChangeTypeModified:
		return true
	}
	return false
}

// FieldChange records one structural difference between two schema versions.
// For a rename detected by similarity matching, FieldID is the new id and
// Previous carries the definition under the old id.
type FieldChange struct {
	FieldID    string           `json:"field_id"`
	ChangeType ChangeType       `json:"change_type"`
	Previous   *FieldDefinition `json:"previous_value,omitempty"`
	New        *FieldDefinition `json:"new_value,omitempty"`
}

// Validate checks the change against its shape invariants: added changes
// have no previous value, removed changes have no new value, and modified
// changes carry both
func (c FieldChange) Validate() error {
	if !c.ChangeType.IsValid() {
		return shared.NewDomainError("INVALID_CHANGE_TYPE", "Unknown change type: "+string(c.ChangeType))
	}

	switch c.ChangeType {
	case ChangeTypeAdded:
		if c.Previous != nil || c.New == nil {
			return shared.NewDomainError("INVALID_CHANGE", "Added change must carry only a new value")
		}
	case ChangeTypeRemoved:
		if c.Previous == nil || c.New != nil {
			return shared.NewDomainError("INVALID_CHANGE", "Removed change must carry only a previous value")
		}
	case ChangeTypeModified:
		if c.Previous == nil || c.New == nil {
			return shared.NewDomainError("INVALID_CHANGE", "Modified change must carry both values")
		}
	}
	return nil
}

// IsRename reports whether a modified change matched two different field ids
func (c FieldChange) IsRename() bool {
	return c.ChangeType == ChangeTypeModified &&
		c.Previous != nil && c.New != nil &&
		c.Previous.FieldID != c.New.FieldID
}
