package schema

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/formvault/backend/internal/domain/shared"
)

// FieldType classifies the kind of value a field holds
type FieldType string

const (
	FieldTypeText      FieldType = "text"
	FieldTypeNumber    FieldType = "number"
	FieldTypeDate      FieldType = "date"
	FieldTypeBoolean   FieldType = "boolean"
	FieldTypeSelection FieldType = "selection"
	FieldTypeComposite FieldType = "composite"
)

// IsValid reports whether the field type is one of the supported kinds
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeBoolean, FieldTypeSelection, FieldTypeComposite:
		return true
	}
	return false
}

// Position locates a field on its page
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Properties is the closed set of constraints a field definition can carry.
// Keeping the shape closed lets the diff engine and the validator match on
// known constraints instead of probing an open mapping for optional keys.
type Properties struct {
	MaxLength *int     `json:"maxLength,omitempty"`
	MinLength *int     `json:"minLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Minimum   *float64 `json:"minimum,omitempty"`
	Maximum   *float64 `json:"maximum,omitempty"`
	Default   any      `json:"default,omitempty"`
	Required  bool     `json:"required,omitempty"`
	Options   []string `json:"options,omitempty"`
}

// IsZero reports whether no constraint is set
func (p Properties) IsZero() bool {
	return p.MaxLength == nil && p.MinLength == nil && p.Pattern == "" &&
		p.Minimum == nil && p.Maximum == nil && p.Default == nil &&
		!p.Required && len(p.Options) == 0
}

// HasDefault reports whether the field declares a default value
func (p Properties) HasDefault() bool {
	return p.Default != nil
}

// Equal reports whether two property sets carry the same constraints
func (p Properties) Equal(other Properties) bool {
	return reflect.DeepEqual(p, other)
}

// FieldDefinition describes a single field of a form schema.
// FieldID is the stable identity used for diffing between versions.
type FieldDefinition struct {
	FieldID    string     `json:"field_id"`
	FieldType  FieldType  `json:"field_type"`
	Label      string     `json:"label,omitempty"`
	Properties Properties `json:"properties,omitempty"`
	Position   *Position  `json:"position,omitempty"`
	PageNumber int        `json:"page_number,omitempty"`
	Tooltip    string     `json:"tooltip,omitempty"`
}

// Validate checks the definition's shape
func (f FieldDefinition) Validate() error {
	if strings.TrimSpace(f.FieldID) == "" {
		return shared.NewDomainError("INVALID_FIELD_ID", "Field ID cannot be empty")
	}
	if !f.FieldType.IsValid() {
		return shared.NewDomainError("INVALID_FIELD_TYPE", "Unknown field type: "+string(f.FieldType))
	}
	if f.PageNumber < 0 {
		return shared.NewDomainError("INVALID_PAGE_NUMBER", "Page number cannot be negative")
	}
	return nil
}

// StructurallyEqual compares everything except the field id. Two fields with
// different ids but equal structure are rename candidates.
func (f FieldDefinition) StructurallyEqual(other FieldDefinition) bool {
	return f.FieldType == other.FieldType &&
		f.Label == other.Label &&
		f.Properties.Equal(other.Properties) &&
		reflect.DeepEqual(f.Position, other.Position) &&
		f.PageNumber == other.PageNumber &&
		f.Tooltip == other.Tooltip
}

// FieldDefinitions is the ordered field set of one schema version,
// stored as a JSONB column
type FieldDefinitions []FieldDefinition

// Value implements driver.Valuer for JSONB storage
func (f FieldDefinitions) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	return json.Marshal(f)
}

// Scan implements sql.Scanner for JSONB storage
func (f *FieldDefinitions) Scan(value interface{}) error {
	if value == nil {
		*f = FieldDefinitions{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan FieldDefinitions: unsupported type")
	}

	if len(bytes) == 0 {
		*f = FieldDefinitions{}
		return nil
	}

	return json.Unmarshal(bytes, f)
}
