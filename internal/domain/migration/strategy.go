package migration

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"

	"github.com/formvault/backend/internal/domain/schema"
	"github.com/formvault/backend/internal/domain/shared"
)

// Type classifies how a migration is applied
type Type string

const (
	// TypeInPlace migrates records immediately when requested
	TypeInPlace Type = "in_place"
	// TypeLazy migrates records as they are accessed
	TypeLazy Type = "lazy"
	// TypeManual requires operator intervention before data can move
	TypeManual Type = "manual"
)

// IsValid reports whether the migration type is supported
func (t Type) IsValid() bool {
	switch t {
	case TypeInPlace, TypeLazy, TypeManual:
		return true
	}
	return false
}

// Transformation is one statically-dispatched rule applied to a field during
// migration. The rule set is closed: type casts, default injection and the
// required marker are the only operations, never dynamic expressions.
type Transformation struct {
	FromType           schema.FieldType `json:"from_type,omitempty"`
	ToType             schema.FieldType `json:"to_type,omitempty"`
	ConversionRequired bool             `json:"conversion_required,omitempty"`
	DefaultValue       any              `json:"default_value,omitempty"`
	Required           bool             `json:"required,omitempty"`
}

// HasDefault reports whether the rule injects a default for missing values
func (t Transformation) HasDefault() bool {
	return t.DefaultValue != nil
}

// FieldMappings maps old field ids to new field ids. A nil target means the
// field is dropped on migration. Stored as a JSONB column.
type FieldMappings map[string]*string

// Value implements driver.Valuer for JSONB storage
func (m FieldMappings) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB storage
func (m *FieldMappings) Scan(value interface{}) error {
	return scanJSONMap(value, m, "FieldMappings")
}

// Transformations maps field ids to their transformation rules,
// stored as a JSONB column
type Transformations map[string]Transformation

// Value implements driver.Valuer for JSONB storage
func (t Transformations) Value() (driver.Value, error) {
	if t == nil {
		return "{}", nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner for JSONB storage
func (t *Transformations) Scan(value interface{}) error {
	return scanJSONMap(value, t, "Transformations")
}

// ValidationRules maps field ids to the constraint set enforced after
// migration, stored as a JSONB column
type ValidationRules map[string]schema.Properties

// Value implements driver.Valuer for JSONB storage
func (r ValidationRules) Value() (driver.Value, error) {
	if r == nil {
		return "{}", nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB storage
func (r *ValidationRules) Scan(value interface{}) error {
	return scanJSONMap(value, r, "ValidationRules")
}

// scanJSONMap decodes a JSONB column into the given map target
func scanJSONMap(value interface{}, target any, name string) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan " + name + ": unsupported type")
	}

	if len(bytes) == 0 {
		return nil
	}

	return json.Unmarshal(bytes, target)
}

// Strategy describes how to migrate data across one version transition of a
// form type. Each strategy is exactly one directed edge in the version graph
// and is immutable once stored.
type Strategy struct {
	shared.BaseEntity
	FormType        string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_migration_strategies_edge,priority:1"`
	FromVersion     string          `gorm:"type:varchar(32);not null;uniqueIndex:idx_migration_strategies_edge,priority:2"`
	ToVersion       string          `gorm:"type:varchar(32);not null;uniqueIndex:idx_migration_strategies_edge,priority:3"`
	Type            Type            `gorm:"column:migration_type;type:varchar(20);not null"`
	FieldMappings   FieldMappings   `gorm:"type:jsonb;not null"`
	Transformations Transformations `gorm:"type:jsonb;not null"`
	ValidationRules ValidationRules `gorm:"type:jsonb;not null"`
}

// TableName returns the table name for GORM
func (Strategy) TableName() string {
	return "migration_strategies"
}

// NewStrategy creates an empty strategy for a version transition
func NewStrategy(formType, fromVersion, toVersion string, migrationType Type) (*Strategy, error) {
	if strings.TrimSpace(formType) == "" {
		return nil, shared.NewDomainError("INVALID_FORM_TYPE", "Form type cannot be empty")
	}
	if fromVersion == "" || toVersion == "" {
		return nil, shared.NewDomainError("INVALID_VERSION", "From and to versions are required")
	}
	if fromVersion == toVersion {
		return nil, shared.NewDomainError("INVALID_VERSION", "From and to versions must differ")
	}
	if !migrationType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MIGRATION_TYPE", "Unknown migration type: "+string(migrationType))
	}

	return &Strategy{
		BaseEntity:      shared.NewBaseEntity(),
		FormType:        formType,
		FromVersion:     fromVersion,
		ToVersion:       toVersion,
		Type:            migrationType,
		FieldMappings:   FieldMappings{},
		Transformations: Transformations{},
		ValidationRules: ValidationRules{},
	}, nil
}
