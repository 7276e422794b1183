package schema

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/formvault/backend/internal/domain/shared"
)

// Metadata carries document-level bookkeeping for a schema version,
// stored as a JSONB column
type Metadata struct {
	Draft     bool   `json:"draft"`
	CreatedBy string `json:"created_by,omitempty"`
	Source    string `json:"source,omitempty"`
}

// Value implements driver.Valuer for JSONB storage
func (m Metadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB storage
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan Metadata: unsupported type")
	}

	if len(bytes) == 0 {
		*m = Metadata{}
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// FormSchema is one version of the field set for a form type.
// Released versions are never mutated in place; a change always produces
// a new version.
type FormSchema struct {
	shared.BaseEntity
	FormType      string           `gorm:"type:varchar(100);not null;uniqueIndex:idx_form_schemas_version,priority:1"`
	SchemaVersion Version          `gorm:"embedded;embeddedPrefix:version_"`
	Version       string           `gorm:"type:varchar(32);not null"`
	Fields        FieldDefinitions `gorm:"type:jsonb;not null"`
	TotalFields   int              `gorm:"not null"`
	Metadata      Metadata         `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (FormSchema) TableName() string {
	return "form_schemas"
}

// NewFormSchema creates a schema version. Drafts keep the sentinel release
// timestamp until ReleaseSchema replaces it with the release time.
func NewFormSchema(formType string, version Version, fields []FieldDefinition, draft bool) (*FormSchema, error) {
	if strings.TrimSpace(formType) == "" {
		return nil, shared.NewDomainError("INVALID_FORM_TYPE", "Form type cannot be empty")
	}
	if err := ValidateFields(fields); err != nil {
		return nil, err
	}

	if draft {
		version.Released = DraftSentinel
	} else {
		version.Released = time.Now().UTC()
	}

	return &FormSchema{
		BaseEntity:    shared.NewBaseEntity(),
		FormType:      formType,
		SchemaVersion: version,
		Version:       version.String(),
		Fields:        fields,
		TotalFields:   len(fields),
		Metadata:      Metadata{Draft: draft},
	}, nil
}

// IsDraft reports whether the schema has not been released yet
func (s *FormSchema) IsDraft() bool {
	return s.SchemaVersion.IsDraft()
}

// FieldByID returns the definition with the given id, if present
func (s *FormSchema) FieldByID(fieldID string) (FieldDefinition, bool) {
	for _, f := range s.Fields {
		if f.FieldID == fieldID {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// ReplaceFields swaps the field set of a draft version. Released versions
// are immutable.
func (s *FormSchema) ReplaceFields(fields []FieldDefinition) error {
	if !s.IsDraft() {
		return shared.NewDomainError("SCHEMA_RELEASED", "Cannot modify fields of a released schema")
	}
	if err := ValidateFields(fields); err != nil {
		return err
	}

	s.Fields = fields
	s.TotalFields = len(fields)
	s.UpdatedAt = time.Now()
	return nil
}

// ValidateFields checks every definition and the uniqueness of field ids
// within the schema
func ValidateFields(fields []FieldDefinition) error {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if err := f.Validate(); err != nil {
			return err
		}
		if _, ok := seen[f.FieldID]; ok {
			return shared.NewDomainError("DUPLICATE_FIELD_ID", "Duplicate field ID: "+f.FieldID)
		}
		seen[f.FieldID] = struct{}{}
	}
	return nil
}
