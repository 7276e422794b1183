package schema

import (
	"time"

	"github.com/formvault/backend/internal/domain/schema"
)

// CreateSchemaRequest carries the input for a new schema version. Field
// lists typically come from the upstream document extraction pipeline.
type CreateSchemaRequest struct {
	FormType  string                   `json:"form_type"`
	Fields    []schema.FieldDefinition `json:"fields"`
	Draft     bool                     `json:"draft"`
	CreatedBy string                   `json:"created_by,omitempty"`
}

// VersionSummary is the projection returned when listing schema versions
type VersionSummary struct {
	Version     string    `json:"version"`
	Released    time.Time `json:"released"`
	Draft       bool      `json:"draft"`
	Deprecated  bool      `json:"deprecated"`
	TotalFields int       `json:"total_fields"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToVersionSummary converts a stored schema into its listing projection
func ToVersionSummary(s *schema.FormSchema) VersionSummary {
	return VersionSummary{
		Version:     s.Version,
		Released:    s.SchemaVersion.Released,
		Draft:       s.IsDraft(),
		Deprecated:  s.SchemaVersion.Deprecated,
		TotalFields: s.TotalFields,
		CreatedAt:   s.CreatedAt,
	}
}
