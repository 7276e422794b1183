package schema

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for form schema persistence
type Repository interface {
	// Insert stores a new schema version. Returns shared.ErrAlreadyExists
	// when the (form_type, version) pair is already taken.
	Insert(ctx context.Context, schema *FormSchema) error

	// FindByID finds a schema version by its document id
	FindByID(ctx context.Context, id uuid.UUID) (*FormSchema, error)

	// FindByVersion finds the exact schema version for a form type
	FindByVersion(ctx context.Context, formType string, version Version) (*FormSchema, error)

	// FindLatest finds the highest version for a form type, drafts included
	FindLatest(ctx context.Context, formType string) (*FormSchema, error)

	// FindLatestReleased finds the highest released version for a form type,
	// excluding drafts
	FindLatestReleased(ctx context.Context, formType string) (*FormSchema, error)

	// FindAllByFormType lists schema versions for a form type ordered by
	// version descending
	FindAllByFormType(ctx context.Context, formType string, includeDrafts bool) ([]FormSchema, error)

	// Release atomically replaces the draft sentinel with the release time.
	// Returns shared.ErrInvalidState when the schema was already released.
	Release(ctx context.Context, id uuid.UUID, releasedAt time.Time) (*FormSchema, error)

	// UpdateDraftFields replaces the field set of a draft version
	UpdateDraftFields(ctx context.Context, id uuid.UUID, fields FieldDefinitions) (*FormSchema, error)

	// DeleteDraft deletes a draft version. Released versions cannot be deleted.
	DeleteDraft(ctx context.Context, id uuid.UUID) error

	// SetDeprecated marks a schema version as deprecated
	SetDeprecated(ctx context.Context, formType string, version Version) error
}
