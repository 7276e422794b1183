package schema

import (
	"context"
	"errors"
	"time"

	"github.com/formvault/backend/internal/domain/schema"
	"github.com/formvault/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service manages the version lifecycle of form schemas: drafts, releases,
// deprecation and structural diffs between versions.
type Service struct {
	schemas schema.Repository
	differ  *schema.Differ
	logger  *zap.Logger
}

// NewService creates a new schema Service
func NewService(schemas schema.Repository, logger *zap.Logger) *Service {
	return &Service{
		schemas: schemas,
		differ:  schema.NewDiffer(),
		logger:  logger,
	}
}

// CreateSchema stores a new schema version for a form type. The first
// version of a form type is 1.0.0; later versions bump the minor number and
// reset the patch. Major bumps are never derived here; they come from the
// explicit breaking-changes flag on strategy creation.
func (s *Service) CreateSchema(ctx context.Context, req CreateSchemaRequest) (*schema.FormSchema, error) {
	version := schema.InitialVersion()

	latest, err := s.schemas.FindLatest(ctx, req.FormType)
	switch {
	case err == nil:
		version = latest.SchemaVersion.NextMinor()
	case errors.Is(err, shared.ErrNotFound):
		// first version for this form type
	default:
		return nil, err
	}

	formSchema, err := schema.NewFormSchema(req.FormType, version, req.Fields, req.Draft)
	if err != nil {
		return nil, err
	}
	if req.CreatedBy != "" {
		formSchema.Metadata.CreatedBy = req.CreatedBy
	}

	if err := s.schemas.Insert(ctx, formSchema); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.ErrDuplicateVersion
		}
		return nil, err
	}

	s.logger.Info("Created schema version",
		zap.String("form_type", req.FormType),
		zap.String("version", formSchema.Version),
		zap.Bool("draft", req.Draft),
		zap.Int("total_fields", formSchema.TotalFields),
	)

	return formSchema, nil
}

// ReleaseSchema flips a draft to released. The repository performs the swap
// as a single conditional update guarded by the draft sentinel, so a second
// concurrent release observes ErrInvalidState instead of double-releasing.
func (s *Service) ReleaseSchema(ctx context.Context, id uuid.UUID) (*schema.FormSchema, error) {
	released, err := s.schemas.Release(ctx, id, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	s.logger.Info("Released schema version",
		zap.String("form_type", released.FormType),
		zap.String("version", released.Version),
	)

	return released, nil
}

// GetSchema returns the exact requested version, or the most recently
// released version when no version is given. Drafts are never returned as
// "latest released".
func (s *Service) GetSchema(ctx context.Context, formType string, version *schema.Version) (*schema.FormSchema, error) {
	if version != nil {
		return s.schemas.FindByVersion(ctx, formType, *version)
	}
	return s.schemas.FindLatestReleased(ctx, formType)
}

// ListVersions lists the stored versions of a form type, newest first
func (s *Service) ListVersions(ctx context.Context, formType string, includeDrafts bool) ([]VersionSummary, error) {
	schemas, err := s.schemas.FindAllByFormType(ctx, formType, includeDrafts)
	if err != nil {
		return nil, err
	}

	summaries := make([]VersionSummary, len(schemas))
	for i := range schemas {
		summaries[i] = ToVersionSummary(&schemas[i])
	}
	return summaries, nil
}

// DeprecateVersion marks a schema version as deprecated
func (s *Service) DeprecateVersion(ctx context.Context, formType string, version schema.Version) error {
	if err := s.schemas.SetDeprecated(ctx, formType, version); err != nil {
		return err
	}

	s.logger.Info("Deprecated schema version",
		zap.String("form_type", formType),
		zap.String("version", version.String()),
	)
	return nil
}

// UpdateDraftFields replaces the field set of a draft version. Released
// versions are immutable; a change to a released schema means a new version.
func (s *Service) UpdateDraftFields(ctx context.Context, id uuid.UUID, fields []schema.FieldDefinition) (*schema.FormSchema, error) {
	if err := schema.ValidateFields(fields); err != nil {
		return nil, err
	}
	return s.schemas.UpdateDraftFields(ctx, id, fields)
}

// DeleteDraft removes a draft version
func (s *Service) DeleteDraft(ctx context.Context, id uuid.UUID) error {
	return s.schemas.DeleteDraft(ctx, id)
}

// CalculateDiff computes the field changes between two stored versions of a
// form type. Identical versions produce an empty change list, which is a
// valid result rather than an error.
func (s *Service) CalculateDiff(ctx context.Context, formType string, fromVersion, toVersion schema.Version) ([]schema.FieldChange, error) {
	oldSchema, err := s.schemas.FindByVersion(ctx, formType, fromVersion)
	if err != nil {
		return nil, err
	}
	newSchema, err := s.schemas.FindByVersion(ctx, formType, toVersion)
	if err != nil {
		return nil, err
	}

	return s.differ.Diff(oldSchema, newSchema), nil
}

// Diff computes field changes between two field sets without touching the
// store. Used when the caller already holds both schemas.
func (s *Service) Diff(oldFields, newFields []schema.FieldDefinition) []schema.FieldChange {
	return s.differ.DiffFields(oldFields, newFields)
}
