package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/formvault/backend/internal/domain/schema"
	"github.com/formvault/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSchemaRepository implements schema.Repository using GORM
type GormSchemaRepository struct {
	db *gorm.DB
}

// NewGormSchemaRepository creates a new GormSchemaRepository
func NewGormSchemaRepository(db *gorm.DB) *GormSchemaRepository {
	return &GormSchemaRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormSchemaRepository) WithTx(tx *gorm.DB) *GormSchemaRepository {
	return &GormSchemaRepository{db: tx}
}

// Insert stores a new schema version. The unique index on the form type and
// version triple resolves concurrent inserts of the same version.
func (r *GormSchemaRepository) Insert(ctx context.Context, s *schema.FormSchema) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "form_type"},
				{Name: "version_major"},
				{Name: "version_minor"},
				{Name: "version_patch"},
			},
			DoNothing: true,
		}).
		Create(s)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrAlreadyExists
	}
	return nil
}

// FindByID finds a schema version by its document id
func (r *GormSchemaRepository) FindByID(ctx context.Context, id uuid.UUID) (*schema.FormSchema, error) {
	var s schema.FormSchema
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// FindByVersion finds the exact schema version for a form type
func (r *GormSchemaRepository) FindByVersion(ctx context.Context, formType string, version schema.Version) (*schema.FormSchema, error) {
	var s schema.FormSchema
	err := r.db.WithContext(ctx).
		Where("form_type = ? AND version_major = ? AND version_minor = ? AND version_patch = ?",
			formType, version.Major, version.Minor, version.Patch).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// FindLatest finds the highest version for a form type, drafts included
func (r *GormSchemaRepository) FindLatest(ctx context.Context, formType string) (*schema.FormSchema, error) {
	var s schema.FormSchema
	err := r.db.WithContext(ctx).
		Where("form_type = ?", formType).
		Order("version_major DESC, version_minor DESC, version_patch DESC").
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// FindLatestReleased finds the highest released version for a form type.
// Drafts carry the far-future sentinel release timestamp and never match.
func (r *GormSchemaRepository) FindLatestReleased(ctx context.Context, formType string) (*schema.FormSchema, error) {
	var s schema.FormSchema
	err := r.db.WithContext(ctx).
		Where("form_type = ? AND version_released < ?", formType, schema.DraftSentinel).
		Order("version_major DESC, version_minor DESC, version_patch DESC").
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// FindAllByFormType lists schema versions for a form type ordered by version
// descending
func (r *GormSchemaRepository) FindAllByFormType(ctx context.Context, formType string, includeDrafts bool) ([]schema.FormSchema, error) {
	query := r.db.WithContext(ctx).
		Where("form_type = ?", formType).
		Order("version_major DESC, version_minor DESC, version_patch DESC")
	if !includeDrafts {
		query = query.Where("version_released < ?", schema.DraftSentinel)
	}

	var schemas []schema.FormSchema
	if err := query.Find(&schemas).Error; err != nil {
		return nil, err
	}
	return schemas, nil
}

// Release atomically replaces the draft sentinel with the release time. The
// sentinel guard makes a second concurrent release lose with zero rows
// affected instead of overwriting the first release timestamp.
func (r *GormSchemaRepository) Release(ctx context.Context, id uuid.UUID, releasedAt time.Time) (*schema.FormSchema, error) {
	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	metadata := existing.Metadata
	metadata.Draft = false

	result := r.db.WithContext(ctx).
		Model(&schema.FormSchema{}).
		Where("id = ? AND version_released = ?", id, schema.DraftSentinel).
		Updates(map[string]any{
			"version_released": releasedAt,
			"metadata":         metadata,
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, shared.ErrInvalidState
	}

	return r.FindByID(ctx, id)
}

// UpdateDraftFields replaces the field set of a draft version. Released
// versions are immutable and report ErrInvalidState.
func (r *GormSchemaRepository) UpdateDraftFields(ctx context.Context, id uuid.UUID, fields schema.FieldDefinitions) (*schema.FormSchema, error) {
	result := r.db.WithContext(ctx).
		Model(&schema.FormSchema{}).
		Where("id = ? AND version_released = ?", id, schema.DraftSentinel).
		Updates(map[string]any{
			"fields":       fields,
			"total_fields": len(fields),
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, shared.ErrInvalidState
	}

	return r.FindByID(ctx, id)
}

// DeleteDraft deletes a draft version. Released versions cannot be deleted.
func (r *GormSchemaRepository) DeleteDraft(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND version_released = ?", id, schema.DraftSentinel).
		Delete(&schema.FormSchema{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return shared.ErrInvalidState
	}
	return nil
}

// SetDeprecated marks a schema version as deprecated
func (r *GormSchemaRepository) SetDeprecated(ctx context.Context, formType string, version schema.Version) error {
	result := r.db.WithContext(ctx).
		Model(&schema.FormSchema{}).
		Where("form_type = ? AND version_major = ? AND version_minor = ? AND version_patch = ?",
			formType, version.Major, version.Minor, version.Patch).
		Updates(map[string]any{
			"version_deprecated": true,
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormSchemaRepository implements schema.Repository
var _ schema.Repository = (*GormSchemaRepository)(nil)
