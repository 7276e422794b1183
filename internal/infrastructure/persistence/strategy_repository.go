package persistence

import (
	"context"
	"errors"

	"github.com/formvault/backend/internal/domain/migration"
	"github.com/formvault/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStrategyRepository implements migration.Repository using GORM
type GormStrategyRepository struct {
	db *gorm.DB
}

// NewGormStrategyRepository creates a new GormStrategyRepository
func NewGormStrategyRepository(db *gorm.DB) *GormStrategyRepository {
	return &GormStrategyRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormStrategyRepository) WithTx(tx *gorm.DB) *GormStrategyRepository {
	return &GormStrategyRepository{db: tx}
}

// Insert stores a new strategy. The unique index on the version transition
// lets exactly one of two racing creators win; the loser sees
// shared.ErrAlreadyExists and re-fetches.
func (r *GormStrategyRepository) Insert(ctx context.Context, strategy *migration.Strategy) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "form_type"},
				{Name: "from_version"},
				{Name: "to_version"},
			},
			DoNothing: true,
		}).
		Create(strategy)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrAlreadyExists
	}
	return nil
}

// Find returns the strategy for an exact version transition
func (r *GormStrategyRepository) Find(ctx context.Context, formType, fromVersion, toVersion string) (*migration.Strategy, error) {
	var strategy migration.Strategy
	err := r.db.WithContext(ctx).
		Where("form_type = ? AND from_version = ? AND to_version = ?", formType, fromVersion, toVersion).
		First(&strategy).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &strategy, nil
}

// FindAllByFormType returns every stored strategy for a form type
func (r *GormStrategyRepository) FindAllByFormType(ctx context.Context, formType string) ([]migration.Strategy, error) {
	var strategies []migration.Strategy
	err := r.db.WithContext(ctx).
		Where("form_type = ?", formType).
		Order("from_version, to_version").
		Find(&strategies).Error
	if err != nil {
		return nil, err
	}
	return strategies, nil
}

// Ensure GormStrategyRepository implements migration.Repository
var _ migration.Repository = (*GormStrategyRepository)(nil)
