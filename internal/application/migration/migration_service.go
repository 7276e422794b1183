package migration

import (
	"context"
	"errors"

	"github.com/formvault/backend/internal/domain/migration"
	"github.com/formvault/backend/internal/domain/schema"
	"github.com/formvault/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Service derives, stores and applies migration strategies between schema
// versions of a form type.
type Service struct {
	strategies migration.Repository
	schemas    schema.Repository
	differ     *schema.Differ
	logger     *zap.Logger
}

// NewService creates a new migration Service
func NewService(strategies migration.Repository, schemas schema.Repository, logger *zap.Logger) *Service {
	return &Service{
		strategies: strategies,
		schemas:    schemas,
		differ:     schema.NewDiffer(),
		logger:     logger,
	}
}

// CreateStrategy diffs two stored schema versions and derives the strategy
// for migrating between them. The strategy is returned without being stored;
// StoreStrategy or GetOrCreateStrategy persists it.
func (s *Service) CreateStrategy(ctx context.Context, req CreateStrategyRequest) (*migration.Strategy, error) {
	fromVersion, err := schema.ParseVersion(req.FromVersion)
	if err != nil {
		return nil, err
	}
	toVersion, err := schema.ParseVersion(req.ToVersion)
	if err != nil {
		return nil, err
	}

	oldSchema, err := s.schemas.FindByVersion(ctx, req.FormType, fromVersion)
	if err != nil {
		return nil, err
	}
	newSchema, err := s.schemas.FindByVersion(ctx, req.FormType, toVersion)
	if err != nil {
		return nil, err
	}

	changes := s.differ.Diff(oldSchema, newSchema)
	strategy, err := migration.BuildStrategy(req.FormType, req.FromVersion, req.ToVersion, changes, req.BreakingChanges)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Derived migration strategy",
		zap.String("form_type", req.FormType),
		zap.String("from_version", req.FromVersion),
		zap.String("to_version", req.ToVersion),
		zap.String("migration_type", string(strategy.Type)),
		zap.Int("changes", len(changes)),
	)

	return strategy, nil
}

// StoreStrategy persists a derived strategy as one edge of the version graph
func (s *Service) StoreStrategy(ctx context.Context, strategy *migration.Strategy) error {
	return s.strategies.Insert(ctx, strategy)
}

// GetOrCreateStrategy returns the stored strategy for a transition, deriving
// and storing it on first use. When two callers race on the same transition
// the unique edge index lets exactly one insert win; the loser re-fetches the
// winner's row so both observe the same strategy.
func (s *Service) GetOrCreateStrategy(ctx context.Context, req CreateStrategyRequest) (*migration.Strategy, error) {
	existing, err := s.strategies.Find(ctx, req.FormType, req.FromVersion, req.ToVersion)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	strategy, err := s.CreateStrategy(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.strategies.Insert(ctx, strategy); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return s.strategies.Find(ctx, req.FormType, req.FromVersion, req.ToVersion)
		}
		return nil, err
	}

	return strategy, nil
}

// MigrationPath resolves the shortest chain of stored strategies leading from
// one version to another. An identity transition yields an empty chain; an
// unreachable target yields shared.ErrNoMigrationPath.
func (s *Service) MigrationPath(ctx context.Context, formType, fromVersion, toVersion string) ([]migration.Strategy, error) {
	if fromVersion == toVersion {
		return []migration.Strategy{}, nil
	}

	strategies, err := s.strategies.FindAllByFormType(ctx, formType)
	if err != nil {
		return nil, err
	}

	path := migration.FindPath(strategies, fromVersion, toVersion)
	if len(path) == 0 {
		return nil, shared.ErrNoMigrationPath
	}
	return path, nil
}

// Validate dry-runs a migration and reports every problem the record would
// hit on the way, without touching the record or the store.
func (s *Service) Validate(ctx context.Context, formType, fromVersion, toVersion string, data map[string]any) (*ValidationResult, error) {
	path, err := s.MigrationPath(ctx, formType, fromVersion, toVersion)
	if err != nil {
		if errors.Is(err, shared.ErrNoMigrationPath) {
			return &ValidationResult{Valid: false, Errors: []string{"No migration path found"}}, nil
		}
		return nil, err
	}

	errs := migration.ValidateChain(path, data)
	return &ValidationResult{Valid: len(errs) == 0, Errors: errs}, nil
}

// Migrate validates and then applies the strategy chain to a record,
// returning the migrated copy. Validation failures surface as a single
// shared.ValidationError carrying every problem found; the input record is
// never modified, not even on success.
func (s *Service) Migrate(ctx context.Context, formType, fromVersion, toVersion string, data map[string]any) (map[string]any, error) {
	path, err := s.MigrationPath(ctx, formType, fromVersion, toVersion)
	if err != nil {
		if errors.Is(err, shared.ErrNoMigrationPath) {
			return nil, shared.NewValidationError([]string{"No migration path found"})
		}
		return nil, err
	}

	if errs := migration.ValidateChain(path, data); len(errs) > 0 {
		return nil, shared.NewValidationError(errs)
	}

	migrated, err := migration.ExecuteChain(path, data)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Migrated record",
		zap.String("form_type", formType),
		zap.String("from_version", fromVersion),
		zap.String("to_version", toVersion),
		zap.Int("hops", len(path)),
	)

	return migrated, nil
}
