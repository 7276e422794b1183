package migration

import "context"

// Repository defines the interface for migration strategy persistence.
// Strategies are write-once: the unique (form_type, from_version, to_version)
// key resolves racing creators, and the loser re-fetches instead of retrying.
type Repository interface {
	// Insert stores a new strategy. Returns shared.ErrAlreadyExists when a
	// strategy for the same version transition is already stored.
	Insert(ctx context.Context, strategy *Strategy) error

	// Find returns the strategy for an exact version transition
	Find(ctx context.Context, formType, fromVersion, toVersion string) (*Strategy, error)

	// FindAllByFormType returns every stored strategy for a form type;
	// together they form the version graph
	FindAllByFormType(ctx context.Context, formType string) ([]Strategy, error)
}
