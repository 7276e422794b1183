package migration

// CreateStrategyRequest carries the input for deriving a migration strategy
// between two stored schema versions
type CreateStrategyRequest struct {
	FormType        string `json:"form_type"`
	FromVersion     string `json:"from_version"`
	ToVersion       string `json:"to_version"`
	BreakingChanges bool   `json:"breaking_changes"`
}

// ValidationResult reports whether a record can migrate along a path, with
// every problem found rather than just the first
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}
