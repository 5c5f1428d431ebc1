package scenario

import "context"

// Repository is the port for loading scenarios.
type Repository interface {
	// LoadAll loads every scenario below the repository root.
	LoadAll(ctx context.Context) ([]*Scenario, error)
}
