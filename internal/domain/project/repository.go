package project

import "context"

// Repository defines the interface for project data access
type Repository interface {
	// List returns every project matching the storage filter, ordered by code
	List(ctx context.Context, filter QueryFilter) ([]*Project, error)

	// GetByCode retrieves a single project
	GetByCode(ctx context.Context, code string) (*Project, error)

	// ListCodesAndNames returns the code and description of every project
	ListCodesAndNames(ctx context.Context) ([]CodeName, error)
}
