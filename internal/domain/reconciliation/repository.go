package reconciliation

import (
	"context"
	"time"

	"mrk/internal/domain/project"
)

// Repository defines the interface for stored bank transactions
type Repository interface {
	// ExistsByFitID reports whether a transaction with this FITID is stored
	ExistsByFitID(ctx context.Context, fitID string) (bool, error)

	// Insert stores a new transaction with PENDING status and returns its ID
	Insert(ctx context.Context, params InsertParams) (int64, error)

	// List returns one page of matching transactions, newest first, and the
	// total number of matches
	List(ctx context.Context, filter ListFilter) ([]*StoredTransaction, int, error)

	// Stats aggregates every transaction matching the filter
	Stats(ctx context.Context, filter ListFilter) (*Stats, error)

	// GetByID retrieves a single transaction
	GetByID(ctx context.Context, id int64) (*StoredTransaction, error)

	// SetProject associates a transaction with a project code
	SetProject(ctx context.Context, id int64, projectID string) error

	// ListUnassociated returns transactions with no project
	ListUnassociated(ctx context.Context) ([]*StoredTransaction, error)

	// ListByStatus returns transactions in the given validation status
	ListByStatus(ctx context.Context, status ValidationStatus) ([]*StoredTransaction, error)

	// UpdateValidation records the outcome of matching a transaction
	UpdateValidation(ctx context.Context, id int64, status ValidationStatus, notes string, at time.Time) error

	// CountByStatus counts transactions per validation status
	CountByStatus(ctx context.Context) (map[ValidationStatus]int, error)
}

// MovementRepository reads realized payments from the ERP mirror.
type MovementRepository interface {
	// FindMatch returns the first movement with this amount paid or issued
	// on date (YYYYMMDD), or nil when there is none
	FindMatch(ctx context.Context, amount float64, date string) (*Movement, error)
}

// ProjectDirectory lists the projects transactions can be matched to.
type ProjectDirectory interface {
	ListCodesAndNames(ctx context.Context) ([]project.CodeName, error)
}
