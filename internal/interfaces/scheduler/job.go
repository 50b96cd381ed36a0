package scheduler

import "context"

// Job is a unit of work run by the worker pool.
type Job interface {
	// Execute runs the job. Implementations must honour ctx cancellation.
	Execute(ctx context.Context) error

	// Name is a short stable identifier used in logs and metric labels.
	Name() string

	// Description is a human-readable summary for logs.
	Description() string
}
