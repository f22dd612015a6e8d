package outbound

import (
	"context"

	"github.com/jonghyeuk/auto-mpeg/domain"
)

// JobStorePort persists job lifecycle records so a run can be inspected
// after the process exits.
type JobStorePort interface {
	Save(ctx context.Context, job *domain.Job) error
	Get(ctx context.Context, jobID string) (*domain.Job, error)
}
