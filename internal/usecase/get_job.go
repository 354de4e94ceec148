package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/Harsh-BH/baywatch/internal/domain"
	"github.com/Harsh-BH/baywatch/internal/repository"
)

// JobQueries serves read-only job lookups.
type JobQueries struct {
	jobs   repository.JobRepository
	logger *zap.Logger
}

// NewJobQueries creates a new JobQueries.
func NewJobQueries(jobs repository.JobRepository, logger *zap.Logger) *JobQueries {
	return &JobQueries{
		jobs:   jobs,
		logger: logger,
	}
}

// Get retrieves a job by its ID.
func (uc *JobQueries) Get(ctx context.Context, id int64) (*domain.Job, error) {
	job, err := uc.jobs.GetByID(ctx, id)
	if err != nil {
		uc.logger.Debug("Job lookup failed", zap.Int64("job_id", id), zap.Error(err))
		return nil, err
	}
	return job, nil
}

// ListByBranch returns the branch's jobs, optionally filtered by status.
func (uc *JobQueries) ListByBranch(ctx context.Context, branchID int64, status domain.JobStatus) ([]*domain.Job, error) {
	if branchID <= 0 {
		return nil, domain.ErrMissingBranch
	}
	if status != "" && !status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}
	jobs, err := uc.jobs.ListByBranch(ctx, branchID, status)
	if err != nil {
		return nil, err
	}
	if jobs == nil {
		jobs = []*domain.Job{}
	}
	return jobs, nil
}

// History returns completed jobs, most recently completed first.
func (uc *JobQueries) History(ctx context.Context, branchID *int64) ([]*domain.Job, error) {
	jobs, err := uc.jobs.ListCompleted(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if jobs == nil {
		jobs = []*domain.Job{}
	}
	return jobs, nil
}
