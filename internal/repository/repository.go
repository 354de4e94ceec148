package repository

import (
	"context"
	"time"

	"github.com/Harsh-BH/baywatch/internal/domain"
)

// CameraRepository is the durable store of camera configuration and exclusivity status.
// Implementations must be safe for concurrent use.
type CameraRepository interface {
	// Create inserts a new camera and fills in its ID and timestamps.
	Create(ctx context.Context, camera *domain.Camera) error

	// GetByID retrieves a camera. Returns domain.ErrCameraNotFound if absent.
	GetByID(ctx context.Context, id int64) (*domain.Camera, error)

	// GetByIDForUpdate retrieves a camera and locks its row until the enclosing transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Camera, error)

	// ListByBranch returns the branch's cameras, filtered by status when status is non-empty.
	ListByBranch(ctx context.Context, branchID int64, status domain.CameraStatus) ([]*domain.Camera, error)

	// SetStatus updates the exclusivity status of a camera.
	SetStatus(ctx context.Context, id int64, status domain.CameraStatus) error
}

// JobRepository is the durable store of jobs and their lifecycle status.
type JobRepository interface {
	// Create inserts a new job and fills in its ID and timestamps.
	Create(ctx context.Context, job *domain.Job) error

	// GetByID retrieves a job. Returns domain.ErrJobNotFound if absent.
	GetByID(ctx context.Context, id int64) (*domain.Job, error)

	// GetByIDForUpdate retrieves a job and locks its row until the enclosing transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Job, error)

	// Update applies a partial update. Returns domain.ErrJobNotFound if absent.
	Update(ctx context.Context, id int64, patch *domain.JobPatch) error

	// Complete marks a job completed at the given instant.
	Complete(ctx context.Context, id int64, at time.Time) error

	// FindOpenByCamera returns the ID of a non-completed job bound to cameraID other than
	// excludeJobID, or 0 if there is none.
	FindOpenByCamera(ctx context.Context, cameraID, excludeJobID int64) (int64, error)

	// OpenCameraIDs returns the subset of candidates referenced by at least one non-completed job.
	OpenCameraIDs(ctx context.Context, candidates []int64) (map[int64]bool, error)

	// ListByBranch returns the branch's jobs, filtered by status when status is non-empty.
	ListByBranch(ctx context.Context, branchID int64, status domain.JobStatus) ([]*domain.Job, error)

	// ListCompleted returns completed jobs, newest completion first, optionally for one branch.
	ListCompleted(ctx context.Context, branchID *int64) ([]*domain.Job, error)
}

// Store groups the repositories and provides all-or-nothing transactions across them.
type Store interface {
	Cameras() CameraRepository
	Jobs() JobRepository

	// InTx runs fn with a Store bound to a single transaction. The transaction commits if fn
	// returns nil and rolls back entirely otherwise.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

// GrantStore persists public viewing grants.
type GrantStore interface {
	// Issue stores a grant under its token until it expires.
	Issue(ctx context.Context, grant *domain.ShareGrant) error

	// Lookup returns the grant for token. Returns domain.ErrInvalidAccessToken if unknown or expired.
	Lookup(ctx context.Context, token string) (*domain.ShareGrant, error)
}
