package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/Harsh-BH/baywatch/internal/domain"
	"github.com/Harsh-BH/baywatch/internal/repository"
)

// ActivityChecker reports whether a camera's transcoder is running.
type ActivityChecker interface {
	IsActive(cameraID int64) bool
}

// StreamController starts transcoders and reports their liveness.
type StreamController interface {
	StreamStarter
	ActivityChecker
}

// GatewayConfig controls public token handling.
type GatewayConfig struct {
	TokenMinLength int
	// RequireToken rejects requests without a token.
	RequireToken bool
}

// PublicAccessGateway serves customer viewing links without a staff session.
type PublicAccessGateway struct {
	store    repository.Store
	grants   repository.GrantStore
	activity ActivityChecker
	viewer   *viewer
	cfg      GatewayConfig
	logger   *zap.Logger
}

// NewPublicAccessGateway creates a new PublicAccessGateway.
func NewPublicAccessGateway(
	store repository.Store,
	grants repository.GrantStore,
	resolver URLResolver,
	streams StreamController,
	cfg GatewayConfig,
	logger *zap.Logger,
) *PublicAccessGateway {
	return &PublicAccessGateway{
		store:    store,
		grants:   grants,
		activity: streams,
		viewer:   &viewer{resolver: resolver, streams: streams, logger: logger},
		cfg:      cfg,
		logger:   logger,
	}
}

// Execute validates the request and returns the viewer URL with minimal job and camera
// details. Checks run in order: job exists, job not completed, token, camera exists,
// camera branch matches job branch.
func (uc *PublicAccessGateway) Execute(ctx context.Context, jobID, cameraID int64, token string) (*domain.PublicStreamResponse, error) {
	job, camera, err := uc.authorize(ctx, jobID, cameraID, token)
	if err != nil {
		return nil, err
	}

	url, err := uc.viewer.streamURL(ctx, camera)
	if err != nil {
		return nil, err
	}

	return &domain.PublicStreamResponse{
		StreamURL: url,
		Job: domain.PublicJobView{
			ID:       job.ID,
			CarModel: job.CarModel,
			CarYear:  job.CarYear,
			Status:   job.Status,
		},
		Camera: domain.PublicCameraView{
			ID:    camera.ID,
			Label: camera.Label,
		},
	}, nil
}

// Authorize runs the same checks as Execute without starting the stream.
func (uc *PublicAccessGateway) Authorize(ctx context.Context, jobID, cameraID int64, token string) error {
	_, _, err := uc.authorize(ctx, jobID, cameraID, token)
	return err
}

// Status reports the job's status and whether its camera stream is live.
func (uc *PublicAccessGateway) Status(ctx context.Context, jobID, cameraID int64) (*domain.PublicStatusUpdate, error) {
	job, err := uc.store.Jobs().GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &domain.PublicStatusUpdate{
		JobID:        job.ID,
		Status:       job.Status,
		StreamActive: !job.Status.IsTerminal() && uc.activity.IsActive(cameraID),
	}, nil
}

func (uc *PublicAccessGateway) authorize(ctx context.Context, jobID, cameraID int64, token string) (*domain.Job, *domain.Camera, error) {
	job, err := uc.store.Jobs().GetByID(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	if job.Status.IsTerminal() {
		return nil, nil, domain.ErrJobCompleted
	}

	if err := uc.checkToken(ctx, jobID, cameraID, token); err != nil {
		uc.logger.Info("Rejected public viewing token",
			zap.Int64("job_id", jobID),
			zap.Int64("camera_id", cameraID),
			zap.Error(err),
		)
		return nil, nil, err
	}

	camera, err := uc.store.Cameras().GetByID(ctx, cameraID)
	if err != nil {
		return nil, nil, err
	}
	if camera.BranchID != job.BranchID {
		return nil, nil, domain.ErrCameraBranchMismatch
	}
	return job, camera, nil
}

// checkToken accepts a missing token unless tokens are required. A present token must
// meet the minimum length and match a grant for exactly this job and camera.
func (uc *PublicAccessGateway) checkToken(ctx context.Context, jobID, cameraID int64, token string) error {
	if token == "" {
		if uc.cfg.RequireToken {
			return domain.ErrInvalidAccessToken
		}
		return nil
	}
	if len(token) < uc.cfg.TokenMinLength {
		return domain.ErrInvalidAccessToken
	}

	grant, err := uc.grants.Lookup(ctx, token)
	if err != nil {
		return err
	}
	if grant.JobID != jobID || grant.CameraID != cameraID {
		return domain.ErrInvalidAccessToken
	}
	return nil
}
