package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Harsh-BH/baywatch/internal/domain"
	"github.com/Harsh-BH/baywatch/internal/metrics"
	"github.com/Harsh-BH/baywatch/internal/publisher"
	"github.com/Harsh-BH/baywatch/internal/repository"
)

// streamStopTimeout bounds the background stream teardown after a job completes.
const streamStopTimeout = 15 * time.Second

// StreamStopper tears down a camera's transcoder.
type StreamStopper interface {
	Stop(ctx context.Context, cameraID int64)
}

// AssignmentCoordinator keeps camera exclusivity consistent with job status. Every job
// status transition changes the bound camera's status in the same transaction.
type AssignmentCoordinator struct {
	store     repository.Store
	streams   StreamStopper
	publisher publisher.Publisher
	logger    *zap.Logger

	pending sync.WaitGroup
}

// NewAssignmentCoordinator creates a new AssignmentCoordinator.
func NewAssignmentCoordinator(store repository.Store, streams StreamStopper, pub publisher.Publisher, logger *zap.Logger) *AssignmentCoordinator {
	return &AssignmentCoordinator{
		store:     store,
		streams:   streams,
		publisher: pub,
		logger:    logger,
	}
}

// CreateJob inserts a job and, when a camera is given, binds it atomically. Fails with
// domain.ErrCameraInUse if another open job holds the camera; nothing is written then.
func (uc *AssignmentCoordinator) CreateJob(ctx context.Context, req *domain.CreateJobRequest) (*domain.Job, error) {
	if req.BranchID <= 0 {
		return nil, domain.ErrMissingBranch
	}

	status := domain.JobInProgress
	if req.Status != "" {
		if !req.Status.IsValid() {
			return nil, domain.ErrInvalidStatus
		}
		status = req.Status
	}

	now := time.Now().UTC()
	enteredAt := now
	if req.EnteredAt != nil {
		enteredAt = req.EnteredAt.UTC()
	}

	job := &domain.Job{
		BranchID:                 req.BranchID,
		CameraID:                 req.CameraID,
		Status:                   status,
		CustomerName:             req.CustomerName,
		CustomerPhoneCountryCode: req.CustomerPhoneCountryCode,
		CustomerPhoneNumber:      req.CustomerPhoneNumber,
		CarModel:                 req.CarModel,
		CarYear:                  req.CarYear,
		IssueDescription:         req.IssueDescription,
		EnteredAt:                enteredAt,
	}
	if status.IsTerminal() {
		job.CompletedAt = &now
	}

	if job.CameraID != nil {
		camera, err := uc.store.Cameras().GetByID(ctx, *job.CameraID)
		if err != nil {
			return nil, err
		}
		if camera.BranchID != job.BranchID {
			return nil, domain.ErrCameraBranchMismatch
		}
	}

	err := uc.store.InTx(ctx, func(tx repository.Store) error {
		if job.HoldsCamera() {
			if _, err := tx.Cameras().GetByIDForUpdate(ctx, *job.CameraID); err != nil {
				return err
			}
			holder, err := tx.Jobs().FindOpenByCamera(ctx, *job.CameraID, 0)
			if err != nil {
				return fmt.Errorf("check camera %d: %w", *job.CameraID, err)
			}
			if holder != 0 {
				return domain.ErrCameraInUse
			}
		}

		if err := tx.Jobs().Create(ctx, job); err != nil {
			return err
		}

		if job.HoldsCamera() {
			if err := tx.Cameras().SetStatus(ctx, *job.CameraID, domain.CameraInUse); err != nil {
				return fmt.Errorf("mark camera in use: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrCameraInUse) {
			metrics.CameraConflicts.Inc()
			uc.logger.Info("Camera already assigned",
				zap.Int64("camera_id", *job.CameraID),
				zap.Int64("branch_id", job.BranchID),
			)
			return nil, err
		}
		if isDomainError(err) {
			return nil, err
		}
		uc.logger.Error("Failed to create job", zap.Int64("branch_id", job.BranchID), zap.Error(err))
		return nil, fmt.Errorf("create job: %w", err)
	}

	metrics.JobTransitions.WithLabelValues("created").Inc()
	uc.logger.Info("Job created",
		zap.Int64("job_id", job.ID),
		zap.Int64("branch_id", job.BranchID),
		zap.Int64p("camera_id", job.CameraID),
	)
	uc.publish(ctx, domain.EventJobCreated, job)

	return job, nil
}

// UpdateJob applies a partial update. A status change runs in a transaction that moves
// the bound camera to match: completed frees it, in_progress claims it.
func (uc *AssignmentCoordinator) UpdateJob(ctx context.Context, id int64, patch *domain.JobPatch) (*domain.Job, error) {
	if patch == nil || patch.IsEmpty() {
		return uc.store.Jobs().GetByID(ctx, id)
	}

	if patch.Status == nil {
		if err := uc.store.Jobs().Update(ctx, id, patch); err != nil {
			return nil, err
		}
		job, err := uc.store.Jobs().GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		uc.publish(ctx, domain.EventJobUpdated, job)
		return job, nil
	}

	newStatus := *patch.Status
	if !newStatus.IsValid() {
		return nil, domain.ErrInvalidStatus
	}
	// The transaction stamps completion fields; keep them off the caller's patch.
	stamped := *patch
	patch = &stamped

	var (
		job          *domain.Job
		wasCompleted bool
	)
	err := uc.store.InTx(ctx, func(tx repository.Store) error {
		current, err := tx.Jobs().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		wasCompleted = current.Status.IsTerminal()
		completing := newStatus.IsTerminal() && !wasCompleted

		switch {
		case completing:
			now := time.Now().UTC()
			patch.CompletedAt = &now
		case wasCompleted && !newStatus.IsTerminal():
			patch.ClearCompletedAt = true
		}

		// A job that was already completed holds nothing, so re-completing it must not
		// touch a camera another open job may have claimed since.
		if current.CameraID != nil {
			cameraID := *current.CameraID
			switch {
			case completing:
				if err := tx.Cameras().SetStatus(ctx, cameraID, domain.CameraAvailable); err != nil {
					return fmt.Errorf("release camera: %w", err)
				}
			case !newStatus.IsTerminal():
				if _, err := tx.Cameras().GetByIDForUpdate(ctx, cameraID); err != nil {
					return err
				}
				holder, err := tx.Jobs().FindOpenByCamera(ctx, cameraID, id)
				if err != nil {
					return fmt.Errorf("check camera %d: %w", cameraID, err)
				}
				if holder != 0 {
					return domain.ErrCameraInUse
				}
				if err := tx.Cameras().SetStatus(ctx, cameraID, domain.CameraInUse); err != nil {
					return fmt.Errorf("mark camera in use: %w", err)
				}
			}
		}

		if err := tx.Jobs().Update(ctx, id, patch); err != nil {
			return err
		}
		job, err = tx.Jobs().GetByID(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrCameraInUse) {
			metrics.CameraConflicts.Inc()
		}
		if isDomainError(err) {
			return nil, err
		}
		uc.logger.Error("Failed to update job", zap.Int64("job_id", id), zap.Error(err))
		return nil, fmt.Errorf("update job: %w", err)
	}

	completedNow := job.Status.IsTerminal() && !wasCompleted
	switch {
	case completedNow:
		metrics.JobTransitions.WithLabelValues("completed").Inc()
		uc.publish(ctx, domain.EventJobCompleted, job)
		if job.CameraID != nil {
			uc.stopStreamAsync(*job.CameraID)
		}
	case wasCompleted && !job.Status.IsTerminal():
		metrics.JobTransitions.WithLabelValues("reopened").Inc()
		uc.publish(ctx, domain.EventJobUpdated, job)
	default:
		uc.publish(ctx, domain.EventJobUpdated, job)
	}

	uc.logger.Info("Job updated",
		zap.Int64("job_id", id),
		zap.String("status", string(job.Status)),
	)
	return job, nil
}

// CompleteJob moves an in-progress job to completed and frees its camera. The camera's
// stream is stopped in the background after commit; a failed stop never undoes completion.
func (uc *AssignmentCoordinator) CompleteJob(ctx context.Context, id int64) (*domain.Job, error) {
	var job *domain.Job
	err := uc.store.InTx(ctx, func(tx repository.Store) error {
		current, err := tx.Jobs().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != domain.JobInProgress {
			return domain.ErrInvalidJobState
		}

		if err := tx.Jobs().Complete(ctx, id, time.Now().UTC()); err != nil {
			return fmt.Errorf("mark job completed: %w", err)
		}
		if current.CameraID != nil {
			if err := tx.Cameras().SetStatus(ctx, *current.CameraID, domain.CameraAvailable); err != nil {
				return fmt.Errorf("release camera: %w", err)
			}
		}

		job, err = tx.Jobs().GetByID(ctx, id)
		return err
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		uc.logger.Error("Failed to complete job", zap.Int64("job_id", id), zap.Error(err))
		return nil, fmt.Errorf("complete job: %w", err)
	}

	metrics.JobTransitions.WithLabelValues("completed").Inc()
	uc.logger.Info("Job completed",
		zap.Int64("job_id", id),
		zap.Int64p("camera_id", job.CameraID),
	)
	uc.publish(ctx, domain.EventJobCompleted, job)

	if job.CameraID != nil {
		uc.stopStreamAsync(*job.CameraID)
	}
	return job, nil
}

// ReleaseJob marks the job's camera available regardless of job status. It exists
// for manual recovery from a stuck camera.
func (uc *AssignmentCoordinator) ReleaseJob(ctx context.Context, id int64) (*domain.Job, error) {
	job, err := uc.store.Jobs().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.CameraID == nil {
		return nil, domain.ErrNoCameraAssigned
	}

	if err := uc.store.Cameras().SetStatus(ctx, *job.CameraID, domain.CameraAvailable); err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("release camera: %w", err)
	}

	metrics.JobTransitions.WithLabelValues("released").Inc()
	uc.logger.Warn("Camera released manually",
		zap.Int64("job_id", id),
		zap.Int64("camera_id", *job.CameraID),
		zap.String("job_status", string(job.Status)),
	)
	uc.publish(ctx, domain.EventJobReleased, job)

	return job, nil
}

// Wait blocks until background stream teardowns have finished.
func (uc *AssignmentCoordinator) Wait() {
	uc.pending.Wait()
}

func (uc *AssignmentCoordinator) stopStreamAsync(cameraID int64) {
	uc.pending.Add(1)
	go func() {
		defer uc.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				uc.logger.Error("Stream stop panic recovered",
					zap.Int64("camera_id", cameraID),
					zap.Any("panic", r),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), streamStopTimeout)
		defer cancel()

		// Another job may have claimed the camera since commit; its viewers own the stream now.
		open, err := uc.store.Jobs().OpenCameraIDs(ctx, []int64{cameraID})
		if err != nil {
			uc.logger.Warn("Skipping stream stop, open job lookup failed",
				zap.Int64("camera_id", cameraID),
				zap.Error(err),
			)
			return
		}
		if open[cameraID] {
			uc.logger.Info("Camera reassigned before stream stop, keeping stream",
				zap.Int64("camera_id", cameraID),
			)
			return
		}
		uc.streams.Stop(ctx, cameraID)
	}()
}

// publish sends a job event after commit. Failures are logged and never reach the caller.
func (uc *AssignmentCoordinator) publish(ctx context.Context, eventType domain.JobEventType, job *domain.Job) {
	event := &domain.JobEvent{
		Type:       eventType,
		JobID:      job.ID,
		BranchID:   job.BranchID,
		CameraID:   job.CameraID,
		Status:     job.Status,
		OccurredAt: time.Now().UTC(),
	}
	if err := uc.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		uc.logger.Warn("Failed to publish job event",
			zap.String("type", string(eventType)),
			zap.Int64("job_id", job.ID),
			zap.Error(err),
		)
	}
}

// isDomainError reports whether err carries one of the domain sentinels that handlers map
// to a client response.
func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrJobNotFound,
		domain.ErrCameraNotFound,
		domain.ErrCameraInUse,
		domain.ErrInvalidJobState,
		domain.ErrInvalidStatus,
		domain.ErrNoCameraAssigned,
		domain.ErrCameraBranchMismatch,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
