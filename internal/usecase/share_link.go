package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/Harsh-BH/baywatch/internal/domain"
	"github.com/Harsh-BH/baywatch/internal/repository"
)

// tokenBytes is the entropy of a viewing token before encoding.
const tokenBytes = 24

// ShareLinkUsecase issues public viewing grants for a job's camera.
type ShareLinkUsecase struct {
	jobs   repository.JobRepository
	grants repository.GrantStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewShareLinkUsecase creates a new ShareLinkUsecase.
func NewShareLinkUsecase(jobs repository.JobRepository, grants repository.GrantStore, ttl time.Duration, logger *zap.Logger) *ShareLinkUsecase {
	return &ShareLinkUsecase{
		jobs:   jobs,
		grants: grants,
		ttl:    ttl,
		logger: logger,
	}
}

// Execute issues a random token bound to the job and its current camera.
func (uc *ShareLinkUsecase) Execute(ctx context.Context, jobID int64) (*domain.ShareGrant, error) {
	job, err := uc.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status.IsTerminal() {
		return nil, domain.ErrJobCompleted
	}
	if job.CameraID == nil {
		return nil, domain.ErrNoCameraAssigned
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	grant := &domain.ShareGrant{
		Token:     token,
		JobID:     job.ID,
		CameraID:  *job.CameraID,
		ExpiresAt: time.Now().UTC().Add(uc.ttl),
	}
	grant.Path = fmt.Sprintf("/stream/%d/%d?token=%s", grant.JobID, grant.CameraID, url.QueryEscape(token))

	if err := uc.grants.Issue(ctx, grant); err != nil {
		uc.logger.Error("Failed to store viewing grant", zap.Int64("job_id", jobID), zap.Error(err))
		return nil, fmt.Errorf("issue grant: %w", err)
	}

	uc.logger.Info("Viewing link issued",
		zap.Int64("job_id", grant.JobID),
		zap.Int64("camera_id", grant.CameraID),
		zap.Time("expires_at", grant.ExpiresAt),
	)
	return grant, nil
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
