package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Harsh-BH/baywatch/internal/domain"
	"github.com/Harsh-BH/baywatch/internal/repository"
	"github.com/Harsh-BH/baywatch/internal/stream"
)

// URLResolver computes the viewer URL for a camera.
type URLResolver interface {
	Resolve(camera *domain.Camera) (*stream.Resolution, error)
}

// StreamStarter ensures a transcoder is running for a camera.
type StreamStarter interface {
	Start(ctx context.Context, cameraID int64, sourceURL string) (string, error)
}

// viewer resolves a camera URL and starts the transcoder when the source needs one.
type viewer struct {
	resolver URLResolver
	streams  StreamStarter
	logger   *zap.Logger
}

func (v *viewer) streamURL(ctx context.Context, camera *domain.Camera) (string, error) {
	res, err := v.resolver.Resolve(camera)
	if err != nil {
		v.logger.Error("Failed to resolve camera URL", zap.Int64("camera_id", camera.ID), zap.Error(err))
		return "", fmt.Errorf("resolve camera %d: %w", camera.ID, err)
	}
	if !res.Transcoded {
		return res.ClientURL, nil
	}

	if _, err := v.streams.Start(ctx, camera.ID, res.SourceURL); err != nil {
		v.logger.Error("Failed to start stream", zap.Int64("camera_id", camera.ID), zap.Error(err))
		return "", fmt.Errorf("start stream for camera %d: %w", camera.ID, err)
	}
	return res.ClientURL, nil
}

// CameraStreamUsecase serves the authenticated stream URL for a camera.
type CameraStreamUsecase struct {
	cameras repository.CameraRepository
	viewer  *viewer
}

// NewCameraStreamUsecase creates a new CameraStreamUsecase.
func NewCameraStreamUsecase(cameras repository.CameraRepository, resolver URLResolver, streams StreamStarter, logger *zap.Logger) *CameraStreamUsecase {
	return &CameraStreamUsecase{
		cameras: cameras,
		viewer:  &viewer{resolver: resolver, streams: streams, logger: logger},
	}
}

// Execute returns the URL a staff viewer should play for the camera.
func (uc *CameraStreamUsecase) Execute(ctx context.Context, cameraID int64) (*domain.StreamResponse, error) {
	camera, err := uc.cameras.GetByID(ctx, cameraID)
	if err != nil {
		return nil, err
	}

	url, err := uc.viewer.streamURL(ctx, camera)
	if err != nil {
		return nil, err
	}
	return &domain.StreamResponse{StreamURL: url}, nil
}
