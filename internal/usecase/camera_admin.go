package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Harsh-BH/baywatch/internal/domain"
	"github.com/Harsh-BH/baywatch/internal/repository"
)

// PasswordSealer encrypts a camera password for storage.
type PasswordSealer interface {
	Seal(plaintext string) (string, error)
}

// CameraAdminUsecase registers and lists cameras.
type CameraAdminUsecase struct {
	cameras repository.CameraRepository
	sealer  PasswordSealer
	logger  *zap.Logger
}

// NewCameraAdminUsecase creates a new CameraAdminUsecase.
func NewCameraAdminUsecase(cameras repository.CameraRepository, sealer PasswordSealer, logger *zap.Logger) *CameraAdminUsecase {
	return &CameraAdminUsecase{
		cameras: cameras,
		sealer:  sealer,
		logger:  logger,
	}
}

// Create validates and stores a new camera. New cameras start available.
func (uc *CameraAdminUsecase) Create(ctx context.Context, req *domain.CreateCameraRequest) (*domain.Camera, error) {
	method, err := validateCamera(req)
	if err != nil {
		return nil, err
	}

	camera := &domain.Camera{
		Label:       strings.TrimSpace(req.Label),
		IPAddress:   strings.TrimSpace(req.IPAddress),
		Port:        req.Port,
		Protocol:    strings.ToLower(strings.TrimSpace(req.Protocol)),
		StreamURL:   strings.TrimSpace(req.StreamURL),
		Username:    req.Username,
		BranchID:    req.BranchID,
		BayZone:     req.BayZone,
		Model:       req.Model,
		Notes:       req.Notes,
		Status:      domain.CameraAvailable,
		LoginMethod: method,
	}

	if req.Password != "" {
		sealed, err := uc.sealer.Seal(req.Password)
		if err != nil {
			return nil, fmt.Errorf("seal camera password: %w", err)
		}
		camera.PasswordEncrypted = sealed
	}

	if err := uc.cameras.Create(ctx, camera); err != nil {
		uc.logger.Error("Failed to create camera", zap.Int64("branch_id", req.BranchID), zap.Error(err))
		return nil, fmt.Errorf("create camera: %w", err)
	}

	uc.logger.Info("Camera registered",
		zap.Int64("camera_id", camera.ID),
		zap.Int64("branch_id", camera.BranchID),
		zap.String("login_method", string(method)),
	)
	return camera, nil
}

// Get retrieves a camera by its ID.
func (uc *CameraAdminUsecase) Get(ctx context.Context, id int64) (*domain.Camera, error) {
	return uc.cameras.GetByID(ctx, id)
}

// List returns a branch's cameras. An empty status lists available cameras.
func (uc *CameraAdminUsecase) List(ctx context.Context, branchID int64, status domain.CameraStatus) ([]*domain.Camera, error) {
	if branchID <= 0 {
		return nil, domain.ErrMissingBranch
	}
	if status == "" {
		status = domain.CameraAvailable
	}
	if !status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}

	cameras, err := uc.cameras.ListByBranch(ctx, branchID, status)
	if err != nil {
		return nil, err
	}
	if cameras == nil {
		cameras = []*domain.Camera{}
	}
	return cameras, nil
}

// validateCamera infers the login method when omitted and checks its required fields.
func validateCamera(req *domain.CreateCameraRequest) (domain.LoginMethod, error) {
	method := req.LoginMethod
	if method == "" {
		switch {
		case req.StreamURL != "" && req.Protocol != "" && req.Port > 0:
			method = domain.LoginURL
		case req.Username != "" && req.Password != "":
			method = domain.LoginUserPass
		}
	}

	if strings.TrimSpace(req.Label) == "" || strings.TrimSpace(req.IPAddress) == "" ||
		req.BranchID <= 0 || strings.TrimSpace(req.Protocol) == "" {
		return "", fmt.Errorf("%w: label, ip_address, branch_id and protocol are required", domain.ErrInvalidCamera)
	}

	switch method {
	case domain.LoginURL:
		if req.StreamURL == "" || req.Port <= 0 {
			return "", fmt.Errorf("%w: url login requires stream_url and port", domain.ErrInvalidCamera)
		}
	case domain.LoginUserPass:
		if req.Username == "" || req.Password == "" {
			return "", fmt.Errorf("%w: userpass login requires username and password", domain.ErrInvalidCamera)
		}
	default:
		return "", fmt.Errorf("%w: invalid or missing login method", domain.ErrInvalidCamera)
	}
	return method, nil
}
