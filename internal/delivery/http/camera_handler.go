package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Harsh-BH/baywatch/internal/domain"
	"github.com/Harsh-BH/baywatch/internal/usecase"
)

// CameraHandler handles HTTP requests for cameras.
type CameraHandler struct {
	admin  *usecase.CameraAdminUsecase
	stream *usecase.CameraStreamUsecase
	logger *zap.Logger
}

// NewCameraHandler creates a new CameraHandler.
func NewCameraHandler(admin *usecase.CameraAdminUsecase, stream *usecase.CameraStreamUsecase, logger *zap.Logger) *CameraHandler {
	return &CameraHandler{
		admin:  admin,
		stream: stream,
		logger: logger,
	}
}

// List handles GET /api/v1/cameras?branchId=&status=
func (h *CameraHandler) List(c *gin.Context) {
	branchID, ok := queryBranch(c)
	if !ok {
		return
	}
	if branchID == nil {
		writeError(c, h.logger, "List cameras", domain.ErrMissingBranch)
		return
	}

	cameras, err := h.admin.List(c.Request.Context(), *branchID, domain.CameraStatus(c.Query("status")))
	if err != nil {
		writeError(c, h.logger, "List cameras", err)
		return
	}
	c.JSON(http.StatusOK, cameras)
}

// Create handles POST /api/v1/cameras
func (h *CameraHandler) Create(c *gin.Context) {
	var req domain.CreateCameraRequest
	if !bindJSON(c, &req) {
		return
	}

	camera, err := h.admin.Create(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, "Create camera", err)
		return
	}
	c.JSON(http.StatusCreated, camera)
}

// GetByID handles GET /api/v1/cameras/:cameraId
func (h *CameraHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "cameraId")
	if !ok {
		return
	}

	camera, err := h.admin.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "Get camera", err)
		return
	}
	c.JSON(http.StatusOK, camera)
}

// Stream handles GET /api/v1/cameras/:cameraId/stream
func (h *CameraHandler) Stream(c *gin.Context) {
	id, ok := parseID(c, "cameraId")
	if !ok {
		return
	}

	resp, err := h.stream.Execute(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "Camera stream", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
