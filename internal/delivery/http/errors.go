package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Harsh-BH/baywatch/internal/delivery/http/middleware"
	"github.com/Harsh-BH/baywatch/internal/domain"
)

// errorResponse maps a domain error to an HTTP status, message and machine-readable code.
func errorResponse(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrCameraInUse):
		return http.StatusConflict, "Camera already in use", "camera_in_use"
	case errors.Is(err, domain.ErrJobNotFound):
		return http.StatusNotFound, "Job not found", "job_not_found"
	case errors.Is(err, domain.ErrCameraNotFound):
		return http.StatusNotFound, "Camera not found", "camera_not_found"
	case errors.Is(err, domain.ErrInvalidJobState):
		return http.StatusBadRequest, "Job is not in progress", "invalid_job_state"
	case errors.Is(err, domain.ErrNoCameraAssigned):
		return http.StatusBadRequest, "No camera assigned to this job", "no_camera_assigned"
	case errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusBadRequest, "Invalid status", "invalid_status"
	case errors.Is(err, domain.ErrMissingBranch):
		return http.StatusBadRequest, "branchId is required", "missing_branch"
	case errors.Is(err, domain.ErrInvalidCamera):
		return http.StatusBadRequest, err.Error(), "invalid_camera"
	case errors.Is(err, domain.ErrJobCompleted):
		return http.StatusGone, "Job is completed", "job_completed"
	case errors.Is(err, domain.ErrCameraBranchMismatch):
		return http.StatusForbidden, "Camera not accessible for this job", "camera_branch_mismatch"
	case errors.Is(err, domain.ErrInvalidAccessToken):
		return http.StatusUnauthorized, "Invalid access token", "invalid_access_token"
	case errors.Is(err, domain.ErrStreamStartTimeout), errors.Is(err, domain.ErrStreamUnavailable):
		return http.StatusInternalServerError, "Stream is not available", "stream_unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error", "internal"
	}
}

// writeError sends the JSON error body for err and logs server-side failures.
func writeError(c *gin.Context, logger *zap.Logger, op string, err error) {
	status, msg, code := errorResponse(err)
	if status >= http.StatusInternalServerError {
		logger.Error(op+" failed",
			zap.String("request_id", c.GetString(middleware.RequestIDKey)),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": msg, "code": code})
}

// bindJSON decodes the request body into obj, writing 413 when the body limit cut the read
// short and 400 for any other decoding failure.
func bindJSON(c *gin.Context, obj any) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		middleware.PayloadTooLarge(c, tooLarge.Limit)
		return false
	}
	badRequest(c, "Invalid request body: "+err.Error())
	return false
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": "bad_request"})
}

// parseID reads a positive integer path parameter, writing a 400 when it is malformed.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid "+name+" format")
		return 0, false
	}
	return id, true
}

// queryBranch reads the branchId query parameter. ok is false if it is present but malformed.
func queryBranch(c *gin.Context) (branchID *int64, ok bool) {
	raw := c.Query("branchId")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid branchId format")
		return nil, false
	}
	return &id, true
}
