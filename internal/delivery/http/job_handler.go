package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Harsh-BH/baywatch/internal/domain"
	"github.com/Harsh-BH/baywatch/internal/usecase"
)

// JobHandler handles HTTP requests for jobs.
type JobHandler struct {
	coordinator *usecase.AssignmentCoordinator
	queries     *usecase.JobQueries
	share       *usecase.ShareLinkUsecase
	logger      *zap.Logger
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(coordinator *usecase.AssignmentCoordinator, queries *usecase.JobQueries, share *usecase.ShareLinkUsecase, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		coordinator: coordinator,
		queries:     queries,
		share:       share,
		logger:      logger,
	}
}

// Create handles POST /api/v1/jobs
func (h *JobHandler) Create(c *gin.Context) {
	var req domain.CreateJobRequest
	if !bindJSON(c, &req) {
		return
	}

	job, err := h.coordinator.CreateJob(c.Request.Context(), &req)
	if err != nil {
		// A camera from another branch is a bad request here, not an access failure.
		if errors.Is(err, domain.ErrCameraBranchMismatch) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Camera belongs to another branch", "code": "camera_branch_mismatch"})
			return
		}
		writeError(c, h.logger, "Create job", err)
		return
	}

	c.JSON(http.StatusCreated, job)
}

// Update handles PUT /api/v1/jobs/:id
func (h *JobHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var patch domain.JobPatch
	if !bindJSON(c, &patch) {
		return
	}

	job, err := h.coordinator.UpdateJob(c.Request.Context(), id, &patch)
	if err != nil {
		writeError(c, h.logger, "Update job", err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// Complete handles POST /api/v1/jobs/:id/complete
func (h *JobHandler) Complete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	job, err := h.coordinator.CompleteJob(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "Complete job", err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// Release handles POST /api/v1/jobs/:id/release
func (h *JobHandler) Release(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	job, err := h.coordinator.ReleaseJob(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "Release job", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Camera released",
		"job_id":    job.ID,
		"camera_id": job.CameraID,
	})
}

// Share handles POST /api/v1/jobs/:id/share
func (h *JobHandler) Share(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	grant, err := h.share.Execute(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "Share job", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":      grant.Token,
		"expires_at": grant.ExpiresAt,
		"path":       grant.Path,
	})
}

// GetByID handles GET /api/v1/jobs/:id
func (h *JobHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	job, err := h.queries.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "Get job", err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// List handles GET /api/v1/jobs?branchId=&status=
func (h *JobHandler) List(c *gin.Context) {
	branchID, ok := queryBranch(c)
	if !ok {
		return
	}
	if branchID == nil {
		writeError(c, h.logger, "List jobs", domain.ErrMissingBranch)
		return
	}
	h.list(c, *branchID)
}

// ListForBranch handles GET /api/v1/branches/:id/jobs?status=
func (h *JobHandler) ListForBranch(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	h.list(c, id)
}

func (h *JobHandler) list(c *gin.Context, branchID int64) {
	jobs, err := h.queries.ListByBranch(c.Request.Context(), branchID, domain.JobStatus(c.Query("status")))
	if err != nil {
		writeError(c, h.logger, "List jobs", err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// History handles GET /api/v1/jobs/history?branchId=
func (h *JobHandler) History(c *gin.Context) {
	branchID, ok := queryBranch(c)
	if !ok {
		return
	}

	jobs, err := h.queries.History(c.Request.Context(), branchID)
	if err != nil {
		writeError(c, h.logger, "Job history", err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}
