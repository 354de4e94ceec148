package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Harsh-BH/baywatch/internal/usecase"
)

// PublicHandler serves customer viewing links.
type PublicHandler struct {
	gateway *usecase.PublicAccessGateway
	logger  *zap.Logger
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(gateway *usecase.PublicAccessGateway, logger *zap.Logger) *PublicHandler {
	return &PublicHandler{
		gateway: gateway,
		logger:  logger,
	}
}

// Stream handles GET /api/v1/public/stream/:jobId/:cameraId?token=
func (h *PublicHandler) Stream(c *gin.Context) {
	jobID, ok := parseID(c, "jobId")
	if !ok {
		return
	}
	cameraID, ok := parseID(c, "cameraId")
	if !ok {
		return
	}

	resp, err := h.gateway.Execute(c.Request.Context(), jobID, cameraID, c.Query("token"))
	if err != nil {
		writeError(c, h.logger, "Public stream", err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, resp)
}
