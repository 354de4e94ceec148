package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Harsh-BH/baywatch/internal/usecase"
)

const (
	statusPollInterval = 2 * time.Second
	writeWait          = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	// Viewing links are opened from arbitrary customer devices.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler pushes job and stream status to customers watching a public link.
type WebSocketHandler struct {
	gateway  *usecase.PublicAccessGateway
	interval time.Duration
	logger   *zap.Logger
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(gateway *usecase.PublicAccessGateway, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		gateway:  gateway,
		interval: statusPollInterval,
		logger:   logger,
	}
}

// Feed handles GET /api/v1/public/stream/:jobId/:cameraId/ws (WebSocket upgrade)
func (h *WebSocketHandler) Feed(c *gin.Context) {
	jobID, ok := parseID(c, "jobId")
	if !ok {
		return
	}
	cameraID, ok := parseID(c, "cameraId")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.gateway.Authorize(ctx, jobID, cameraID, c.Query("token")); err != nil {
		writeError(c, h.logger, "Public status feed", err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Debug("WebSocket connection opened", zap.Int64("job_id", jobID), zap.Int64("camera_id", cameraID))

	// Drain client frames so close messages are noticed.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		update, err := h.gateway.Status(ctx, jobID, cameraID)
		if err != nil {
			_ = conn.WriteJSON(gin.H{"error": "Job not found"})
			return
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(update); err != nil {
			h.logger.Debug("WebSocket write failed (client disconnected)", zap.Error(err))
			return
		}

		if update.Status.IsTerminal() {
			h.logger.Debug("Job completed, closing WebSocket", zap.Int64("job_id", jobID))
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job completed"),
				time.Now().Add(writeWait))
			return
		}

		select {
		case <-ticker.C:
		case <-gone:
			return
		case <-ctx.Done():
			return
		}
	}
}
