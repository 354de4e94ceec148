package publisher

import (
	"context"

	"go.uber.org/zap"

	"github.com/Harsh-BH/baywatch/internal/domain"
)

type logPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher returns a Publisher that only logs events. It is used when
// the broker is unreachable at startup so job handling keeps working.
func NewLogPublisher(logger *zap.Logger) Publisher {
	return &logPublisher{logger: logger}
}

func (p *logPublisher) Publish(_ context.Context, event *domain.JobEvent) error {
	fields := []zap.Field{
		zap.String("type", string(event.Type)),
		zap.Int64("job_id", event.JobID),
		zap.Int64("branch_id", event.BranchID),
		zap.String("status", string(event.Status)),
	}
	if event.CameraID != nil {
		fields = append(fields, zap.Int64("camera_id", *event.CameraID))
	}
	p.logger.Info("Job event (not delivered)", fields...)
	return nil
}

func (p *logPublisher) Close() error {
	return nil
}
