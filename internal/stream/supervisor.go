package stream

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Harsh-BH/baywatch/internal/domain"
	"github.com/Harsh-BH/baywatch/internal/metrics"
)

// Stop reasons, used as the metrics label.
const (
	reasonRequest     = "request"
	reasonReconcile   = "reconcile"
	reasonShutdown    = "shutdown"
	reasonFailedStart = "failed_start"
	reasonExit        = "exit"
)

// Config controls transcoder output.
type Config struct {
	OutputDir      string
	PathPrefix     string
	SegmentSeconds int
	PlaylistSize   int
	StartTimeout   time.Duration
}

// OpenJobLookup reports which cameras are bound to non-completed jobs.
type OpenJobLookup interface {
	OpenCameraIDs(ctx context.Context, candidates []int64) (map[int64]bool, error)
}

type handle struct {
	proc      Process
	startedAt time.Time
}

func (h *handle) exited() bool {
	select {
	case <-h.proc.Done():
		return true
	default:
		return false
	}
}

// Supervisor owns the table of live per-camera transcoders. Operations on one camera
// are serialised by a per-camera lock; the table itself is guarded by mu.
type Supervisor struct {
	cfg      Config
	launcher Launcher
	logger   *zap.Logger

	mu    sync.Mutex
	procs map[int64]*handle

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

// NewSupervisor creates a Supervisor writing output under cfg.OutputDir.
func NewSupervisor(cfg Config, launcher Launcher, logger *zap.Logger) *Supervisor {
	return &Supervisor{
		cfg:      cfg,
		launcher: launcher,
		logger:   logger,
		procs:    make(map[int64]*handle),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// ManifestURL returns the client-facing manifest path for a camera.
func (s *Supervisor) ManifestURL(cameraID int64) string {
	return path.Join("/", s.cfg.PathPrefix, manifestName(cameraID))
}

// IsActive reports whether a tracked transcoder exists for the camera and has not exited.
func (s *Supervisor) IsActive(cameraID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.procs[cameraID]
	return ok && !h.exited()
}

// Active returns the IDs of all tracked cameras in ascending order.
func (s *Supervisor) Active() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.procs))
	for id := range s.procs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Start ensures a transcoder is running for the camera and returns its manifest URL.
// It is idempotent: an active transcoder is reused. A new transcoder must produce its
// manifest within the start timeout, otherwise it is stopped and an error returned.
// Cancelling ctx does not abort the wait.
func (s *Supervisor) Start(ctx context.Context, cameraID int64, sourceURL string) (string, error) {
	lock := s.lockFor(cameraID)
	lock.Lock()
	defer lock.Unlock()

	manifestURL := s.ManifestURL(cameraID)
	if s.IsActive(cameraID) {
		metrics.StreamStartsTotal.WithLabelValues("reused").Inc()
		return manifestURL, nil
	}

	// Discard a stale handle whose process already exited.
	if h := s.current(cameraID); h != nil {
		s.untrack(cameraID, h)
	}

	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		metrics.StreamStartsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: create output dir: %v", domain.ErrStreamUnavailable, err)
	}
	s.removeOutputs(cameraID)

	manifest := s.manifestPath(cameraID)
	watcher := newManifestWatcher(s.cfg.OutputDir, s.logger)
	defer watcher.Close()

	proc, err := s.launcher.Launch(LaunchSpec{
		CameraID:       cameraID,
		SourceURL:      sourceURL,
		ManifestPath:   manifest,
		SegmentPattern: filepath.Join(s.cfg.OutputDir, strconv.FormatInt(cameraID, 10)+"_%03d.ts"),
		SegmentSeconds: s.cfg.SegmentSeconds,
		PlaylistSize:   s.cfg.PlaylistSize,
	})
	if err != nil {
		metrics.StreamStartsTotal.WithLabelValues("error").Inc()
		s.logger.Error("Failed to launch transcoder",
			zap.Int64("camera_id", cameraID),
			zap.String("source", RedactURL(sourceURL)),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %v", domain.ErrStreamUnavailable, err)
	}

	h := &handle{proc: proc, startedAt: time.Now()}
	s.track(cameraID, h)
	go s.observe(cameraID, h)

	s.logger.Info("Transcoder started",
		zap.Int64("camera_id", cameraID),
		zap.Int("pid", proc.PID()),
		zap.String("source", RedactURL(sourceURL)),
	)

	if err := watcher.Wait(context.WithoutCancel(ctx), manifest, proc.Done(), s.cfg.StartTimeout); err != nil {
		result := "timeout"
		if !errors.Is(err, domain.ErrStreamStartTimeout) {
			result = "error"
		}
		metrics.StreamStartsTotal.WithLabelValues(result).Inc()
		s.logger.Warn("Transcoder produced no manifest",
			zap.Int64("camera_id", cameraID),
			zap.Duration("timeout", s.cfg.StartTimeout),
			zap.Error(err),
		)
		s.stopLocked(cameraID, reasonFailedStart)
		return "", err
	}

	metrics.StreamStartsTotal.WithLabelValues("ready").Inc()
	metrics.StreamStartDuration.Observe(time.Since(h.startedAt).Seconds())
	return manifestURL, nil
}

// Stop terminates the camera's transcoder, if tracked, and deletes its output.
// Stopping an untracked camera only cleans up files.
func (s *Supervisor) Stop(ctx context.Context, cameraID int64) {
	s.stop(cameraID, reasonRequest)
}

func (s *Supervisor) stop(cameraID int64, reason string) {
	lock := s.lockFor(cameraID)
	lock.Lock()
	defer lock.Unlock()
	s.stopLocked(cameraID, reason)
}

// stopLocked requires the camera's lock to be held.
func (s *Supervisor) stopLocked(cameraID int64, reason string) {
	if h := s.current(cameraID); h != nil && s.untrack(cameraID, h) {
		metrics.StreamStopsTotal.WithLabelValues(reason).Inc()
		if err := h.proc.Terminate(); err != nil {
			s.logger.Warn("Failed to terminate transcoder",
				zap.Int64("camera_id", cameraID),
				zap.Int("pid", h.proc.PID()),
				zap.Error(err),
			)
		}
		s.logger.Info("Transcoder stopped",
			zap.Int64("camera_id", cameraID),
			zap.String("reason", reason),
			zap.Duration("uptime", time.Since(h.startedAt)),
		)
	}
	s.removeOutputs(cameraID)
}

// Reconcile stops every tracked transcoder whose camera is no longer bound to a
// non-completed job.
func (s *Supervisor) Reconcile(ctx context.Context, jobs OpenJobLookup) error {
	metrics.ReconcileRuns.Inc()

	ids := s.Active()
	if len(ids) == 0 {
		return nil
	}

	open, err := jobs.OpenCameraIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	for _, id := range ids {
		if open[id] {
			continue
		}
		s.logger.Info("Stopping stream with no active job", zap.Int64("camera_id", id))
		s.stop(id, reasonReconcile)
	}
	return nil
}

// Shutdown stops every tracked transcoder in parallel.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	ids := s.Active()
	s.logger.Info("Stopping all transcoders", zap.Int("count", len(ids)))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			s.stop(id, reasonShutdown)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown transcoders: %w", ctx.Err())
	}
}

// observe drops the handle when the process exits on its own.
func (s *Supervisor) observe(cameraID int64, h *handle) {
	<-h.proc.Done()
	if s.untrack(cameraID, h) {
		metrics.StreamStopsTotal.WithLabelValues(reasonExit).Inc()
		s.logger.Warn("Transcoder exited",
			zap.Int64("camera_id", cameraID),
			zap.Int("pid", h.proc.PID()),
			zap.Error(h.proc.Err()),
		)
	}
}

func (s *Supervisor) current(cameraID int64) *handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.procs[cameraID]
}

func (s *Supervisor) track(cameraID int64, h *handle) {
	s.mu.Lock()
	s.procs[cameraID] = h
	s.mu.Unlock()
	metrics.StreamsActive.Inc()
}

// untrack removes h if it is still the camera's handle and reports whether it did.
func (s *Supervisor) untrack(cameraID int64, h *handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.procs[cameraID] != h {
		return false
	}
	delete(s.procs, cameraID)
	metrics.StreamsActive.Dec()
	return true
}

func (s *Supervisor) lockFor(cameraID int64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[cameraID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[cameraID] = l
	}
	return l
}

func (s *Supervisor) manifestPath(cameraID int64) string {
	return filepath.Join(s.cfg.OutputDir, manifestName(cameraID))
}

// removeOutputs deletes the camera's manifest and segments. Failures are logged only.
func (s *Supervisor) removeOutputs(cameraID int64) {
	files := []string{s.manifestPath(cameraID)}
	segments, err := filepath.Glob(filepath.Join(s.cfg.OutputDir, strconv.FormatInt(cameraID, 10)+"_*.ts"))
	if err == nil {
		files = append(files, segments...)
	}

	for _, f := range files {
		if err := os.Remove(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Failed to remove stream output",
				zap.Int64("camera_id", cameraID),
				zap.String("file", f),
				zap.Error(err),
			)
		}
	}
}

func manifestName(cameraID int64) string {
	return strconv.FormatInt(cameraID, 10) + ".m3u8"
}
