package stream

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	// maxStderrTail caps the transcoder stderr kept for exit diagnostics.
	maxStderrTail = 4 * 1024

	// killGrace is how long a transcoder gets to exit after SIGTERM before SIGKILL.
	killGrace = 3 * time.Second
)

// LaunchSpec describes one transcoder invocation.
type LaunchSpec struct {
	CameraID       int64
	SourceURL      string
	ManifestPath   string
	SegmentPattern string
	SegmentSeconds int
	PlaylistSize   int
}

// Process is a handle on a running transcoder.
type Process interface {
	PID() int
	// Done is closed once the process has exited.
	Done() <-chan struct{}
	// Err reports how the process exited. Only meaningful after Done is closed.
	Err() error
	// Terminate signals the process to stop and waits, bounded, for it to exit.
	Terminate() error
}

// Launcher spawns transcoder processes.
type Launcher interface {
	Launch(spec LaunchSpec) (Process, error)
}

// FFmpegLauncher runs ffmpeg to repackage an RTSP source into a sliding-window HLS playlist.
type FFmpegLauncher struct {
	ffmpegPath string
	logger     *zap.Logger
}

// NewFFmpegLauncher creates a launcher for the given ffmpeg binary.
func NewFFmpegLauncher(ffmpegPath string, logger *zap.Logger) *FFmpegLauncher {
	return &FFmpegLauncher{
		ffmpegPath: ffmpegPath,
		logger:     logger,
	}
}

// buildArgs returns the ffmpeg arguments for a low-latency HLS output whose
// older segments are deleted as the window slides.
func buildArgs(spec LaunchSpec) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "warning",
		"-rtsp_transport", "tcp",
		"-i", spec.SourceURL,
		"-c:v", "copy",
		"-an",
		"-f", "hls",
		"-hls_time", strconv.Itoa(spec.SegmentSeconds),
		"-hls_list_size", strconv.Itoa(spec.PlaylistSize),
		"-hls_flags", "delete_segments",
		"-hls_segment_filename", spec.SegmentPattern,
		spec.ManifestPath,
	}
}

// Launch starts ffmpeg in its own process group so the whole group can be signalled.
func (l *FFmpegLauncher) Launch(spec LaunchSpec) (Process, error) {
	cmd := exec.Command(l.ffmpegPath, buildArgs(spec)...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stderr := &stderrTail{
		limit:    maxStderrTail,
		logger:   l.logger,
		cameraID: spec.CameraID,
		redactor: newRedactor(spec.SourceURL),
	}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	p := &ffmpegProcess{
		cmd:    cmd,
		stderr: stderr,
		done:   make(chan struct{}),
	}
	go p.wait()

	return p, nil
}

type ffmpegProcess struct {
	cmd    *exec.Cmd
	stderr *stderrTail
	done   chan struct{}

	mu  sync.Mutex
	err error
}

func (p *ffmpegProcess) wait() {
	err := p.cmd.Wait()
	if err != nil {
		if tail := p.stderr.String(); tail != "" {
			err = fmt.Errorf("%w: %s", err, lastLine(tail))
		}
	}
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
	close(p.done)
}

func (p *ffmpegProcess) PID() int {
	return p.cmd.Process.Pid
}

func (p *ffmpegProcess) Done() <-chan struct{} {
	return p.done
}

func (p *ffmpegProcess) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *ffmpegProcess) Terminate() error {
	select {
	case <-p.done:
		return nil
	default:
	}

	pgid := -p.cmd.Process.Pid
	if err := syscall.Kill(pgid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("signal ffmpeg: %w", err)
	}

	select {
	case <-p.done:
		return nil
	case <-time.After(killGrace):
	}

	// Kill entire process group
	if err := syscall.Kill(pgid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("kill ffmpeg: %w", err)
	}
	select {
	case <-p.done:
		return nil
	case <-time.After(killGrace):
		return fmt.Errorf("ffmpeg pid %d did not exit after SIGKILL", p.cmd.Process.Pid)
	}
}

// stderrTail forwards transcoder stderr lines to the logger and keeps the most
// recent bytes for exit diagnostics.
type stderrTail struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	partial  []byte
	limit    int
	logger   *zap.Logger
	cameraID int64
	redactor *strings.Replacer
}

func (t *stderrTail) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf.Write(p)
	if over := t.buf.Len() - t.limit; over > 0 {
		t.buf.Next(over)
	}

	t.partial = append(t.partial, p...)
	for {
		i := bytes.IndexByte(t.partial, '\n')
		if i < 0 {
			break
		}
		line := t.redactor.Replace(strings.TrimSpace(string(t.partial[:i])))
		t.partial = t.partial[i+1:]
		if line != "" {
			t.logger.Debug("ffmpeg stderr", zap.Int64("camera_id", t.cameraID), zap.String("line", line))
		}
	}
	if len(t.partial) > t.limit {
		t.partial = t.partial[len(t.partial)-t.limit:]
	}
	return len(p), nil
}

func (t *stderrTail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.redactor.Replace(t.buf.String())
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
