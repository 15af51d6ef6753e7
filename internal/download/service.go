package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ytget/yt-webdl/internal/compress"
	"github.com/ytget/yt-webdl/internal/engine"
	"github.com/ytget/yt-webdl/internal/model"
)

// Service defaults
const (
	DefaultOutputTemplate = "%(title)s.%(ext)s"
	DefaultRetention      = 60 * time.Minute

	// DownloadPathPrefix is the route finished artifacts are served under
	DownloadPathPrefix = "/download/"
)

var (
	// ErrInvalidRequest is returned for submissions without a URL
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound is returned for unknown or swept job ids
	ErrNotFound = errors.New("job not found")
	// ErrClosed is returned by Submit after Shutdown
	ErrClosed = errors.New("download service is shut down")
)

// Settings configures the download service
type Settings struct {
	DownloadDir    string
	OutputTemplate string // relative to DownloadDir
	MergeFormat    string
	AudioCodec     string
	AudioQuality   string
	Retention      time.Duration
	MaxParallel    int // 0 means unbounded
}

// Service handles download jobs
type Service struct {
	registry *Registry
	engine   engine.Engine
	bundler  compress.Bundler
	settings Settings
	logger   *slog.Logger

	baseCtx context.Context
	stop    context.CancelFunc
	workers sync.WaitGroup
	slots   chan struct{} // nil when unbounded

	lifecycle sync.Mutex
	closed    bool

	mu       sync.RWMutex
	onUpdate func(model.Snapshot) // observer for metrics and events

	now func() time.Time
}

// NewService creates a new download service
func NewService(eng engine.Engine, bundler compress.Bundler, settings Settings, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if settings.OutputTemplate == "" {
		settings.OutputTemplate = DefaultOutputTemplate
	}
	if settings.MergeFormat == "" {
		settings.MergeFormat = engine.DefaultMergeFormat
	}
	if settings.Retention <= 0 {
		settings.Retention = DefaultRetention
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		registry: NewRegistry(),
		engine:   eng,
		bundler:  bundler,
		settings: settings,
		logger:   logger,
		baseCtx:  ctx,
		stop:     cancel,
		now:      time.Now,
	}
	if settings.MaxParallel > 0 {
		s.slots = make(chan struct{}, settings.MaxParallel)
	}
	return s
}

// SetUpdateCallback sets the function invoked with a snapshot on every
// status transition
func (s *Service) SetUpdateCallback(callback func(model.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = callback
}

// Submit registers a job for rawURL and starts its worker
func (s *Service) Submit(rawURL, quality, downloadType string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("%w: URL is required", ErrInvalidRequest)
	}

	s.lifecycle.Lock()
	if s.closed {
		s.lifecycle.Unlock()
		return "", ErrClosed
	}
	s.workers.Add(1)
	s.lifecycle.Unlock()

	if removed := s.registry.Sweep(s.now(), s.settings.Retention); removed > 0 {
		s.logger.Debug("swept stale jobs", slog.Int("removed", removed))
	}

	snap := s.registry.Create(rawURL, model.ParseQuality(quality), model.ParseDownloadType(downloadType))
	s.logger.Info("job submitted",
		slog.String("job_id", snap.ID),
		slog.String("url", snap.URL),
		slog.String("quality", string(snap.Quality)),
		slog.String("download_type", string(snap.DownloadType)),
	)
	s.notifyUpdate(snap)

	go s.runWorker(snap.ID)

	return snap.ID, nil
}

// Poll returns the current state of a job
func (s *Service) Poll(id string) (model.Snapshot, error) {
	snap, ok := s.registry.Get(id)
	if !ok {
		return model.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return withDownloadURL(snap), nil
}

// Cancel requests cooperative cancellation and returns the resulting status.
// Terminal jobs are left unchanged.
func (s *Service) Cancel(id string) (model.JobStatus, error) {
	var previous model.JobStatus
	snap, ok := s.registry.Update(id, func(j *model.Job) {
		previous = j.Status
		j.CancelRequested = true
		if j.Status.ShowsCancelling() {
			j.Status = model.StatusCancelling
		}
	})
	if ok {
		if snap.Status != previous {
			s.logger.Info("job cancelling", slog.String("job_id", id))
			s.notifyUpdate(snap)
		}
		return snap.Status, nil
	}

	// Either swept or already terminal
	current, exists := s.registry.Get(id)
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return current.Status, nil
}

// List returns every job, oldest first
func (s *Service) List() []model.Snapshot {
	snapshots := s.registry.List()
	for i := range snapshots {
		snapshots[i] = withDownloadURL(snapshots[i])
	}
	return snapshots
}

// Shutdown stops accepting jobs, cancels every worker and waits for them
// to finish or for ctx to expire
func (s *Service) Shutdown(ctx context.Context) error {
	s.lifecycle.Lock()
	s.closed = true
	s.lifecycle.Unlock()

	s.stop()

	done := make(chan struct{})
	go func() {
		s.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for workers: %w", ctx.Err())
	}
}

// DownloadDir returns the directory artifacts are written to
func (s *Service) DownloadDir() string {
	return s.settings.DownloadDir
}

// notifyUpdate calls the update callback if set
func (s *Service) notifyUpdate(snap model.Snapshot) {
	s.mu.RLock()
	callback := s.onUpdate
	s.mu.RUnlock()

	if callback != nil {
		callback(withDownloadURL(snap))
	}
}

// withDownloadURL fills in the download link for finished artifacts
func withDownloadURL(snap model.Snapshot) model.Snapshot {
	if snap.Filename != nil && *snap.Filename != "" {
		link := DownloadPathPrefix + url.PathEscape(*snap.Filename)
		snap.DownloadURL = &link
	}
	return snap
}
