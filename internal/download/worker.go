package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ytget/yt-webdl/internal/engine"
	"github.com/ytget/yt-webdl/internal/model"
	"github.com/ytget/yt-webdl/internal/platform"
	"github.com/ytget/yt-webdl/internal/progress"
)

// Worker constants
const (
	// Title used for the archive when the engine reports none
	DefaultPlaylistTitle = "playlist"
)

var (
	errNoResult = errors.New("engine returned no result")
	errNoOutput = errors.New("engine reported no output file")
)

// runWorker drives one job from queued to a terminal status
func (s *Service) runWorker(id string) {
	defer s.workers.Done()

	logger := s.logger.With(slog.String("job_id", id))

	if !s.acquireSlot() {
		s.finishJob(id, logger, "", "", context.Canceled)
		return
	}
	defer s.releaseSlot()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("worker panic", slog.Any("panic", r))
			s.finishJob(id, logger, "", "", fmt.Errorf("internal error: %v", r))
		}
	}()

	artifact, title, err := s.download(id, logger)
	s.finishJob(id, logger, artifact, title, err)
}

// acquireSlot waits for a free worker slot. It returns false when the
// service shuts down first.
func (s *Service) acquireSlot() bool {
	if s.slots == nil {
		return true
	}
	select {
	case s.slots <- struct{}{}:
		return true
	case <-s.baseCtx.Done():
		return false
	}
}

func (s *Service) releaseSlot() {
	if s.slots != nil {
		<-s.slots
	}
}

// download runs the engine for the job and returns the artifact name
func (s *Service) download(id string, logger *slog.Logger) (string, string, error) {
	var (
		job       model.Job
		cancelled bool
	)
	snap, ok := s.registry.Update(id, func(j *model.Job) {
		if j.CancelRequested {
			cancelled = true
			return
		}
		j.Status = model.StatusStarting
		j.Progress = 0
		j.StartedAt = s.now()
		job = *j
	})
	if !ok {
		// Swept before the worker got to run
		logger.Debug("job vanished before start")
		return "", "", nil
	}
	if cancelled {
		return "", "", engine.ErrCancelled
	}
	s.notifyUpdate(snap)

	plan := BuildPlan(job.Quality, job.DownloadType, s.settings.AudioCodec, s.settings.AudioQuality)
	opts := engine.Options{
		OutputTemplate: filepath.Join(s.settings.DownloadDir, s.settings.OutputTemplate),
		Format:         plan.Format,
		MergeFormat:    s.settings.MergeFormat,
		NoPlaylist:     plan.NoPlaylist,
		PostProcessors: plan.PostProcessors,
		Progress:       s.progressHook(id),
	}

	logger.Info("starting download",
		slog.String("format", plan.Format),
		slog.Bool("no_playlist", plan.NoPlaylist),
	)
	info, err := s.engine.Extract(s.baseCtx, job.URL, opts)
	if err != nil {
		return "", "", err
	}
	if info == nil {
		return "", "", errNoResult
	}

	if info.IsPlaylist() && !plan.NoPlaylist {
		artifact, err := s.bundlePlaylist(id, info, logger)
		return artifact, info.Title, err
	}

	filename := s.engine.PrepareFilename(info)
	if filename == "" {
		return "", info.Title, errNoOutput
	}
	return filepath.Base(filename), info.Title, nil
}

// bundlePlaylist zips every downloaded playlist item into one archive
func (s *Service) bundlePlaylist(id string, info *engine.Info, logger *slog.Logger) (string, error) {
	if s.cancelRequested(id) {
		return "", engine.ErrCancelled
	}

	files := make([]string, 0, len(info.Entries))
	for _, entry := range info.Entries {
		if entry == nil {
			continue
		}
		if filename := s.engine.PrepareFilename(entry); filename != "" {
			files = append(files, filename)
		}
	}

	title := info.Title
	if title == "" {
		title = DefaultPlaylistTitle
	}
	archivePath := filepath.Join(s.settings.DownloadDir, platform.ArchiveName(title))

	logger.Info("bundling playlist",
		slog.String("archive", archivePath),
		slog.Int("entries", len(files)),
	)
	if _, err := s.bundler.Bundle(s.baseCtx, archivePath, files); err != nil {
		return "", fmt.Errorf("failed to bundle playlist: %w", err)
	}
	return filepath.Base(archivePath), nil
}

// progressHook returns the engine callback for the job. It aborts the engine
// once a cancel has been requested.
func (s *Service) progressHook(id string) engine.ProgressFunc {
	return func(ev engine.Event) error {
		var (
			cancelled bool
			changed   bool
		)
		snap, ok := s.registry.Update(id, func(j *model.Job) {
			if j.CancelRequested {
				cancelled = true
				return
			}
			previous := j.Status
			applyReading(j, progress.Compute(ev))
			changed = j.Status != previous
		})
		if cancelled {
			return engine.ErrCancelled
		}
		if ok && changed {
			s.notifyUpdate(snap)
		}
		return nil
	}
}

// applyReading writes one progress reading onto the job
func applyReading(j *model.Job, r progress.Reading) {
	if r.ItemFinished {
		j.Status = model.StatusProcessing
		return
	}

	j.Status = model.StatusDownloading
	j.DownloadedBytes = r.DownloadedBytes
	j.TotalBytes = r.TotalBytes
	j.Speed = r.Speed
	j.ETA = r.ETA
	if r.HasPercent {
		j.Progress = progress.Advance(j.Progress, r.Percent)
	}
}

func (s *Service) cancelRequested(id string) bool {
	requested := false
	s.registry.View(id, func(j *model.Job) {
		requested = j.CancelRequested
	})
	return requested
}

// finishJob records the terminal status of the job
func (s *Service) finishJob(id string, logger *slog.Logger, artifact, title string, err error) {
	status := model.StatusCompleted
	switch {
	case err == nil:
	case errors.Is(err, engine.ErrCancelled),
		errors.Is(err, context.Canceled) && s.baseCtx.Err() != nil:
		status = model.StatusCancelled
	default:
		status = model.StatusError
	}

	snap, ok := s.registry.Update(id, func(j *model.Job) {
		j.Status = status
		j.FinishedAt = s.now()
		if title != "" {
			j.Title = title
		}
		switch status {
		case model.StatusCompleted:
			j.Progress = progress.MaxPercent
			j.ResultArtifact = artifact
			j.Speed = nil
			j.ETA = nil
		case model.StatusError:
			j.ErrorMessage = failureMessage(err)
		}
	})
	if !ok {
		return
	}

	switch status {
	case model.StatusCompleted:
		logger.Info("job completed", slog.String("artifact", artifact))
	case model.StatusCancelled:
		logger.Info("job cancelled")
	default:
		logger.Warn("job failed", slog.String("error", failureMessage(err)))
	}
	s.notifyUpdate(snap)
}

// failureMessage returns the error text verbatim, or a generic description
// when the error carries none
func failureMessage(err error) string {
	if msg := err.Error(); strings.TrimSpace(msg) != "" {
		return msg
	}
	return fmt.Sprintf("download failed (%T)", err)
}
