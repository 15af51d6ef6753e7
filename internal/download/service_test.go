package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ytget/yt-webdl/internal/compress"
	"github.com/ytget/yt-webdl/internal/engine"
	"github.com/ytget/yt-webdl/internal/model"
)

const (
	waitFor = 5 * time.Second
	tick    = 5 * time.Millisecond
)

type extractFunc func(ctx context.Context, url string, opts engine.Options) (*engine.Info, error)

// fakeEngine stands in for yt-dlp
type fakeEngine struct {
	mu      sync.Mutex
	extract extractFunc
	calls   []string
	options []engine.Options
}

func newFakeEngine(extract extractFunc) *fakeEngine {
	return &fakeEngine{extract: extract}
}

func (f *fakeEngine) Extract(ctx context.Context, url string, opts engine.Options) (*engine.Info, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.options = append(f.options, opts)
	extract := f.extract
	f.mu.Unlock()
	return extract(ctx, url, opts)
}

func (f *fakeEngine) PrepareFilename(info *engine.Info) string {
	if info == nil {
		return ""
	}
	return info.Filename
}

func (f *fakeEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeEngine) lastOptions() engine.Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.options[len(f.options)-1]
}

func newTestService(t *testing.T, eng engine.Engine, settings Settings) *Service {
	t.Helper()
	if settings.DownloadDir == "" {
		settings.DownloadDir = t.TempDir()
	}
	svc := NewService(eng, compress.NewZipBundler(nil), settings, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()
		_ = svc.Shutdown(ctx)
	})
	return svc
}

func waitForStatus(t *testing.T, svc *Service, id string, status model.JobStatus) model.Snapshot {
	t.Helper()
	var snap model.Snapshot
	require.Eventually(t, func() bool {
		var err error
		snap, err = svc.Poll(id)
		return err == nil && snap.Status == status
	}, waitFor, tick, "job %s never reached %s (last: %s)", id, status, snap.Status)
	return snap
}

// outputFile writes a file the way the engine would and returns its path.
// It runs on worker goroutines, so failures are reported without FailNow.
func outputFile(t *testing.T, opts engine.Options, name string) string {
	t.Helper()
	path := filepath.Join(filepath.Dir(opts.OutputTemplate), name)
	assert.NoError(t, os.WriteFile(path, []byte(name), 0o644))
	return path
}

func downloading(downloaded, total int64) engine.Event {
	return engine.Event{Status: engine.StatusDownloading, DownloadedBytes: downloaded, TotalBytes: total}
}

func TestSubmit_EmptyURL(t *testing.T) {
	eng := newFakeEngine(nil)
	svc := newTestService(t, eng, Settings{})

	for _, url := range []string{"", "   "} {
		id, err := svc.Submit(url, "best", "auto")
		assert.ErrorIs(t, err, ErrInvalidRequest)
		assert.Empty(t, id)
	}
	assert.Zero(t, svc.registry.Len())
	assert.Empty(t, svc.List())
}

func TestSubmit_NonTerminalRightAway(t *testing.T) {
	release := make(chan struct{})
	eng := newFakeEngine(func(ctx context.Context, url string, opts engine.Options) (*engine.Info, error) {
		<-release
		return &engine.Info{Type: engine.TypeVideo, Filename: outputFile(t, opts, "a.mp4")}, nil
	})
	svc := newTestService(t, eng, Settings{})
	defer close(release)

	id, err := svc.Submit(" https://example.com/v ", "weird", "nonsense")
	require.NoError(t, err)

	snap, err := svc.Poll(id)
	require.NoError(t, err)
	assert.False(t, snap.Status.IsTerminal())
	assert.Equal(t, "https://example.com/v", snap.URL)
	assert.Equal(t, model.QualityBest, snap.Quality)
	assert.Equal(t, model.DownloadAuto, snap.DownloadType)
	assert.Nil(t, snap.Filename)
	assert.Nil(t, snap.Error)
}

func TestWorker_SingleVideoCompletes(t *testing.T) {
	eng := newFakeEngine(func(ctx context.Context, url string, opts engine.Options) (*engine.Info, error) {
		if err := opts.Progress(downloading(50, 100)); err != nil {
			return nil, err
		}
		if err := opts.Progress(engine.Event{Status: engine.StatusFinished}); err != nil {
			return nil, err
		}
		return &engine.Info{
			Type:     engine.TypeVideo,
			Title:    "Clip",
			Filename: outputFile(t, opts, "Clip #1.mp4"),
		}, nil
	})
	svc := newTestService(t, eng, Settings{})

	id, err := svc.Submit("https://example.com/v", "720p", "single")
	require.NoError(t, err)

	snap := waitForStatus(t, svc, id, model.StatusCompleted)
	assert.Equal(t, 100.0, snap.Progress)
	require.NotNil(t, snap.Filename)
	assert.Equal(t, "Clip #1.mp4", *snap.Filename)
	require.NotNil(t, snap.DownloadURL)
	assert.Equal(t, "/download/Clip%20%231.mp4", *snap.DownloadURL)
	assert.Nil(t, snap.Error)
	assert.Nil(t, snap.Speed)
	assert.Nil(t, snap.ETA)
	assert.Equal(t, "Clip", snap.Title)
	assert.NotNil(t, snap.FinishedAt)

	opts := eng.lastOptions()
	assert.Equal(t, Format720p, opts.Format)
	assert.True(t, opts.NoPlaylist)
	assert.Equal(t, engine.DefaultMergeFormat, opts.MergeFormat)
	assert.Equal(t, filepath.Join(svc.DownloadDir(), DefaultOutputTemplate), opts.OutputTemplate)
}

func TestWorker_AudioProducesAudioFile(t *testing.T) {
	eng := newFakeEngine(func(ctx context.Context, url string, opts engine.Options) (*engine.Info, error) {
		return &engine.Info{Type: engine.TypeVideo, Title: "Song", Filename: outputFile(t, opts, "Song.mp3")}, nil
	})
	svc := newTestService(t, eng, Settings{})

	id, err := svc.Submit("https://example.com/v", "audio", "auto")
	require.NoError(t, err)

	snap := waitForStatus(t, svc, id, model.StatusCompleted)
	require.NotNil(t, snap.Filename)
	assert.Equal(t, ".mp3", filepath.Ext(*snap.Filename))

	opts := eng.lastOptions()
	assert.Equal(t, FormatAudio, opts.Format)
	require.Len(t, opts.PostProcessors, 1)
	assert.Equal(t, engine.PostProcessorExtractAudio, opts.PostProcessors[0].Key)
	assert.Equal(t, "mp3", opts.PostProcessors[0].PreferredCodec)
	assert.Equal(t, "192", opts.PostProcessors[0].PreferredQuality)
}

func TestWorker_PlaylistBundled(t *testing.T) {
	eng := newFakeEngine(func(ctx context.Context, url string, opts engine.Options) (*engine.Info, error) {
		one := outputFile(t, opts, "One.mp4")
		two := outputFile(t, opts, "Two.mp4")
		return &engine.Info{
			Type:  engine.TypePlaylist,
			Title: "Road Trip: 2024",
			Entries: []*engine.Info{
				{Type: engine.TypeVideo, Filename: one},
				nil,
				{Type: engine.TypeVideo, Filename: filepath.Join(filepath.Dir(one), "Missing.mp4")},
				{Type: engine.TypeVideo, Filename: two},
			},
		}, nil
	})
	svc := newTestService(t, eng, Settings{})

	id, err := svc.Submit("https://example.com/playlist?list=PL1", "best", "playlist")
	require.NoError(t, err)

	snap := waitForStatus(t, svc, id, model.StatusCompleted)
	require.NotNil(t, snap.Filename)
	assert.Equal(t, "Road Trip_ 2024.zip", *snap.Filename)
	assert.False(t, eng.lastOptions().NoPlaylist)

	r, err := zip.OpenReader(filepath.Join(svc.DownloadDir(), *snap.Filename))
	require.NoError(t, err)
	defer r.Close()

	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"One.mp4", "Two.mp4"}, names)
}

func TestWorker_PlaylistUntitled(t *testing.T) {
	eng := newFakeEngine(func(ctx context.Context, url string, opts engine.Options) (*engine.Info, error) {
		return &engine.Info{Type: engine.TypePlaylist}, nil
	})
	svc := newTestService(t, eng, Settings{})

	id, err := svc.Submit("https://example.com/playlist?list=PL1", "best", "auto")
	require.NoError(t, err)

	snap := waitForStatus(t, svc, id, model.StatusCompleted)
	require.NotNil(t, snap.Filename)
	assert.Equal(t, "playlist.zip", *snap.Filename)
}

func TestWorker_PlaylistProgress(t *testing.T) {
	step := make(chan struct{})
	resume := make(chan struct{})
	emit := func(opts engine.Options, ev engine.Event) error {
		if err := opts.Progress(ev); err != nil {
			return err
		}
		step <- struct{}{}
		<-resume
		return nil
	}

	eng := newFakeEngine(func(ctx context.Context, url string, opts engine.Options) (*engine.Info, error) {
		events := []engine.Event{
			{Status: engine.StatusDownloading, DownloadedBytes: 50, TotalBytes: 100, PlaylistIndex: 2, PlaylistCount: 4},
			{Status: engine.StatusFinished, PlaylistIndex: 2, PlaylistCount: 4},
			// Audio stream of the same item restarts from zero
			{Status: engine.StatusDownloading, DownloadedBytes: 1, TotalBytes: 100, PlaylistIndex: 2, PlaylistCount: 4},
			{Status: engine.StatusDownloading, PercentStr: "not a number", PlaylistIndex: 2, PlaylistCount: 4},
			{Status: engine.StatusDownloading, DownloadedBytes: 0, TotalBytesEstimate: 200, PercentStr: "", PlaylistIndex: 3, PlaylistCount: 4},
			{Status: engine.StatusDownloading, PercentStr: " 50.0%", PlaylistIndex: 3, PlaylistCount: 4},
		}
		for _, ev := range events {
			if err := emit(opts, ev); err != nil {
				return nil, err
			}
		}
		return &engine.Info{Type: engine.TypePlaylist, Title: "Mix"}, nil
	})
	svc := newTestService(t, eng, Settings{})

	id, err := svc.Submit("https://example.com/playlist?list=PL1", "best", "playlist")
	require.NoError(t, err)

	expected := []struct {
		status   model.JobStatus
		progress float64
	}{
		{model.StatusDownloading, 37.5},
		{model.StatusProcessing, 37.5},
		{model.StatusDownloading, 37.5},
		{model.StatusDownloading, 37.5},
		{model.StatusDownloading, 50},
		{model.StatusDownloading, 62.5},
	}
	last := 0.0
	for i, want := range expected {
		<-step
		snap, err := svc.Poll(id)
		require.NoError(t, err)
		assert.Equal(t, want.status, snap.Status, "event %d", i)
		assert.Equal(t, want.progress, snap.Progress, "event %d", i)
		assert.GreaterOrEqual(t, snap.Progress, last)
		assert.LessOrEqual(t, snap.Progress, 100.0)
		last = snap.Progress
		resume <- struct{}{}
	}

	snap := waitForStatus(t, svc, id, model.StatusCompleted)
	assert.Equal(t, 100.0, snap.Progress)
}

func TestWorker_ProgressMetrics(t *testing.T) {
	step := make(chan struct{})
	resume := make(chan struct{})
	speed, eta := 2048.0, 7.0
	eng := newFakeEngine(func(ctx context.Context, url string, opts engine.Options) (*engine.Info, error) {
		if err := opts.Progress(engine.Event{
			Status:             engine.StatusDownloading,
			DownloadedBytes:    256,
			TotalBytesEstimate: 1024,
			Speed:              &speed,
			ETA:                &eta,
		}); err != nil {
			return nil, err
		}
		step <- struct{}{}
		<-resume
		return &engine.Info{Type: engine.TypeVideo, Filename: outputFile(t, opts, "a.mp4")}, nil
	})
	svc := newTestService(t, eng, Settings{})

	id, err := svc.Submit("https://example.com/v", "", "")
	require.NoError(t, err)

	<-step
	snap, err := svc.Poll(id)
	require.NoError(t, err)
	assert.Equal(t, 25.0, snap.Progress)
	assert.Equal(t, int64(256), snap.DownloadedBytes)
	require.NotNil(t, snap.TotalBytes)
	assert.Equal(t, int64(1024), *snap.TotalBytes)
	require.NotNil(t, snap.Speed)
	assert.Equal(t, 2048.0, *snap.Speed)
	require.NotNil(t, snap.ETA)
	assert.Equal(t, 7.0, *snap.ETA)
	close(resume)

	waitForStatus(t, svc, id, model.StatusCompleted)
}

// abortingEngine emits progress until the callback asks it to stop
func abortingEngine() *fakeEngine {
	return newFakeEngine(func(ctx context.Context, url string, opts engine.Options) (*engine.Info, error) {
		for i := int64(1); ; i++ {
			if err := opts.Progress(downloading(i%100, 100)); err != nil {
				return nil, fmt.Errorf("yt-dlp aborted: %w", err)
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Millisecond):
			}
		}
	})
}

func TestCancel_DownloadingJob(t *testing.T) {
	svc := newTestService(t, abortingEngine(), Settings{})

	id, err := svc.Submit("https://example.com/v", "best", "auto")
	require.NoError(t, err)
	waitForStatus(t, svc, id, model.StatusDownloading)

	status, err := svc.Cancel(id)
	require.NoError(t, err)
	assert.Contains(t, []model.JobStatus{model.StatusCancelling, model.StatusCancelled}, status)

	snap := waitForStatus(t, svc, id, model.StatusCancelled)
	assert.Nil(t, snap.Error)
	assert.Nil(t, snap.Filename)
	assert.Nil(t, snap.DownloadURL)

	// Idempotent once terminal
	for i := 0; i < 3; i++ {
		status, err = svc.Cancel(id)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, status)
	}
}

func TestCancel_UnknownJob(t *testing.T) {
	svc := newTestService(t, newFakeEngine(nil), Settings{})

	_, err := svc.Cancel("does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Poll("does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancel_CompletedJobUnchanged(t *testing.T) {
	eng := newFakeEngine(func(ctx context.Context, url string, opts engine.Options) (*engine.Info, error) {
		return &engine.Info{Type: engine.TypeVideo, Filename: outputFile(t, opts, "a.mp4")}, nil
	})
	svc := newTestService(t, eng, Settings{})

	id, err := svc.Submit("https://example.com/v", "best", "auto")
	require.NoError(t, err)
	before := waitForStatus(t, svc, id, model.StatusCompleted)

	status, err := svc.Cancel(id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, status)

	after, err := svc.Poll(id)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCancel_QueuedJobWithBoundedPool(t *testing.T) {
	release := make(chan struct{})
	eng := newFakeEngine(func(ctx context.Context, url string, opts engine.Options) (*engine.Info, error) {
		<-release
		return &engine.Info{Type: engine.TypeVideo, Filename: outputFile(t, opts, "first.mp4")}, nil
	})
	svc := newTestService(t, eng, Settings{MaxParallel: 1})

	first, err := svc.Submit("https://example.com/first", "best", "auto")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return eng.callCount() == 1 }, waitFor, tick)

	second, err := svc.Submit("https://example.com/second", "best", "auto")
	require.NoError(t, err)

	// Waiting for a slot keeps the job queued
	snap, err := svc.Poll(second)
	require.NoError(t, err)
	assert.Equal(t, model.StatusQueued, snap.Status)

	status, err := svc.Cancel(second)
	require.NoError(t, err)
	assert.Equal(t, model.StatusQueued, status)

	close(release)
	waitForStatus(t, svc, first, model.StatusCompleted)
	snap = waitForStatus(t, svc, second, model.StatusCancelled)
	assert.Nil(t, snap.Error)
	assert.Equal(t, 1, eng.callCount())
}

func TestCancel_BeforeBundling(t *testing.T) {
	var svc *Service
	var id string
	submitted := make(chan struct{})
	eng := newFakeEngine(func(ctx context.Context, url string, opts engine.Options) (*engine.Info, error) {
		<-submitted
		// The cancel lands after the last progress callback
		_, err := svc.Cancel(id)
		assert.NoError(t, err)
		return &engine.Info{Type: engine.TypePlaylist, Title: "Mix"}, nil
	})
	svc = newTestService(t, eng, Settings{})

	var err error
	id, err = svc.Submit("https://example.com/playlist?list=PL1", "best", "auto")
	require.NoError(t, err)
	close(submitted)

	waitForStatus(t, svc, id, model.StatusCancelled)
	_, statErr := os.Stat(filepath.Join(svc.DownloadDir(), "Mix.zip"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestWorker_EngineFailure(t *testing.T) {
	eng := newFakeEngine(func(ctx context.Context, url string, opts engine.Options) (*engine.Info, error) {
		if err := opts.Progress(downloading(40, 100)); err != nil {
			return nil, err
		}
		return nil, errors.New("ERROR: Unsupported URL: https://example.com/v")
	})
	svc := newTestService(t, eng, Settings{})

	id, err := svc.Submit("https://example.com/v", "best", "auto")
	require.NoError(t, err)

	snap := waitForStatus(t, svc, id, model.StatusError)
	require.NotNil(t, snap.Error)
	assert.Equal(t, "ERROR: Unsupported URL: https://example.com/v", *snap.Error)
	assert.Equal(t, 40.0, snap.Progress)
	assert.Nil(t, snap.Filename)
}

func TestWorker_EmptyErrorMessage(t *testing.T) {
	eng := newFakeEngine(func(ctx context.Context, url string, opts engine.Options) (*engine.Info, error) {
		return nil, errors.New("")
	})
	svc := newTestService(t, eng, Settings{})

	id, err := svc.Submit("https://example.com/v", "best", "auto")
	require.NoError(t, err)

	snap := waitForStatus(t, svc, id, model.StatusError)
	require.NotNil(t, snap.Error)
	assert.NotEmpty(t, *snap.Error)
}

func TestWorker_SingleModeIgnoresPlaylistResult(t *testing.T) {
	eng := newFakeEngine(func(ctx context.Context, url string, opts engine.Options) (*engine.Info, error) {
		a := outputFile(t, opts, "A.mp4")
		b := outputFile(t, opts, "B.mp4")
		return &engine.Info{
			Type:     engine.TypePlaylist,
			Title:    "Mix",
			Filename: a,
			Entries: []*engine.Info{
				{Type: engine.TypeVideo, Filename: a},
				{Type: engine.TypeVideo, Filename: b},
			},
		}, nil
	})
	svc := newTestService(t, eng, Settings{})

	id, err := svc.Submit("https://example.com/watch?v=a&list=PL1", "best", "single")
	require.NoError(t, err)

	snap := waitForStatus(t, svc, id, model.StatusCompleted)
	require.NotNil(t, snap.Filename)
	assert.Equal(t, "A.mp4", *snap.Filename)
	assert.True(t, eng.lastOptions().NoPlaylist)

	matches, err := filepath.Glob(filepath.Join(svc.DownloadDir(), "*.zip"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestWorker_MissingOutputIsError(t *testing.T) {
	eng := newFakeEngine(func(ctx context.Context, url string, opts engine.Options) (*engine.Info, error) {
		return &engine.Info{Type: engine.TypeVideo}, nil
	})
	svc := newTestService(t, eng, Settings{})

	id, err := svc.Submit("https://example.com/v", "best", "auto")
	require.NoError(t, err)

	snap := waitForStatus(t, svc, id, model.StatusError)
	require.NotNil(t, snap.Error)
	assert.Nil(t, snap.Filename)
}

func TestWorker_PanicRecorded(t *testing.T) {
	eng := newFakeEngine(func(ctx context.Context, url string, opts engine.Options) (*engine.Info, error) {
		panic("engine exploded")
	})
	svc := newTestService(t, eng, Settings{})

	id, err := svc.Submit("https://example.com/v", "best", "auto")
	require.NoError(t, err)

	snap := waitForStatus(t, svc, id, model.StatusError)
	require.NotNil(t, snap.Error)
	assert.Contains(t, *snap.Error, "engine exploded")
}

func TestSubmit_SweepsStaleJobs(t *testing.T) {
	eng := newFakeEngine(func(ctx context.Context, url string, opts engine.Options) (*engine.Info, error) {
		return &engine.Info{Type: engine.TypeVideo, Filename: outputFile(t, opts, "a.mp4")}, nil
	})
	svc := newTestService(t, eng, Settings{Retention: time.Minute})

	old, err := svc.Submit("https://example.com/old", "best", "auto")
	require.NoError(t, err)
	waitForStatus(t, svc, old, model.StatusCompleted)

	later := time.Now().Add(2 * time.Minute)
	svc.now = func() time.Time { return later }

	fresh, err := svc.Submit("https://example.com/fresh", "best", "auto")
	require.NoError(t, err)

	_, err = svc.Poll(old)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Cancel(old)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Poll(fresh)
	assert.NoError(t, err)
}

func TestShutdown_CancelsRunningJobs(t *testing.T) {
	started := make(chan struct{})
	eng := newFakeEngine(func(ctx context.Context, url string, opts engine.Options) (*engine.Info, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	svc := NewService(eng, compress.NewZipBundler(nil), Settings{DownloadDir: t.TempDir()}, nil)

	id, err := svc.Submit("https://example.com/v", "best", "auto")
	require.NoError(t, err)
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, svc.Shutdown(ctx))

	snap, err := svc.Poll(id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, snap.Status)

	_, err = svc.Submit("https://example.com/v", "best", "auto")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestUpdateCallback_ReceivesTransitions(t *testing.T) {
	eng := newFakeEngine(func(ctx context.Context, url string, opts engine.Options) (*engine.Info, error) {
		for _, ev := range []engine.Event{downloading(10, 100), downloading(20, 100), {Status: engine.StatusFinished}} {
			if err := opts.Progress(ev); err != nil {
				return nil, err
			}
		}
		return &engine.Info{Type: engine.TypeVideo, Filename: outputFile(t, opts, "a.mp4")}, nil
	})
	svc := newTestService(t, eng, Settings{})

	var (
		mu       sync.Mutex
		statuses []model.JobStatus
	)
	svc.SetUpdateCallback(func(snap model.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		statuses = append(statuses, snap.Status)
	})

	id, err := svc.Submit("https://example.com/v", "best", "auto")
	require.NoError(t, err)
	waitForStatus(t, svc, id, model.StatusCompleted)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(statuses) > 0 && statuses[len(statuses)-1] == model.StatusCompleted
	}, waitFor, tick)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []model.JobStatus{
		model.StatusQueued,
		model.StatusStarting,
		model.StatusDownloading,
		model.StatusProcessing,
		model.StatusCompleted,
	}, statuses)
}

func TestList_IncludesDownloadURL(t *testing.T) {
	eng := newFakeEngine(func(ctx context.Context, url string, opts engine.Options) (*engine.Info, error) {
		return &engine.Info{Type: engine.TypeVideo, Filename: outputFile(t, opts, "a b.mp4")}, nil
	})
	svc := newTestService(t, eng, Settings{})

	id, err := svc.Submit("https://example.com/v", "best", "auto")
	require.NoError(t, err)
	waitForStatus(t, svc, id, model.StatusCompleted)

	jobs := svc.List()
	require.Len(t, jobs, 1)
	require.NotNil(t, jobs[0].DownloadURL)
	assert.Equal(t, "/download/a%20b.mp4", *jobs[0].DownloadURL)
}
