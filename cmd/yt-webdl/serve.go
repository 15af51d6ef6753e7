package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/ytget/yt-webdl/internal/compress"
	"github.com/ytget/yt-webdl/internal/config"
	"github.com/ytget/yt-webdl/internal/download"
	"github.com/ytget/yt-webdl/internal/engine"
	"github.com/ytget/yt-webdl/internal/events"
	"github.com/ytget/yt-webdl/internal/logging"
	"github.com/ytget/yt-webdl/internal/metrics"
	"github.com/ytget/yt-webdl/internal/model"
	"github.com/ytget/yt-webdl/internal/platform"
	"github.com/ytget/yt-webdl/internal/server"
)

// JobShutdownTimeout bounds how long running jobs get to wind down
const JobShutdownTimeout = 30 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bindFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the download server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if bindFlag != "" {
				cfg.Server.Bind = bindFlag
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(runCtx, cfg)
		},
	}

	cmd.Flags().StringVarP(&bindFlag, "bind", "b", "", "Listen address, overrides the configuration")
	return cmd
}

func runServer(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	lock := flock.New(cfg.Server.LockFile)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another %s server is already using %s", AppName, cfg.Server.DownloadDir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release server lock", slog.String("error", err.Error()))
		}
	}()

	eng := engine.NewYTDLP(cfg.Engine.Binary, logger)
	if err := eng.CheckBinary(); err != nil {
		logger.Warn("download engine unavailable, jobs will fail until it is installed", slog.String("error", err.Error()))
	}

	svc := download.NewService(eng, compress.NewZipBundler(logger), download.Settings{
		DownloadDir:    cfg.Server.DownloadDir,
		OutputTemplate: cfg.Engine.OutputTemplate,
		MergeFormat:    cfg.Engine.MergeFormat,
		AudioCodec:     cfg.Engine.AudioCodec,
		AudioQuality:   cfg.Engine.AudioQuality,
		Retention:      cfg.Retention(),
		MaxParallel:    cfg.Jobs.MaxParallel,
	}, logger)

	var (
		observers      []func(model.Snapshot)
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		collector := metrics.New(metrics.ActiveJobs(svc.List))
		observers = append(observers, collector.Observe)
		metricsHandler = collector.Handler()
	}

	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()
	observers = append(observers, events.Observer(publisher, logger))

	svc.SetUpdateCallback(func(snap model.Snapshot) {
		for _, observe := range observers {
			observe(snap)
		}
	})

	srv := server.New(svc, server.Options{
		DownloadDir: cfg.Server.DownloadDir,
		Inspector:   platform.NewPlaylistInspector(),
		Engine:      eng,
		Metrics:     metricsHandler,
	}, logger)

	logger.Info("yt-webdl starting",
		slog.String("version", version),
		slog.String("bind", cfg.Server.Bind),
		slog.String("download_dir", cfg.Server.DownloadDir),
		slog.Int("max_parallel", cfg.Jobs.MaxParallel),
	)
	serveErr := srv.Run(ctx, cfg.Server.Bind)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), JobShutdownTimeout)
	defer cancel()
	if err := svc.Shutdown(shutdownCtx); err != nil {
		logger.Warn("jobs did not stop in time", slog.String("error", err.Error()))
	}

	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		return serveErr
	}
	return nil
}

func newPublisher(cfg *config.Config, logger *slog.Logger) (events.Publisher, error) {
	if cfg.Events.NATSURL == "" {
		return events.Nop{}, nil
	}
	pub, err := events.Connect(cfg.Events.NATSURL, cfg.Events.SubjectPrefix)
	if err != nil {
		return nil, err
	}
	logger.Info("publishing job events", slog.String("nats_url", cfg.Events.NATSURL), slog.String("subject_prefix", cfg.Events.SubjectPrefix))
	return pub, nil
}
