package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ytget/yt-webdl/internal/client"
	"github.com/ytget/yt-webdl/internal/model"
	"github.com/ytget/yt-webdl/internal/server"
)

// DefaultPollInterval is how often submit --wait polls the server
const DefaultPollInterval = 500 * time.Millisecond

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		quality      string
		downloadType string
		wait         bool
		interval     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "submit <url>",
		Short: "Start a download job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.newClient()
			if err != nil {
				return err
			}
			id, err := c.StartDownload(cmd.Context(), server.StartDownloadRequest{
				URL:          args[0],
				Quality:      quality,
				DownloadType: downloadType,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, id)
			if !wait {
				return nil
			}
			return waitForJob(cmd.Context(), c, id, interval, out)
		},
	}

	cmd.Flags().StringVarP(&quality, "quality", "q", string(model.QualityBest), "best, 1080p, 720p, 480p or audio")
	cmd.Flags().StringVarP(&downloadType, "type", "t", string(model.DownloadAuto), "auto, single or playlist")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Poll until the job finishes")
	cmd.Flags().DurationVar(&interval, "interval", DefaultPollInterval, "Poll interval used with --wait")
	return cmd
}

// waitForJob prints a progress line whenever it changes and returns once the
// job is terminal. Error and cancelled jobs produce an error.
func waitForJob(ctx context.Context, c *client.Client, id string, interval time.Duration, out io.Writer) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last string
	for {
		snap, err := c.Progress(ctx, id)
		if err != nil {
			return err
		}
		if line := progressLine(snap); line != last {
			fmt.Fprintln(out, line)
			last = line
		}

		switch snap.Status {
		case model.StatusCompleted:
			fmt.Fprintf(out, "saved %s\n", derefOr(snap.Filename, placeholder))
			if snap.DownloadURL != nil {
				fmt.Fprintf(out, "fetch %s%s\n", c.BaseURL(), *snap.DownloadURL)
			}
			return nil
		case model.StatusError:
			return fmt.Errorf("job %s failed: %s", id, derefOr(snap.Error, "unknown error"))
		case model.StatusCancelled:
			return fmt.Errorf("job %s was cancelled", id)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.newClient()
			if err != nil {
				return err
			}
			snap, err := c.Progress(cmd.Context(), args[0])
			if err != nil {
				return jobError(args[0], err)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderJob(snap))
			return nil
		},
	}
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Request cancellation of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.newClient()
			if err != nil {
				return err
			}
			status, err := c.Cancel(cmd.Context(), args[0])
			if err != nil {
				return jobError(args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], status)
			return nil
		},
	}
}

func newJobsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List jobs known to the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.newClient()
			if err != nil {
				return err
			}
			jobs, err := c.Jobs(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(jobs) == 0 {
				fmt.Fprintln(out, "No jobs")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Status", "Progress", "Size", "Title", "Created"},
				jobRows(jobs),
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <playlist-url>",
		Short: "List the items of a playlist without downloading",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.newClient()
			if err != nil {
				return err
			}
			playlist, err := c.Playlist(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(playlist.Items))
			for _, item := range playlist.Items {
				rows = append(rows, []string{strconv.Itoa(item.Index), item.VideoID, truncate(item.Title, maxTitleWidth)})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%d items)\n", playlist.Title, playlist.TotalItems)
			fmt.Fprintln(out, renderTable([]string{"#", "Video", "Title"}, rows, []columnAlignment{alignRight}))
			return nil
		},
	}
}

func renderJob(snap model.Snapshot) string {
	rows := [][]string{
		{"ID", snap.ID},
		{"URL", snap.URL},
		{"Status", string(snap.Status)},
		{"Progress", formatPercent(snap.Progress)},
		{"Size", formatSize(snap)},
		{"Speed", formatSpeed(snap.Speed)},
		{"ETA", snap.ETAString()},
		{"Quality", string(snap.Quality)},
		{"Type", string(snap.DownloadType)},
		{"Title", derefOr(&snap.Title, placeholder)},
		{"File", derefOr(snap.Filename, placeholder)},
		{"Error", derefOr(snap.Error, placeholder)},
		{"Created", formatAge(snap.CreatedAt)},
	}
	return renderTable([]string{"Field", "Value"}, rows, nil) + "\n"
}

func jobError(id string, err error) error {
	if client.IsNotFound(err) {
		return fmt.Errorf("job %s not found", id)
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("job %s: %s", id, apiErr.Message)
	}
	return err
}
