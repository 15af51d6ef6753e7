package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ytget/yt-webdl/internal/model"
)

const (
	placeholder   = "-"
	maxTitleWidth = 48
)

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// formatSize renders "done / total" or just "done" when the total is unknown
func formatSize(snap model.Snapshot) string {
	if snap.DownloadedBytes <= 0 && snap.TotalBytes == nil {
		return placeholder
	}
	done := humanize.Bytes(uint64(max(snap.DownloadedBytes, 0)))
	if snap.TotalBytes == nil {
		return done
	}
	return done + " / " + humanize.Bytes(uint64(max(*snap.TotalBytes, 0)))
}

func formatSpeed(speed *float64) string {
	if speed == nil || *speed <= 0 {
		return placeholder
	}
	return humanize.Bytes(uint64(*speed)) + "/s"
}

func formatAge(t time.Time) string {
	if t.IsZero() {
		return placeholder
	}
	return humanize.Time(t)
}

func jobLabel(snap model.Snapshot) string {
	return truncate(strings.TrimSpace(snap.DisplayTitle()), maxTitleWidth)
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}

// progressLine is the single status line printed while waiting on a job
func progressLine(snap model.Snapshot) string {
	parts := []string{
		string(snap.Status),
		formatPercent(snap.Progress),
		formatSize(snap),
	}
	if snap.Status == model.StatusDownloading {
		parts = append(parts, formatSpeed(snap.Speed), "ETA "+snap.ETAString())
	}
	return strings.Join(parts, "  ")
}

func jobRows(jobs []model.Snapshot) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			job.ID,
			string(job.Status),
			formatPercent(job.Progress),
			formatSize(job),
			jobLabel(job),
			formatAge(job.CreatedAt),
		})
	}
	return rows
}

func derefOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
