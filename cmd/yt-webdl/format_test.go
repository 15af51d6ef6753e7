package main

import (
	"strings"
	"testing"

	"github.com/ytget/yt-webdl/internal/model"
)

func TestFormatSize(t *testing.T) {
	total := int64(5_000_000)
	tests := []struct {
		name     string
		snap     model.Snapshot
		expected string
	}{
		{"nothing yet", model.Snapshot{}, "-"},
		{"unknown total", model.Snapshot{DownloadedBytes: 1_000_000}, "1.0 MB"},
		{"known total", model.Snapshot{DownloadedBytes: 1_000_000, TotalBytes: &total}, "1.0 MB / 5.0 MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatSize(tt.snap); got != tt.expected {
				t.Errorf("formatSize() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestJobLabel(t *testing.T) {
	if got := jobLabel(model.Snapshot{URL: "https://example.com/v"}); got != "https://example.com/v" {
		t.Errorf("jobLabel() = %q, expected URL fallback", got)
	}

	long := strings.Repeat("ж", maxTitleWidth+5)
	got := jobLabel(model.Snapshot{Title: long})
	if n := len([]rune(got)); n != maxTitleWidth {
		t.Errorf("jobLabel() width = %d, expected %d", n, maxTitleWidth)
	}
}

func TestProgressLine(t *testing.T) {
	speed := 2048.0
	line := progressLine(model.Snapshot{Status: model.StatusDownloading, Progress: 42.5, DownloadedBytes: 10, Speed: &speed})
	for _, part := range []string{"downloading", "42.5%", "2.0 kB/s", "ETA -"} {
		if !strings.Contains(line, part) {
			t.Errorf("progressLine() = %q, expected it to contain %q", line, part)
		}
	}

	line = progressLine(model.Snapshot{Status: model.StatusCompleted, Progress: 100})
	if strings.Contains(line, "ETA") {
		t.Errorf("progressLine() = %q, expected no ETA once completed", line)
	}
}

func TestDialAddress(t *testing.T) {
	tests := []struct {
		bind     string
		expected string
	}{
		{"127.0.0.1:5000", "127.0.0.1:5000"},
		{"0.0.0.0:8080", "127.0.0.1:8080"},
		{":9000", "127.0.0.1:9000"},
		{"[::]:5000", "127.0.0.1:5000"},
		{"example.com", "example.com"},
	}

	for _, tt := range tests {
		if got := dialAddress(tt.bind); got != tt.expected {
			t.Errorf("dialAddress(%q) = %q, expected %q", tt.bind, got, tt.expected)
		}
	}
}
