package model

import (
	"fmt"
	"strings"
	"time"
)

// Job is the mutable record of one submitted download. It is owned by the
// registry; only the job's own worker writes status and progress fields.
type Job struct {
	ID           string
	URL          string
	Quality      Quality
	DownloadType DownloadType

	Status          JobStatus
	Progress        float64  // 0 to 100, two decimals
	DownloadedBytes int64    // latest raw metric
	TotalBytes      *int64   // nil if unknown
	Speed           *float64 // bytes per second, nil if unknown
	ETA             *float64 // seconds, nil if unknown

	Title           string // engine title once known
	ResultArtifact  string // base name inside the download dir, set only on completed
	ErrorMessage    string // set only on error
	CancelRequested bool
	Revision        uint64 // incremented by every registry update

	CreatedAt  time.Time
	StartedAt  time.Time
	UpdatedAt  time.Time
	FinishedAt time.Time
}

// Snapshot is a read-only copy of a Job as returned to pollers
type Snapshot struct {
	ID              string       `json:"id"`
	URL             string       `json:"url"`
	Quality         Quality      `json:"quality"`
	DownloadType    DownloadType `json:"download_type"`
	Status          JobStatus    `json:"status"`
	Progress        float64      `json:"progress"`
	Title           string       `json:"title,omitempty"`
	Filename        *string      `json:"filename"`
	Error           *string      `json:"error"`
	DownloadURL     *string      `json:"download_url"`
	TotalBytes      *int64       `json:"total_bytes"`
	DownloadedBytes int64        `json:"downloaded_bytes"`
	Speed           *float64     `json:"speed"`
	ETA             *float64     `json:"eta"`
	CreatedAt       time.Time    `json:"created_at"`
	FinishedAt      *time.Time   `json:"finished_at,omitempty"`
	Revision        uint64       `json:"revision"`
}

// Snapshot copies the job's fields. Pointer fields are cloned so the result
// never aliases the live record.
func (j *Job) Snapshot() Snapshot {
	s := Snapshot{
		ID:              j.ID,
		URL:             j.URL,
		Quality:         j.Quality,
		DownloadType:    j.DownloadType,
		Status:          j.Status,
		Progress:        j.Progress,
		Title:           j.Title,
		DownloadedBytes: j.DownloadedBytes,
		TotalBytes:      clonePtr(j.TotalBytes),
		Speed:           clonePtr(j.Speed),
		ETA:             clonePtr(j.ETA),
		CreatedAt:       j.CreatedAt,
		Revision:        j.Revision,
	}
	if j.ResultArtifact != "" {
		s.Filename = clonePtr(&j.ResultArtifact)
	}
	if j.ErrorMessage != "" {
		s.Error = clonePtr(&j.ErrorMessage)
	}
	if !j.FinishedAt.IsZero() {
		s.FinishedAt = clonePtr(&j.FinishedAt)
	}
	return s
}

// Age returns how long ago the job was created
func (j *Job) Age(now time.Time) time.Duration {
	return now.Sub(j.CreatedAt)
}

// ETAString returns ETA formatted as hh:mm:ss, or "-" if unknown
func (s Snapshot) ETAString() string {
	if s.ETA == nil || *s.ETA <= 0 {
		return "-"
	}

	eta := int(*s.ETA)
	hours := eta / 3600
	minutes := (eta % 3600) / 60
	seconds := eta % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// DisplayTitle returns title, artifact name, or URL in order of preference
func (s Snapshot) DisplayTitle() string {
	if s.Title != "" && !strings.HasPrefix(s.Title, "http") {
		return s.Title
	}

	if s.Filename != nil && *s.Filename != "" {
		filename := *s.Filename
		// Remove file extension for cleaner display
		if idx := strings.LastIndex(filename, "."); idx > 0 {
			filename = filename[:idx]
		}
		return filename
	}

	return s.URL
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
