// Package events publishes job lifecycle events to NATS.
package events

import (
	"time"

	"github.com/ytget/yt-webdl/internal/model"
)

// JobEvent is the payload published on every job status transition.
// Events for one job can arrive out of order; Revision strictly increases
// with each change to the job, so consumers keep the highest one seen.
type JobEvent struct {
	JobID        string  `json:"job_id"`
	URL          string  `json:"url"`
	Quality      string  `json:"quality"`
	DownloadType string  `json:"download_type"`
	Status       string  `json:"status"`
	Progress     float64 `json:"progress"`
	Title        string  `json:"title,omitempty"`
	Filename     string  `json:"filename,omitempty"`
	DownloadURL  string  `json:"download_url,omitempty"`
	Error        string  `json:"error,omitempty"`
	CreatedAt    int64   `json:"created_at"`
	HappenedAt   int64   `json:"happened_at"`
	Revision     uint64  `json:"revision"`
}

// FromSnapshot builds the event for a job snapshot
func FromSnapshot(snap model.Snapshot, now time.Time) JobEvent {
	ev := JobEvent{
		JobID:        snap.ID,
		URL:          snap.URL,
		Quality:      string(snap.Quality),
		DownloadType: string(snap.DownloadType),
		Status:       snap.Status.String(),
		Progress:     snap.Progress,
		Title:        snap.Title,
		CreatedAt:    snap.CreatedAt.Unix(),
		HappenedAt:   now.Unix(),
		Revision:     snap.Revision,
	}
	if snap.Filename != nil {
		ev.Filename = *snap.Filename
	}
	if snap.DownloadURL != nil {
		ev.DownloadURL = *snap.DownloadURL
	}
	if snap.Error != nil {
		ev.Error = *snap.Error
	}
	return ev
}
