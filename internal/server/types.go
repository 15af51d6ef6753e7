package server

import (
	"strings"

	"github.com/ytget/yt-webdl/internal/model"
)

// StartDownloadRequest is the body of POST /api/start_download
type StartDownloadRequest struct {
	URL          string `json:"url"`
	Quality      string `json:"quality"`
	DownloadType string `json:"download_type"`
}

func (r *StartDownloadRequest) normalize() {
	r.URL = strings.TrimSpace(r.URL)
	r.Quality = strings.TrimSpace(r.Quality)
	r.DownloadType = strings.TrimSpace(r.DownloadType)
}

// StartDownloadResponse carries the id of a new job
type StartDownloadResponse struct {
	JobID string `json:"job_id"`
}

// CancelResponse carries the status after a cancel request
type CancelResponse struct {
	Status model.JobStatus `json:"status"`
}

// JobsResponse lists every known job
type JobsResponse struct {
	Jobs []model.Snapshot `json:"jobs"`
}

// HealthResponse reports whether the engine binary is usable
type HealthResponse struct {
	Status string `json:"status"`
	Engine string `json:"engine,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ErrorResponse is returned with every non-2xx status
type ErrorResponse struct {
	Error string `json:"error"`
}
