package download

import (
	"context"

	"github.com/ytget/yt-webdl/internal/model"
)

// Downloader defines the interface for the download service.
type Downloader interface {
	SetUpdateCallback(func(model.Snapshot))
	Submit(url, quality, downloadType string) (string, error)
	Poll(id string) (model.Snapshot, error)
	Cancel(id string) (model.JobStatus, error)
	List() []model.Snapshot
	Shutdown(ctx context.Context) error
}
