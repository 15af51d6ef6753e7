package engine

import (
	"context"
	"errors"
)

// ErrCancelled is returned by a ProgressFunc to abort extraction. Engines
// return it wrapped so callers can match it with errors.Is.
var ErrCancelled = errors.New("download cancelled")

// Progress event statuses
const (
	StatusDownloading = "downloading"
	StatusFinished    = "finished"
	StatusError       = "error"
)

// Info types
const (
	TypePlaylist = "playlist"
	TypeVideo    = "video"
)

// Post-processor keys
const (
	PostProcessorExtractAudio = "FFmpegExtractAudio"
)

// Event is one raw progress report from the engine
type Event struct {
	Status             string
	DownloadedBytes    int64
	TotalBytes         int64
	TotalBytesEstimate int64
	PercentStr         string   // textual percent such as " 42.3%", may be empty
	Speed              *float64 // bytes per second
	ETA                *float64 // seconds
	PlaylistIndex      int      // 1-based, 0 if unknown
	PlaylistCount      int      // 0 if unknown
	Filename           string
}

// ProgressFunc receives progress events. A non-nil error aborts the extraction.
type ProgressFunc func(Event) error

// PostProcessor describes one post-processing step
type PostProcessor struct {
	Key              string
	PreferredCodec   string
	PreferredQuality string
}

// Options configures a single extraction
type Options struct {
	OutputTemplate string
	Format         string
	MergeFormat    string
	NoPlaylist     bool
	PostProcessors []PostProcessor
	Progress       ProgressFunc
}

// Info is the metadata returned once extraction finishes
type Info struct {
	Type     string
	ID       string
	Title    string
	Filename string // final path on disk, empty if unknown
	Entries  []*Info
}

// IsPlaylist reports whether the result holds multiple entries
func (i *Info) IsPlaylist() bool {
	return i != nil && i.Type == TypePlaylist
}

// Engine performs URL resolution, download and post-processing
type Engine interface {
	// Extract downloads url and returns the resulting metadata. It blocks
	// until the engine is done, ctx is cancelled, or Progress returns an error.
	Extract(ctx context.Context, url string, opts Options) (*Info, error)

	// PrepareFilename resolves the on-disk path of an extracted entry
	PrepareFilename(info *Info) string
}
