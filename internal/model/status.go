package model

// JobStatus represents the status of a download job
type JobStatus string

const (
	// StatusQueued means the job is registered but its worker has not started
	StatusQueued JobStatus = "queued"

	// StatusStarting means the worker picked up the job and is preparing the engine
	StatusStarting JobStatus = "starting"

	// StatusDownloading means the engine is transferring media
	StatusDownloading JobStatus = "downloading"

	// StatusProcessing means one item finished and post-processing or the next item follows
	StatusProcessing JobStatus = "processing"

	// StatusCompleted means the result artifact is ready
	StatusCompleted JobStatus = "completed"

	// StatusError means the engine failed
	StatusError JobStatus = "error"

	// StatusCancelling means a cancel was requested and the worker has not observed it yet
	StatusCancelling JobStatus = "cancelling"

	// StatusCancelled means the worker stopped because of a cancel request
	StatusCancelled JobStatus = "cancelled"
)

// String returns the string representation of JobStatus
func (s JobStatus) String() string {
	return string(s)
}

// IsActive returns true if a worker is currently driving the job
func (s JobStatus) IsActive() bool {
	switch s {
	case StatusStarting, StatusDownloading, StatusProcessing, StatusCancelling:
		return true
	}
	return false
}

// IsTerminal returns true if the job reached completed, error or cancelled
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusCancelled
}

// ShowsCancelling reports whether a cancel request should be reflected as
// cancelling right away. Jobs that have not reached the engine yet keep their
// status until the worker observes the flag.
func (s JobStatus) ShowsCancelling() bool {
	return !s.IsTerminal() && s != StatusQueued && s != StatusStarting
}
