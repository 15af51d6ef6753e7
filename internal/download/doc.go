package download

// Package download implements the job pipeline: an in-memory registry of jobs,
// one worker goroutine per job driving an extraction engine, cooperative
// cancellation, playlist-aware progress and bundling of playlist output.
