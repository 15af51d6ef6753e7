// Package engine defines the contract between download workers and the media
// extraction engine, and provides an adapter that drives the yt-dlp binary.
//
// The engine resolves a URL, negotiates formats, downloads and post-processes
// media, and reports progress through a callback. Returning an error from the
// callback aborts the extraction; returning ErrCancelled is how workers stop a
// job cooperatively.
package engine
