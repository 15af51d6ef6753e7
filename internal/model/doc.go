package model

// Package model defines domain data structures used across the service: download
// jobs, their status enum, request parameters, read-only snapshots for pollers,
// and playlist previews. State transitions live in the download package.
