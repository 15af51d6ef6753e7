package platform

// Package platform contains filesystem helpers for the download directory
// and playlist inspection through the ytdlp library.
