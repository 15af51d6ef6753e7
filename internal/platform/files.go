package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// File naming
const (
	DefaultFileName = "download"
	ArchiveExt      = ".zip"
)

// File extensions of in-flight downloads, never served or bundled
var (
	SkippedExtensions = []string{".part", ".ytdl"}
)

var (
	unsafeFileChars = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]+`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// ErrUnsafeName is returned for names that would escape their directory
var ErrUnsafeName = errors.New("unsafe file name")

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}

// GetHomeDownloadsDir returns the standard Downloads directory for the user
func GetHomeDownloadsDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, "Downloads"), nil
}

// SanitizeFilename returns a filesystem-safe file name. Runs of reserved
// characters become a single underscore and whitespace is collapsed.
func SanitizeFilename(name string) string {
	name = norm.NFC.String(name)
	// Fold whitespace first so tabs and newlines are not caught as control characters
	name = whitespaceRun.ReplaceAllString(name, " ")
	name = strings.TrimSpace(unsafeFileChars.ReplaceAllString(name, "_"))
	if name == "" || name == "." || name == ".." {
		return DefaultFileName
	}
	return name
}

// ArchiveName returns the bundle file name for a playlist title
func ArchiveName(title string) string {
	return SanitizeFilename(title) + ArchiveExt
}

// IsPartialDownload reports whether name belongs to an unfinished download
func IsPartialDownload(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, skipped := range SkippedExtensions {
		if ext == skipped {
			return true
		}
	}
	return false
}

// ResolveInDir joins a bare file name onto dir, rejecting anything that is
// not a plain name inside dir
func ResolveInDir(dir, name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}
	return filepath.Join(dir, name), nil
}

// FileExists reports whether path names an existing regular file
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
