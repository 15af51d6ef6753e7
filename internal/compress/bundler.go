package compress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// Archive constants
const (
	// Temp file pattern inside the archive's directory, renamed into place on success
	TempPattern = ".bundle-*.tmp"

	// Permissions of the finished archive
	ArchivePermissions = 0644

	DefaultLevel = flate.DefaultCompression
)

// Result describes a finished archive
type Result struct {
	Path    string
	Added   []string // archive member names
	Skipped []string // input paths that were missing or duplicated
	Bytes   int64    // size of the archive on disk
}

// ZipBundler writes deflate-compressed zip archives
type ZipBundler struct {
	level  int
	logger *slog.Logger
}

// NewZipBundler creates a bundler with the default compression level
func NewZipBundler(logger *slog.Logger) *ZipBundler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ZipBundler{
		level:  DefaultLevel,
		logger: logger,
	}
}

// SetLevel sets the deflate level (flate.HuffmanOnly to flate.BestCompression)
func (z *ZipBundler) SetLevel(level int) {
	z.level = level
}

// Bundle writes every existing file into archivePath, stored under its base
// name. Missing files are skipped, so an archive may end up empty. The archive
// only appears at archivePath once it has been written completely.
func (z *ZipBundler) Bundle(ctx context.Context, archivePath string, files []string) (*Result, error) {
	if z.level < flate.HuffmanOnly || z.level > flate.BestCompression {
		return nil, fmt.Errorf("invalid compression level: %d", z.level)
	}

	dir := filepath.Dir(archivePath)
	tmp, err := os.CreateTemp(dir, TempPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp archive: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	result := &Result{Path: archivePath}

	zw := zip.NewWriter(tmp)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, z.level)
	})

	seen := make(map[string]bool, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := filepath.Base(path)
		if seen[name] {
			z.logger.Warn("skipping duplicate archive member", slog.String("path", path))
			result.Skipped = append(result.Skipped, path)
			continue
		}

		added, err := z.addFile(zw, path, name)
		if err != nil {
			return nil, err
		}
		if !added {
			z.logger.Debug("skipping missing playlist item", slog.String("path", path))
			result.Skipped = append(result.Skipped, path)
			continue
		}
		seen[name] = true
		result.Added = append(result.Added, name)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	if err := tmp.Chmod(ArchivePermissions); err != nil {
		return nil, fmt.Errorf("failed to set archive permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close archive: %w", err)
	}
	if err := os.Rename(tmpPath, archivePath); err != nil {
		return nil, fmt.Errorf("failed to move archive into place: %w", err)
	}
	committed = true

	if info, err := os.Stat(archivePath); err == nil {
		result.Bytes = info.Size()
	}

	z.logger.Info("archive written",
		slog.String("path", archivePath),
		slog.Int("files", len(result.Added)),
		slog.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// addFile copies one file into the archive. It returns false when the file
// does not exist.
func (z *ZipBundler) addFile(zw *zip.Writer, path, name string) (bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return false, nil
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return false, fmt.Errorf("failed to build header for %s: %w", path, err)
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return false, fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", name, err)
	}
	return true, nil
}
