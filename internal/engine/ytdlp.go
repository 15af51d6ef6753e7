package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

// yt-dlp invocation constants
const (
	DefaultBinary      = "yt-dlp"
	DefaultMergeFormat = "mp4"

	// ProgressPrefix marks progress lines emitted through --progress-template
	ProgressPrefix = "[ytwebdl]"

	progressTemplate = "download:" + ProgressPrefix +
		`{"progress":%(progress)j,"playlist_index":%(info.playlist_index|null)s,"playlist_count":%(info.playlist_count|null)s}`

	errorLinePrefix = "ERROR:"
	stderrTailLines = 20

	scanBufferInitial = 64 * 1024
	scanBufferMax     = 64 * 1024 * 1024
)

// YTDLP drives the yt-dlp binary as an Engine
type YTDLP struct {
	binary string
	logger *slog.Logger
}

// NewYTDLP creates an engine that runs the given yt-dlp binary
func NewYTDLP(binary string, logger *slog.Logger) *YTDLP {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultBinary
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &YTDLP{binary: binary, logger: logger}
}

// Binary returns the configured executable
func (y *YTDLP) Binary() string {
	return y.binary
}

// CheckBinary reports whether the executable resolves on PATH
func (y *YTDLP) CheckBinary() error {
	if _, err := exec.LookPath(y.binary); err != nil {
		return fmt.Errorf("binary %q not found: %w", y.binary, err)
	}
	return nil
}

// BuildArgs builds the yt-dlp command arguments
func (y *YTDLP) BuildArgs(url string, opts Options) []string {
	args := []string{
		"--newline",   // One progress line per update
		"--no-colors", // Keep percent strings parseable
		"--progress",  // Progress even though the JSON dump implies quiet
		"--progress-template", progressTemplate,
		"--dump-single-json", // Final metadata on stdout
		"--no-simulate",     // ... while still downloading
		"-o", opts.OutputTemplate,
	}
	if opts.Format != "" {
		args = append(args, "-f", opts.Format)
	}
	if opts.MergeFormat != "" {
		args = append(args, "--merge-output-format", opts.MergeFormat)
	}
	if opts.NoPlaylist {
		args = append(args, "--no-playlist")
	} else {
		args = append(args, "--yes-playlist")
	}
	for _, pp := range opts.PostProcessors {
		args = append(args, postProcessorArgs(pp)...)
	}
	return append(args, "--", url)
}

func postProcessorArgs(pp PostProcessor) []string {
	switch pp.Key {
	case PostProcessorExtractAudio:
		args := []string{"-x"}
		if pp.PreferredCodec != "" {
			args = append(args, "--audio-format", pp.PreferredCodec)
		}
		if pp.PreferredQuality != "" {
			args = append(args, "--audio-quality", pp.PreferredQuality+"K")
		}
		return args
	default:
		return nil
	}
}

// Extract runs yt-dlp for url and decodes the final metadata document
func (y *YTDLP) Extract(ctx context.Context, url string, opts Options) (*Info, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	args := y.BuildArgs(url, opts)
	cmd := exec.CommandContext(runCtx, y.binary, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	y.logger.Debug("starting yt-dlp", slog.String("binary", y.binary), slog.Any("args", args))
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start yt-dlp: %w", err)
	}

	var (
		mu       sync.Mutex
		abortErr error
	)
	report := func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		if abortErr != nil || opts.Progress == nil {
			return
		}
		if err := opts.Progress(ev); err != nil {
			abortErr = err
			cancel()
		}
	}

	var (
		wg       sync.WaitGroup
		document []byte
		tail     = newLineTail(stderrTailLines)
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		y.scan(stdout, report, func(line string) {
			if strings.HasPrefix(line, "{") {
				document = []byte(line)
			}
		})
	}()
	go func() {
		defer wg.Done()
		y.scan(stderr, report, tail.add)
	}()
	wg.Wait()

	waitErr := cmd.Wait()

	mu.Lock()
	aborted := abortErr
	mu.Unlock()
	if aborted != nil {
		return nil, fmt.Errorf("yt-dlp aborted: %w", aborted)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if waitErr != nil {
		return nil, fmt.Errorf("yt-dlp failed: %w, stderr: %s", waitErr, tail.message())
	}
	if len(document) == 0 {
		return nil, errors.New("yt-dlp returned no metadata")
	}

	info, err := decodeInfo(document)
	if err != nil {
		return nil, err
	}
	return info, nil
}

// PrepareFilename returns the final path yt-dlp reported for the entry
func (y *YTDLP) PrepareFilename(info *Info) string {
	if info == nil {
		return ""
	}
	return info.Filename
}

// scan splits a stream into lines, forwarding progress lines to report and
// everything else to other
func (y *YTDLP) scan(r io.Reader, report func(Event), other func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, scanBufferInitial), scanBufferMax)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ProgressPrefix) {
			ev, err := ParseProgressLine(line)
			if err != nil {
				y.logger.Debug("skipping malformed progress line", slog.String("error", err.Error()))
				continue
			}
			report(ev)
			continue
		}
		other(line)
	}
	if err := scanner.Err(); err != nil {
		y.logger.Debug("yt-dlp output scan stopped", slog.String("error", err.Error()))
		// Drain so the process never blocks on a full pipe
		_, _ = io.Copy(io.Discard, r)
	}
}

type rawProgress struct {
	Progress struct {
		Status             string   `json:"status"`
		DownloadedBytes    *float64 `json:"downloaded_bytes"`
		TotalBytes         *float64 `json:"total_bytes"`
		TotalBytesEstimate *float64 `json:"total_bytes_estimate"`
		PercentStr         string   `json:"_percent_str"`
		Speed              *float64 `json:"speed"`
		ETA                *float64 `json:"eta"`
		Filename           string   `json:"filename"`
	} `json:"progress"`
	PlaylistIndex *int `json:"playlist_index"`
	PlaylistCount *int `json:"playlist_count"`
}

// ParseProgressLine decodes one line produced by the progress template
func ParseProgressLine(line string) (Event, error) {
	payload := strings.TrimPrefix(strings.TrimSpace(line), ProgressPrefix)

	var raw rawProgress
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return Event{}, fmt.Errorf("decode progress line: %w", err)
	}

	p := raw.Progress
	ev := Event{
		Status:             p.Status,
		DownloadedBytes:    floatToInt(p.DownloadedBytes),
		TotalBytes:         floatToInt(p.TotalBytes),
		TotalBytesEstimate: floatToInt(p.TotalBytesEstimate),
		PercentStr:         p.PercentStr,
		Speed:              p.Speed,
		ETA:                p.ETA,
		Filename:           p.Filename,
	}
	if raw.PlaylistIndex != nil {
		ev.PlaylistIndex = *raw.PlaylistIndex
	}
	if raw.PlaylistCount != nil {
		ev.PlaylistCount = *raw.PlaylistCount
	}
	return ev, nil
}

type rawInfo struct {
	Type               string `json:"_type"`
	ID                 string `json:"id"`
	Title              string `json:"title"`
	Filename           string `json:"_filename"`
	LegacyFilename     string `json:"filename"`
	Filepath           string `json:"filepath"`
	RequestedDownloads []struct {
		Filepath string `json:"filepath"`
		Filename string `json:"_filename"`
	} `json:"requested_downloads"`
	Entries []*rawInfo `json:"entries"`
}

func decodeInfo(document []byte) (*Info, error) {
	var raw rawInfo
	if err := json.Unmarshal(bytes.TrimSpace(document), &raw); err != nil {
		return nil, fmt.Errorf("decode yt-dlp metadata: %w", err)
	}
	return raw.toInfo(), nil
}

func (r *rawInfo) toInfo() *Info {
	if r == nil {
		return nil
	}
	info := &Info{
		Type:     r.Type,
		ID:       r.ID,
		Title:    r.Title,
		Filename: r.finalPath(),
	}
	if info.Type == "" {
		info.Type = TypeVideo
	}
	for _, entry := range r.Entries {
		// Unavailable playlist entries come back as null
		info.Entries = append(info.Entries, entry.toInfo())
	}
	return info
}

// finalPath prefers the post-processed path over the pre-download name
func (r *rawInfo) finalPath() string {
	for i := len(r.RequestedDownloads) - 1; i >= 0; i-- {
		rd := r.RequestedDownloads[i]
		if rd.Filepath != "" {
			return rd.Filepath
		}
		if rd.Filename != "" {
			return rd.Filename
		}
	}
	switch {
	case r.Filepath != "":
		return r.Filepath
	case r.Filename != "":
		return r.Filename
	default:
		return r.LegacyFilename
	}
}

func floatToInt(v *float64) int64 {
	if v == nil {
		return 0
	}
	return int64(*v)
}

// lineTail keeps the last n lines of a stream plus any error lines
type lineTail struct {
	mu     sync.Mutex
	max    int
	lines  []string
	errors []string
}

func newLineTail(max int) *lineTail {
	return &lineTail{max: max}
}

func (t *lineTail) add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if strings.HasPrefix(line, errorLinePrefix) {
		t.errors = append(t.errors, line)
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

// message returns the error lines if any were seen, otherwise the tail
func (t *lineTail) message() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.errors) > 0 {
		return strings.Join(t.errors, "; ")
	}
	return strings.Join(t.lines, "; ")
}
