package platform

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ytget/yt-webdl/internal/model"
	"github.com/ytget/ytdlp/v2"
)

// Timeout constants
const (
	DefaultParseTimeout = 60 * time.Second
)

// URL parameters
const (
	PlaylistParam = "list"
)

// Default values
const (
	DefaultPlaylistName = "Unknown Playlist"
)

// URL templates
const (
	YouTubeVideoURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// Playlist title constants
const (
	MinPrefixLength = 10
	PlaylistSuffix  = " Playlist"
)

// ErrNotPlaylist is returned for URLs without a playlist id
var ErrNotPlaylist = errors.New("not a playlist URL")

// PlaylistEntry is one item as returned by the playlist source
type PlaylistEntry struct {
	VideoID string
	Title   string
}

// PlaylistFetcher lists the entries of a playlist by id
type PlaylistFetcher func(ctx context.Context, playlistID string) ([]PlaylistEntry, error)

// PlaylistInspector lists playlist contents without downloading anything
type PlaylistInspector struct {
	timeout time.Duration
	fetch   PlaylistFetcher
}

// NewPlaylistInspector creates an inspector backed by the ytdlp library
func NewPlaylistInspector() *PlaylistInspector {
	return &PlaylistInspector{
		timeout: DefaultParseTimeout,
		fetch:   fetchWithYTDLP,
	}
}

// NewPlaylistInspectorWithFetcher creates an inspector backed by fetch
func NewPlaylistInspectorWithFetcher(fetch PlaylistFetcher) *PlaylistInspector {
	return &PlaylistInspector{
		timeout: DefaultParseTimeout,
		fetch:   fetch,
	}
}

// SetTimeout sets the timeout for inspect operations
func (p *PlaylistInspector) SetTimeout(timeout time.Duration) {
	p.timeout = timeout
}

// Inspect fetches the playlist behind rawURL
func (p *PlaylistInspector) Inspect(ctx context.Context, rawURL string) (*model.Playlist, error) {
	playlistID := ExtractPlaylistID(rawURL)
	if playlistID == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotPlaylist, rawURL)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	entries, err := p.fetch(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	playlist := model.NewPlaylist(playlistID, rawURL)
	for _, entry := range entries {
		if entry.VideoID == "" {
			continue
		}
		playlist.AddItem(&model.PlaylistItem{
			VideoID: entry.VideoID,
			Title:   entry.Title,
			URL:     fmt.Sprintf(YouTubeVideoURLTemplate, entry.VideoID),
		})
	}
	playlist.Title = playlistTitle(playlist.Items)

	return playlist, nil
}

func fetchWithYTDLP(ctx context.Context, playlistID string) ([]PlaylistEntry, error) {
	d := ytdlp.New()
	items, err := d.GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}

	entries := make([]PlaylistEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, PlaylistEntry{VideoID: it.VideoID, Title: it.Title})
	}
	return entries, nil
}

// ExtractPlaylistID returns the list parameter of a playlist URL, or ""
func ExtractPlaylistID(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(u.Query().Get(PlaylistParam))
}

// playlistTitle derives a title from the item titles; the listing endpoint
// carries no playlist name
func playlistTitle(items []*model.PlaylistItem) string {
	if len(items) == 0 {
		return DefaultPlaylistName
	}
	if len(items) > 1 {
		commonPrefix := findCommonPrefix(items[0].Title, items[1].Title)
		if utf8.RuneCountInString(commonPrefix) > MinPrefixLength {
			return strings.TrimSpace(commonPrefix) + PlaylistSuffix
		}
	}
	return items[0].Title + PlaylistSuffix
}

// findCommonPrefix finds the common prefix between two strings, comparing
// whole runes so the result is always valid UTF-8
func findCommonPrefix(s1, s2 string) string {
	r1, r2 := []rune(s1), []rune(s2)
	minLen := min(len(r1), len(r2))
	for i := 0; i < minLen; i++ {
		if r1[i] != r2[i] {
			return string(r1[:i])
		}
	}
	return string(r1[:minLen])
}
