package model

import "time"

// PlaylistItem is one entry of a playlist preview
type PlaylistItem struct {
	Index   int    `json:"index"` // 1-based position
	VideoID string `json:"video_id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
}

// Playlist is a lightweight listing of a playlist, fetched before any download
type Playlist struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	URL        string          `json:"url"`
	Items      []*PlaylistItem `json:"items"`
	TotalItems int             `json:"total_items"`
	FetchedAt  time.Time       `json:"fetched_at"`
}

// NewPlaylist creates an empty playlist preview
func NewPlaylist(id, url string) *Playlist {
	return &Playlist{
		ID:        id,
		URL:       url,
		Items:     make([]*PlaylistItem, 0),
		FetchedAt: time.Now(),
	}
}

// AddItem appends an item and assigns its 1-based index
func (p *Playlist) AddItem(item *PlaylistItem) {
	item.Index = len(p.Items) + 1
	p.Items = append(p.Items, item)
	p.TotalItems = len(p.Items)
}
