// Package progress turns raw engine progress events into the normalized
// 0-100 percentage stored on a job. Everything here is pure.
package progress

import (
	"math"
	"strconv"
	"strings"

	"github.com/ytget/yt-webdl/internal/engine"
)

// Bounds of a normalized percentage
const (
	MinPercent = 0.0
	MaxPercent = 100.0
)

// Reading is the outcome of one progress event
type Reading struct {
	// Percent is the overall normalized percentage. Only valid when HasPercent is set.
	Percent    float64
	HasPercent bool

	DownloadedBytes int64
	TotalBytes      *int64
	Speed           *float64
	ETA             *float64

	// ItemFinished marks an "item finished" event: the job moves to processing
	// and Percent is left alone.
	ItemFinished bool
}

// Compute translates one engine event into a Reading
func Compute(ev engine.Event) Reading {
	if ev.Status == engine.StatusFinished {
		return Reading{ItemFinished: true}
	}

	r := Reading{
		DownloadedBytes: ev.DownloadedBytes,
		Speed:           ev.Speed,
		ETA:             ev.ETA,
	}
	if total := TotalBytes(ev); total > 0 {
		r.TotalBytes = &total
	}

	item, ok := ItemPercent(ev)
	if !ok {
		return r
	}
	r.Percent = Normalize(Overall(item, ev.PlaylistIndex, ev.PlaylistCount))
	r.HasPercent = true
	return r
}

// TotalBytes returns the exact total when known, otherwise the estimate
func TotalBytes(ev engine.Event) int64 {
	if ev.TotalBytes > 0 {
		return ev.TotalBytes
	}
	return ev.TotalBytesEstimate
}

// ItemPercent returns the completion of the current item. Byte counts win
// over the engine's textual percent; ok is false when neither is usable.
func ItemPercent(ev engine.Event) (float64, bool) {
	if total := TotalBytes(ev); total > 0 {
		return float64(ev.DownloadedBytes) / float64(total) * 100, true
	}
	return ParsePercent(ev.PercentStr)
}

// ParsePercent parses strings such as " 42.5%"
func ParsePercent(s string) (float64, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Overall weights the current item against its position in a playlist.
// Items before index count as complete, the current one contributes its
// fraction. Without both index and count the item percent is returned.
func Overall(itemPercent float64, index, count int) float64 {
	if index <= 0 || count <= 0 {
		return itemPercent
	}
	return (float64(index-1) + itemPercent/100) / float64(max(count, 1)) * 100
}

// Normalize clamps to [0,100] and rounds to two decimals
func Normalize(v float64) float64 {
	if math.IsNaN(v) {
		return MinPercent
	}
	v = min(max(v, MinPercent), MaxPercent)
	return math.Round(v*100) / 100
}

// Advance returns the value to store given the current stored percent.
// Stored progress never moves backwards while a job runs.
func Advance(current, next float64) float64 {
	return max(current, next)
}
