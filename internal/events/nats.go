package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ytget/yt-webdl/internal/model"
)

// Connection settings
const (
	ReconnectWait  = 2 * time.Second
	ConnectTimeout = 5 * time.Second
	ClientName     = "yt-webdl"
)

// Publisher sends job events somewhere
type Publisher interface {
	Publish(ev JobEvent) error
	Close()
}

// conn is the part of *nats.Conn the publisher uses
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publishes events as JSON on <prefix>.<status>
type NATSPublisher struct {
	nc     conn
	prefix string
}

// Connect dials the NATS server at url
func Connect(url, prefix string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name(ClientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(ReconnectWait),
		nats.Timeout(ConnectTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}
	return &NATSPublisher{nc: nc, prefix: prefix}, nil
}

// Subject returns the subject an event with status is published on
func Subject(prefix, status string) string {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		return status
	}
	return prefix + "." + status
}

// Publish encodes ev and publishes it
func (p *NATSPublisher) Publish(ev JobEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.nc.Publish(Subject(p.prefix, ev.Status), b)
}

// Close flushes pending messages and closes the connection
func (p *NATSPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
	}
}

// Nop discards every event
type Nop struct{}

func (Nop) Publish(JobEvent) error { return nil }
func (Nop) Close() {}

// Observer returns a job update callback that publishes each snapshot.
// Publish failures are logged and never reach the worker. Callbacks run
// outside the registry lock, so ordering across goroutines is only
// recoverable through JobEvent.Revision.
func Observer(pub Publisher, logger *slog.Logger) func(model.Snapshot) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(snap model.Snapshot) {
		if err := pub.Publish(FromSnapshot(snap, time.Now())); err != nil {
			logger.Warn("failed to publish job event",
				slog.String("job_id", snap.ID),
				slog.String("status", snap.Status.String()),
				slog.String("error", err.Error()),
			)
		}
	}
}
