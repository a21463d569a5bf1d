package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"video-platform/internal/logging"
	"video-platform/internal/metrics"
)

// Subjects published by the platform.
const (
	SubjectStatus  = "videos.status"
	SubjectDeleted = "videos.deleted"
)

var log = logging.For("events")

// StatusEvent announces a lifecycle state of a video.
type StatusEvent struct {
	VideoID string    `json:"video_id"`
	OwnerID string    `json:"owner_id"`
	Status  string    `json:"status"`
	Detail  string    `json:"detail,omitempty"`
	At      time.Time `json:"at"`
}

// Publisher emits lifecycle events. Publishing is fire-and-forget; callers log
// failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, subject string, event StatusEvent) error
	Close()
}

// conn is the subset of *nats.Conn the publisher uses.
type conn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

// NATSPublisher publishes JSON events on a NATS connection.
type NATSPublisher struct {
	nc conn
}

// NewNATSPublisher connects to the NATS server at url. The connection
// reconnects indefinitely in the background.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("video-platform"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("NATS reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("error connecting to NATS: %w", err)
	}
	log.Info("Connected to NATS at %s", nc.ConnectedUrl())
	return &NATSPublisher{nc: nc}, nil
}

// Publish encodes event as JSON and publishes it on subject.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, event StatusEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", subject, err)
	}

	err = p.nc.Publish(subject, data)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.EventsPublishedTotal.WithLabelValues(subject, status).Inc()
	if err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	log.Debug("Published %s for video %s (%s)", subject, event.VideoID, event.Status)
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		log.Warn("failed to drain NATS connection: %v", err)
	}
}

// Noop discards every event. Used when NATS_URL is not configured.
type Noop struct{}

// Publish does nothing.
func (Noop) Publish(context.Context, string, StatusEvent) error { return nil }

// Close does nothing.
func (Noop) Close() {}
