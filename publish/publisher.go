// Package publish delivers locator results to downstream consumers.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher delivers one event keyed by key.
type Publisher interface {
	Publish(ctx context.Context, key string, payload any) error
	Close() error
}

// Envelope is the wire form of a published event.
type Envelope struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	PublishedAt time.Time `json:"publishedAt"`
	Data        any       `json:"data"`
}

// NewEnvelope wraps payload with a fresh id and timestamp.
func NewEnvelope(key string, payload any) Envelope {
	return Envelope{
		ID:          uuid.NewString(),
		Key:         key,
		PublishedAt: time.Now().UTC(),
		Data:        payload,
	}
}

// Encode marshals the envelope as JSON.
func (e Envelope) Encode() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize event %s: %w", e.ID, err)
	}
	return b, nil
}

// LogPublisher writes events to a structured logger.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher logs to l, or to slog.Default when l is nil.
func NewLogPublisher(l *slog.Logger) *LogPublisher {
	if l == nil {
		l = slog.Default()
	}
	return &LogPublisher{logger: l}
}

func (p *LogPublisher) Publish(ctx context.Context, key string, payload any) error {
	env := NewEnvelope(key, payload)
	body, err := env.Encode()
	if err != nil {
		return err
	}
	p.logger.InfoContext(ctx, "result", "id", env.ID, "key", key, "data", string(body))
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, string, any) error { return nil }
func (Discard) Close() error                               { return nil }
