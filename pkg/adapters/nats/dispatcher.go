package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"github.com/nats-io/nats.go"
)

// DefaultPrefix is the subject prefix for published intents.
const DefaultPrefix = "omnibase.intents"

// Message headers carried on every published intent.
const (
	HeaderEntityID = "Omnibase-Entity-ID"
	HeaderIntentID = "Omnibase-Intent-ID"
	HeaderSequence = "Omnibase-Sequence"
)

// Dispatcher implements ports.IntentDispatcher by publishing each intent to NATS.
// The subject is "<prefix>.<intent type>" and the body is the intent JSON.
type Dispatcher struct {
	nc     *nats.Conn
	prefix string
	owned  bool
	logger *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPrefix sets the subject prefix.
func WithPrefix(prefix string) Option {
	return func(d *Dispatcher) {
		if prefix != "" {
			d.prefix = prefix
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Connect dials url and returns a Dispatcher that owns the connection.
func Connect(url string, opts ...Option) (*Dispatcher, error) {
	nc, err := nats.Connect(url, func(o *nats.Options) error {
		o.Name = "omnibase-dispatcher"
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	d := New(nc, opts...)
	d.owned = true
	return d, nil
}

// New wraps an existing connection. Close does not close it.
func New(nc *nats.Conn, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		nc:     nc,
		prefix: DefaultPrefix,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Subject returns the subject an intent type is published on.
func (d *Dispatcher) Subject(t domain.IntentType) string {
	return d.prefix + "." + string(t)
}

// Dispatch publishes intents in order and flushes so they reach the server before returning.
// The first failure stops the batch; intents already published are not retracted.
func (d *Dispatcher) Dispatch(ctx context.Context, entityID string, intents []domain.Intent) error {
	for i, intent := range intents {
		data, err := json.Marshal(intent)
		if err != nil {
			return fmt.Errorf("failed to encode intent %s: %w", intent.ID, err)
		}
		msg := &nats.Msg{
			Subject: d.Subject(intent.Type),
			Data:    data,
			Header:  nats.Header{},
		}
		msg.Header.Set(HeaderEntityID, entityID)
		msg.Header.Set(HeaderIntentID, intent.ID)
		msg.Header.Set(HeaderSequence, strconv.Itoa(i))

		if err := d.nc.PublishMsg(msg); err != nil {
			return fmt.Errorf("failed to publish intent %s: %w", intent.ID, err)
		}
	}
	if len(intents) == 0 {
		return nil
	}
	if err := d.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush intents: %w", err)
	}
	d.logger.Debug("intents dispatched", "entity_id", entityID, "count", len(intents))
	return nil
}

// Close closes the connection if the dispatcher opened it.
func (d *Dispatcher) Close() {
	if d.owned {
		d.nc.Close()
	}
}
