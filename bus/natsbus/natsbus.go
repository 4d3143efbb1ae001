// Package natsbus adapts a NATS subject carrying state-change messages to
// the bus.Bus interface.
package natsbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/namezys/hass-home-script/bus"
	"github.com/namezys/hass-home-script/entity"
	"github.com/namezys/hass-home-script/errors"
	"github.com/namezys/hass-home-script/pkg/retry"
)

// Config holds NATS connection settings.
type Config struct {
	// URL is the NATS server address, e.g. "nats://localhost:4222".
	URL string
	// Subject carries the state-change messages.
	Subject string
	// Name identifies this client on the server.
	Name string
	// ConnectTimeout bounds one connection attempt. Zero means 5s.
	ConnectTimeout time.Duration
}

// wireState mirrors the state payload of a state-change message.
type wireState struct {
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes,omitempty"`
	UpdatedAt  time.Time      `json:"last_updated"`
}

// wireStateChange is the on-wire form of one notification. Absent old or new
// state decodes to the zero State.
type wireStateChange struct {
	EntityID string     `json:"entity_id"`
	OldState *wireState `json:"old_state"`
	NewState *wireState `json:"new_state"`
}

// Bus is a bus.Bus backed by one NATS subject.
type Bus struct {
	config Config
	logger *slog.Logger

	mu   sync.Mutex
	conn *nats.Conn
	sub  *nats.Subscription
}

// New creates an unconnected NATS bus.
func New(config Config) (*Bus, error) {
	if config.URL == "" {
		return nil, errors.Invalid(errors.ErrInvalidConfig, "NATS URL is required")
	}
	if config.Subject == "" {
		return nil, errors.Invalid(errors.ErrInvalidConfig, "NATS subject is required")
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 5 * time.Second
	}
	return &Bus{
		config: config,
		logger: slog.Default().With("component", "natsbus", "subject", config.Subject),
	}, nil
}

// Connect establishes the server connection, retrying with backoff until the
// context is cancelled or the attempts are exhausted.
func (b *Bus) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		return nil
	}

	options := []nats.Option{
		nats.Name(b.config.Name),
		nats.Timeout(b.config.ConnectTimeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			b.logger.Warn("disconnected from NATS", "error", err)
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			b.logger.Info("reconnected to NATS", "url", conn.ConnectedUrl())
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			b.logger.Info("NATS connection closed")
		}),
	}

	conn, err := retry.DoWithResult(ctx, retry.Persistent(), func() (*nats.Conn, error) {
		conn, err := nats.Connect(b.config.URL, options...)
		if err != nil {
			b.logger.Warn("connect to NATS failed", "url", b.config.URL, "error", err)
			return nil, err
		}
		return conn, nil
	})
	if err != nil {
		return errors.WrapTransient(err, "natsbus", "Connect", "connection failed")
	}

	b.logger.Info("connected to NATS", "url", conn.ConnectedUrl())
	b.conn = conn
	return nil
}

// Subscribe implements bus.Bus. The subscription is retried on a short
// schedule to ride out a connection that is mid-reconnect. Messages are
// decoded and handed to the handler on the subscription goroutine, preserving
// subject order.
func (b *Bus) Subscribe(ctx context.Context, handler bus.Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return nil, errors.Invalid(errors.ErrNoConnection, "natsbus is not connected")
	}
	if b.sub != nil {
		return nil, errors.Invalid(errors.ErrAlreadyStarted, "natsbus already has a subscription")
	}

	sub, err := retry.DoWithResult(ctx, retry.Quick(), func() (*nats.Subscription, error) {
		return b.conn.Subscribe(b.config.Subject, func(msg *nats.Msg) {
			change, err := decodeStateChange(msg.Data)
			if err != nil {
				b.logger.Error("drop malformed state-change message", "error", err)
				return
			}
			handler(ctx, change)
		})
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "natsbus", "Subscribe", "subscription failed")
	}
	b.sub = sub

	b.logger.Info("subscribed")
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.sub == nil {
			return
		}
		if err := b.sub.Unsubscribe(); err != nil {
			b.logger.Warn("unsubscribe failed", "error", err)
		}
		b.sub = nil
	}, nil
}

// Close drains the subscription and closes the connection.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sub != nil {
		if err := b.sub.Drain(); err != nil {
			b.logger.Warn("drain subscription failed", "error", err)
		}
		b.sub = nil
	}
	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
}

func decodeStateChange(data []byte) (entity.StateChange, error) {
	var wire wireStateChange
	if err := json.Unmarshal(data, &wire); err != nil {
		return entity.StateChange{}, errors.Invalid(errors.ErrInvalidMessage, "decode state change: %s", err)
	}
	if wire.EntityID == "" {
		return entity.StateChange{}, errors.Invalid(errors.ErrInvalidMessage, "state change without entity_id")
	}
	return entity.StateChange{
		EntityID: wire.EntityID,
		Old:      wire.OldState.toState(),
		New:      wire.NewState.toState(),
	}, nil
}

func (s *wireState) toState() entity.State {
	if s == nil {
		return entity.State{}
	}
	return entity.State{
		Value:      s.State,
		Attributes: s.Attributes,
		UpdatedAt:  s.UpdatedAt,
	}
}
