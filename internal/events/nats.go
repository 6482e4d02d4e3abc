// Package events publishes committed auction transitions to NATS JetStream
// for downstream consumers (scoreboards, archival, analytics).
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/atmx/auction-engine/internal/auction"
	"github.com/atmx/auction-engine/internal/metrics"
)

// Config describes the JetStream connection and stream.
type Config struct {
	URL             string
	StreamName      string
	SubjectPrefix   string
	MaxReconnects   int
	ReconnectWait   time.Duration
	MaxAge          time.Duration
	DuplicateWindow time.Duration
	MaxPending      int
	StallWait       time.Duration
}

// DefaultConfig returns the settings used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		URL:             nats.DefaultURL,
		StreamName:      "AUCTION_EVENTS",
		SubjectPrefix:   "auction.events",
		MaxReconnects:   -1,
		ReconnectWait:   2 * time.Second,
		MaxAge:          7 * 24 * time.Hour,
		DuplicateWindow: 2 * time.Minute,
		MaxPending:      256,
		StallWait:       50 * time.Millisecond,
	}
}

// asyncPublisher is the slice of jetstream.JetStream the publisher needs.
type asyncPublisher interface {
	PublishMsgAsync(msg *nats.Msg, opts ...jetstream.PublishOpt) (jetstream.PubAckFuture, error)
}

// Publisher is an auction.Notifier that writes each event to
// <prefix>.<kind>, e.g. auction.events.sold. Publishing is asynchronous;
// ack failures are logged and counted.
type Publisher struct {
	nc  *nats.Conn
	js  jetstream.JetStream
	pub asyncPublisher
	cfg Config
	log *slog.Logger
}

// Connect dials NATS, ensures the stream exists and returns a publisher.
func Connect(ctx context.Context, cfg Config, log *slog.Logger) (*Publisher, error) {
	if log == nil {
		log = slog.Default()
	}
	opts := []nats.Option{
		nats.Name("auction-engine"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Error("nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	}
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(nc,
		jetstream.WithPublishAsyncMaxPending(cfg.MaxPending),
		jetstream.WithPublishAsyncErrHandler(func(_ jetstream.JetStream, msg *nats.Msg, err error) {
			metrics.EventPublishFailures.WithLabelValues("nats").Inc()
			log.Error("event publish not acknowledged", "subject", msg.Subject, "err", err)
		}),
	)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	p := &Publisher{nc: nc, js: js, pub: js, cfg: cfg, log: log}
	if err := p.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}
	return p, nil
}

func (p *Publisher) ensureStream(ctx context.Context) error {
	sc := jetstream.StreamConfig{
		Name:        p.cfg.StreamName,
		Description: "Committed auction transitions",
		Subjects:    []string{p.cfg.SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		Storage:     jetstream.FileStorage,
		MaxAge:      p.cfg.MaxAge,
		Duplicates:  p.cfg.DuplicateWindow,
	}
	if _, err := p.js.CreateOrUpdateStream(ctx, sc); err != nil {
		return err
	}
	p.log.Info("jetstream stream ready", "stream", sc.Name, "subjects", sc.Subjects)
	return nil
}

// Subject returns the subject an event of type t is published on.
func (p *Publisher) Subject(t auction.EventType) string {
	return p.cfg.SubjectPrefix + "." + strings.TrimPrefix(string(t), "auction.")
}

// Notify queues ev for publishing. It returns once the message is buffered,
// not when it is acknowledged.
func (p *Publisher) Notify(_ context.Context, ev auction.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msgID := fmt.Sprintf("%s:%s:%d", ev.SessionID, ev.Type, ev.At.UnixNano())
	msg := &nats.Msg{
		Subject: p.Subject(ev.Type),
		Data:    data,
		Header: nats.Header{
			"Event-Type": []string{string(ev.Type)},
			"Session-ID": []string{ev.SessionID},
			"Player-ID":  []string{ev.PlayerID},
		},
	}
	if _, err := p.pub.PublishMsgAsync(msg, jetstream.WithMsgID(msgID), jetstream.WithStallWait(p.cfg.StallWait)); err != nil {
		metrics.EventPublishFailures.WithLabelValues("nats").Inc()
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}
	return nil
}

// Health reports whether the connection is up.
func (p *Publisher) Health() error {
	if p.nc == nil || !p.nc.IsConnected() {
		return fmt.Errorf("nats not connected")
	}
	return nil
}

// Close waits for outstanding acks up to ctx's deadline, then drains the
// connection.
func (p *Publisher) Close(ctx context.Context) error {
	if p.js != nil {
		select {
		case <-p.js.PublishAsyncComplete():
		case <-ctx.Done():
			p.log.Warn("closing with unacknowledged events", "pending", p.js.PublishAsyncPending())
		}
	}
	if p.nc != nil {
		return p.nc.Drain()
	}
	return nil
}
