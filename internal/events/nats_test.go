package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/atmx/auction-engine/internal/auction"
	"github.com/atmx/auction-engine/internal/model"
)

type fakeJS struct {
	msgs []*nats.Msg
	err  error
}

func (f *fakeJS) PublishMsgAsync(msg *nats.Msg, _ ...jetstream.PublishOpt) (jetstream.PubAckFuture, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil, nil
}

func newTestPublisher(fake *fakeJS) *Publisher {
	return &Publisher{pub: fake, cfg: DefaultConfig(), log: slog.Default()}
}

func TestSubject(t *testing.T) {
	p := newTestPublisher(&fakeJS{})
	tests := map[auction.EventType]string{
		auction.EventStarted: "auction.events.started",
		auction.EventBid:     "auction.events.bid",
		auction.EventSold:    "auction.events.sold",
		auction.EventUnsold:  "auction.events.unsold",
	}
	for typ, want := range tests {
		if got := p.Subject(typ); got != want {
			t.Errorf("Subject(%s) = %q, want %q", typ, got, want)
		}
	}
}

func TestNotify_PublishesEvent(t *testing.T) {
	fake := &fakeJS{}
	p := newTestPublisher(fake)

	ev := auction.Event{
		Type:      auction.EventSold,
		SessionID: "s1",
		PlayerID:  "p1",
		TeamID:    "csk",
		Amount:    150,
		State:     model.SessionSold,
		At:        time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC),
	}
	if err := p.Notify(context.Background(), ev); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(fake.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fake.msgs))
	}

	msg := fake.msgs[0]
	if msg.Subject != "auction.events.sold" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if msg.Header.Get("Session-ID") != "s1" || msg.Header.Get("Event-Type") != "auction.sold" {
		t.Errorf("headers = %v", msg.Header)
	}

	var got auction.Event
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TeamID != "csk" || got.Amount != 150 || !got.At.Equal(ev.At) {
		t.Errorf("payload = %+v", got)
	}
}

func TestNotify_PublishError(t *testing.T) {
	boom := errors.New("stalled")
	p := newTestPublisher(&fakeJS{err: boom})

	err := p.Notify(context.Background(), auction.Event{Type: auction.EventBid, SessionID: "s1"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped publish error, got %v", err)
	}
}

func TestHealth_NotConnected(t *testing.T) {
	p := newTestPublisher(&fakeJS{})
	if err := p.Health(); err == nil {
		t.Fatal("expected error without a connection")
	}
}
