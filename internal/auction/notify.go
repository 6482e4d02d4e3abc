package auction

import (
	"context"
	"errors"
	"time"

	"github.com/atmx/auction-engine/internal/model"
	"github.com/atmx/auction-engine/internal/money"
)

// EventType names an auction transition.
type EventType string

const (
	EventStarted EventType = "auction.started"
	EventBid     EventType = "auction.bid"
	EventSold    EventType = "auction.sold"
	EventUnsold  EventType = "auction.unsold"
)

// Event describes a committed transition. Amount is the current bid for
// started/bid events and the final price for sold events.
type Event struct {
	Type          EventType          `json:"type"`
	SessionID     string             `json:"session_id"`
	PlayerID      string             `json:"player_id"`
	PlayerName    string             `json:"player_name,omitempty"`
	TeamID        string             `json:"team_id,omitempty"`
	Amount        money.Amount       `json:"amount"`
	AmountDisplay string             `json:"amount_display"`
	State         model.SessionState `json:"state"`
	At            time.Time          `json:"at"`
}

// Notifier receives events after each committed transition. Notify is
// called inside the engine's critical section so events arrive in commit
// order; implementations must not block. A Notify error is logged and never
// undoes the commit.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev Event) error

func (f NotifierFunc) Notify(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Fanout delivers each event to every notifier and joins their errors.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range f {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newEvent(t EventType, sess *model.Session, playerName string, at time.Time) Event {
	ev := Event{
		Type:       t,
		SessionID:  sess.ID,
		PlayerID:   sess.PlayerID,
		PlayerName: playerName,
		Amount:     sess.CurrentBid,
		State:      sess.State,
		At:         at,
	}
	if sess.LeadingTeamID != nil {
		ev.TeamID = *sess.LeadingTeamID
	}
	if sess.FinalPrice != nil {
		ev.Amount = *sess.FinalPrice
	}
	ev.AmountDisplay = money.Format(ev.Amount)
	return ev
}
