// Package auction implements the auction transaction engine: the state
// machine for a single player's auction (Start, Bid, Finalize, MarkUnsold),
// budget enforcement, and the atomic commit that keeps players, teams and
// the auction log consistent.
//
// All amounts are money.Amount (integer lakhs). The engine never parses or
// formats prices except for event display strings.
package auction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/atmx/auction-engine/internal/metrics"
	"github.com/atmx/auction-engine/internal/model"
	"github.com/atmx/auction-engine/internal/money"
	"github.com/atmx/auction-engine/internal/squad"
	"github.com/atmx/auction-engine/internal/store"
)

// Engine serializes every transition through one mutex (single-instance).
// The store commits are themselves atomic, so a crash between the lock and
// the commit cannot leave a sale half-applied.
type Engine struct {
	store    store.Store
	squad    *squad.Limiter
	notifier Notifier
	clock    clockwork.Clock
	log      *slog.Logger
	newID    func() string

	mu      sync.Mutex
	current *model.Session // snapshot of the open session, nil when idle
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used for session and sale timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithSquadLimiter enables squad size and overseas checks.
func WithSquadLimiter(l *squad.Limiter) Option {
	return func(e *Engine) { e.squad = l }
}

// WithNotifier sets the sink for transition events.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithIDGenerator overrides session and log id generation.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// NewEngine creates an engine over st.
func NewEngine(st store.Store, opts ...Option) *Engine {
	e := &Engine{
		store: st,
		clock: clockwork.NewRealClock(),
		log:   slog.Default(),
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recover reloads the persisted open session after a restart so the
// auction resumes where it stopped.
func (e *Engine) Recover(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess, err := e.store.GetOpenSession(ctx)
	if errors.Is(err, store.ErrNotFound) {
		e.setCurrent(nil)
		e.log.Info("auction engine idle, no open session")
		return nil
	}
	if err != nil {
		return fmt.Errorf("recover open session: %w", err)
	}

	player, err := e.store.GetPlayer(ctx, sess.PlayerID)
	if err != nil {
		return fmt.Errorf("recover session %s: %w", sess.ID, err)
	}
	if !player.Status.Auctionable() {
		// A committed sale always closes its session in the same unit, so
		// this only happens after manual database edits.
		e.log.Error("open session references a player that cannot be auctioned",
			"session_id", sess.ID,
			"player_id", player.ID,
			"player_status", player.Status,
		)
	}

	e.setCurrent(sess)
	e.log.Info("auction session recovered",
		"session_id", sess.ID,
		"player_id", sess.PlayerID,
		"current_bid", int64(sess.CurrentBid),
		"bids", len(sess.Bids),
	)
	return nil
}

// Current returns the open session or ErrNoActiveSession.
func (e *Engine) Current(_ context.Context) (*model.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return nil, ErrNoActiveSession
	}
	return e.current.Clone(), nil
}

// Start opens a session for playerID at the player's base price.
func (e *Engine) Start(ctx context.Context, playerID string) (*model.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	open, err := e.store.GetOpenSession(ctx)
	switch {
	case err == nil:
		return nil, &ConflictError{PlayerID: playerID, OpenSessionID: open.ID, OpenPlayerID: open.PlayerID}
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	player, err := e.store.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if !player.Status.Auctionable() {
		return nil, e.invalid(&InvalidTransitionError{
			Op:       "start",
			PlayerID: playerID,
			Reason:   fmt.Sprintf("player is %s", player.Status),
		})
	}

	now := e.clock.Now().UTC()
	sess := &model.Session{
		ID:         e.newID(),
		PlayerID:   player.ID,
		CurrentBid: player.BasePrice,
		State:      model.SessionOpen,
		StartedAt:  now,
		Bids:       []model.BidRecord{},
	}

	if err := e.store.OpenSession(ctx, sess); err != nil {
		if errors.Is(err, store.ErrSessionOpen) {
			return nil, &ConflictError{PlayerID: playerID}
		}
		if errors.Is(err, store.ErrPlayerLocked) {
			return nil, e.invalid(&InvalidTransitionError{Op: "start", PlayerID: playerID, Reason: err.Error()})
		}
		return nil, fmt.Errorf("open session: %w", err)
	}

	e.setCurrent(sess)
	metrics.SessionsStarted.Inc()
	e.log.Info("auction started",
		"session_id", sess.ID,
		"player_id", player.ID,
		"player", player.Name,
		"base_price", int64(player.BasePrice),
	)
	e.emit(ctx, newEvent(EventStarted, sess, player.Name, now))
	return sess.Clone(), nil
}

// Bid records newBid from teamID. newBid must be strictly higher than the
// current bid, which starts at the base price, and the team must be able to
// cover it. Nothing is deducted until Finalize.
func (e *Engine) Bid(ctx context.Context, sessionID, teamID string, newBid money.Amount) (*model.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.IsActive() {
		metrics.BidsTotal.WithLabelValues("invalid").Inc()
		return nil, e.invalid(&InvalidTransitionError{
			Op: "bid", SessionID: sessionID, State: sess.State, Reason: "session is closed",
		})
	}
	if !store.Outbids(sess, newBid) {
		metrics.BidsTotal.WithLabelValues("stale").Inc()
		e.log.Debug("stale bid rejected",
			"session_id", sessionID, "team", teamID, "bid", int64(newBid), "current", int64(sess.CurrentBid))
		return nil, &StaleBidError{SessionID: sessionID, Bid: newBid, Current: sess.CurrentBid}
	}

	team, err := e.store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.RemainingBudget < newBid {
		metrics.BidsTotal.WithLabelValues("budget").Inc()
		e.log.Debug("bid over budget rejected",
			"session_id", sessionID, "team", teamID, "bid", int64(newBid), "remaining", int64(team.RemainingBudget))
		return nil, &BudgetExceededError{TeamID: teamID, Remaining: team.RemainingBudget, Required: newBid}
	}

	player, err := e.store.GetPlayer(ctx, sess.PlayerID)
	if err != nil {
		return nil, err
	}
	if err := e.checkSquad(ctx, teamID, player); err != nil {
		metrics.BidsTotal.WithLabelValues("squad").Inc()
		e.log.Debug("bid over squad limit rejected", "session_id", sessionID, "team", teamID, "err", err)
		return nil, err
	}

	now := e.clock.Now().UTC()
	bid := model.BidRecord{TeamID: teamID, Amount: newBid, At: now}
	if err := e.store.RecordBid(ctx, sessionID, bid); err != nil {
		switch {
		case errors.Is(err, store.ErrStaleBid):
			metrics.BidsTotal.WithLabelValues("stale").Inc()
			return nil, &StaleBidError{SessionID: sessionID, Bid: newBid, Current: sess.CurrentBid}
		case errors.Is(err, store.ErrSessionClosed):
			metrics.BidsTotal.WithLabelValues("invalid").Inc()
			return nil, e.invalid(&InvalidTransitionError{Op: "bid", SessionID: sessionID, Reason: err.Error()})
		}
		return nil, fmt.Errorf("record bid: %w", err)
	}

	sess.CurrentBid = newBid
	sess.LeadingTeamID = &teamID
	sess.Bids = append(sess.Bids, bid)
	e.setCurrent(sess)

	metrics.BidsTotal.WithLabelValues("accepted").Inc()
	e.log.Info("bid accepted",
		"session_id", sessionID,
		"player_id", sess.PlayerID,
		"team", teamID,
		"bid", int64(newBid),
	)
	e.emit(ctx, newEvent(EventBid, sess, player.Name, now))
	return sess.Clone(), nil
}

// Finalize sells the player to the leading team at the current bid. Budget
// and squad limits are checked again here; that check is the authoritative
// one. On BudgetExceededError the session stays Open.
func (e *Engine) Finalize(ctx context.Context, sessionID string) (*model.Sale, error) {
	start := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	sess, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.IsActive() {
		return nil, e.invalid(&InvalidTransitionError{
			Op: "finalize", SessionID: sessionID, State: sess.State, Reason: "session is closed",
		})
	}
	if sess.LeadingTeamID == nil {
		return nil, e.invalid(&InvalidTransitionError{
			Op: "finalize", SessionID: sessionID, State: sess.State, Reason: "no leading bid",
		})
	}
	teamID := *sess.LeadingTeamID

	team, err := e.store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.RemainingBudget < sess.CurrentBid {
		e.log.Warn("finalize refused, budget no longer covers the bid",
			"session_id", sessionID, "team", teamID,
			"price", int64(sess.CurrentBid), "remaining", int64(team.RemainingBudget))
		return nil, &BudgetExceededError{TeamID: teamID, Remaining: team.RemainingBudget, Required: sess.CurrentBid}
	}

	player, err := e.store.GetPlayer(ctx, sess.PlayerID)
	if err != nil {
		return nil, err
	}
	if err := e.checkSquad(ctx, teamID, player); err != nil {
		e.log.Warn("finalize refused by squad limits", "session_id", sessionID, "team", teamID, "err", err)
		return nil, err
	}

	sale := model.Sale{
		SessionID: sess.ID,
		PlayerID:  sess.PlayerID,
		TeamID:    teamID,
		Price:     sess.CurrentBid,
		LogID:     e.newID(),
		At:        e.clock.Now().UTC(),
	}

	if err := e.store.CommitSale(ctx, sale); err != nil {
		switch {
		case errors.Is(err, store.ErrInsufficientBudget):
			remaining := team.RemainingBudget
			if fresh, ferr := e.store.GetTeam(ctx, teamID); ferr == nil {
				remaining = fresh.RemainingBudget
			}
			return nil, &BudgetExceededError{TeamID: teamID, Remaining: remaining, Required: sale.Price}
		case errors.Is(err, store.ErrSessionClosed), errors.Is(err, store.ErrSaleMismatch),
			errors.Is(err, store.ErrPlayerLocked):
			return nil, e.invalid(&InvalidTransitionError{Op: "finalize", SessionID: sessionID, Reason: err.Error()})
		}
		return nil, fmt.Errorf("commit sale: %w", err)
	}

	price := sale.Price
	completed := sale.At
	sess.State = model.SessionSold
	sess.FinalPrice = &price
	sess.CompletedAt = &completed
	e.setCurrent(nil)

	metrics.SalesTotal.Inc()
	metrics.SalePrice.Observe(float64(price))
	metrics.FinalizeLatency.Observe(time.Since(start).Seconds())
	e.log.Info("player sold",
		"session_id", sessionID,
		"player_id", sale.PlayerID,
		"player", player.Name,
		"team", teamID,
		"price", int64(price),
		"log_id", sale.LogID,
	)
	e.emit(ctx, newEvent(EventSold, sess, player.Name, sale.At))
	return &sale, nil
}

// MarkUnsold closes the session without a sale. Budgets and the auction log
// are untouched; the player may be auctioned again later.
func (e *Engine) MarkUnsold(ctx context.Context, sessionID string) (*model.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.IsActive() {
		return nil, e.invalid(&InvalidTransitionError{
			Op: "unsold", SessionID: sessionID, State: sess.State, Reason: "session is closed",
		})
	}

	now := e.clock.Now().UTC()
	if err := e.store.CommitUnsold(ctx, sessionID, now); err != nil {
		if errors.Is(err, store.ErrSessionClosed) {
			return nil, e.invalid(&InvalidTransitionError{Op: "unsold", SessionID: sessionID, Reason: err.Error()})
		}
		return nil, fmt.Errorf("commit unsold: %w", err)
	}

	sess.State = model.SessionUnsold
	sess.CompletedAt = &now
	e.setCurrent(nil)

	var name string
	if p, err := e.store.GetPlayer(ctx, sess.PlayerID); err == nil {
		name = p.Name
	}

	metrics.UnsoldTotal.Inc()
	e.log.Info("player unsold", "session_id", sessionID, "player_id", sess.PlayerID, "player", name)
	e.emit(ctx, newEvent(EventUnsold, sess, name, now))
	return sess.Clone(), nil
}

// checkSquad applies squad limits to teamID buying candidate.
func (e *Engine) checkSquad(ctx context.Context, teamID string, candidate *model.Player) error {
	if e.squad == nil {
		return nil
	}
	roster, err := e.store.ListPlayers(ctx, store.PlayerFilter{Status: model.PlayerSold, TeamID: teamID})
	if err != nil {
		return fmt.Errorf("load roster for %s: %w", teamID, err)
	}
	if err := e.squad.CheckLimit(e.squad.Count(roster), candidate); err != nil {
		return &SquadLimitError{TeamID: teamID, Err: err}
	}
	return nil
}

// invalid logs an InvalidTransitionError at error level and returns it.
func (e *Engine) invalid(err *InvalidTransitionError) error {
	e.log.Error("invalid auction transition",
		"op", err.Op,
		"session_id", err.SessionID,
		"player_id", err.PlayerID,
		"state", err.State,
		"reason", err.Reason,
	)
	return err
}

func (e *Engine) emit(ctx context.Context, ev Event) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, ev); err != nil {
		e.log.Warn("auction event not delivered", "type", ev.Type, "session_id", ev.SessionID, "err", err)
	}
}

// setCurrent replaces the open-session snapshot. Caller holds e.mu.
func (e *Engine) setCurrent(sess *model.Session) {
	if sess == nil {
		e.current = nil
		metrics.ActiveSessions.Set(0)
		return
	}
	e.current = sess.Clone()
	metrics.ActiveSessions.Set(1)
}
