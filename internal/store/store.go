// Package store defines the persistence interface for the auction service.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
package store

import (
	"context"
	"errors"
	"time"

	"github.com/atmx/auction-engine/internal/model"
	"github.com/atmx/auction-engine/internal/money"
)

var (
	ErrNotFound           = errors.New("store: not found")
	ErrDuplicate          = errors.New("store: already exists")
	ErrSessionOpen        = errors.New("store: another auction session is open")
	ErrSessionClosed      = errors.New("store: auction session is not open")
	ErrStaleBid           = errors.New("store: bid does not exceed current bid")
	ErrInsufficientBudget = errors.New("store: team budget cannot cover price")
	ErrPoolNotEmpty       = errors.New("store: pool still has players; move them out first")
	ErrPlayerLocked       = errors.New("store: player is under auction control")
	ErrTeamLocked         = errors.New("store: team has purchases; budget is fixed")
	ErrInvalidOrder       = errors.New("store: order is not a permutation of the pool")
	ErrSaleMismatch       = errors.New("store: sale does not match the open session")
)

// PlayerProfile carries the admin-editable player fields. Status, sold price,
// assigned team and pool are written through other paths only.
type PlayerProfile struct {
	Name             string
	Role             model.Role
	Country          string
	BasePrice        money.Amount
	Age              int
	EvaluationPoints int
	Bio              string
	PerformanceStats string
}

// PlayerFilter narrows ListPlayers. Zero values match everything.
type PlayerFilter struct {
	Status model.PlayerStatus
	Pool   string
	TeamID string
}

// Match reports whether p passes the filter.
func (f PlayerFilter) Match(p *model.Player) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Pool != "" && (p.Pool == nil || *p.Pool != f.Pool) {
		return false
	}
	if f.TeamID != "" && (p.AssignedTeam == nil || *p.AssignedTeam != f.TeamID) {
		return false
	}
	return true
}

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer.
type Store interface {
	// --- Player registry ---

	CreatePlayer(ctx context.Context, p *model.Player) error
	GetPlayer(ctx context.Context, id string) (*model.Player, error)
	ListPlayers(ctx context.Context, f PlayerFilter) ([]model.Player, error)

	// UpdatePlayerProfile edits admin fields. Fails with ErrPlayerLocked once
	// the player is sold or under an open session.
	UpdatePlayerProfile(ctx context.Context, id string, p PlayerProfile) error

	// DeletePlayer removes a player that has never been part of a completed
	// auction.
	DeletePlayer(ctx context.Context, id string) error

	// --- Team ledger ---

	CreateTeam(ctx context.Context, t *model.Team) error
	GetTeam(ctx context.Context, id string) (*model.Team, error)
	ListTeams(ctx context.Context) ([]model.Team, error)
	UpdateTeamProfile(ctx context.Context, id, name, colorTheme string) error

	// UpdateTeamBudget resets budget and remaining budget. Fails with
	// ErrTeamLocked once any player has been sold to the team.
	UpdateTeamBudget(ctx context.Context, id string, budget money.Amount) error

	// --- Pool index ---

	CreatePool(ctx context.Context, p *model.Pool) error
	GetPool(ctx context.Context, name string) (*model.Pool, error)
	ListPools(ctx context.Context) ([]model.Pool, error)
	UpdatePoolSettings(ctx context.Context, name string, status model.PoolStatus, vis model.Visibility) error

	// ReorderPool replaces the display order. order must be a permutation of
	// the pool's current players.
	ReorderPool(ctx context.Context, name string, order []string) error

	// DeletePool fails with ErrPoolNotEmpty while players remain.
	DeletePool(ctx context.Context, name string) error

	// AssignPlayerToPool moves a player into a pool (out of any other one)
	// and marks an Available player Pooled.
	AssignPlayerToPool(ctx context.Context, name, playerID string) error

	// RemovePlayerFromPool detaches a player; a Pooled player becomes
	// Available again.
	RemovePlayerFromPool(ctx context.Context, name, playerID string) error

	// --- Auction sessions (engine only) ---

	// OpenSession persists a new Open session. Fails with ErrSessionOpen if
	// any session is already Open.
	OpenSession(ctx context.Context, s *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)

	// GetOpenSession returns the single Open session or ErrNotFound.
	GetOpenSession(ctx context.Context) (*model.Session, error)

	// RecordBid appends an accepted bid and moves the current bid. Fails
	// with ErrSessionClosed or ErrStaleBid.
	RecordBid(ctx context.Context, sessionID string, bid model.BidRecord) error

	// CommitSale applies a Finalize as one atomic unit: session Sold, player
	// Sold to the team, team budget reduced, log entry appended. Either all
	// four land or none do.
	CommitSale(ctx context.Context, sale model.Sale) error

	// CommitUnsold closes the session Unsold and marks the player Unsold.
	CommitUnsold(ctx context.Context, sessionID string, at time.Time) error

	// --- Immutable auction log ---

	ListAuctionLogs(ctx context.Context) ([]model.AuctionLog, error)
	ListAuctionLogsByTeam(ctx context.Context, teamID string) ([]model.AuctionLog, error)
}
