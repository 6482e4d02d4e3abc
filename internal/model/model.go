// Package model defines the core domain types shared across the auction
// service. All monetary values are money.Amount (integer lakhs), never floats
// or display strings.
package model

import (
	"time"

	"github.com/atmx/auction-engine/internal/money"
)

// Role is a player's playing role.
type Role string

const (
	RoleBatsman      Role = "Batsman"
	RoleBowler       Role = "Bowler"
	RoleAllRounder   Role = "All-rounder"
	RoleWicketKeeper Role = "Wicket-keeper"
)

// Roles lists every valid role in display order.
var Roles = []Role{RoleBatsman, RoleBowler, RoleAllRounder, RoleWicketKeeper}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// PlayerStatus is a player's position in the auction lifecycle.
type PlayerStatus string

const (
	PlayerAvailable PlayerStatus = "Available"
	PlayerPooled    PlayerStatus = "Pooled"
	PlayerSold      PlayerStatus = "Sold"
	PlayerUnsold    PlayerStatus = "Unsold"
)

// Auctionable reports whether a session may be opened for a player in this
// status. Unsold players may be re-auctioned; sold players may not.
func (s PlayerStatus) Auctionable() bool {
	return s == PlayerAvailable || s == PlayerPooled || s == PlayerUnsold
}

// Player is a roster entry. Status, SoldPrice and AssignedTeam are written
// only by the auction engine once the player has been created.
type Player struct {
	ID               string        `json:"id" db:"id"`
	Name             string        `json:"name" db:"name"`
	Role             Role          `json:"role" db:"role"`
	Country          string        `json:"country" db:"country"`
	BasePrice        money.Amount  `json:"base_price" db:"base_price"`
	Age              int           `json:"age" db:"age"`
	EvaluationPoints int           `json:"evaluation_points" db:"evaluation_points"`
	Pool             *string       `json:"pool,omitempty" db:"pool"`
	Status           PlayerStatus  `json:"status" db:"status"`
	SoldPrice        *money.Amount `json:"sold_price,omitempty" db:"sold_price"`
	AssignedTeam     *string       `json:"assigned_team,omitempty" db:"assigned_team"`
	Bio              string        `json:"bio,omitempty" db:"bio"`
	PerformanceStats string        `json:"performance_stats,omitempty" db:"performance_stats"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
}

// Team is a bidding franchise. Budget is fixed once the team has bought a
// player; RemainingBudget is written only by the engine.
type Team struct {
	ID              string       `json:"id" db:"id"`
	Name            string       `json:"name" db:"name"`
	ColorTheme      string       `json:"color_theme,omitempty" db:"color_theme"`
	Budget          money.Amount `json:"budget" db:"budget"`
	RemainingBudget money.Amount `json:"remaining_budget" db:"remaining_budget"`
	CreatedAt       time.Time    `json:"created_at" db:"created_at"`
}

// PoolStatus is the admin-controlled state of a pool.
type PoolStatus string

const (
	PoolReady     PoolStatus = "Ready"
	PoolHidden    PoolStatus = "Hidden"
	PoolActive    PoolStatus = "Active"
	PoolLocked    PoolStatus = "Locked"
	PoolCompleted PoolStatus = "Completed"
)

// Valid reports whether s is a known pool status.
func (s PoolStatus) Valid() bool {
	switch s {
	case PoolReady, PoolHidden, PoolActive, PoolLocked, PoolCompleted:
		return true
	}
	return false
}

// Visibility controls whether viewers can see a pool.
type Visibility string

const (
	VisibilityPublic  Visibility = "Public"
	VisibilityPrivate Visibility = "Private"
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Pool groups players for auction sequencing. PlayerIDs order is the display
// order; a player belongs to at most one pool.
type Pool struct {
	ID         string     `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	PlayerIDs  []string   `json:"player_ids"`
	Status     PoolStatus `json:"status" db:"status"`
	Visibility Visibility `json:"visibility" db:"visibility"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// SessionState is the auction state machine position of a session.
type SessionState string

const (
	SessionOpen   SessionState = "Open"
	SessionSold   SessionState = "Sold"
	SessionUnsold SessionState = "Unsold"
)

// BidRecord is one accepted bid. Rejected bids are never recorded.
type BidRecord struct {
	TeamID string       `json:"team_id"`
	Amount money.Amount `json:"amount"`
	At     time.Time    `json:"at"`
}

// Session is the bidding record for one player's auction, from Start to
// Sold or Unsold. Completed sessions are immutable.
type Session struct {
	ID            string        `json:"id" db:"id"`
	PlayerID      string        `json:"player_id" db:"player_id"`
	CurrentBid    money.Amount  `json:"current_bid" db:"current_bid"`
	LeadingTeamID *string       `json:"leading_team_id,omitempty" db:"leading_team_id"`
	State         SessionState  `json:"state" db:"state"`
	FinalPrice    *money.Amount `json:"final_price,omitempty" db:"final_price"`
	StartedAt     time.Time     `json:"started_at" db:"started_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty" db:"completed_at"`
	Bids          []BidRecord   `json:"bids"`
}

// IsActive reports whether the session is still accepting bids.
func (s *Session) IsActive() bool { return s.State == SessionOpen }

// IsCompleted reports whether the session reached a terminal state.
func (s *Session) IsCompleted() bool {
	return s.State == SessionSold || s.State == SessionUnsold
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (s *Session) Clone() *Session {
	c := *s
	if s.LeadingTeamID != nil {
		v := *s.LeadingTeamID
		c.LeadingTeamID = &v
	}
	if s.FinalPrice != nil {
		v := *s.FinalPrice
		c.FinalPrice = &v
	}
	if s.CompletedAt != nil {
		v := *s.CompletedAt
		c.CompletedAt = &v
	}
	c.Bids = append([]BidRecord(nil), s.Bids...)
	return &c
}

// Clone returns a deep copy of the player.
func (p *Player) Clone() *Player {
	c := *p
	if p.Pool != nil {
		v := *p.Pool
		c.Pool = &v
	}
	if p.SoldPrice != nil {
		v := *p.SoldPrice
		c.SoldPrice = &v
	}
	if p.AssignedTeam != nil {
		v := *p.AssignedTeam
		c.AssignedTeam = &v
	}
	return &c
}

// Clone returns a deep copy of the pool.
func (p *Pool) Clone() *Pool {
	c := *p
	c.PlayerIDs = append([]string(nil), p.PlayerIDs...)
	return &c
}

// AuctionLog is an immutable record of a completed sale.
// Once created, these are never modified or deleted.
type AuctionLog struct {
	ID        string       `json:"id" db:"id"`
	PlayerID  string       `json:"player_id" db:"player_id"`
	TeamID    string       `json:"team_id" db:"team_id"`
	SoldPrice money.Amount `json:"sold_price" db:"sold_price"`
	Timestamp time.Time    `json:"timestamp" db:"timestamp"`
}

// Sale is the full commit unit of a Finalize: the session transition, the
// player assignment, the budget deduction and the log entry.
type Sale struct {
	SessionID string       `json:"session_id"`
	PlayerID  string       `json:"player_id"`
	TeamID    string       `json:"team_id"`
	Price     money.Amount `json:"price"`
	LogID     string       `json:"log_id"`
	At        time.Time    `json:"at"`
}
