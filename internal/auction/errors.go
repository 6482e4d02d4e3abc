package auction

import (
	"errors"
	"fmt"

	"github.com/atmx/auction-engine/internal/model"
	"github.com/atmx/auction-engine/internal/money"
)

var (
	ErrConflict          = errors.New("auction: another session is open")
	ErrBudgetExceeded    = errors.New("auction: team budget exceeded")
	ErrStaleBid          = errors.New("auction: bid does not beat the current bid")
	ErrInvalidTransition = errors.New("auction: invalid transition")
	ErrSquadLimit        = errors.New("auction: squad limit reached")
	ErrNoActiveSession   = errors.New("auction: no active session")
)

// ConflictError is returned by Start while another session is Open.
type ConflictError struct {
	PlayerID      string
	OpenSessionID string
	OpenPlayerID  string
}

func (e *ConflictError) Error() string {
	if e.OpenSessionID == "" {
		return fmt.Sprintf("%s: cannot start player %s", ErrConflict, e.PlayerID)
	}
	return fmt.Sprintf("%s: session %s (player %s) must finish before player %s can start",
		ErrConflict, e.OpenSessionID, e.OpenPlayerID, e.PlayerID)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// BudgetExceededError is returned when a team cannot cover a bid or a sale.
// The session stays Open.
type BudgetExceededError struct {
	TeamID    string
	Remaining money.Amount
	Required  money.Amount
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("%s: team %s has %s, needs %s",
		ErrBudgetExceeded, e.TeamID, e.Remaining, e.Required)
}

func (e *BudgetExceededError) Unwrap() error { return ErrBudgetExceeded }

// StaleBidError is returned when a bid does not beat the session's current
// bid, usually because another bid landed first. Callers should refetch and
// retry.
type StaleBidError struct {
	SessionID string
	Bid       money.Amount
	Current   money.Amount
}

func (e *StaleBidError) Error() string {
	return fmt.Sprintf("%s: bid %s vs current %s in session %s",
		ErrStaleBid, e.Bid, e.Current, e.SessionID)
}

func (e *StaleBidError) Unwrap() error { return ErrStaleBid }

// InvalidTransitionError reports an operation the state machine does not
// allow, such as bidding on a completed session or finalizing without a
// leader.
type InvalidTransitionError struct {
	Op        string
	SessionID string
	PlayerID  string
	State     model.SessionState
	Reason    string
}

func (e *InvalidTransitionError) Error() string {
	target := e.SessionID
	if target == "" {
		target = "player " + e.PlayerID
	} else {
		target = "session " + target
	}
	if e.State != "" {
		return fmt.Sprintf("%s: %s on %s (%s): %s", ErrInvalidTransition, e.Op, target, e.State, e.Reason)
	}
	return fmt.Sprintf("%s: %s on %s: %s", ErrInvalidTransition, e.Op, target, e.Reason)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// SquadLimitError wraps the squad limiter's verdict. It matches both
// ErrSquadLimit and the underlying squad error.
type SquadLimitError struct {
	TeamID string
	Err    error
}

func (e *SquadLimitError) Error() string {
	return fmt.Sprintf("%s: team %s: %v", ErrSquadLimit, e.TeamID, e.Err)
}

func (e *SquadLimitError) Unwrap() []error { return []error{ErrSquadLimit, e.Err} }
