// Package squad enforces squad composition limits for teams buying players.
//
// Leagues cap how many players a team may own and how many of those may be
// overseas players. The auction engine checks a candidate purchase against
// the team's current roster at Bid time and again at Finalize time, the same
// way it checks budgets.
package squad

import (
	"errors"
	"strings"

	"github.com/atmx/auction-engine/internal/model"
)

var (
	// ErrSquadFull is returned when buying the player would exceed the
	// maximum squad size.
	ErrSquadFull = errors.New("squad: squad size limit reached")

	// ErrOverseasLimit is returned when buying an overseas player would
	// exceed the overseas quota.
	ErrOverseasLimit = errors.New("squad: overseas player limit reached")
)

// Limiter enforces squad limits. A zero limit disables that check.
type Limiter struct {
	// MaxSquad is the maximum number of players a team may own.
	MaxSquad int

	// MaxOverseas is the maximum number of players whose country differs
	// from HomeCountry.
	MaxOverseas int

	// HomeCountry identifies domestic players. Comparison ignores case and
	// surrounding whitespace. An empty HomeCountry disables the overseas
	// check.
	HomeCountry string
}

// NewLimiter creates a limiter. Negative limits are treated as disabled.
func NewLimiter(maxSquad, maxOverseas int, homeCountry string) *Limiter {
	if maxSquad < 0 {
		maxSquad = 0
	}
	if maxOverseas < 0 {
		maxOverseas = 0
	}
	return &Limiter{
		MaxSquad:    maxSquad,
		MaxOverseas: maxOverseas,
		HomeCountry: strings.TrimSpace(homeCountry),
	}
}

// Counts summarizes a roster for limit checks.
type Counts struct {
	Total    int
	Overseas int
}

// Count tallies the roster.
func (l *Limiter) Count(roster []model.Player) Counts {
	var c Counts
	for i := range roster {
		c.Total++
		if l.IsOverseas(&roster[i]) {
			c.Overseas++
		}
	}
	return c
}

// IsOverseas reports whether p counts against the overseas quota.
func (l *Limiter) IsOverseas(p *model.Player) bool {
	if l.HomeCountry == "" {
		return false
	}
	return !strings.EqualFold(strings.TrimSpace(p.Country), l.HomeCountry)
}

// CheckLimit validates whether adding candidate to a roster with the given
// counts respects the limits. Returns nil when within limits.
func (l *Limiter) CheckLimit(current Counts, candidate *model.Player) error {
	// 1. Squad size.
	if l.MaxSquad > 0 && current.Total+1 > l.MaxSquad {
		return ErrSquadFull
	}

	// 2. Overseas quota, only for overseas candidates.
	if l.MaxOverseas > 0 && l.IsOverseas(candidate) && current.Overseas+1 > l.MaxOverseas {
		return ErrOverseasLimit
	}

	return nil
}
