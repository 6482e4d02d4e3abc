// Package increment computes bid increments for auction callers.
//
// The auction engine accepts an explicit new bid and only checks that it
// is higher than the current one. Choosing the next bid is the caller's job;
// this package gives callers two ways to do it:
//   - Menu: an admin-selectable fixed set of steps (e.g. 5/10/25/50 lakh)
//   - Ladder: slab rules where the step grows with the current price
//
// All values are money.Amount (integer lakhs).
package increment

import (
	"errors"
	"fmt"
	"sort"

	"github.com/atmx/auction-engine/internal/money"
)

var (
	// ErrNonPositiveIncrement is returned when a step is zero or negative.
	ErrNonPositiveIncrement = errors.New("increment: step must be positive")

	// ErrUnknownIncrement is returned when a step is not on the menu.
	ErrUnknownIncrement = errors.New("increment: step is not on the menu")

	// ErrInvalidLadder is returned when ladder slabs are empty or unordered.
	ErrInvalidLadder = errors.New("increment: ladder slabs must be non-empty and ascending")
)

// DefaultMenu is the stock increment menu in lakhs.
var DefaultMenu = Menu{5, 10, 25, 50}

// Menu is an ordered set of allowed increments.
type Menu []money.Amount

// NewMenu validates and sorts steps. Duplicates are removed.
func NewMenu(steps ...money.Amount) (Menu, error) {
	if len(steps) == 0 {
		return nil, ErrNonPositiveIncrement
	}
	seen := make(map[money.Amount]bool, len(steps))
	m := make(Menu, 0, len(steps))
	for _, s := range steps {
		if s <= 0 {
			return nil, fmt.Errorf("step %d: %w", s, ErrNonPositiveIncrement)
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		m = append(m, s)
	}
	sort.Slice(m, func(i, j int) bool { return m[i] < m[j] })
	return m, nil
}

// Contains reports whether step is on the menu.
func (m Menu) Contains(step money.Amount) bool {
	for _, s := range m {
		if s == step {
			return true
		}
	}
	return false
}

// Apply returns current + step after checking the step is on the menu.
func (m Menu) Apply(current, step money.Amount) (money.Amount, error) {
	if step <= 0 {
		return 0, ErrNonPositiveIncrement
	}
	if !m.Contains(step) {
		return 0, fmt.Errorf("step %d: %w", step, ErrUnknownIncrement)
	}
	return current + step, nil
}

// Options lists the bids reachable from current with one menu step.
func (m Menu) Options(current money.Amount) []money.Amount {
	out := make([]money.Amount, len(m))
	for i, s := range m {
		out[i] = current + s
	}
	return out
}

// Slab applies Step while the current bid is below UpTo. The last slab of a
// ladder should have UpTo == 0, meaning "no upper bound".
type Slab struct {
	UpTo money.Amount
	Step money.Amount
}

// Ladder picks the increment from the current bid.
type Ladder struct {
	slabs []Slab
}

// DefaultLadder: below 1 Cr step 5 L, below 2 Cr step 10 L, below 5 Cr step
// 20 L, above that 25 L.
var DefaultLadder = MustLadder(
	Slab{UpTo: 100, Step: 5},
	Slab{UpTo: 200, Step: 10},
	Slab{UpTo: 500, Step: 20},
	Slab{Step: 25},
)

// NewLadder validates slabs: every step positive, bounds strictly
// ascending, only the last slab open-ended.
func NewLadder(slabs ...Slab) (*Ladder, error) {
	if len(slabs) == 0 {
		return nil, ErrInvalidLadder
	}
	var prev money.Amount
	for i, s := range slabs {
		if s.Step <= 0 {
			return nil, fmt.Errorf("slab %d: %w", i, ErrNonPositiveIncrement)
		}
		last := i == len(slabs)-1
		if s.UpTo == 0 && !last {
			return nil, fmt.Errorf("slab %d is open-ended but not last: %w", i, ErrInvalidLadder)
		}
		if s.UpTo != 0 && s.UpTo <= prev {
			return nil, fmt.Errorf("slab %d bound %d after %d: %w", i, s.UpTo, prev, ErrInvalidLadder)
		}
		prev = s.UpTo
	}
	return &Ladder{slabs: append([]Slab(nil), slabs...)}, nil
}

// MustLadder is like NewLadder but panics on invalid slabs.
func MustLadder(slabs ...Slab) *Ladder {
	l, err := NewLadder(slabs...)
	if err != nil {
		panic(err)
	}
	return l
}

// Step returns the increment that applies at current.
func (l *Ladder) Step(current money.Amount) money.Amount {
	for _, s := range l.slabs {
		if s.UpTo == 0 || current < s.UpTo {
			return s.Step
		}
	}
	// A closed last slab keeps its step beyond the bound.
	return l.slabs[len(l.slabs)-1].Step
}

// Next returns the next bid after current.
func (l *Ladder) Next(current money.Amount) money.Amount {
	return current + l.Step(current)
}
