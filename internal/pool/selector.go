// Package pool answers "who is next" questions over a pool and wraps the
// admin operations on pools. Selection is read-only; Shuffle rewrites only
// the pool's display order.
package pool

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/atmx/auction-engine/internal/model"
	"github.com/atmx/auction-engine/internal/store"
)

// ErrPoolExhausted is returned when no eligible player remains in a pool.
var ErrPoolExhausted = errors.New("pool: no eligible players left")

// Options tunes eligibility.
type Options struct {
	// IncludeUnsold makes Unsold players eligible for a second round.
	IncludeUnsold bool
	// Exclude skips specific player ids, e.g. one the admin passed over.
	Exclude []string
}

func (o Options) eligible(p *model.Player) bool {
	for _, id := range o.Exclude {
		if p.ID == id {
			return false
		}
	}
	switch p.Status {
	case model.PlayerAvailable, model.PlayerPooled:
		return true
	case model.PlayerUnsold:
		return o.IncludeUnsold
	}
	return false
}

// Selector reads pools and players from the store.
type Selector struct {
	store store.Store
}

// NewSelector creates a selector over st.
func NewSelector(st store.Store) *Selector {
	return &Selector{store: st}
}

// Eligible returns the pool's eligible players in pool order.
func (s *Selector) Eligible(ctx context.Context, poolName string, opts Options) ([]model.Player, error) {
	p, err := s.store.GetPool(ctx, poolName)
	if err != nil {
		return nil, err
	}
	members, err := s.store.ListPlayers(ctx, store.PlayerFilter{Pool: poolName})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Player, len(members))
	for i := range members {
		byID[members[i].ID] = &members[i]
	}

	out := make([]model.Player, 0, len(p.PlayerIDs))
	for _, id := range p.PlayerIDs {
		player, ok := byID[id]
		if !ok || !opts.eligible(player) {
			continue
		}
		out = append(out, *player)
	}
	return out, nil
}

// NextEligible returns the first eligible player in pool order.
func (s *Selector) NextEligible(ctx context.Context, poolName string, opts Options) (*model.Player, error) {
	players, err := s.Eligible(ctx, poolName, opts)
	if err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return nil, fmt.Errorf("pool %q: %w", poolName, ErrPoolExhausted)
	}
	return &players[0], nil
}

// Progress counts a pool's players by status.
type Progress struct {
	Pool      string `json:"pool"`
	Total     int    `json:"total"`
	Sold      int    `json:"sold"`
	Unsold    int    `json:"unsold"`
	Remaining int    `json:"remaining"`
}

// Progress reports how far the auction has gone through a pool.
func (s *Selector) Progress(ctx context.Context, poolName string) (Progress, error) {
	members, err := s.store.ListPlayers(ctx, store.PlayerFilter{Pool: poolName})
	if err != nil {
		return Progress{}, err
	}
	pr := Progress{Pool: poolName, Total: len(members)}
	for _, p := range members {
		switch p.Status {
		case model.PlayerSold:
			pr.Sold++
		case model.PlayerUnsold:
			pr.Unsold++
		default:
			pr.Remaining++
		}
	}
	return pr, nil
}

// Shuffle randomizes the pool's display order with r. Outcomes of players
// already auctioned are untouched.
func (s *Selector) Shuffle(ctx context.Context, poolName string, r *rand.Rand) ([]string, error) {
	p, err := s.store.GetPool(ctx, poolName)
	if err != nil {
		return nil, err
	}
	order := append([]string(nil), p.PlayerIDs...)
	r.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	if err := s.store.ReorderPool(ctx, poolName, order); err != nil {
		return nil, err
	}
	return order, nil
}
