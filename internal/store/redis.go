package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atmx/auction-engine/internal/model"
	"github.com/atmx/auction-engine/internal/money"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache for catalog reads. Writes go to the primary store and invalidate the
// affected keys. Single-team reads, session state and the auction log are
// never cached: the engine checks budgets and bids against the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Players ---

func (s *CachedStore) CreatePlayer(ctx context.Context, p *model.Player) error {
	if err := s.primary.CreatePlayer(ctx, p); err != nil {
		return err
	}
	s.cache(ctx, playerKey(p.ID), p)
	return nil
}

func (s *CachedStore) GetPlayer(ctx context.Context, id string) (*model.Player, error) {
	var p model.Player
	if s.lookup(ctx, playerKey(id), &p) {
		return &p, nil
	}

	got, err := s.primary.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, playerKey(id), got)
	return got, nil
}

func (s *CachedStore) ListPlayers(ctx context.Context, f PlayerFilter) ([]model.Player, error) {
	return s.primary.ListPlayers(ctx, f)
}

func (s *CachedStore) UpdatePlayerProfile(ctx context.Context, id string, prof PlayerProfile) error {
	if err := s.primary.UpdatePlayerProfile(ctx, id, prof); err != nil {
		return err
	}
	s.invalidate(ctx, playerKey(id))
	return nil
}

func (s *CachedStore) DeletePlayer(ctx context.Context, id string) error {
	// Capture the pool before the row goes away.
	keys := []string{playerKey(id)}
	if p, err := s.primary.GetPlayer(ctx, id); err == nil && p.Pool != nil {
		keys = append(keys, poolKey(*p.Pool))
	}
	if err := s.primary.DeletePlayer(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, append(keys, poolsKey)...)
	return nil
}

// --- Teams ---

func (s *CachedStore) CreateTeam(ctx context.Context, t *model.Team) error {
	if err := s.primary.CreateTeam(ctx, t); err != nil {
		return err
	}
	s.invalidate(ctx, teamsKey)
	return nil
}

// GetTeam always reads the primary; RemainingBudget is what Bid and Finalize
// check against.
func (s *CachedStore) GetTeam(ctx context.Context, id string) (*model.Team, error) {
	return s.primary.GetTeam(ctx, id)
}

func (s *CachedStore) ListTeams(ctx context.Context) ([]model.Team, error) {
	var teams []model.Team
	if s.lookup(ctx, teamsKey, &teams) {
		return teams, nil
	}

	teams, err := s.primary.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, teamsKey, teams)
	return teams, nil
}

func (s *CachedStore) UpdateTeamProfile(ctx context.Context, id, name, colorTheme string) error {
	if err := s.primary.UpdateTeamProfile(ctx, id, name, colorTheme); err != nil {
		return err
	}
	s.invalidate(ctx, teamsKey)
	return nil
}

func (s *CachedStore) UpdateTeamBudget(ctx context.Context, id string, budget money.Amount) error {
	if err := s.primary.UpdateTeamBudget(ctx, id, budget); err != nil {
		return err
	}
	s.invalidate(ctx, teamsKey)
	return nil
}

// --- Pools ---

func (s *CachedStore) CreatePool(ctx context.Context, p *model.Pool) error {
	if err := s.primary.CreatePool(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx, poolsKey)
	return nil
}

func (s *CachedStore) GetPool(ctx context.Context, name string) (*model.Pool, error) {
	var p model.Pool
	if s.lookup(ctx, poolKey(name), &p) {
		return &p, nil
	}

	got, err := s.primary.GetPool(ctx, name)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, poolKey(name), got)
	return got, nil
}

func (s *CachedStore) ListPools(ctx context.Context) ([]model.Pool, error) {
	var pools []model.Pool
	if s.lookup(ctx, poolsKey, &pools) {
		return pools, nil
	}

	pools, err := s.primary.ListPools(ctx)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, poolsKey, pools)
	return pools, nil
}

func (s *CachedStore) UpdatePoolSettings(ctx context.Context, name string, status model.PoolStatus, vis model.Visibility) error {
	if err := s.primary.UpdatePoolSettings(ctx, name, status, vis); err != nil {
		return err
	}
	s.invalidate(ctx, poolKey(name), poolsKey)
	return nil
}

func (s *CachedStore) ReorderPool(ctx context.Context, name string, order []string) error {
	if err := s.primary.ReorderPool(ctx, name, order); err != nil {
		return err
	}
	s.invalidate(ctx, poolKey(name), poolsKey)
	return nil
}

func (s *CachedStore) DeletePool(ctx context.Context, name string) error {
	if err := s.primary.DeletePool(ctx, name); err != nil {
		return err
	}
	s.invalidate(ctx, poolKey(name), poolsKey)
	return nil
}

func (s *CachedStore) AssignPlayerToPool(ctx context.Context, name, playerID string) error {
	keys := []string{poolKey(name), poolsKey, playerKey(playerID)}
	if p, err := s.primary.GetPlayer(ctx, playerID); err == nil && p.Pool != nil {
		keys = append(keys, poolKey(*p.Pool))
	}
	if err := s.primary.AssignPlayerToPool(ctx, name, playerID); err != nil {
		return err
	}
	s.invalidate(ctx, keys...)
	return nil
}

func (s *CachedStore) RemovePlayerFromPool(ctx context.Context, name, playerID string) error {
	if err := s.primary.RemovePlayerFromPool(ctx, name, playerID); err != nil {
		return err
	}
	s.invalidate(ctx, poolKey(name), poolsKey, playerKey(playerID))
	return nil
}

// --- Sessions (passthrough, with invalidation of what they touch) ---

func (s *CachedStore) OpenSession(ctx context.Context, sess *model.Session) error {
	return s.primary.OpenSession(ctx, sess)
}

func (s *CachedStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	return s.primary.GetSession(ctx, id)
}

func (s *CachedStore) GetOpenSession(ctx context.Context) (*model.Session, error) {
	return s.primary.GetOpenSession(ctx)
}

func (s *CachedStore) RecordBid(ctx context.Context, sessionID string, bid model.BidRecord) error {
	return s.primary.RecordBid(ctx, sessionID, bid)
}

func (s *CachedStore) CommitSale(ctx context.Context, sale model.Sale) error {
	if err := s.primary.CommitSale(ctx, sale); err != nil {
		return err
	}
	s.invalidate(ctx, playerKey(sale.PlayerID), teamsKey)
	return nil
}

func (s *CachedStore) CommitUnsold(ctx context.Context, sessionID string, at time.Time) error {
	sess, err := s.primary.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := s.primary.CommitUnsold(ctx, sessionID, at); err != nil {
		return err
	}
	s.invalidate(ctx, playerKey(sess.PlayerID))
	return nil
}

// --- Auction log (passthrough) ---

func (s *CachedStore) ListAuctionLogs(ctx context.Context) ([]model.AuctionLog, error) {
	return s.primary.ListAuctionLogs(ctx)
}

func (s *CachedStore) ListAuctionLogsByTeam(ctx context.Context, teamID string) ([]model.AuctionLog, error) {
	return s.primary.ListAuctionLogsByTeam(ctx, teamID)
}

// --- Cache helpers ---

// lookup decodes key into dst and reports a hit. Redis errors count as a miss.
func (s *CachedStore) lookup(ctx context.Context, key string, dst any) bool {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (s *CachedStore) cache(ctx context.Context, key string, v any) {
	if data, err := json.Marshal(v); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
}

func (s *CachedStore) invalidate(ctx context.Context, keys ...string) {
	s.rdb.Del(ctx, keys...)
}

const (
	teamsKey = "auction:teams"
	poolsKey = "auction:pools"
)

func playerKey(id string) string { return fmt.Sprintf("auction:player:%s", id) }
func poolKey(name string) string { return fmt.Sprintf("auction:pool:%s", name) }
