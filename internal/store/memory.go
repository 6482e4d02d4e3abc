package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/atmx/auction-engine/internal/model"
	"github.com/atmx/auction-engine/internal/money"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
//
// Every method holds the store lock for its whole body, so CommitSale
// validates and applies its four effects without any interleaving.
type MemoryStore struct {
	mu sync.RWMutex

	players     map[string]*model.Player
	playerOrder []string
	teams       map[string]*model.Team
	teamOrder   []string
	pools       map[string]*model.Pool
	poolOrder   []string
	sessions    map[string]*model.Session
	logs        []model.AuctionLog
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		players:  make(map[string]*model.Player),
		teams:    make(map[string]*model.Team),
		pools:    make(map[string]*model.Pool),
		sessions: make(map[string]*model.Session),
	}
}

// --- Players ---

func (s *MemoryStore) CreatePlayer(_ context.Context, p *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[p.ID]; ok {
		return fmt.Errorf("player %s: %w", p.ID, ErrDuplicate)
	}
	if p.Pool != nil {
		return fmt.Errorf("player %s: pool membership is set via AssignPlayerToPool: %w", p.ID, ErrPlayerLocked)
	}
	s.players[p.ID] = p.Clone()
	s.playerOrder = append(s.playerOrder, p.ID)
	return nil
}

func (s *MemoryStore) GetPlayer(_ context.Context, id string) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[id]
	if !ok {
		return nil, fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	return p.Clone(), nil
}

func (s *MemoryStore) ListPlayers(_ context.Context, f PlayerFilter) ([]model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	players := make([]model.Player, 0, len(s.playerOrder))
	for _, id := range s.playerOrder {
		p := s.players[id]
		if f.Match(p) {
			players = append(players, *p.Clone())
		}
	}
	return players, nil
}

func (s *MemoryStore) UpdatePlayerProfile(_ context.Context, id string, prof PlayerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[id]
	if !ok {
		return fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	if p.Status == model.PlayerSold || s.openSessionFor(id) != nil {
		return fmt.Errorf("player %s: %w", id, ErrPlayerLocked)
	}

	p.Name = prof.Name
	p.Role = prof.Role
	p.Country = prof.Country
	p.BasePrice = prof.BasePrice
	p.Age = prof.Age
	p.EvaluationPoints = prof.EvaluationPoints
	p.Bio = prof.Bio
	p.PerformanceStats = prof.PerformanceStats
	return nil
}

func (s *MemoryStore) DeletePlayer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[id]
	if !ok {
		return fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	if p.Status == model.PlayerSold || p.Status == model.PlayerUnsold || s.hasSessionFor(id) {
		return fmt.Errorf("player %s: %w", id, ErrPlayerLocked)
	}

	if p.Pool != nil {
		if pool, ok := s.pools[*p.Pool]; ok {
			pool.PlayerIDs = removeID(pool.PlayerIDs, id)
		}
	}
	delete(s.players, id)
	s.playerOrder = removeID(s.playerOrder, id)
	return nil
}

// --- Teams ---

func (s *MemoryStore) CreateTeam(_ context.Context, t *model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.teams[t.ID]; ok {
		return fmt.Errorf("team %s: %w", t.ID, ErrDuplicate)
	}
	for _, existing := range s.teams {
		if existing.Name == t.Name {
			return fmt.Errorf("team name %q: %w", t.Name, ErrDuplicate)
		}
	}

	copy := *t
	s.teams[t.ID] = &copy
	s.teamOrder = append(s.teamOrder, t.ID)
	return nil
}

func (s *MemoryStore) GetTeam(_ context.Context, id string) (*model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.teams[id]
	if !ok {
		return nil, fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	copy := *t
	return &copy, nil
}

func (s *MemoryStore) ListTeams(_ context.Context) ([]model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	teams := make([]model.Team, 0, len(s.teamOrder))
	for _, id := range s.teamOrder {
		teams = append(teams, *s.teams[id])
	}
	return teams, nil
}

func (s *MemoryStore) UpdateTeamProfile(_ context.Context, id, name, colorTheme string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.teams[id]
	if !ok {
		return fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	for _, existing := range s.teams {
		if existing.ID != id && existing.Name == name {
			return fmt.Errorf("team name %q: %w", name, ErrDuplicate)
		}
	}
	t.Name = name
	t.ColorTheme = colorTheme
	return nil
}

func (s *MemoryStore) UpdateTeamBudget(_ context.Context, id string, budget money.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.teams[id]
	if !ok {
		return fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	for _, l := range s.logs {
		if l.TeamID == id {
			return fmt.Errorf("team %s: %w", id, ErrTeamLocked)
		}
	}
	if open := s.openSession(); open != nil && open.LeadingTeamID != nil && *open.LeadingTeamID == id {
		return fmt.Errorf("team %s leads the open auction: %w", id, ErrTeamLocked)
	}
	t.Budget = budget
	t.RemainingBudget = budget
	return nil
}

// --- Pools ---

func (s *MemoryStore) CreatePool(_ context.Context, p *model.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pools[p.Name]; ok {
		return fmt.Errorf("pool %q: %w", p.Name, ErrDuplicate)
	}
	c := p.Clone()
	c.PlayerIDs = nil
	s.pools[p.Name] = c
	s.poolOrder = append(s.poolOrder, p.Name)
	return nil
}

func (s *MemoryStore) GetPool(_ context.Context, name string) (*model.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pools[name]
	if !ok {
		return nil, fmt.Errorf("pool %q: %w", name, ErrNotFound)
	}
	return p.Clone(), nil
}

func (s *MemoryStore) ListPools(_ context.Context) ([]model.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pools := make([]model.Pool, 0, len(s.poolOrder))
	for _, name := range s.poolOrder {
		pools = append(pools, *s.pools[name].Clone())
	}
	return pools, nil
}

func (s *MemoryStore) UpdatePoolSettings(_ context.Context, name string, status model.PoolStatus, vis model.Visibility) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pools[name]
	if !ok {
		return fmt.Errorf("pool %q: %w", name, ErrNotFound)
	}
	p.Status = status
	p.Visibility = vis
	return nil
}

func (s *MemoryStore) ReorderPool(_ context.Context, name string, order []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pools[name]
	if !ok {
		return fmt.Errorf("pool %q: %w", name, ErrNotFound)
	}
	if !isPermutation(p.PlayerIDs, order) {
		return fmt.Errorf("pool %q: %w", name, ErrInvalidOrder)
	}
	p.PlayerIDs = append([]string(nil), order...)
	return nil
}

func (s *MemoryStore) DeletePool(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pools[name]
	if !ok {
		return fmt.Errorf("pool %q: %w", name, ErrNotFound)
	}
	if len(p.PlayerIDs) > 0 {
		return fmt.Errorf("pool %q has %d players: %w", name, len(p.PlayerIDs), ErrPoolNotEmpty)
	}
	delete(s.pools, name)
	s.poolOrder = removeID(s.poolOrder, name)
	return nil
}

func (s *MemoryStore) AssignPlayerToPool(_ context.Context, name, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool, ok := s.pools[name]
	if !ok {
		return fmt.Errorf("pool %q: %w", name, ErrNotFound)
	}
	p, ok := s.players[playerID]
	if !ok {
		return fmt.Errorf("player %s: %w", playerID, ErrNotFound)
	}
	if p.Status == model.PlayerSold || s.openSessionFor(playerID) != nil {
		return fmt.Errorf("player %s: %w", playerID, ErrPlayerLocked)
	}
	if p.Pool != nil && *p.Pool == name {
		return nil
	}

	if p.Pool != nil {
		if old, ok := s.pools[*p.Pool]; ok {
			old.PlayerIDs = removeID(old.PlayerIDs, playerID)
		}
	}
	pool.PlayerIDs = append(pool.PlayerIDs, playerID)
	poolName := name
	p.Pool = &poolName
	if p.Status == model.PlayerAvailable {
		p.Status = model.PlayerPooled
	}
	return nil
}

func (s *MemoryStore) RemovePlayerFromPool(_ context.Context, name, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool, ok := s.pools[name]
	if !ok {
		return fmt.Errorf("pool %q: %w", name, ErrNotFound)
	}
	p, ok := s.players[playerID]
	if !ok || p.Pool == nil || *p.Pool != name {
		return fmt.Errorf("player %s in pool %q: %w", playerID, name, ErrNotFound)
	}
	if s.openSessionFor(playerID) != nil {
		return fmt.Errorf("player %s: %w", playerID, ErrPlayerLocked)
	}

	pool.PlayerIDs = removeID(pool.PlayerIDs, playerID)
	p.Pool = nil
	if p.Status == model.PlayerPooled {
		p.Status = model.PlayerAvailable
	}
	return nil
}

// --- Sessions ---

func (s *MemoryStore) OpenSession(_ context.Context, sess *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if open := s.openSession(); open != nil {
		return fmt.Errorf("session %s for player %s: %w", open.ID, open.PlayerID, ErrSessionOpen)
	}
	if _, ok := s.sessions[sess.ID]; ok {
		return fmt.Errorf("session %s: %w", sess.ID, ErrDuplicate)
	}
	p, ok := s.players[sess.PlayerID]
	if !ok {
		return fmt.Errorf("player %s: %w", sess.PlayerID, ErrNotFound)
	}
	if !p.Status.Auctionable() {
		return fmt.Errorf("player %s is %s: %w", p.ID, p.Status, ErrPlayerLocked)
	}

	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, id string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return sess.Clone(), nil
}

func (s *MemoryStore) GetOpenSession(_ context.Context) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	open := s.openSession()
	if open == nil {
		return nil, fmt.Errorf("open session: %w", ErrNotFound)
	}
	return open.Clone(), nil
}

func (s *MemoryStore) RecordBid(_ context.Context, sessionID string, bid model.BidRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if !sess.IsActive() {
		return fmt.Errorf("session %s is %s: %w", sessionID, sess.State, ErrSessionClosed)
	}
	if !Outbids(sess, bid.Amount) {
		return fmt.Errorf("bid %d vs current %d: %w", bid.Amount, sess.CurrentBid, ErrStaleBid)
	}

	teamID := bid.TeamID
	sess.CurrentBid = bid.Amount
	sess.LeadingTeamID = &teamID
	sess.Bids = append(sess.Bids, bid)
	return nil
}

func (s *MemoryStore) CommitSale(_ context.Context, sale model.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate everything first; nothing below the validation block can fail.
	sess, ok := s.sessions[sale.SessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", sale.SessionID, ErrNotFound)
	}
	if !sess.IsActive() {
		return fmt.Errorf("session %s is %s: %w", sale.SessionID, sess.State, ErrSessionClosed)
	}
	if sess.PlayerID != sale.PlayerID || sess.LeadingTeamID == nil ||
		*sess.LeadingTeamID != sale.TeamID || sess.CurrentBid != sale.Price {
		return fmt.Errorf("session %s: %w", sale.SessionID, ErrSaleMismatch)
	}
	player, ok := s.players[sale.PlayerID]
	if !ok {
		return fmt.Errorf("player %s: %w", sale.PlayerID, ErrNotFound)
	}
	if !player.Status.Auctionable() {
		return fmt.Errorf("player %s is %s: %w", player.ID, player.Status, ErrPlayerLocked)
	}
	team, ok := s.teams[sale.TeamID]
	if !ok {
		return fmt.Errorf("team %s: %w", sale.TeamID, ErrNotFound)
	}
	if team.RemainingBudget < sale.Price {
		return fmt.Errorf("team %s has %d, needs %d: %w",
			team.ID, team.RemainingBudget, sale.Price, ErrInsufficientBudget)
	}

	at := sale.At
	price := sale.Price
	teamID := sale.TeamID

	sess.State = model.SessionSold
	sess.FinalPrice = &price
	sess.CompletedAt = &at

	player.Status = model.PlayerSold
	player.SoldPrice = &price
	player.AssignedTeam = &teamID

	team.RemainingBudget -= price

	s.logs = append(s.logs, model.AuctionLog{
		ID:        sale.LogID,
		PlayerID:  sale.PlayerID,
		TeamID:    sale.TeamID,
		SoldPrice: price,
		Timestamp: at,
	})
	return nil
}

func (s *MemoryStore) CommitUnsold(_ context.Context, sessionID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if !sess.IsActive() {
		return fmt.Errorf("session %s is %s: %w", sessionID, sess.State, ErrSessionClosed)
	}
	player, ok := s.players[sess.PlayerID]
	if !ok {
		return fmt.Errorf("player %s: %w", sess.PlayerID, ErrNotFound)
	}

	sess.State = model.SessionUnsold
	sess.CompletedAt = &at
	player.Status = model.PlayerUnsold
	return nil
}

// --- Auction log ---

func (s *MemoryStore) ListAuctionLogs(_ context.Context) ([]model.AuctionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]model.AuctionLog(nil), s.logs...), nil
}

func (s *MemoryStore) ListAuctionLogsByTeam(_ context.Context, teamID string) ([]model.AuctionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.AuctionLog
	for _, l := range s.logs {
		if l.TeamID == teamID {
			result = append(result, l)
		}
	}
	return result, nil
}

// --- helpers (callers hold s.mu) ---

func (s *MemoryStore) openSession() *model.Session {
	for _, sess := range s.sessions {
		if sess.IsActive() {
			return sess
		}
	}
	return nil
}

func (s *MemoryStore) openSessionFor(playerID string) *model.Session {
	if open := s.openSession(); open != nil && open.PlayerID == playerID {
		return open
	}
	return nil
}

func (s *MemoryStore) hasSessionFor(playerID string) bool {
	for _, sess := range s.sessions {
		if sess.PlayerID == playerID {
			return true
		}
	}
	return false
}

// Outbids reports whether amount is an acceptable next bid for sess. Every
// bid, the opening one included, must be strictly higher than the current
// bid; sessions open at the base price.
func Outbids(sess *model.Session, amount money.Amount) bool {
	return amount > sess.CurrentBid
}

func removeID(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func isPermutation(current, order []string) bool {
	if len(current) != len(order) {
		return false
	}
	seen := make(map[string]int, len(current))
	for _, id := range current {
		seen[id]++
	}
	for _, id := range order {
		if seen[id] == 0 {
			return false
		}
		seen[id]--
	}
	return true
}
