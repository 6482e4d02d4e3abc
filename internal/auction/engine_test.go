package auction_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/atmx/auction-engine/internal/auction"
	"github.com/atmx/auction-engine/internal/model"
	"github.com/atmx/auction-engine/internal/money"
	"github.com/atmx/auction-engine/internal/squad"
	"github.com/atmx/auction-engine/internal/store"
)

var epoch = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

// recorder collects emitted events.
type recorder struct {
	mu     sync.Mutex
	events []auction.Event
}

func (r *recorder) Notify(_ context.Context, ev auction.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []auction.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]auction.EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

type testEnv struct {
	engine *auction.Engine
	store  *store.MemoryStore
	clock  *clockwork.FakeClock
	events *recorder
}

func newTestEnv(t *testing.T, opts ...auction.Option) *testEnv {
	t.Helper()
	ms := store.NewMemoryStore()
	clock := clockwork.NewFakeClockAt(epoch)
	rec := &recorder{}
	all := append([]auction.Option{
		auction.WithClock(clock),
		auction.WithNotifier(rec),
	}, opts...)
	return &testEnv{
		engine: auction.NewEngine(ms, all...),
		store:  ms,
		clock:  clock,
		events: rec,
	}
}

func (env *testEnv) seedPlayer(t *testing.T, id string, base money.Amount, country string) {
	t.Helper()
	p := &model.Player{
		ID:        id,
		Name:      "Player " + id,
		Role:      model.RoleAllRounder,
		Country:   country,
		BasePrice: base,
		Status:    model.PlayerAvailable,
		CreatedAt: epoch,
	}
	if err := env.store.CreatePlayer(context.Background(), p); err != nil {
		t.Fatalf("seed player: %v", err)
	}
}

func (env *testEnv) seedTeam(t *testing.T, id string, budget money.Amount) {
	t.Helper()
	team := &model.Team{ID: id, Name: "Team " + id, Budget: budget, RemainingBudget: budget, CreatedAt: epoch}
	if err := env.store.CreateTeam(context.Background(), team); err != nil {
		t.Fatalf("seed team: %v", err)
	}
}

func (env *testEnv) team(t *testing.T, id string) *model.Team {
	t.Helper()
	team, err := env.store.GetTeam(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	return team
}

func (env *testEnv) player(t *testing.T, id string) *model.Player {
	t.Helper()
	p, err := env.store.GetPlayer(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// assertBudgetInvariant checks remaining == budget - sum(sold prices) for
// every team.
func (env *testEnv) assertBudgetInvariant(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	teams, _ := env.store.ListTeams(ctx)
	players, _ := env.store.ListPlayers(ctx, store.PlayerFilter{Status: model.PlayerSold})
	spent := make(map[string]money.Amount)
	for _, p := range players {
		spent[*p.AssignedTeam] += *p.SoldPrice
	}
	for _, team := range teams {
		if team.RemainingBudget != team.Budget-spent[team.ID] {
			t.Errorf("team %s: remaining %d != budget %d - spent %d",
				team.ID, team.RemainingBudget, team.Budget, spent[team.ID])
		}
		if team.RemainingBudget < 0 {
			t.Errorf("team %s has negative budget %d", team.ID, team.RemainingBudget)
		}
	}
}

// --- Scenarios ---

func TestScenario_BiddingWarAndSale(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedTeam(t, "A", 100)
	env.seedTeam(t, "B", 100)
	env.seedPlayer(t, "P", 20, "India")

	sess, err := env.engine.Start(ctx, "P")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if sess.CurrentBid != 20 || sess.LeadingTeamID != nil {
		t.Fatalf("expected fresh session at base 20, got %+v", sess)
	}

	sess, err = env.engine.Bid(ctx, sess.ID, "A", 30)
	if err != nil {
		t.Fatalf("bid A 30: %v", err)
	}
	if sess.CurrentBid != 30 || *sess.LeadingTeamID != "A" {
		t.Errorf("expected A leading at 30, got %+v", sess)
	}

	_, err = env.engine.Bid(ctx, sess.ID, "B", 25)
	var stale *auction.StaleBidError
	if !errors.As(err, &stale) {
		t.Fatalf("bid B 25: expected StaleBidError, got %v", err)
	}
	if stale.Current != 30 {
		t.Errorf("stale error should report current 30, got %d", stale.Current)
	}

	if _, err := env.engine.Bid(ctx, sess.ID, "B", 40); err != nil {
		t.Fatalf("bid B 40: %v", err)
	}

	env.clock.Advance(time.Minute)
	sale, err := env.engine.Finalize(ctx, sess.ID)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if sale.TeamID != "B" || sale.Price != 40 || !sale.At.Equal(epoch.Add(time.Minute)) {
		t.Errorf("unexpected sale %+v", sale)
	}

	p := env.player(t, "P")
	if p.Status != model.PlayerSold || *p.SoldPrice != 40 || *p.AssignedTeam != "B" {
		t.Errorf("player not sold to B at 40: %+v", p)
	}
	if got := env.team(t, "B").RemainingBudget; got != 60 {
		t.Errorf("B remaining: expected 60, got %d", got)
	}
	if got := env.team(t, "A").RemainingBudget; got != 100 {
		t.Errorf("A remaining: expected 100, got %d", got)
	}
	logs, _ := env.store.ListAuctionLogs(ctx)
	if len(logs) != 1 || logs[0].TeamID != "B" || logs[0].SoldPrice != 40 {
		t.Errorf("expected one log entry for B at 40, got %+v", logs)
	}

	want := []auction.EventType{auction.EventStarted, auction.EventBid, auction.EventBid, auction.EventSold}
	got := env.events.types()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("events: got %v, want %v", got, want)
	}
	env.assertBudgetInvariant(t)
}

func TestScenario_BidOverBudget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedTeam(t, "C", 50)
	env.seedPlayer(t, "Q", 20, "India")

	sess, err := env.engine.Start(ctx, "Q")
	if err != nil {
		t.Fatal(err)
	}

	_, err = env.engine.Bid(ctx, sess.ID, "C", 60)
	var budget *auction.BudgetExceededError
	if !errors.As(err, &budget) {
		t.Fatalf("expected BudgetExceededError, got %v", err)
	}
	if !errors.Is(err, auction.ErrBudgetExceeded) {
		t.Error("BudgetExceededError should match ErrBudgetExceeded")
	}

	cur, err := env.engine.Current(ctx)
	if err != nil {
		t.Fatalf("session should remain open: %v", err)
	}
	if cur.CurrentBid != 20 || cur.LeadingTeamID != nil {
		t.Errorf("session changed after rejected bid: %+v", cur)
	}
}

func TestScenario_UnsoldThenReauction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedTeam(t, "A", 100)
	env.seedPlayer(t, "R", 20, "India")

	sess, err := env.engine.Start(ctx, "R")
	if err != nil {
		t.Fatal(err)
	}
	closed, err := env.engine.MarkUnsold(ctx, sess.ID)
	if err != nil {
		t.Fatalf("mark unsold: %v", err)
	}
	if closed.State != model.SessionUnsold || closed.CompletedAt == nil {
		t.Errorf("expected Unsold with completion time, got %+v", closed)
	}

	if p := env.player(t, "R"); p.Status != model.PlayerUnsold {
		t.Errorf("expected player Unsold, got %s", p.Status)
	}
	if got := env.team(t, "A").RemainingBudget; got != 100 {
		t.Errorf("unsold must not touch budgets, got %d", got)
	}
	if logs, _ := env.store.ListAuctionLogs(ctx); len(logs) != 0 {
		t.Errorf("unsold must not write logs, got %d", len(logs))
	}
	if _, err := env.engine.Current(ctx); !errors.Is(err, auction.ErrNoActiveSession) {
		t.Errorf("expected ErrNoActiveSession after unsold, got %v", err)
	}

	again, err := env.engine.Start(ctx, "R")
	if err != nil {
		t.Fatalf("re-auction: %v", err)
	}
	if again.ID == sess.ID {
		t.Error("re-auction should open a new session")
	}
}

func TestScenario_StartWhileAnotherOpen(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedPlayer(t, "S", 20, "India")
	env.seedPlayer(t, "T", 20, "India")

	open, err := env.engine.Start(ctx, "T")
	if err != nil {
		t.Fatal(err)
	}

	_, err = env.engine.Start(ctx, "S")
	var conflict *auction.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.OpenSessionID != open.ID || conflict.OpenPlayerID != "T" {
		t.Errorf("conflict should name the open session, got %+v", conflict)
	}
	if p := env.player(t, "S"); p.Status != model.PlayerAvailable {
		t.Errorf("S should be untouched, got %s", p.Status)
	}
}

// --- Transitions ---

func TestStart_SoldPlayerRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedTeam(t, "A", 100)
	env.seedPlayer(t, "P", 20, "India")

	sess, _ := env.engine.Start(ctx, "P")
	env.engine.Bid(ctx, sess.ID, "A", 25)
	if _, err := env.engine.Finalize(ctx, sess.ID); err != nil {
		t.Fatal(err)
	}

	_, err := env.engine.Start(ctx, "P")
	if !errors.Is(err, auction.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition for sold player, got %v", err)
	}
}

func TestStart_UnknownPlayer(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.engine.Start(context.Background(), "ghost")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected store.ErrNotFound, got %v", err)
	}
}

func TestBid_TieWithCurrentBidIsStale(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedTeam(t, "A", 100)
	env.seedTeam(t, "B", 100)
	env.seedPlayer(t, "P", 20, "India")
	sess, _ := env.engine.Start(ctx, "P")

	for _, amount := range []money.Amount{19, 20} {
		_, err := env.engine.Bid(ctx, sess.ID, "A", amount)
		var stale *auction.StaleBidError
		if !errors.As(err, &stale) {
			t.Fatalf("bid %d on base 20: expected StaleBidError, got %v", amount, err)
		}
		if stale.Current != 20 {
			t.Errorf("stale.Current = %d, want 20", stale.Current)
		}
	}
	if _, err := env.engine.Bid(ctx, sess.ID, "A", 21); err != nil {
		t.Fatalf("opening bid above base: %v", err)
	}
	if _, err := env.engine.Bid(ctx, sess.ID, "B", 21); !errors.Is(err, auction.ErrStaleBid) {
		t.Errorf("tie with leader: expected ErrStaleBid, got %v", err)
	}

	cur, _ := env.engine.Current(ctx)
	if cur.CurrentBid != 21 || *cur.LeadingTeamID != "A" {
		t.Errorf("session = bid %d leader %s, want 21 A", cur.CurrentBid, *cur.LeadingTeamID)
	}
}

func TestBid_LeaderMayRaiseOwnBid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedTeam(t, "A", 100)
	env.seedPlayer(t, "P", 20, "India")
	sess, _ := env.engine.Start(ctx, "P")
	if _, err := env.engine.Bid(ctx, sess.ID, "A", 30); err != nil {
		t.Fatal(err)
	}

	got, err := env.engine.Bid(ctx, sess.ID, "A", 40)
	if err != nil {
		t.Fatalf("leader raising its own bid: %v", err)
	}
	if got.CurrentBid != 40 || *got.LeadingTeamID != "A" || len(got.Bids) != 2 {
		t.Errorf("session = %+v", got)
	}
	if _, err := env.engine.Bid(ctx, sess.ID, "A", 40); !errors.Is(err, auction.ErrStaleBid) {
		t.Errorf("leader tie: expected ErrStaleBid, got %v", err)
	}
}

func TestBid_ClosedSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedTeam(t, "A", 100)
	env.seedPlayer(t, "P", 20, "India")
	sess, _ := env.engine.Start(ctx, "P")
	env.engine.MarkUnsold(ctx, sess.ID)

	_, err := env.engine.Bid(ctx, sess.ID, "A", 30)
	var invalid *auction.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if invalid.State != model.SessionUnsold {
		t.Errorf("expected state Unsold in error, got %s", invalid.State)
	}
}

func TestFinalize_NoLeader(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedPlayer(t, "P", 20, "India")
	sess, _ := env.engine.Start(ctx, "P")

	_, err := env.engine.Finalize(ctx, sess.ID)
	if !errors.Is(err, auction.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := env.engine.Current(ctx); err != nil {
		t.Errorf("session should stay open: %v", err)
	}
}

func TestFinalize_Twice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedTeam(t, "A", 100)
	env.seedPlayer(t, "P", 20, "India")
	sess, _ := env.engine.Start(ctx, "P")
	env.engine.Bid(ctx, sess.ID, "A", 50)

	if _, err := env.engine.Finalize(ctx, sess.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.engine.Finalize(ctx, sess.ID); !errors.Is(err, auction.ErrInvalidTransition) {
		t.Errorf("second finalize: expected ErrInvalidTransition, got %v", err)
	}
	if got := env.team(t, "A").RemainingBudget; got != 50 {
		t.Errorf("budget deducted twice? remaining %d", got)
	}
	env.assertBudgetInvariant(t)
}

func TestBudget_ShrinksAcrossSales(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedTeam(t, "A", 100)
	env.seedPlayer(t, "P1", 20, "India")
	env.seedPlayer(t, "P2", 20, "India")

	// A wins P1 at 70, leaving 30.
	s1, _ := env.engine.Start(ctx, "P1")
	env.engine.Bid(ctx, s1.ID, "A", 70)
	if _, err := env.engine.Finalize(ctx, s1.ID); err != nil {
		t.Fatal(err)
	}

	s2, _ := env.engine.Start(ctx, "P2")
	if _, err := env.engine.Bid(ctx, s2.ID, "A", 40); !errors.Is(err, auction.ErrBudgetExceeded) {
		t.Errorf("expected ErrBudgetExceeded, got %v", err)
	}
	if _, err := env.engine.Bid(ctx, s2.ID, "A", 30); err != nil {
		t.Errorf("bid of exactly the remaining budget should pass: %v", err)
	}
	if _, err := env.engine.Finalize(ctx, s2.ID); err != nil {
		t.Fatal(err)
	}
	if got := env.team(t, "A").RemainingBudget; got != 0 {
		t.Errorf("expected remaining 0, got %d", got)
	}
	env.assertBudgetInvariant(t)
}

// spentElsewhere simulates another writer draining the team between the
// engine's check and the commit.
type spentElsewhere struct {
	*store.MemoryStore
}

func (s spentElsewhere) CommitSale(context.Context, model.Sale) error {
	return fmt.Errorf("team drained: %w", store.ErrInsufficientBudget)
}

func TestFinalize_CommitBudgetFailureKeepsSessionOpen(t *testing.T) {
	ms := store.NewMemoryStore()
	engine := auction.NewEngine(spentElsewhere{ms}, auction.WithClock(clockwork.NewFakeClockAt(epoch)))
	ctx := context.Background()
	ms.CreateTeam(ctx, &model.Team{ID: "A", Name: "A", Budget: 100, RemainingBudget: 100})
	ms.CreatePlayer(ctx, &model.Player{ID: "P", Name: "P", Role: model.RoleBowler, BasePrice: 20, Status: model.PlayerAvailable})

	sess, err := engine.Start(ctx, "P")
	if err != nil {
		t.Fatal(err)
	}
	engine.Bid(ctx, sess.ID, "A", 60)

	_, err = engine.Finalize(ctx, sess.ID)
	var budget *auction.BudgetExceededError
	if !errors.As(err, &budget) {
		t.Fatalf("expected BudgetExceededError, got %v", err)
	}
	if budget.Required != 60 {
		t.Errorf("expected required 60, got %d", budget.Required)
	}

	cur, err := engine.Current(ctx)
	if err != nil || cur.ID != sess.ID {
		t.Fatalf("session should stay open for re-bid: %v", err)
	}
	if p, _ := ms.GetPlayer(ctx, "P"); p.Status == model.PlayerSold {
		t.Error("player must not be sold")
	}
}

// --- Squad limits ---

func TestSquadLimits(t *testing.T) {
	env := newTestEnv(t, auction.WithSquadLimiter(squad.NewLimiter(2, 1, "India")))
	ctx := context.Background()
	env.seedTeam(t, "A", 1000)
	env.seedPlayer(t, "O1", 20, "Australia")
	env.seedPlayer(t, "O2", 20, "England")
	env.seedPlayer(t, "D1", 20, "India")
	env.seedPlayer(t, "D2", 20, "India")

	buy := func(playerID string) error {
		sess, err := env.engine.Start(ctx, playerID)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := env.engine.Bid(ctx, sess.ID, "A", 25); err != nil {
			env.engine.MarkUnsold(ctx, sess.ID)
			return err
		}
		_, err = env.engine.Finalize(ctx, sess.ID)
		return err
	}

	if err := buy("O1"); err != nil {
		t.Fatalf("first overseas: %v", err)
	}
	err := buy("O2")
	if !errors.Is(err, auction.ErrSquadLimit) || !errors.Is(err, squad.ErrOverseasLimit) {
		t.Errorf("second overseas: expected overseas squad limit, got %v", err)
	}
	if err := buy("D1"); err != nil {
		t.Fatalf("domestic: %v", err)
	}
	if err := buy("D2"); !errors.Is(err, squad.ErrSquadFull) {
		t.Errorf("third player: expected ErrSquadFull, got %v", err)
	}
}

// --- Recovery ---

func TestRecover_ResumesOpenSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedTeam(t, "A", 100)
	env.seedPlayer(t, "P", 20, "India")
	sess, _ := env.engine.Start(ctx, "P")
	env.engine.Bid(ctx, sess.ID, "A", 35)

	// A fresh engine over the same store picks the session up.
	restarted := auction.NewEngine(env.store, auction.WithClock(env.clock))
	if _, err := restarted.Current(ctx); !errors.Is(err, auction.ErrNoActiveSession) {
		t.Fatalf("before recover: expected ErrNoActiveSession, got %v", err)
	}
	if err := restarted.Recover(ctx); err != nil {
		t.Fatalf("recover: %v", err)
	}
	cur, err := restarted.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if cur.ID != sess.ID || cur.CurrentBid != 35 || len(cur.Bids) != 1 {
		t.Errorf("recovered wrong session state: %+v", cur)
	}
	if _, err := restarted.Finalize(ctx, sess.ID); err != nil {
		t.Errorf("finalize after recover: %v", err)
	}
}

func TestRecover_Idle(t *testing.T) {
	env := newTestEnv(t)
	if err := env.engine.Recover(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := env.engine.Current(context.Background()); !errors.Is(err, auction.ErrNoActiveSession) {
		t.Errorf("expected ErrNoActiveSession, got %v", err)
	}
}

// --- Notifier failures ---

func TestNotifierFailureDoesNotRollBack(t *testing.T) {
	failing := auction.NotifierFunc(func(context.Context, auction.Event) error {
		return errors.New("sink down")
	})
	env := newTestEnv(t)
	engine := auction.NewEngine(env.store, auction.WithClock(env.clock), auction.WithNotifier(failing))
	ctx := context.Background()
	env.seedTeam(t, "A", 100)
	env.seedPlayer(t, "P", 20, "India")

	sess, err := engine.Start(ctx, "P")
	if err != nil {
		t.Fatal(err)
	}
	engine.Bid(ctx, sess.ID, "A", 25)
	if _, err := engine.Finalize(ctx, sess.ID); err != nil {
		t.Fatalf("finalize should succeed despite notifier errors: %v", err)
	}
	if p := env.player(t, "P"); p.Status != model.PlayerSold {
		t.Errorf("expected Sold, got %s", p.Status)
	}
}

// --- Concurrency ---

func TestConcurrentBids_Serialize(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	const teams = 10
	for i := 0; i < teams; i++ {
		env.seedTeam(t, fmt.Sprintf("T%d", i), 10_000)
	}
	env.seedPlayer(t, "P", 20, "India")
	sess, _ := env.engine.Start(ctx, "P")

	var wg sync.WaitGroup
	var mu sync.Mutex
	highest := money.Amount(0)
	for i := 0; i < teams; i++ {
		for j := 1; j <= 20; j++ {
			wg.Add(1)
			go func(team string, amount money.Amount) {
				defer wg.Done()
				if _, err := env.engine.Bid(ctx, sess.ID, team, amount); err == nil {
					mu.Lock()
					if amount > highest {
						highest = amount
					}
					mu.Unlock()
				} else if !errors.Is(err, auction.ErrStaleBid) {
					t.Errorf("unexpected bid error: %v", err)
				}
			}(fmt.Sprintf("T%d", i), money.Amount(20+j*10+i))
		}
	}
	wg.Wait()

	cur, err := env.engine.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if cur.CurrentBid != highest {
		t.Errorf("current bid %d != highest accepted %d", cur.CurrentBid, highest)
	}
	for i := 1; i < len(cur.Bids); i++ {
		if cur.Bids[i].Amount <= cur.Bids[i-1].Amount {
			t.Fatalf("accepted bids not strictly increasing at %d: %d then %d",
				i, cur.Bids[i-1].Amount, cur.Bids[i].Amount)
		}
	}
}

func TestConcurrentFinalizeAndUnsold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedTeam(t, "A", 100)
	env.seedPlayer(t, "P", 20, "India")
	sess, _ := env.engine.Start(ctx, "P")
	env.engine.Bid(ctx, sess.ID, "A", 50)

	var wg sync.WaitGroup
	results := make(chan error, 20)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := env.engine.Finalize(ctx, sess.ID)
			results <- err
		}()
		go func() {
			defer wg.Done()
			_, err := env.engine.MarkUnsold(ctx, sess.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, auction.ErrInvalidTransition) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("exactly one terminal transition must win, got %d", succeeded)
	}

	// Either outcome is fine; the ledgers must agree with it.
	p := env.player(t, "P")
	logs, _ := env.store.ListAuctionLogs(ctx)
	switch p.Status {
	case model.PlayerSold:
		if len(logs) != 1 || env.team(t, "A").RemainingBudget != 50 {
			t.Errorf("sold but ledgers disagree: logs=%d remaining=%d", len(logs), env.team(t, "A").RemainingBudget)
		}
	case model.PlayerUnsold:
		if len(logs) != 0 || env.team(t, "A").RemainingBudget != 100 {
			t.Errorf("unsold but ledgers changed: logs=%d remaining=%d", len(logs), env.team(t, "A").RemainingBudget)
		}
	default:
		t.Errorf("unexpected player status %s", p.Status)
	}
	env.assertBudgetInvariant(t)
}

func TestFanout(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	failing := auction.NotifierFunc(func(context.Context, auction.Event) error { return errors.New("boom") })
	f := auction.Fanout{a, nil, failing, b}

	err := f.Notify(context.Background(), auction.Event{Type: auction.EventBid})
	if err == nil {
		t.Error("expected joined error from failing notifier")
	}
	if len(a.types()) != 1 || len(b.types()) != 1 {
		t.Error("every healthy notifier should receive the event")
	}
}
