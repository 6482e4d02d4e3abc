package store_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/atmx/auction-engine/internal/model"
	"github.com/atmx/auction-engine/internal/store"
)

// fakeRedis answers GET, SET and DEL from a map so CachedStore can be tested
// without a server. Commands never reach a connection.
type fakeRedis struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (f *fakeRedis) DialHook(next redis.DialHook) redis.DialHook { return next }

func (f *fakeRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (f *fakeRedis) ProcessHook(_ redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		args := cmd.Args()
		switch cmd.Name() {
		case "get":
			v, ok := f.data[args[1].(string)]
			if !ok {
				cmd.SetErr(redis.Nil)
				return redis.Nil
			}
			cmd.(*redis.StringCmd).SetVal(string(v))
		case "set":
			f.data[args[1].(string)] = args[2].([]byte)
			cmd.(*redis.StatusCmd).SetVal("OK")
		case "del":
			var n int64
			for _, k := range args[1:] {
				if _, ok := f.data[k.(string)]; ok {
					delete(f.data, k.(string))
					n++
				}
			}
			cmd.(*redis.IntCmd).SetVal(n)
		}
		return nil
	}
}

func (f *fakeRedis) put(t *testing.T, key string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	f.mu.Lock()
	f.data[key] = data
	f.mu.Unlock()
}

func (f *fakeRedis) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

func newCachedStore(t *testing.T) (*store.CachedStore, *store.MemoryStore, *fakeRedis) {
	t.Helper()
	fake := &fakeRedis{data: make(map[string][]byte)}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	rdb.AddHook(fake)
	t.Cleanup(func() { rdb.Close() })
	ms := store.NewMemoryStore()
	return store.NewCachedStore(ms, rdb, 0), ms, fake
}

func TestCachedStore_GetTeamReadsPrimary(t *testing.T) {
	cs, ms, fake := newCachedStore(t)
	ctx := context.Background()
	seedTeam(t, ms, "a", 100)
	seedPlayer(t, ms, "p1", 20)

	// A stale copy left behind by an earlier read must not be served.
	fake.put(t, "auction:team:a", model.Team{ID: "a", Budget: 100, RemainingBudget: 100})
	openWithLeader(t, ms, "s1", "p1", "a", 60)
	if err := cs.CommitSale(ctx, model.Sale{SessionID: "s1", PlayerID: "p1", TeamID: "a", Price: 60, LogID: "l1", At: t0}); err != nil {
		t.Fatal(err)
	}

	team, err := cs.GetTeam(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if team.RemainingBudget != 40 {
		t.Errorf("remaining = %d, want 40 from primary", team.RemainingBudget)
	}
}

func TestCachedStore_CommitSaleInvalidatesViews(t *testing.T) {
	cs, ms, fake := newCachedStore(t)
	ctx := context.Background()
	seedTeam(t, ms, "a", 100)
	seedPlayer(t, ms, "p1", 20)

	if _, err := cs.ListTeams(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := cs.GetPlayer(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if !fake.has("auction:teams") || !fake.has("auction:player:p1") {
		t.Fatal("expected team list and player to be cached")
	}

	openWithLeader(t, ms, "s1", "p1", "a", 30)
	if err := cs.CommitSale(ctx, model.Sale{SessionID: "s1", PlayerID: "p1", TeamID: "a", Price: 30, LogID: "l1", At: t0}); err != nil {
		t.Fatal(err)
	}
	if fake.has("auction:teams") || fake.has("auction:player:p1") {
		t.Error("sale left stale cache entries")
	}

	p, err := cs.GetPlayer(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != model.PlayerSold {
		t.Errorf("status = %s, want Sold", p.Status)
	}
}

func TestCachedStore_ServesCachedPlayer(t *testing.T) {
	cs, ms, fake := newCachedStore(t)
	seedPlayer(t, ms, "p1", 20)
	fake.put(t, "auction:player:p1", model.Player{ID: "p1", Name: "Cached"})

	p, err := cs.GetPlayer(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Cached" {
		t.Errorf("name = %q, want cached copy", p.Name)
	}
}
