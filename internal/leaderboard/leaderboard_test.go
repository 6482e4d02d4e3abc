package leaderboard

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/atmx/auction-engine/internal/model"
	"github.com/atmx/auction-engine/internal/money"
)

var at = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

func sold(id, name string, role model.Role, team string, price money.Amount, points int) model.Player {
	return model.Player{
		ID:               id,
		Name:             name,
		Role:             role,
		Country:          "India",
		BasePrice:        20,
		EvaluationPoints: points,
		Status:           model.PlayerSold,
		SoldPrice:        &price,
		AssignedTeam:     &team,
	}
}

func sale(id, player, team string, price money.Amount, offset time.Duration) model.AuctionLog {
	return model.AuctionLog{ID: id, PlayerID: player, TeamID: team, SoldPrice: price, Timestamp: at.Add(offset)}
}

// fixture: Chennai and Mumbai tie on points, Mumbai spent less. Delhi bought nothing.
func fixture() Snapshot {
	return Snapshot{
		Players: []model.Player{
			sold("p1", "Kohli", model.RoleBatsman, "csk", 150, 90),
			sold("p2", "Bumrah", model.RoleBowler, "mi", 120, 80),
			sold("p3", "Jadeja", model.RoleAllRounder, "csk", 60, 70),
			sold("p4", "Pant", model.RoleWicketKeeper, "mi", 40, 80),
			{ID: "p5", Name: "Unsold Guy", Role: model.RoleBowler, BasePrice: 20, Status: model.PlayerUnsold},
			{ID: "p6", Name: "Waiting", Role: model.RoleBatsman, BasePrice: 20, Status: model.PlayerPooled},
		},
		Teams: []model.Team{
			{ID: "csk", Name: "Chennai", Budget: 1000, RemainingBudget: 790},
			{ID: "dc", Name: "Delhi", Budget: 1000, RemainingBudget: 1000},
			{ID: "mi", Name: "Mumbai", Budget: 1000, RemainingBudget: 840},
		},
		Pools: []model.Pool{
			{ID: "pa", Name: "Marquee", PlayerIDs: []string{"p1", "p2", "p5"}},
			{ID: "pb", Name: "Capped", PlayerIDs: []string{"p3", "p4", "p6"}},
		},
		Logs: []model.AuctionLog{
			sale("l1", "p1", "csk", 150, 0),
			sale("l2", "p2", "mi", 120, time.Minute),
			sale("l3", "p3", "csk", 60, 2*time.Minute),
			sale("l4", "p4", "mi", 40, 3*time.Minute),
		},
	}
}

func TestCompute_RanksByPointsThenSpend(t *testing.T) {
	board := Compute(fixture())
	if len(board.Standings) != 3 {
		t.Fatalf("expected 3 standings, got %d", len(board.Standings))
	}

	want := []string{"mi", "csk", "dc"}
	for i, id := range want {
		if board.Standings[i].TeamID != id {
			t.Errorf("rank %d: expected %s, got %s", i+1, id, board.Standings[i].TeamID)
		}
		if board.Standings[i].Rank != i+1 {
			t.Errorf("rank field = %d, want %d", board.Standings[i].Rank, i+1)
		}
	}

	mi := board.Standings[0]
	if mi.PlayersBought != 2 || mi.TotalSpent != 160 || mi.TotalPoints != 160 {
		t.Errorf("mumbai: %+v", mi)
	}
	if mi.AveragePrice != 80 {
		t.Errorf("mumbai average = %d, want 80", mi.AveragePrice)
	}
	if mi.Roles[model.RoleBowler] != 1 || mi.Roles[model.RoleWicketKeeper] != 1 {
		t.Errorf("mumbai roles = %v", mi.Roles)
	}

	dc := board.Standings[2]
	if dc.PlayersBought != 0 || dc.AveragePrice != 0 || dc.RemainingBudget != 1000 {
		t.Errorf("delhi: %+v", dc)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	snap := fixture()
	a, b := Compute(snap), Compute(snap)
	for i := range a.Standings {
		if a.Standings[i].TeamID != b.Standings[i].TeamID || a.Standings[i].TotalSpent != b.Standings[i].TotalSpent {
			t.Fatalf("recompute differs at %d: %+v vs %+v", i, a.Standings[i], b.Standings[i])
		}
	}
}

func TestDashboard(t *testing.T) {
	sum := Dashboard(fixture())

	if sum.TotalPlayers != 6 || sum.Sold != 4 || sum.Unsold != 1 || sum.Available != 1 {
		t.Errorf("counts: %+v", sum)
	}
	if sum.TotalSpent != 370 {
		t.Errorf("total spent = %d, want 370", sum.TotalSpent)
	}
	if sum.TotalBudget != 3000 {
		t.Errorf("total budget = %d, want 3000", sum.TotalBudget)
	}
	if sum.HighestSale == nil || sum.HighestSale.PlayerName != "Kohli" || sum.HighestSale.TeamName != "Chennai" {
		t.Errorf("highest sale = %+v", sum.HighestSale)
	}
	if sum.SalesByRole[model.RoleBatsman] != 1 {
		t.Errorf("sales by role = %v", sum.SalesByRole)
	}

	if len(sum.Pools) != 2 {
		t.Fatalf("expected 2 pools, got %d", len(sum.Pools))
	}
	marquee := sum.Pools[0]
	if marquee.Total != 3 || marquee.Sold != 2 || marquee.Unsold != 1 || marquee.Remaining != 0 {
		t.Errorf("marquee progress = %+v", marquee)
	}
	capped := sum.Pools[1]
	if capped.Sold != 2 || capped.Remaining != 1 {
		t.Errorf("capped progress = %+v", capped)
	}
}

func TestDashboard_Empty(t *testing.T) {
	sum := Dashboard(Snapshot{})
	if sum.HighestSale != nil || sum.TotalSpent != 0 || len(sum.Pools) != 0 {
		t.Errorf("empty dashboard = %+v", sum)
	}
}

func TestTeamSquad_PurchaseOrder(t *testing.T) {
	squad := TeamSquad(fixture(), "csk")
	if len(squad) != 2 || squad[0].ID != "p1" || squad[1].ID != "p3" {
		t.Fatalf("squad = %+v", squad)
	}
	if got := TeamSquad(fixture(), "dc"); len(got) != 0 {
		t.Errorf("delhi squad = %+v", got)
	}
}

func TestVerifyLedger_Consistent(t *testing.T) {
	if v := VerifyLedger(fixture()); len(v) != 0 {
		t.Fatalf("expected no violations, got %+v", v)
	}
}

func hasRule(vs []Violation, rule, subject string) bool {
	for _, v := range vs {
		if v.Rule == rule && v.Subject == subject {
			return true
		}
	}
	return false
}

func TestVerifyLedger_DetectsDrift(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Snapshot)
		rule    string
		subject string
	}{
		{
			name:    "remaining drift",
			mutate:  func(s *Snapshot) { s.Teams[0].RemainingBudget = 800 },
			rule:    RuleBudget,
			subject: "csk",
		},
		{
			name: "negative remaining",
			mutate: func(s *Snapshot) {
				s.Teams[1].Budget = -10
				s.Teams[1].RemainingBudget = -10
			},
			rule:    RuleNegative,
			subject: "dc",
		},
		{
			name:    "double sale",
			mutate:  func(s *Snapshot) { s.Logs = append(s.Logs, sale("l5", "p1", "csk", 150, time.Hour)) },
			rule:    RuleOwnership,
			subject: "p1",
		},
		{
			name:    "log price disagrees",
			mutate:  func(s *Snapshot) { s.Logs[1].SoldPrice = 125 },
			rule:    RuleLogAgreement,
			subject: "l2",
		},
		{
			name:    "sold without log",
			mutate:  func(s *Snapshot) { s.Logs = s.Logs[:3] },
			rule:    RuleLogAgreement,
			subject: "p4",
		},
		{
			name:    "sold without team",
			mutate:  func(s *Snapshot) { s.Players[0].AssignedTeam = nil },
			rule:    RuleSoldFields,
			subject: "p1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := fixture()
			tt.mutate(&snap)
			v := VerifyLedger(snap)
			if !hasRule(v, tt.rule, tt.subject) {
				t.Errorf("expected %s violation on %s, got %+v", tt.rule, tt.subject, v)
			}
		})
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, fixture()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected header + 4 rows, got %d", len(rows))
	}
	if rows[0][0] != "timestamp" {
		t.Errorf("header = %v", rows[0])
	}
	first := rows[1]
	if first[2] != "Kohli" || first[6] != "Chennai" || first[7] != "150" {
		t.Errorf("first row = %v", first)
	}
	if first[8] != money.Format(150) {
		t.Errorf("display price = %q, want %q", first[8], money.Format(150))
	}
	if first[0] != "2026-03-01T18:00:00Z" {
		t.Errorf("timestamp = %q", first[0])
	}
}
