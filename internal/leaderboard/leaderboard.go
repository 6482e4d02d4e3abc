// Package leaderboard derives read-only aggregates from players, teams,
// pools and the auction log. Every function is a pure projection over a
// Snapshot: recomputing from the same snapshot yields the same result.
package leaderboard

import (
	"context"
	"sort"

	"github.com/atmx/auction-engine/internal/model"
	"github.com/atmx/auction-engine/internal/money"
	"github.com/atmx/auction-engine/internal/store"
)

// Snapshot is the input to every projection.
type Snapshot struct {
	Players []model.Player
	Teams   []model.Team
	Pools   []model.Pool
	Logs    []model.AuctionLog
}

// Load reads a snapshot from the store.
func Load(ctx context.Context, st store.Store) (Snapshot, error) {
	var snap Snapshot
	var err error
	if snap.Players, err = st.ListPlayers(ctx, store.PlayerFilter{}); err != nil {
		return Snapshot{}, err
	}
	if snap.Teams, err = st.ListTeams(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Pools, err = st.ListPools(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Logs, err = st.ListAuctionLogs(ctx); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Standing is one team's row on the board.
type Standing struct {
	Rank            int                `json:"rank"`
	TeamID          string             `json:"team_id"`
	TeamName        string             `json:"team_name"`
	PlayersBought   int                `json:"players_bought"`
	TotalSpent      money.Amount       `json:"total_spent"`
	Budget          money.Amount       `json:"budget"`
	RemainingBudget money.Amount       `json:"remaining_budget"`
	TotalPoints     int                `json:"total_points"`
	AveragePrice    money.Amount       `json:"average_price"`
	Roles           map[model.Role]int `json:"roles"`
}

// Board is the ranked list of standings.
type Board struct {
	Standings []Standing `json:"standings"`
}

// Compute ranks teams by evaluation points (desc), then money spent (asc,
// better value first), then name.
func Compute(snap Snapshot) Board {
	byTeam := make(map[string]*Standing, len(snap.Teams))
	standings := make([]Standing, len(snap.Teams))
	for i, t := range snap.Teams {
		standings[i] = Standing{
			TeamID:          t.ID,
			TeamName:        t.Name,
			Budget:          t.Budget,
			RemainingBudget: t.RemainingBudget,
			Roles:           make(map[model.Role]int),
		}
		byTeam[t.ID] = &standings[i]
	}

	for _, p := range snap.Players {
		if p.Status != model.PlayerSold || p.AssignedTeam == nil || p.SoldPrice == nil {
			continue
		}
		s, ok := byTeam[*p.AssignedTeam]
		if !ok {
			continue
		}
		s.PlayersBought++
		s.TotalSpent += *p.SoldPrice
		s.TotalPoints += p.EvaluationPoints
		s.Roles[p.Role]++
	}

	for i := range standings {
		if standings[i].PlayersBought > 0 {
			standings[i].AveragePrice = standings[i].TotalSpent / money.Amount(standings[i].PlayersBought)
		}
	}

	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if a.TotalSpent != b.TotalSpent {
			return a.TotalSpent < b.TotalSpent
		}
		return a.TeamName < b.TeamName
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return Board{Standings: standings}
}

// Sale is a log entry joined with names for display.
type Sale struct {
	PlayerID   string       `json:"player_id"`
	PlayerName string       `json:"player_name"`
	TeamID     string       `json:"team_id"`
	TeamName   string       `json:"team_name"`
	Price      money.Amount `json:"price"`
}

// PoolProgress counts a pool's players by outcome.
type PoolProgress struct {
	Pool      string `json:"pool"`
	Total     int    `json:"total"`
	Sold      int    `json:"sold"`
	Unsold    int    `json:"unsold"`
	Remaining int    `json:"remaining"`
}

// Summary is the dashboard headline view.
type Summary struct {
	TotalPlayers int                `json:"total_players"`
	Sold         int                `json:"sold"`
	Unsold       int                `json:"unsold"`
	Available    int                `json:"available"`
	TotalSpent   money.Amount       `json:"total_spent"`
	TotalBudget  money.Amount       `json:"total_budget"`
	HighestSale  *Sale              `json:"highest_sale,omitempty"`
	Pools        []PoolProgress     `json:"pools"`
	SalesByRole  map[model.Role]int `json:"sales_by_role"`
}

// Dashboard summarizes the whole auction.
func Dashboard(snap Snapshot) Summary {
	sum := Summary{
		TotalPlayers: len(snap.Players),
		Pools:        make([]PoolProgress, 0, len(snap.Pools)),
		SalesByRole:  make(map[model.Role]int),
	}
	status := make(map[string]model.PlayerStatus, len(snap.Players))
	names := make(map[string]string, len(snap.Players))
	for _, p := range snap.Players {
		status[p.ID] = p.Status
		names[p.ID] = p.Name
		switch p.Status {
		case model.PlayerSold:
			sum.Sold++
			sum.SalesByRole[p.Role]++
		case model.PlayerUnsold:
			sum.Unsold++
		default:
			sum.Available++
		}
	}

	teamNames := make(map[string]string, len(snap.Teams))
	for _, t := range snap.Teams {
		teamNames[t.ID] = t.Name
		sum.TotalBudget += t.Budget
	}

	for _, l := range snap.Logs {
		sum.TotalSpent += l.SoldPrice
		// Earliest sale wins ties.
		if sum.HighestSale == nil || l.SoldPrice > sum.HighestSale.Price {
			sum.HighestSale = &Sale{
				PlayerID:   l.PlayerID,
				PlayerName: names[l.PlayerID],
				TeamID:     l.TeamID,
				TeamName:   teamNames[l.TeamID],
				Price:      l.SoldPrice,
			}
		}
	}

	for _, pool := range snap.Pools {
		pr := PoolProgress{Pool: pool.Name, Total: len(pool.PlayerIDs)}
		for _, id := range pool.PlayerIDs {
			switch status[id] {
			case model.PlayerSold:
				pr.Sold++
			case model.PlayerUnsold:
				pr.Unsold++
			default:
				pr.Remaining++
			}
		}
		sum.Pools = append(sum.Pools, pr)
	}
	return sum
}

// TeamSquad lists the players a team bought, in purchase order.
func TeamSquad(snap Snapshot, teamID string) []model.Player {
	byID := make(map[string]model.Player, len(snap.Players))
	for _, p := range snap.Players {
		byID[p.ID] = p
	}
	var squad []model.Player
	for _, l := range snap.Logs {
		if l.TeamID != teamID {
			continue
		}
		if p, ok := byID[l.PlayerID]; ok {
			squad = append(squad, p)
		}
	}
	return squad
}
