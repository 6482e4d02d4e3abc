package leaderboard

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/atmx/auction-engine/internal/money"
)

var csvHeader = []string{
	"timestamp", "player_id", "player", "role", "country",
	"team_id", "team", "sold_price_lakhs", "sold_price",
}

// WriteCSV exports the auction log, one row per sale in log order.
func WriteCSV(w io.Writer, snap Snapshot) error {
	players := make(map[string]int, len(snap.Players))
	for i, p := range snap.Players {
		players[p.ID] = i
	}
	teams := make(map[string]string, len(snap.Teams))
	for _, t := range snap.Teams {
		teams[t.ID] = t.Name
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, l := range snap.Logs {
		var name, role, country string
		if i, ok := players[l.PlayerID]; ok {
			p := snap.Players[i]
			name, role, country = p.Name, string(p.Role), p.Country
		}
		row := []string{
			l.Timestamp.UTC().Format(time.RFC3339),
			l.PlayerID, name, role, country,
			l.TeamID, teams[l.TeamID],
			strconv.FormatInt(int64(l.SoldPrice), 10),
			money.Format(l.SoldPrice),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
