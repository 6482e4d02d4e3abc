package leaderboard

import (
	"fmt"

	"github.com/atmx/auction-engine/internal/model"
	"github.com/atmx/auction-engine/internal/money"
)

// Violation is one broken ledger rule.
type Violation struct {
	Rule    string `json:"rule"`
	Subject string `json:"subject"`
	Detail  string `json:"detail"`
}

const (
	RuleBudget       = "budget"
	RuleNegative     = "non_negative_budget"
	RuleOwnership    = "single_ownership"
	RuleLogAgreement = "log_agreement"
	RuleSoldFields   = "sold_fields"
)

// VerifyLedger checks the cross-entity invariants:
//   - remaining == budget - sum(sold price) for every team
//   - no team below zero
//   - every player appears in the log at most once
//   - every Sold player has a matching log entry and vice versa
//
// An empty result means the ledger is consistent.
func VerifyLedger(snap Snapshot) []Violation {
	var out []Violation

	spent := make(map[string]money.Amount)
	players := make(map[string]*model.Player, len(snap.Players))
	for i := range snap.Players {
		p := &snap.Players[i]
		players[p.ID] = p
		if p.Status != model.PlayerSold {
			continue
		}
		if p.SoldPrice == nil || p.AssignedTeam == nil {
			out = append(out, Violation{Rule: RuleSoldFields, Subject: p.ID, Detail: "sold player without price or team"})
			continue
		}
		spent[*p.AssignedTeam] += *p.SoldPrice
	}

	for _, t := range snap.Teams {
		if want := t.Budget - spent[t.ID]; t.RemainingBudget != want {
			out = append(out, Violation{
				Rule:    RuleBudget,
				Subject: t.ID,
				Detail:  fmt.Sprintf("remaining %d, expected %d (budget %d, spent %d)", t.RemainingBudget, want, t.Budget, spent[t.ID]),
			})
		}
		if t.RemainingBudget < 0 {
			out = append(out, Violation{Rule: RuleNegative, Subject: t.ID, Detail: fmt.Sprintf("remaining %d", t.RemainingBudget)})
		}
	}

	logged := make(map[string]int, len(snap.Logs))
	for _, l := range snap.Logs {
		logged[l.PlayerID]++
		if logged[l.PlayerID] == 2 {
			out = append(out, Violation{Rule: RuleOwnership, Subject: l.PlayerID, Detail: "player sold more than once"})
		}
		p, ok := players[l.PlayerID]
		switch {
		case !ok:
			out = append(out, Violation{Rule: RuleLogAgreement, Subject: l.ID, Detail: "log references unknown player " + l.PlayerID})
		case p.Status != model.PlayerSold || p.AssignedTeam == nil || *p.AssignedTeam != l.TeamID ||
			p.SoldPrice == nil || *p.SoldPrice != l.SoldPrice:
			out = append(out, Violation{Rule: RuleLogAgreement, Subject: l.ID, Detail: "log entry disagrees with player " + l.PlayerID})
		}
	}
	for id, p := range players {
		if p.Status == model.PlayerSold && logged[id] == 0 {
			out = append(out, Violation{Rule: RuleLogAgreement, Subject: id, Detail: "sold player missing from the auction log"})
		}
	}
	return out
}
