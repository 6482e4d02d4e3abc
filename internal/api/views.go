package api

import (
	"github.com/atmx/auction-engine/internal/model"
	"github.com/atmx/auction-engine/internal/money"
)

// Amounts are integer lakhs; every view adds *_display strings for clients
// that do not format money themselves.

// PlayerView is a player with display prices.
type PlayerView struct {
	model.Player
	BasePriceDisplay string `json:"base_price_display"`
	SoldPriceDisplay string `json:"sold_price_display,omitempty"`
}

func playerView(p model.Player) PlayerView {
	v := PlayerView{Player: p, BasePriceDisplay: money.Format(p.BasePrice)}
	if p.SoldPrice != nil {
		v.SoldPriceDisplay = money.Format(*p.SoldPrice)
	}
	return v
}

func playerViews(ps []model.Player) []PlayerView {
	out := make([]PlayerView, 0, len(ps))
	for _, p := range ps {
		out = append(out, playerView(p))
	}
	return out
}

// TeamView is a team with display budgets.
type TeamView struct {
	model.Team
	BudgetDisplay          string `json:"budget_display"`
	RemainingBudgetDisplay string `json:"remaining_budget_display"`
}

func teamView(t model.Team) TeamView {
	return TeamView{
		Team:                   t,
		BudgetDisplay:          money.Format(t.Budget),
		RemainingBudgetDisplay: money.Format(t.RemainingBudget),
	}
}

// SessionView is an auction session plus bidding hints. MinBid is the lowest
// amount the next bid may carry; Options are the quick-bid menu applied to
// the current bid.
type SessionView struct {
	model.Session
	CurrentBidDisplay string         `json:"current_bid_display"`
	FinalPriceDisplay string         `json:"final_price_display,omitempty"`
	MinBid            money.Amount   `json:"min_bid,omitempty"`
	SuggestedBid      money.Amount   `json:"suggested_bid,omitempty"`
	Options           []money.Amount `json:"options,omitempty"`
}

func (s *Server) sessionView(sess *model.Session) SessionView {
	v := SessionView{Session: *sess, CurrentBidDisplay: money.Format(sess.CurrentBid)}
	if sess.FinalPrice != nil {
		v.FinalPriceDisplay = money.Format(*sess.FinalPrice)
	}
	if sess.IsActive() {
		v.MinBid = sess.CurrentBid + 1
		v.SuggestedBid = s.ladder.Next(sess.CurrentBid)
		v.Options = s.menu.Options(sess.CurrentBid)
	}
	return v
}

// SaleView is a committed sale with its display price.
type SaleView struct {
	model.Sale
	PriceDisplay string `json:"price_display"`
}

// LogView is an auction log entry with its display price.
type LogView struct {
	model.AuctionLog
	SoldPriceDisplay string `json:"sold_price_display"`
}
