package api

import (
	"net/http"

	"github.com/atmx/auction-engine/internal/leaderboard"
	"github.com/atmx/auction-engine/internal/model"
	"github.com/atmx/auction-engine/internal/money"
)

// AuditResponse reports ledger consistency.
type AuditResponse struct {
	Consistent bool                    `json:"consistent"`
	Violations []leaderboard.Violation `json:"violations"`
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (leaderboard.Snapshot, bool) {
	snap, err := leaderboard.Load(r.Context(), s.store)
	if err != nil {
		s.fail(w, r, err)
		return leaderboard.Snapshot{}, false
	}
	return snap, true
}

// Leaderboard handles GET /api/v1/leaderboard
func (s *Server) Leaderboard(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, leaderboard.Compute(snap))
}

// Dashboard handles GET /api/v1/dashboard
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, leaderboard.Dashboard(snap))
}

// ListLogs handles GET /api/v1/logs
// Optional ?team=<id> narrows to one team's purchases.
func (s *Server) ListLogs(w http.ResponseWriter, r *http.Request) {
	var (
		logs []model.AuctionLog
		err  error
	)
	if team := r.URL.Query().Get("team"); team != "" {
		logs, err = s.store.ListAuctionLogsByTeam(r.Context(), team)
	} else {
		logs, err = s.store.ListAuctionLogs(r.Context())
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]LogView, 0, len(logs))
	for _, l := range logs {
		out = append(out, LogView{AuctionLog: l, SoldPriceDisplay: money.Format(l.SoldPrice)})
	}
	writeJSON(w, http.StatusOK, out)
}

// ExportLogs handles GET /api/v1/logs/export
func (s *Server) ExportLogs(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="auction-log.csv"`)
	if err := leaderboard.WriteCSV(w, snap); err != nil {
		// Headers are already sent.
		s.log.Error("csv export failed", "err", err)
	}
}

// Audit handles GET /api/v1/audit
func (s *Server) Audit(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	v := leaderboard.VerifyLedger(snap)
	if v == nil {
		v = []leaderboard.Violation{}
	}
	if len(v) > 0 {
		s.log.Error("ledger audit found violations", "count", len(v))
	}
	writeJSON(w, http.StatusOK, AuditResponse{Consistent: len(v) == 0, Violations: v})
}
