package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atmx/auction-engine/internal/metrics"
	"github.com/atmx/auction-engine/internal/money"
)

// StartRequest is the body of POST /auction/start.
type StartRequest struct {
	PlayerID string `json:"player_id"`
}

// BidRequest is the body of POST /auction/{sessionID}/bid. Exactly one of
// Amount or Step is set: Amount is an absolute bid, Step is a quick-bid
// increment applied to the current bid.
type BidRequest struct {
	TeamID string       `json:"team_id"`
	Amount money.Amount `json:"amount,omitempty"`
	Step   money.Amount `json:"step,omitempty"`
}

// CurrentAuction handles GET /api/v1/auction/current
func (s *Server) CurrentAuction(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.Current(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(sess))
}

// StartAuction handles POST /api/v1/auction/start
func (s *Server) StartAuction(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := decode(r, &req); err != nil {
		writeError(w, "invalid request body", CodeBadRequest, http.StatusBadRequest)
		return
	}
	if req.PlayerID == "" {
		writeError(w, "player_id is required", CodeValidation, http.StatusBadRequest)
		return
	}

	sess, err := s.engine.Start(r.Context(), req.PlayerID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.sessionView(sess))
}

// PlaceBid handles POST /api/v1/auction/{sessionID}/bid
func (s *Server) PlaceBid(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req BidRequest
	if err := decode(r, &req); err != nil {
		writeError(w, "invalid request body", CodeBadRequest, http.StatusBadRequest)
		return
	}
	if req.TeamID == "" {
		writeError(w, "team_id is required", CodeValidation, http.StatusBadRequest)
		return
	}
	if (req.Amount > 0) == (req.Step > 0) {
		writeError(w, "exactly one of amount or step must be positive", CodeValidation, http.StatusBadRequest)
		return
	}

	if s.throttle != nil && !s.throttle.Allow(req.TeamID) {
		metrics.BidsTotal.WithLabelValues("throttled").Inc()
		w.Header().Set("Retry-After", "1")
		writeError(w, "too many bids from team "+req.TeamID, CodeRateLimited, http.StatusTooManyRequests)
		return
	}

	amount := req.Amount
	if req.Step > 0 {
		sess, err := s.store.GetSession(r.Context(), sessionID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		// A step resolved against a stale read is still checked by the
		// engine and rejected as stale.
		amount, err = s.menu.Apply(sess.CurrentBid, req.Step)
		if err != nil {
			s.fail(w, r, err)
			return
		}
	}

	sess, err := s.engine.Bid(r.Context(), sessionID, req.TeamID, amount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(sess))
}

// FinalizeAuction handles POST /api/v1/auction/{sessionID}/sold
func (s *Server) FinalizeAuction(w http.ResponseWriter, r *http.Request) {
	sale, err := s.engine.Finalize(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SaleView{Sale: *sale, PriceDisplay: money.Format(sale.Price)})
}

// MarkUnsold handles POST /api/v1/auction/{sessionID}/unsold
func (s *Server) MarkUnsold(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.MarkUnsold(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(sess))
}
