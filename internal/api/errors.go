package api

import (
	"errors"
	"net/http"

	"github.com/atmx/auction-engine/internal/auction"
	"github.com/atmx/auction-engine/internal/increment"
	"github.com/atmx/auction-engine/internal/money"
	"github.com/atmx/auction-engine/internal/pool"
	"github.com/atmx/auction-engine/internal/roster"
	"github.com/atmx/auction-engine/internal/store"
)

// Error codes carried in the "code" field of error bodies.
const (
	CodeBadRequest        = "bad_request"
	CodeValidation        = "validation"
	CodeNotFound          = "not_found"
	CodeConflict          = "conflict"
	CodeStaleBid          = "stale_bid"
	CodeBudgetExceeded    = "budget_exceeded"
	CodeSquadLimit        = "squad_limit"
	CodeInvalidTransition = "invalid_transition"
	CodeNoActiveSession   = "no_active_session"
	CodeDuplicate         = "duplicate"
	CodeLocked            = "locked"
	CodePoolNotEmpty      = "pool_not_empty"
	CodePoolExhausted     = "pool_exhausted"
	CodeRateLimited       = "rate_limited"
	CodeInternal          = "internal"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message, code string, status int) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// classify maps a domain error to a status and code. Engine errors are
// checked first because some of them wrap store errors.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, auction.ErrConflict):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, auction.ErrStaleBid):
		return http.StatusConflict, CodeStaleBid
	case errors.Is(err, auction.ErrBudgetExceeded):
		return http.StatusUnprocessableEntity, CodeBudgetExceeded
	case errors.Is(err, auction.ErrSquadLimit):
		return http.StatusUnprocessableEntity, CodeSquadLimit
	case errors.Is(err, auction.ErrInvalidTransition):
		return http.StatusConflict, CodeInvalidTransition
	case errors.Is(err, auction.ErrNoActiveSession):
		return http.StatusNotFound, CodeNoActiveSession
	case errors.Is(err, pool.ErrPoolExhausted):
		return http.StatusNotFound, CodePoolExhausted
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict, CodeDuplicate
	case errors.Is(err, store.ErrPoolNotEmpty):
		return http.StatusConflict, CodePoolNotEmpty
	case errors.Is(err, store.ErrPlayerLocked), errors.Is(err, store.ErrTeamLocked):
		return http.StatusConflict, CodeLocked
	case isValidation(err):
		return http.StatusBadRequest, CodeValidation
	}
	return http.StatusInternalServerError, CodeInternal
}

func isValidation(err error) bool {
	var perr *pool.ValidationError
	return roster.IsValidation(err) ||
		errors.As(err, &perr) ||
		errors.Is(err, store.ErrInvalidOrder) ||
		errors.Is(err, increment.ErrNonPositiveIncrement) ||
		errors.Is(err, increment.ErrUnknownIncrement) ||
		errors.Is(err, money.ErrInvalidAmount) ||
		errors.Is(err, money.ErrFractionalAmount)
}

// fail writes err with its mapped status. Internal errors are logged and
// their text withheld from the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
		msg = "internal error"
	} else {
		s.log.Debug("request rejected", "path", r.URL.Path, "code", code, "err", err)
	}
	writeError(w, msg, code, status)
}
