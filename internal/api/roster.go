package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atmx/auction-engine/internal/leaderboard"
	"github.com/atmx/auction-engine/internal/model"
	"github.com/atmx/auction-engine/internal/money"
	"github.com/atmx/auction-engine/internal/roster"
	"github.com/atmx/auction-engine/internal/store"
)

// PlayerPatch is the body of PATCH /players/{id}. Nil fields keep their
// current value.
type PlayerPatch struct {
	Name             *string       `json:"name"`
	Role             *model.Role   `json:"role"`
	Country          *string       `json:"country"`
	BasePrice        *money.Amount `json:"base_price"`
	Age              *int          `json:"age"`
	EvaluationPoints *int          `json:"evaluation_points"`
	Bio              *string       `json:"bio"`
	PerformanceStats *string       `json:"performance_stats"`
}

func (p PlayerPatch) apply(cur *model.Player) roster.PlayerInput {
	in := roster.PlayerInput{
		Name:             cur.Name,
		Role:             cur.Role,
		Country:          cur.Country,
		BasePrice:        cur.BasePrice,
		Age:              cur.Age,
		EvaluationPoints: cur.EvaluationPoints,
		Bio:              cur.Bio,
		PerformanceStats: cur.PerformanceStats,
	}
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.Role != nil {
		in.Role = *p.Role
	}
	if p.Country != nil {
		in.Country = *p.Country
	}
	if p.BasePrice != nil {
		in.BasePrice = *p.BasePrice
	}
	if p.Age != nil {
		in.Age = *p.Age
	}
	if p.EvaluationPoints != nil {
		in.EvaluationPoints = *p.EvaluationPoints
	}
	if p.Bio != nil {
		in.Bio = *p.Bio
	}
	if p.PerformanceStats != nil {
		in.PerformanceStats = *p.PerformanceStats
	}
	return in
}

// TeamPatch is the body of PATCH /teams/{id}.
type TeamPatch struct {
	Name       *string       `json:"name"`
	ColorTheme *string       `json:"color_theme"`
	Budget     *money.Amount `json:"budget"`
}

// ImportResponse reports a bulk import. Failed maps row index to reason.
type ImportResponse struct {
	Created []PlayerView   `json:"created"`
	Failed  map[int]string `json:"failed,omitempty"`
}

// ListPlayers handles GET /api/v1/players
// Optional filters: ?status=Sold&pool=Marquee&team=<id>
func (s *Server) ListPlayers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.PlayerFilter{
		Status: model.PlayerStatus(q.Get("status")),
		Pool:   q.Get("pool"),
		TeamID: q.Get("team"),
	}
	players, err := s.store.ListPlayers(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playerViews(players))
}

// GetPlayer handles GET /api/v1/players/{playerID}
func (s *Server) GetPlayer(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetPlayer(r.Context(), chi.URLParam(r, "playerID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playerView(*p))
}

// CreatePlayer handles POST /api/v1/players
func (s *Server) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	var in roster.PlayerInput
	if err := decode(r, &in); err != nil {
		writeError(w, "invalid request body", CodeBadRequest, http.StatusBadRequest)
		return
	}
	p, err := s.roster.CreatePlayer(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("player created", "player_id", p.ID, "name", p.Name, "base_price", int64(p.BasePrice))
	writeJSON(w, http.StatusCreated, playerView(*p))
}

// ImportPlayers handles POST /api/v1/players/import
// Valid rows are created even when others fail.
func (s *Server) ImportPlayers(w http.ResponseWriter, r *http.Request) {
	var rows []roster.PlayerInput
	if err := decode(r, &rows); err != nil {
		writeError(w, "invalid request body", CodeBadRequest, http.StatusBadRequest)
		return
	}
	created, err := s.roster.Import(r.Context(), rows)
	resp := ImportResponse{Created: playerViews(created)}

	var ierr *roster.ImportError
	switch {
	case errors.As(err, &ierr):
		resp.Failed = make(map[int]string, len(ierr.Rows))
		for i, rowErr := range ierr.Rows {
			resp.Failed[i] = rowErr.Error()
		}
	case err != nil:
		s.fail(w, r, err)
		return
	}
	s.log.Info("players imported", "created", len(created), "failed", len(resp.Failed))
	writeJSON(w, http.StatusOK, resp)
}

// UpdatePlayer handles PATCH /api/v1/players/{playerID}
func (s *Server) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "playerID")
	var patch PlayerPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, "invalid request body", CodeBadRequest, http.StatusBadRequest)
		return
	}
	cur, err := s.store.GetPlayer(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.roster.UpdatePlayer(r.Context(), id, patch.apply(cur))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playerView(*p))
}

// DeletePlayer handles DELETE /api/v1/players/{playerID}
func (s *Server) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "playerID")
	if err := s.roster.DeletePlayer(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("player deleted", "player_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// ListTeams handles GET /api/v1/teams
func (s *Server) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.store.ListTeams(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]TeamView, 0, len(teams))
	for _, t := range teams {
		out = append(out, teamView(t))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetTeam handles GET /api/v1/teams/{teamID}
func (s *Server) GetTeam(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.GetTeam(r.Context(), chi.URLParam(r, "teamID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, teamView(*t))
}

// GetTeamSquad handles GET /api/v1/teams/{teamID}/squad
// Returns the team's purchases in the order they were sold.
func (s *Server) GetTeamSquad(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	teamID := chi.URLParam(r, "teamID")
	if _, err := s.store.GetTeam(ctx, teamID); err != nil {
		s.fail(w, r, err)
		return
	}
	snap, err := leaderboard.Load(ctx, s.store)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playerViews(leaderboard.TeamSquad(snap, teamID)))
}

// CreateTeam handles POST /api/v1/teams
func (s *Server) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var in roster.TeamInput
	if err := decode(r, &in); err != nil {
		writeError(w, "invalid request body", CodeBadRequest, http.StatusBadRequest)
		return
	}
	t, err := s.roster.CreateTeam(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("team created", "team_id", t.ID, "name", t.Name, "budget", int64(t.Budget))
	writeJSON(w, http.StatusCreated, teamView(*t))
}

// UpdateTeam handles PATCH /api/v1/teams/{teamID}
// A budget change is refused once the team has bought a player.
func (s *Server) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "teamID")
	var patch TeamPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, "invalid request body", CodeBadRequest, http.StatusBadRequest)
		return
	}
	cur, err := s.store.GetTeam(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	in := roster.TeamInput{Name: cur.Name, ColorTheme: cur.ColorTheme, Budget: cur.Budget}
	if patch.Name != nil {
		in.Name = *patch.Name
	}
	if patch.ColorTheme != nil {
		in.ColorTheme = *patch.ColorTheme
	}
	if patch.Budget != nil {
		in.Budget = *patch.Budget
	}
	t, err := s.roster.UpdateTeam(r.Context(), id, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, teamView(*t))
}
