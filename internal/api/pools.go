package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/atmx/auction-engine/internal/model"
	"github.com/atmx/auction-engine/internal/pool"
	"github.com/atmx/auction-engine/internal/store"
)

// PoolRequest is the body of POST and PATCH /pools. Empty fields take the
// default on create and keep the current value on update.
type PoolRequest struct {
	Name       string           `json:"name"`
	Status     model.PoolStatus `json:"status"`
	Visibility model.Visibility `json:"visibility"`
}

// PlayerIDsRequest carries an ordered list of player ids.
type PlayerIDsRequest struct {
	PlayerIDs []string `json:"player_ids"`
}

// PoolView is a pool with its progress counters.
type PoolView struct {
	model.Pool
	Progress pool.Progress `json:"progress"`
}

// poolName reads the {name} parameter. Pool names may contain spaces.
func poolName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}

// ListPools handles GET /api/v1/pools
// Viewers do not see private or hidden pools.
func (s *Server) ListPools(w http.ResponseWriter, r *http.Request) {
	pools, err := s.store.ListPools(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pool.VisibleTo(pools, isAdmin(r)))
}

// GetPool handles GET /api/v1/pools/{name}
func (s *Server) GetPool(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := s.store.GetPool(ctx, poolName(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if len(pool.VisibleTo([]model.Pool{*p}, isAdmin(r))) == 0 {
		s.fail(w, r, store.ErrNotFound)
		return
	}
	progress, err := s.selector.Progress(ctx, p.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PoolView{Pool: *p, Progress: progress})
}

// CreatePool handles POST /api/v1/pools
func (s *Server) CreatePool(w http.ResponseWriter, r *http.Request) {
	var req PoolRequest
	if err := decode(r, &req); err != nil {
		writeError(w, "invalid request body", CodeBadRequest, http.StatusBadRequest)
		return
	}
	p, err := s.pools.Create(r.Context(), req.Name, req.Status, req.Visibility)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("pool created", "pool", p.Name, "status", p.Status, "visibility", p.Visibility)
	writeJSON(w, http.StatusCreated, p)
}

// UpdatePool handles PATCH /api/v1/pools/{name}
func (s *Server) UpdatePool(w http.ResponseWriter, r *http.Request) {
	var req PoolRequest
	if err := decode(r, &req); err != nil {
		writeError(w, "invalid request body", CodeBadRequest, http.StatusBadRequest)
		return
	}
	p, err := s.pools.UpdateSettings(r.Context(), poolName(r), req.Status, req.Visibility)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePool handles DELETE /api/v1/pools/{name}
// Fails with 409 while the pool still holds players.
func (s *Server) DeletePool(w http.ResponseWriter, r *http.Request) {
	name := poolName(r)
	if err := s.pools.Delete(r.Context(), name); err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("pool deleted", "pool", name)
	w.WriteHeader(http.StatusNoContent)
}

// AssignToPool handles POST /api/v1/pools/{name}/players
func (s *Server) AssignToPool(w http.ResponseWriter, r *http.Request) {
	var req PlayerIDsRequest
	if err := decode(r, &req); err != nil || len(req.PlayerIDs) == 0 {
		writeError(w, "player_ids is required", CodeBadRequest, http.StatusBadRequest)
		return
	}
	name := poolName(r)
	if err := s.pools.Assign(r.Context(), name, req.PlayerIDs...); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writePool(w, r, name)
}

// RemoveFromPool handles DELETE /api/v1/pools/{name}/players/{playerID}
func (s *Server) RemoveFromPool(w http.ResponseWriter, r *http.Request) {
	name := poolName(r)
	if err := s.pools.Remove(r.Context(), name, chi.URLParam(r, "playerID")); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writePool(w, r, name)
}

// ReorderPool handles PUT /api/v1/pools/{name}/order
func (s *Server) ReorderPool(w http.ResponseWriter, r *http.Request) {
	var req PlayerIDsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, "invalid request body", CodeBadRequest, http.StatusBadRequest)
		return
	}
	name := poolName(r)
	if err := s.pools.Reorder(r.Context(), name, req.PlayerIDs); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writePool(w, r, name)
}

// ShufflePool handles POST /api/v1/pools/{name}/shuffle
func (s *Server) ShufflePool(w http.ResponseWriter, r *http.Request) {
	name := poolName(r)
	if _, err := s.selector.Shuffle(r.Context(), name, s.newRand()); err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("pool shuffled", "pool", name)
	s.writePool(w, r, name)
}

// NextInPool handles GET /api/v1/pools/{name}/next
// ?include_unsold=true opens a second round; ?exclude=id1,id2 skips players.
func (s *Server) NextInPool(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := pool.Options{}
	if v := q.Get("include_unsold"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, "include_unsold must be a boolean", CodeValidation, http.StatusBadRequest)
			return
		}
		opts.IncludeUnsold = b
	}
	if v := q.Get("exclude"); v != "" {
		opts.Exclude = strings.Split(v, ",")
	}

	p, err := s.selector.NextEligible(r.Context(), poolName(r), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playerView(*p))
}

func (s *Server) writePool(w http.ResponseWriter, r *http.Request, name string) {
	p, err := s.store.GetPool(r.Context(), name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
