// Package api exposes the auction over HTTP with chi. Viewer routes are
// read-only; admin routes drive the roster, pools and the auction engine.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/atmx/auction-engine/internal/auction"
	"github.com/atmx/auction-engine/internal/increment"
	"github.com/atmx/auction-engine/internal/metrics"
	"github.com/atmx/auction-engine/internal/pool"
	"github.com/atmx/auction-engine/internal/roster"
	"github.com/atmx/auction-engine/internal/store"
)

// AdminHeader marks a request as coming from the auction desk. Admin
// requests also see private and hidden pools.
const AdminHeader = "X-Auction-Role"

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Deps are the collaborators the server routes to.
type Deps struct {
	Engine *auction.Engine
	Store  store.Store

	// WS serves GET /api/v1/ws. Nil disables the route.
	WS http.Handler

	Menu   increment.Menu
	Ladder *increment.Ladder

	// BidRate and BidBurst throttle bids per team. Zero disables throttling.
	BidRate  float64
	BidBurst int

	AllowedOrigins []string
	RequestTimeout time.Duration
	Health         map[string]HealthCheck
	Logger         *slog.Logger
}

// Server holds the HTTP handlers.
type Server struct {
	engine   *auction.Engine
	store    store.Store
	roster   *roster.Service
	pools    *pool.Manager
	selector *pool.Selector
	ws       http.Handler
	menu     increment.Menu
	ladder   *increment.Ladder
	throttle *bidThrottle
	origins  []string
	timeout  time.Duration
	health   map[string]HealthCheck
	log      *slog.Logger
	newRand  func() *rand.Rand
}

// NewServer builds a server from deps, filling in defaults.
func NewServer(d Deps) *Server {
	s := &Server{
		engine:   d.Engine,
		store:    d.Store,
		roster:   roster.NewService(d.Store),
		pools:    pool.NewManager(d.Store),
		selector: pool.NewSelector(d.Store),
		ws:       d.WS,
		menu:     d.Menu,
		ladder:   d.Ladder,
		origins:  d.AllowedOrigins,
		timeout:  d.RequestTimeout,
		health:   d.Health,
		log:      d.Logger,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}
	if len(s.menu) == 0 {
		s.menu = increment.DefaultMenu
	}
	if s.ladder == nil {
		s.ladder = increment.DefaultLadder
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.timeout <= 0 {
		s.timeout = 30 * time.Second
	}
	if len(s.origins) == 0 {
		s.origins = []string{"*"}
	}
	if d.BidRate > 0 && d.BidBurst > 0 {
		s.throttle = newBidThrottle(d.BidRate, d.BidBurst)
	}
	return s
}

// Routes returns the full router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", AdminHeader},
	}).Handler)

	r.Get("/health", s.Health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// The websocket must outlive the request timeout.
		if s.ws != nil {
			r.Method(http.MethodGet, "/ws", s.ws)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.timeout))

			// Viewer.
			r.Get("/auction/current", s.CurrentAuction)
			r.Get("/players", s.ListPlayers)
			r.Get("/players/{playerID}", s.GetPlayer)
			r.Get("/teams", s.ListTeams)
			r.Get("/teams/{teamID}", s.GetTeam)
			r.Get("/teams/{teamID}/squad", s.GetTeamSquad)
			r.Get("/pools", s.ListPools)
			r.Get("/pools/{name}", s.GetPool)
			r.Get("/leaderboard", s.Leaderboard)
			r.Get("/dashboard", s.Dashboard)
			r.Get("/logs", s.ListLogs)
			r.Get("/logs/export", s.ExportLogs)
			r.Get("/audit", s.Audit)

			// Admin.
			r.Post("/players", s.CreatePlayer)
			r.Post("/players/import", s.ImportPlayers)
			r.Patch("/players/{playerID}", s.UpdatePlayer)
			r.Delete("/players/{playerID}", s.DeletePlayer)

			r.Post("/teams", s.CreateTeam)
			r.Patch("/teams/{teamID}", s.UpdateTeam)

			r.Post("/pools", s.CreatePool)
			r.Patch("/pools/{name}", s.UpdatePool)
			r.Delete("/pools/{name}", s.DeletePool)
			r.Post("/pools/{name}/players", s.AssignToPool)
			r.Delete("/pools/{name}/players/{playerID}", s.RemoveFromPool)
			r.Put("/pools/{name}/order", s.ReorderPool)
			r.Post("/pools/{name}/shuffle", s.ShufflePool)
			r.Get("/pools/{name}/next", s.NextInPool)

			r.Post("/auction/start", s.StartAuction)
			r.Post("/auction/{sessionID}/bid", s.PlaceBid)
			r.Post("/auction/{sessionID}/sold", s.FinalizeAuction)
			r.Post("/auction/{sessionID}/unsold", s.MarkUnsold)
		})
	})
	return r
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(s.health))
	for name, check := range s.health {
		if err := check(r.Context()); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	writeJSON(w, status, map[string]any{
		"status":  state,
		"service": "auction-engine",
		"checks":  checks,
	})
}

func isAdmin(r *http.Request) bool {
	return r.Header.Get(AdminHeader) == "admin"
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
