// Package roster is the admin layer for players and teams before and
// between auctions. It validates input and never writes the fields the
// auction engine owns: player status, sold price, assigned team and a
// team's remaining budget.
package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atmx/auction-engine/internal/model"
	"github.com/atmx/auction-engine/internal/money"
	"github.com/atmx/auction-engine/internal/store"
)

// ValidationError reports one invalid input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("roster: %s: %s", e.Field, e.Message)
}

// PlayerInput is the admin-editable shape of a player. It matches the
// import fields plus age and evaluation points.
type PlayerInput struct {
	Name             string       `json:"name" yaml:"name"`
	Role             model.Role   `json:"role" yaml:"role"`
	Country          string       `json:"country" yaml:"country"`
	BasePrice        money.Amount `json:"base_price" yaml:"base_price"`
	Age              int          `json:"age" yaml:"age"`
	EvaluationPoints int          `json:"evaluation_points" yaml:"evaluation_points"`
	Bio              string       `json:"bio" yaml:"bio"`
	PerformanceStats string       `json:"performance_stats" yaml:"performance_stats"`
}

// Validate checks required fields and ranges.
func (in PlayerInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if !in.Role.Valid() {
		return &ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", in.Role)}
	}
	if in.BasePrice <= 0 {
		return &ValidationError{Field: "base_price", Message: "must be positive"}
	}
	if in.Age < 0 {
		return &ValidationError{Field: "age", Message: "must not be negative"}
	}
	if in.EvaluationPoints < 0 {
		return &ValidationError{Field: "evaluation_points", Message: "must not be negative"}
	}
	return nil
}

func (in PlayerInput) profile() store.PlayerProfile {
	return store.PlayerProfile{
		Name:             strings.TrimSpace(in.Name),
		Role:             in.Role,
		Country:          strings.TrimSpace(in.Country),
		BasePrice:        in.BasePrice,
		Age:              in.Age,
		EvaluationPoints: in.EvaluationPoints,
		Bio:              in.Bio,
		PerformanceStats: in.PerformanceStats,
	}
}

// TeamInput is the admin-editable shape of a team.
type TeamInput struct {
	Name       string       `json:"name" yaml:"name"`
	ColorTheme string       `json:"color_theme" yaml:"color_theme"`
	Budget     money.Amount `json:"budget" yaml:"budget"`
}

// Validate checks required fields.
func (in TeamInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if in.Budget <= 0 {
		return &ValidationError{Field: "budget", Message: "must be positive"}
	}
	return nil
}

// Service performs roster CRUD against the store.
type Service struct {
	store store.Store
	now   func() time.Time
	newID func() string
}

// NewService creates a roster service.
func NewService(st store.Store) *Service {
	return &Service{
		store: st,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// CreatePlayer adds a player in status Available.
func (s *Service) CreatePlayer(ctx context.Context, in PlayerInput) (*model.Player, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	prof := in.profile()
	p := &model.Player{
		ID:               s.newID(),
		Name:             prof.Name,
		Role:             prof.Role,
		Country:          prof.Country,
		BasePrice:        prof.BasePrice,
		Age:              prof.Age,
		EvaluationPoints: prof.EvaluationPoints,
		Status:           model.PlayerAvailable,
		Bio:              prof.Bio,
		PerformanceStats: prof.PerformanceStats,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.store.CreatePlayer(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePlayer edits a player's profile. Fails with store.ErrPlayerLocked
// once the player is sold or on the block.
func (s *Service) UpdatePlayer(ctx context.Context, id string, in PlayerInput) (*model.Player, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpdatePlayerProfile(ctx, id, in.profile()); err != nil {
		return nil, err
	}
	return s.store.GetPlayer(ctx, id)
}

// DeletePlayer removes a player that was never auctioned.
func (s *Service) DeletePlayer(ctx context.Context, id string) error {
	return s.store.DeletePlayer(ctx, id)
}

// CreateTeam adds a team with its full budget remaining.
func (s *Service) CreateTeam(ctx context.Context, in TeamInput) (*model.Team, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	t := &model.Team{
		ID:              s.newID(),
		Name:            strings.TrimSpace(in.Name),
		ColorTheme:      strings.TrimSpace(in.ColorTheme),
		Budget:          in.Budget,
		RemainingBudget: in.Budget,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.store.CreateTeam(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTeam edits name and color. A changed budget is applied only while
// the team has bought nothing; afterwards it fails with store.ErrTeamLocked.
func (s *Service) UpdateTeam(ctx context.Context, id string, in TeamInput) (*model.Team, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	current, err := s.store.GetTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Budget != current.Budget {
		if err := s.store.UpdateTeamBudget(ctx, id, in.Budget); err != nil {
			return nil, err
		}
	}
	if err := s.store.UpdateTeamProfile(ctx, id, strings.TrimSpace(in.Name), strings.TrimSpace(in.ColorTheme)); err != nil {
		return nil, err
	}
	return s.store.GetTeam(ctx, id)
}

// ImportError collects per-row failures from Import.
type ImportError struct {
	Rows map[int]error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("roster: %d rows failed to import", len(e.Rows))
}

// Unwrap exposes the row errors to errors.Is/As.
func (e *ImportError) Unwrap() []error {
	out := make([]error, 0, len(e.Rows))
	for _, err := range e.Rows {
		out = append(out, err)
	}
	return out
}

// Import creates players in bulk. Valid rows are created even when others
// fail; failures are returned as an *ImportError keyed by row index.
func (s *Service) Import(ctx context.Context, rows []PlayerInput) ([]model.Player, error) {
	created := make([]model.Player, 0, len(rows))
	failed := make(map[int]error)
	for i, row := range rows {
		p, err := s.CreatePlayer(ctx, row)
		if err != nil {
			failed[i] = err
			continue
		}
		created = append(created, *p)
	}
	if len(failed) > 0 {
		return created, &ImportError{Rows: failed}
	}
	return created, nil
}

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
