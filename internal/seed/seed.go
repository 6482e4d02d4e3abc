// Package seed loads a YAML roster (teams, pools and players) into a store
// through the same admin paths the HTTP API uses.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/atmx/auction-engine/internal/model"
	"github.com/atmx/auction-engine/internal/money"
	"github.com/atmx/auction-engine/internal/pool"
	"github.com/atmx/auction-engine/internal/roster"
	"github.com/atmx/auction-engine/internal/store"
)

// Price is a money.Amount written the way auctioneers write it: "2Cr",
// "75L", "₹1.5 Cr" or a bare number of lakhs.
type Price money.Amount

// UnmarshalYAML parses the scalar with money.Parse.
func (p *Price) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: price must be a scalar", node.Line)
	}
	a, err := money.Parse(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*p = Price(a)
	return nil
}

// Team is one roster team.
type Team struct {
	Name       string `yaml:"name"`
	ColorTheme string `yaml:"color_theme"`
	Budget     Price  `yaml:"budget"`
}

// Player is one roster player.
type Player struct {
	Name             string     `yaml:"name"`
	Role             model.Role `yaml:"role"`
	Country          string     `yaml:"country"`
	BasePrice        Price      `yaml:"base_price"`
	Age              int        `yaml:"age"`
	EvaluationPoints int        `yaml:"evaluation_points"`
	Bio              string     `yaml:"bio"`
	PerformanceStats string     `yaml:"performance_stats"`
}

func (p Player) input() roster.PlayerInput {
	return roster.PlayerInput{
		Name:             p.Name,
		Role:             p.Role,
		Country:          p.Country,
		BasePrice:        money.Amount(p.BasePrice),
		Age:              p.Age,
		EvaluationPoints: p.EvaluationPoints,
		Bio:              p.Bio,
		PerformanceStats: p.PerformanceStats,
	}
}

// Pool is a named pool and the players created directly into it, in order.
type Pool struct {
	Name       string           `yaml:"name"`
	Status     model.PoolStatus `yaml:"status"`
	Visibility model.Visibility `yaml:"visibility"`
	Players    []Player         `yaml:"players"`
}

// File is the whole roster document. Players lists players outside any pool.
type File struct {
	Teams   []Team   `yaml:"teams"`
	Pools   []Pool   `yaml:"pools"`
	Players []Player `yaml:"players"`
}

// Parse decodes a roster document. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	return &f, nil
}

// ReadFile parses the roster at path.
func ReadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Parse(fh)
}

// Validate checks every entry without touching a store.
func (f *File) Validate() error {
	var errs []error
	for i, t := range f.Teams {
		in := roster.TeamInput{Name: t.Name, ColorTheme: t.ColorTheme, Budget: money.Amount(t.Budget)}
		if err := in.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("teams[%d]: %w", i, err))
		}
	}
	for i, p := range f.Pools {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("pools[%d]: name is required", i))
		}
		for j, pl := range p.Players {
			if err := pl.input().Validate(); err != nil {
				errs = append(errs, fmt.Errorf("pools[%d].players[%d]: %w", i, j, err))
			}
		}
	}
	for i, pl := range f.Players {
		if err := pl.input().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("players[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Result counts what Load created.
type Result struct {
	Teams   int `json:"teams"`
	Pools   int `json:"pools"`
	Players int `json:"players"`
}

// Load validates f and creates everything in st. It stops at the first
// store error; entries created before it remain.
func Load(ctx context.Context, st store.Store, f *File) (Result, error) {
	var res Result
	if err := f.Validate(); err != nil {
		return res, err
	}
	rs := roster.NewService(st)
	pm := pool.NewManager(st)

	for _, t := range f.Teams {
		if _, err := rs.CreateTeam(ctx, roster.TeamInput{Name: t.Name, ColorTheme: t.ColorTheme, Budget: money.Amount(t.Budget)}); err != nil {
			return res, fmt.Errorf("team %q: %w", t.Name, err)
		}
		res.Teams++
	}

	for _, p := range f.Pools {
		if _, err := pm.Create(ctx, p.Name, p.Status, p.Visibility); err != nil {
			return res, fmt.Errorf("pool %q: %w", p.Name, err)
		}
		res.Pools++

		ids := make([]string, 0, len(p.Players))
		for _, pl := range p.Players {
			created, err := rs.CreatePlayer(ctx, pl.input())
			if err != nil {
				return res, fmt.Errorf("player %q: %w", pl.Name, err)
			}
			ids = append(ids, created.ID)
			res.Players++
		}
		if len(ids) > 0 {
			if err := pm.Assign(ctx, p.Name, ids...); err != nil {
				return res, fmt.Errorf("pool %q: %w", p.Name, err)
			}
		}
	}

	for _, pl := range f.Players {
		if _, err := rs.CreatePlayer(ctx, pl.input()); err != nil {
			return res, fmt.Errorf("player %q: %w", pl.Name, err)
		}
		res.Players++
	}
	return res, nil
}
