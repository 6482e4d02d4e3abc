package pool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atmx/auction-engine/internal/model"
	"github.com/atmx/auction-engine/internal/store"
)

// ValidationError reports a bad admin input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pool: %s: %s", e.Field, e.Message)
}

// Manager wraps the store's pool operations with input validation.
type Manager struct {
	store store.Store
	now   func() time.Time
}

// NewManager creates a pool manager.
func NewManager(st store.Store) *Manager {
	return &Manager{store: st, now: time.Now}
}

// Create adds an empty pool. Status defaults to Ready and visibility to Public.
func (m *Manager) Create(ctx context.Context, name string, status model.PoolStatus, vis model.Visibility) (*model.Pool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "is required"}
	}
	if status == "" {
		status = model.PoolReady
	}
	if vis == "" {
		vis = model.VisibilityPublic
	}
	if !status.Valid() {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", status)}
	}
	if !vis.Valid() {
		return nil, &ValidationError{Field: "visibility", Message: fmt.Sprintf("unknown visibility %q", vis)}
	}

	p := &model.Pool{
		ID:         uuid.New().String(),
		Name:       name,
		PlayerIDs:  []string{},
		Status:     status,
		Visibility: vis,
		CreatedAt:  m.now().UTC(),
	}
	if err := m.store.CreatePool(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateSettings changes status and visibility. Empty values keep the
// current setting.
func (m *Manager) UpdateSettings(ctx context.Context, name string, status model.PoolStatus, vis model.Visibility) (*model.Pool, error) {
	current, err := m.store.GetPool(ctx, name)
	if err != nil {
		return nil, err
	}
	if status == "" {
		status = current.Status
	}
	if vis == "" {
		vis = current.Visibility
	}
	if !status.Valid() {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", status)}
	}
	if !vis.Valid() {
		return nil, &ValidationError{Field: "visibility", Message: fmt.Sprintf("unknown visibility %q", vis)}
	}
	if err := m.store.UpdatePoolSettings(ctx, name, status, vis); err != nil {
		return nil, err
	}
	return m.store.GetPool(ctx, name)
}

// Delete removes an empty pool. Non-empty pools fail with
// store.ErrPoolNotEmpty; players must be moved out first.
func (m *Manager) Delete(ctx context.Context, name string) error {
	return m.store.DeletePool(ctx, name)
}

// Assign moves players into the pool, in order. It stops at the first
// failure and reports which player failed.
func (m *Manager) Assign(ctx context.Context, name string, playerIDs ...string) error {
	for _, id := range playerIDs {
		if err := m.store.AssignPlayerToPool(ctx, name, id); err != nil {
			return fmt.Errorf("assign %s to %q: %w", id, name, err)
		}
	}
	return nil
}

// Remove detaches a player from the pool.
func (m *Manager) Remove(ctx context.Context, name, playerID string) error {
	return m.store.RemovePlayerFromPool(ctx, name, playerID)
}

// Reorder sets an explicit display order.
func (m *Manager) Reorder(ctx context.Context, name string, order []string) error {
	return m.store.ReorderPool(ctx, name, order)
}

// VisibleTo filters pools for viewers: private and hidden pools are
// dropped unless admin is set.
func VisibleTo(pools []model.Pool, admin bool) []model.Pool {
	if admin {
		return pools
	}
	out := make([]model.Pool, 0, len(pools))
	for _, p := range pools {
		if p.Visibility == model.VisibilityPrivate || p.Status == model.PoolHidden {
			continue
		}
		out = append(out, p)
	}
	return out
}
