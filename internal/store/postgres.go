package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atmx/auction-engine/internal/model"
	"github.com/atmx/auction-engine/internal/money"
)

//go:embed schema.sql
var schemaSQL string

// PostgresStore implements Store using PostgreSQL as the source of truth.
// Multi-row mutations run inside one transaction with the touched rows
// locked FOR UPDATE; CommitSale relies on that for all-or-nothing commits.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the schema if it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Health pings the database.
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const playerColumns = `id, name, role, country, base_price, age, evaluation_points,
	pool, status, sold_price, assigned_team, bio, performance_stats, created_at`

// --- Players ---

func (s *PostgresStore) CreatePlayer(ctx context.Context, p *model.Player) error {
	if p.Pool != nil {
		return fmt.Errorf("player %s: pool membership is set via AssignPlayerToPool: %w", p.ID, ErrPlayerLocked)
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO players (id, name, role, country, base_price, age, evaluation_points,
		                      status, bio, performance_stats, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.Name, string(p.Role), p.Country, int64(p.BasePrice), p.Age, p.EvaluationPoints,
		string(p.Status), p.Bio, p.PerformanceStats, p.CreatedAt,
	)
	return mapErr(err, "create player "+p.ID)
}

func (s *PostgresStore) GetPlayer(ctx context.Context, id string) (*model.Player, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id)
	p, err := scanPlayer(row)
	if err != nil {
		return nil, mapErr(err, "get player "+id)
	}
	return p, nil
}

func (s *PostgresStore) ListPlayers(ctx context.Context, f PlayerFilter) ([]model.Player, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+playerColumns+` FROM players
		 WHERE ($1 = '' OR status = $1)
		   AND ($2 = '' OR pool = $2)
		   AND ($3 = '' OR assigned_team = $3)
		 ORDER BY created_at, id`,
		string(f.Status), f.Pool, f.TeamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := []model.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, *p)
	}
	return players, rows.Err()
}

func (s *PostgresStore) UpdatePlayerProfile(ctx context.Context, id string, prof PlayerProfile) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		status, err := lockPlayer(ctx, tx, id)
		if err != nil {
			return err
		}
		open, err := hasOpenSession(ctx, tx, id)
		if err != nil {
			return err
		}
		if status == model.PlayerSold || open {
			return fmt.Errorf("player %s: %w", id, ErrPlayerLocked)
		}

		_, err = tx.Exec(ctx,
			`UPDATE players
			 SET name = $2, role = $3, country = $4, base_price = $5, age = $6,
			     evaluation_points = $7, bio = $8, performance_stats = $9
			 WHERE id = $1`,
			id, prof.Name, string(prof.Role), prof.Country, int64(prof.BasePrice), prof.Age,
			prof.EvaluationPoints, prof.Bio, prof.PerformanceStats)
		return err
	})
}

func (s *PostgresStore) DeletePlayer(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		status, err := lockPlayer(ctx, tx, id)
		if err != nil {
			return err
		}
		var auctioned bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM sessions WHERE player_id = $1)`, id).Scan(&auctioned); err != nil {
			return err
		}
		if status == model.PlayerSold || status == model.PlayerUnsold || auctioned {
			return fmt.Errorf("player %s: %w", id, ErrPlayerLocked)
		}
		_, err = tx.Exec(ctx, `DELETE FROM players WHERE id = $1`, id)
		return err
	})
}

// --- Teams ---

func (s *PostgresStore) CreateTeam(ctx context.Context, t *model.Team) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO teams (id, name, color_theme, budget, remaining_budget, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Name, t.ColorTheme, int64(t.Budget), int64(t.RemainingBudget), t.CreatedAt,
	)
	return mapErr(err, "create team "+t.ID)
}

func (s *PostgresStore) GetTeam(ctx context.Context, id string) (*model.Team, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, color_theme, budget, remaining_budget, created_at
		 FROM teams WHERE id = $1`, id)
	t, err := scanTeam(row)
	if err != nil {
		return nil, mapErr(err, "get team "+id)
	}
	return t, nil
}

func (s *PostgresStore) ListTeams(ctx context.Context) ([]model.Team, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, color_theme, budget, remaining_budget, created_at
		 FROM teams ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := []model.Team{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, *t)
	}
	return teams, rows.Err()
}

func (s *PostgresStore) UpdateTeamProfile(ctx context.Context, id, name, colorTheme string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE teams SET name = $2, color_theme = $3 WHERE id = $1`, id, name, colorTheme)
	if err != nil {
		return mapErr(err, "update team "+id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) UpdateTeamBudget(ctx context.Context, id string, budget money.Amount) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT true FROM teams WHERE id = $1 FOR UPDATE`, id).Scan(&exists); err != nil {
			return mapErr(err, "lock team "+id)
		}

		var locked bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM auction_logs WHERE team_id = $1)
			     OR EXISTS (SELECT 1 FROM sessions WHERE state = 'Open' AND leading_team_id = $1)`,
			id).Scan(&locked); err != nil {
			return err
		}
		if locked {
			return fmt.Errorf("team %s: %w", id, ErrTeamLocked)
		}

		_, err := tx.Exec(ctx,
			`UPDATE teams SET budget = $2, remaining_budget = $2 WHERE id = $1`, id, int64(budget))
		return err
	})
}

// --- Pools ---

func (s *PostgresStore) CreatePool(ctx context.Context, p *model.Pool) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO pools (id, name, status, visibility, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.Name, string(p.Status), string(p.Visibility), p.CreatedAt,
	)
	return mapErr(err, "create pool "+p.Name)
}

func (s *PostgresStore) GetPool(ctx context.Context, name string) (*model.Pool, error) {
	var p model.Pool
	var status, vis string
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, status, visibility, created_at FROM pools WHERE name = $1`, name).
		Scan(&p.ID, &p.Name, &status, &vis, &p.CreatedAt)
	if err != nil {
		return nil, mapErr(err, "get pool "+name)
	}
	p.Status = model.PoolStatus(status)
	p.Visibility = model.Visibility(vis)

	members, err := s.poolMembers(ctx, s.pool, name)
	if err != nil {
		return nil, err
	}
	p.PlayerIDs = members
	return &p, nil
}

func (s *PostgresStore) ListPools(ctx context.Context) ([]model.Pool, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, status, visibility, created_at FROM pools ORDER BY created_at, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pools := []model.Pool{}
	for rows.Next() {
		var p model.Pool
		var status, vis string
		if err := rows.Scan(&p.ID, &p.Name, &status, &vis, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Status = model.PoolStatus(status)
		p.Visibility = model.Visibility(vis)
		pools = append(pools, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	memberRows, err := s.pool.Query(ctx,
		`SELECT pool, id FROM players WHERE pool IS NOT NULL ORDER BY pool, pool_position, id`)
	if err != nil {
		return nil, err
	}
	defer memberRows.Close()

	byPool := make(map[string][]string)
	for memberRows.Next() {
		var poolName, playerID string
		if err := memberRows.Scan(&poolName, &playerID); err != nil {
			return nil, err
		}
		byPool[poolName] = append(byPool[poolName], playerID)
	}
	for i := range pools {
		pools[i].PlayerIDs = byPool[pools[i].Name]
	}
	return pools, memberRows.Err()
}

func (s *PostgresStore) UpdatePoolSettings(ctx context.Context, name string, status model.PoolStatus, vis model.Visibility) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE pools SET status = $2, visibility = $3 WHERE name = $1`,
		name, string(status), string(vis))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pool %q: %w", name, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ReorderPool(ctx context.Context, name string, order []string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockPool(ctx, tx, name); err != nil {
			return err
		}
		current, err := s.poolMembers(ctx, tx, name)
		if err != nil {
			return err
		}
		if !isPermutation(current, order) {
			return fmt.Errorf("pool %q: %w", name, ErrInvalidOrder)
		}

		batch := &pgx.Batch{}
		for i, id := range order {
			batch.Queue(`UPDATE players SET pool_position = $2 WHERE id = $1`, id, i+1)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (s *PostgresStore) DeletePool(ctx context.Context, name string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockPool(ctx, tx, name); err != nil {
			return err
		}
		var n int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM players WHERE pool = $1`, name).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("pool %q has %d players: %w", name, n, ErrPoolNotEmpty)
		}
		_, err := tx.Exec(ctx, `DELETE FROM pools WHERE name = $1`, name)
		return mapErr(err, "delete pool "+name)
	})
}

func (s *PostgresStore) AssignPlayerToPool(ctx context.Context, name, playerID string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockPool(ctx, tx, name); err != nil {
			return err
		}
		var status string
		var current *string
		if err := tx.QueryRow(ctx,
			`SELECT status, pool FROM players WHERE id = $1 FOR UPDATE`, playerID).
			Scan(&status, &current); err != nil {
			return mapErr(err, "lock player "+playerID)
		}
		open, err := hasOpenSession(ctx, tx, playerID)
		if err != nil {
			return err
		}
		if model.PlayerStatus(status) == model.PlayerSold || open {
			return fmt.Errorf("player %s: %w", playerID, ErrPlayerLocked)
		}
		if current != nil && *current == name {
			return nil
		}

		_, err = tx.Exec(ctx,
			`UPDATE players
			 SET pool = $2,
			     pool_position = (SELECT COALESCE(MAX(pool_position), 0) + 1 FROM players WHERE pool = $2),
			     status = CASE WHEN status = 'Available' THEN 'Pooled' ELSE status END
			 WHERE id = $1`,
			playerID, name)
		return err
	})
}

func (s *PostgresStore) RemovePlayerFromPool(ctx context.Context, name, playerID string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		var locked bool
		err := tx.QueryRow(ctx,
			`SELECT true FROM players WHERE id = $1 AND pool = $2 FOR UPDATE`, playerID, name).Scan(&locked)
		if err != nil {
			return mapErr(err, fmt.Sprintf("player %s in pool %q", playerID, name))
		}
		open, err := hasOpenSession(ctx, tx, playerID)
		if err != nil {
			return err
		}
		if open {
			return fmt.Errorf("player %s: %w", playerID, ErrPlayerLocked)
		}

		_, err = tx.Exec(ctx,
			`UPDATE players
			 SET pool = NULL, pool_position = 0,
			     status = CASE WHEN status = 'Pooled' THEN 'Available' ELSE status END
			 WHERE id = $1`, playerID)
		return err
	})
}

// --- Sessions ---

func (s *PostgresStore) OpenSession(ctx context.Context, sess *model.Session) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		status, err := lockPlayer(ctx, tx, sess.PlayerID)
		if err != nil {
			return err
		}
		if !status.Auctionable() {
			return fmt.Errorf("player %s is %s: %w", sess.PlayerID, status, ErrPlayerLocked)
		}

		// The pre-check only names the open session in the error. Concurrent
		// opens are stopped by the sessions_single_open index, which mapErr
		// turns into ErrSessionOpen on insert.
		var openID string
		err = tx.QueryRow(ctx, `SELECT id FROM sessions WHERE state = 'Open'`).Scan(&openID)
		if err == nil {
			return fmt.Errorf("session %s: %w", openID, ErrSessionOpen)
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO sessions (id, player_id, current_bid, leading_team_id, state, started_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			sess.ID, sess.PlayerID, int64(sess.CurrentBid), sess.LeadingTeamID,
			string(model.SessionOpen), sess.StartedAt)
		return mapErr(err, "open session "+sess.ID)
	})
}

const sessionColumns = `id, player_id, current_bid, leading_team_id, state, final_price, started_at, completed_at`

func (s *PostgresStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	sess, err := scanSession(row)
	if err != nil {
		return nil, mapErr(err, "get session "+id)
	}
	if err := s.loadBids(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *PostgresStore) GetOpenSession(ctx context.Context) (*model.Session, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE state = 'Open'`)
	sess, err := scanSession(row)
	if err != nil {
		return nil, mapErr(err, "open session")
	}
	if err := s.loadBids(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *PostgresStore) RecordBid(ctx context.Context, sessionID string, bid model.BidRecord) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		sess, err := lockSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if !sess.IsActive() {
			return fmt.Errorf("session %s is %s: %w", sessionID, sess.State, ErrSessionClosed)
		}
		if !Outbids(sess, bid.Amount) {
			return fmt.Errorf("bid %d vs current %d: %w", bid.Amount, sess.CurrentBid, ErrStaleBid)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO session_bids (session_id, seq, team_id, amount, at)
			 VALUES ($1, (SELECT COALESCE(MAX(seq), 0) + 1 FROM session_bids WHERE session_id = $1), $2, $3, $4)`,
			sessionID, bid.TeamID, int64(bid.Amount), bid.At); err != nil {
			return mapErr(err, "record bid")
		}
		_, err = tx.Exec(ctx,
			`UPDATE sessions SET current_bid = $2, leading_team_id = $3 WHERE id = $1`,
			sessionID, int64(bid.Amount), bid.TeamID)
		return err
	})
}

func (s *PostgresStore) CommitSale(ctx context.Context, sale model.Sale) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		sess, err := lockSession(ctx, tx, sale.SessionID)
		if err != nil {
			return err
		}
		if !sess.IsActive() {
			return fmt.Errorf("session %s is %s: %w", sale.SessionID, sess.State, ErrSessionClosed)
		}
		if sess.PlayerID != sale.PlayerID || sess.LeadingTeamID == nil ||
			*sess.LeadingTeamID != sale.TeamID || sess.CurrentBid != sale.Price {
			return fmt.Errorf("session %s: %w", sale.SessionID, ErrSaleMismatch)
		}

		tag, err := tx.Exec(ctx,
			`UPDATE teams SET remaining_budget = remaining_budget - $2
			 WHERE id = $1 AND remaining_budget >= $2`,
			sale.TeamID, int64(sale.Price))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var remaining int64
			if err := tx.QueryRow(ctx,
				`SELECT remaining_budget FROM teams WHERE id = $1`, sale.TeamID).Scan(&remaining); err != nil {
				return mapErr(err, "team "+sale.TeamID)
			}
			return fmt.Errorf("team %s has %d, needs %d: %w",
				sale.TeamID, remaining, sale.Price, ErrInsufficientBudget)
		}

		tag, err = tx.Exec(ctx,
			`UPDATE players SET status = 'Sold', sold_price = $2, assigned_team = $3
			 WHERE id = $1 AND status IN ('Available', 'Pooled', 'Unsold')`,
			sale.PlayerID, int64(sale.Price), sale.TeamID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("player %s: %w", sale.PlayerID, ErrPlayerLocked)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE sessions SET state = 'Sold', final_price = $2, completed_at = $3 WHERE id = $1`,
			sale.SessionID, int64(sale.Price), sale.At); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO auction_logs (id, player_id, team_id, sold_price, timestamp)
			 VALUES ($1, $2, $3, $4, $5)`,
			sale.LogID, sale.PlayerID, sale.TeamID, int64(sale.Price), sale.At)
		return mapErr(err, "append auction log")
	})
}

func (s *PostgresStore) CommitUnsold(ctx context.Context, sessionID string, at time.Time) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		sess, err := lockSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if !sess.IsActive() {
			return fmt.Errorf("session %s is %s: %w", sessionID, sess.State, ErrSessionClosed)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE sessions SET state = 'Unsold', completed_at = $2 WHERE id = $1`,
			sessionID, at); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE players SET status = 'Unsold' WHERE id = $1`, sess.PlayerID)
		return err
	})
}

// --- Auction log ---

func (s *PostgresStore) ListAuctionLogs(ctx context.Context) ([]model.AuctionLog, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, player_id, team_id, sold_price, timestamp
		 FROM auction_logs ORDER BY timestamp, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuctionLogs(rows)
}

func (s *PostgresStore) ListAuctionLogsByTeam(ctx context.Context, teamID string) ([]model.AuctionLog, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, player_id, team_id, sold_price, timestamp
		 FROM auction_logs WHERE team_id = $1 ORDER BY timestamp, id`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuctionLogs(rows)
}

// --- helpers ---

// inTx runs fn in a transaction. If fn returns an error the tx rolls back,
// else it commits.
func (s *PostgresStore) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) poolMembers(ctx context.Context, q querier, name string) ([]string, error) {
	rows, err := q.Query(ctx,
		`SELECT id FROM players WHERE pool = $1 ORDER BY pool_position, id`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresStore) loadBids(ctx context.Context, sess *model.Session) error {
	rows, err := s.pool.Query(ctx,
		`SELECT team_id, amount, at FROM session_bids WHERE session_id = $1 ORDER BY seq`, sess.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	sess.Bids = []model.BidRecord{}
	for rows.Next() {
		var b model.BidRecord
		var amount int64
		if err := rows.Scan(&b.TeamID, &amount, &b.At); err != nil {
			return err
		}
		b.Amount = money.Amount(amount)
		sess.Bids = append(sess.Bids, b)
	}
	return rows.Err()
}

func lockPlayer(ctx context.Context, tx pgx.Tx, id string) (model.PlayerStatus, error) {
	var status string
	if err := tx.QueryRow(ctx,
		`SELECT status FROM players WHERE id = $1 FOR UPDATE`, id).Scan(&status); err != nil {
		return "", mapErr(err, "lock player "+id)
	}
	return model.PlayerStatus(status), nil
}

func lockPool(ctx context.Context, tx pgx.Tx, name string) error {
	var id string
	if err := tx.QueryRow(ctx,
		`SELECT id FROM pools WHERE name = $1 FOR UPDATE`, name).Scan(&id); err != nil {
		return mapErr(err, fmt.Sprintf("pool %q", name))
	}
	return nil
}

func lockSession(ctx context.Context, tx pgx.Tx, id string) (*model.Session, error) {
	row := tx.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1 FOR UPDATE`, id)
	sess, err := scanSession(row)
	if err != nil {
		return nil, mapErr(err, "lock session "+id)
	}
	return sess, nil
}

func hasOpenSession(ctx context.Context, tx pgx.Tx, playerID string) (bool, error) {
	var open bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sessions WHERE player_id = $1 AND state = 'Open')`,
		playerID).Scan(&open)
	return open, err
}

func scanPlayer(row rowScanner) (*model.Player, error) {
	var p model.Player
	var role, status string
	var basePrice int64
	var soldPrice *int64

	if err := row.Scan(&p.ID, &p.Name, &role, &p.Country, &basePrice, &p.Age, &p.EvaluationPoints,
		&p.Pool, &status, &soldPrice, &p.AssignedTeam, &p.Bio, &p.PerformanceStats, &p.CreatedAt); err != nil {
		return nil, err
	}

	p.Role = model.Role(role)
	p.Status = model.PlayerStatus(status)
	p.BasePrice = money.Amount(basePrice)
	if soldPrice != nil {
		v := money.Amount(*soldPrice)
		p.SoldPrice = &v
	}
	return &p, nil
}

func scanTeam(row rowScanner) (*model.Team, error) {
	var t model.Team
	var budget, remaining int64
	if err := row.Scan(&t.ID, &t.Name, &t.ColorTheme, &budget, &remaining, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Budget = money.Amount(budget)
	t.RemainingBudget = money.Amount(remaining)
	return &t, nil
}

func scanSession(row rowScanner) (*model.Session, error) {
	var sess model.Session
	var state string
	var current int64
	var final *int64

	if err := row.Scan(&sess.ID, &sess.PlayerID, &current, &sess.LeadingTeamID, &state,
		&final, &sess.StartedAt, &sess.CompletedAt); err != nil {
		return nil, err
	}

	sess.State = model.SessionState(state)
	sess.CurrentBid = money.Amount(current)
	if final != nil {
		v := money.Amount(*final)
		sess.FinalPrice = &v
	}
	return &sess, nil
}

func scanAuctionLogs(rows pgx.Rows) ([]model.AuctionLog, error) {
	logs := []model.AuctionLog{}
	for rows.Next() {
		var l model.AuctionLog
		var price int64
		if err := rows.Scan(&l.ID, &l.PlayerID, &l.TeamID, &price, &l.Timestamp); err != nil {
			return nil, err
		}
		l.SoldPrice = money.Amount(price)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// mapErr translates driver errors into the store's sentinel errors.
func mapErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505" && pgErr.ConstraintName == "sessions_single_open":
			return fmt.Errorf("%s: %w", what, ErrSessionOpen)
		case pgErr.Code == "23505":
			return fmt.Errorf("%s: %w", what, ErrDuplicate)
		case pgErr.Code == "23503":
			return fmt.Errorf("%s: %w", what, ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}
