package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/gridsignal/loraplan/internal/model"
	"github.com/gridsignal/loraplan/internal/override"
)

// Pool is the subset of pgxpool.Pool the store needs; pgxmock satisfies
// it for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS gateway (
	id         INT PRIMARY KEY CHECK (id = 1),
	lat        DOUBLE PRECISION NOT NULL,
	lon        DOUBLE PRECISION NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS nodes (
	position          BIGSERIAL PRIMARY KEY,
	name              TEXT NOT NULL UNIQUE,
	lat               DOUBLE PRECISION NOT NULL,
	lon               DOUBLE PRECISION NOT NULL,
	direct_to_gateway BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS overrides (
	node_a     TEXT NOT NULL,
	node_b     TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (node_a, node_b)
);

CREATE TABLE IF NOT EXISTS plans (
	id         TEXT PRIMARY KEY,
	result     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_plans_created_at ON plans(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SetGateway(ctx context.Context, coord model.Coordinate) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO gateway (id, lat, lon, updated_at) VALUES (1, $1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET lat = EXCLUDED.lat, lon = EXCLUDED.lon, updated_at = EXCLUDED.updated_at`,
		coord.Lat, coord.Lon, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: set gateway")
}

func (s *PostgresStore) GetGateway(ctx context.Context) (*model.Gateway, error) {
	var lat, lon float64
	err := s.pool.QueryRow(ctx, `SELECT lat, lon FROM gateway WHERE id = 1`).Scan(&lat, &lon)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get gateway")
	}
	return &model.Gateway{Coordinate: model.Coordinate{Lat: lat, Lon: lon}}, nil
}

func (s *PostgresStore) UpsertNode(ctx context.Context, n model.Node) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO nodes (name, lat, lon, direct_to_gateway, updated_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (name) DO UPDATE SET
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			direct_to_gateway = EXCLUDED.direct_to_gateway,
			updated_at = EXCLUDED.updated_at`,
		n.Name, n.Coordinate.Lat, n.Coordinate.Lon, n.DirectToGateway, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert node %s", n.Name)
}

func (s *PostgresStore) GetNode(ctx context.Context, name string) (*model.Node, error) {
	n := model.Node{Name: name}
	err := s.pool.QueryRow(ctx,
		`SELECT lat, lon, direct_to_gateway FROM nodes WHERE name = $1`, name,
	).Scan(&n.Coordinate.Lat, &n.Coordinate.Lon, &n.DirectToGateway)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get node %s", name)
	}
	return &n, nil
}

func (s *PostgresStore) ListNodes(ctx context.Context) ([]model.Node, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, lat, lon, direct_to_gateway FROM nodes ORDER BY position`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list nodes")
	}
	defer rows.Close()

	var nodes []model.Node
	for rows.Next() {
		var n model.Node
		if err := rows.Scan(&n.Name, &n.Coordinate.Lat, &n.Coordinate.Lon, &n.DirectToGateway); err != nil {
			return nil, eris.Wrap(err, "postgres: scan node")
		}
		nodes = append(nodes, n)
	}
	return nodes, eris.Wrap(rows.Err(), "postgres: list nodes")
}

func (s *PostgresStore) DeleteNode(ctx context.Context, name string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM nodes WHERE name = $1`, name)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: delete node %s", name)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) AddOverride(ctx context.Context, p override.Pair) error {
	p = override.NewPair(p.A, p.B)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO overrides (node_a, node_b, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (node_a, node_b) DO NOTHING`,
		p.A, p.B, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: add override %s", p)
}

func (s *PostgresStore) RemoveOverride(ctx context.Context, p override.Pair) (bool, error) {
	p = override.NewPair(p.A, p.B)
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM overrides WHERE node_a = $1 AND node_b = $2`, p.A, p.B,
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: remove override %s", p)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ListOverrides(ctx context.Context) ([]override.Pair, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT node_a, node_b FROM overrides ORDER BY node_a, node_b`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list overrides")
	}
	defer rows.Close()

	var pairs []override.Pair
	for rows.Next() {
		var p override.Pair
		if err := rows.Scan(&p.A, &p.B); err != nil {
			return nil, eris.Wrap(err, "postgres: scan override")
		}
		pairs = append(pairs, p)
	}
	return pairs, eris.Wrap(rows.Err(), "postgres: list overrides")
}

func (s *PostgresStore) SavePlan(ctx context.Context, result *model.PlanResult) error {
	doc, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal plan")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO plans (id, result, created_at) VALUES ($1, $2, $3)`,
		result.ID, doc, result.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: save plan %s", result.ID)
}

func (s *PostgresStore) GetPlan(ctx context.Context, id string) (*model.PlanResult, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT result FROM plans WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get plan %s", id)
	}
	return unmarshalPlan(doc)
}

func (s *PostgresStore) LatestPlan(ctx context.Context) (*model.PlanResult, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT result FROM plans ORDER BY created_at DESC LIMIT 1`,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest plan")
	}
	return unmarshalPlan(doc)
}

func (s *PostgresStore) ListPlans(ctx context.Context, limit int) ([]model.PlanResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT result FROM plans ORDER BY created_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list plans")
	}
	defer rows.Close()

	var plans []model.PlanResult
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "postgres: scan plan")
		}
		p, err := unmarshalPlan(doc)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, eris.Wrap(rows.Err(), "postgres: list plans")
}
