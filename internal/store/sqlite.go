package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/gridsignal/loraplan/internal/model"
	"github.com/gridsignal/loraplan/internal/override"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS gateway (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	lat        REAL NOT NULL,
	lon        REAL NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS nodes (
	position          INTEGER PRIMARY KEY AUTOINCREMENT,
	name              TEXT NOT NULL UNIQUE,
	lat               REAL NOT NULL,
	lon               REAL NOT NULL,
	direct_to_gateway INTEGER NOT NULL DEFAULT 0,
	updated_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS overrides (
	node_a     TEXT NOT NULL,
	node_b     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (node_a, node_b)
);

CREATE TABLE IF NOT EXISTS plans (
	id         TEXT PRIMARY KEY,
	result     TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_plans_created_at ON plans(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SetGateway(ctx context.Context, coord model.Coordinate) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO gateway (id, lat, lon, updated_at) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET lat = excluded.lat, lon = excluded.lon, updated_at = excluded.updated_at`,
		coord.Lat, coord.Lon, time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: set gateway")
}

func (s *SQLiteStore) GetGateway(ctx context.Context) (*model.Gateway, error) {
	var lat, lon float64
	err := s.db.QueryRowContext(ctx, `SELECT lat, lon FROM gateway WHERE id = 1`).Scan(&lat, &lon)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get gateway")
	}
	return &model.Gateway{Coordinate: model.Coordinate{Lat: lat, Lon: lon}}, nil
}

func (s *SQLiteStore) UpsertNode(ctx context.Context, n model.Node) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO nodes (name, lat, lon, direct_to_gateway, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			lat = excluded.lat,
			lon = excluded.lon,
			direct_to_gateway = excluded.direct_to_gateway,
			updated_at = excluded.updated_at`,
		n.Name, n.Coordinate.Lat, n.Coordinate.Lon, n.DirectToGateway, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert node %s", n.Name)
}

func (s *SQLiteStore) GetNode(ctx context.Context, name string) (*model.Node, error) {
	n := model.Node{Name: name}
	err := s.db.QueryRowContext(ctx,
		`SELECT lat, lon, direct_to_gateway FROM nodes WHERE name = ?`, name,
	).Scan(&n.Coordinate.Lat, &n.Coordinate.Lon, &n.DirectToGateway)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get node %s", name)
	}
	return &n, nil
}

func (s *SQLiteStore) ListNodes(ctx context.Context) ([]model.Node, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, lat, lon, direct_to_gateway FROM nodes ORDER BY position`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list nodes")
	}
	defer rows.Close()

	var nodes []model.Node
	for rows.Next() {
		var n model.Node
		if err := rows.Scan(&n.Name, &n.Coordinate.Lat, &n.Coordinate.Lon, &n.DirectToGateway); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan node")
		}
		nodes = append(nodes, n)
	}
	return nodes, eris.Wrap(rows.Err(), "sqlite: list nodes")
}

func (s *SQLiteStore) DeleteNode(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM nodes WHERE name = ?`, name)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: delete node %s", name)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: delete node rows affected")
	}
	return affected > 0, nil
}

func (s *SQLiteStore) AddOverride(ctx context.Context, p override.Pair) error {
	p = override.NewPair(p.A, p.B)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO overrides (node_a, node_b, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(node_a, node_b) DO NOTHING`,
		p.A, p.B, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: add override %s", p)
}

func (s *SQLiteStore) RemoveOverride(ctx context.Context, p override.Pair) (bool, error) {
	p = override.NewPair(p.A, p.B)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM overrides WHERE node_a = ? AND node_b = ?`, p.A, p.B,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: remove override %s", p)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: remove override rows affected")
	}
	return affected > 0, nil
}

func (s *SQLiteStore) ListOverrides(ctx context.Context) ([]override.Pair, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT node_a, node_b FROM overrides ORDER BY node_a, node_b`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list overrides")
	}
	defer rows.Close()

	var pairs []override.Pair
	for rows.Next() {
		var p override.Pair
		if err := rows.Scan(&p.A, &p.B); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan override")
		}
		pairs = append(pairs, p)
	}
	return pairs, eris.Wrap(rows.Err(), "sqlite: list overrides")
}

func (s *SQLiteStore) SavePlan(ctx context.Context, result *model.PlanResult) error {
	doc, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal plan")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO plans (id, result, created_at) VALUES (?, ?, ?)`,
		result.ID, string(doc), result.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: save plan %s", result.ID)
}

func (s *SQLiteStore) GetPlan(ctx context.Context, id string) (*model.PlanResult, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT result FROM plans WHERE id = ?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get plan %s", id)
	}
	return unmarshalPlan([]byte(doc))
}

func (s *SQLiteStore) LatestPlan(ctx context.Context) (*model.PlanResult, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT result FROM plans ORDER BY created_at DESC LIMIT 1`,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest plan")
	}
	return unmarshalPlan([]byte(doc))
}

func (s *SQLiteStore) ListPlans(ctx context.Context, limit int) ([]model.PlanResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT result FROM plans ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list plans")
	}
	defer rows.Close()

	var plans []model.PlanResult
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan plan")
		}
		p, err := unmarshalPlan([]byte(doc))
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, eris.Wrap(rows.Err(), "sqlite: list plans")
}

func unmarshalPlan(doc []byte) (*model.PlanResult, error) {
	var p model.PlanResult
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal plan")
	}
	return &p, nil
}
