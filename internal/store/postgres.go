package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/consensus-engine/internal/db"
	"github.com/sells-group/consensus-engine/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// preparedStatements are installed on each new connection for the hot-path
// queries.
var preparedStatements = map[string]string{
	"read_latest":  `SELECT payload FROM consensus_snapshots WHERE entity_id = $1 ORDER BY observed_at DESC LIMIT 1`,
	"upsert_snap":  `INSERT INTO consensus_snapshots (entity_id, fiscal_period, payload, observed_at, expires_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (entity_id, fiscal_period) DO UPDATE SET payload = EXCLUDED.payload, observed_at = EXCLUDED.observed_at, expires_at = EXCLUDED.expires_at`,
	"insert_delta": `INSERT INTO delta_records (id, entity_id, metric, previous_value, current_value, change_percent, is_significant, detected_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
}

// NewPostgres creates a PostgresStore with a tuned connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS consensus_snapshots (
	entity_id     TEXT NOT NULL,
	fiscal_period TEXT NOT NULL,
	payload       JSONB NOT NULL,
	observed_at   TIMESTAMPTZ NOT NULL,
	expires_at    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (entity_id, fiscal_period)
);

CREATE TABLE IF NOT EXISTS delta_records (
	id             TEXT PRIMARY KEY,
	entity_id      TEXT NOT NULL,
	metric         TEXT NOT NULL,
	previous_value DOUBLE PRECISION NOT NULL,
	current_value  DOUBLE PRECISION NOT NULL,
	change_percent DOUBLE PRECISION NOT NULL,
	is_significant BOOLEAN NOT NULL DEFAULT FALSE,
	detected_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_entity_observed ON consensus_snapshots(entity_id, observed_at DESC);
CREATE INDEX IF NOT EXISTS idx_delta_entity_detected ON delta_records(entity_id, detected_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ReadLatest(ctx context.Context, entityID string) (*model.EntityConsensus, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM consensus_snapshots WHERE entity_id = $1 ORDER BY observed_at DESC LIMIT 1`,
		entityID,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: read latest %s", entityID)
	}
	var ec model.EntityConsensus
	if err := json.Unmarshal(payload, &ec); err != nil {
		return nil, eris.Wrapf(err, "postgres: decode snapshot %s", entityID)
	}
	return &ec, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, ec *model.EntityConsensus) error {
	payload, err := json.Marshal(ec)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal snapshot")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO consensus_snapshots (entity_id, fiscal_period, payload, observed_at, expires_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (entity_id, fiscal_period) DO UPDATE SET payload = EXCLUDED.payload, observed_at = EXCLUDED.observed_at, expires_at = EXCLUDED.expires_at`,
		ec.EntityID, ec.FiscalPeriod, payload, ec.ObservedAt.UTC(), ec.ExpiresAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert snapshot %s/%s", ec.EntityID, ec.FiscalPeriod)
}

func (s *PostgresStore) InsertDeltaRecords(ctx context.Context, records []model.DeltaRecord) error {
	for _, r := range records {
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO delta_records (id, entity_id, metric, previous_value, current_value, change_percent, is_significant, detected_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			r.ID, r.EntityID, string(r.Metric), r.PreviousValue, r.CurrentValue, r.ChangePercent, r.IsSignificant, r.DetectedAt.UTC(),
		); err != nil {
			return eris.Wrapf(err, "postgres: insert delta %s", r.ID)
		}
	}
	return nil
}

func (s *PostgresStore) ListDeltaRecords(ctx context.Context, entityID string, limit int) ([]model.DeltaRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, entity_id, metric, previous_value, current_value, change_percent, is_significant, detected_at FROM delta_records WHERE entity_id = $1 ORDER BY detected_at DESC LIMIT $2`,
		entityID, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list deltas %s", entityID)
	}
	defer rows.Close()

	var records []model.DeltaRecord
	for rows.Next() {
		var r model.DeltaRecord
		var metric string
		if err := rows.Scan(&r.ID, &r.EntityID, &metric, &r.PreviousValue, &r.CurrentValue, &r.ChangePercent, &r.IsSignificant, &r.DetectedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan delta")
		}
		r.Metric = model.MetricName(metric)
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list deltas iterate")
}
