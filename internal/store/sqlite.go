package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/consensus-engine/internal/model"
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
CREATE TABLE IF NOT EXISTS consensus_snapshots (
	entity_id     TEXT NOT NULL,
	fiscal_period TEXT NOT NULL,
	payload       TEXT NOT NULL,
	observed_at   DATETIME NOT NULL,
	expires_at    DATETIME NOT NULL,
	PRIMARY KEY (entity_id, fiscal_period)
);

CREATE TABLE IF NOT EXISTS delta_records (
	id             TEXT PRIMARY KEY,
	entity_id      TEXT NOT NULL,
	metric         TEXT NOT NULL,
	previous_value REAL NOT NULL,
	current_value  REAL NOT NULL,
	change_percent REAL NOT NULL,
	is_significant INTEGER NOT NULL DEFAULT 0,
	detected_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_entity_observed ON consensus_snapshots(entity_id, observed_at DESC);
CREATE INDEX IF NOT EXISTS idx_delta_entity_detected ON delta_records(entity_id, detected_at DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ReadLatest(ctx context.Context, entityID string) (*model.EntityConsensus, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM consensus_snapshots WHERE entity_id = ? ORDER BY observed_at DESC LIMIT 1`,
		entityID,
	)
	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: read latest %s", entityID)
	}
	var ec model.EntityConsensus
	if err := json.Unmarshal([]byte(payload), &ec); err != nil {
		return nil, eris.Wrapf(err, "sqlite: decode snapshot %s", entityID)
	}
	return &ec, nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, ec *model.EntityConsensus) error {
	payload, err := json.Marshal(ec)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal snapshot")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO consensus_snapshots (entity_id, fiscal_period, payload, observed_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(entity_id, fiscal_period) DO UPDATE SET
		   payload = excluded.payload,
		   observed_at = excluded.observed_at,
		   expires_at = excluded.expires_at`,
		ec.EntityID, ec.FiscalPeriod, string(payload), ec.ObservedAt.UTC(), ec.ExpiresAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert snapshot %s/%s", ec.EntityID, ec.FiscalPeriod)
}

func (s *SQLiteStore) InsertDeltaRecords(ctx context.Context, records []model.DeltaRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin delta insert")
	}
	defer tx.Rollback()

	for _, r := range records {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO delta_records (id, entity_id, metric, previous_value, current_value, change_percent, is_significant, detected_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.EntityID, string(r.Metric), r.PreviousValue, r.CurrentValue, r.ChangePercent, boolToInt(r.IsSignificant), r.DetectedAt.UTC(),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert delta %s", r.ID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit delta insert")
}

func (s *SQLiteStore) ListDeltaRecords(ctx context.Context, entityID string, limit int) ([]model.DeltaRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entity_id, metric, previous_value, current_value, change_percent, is_significant, detected_at
		 FROM delta_records WHERE entity_id = ? ORDER BY detected_at DESC LIMIT ?`,
		entityID, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list deltas %s", entityID)
	}
	defer rows.Close()

	var records []model.DeltaRecord
	for rows.Next() {
		var r model.DeltaRecord
		var metric string
		var significant int
		var detectedAt time.Time
		if err := rows.Scan(&r.ID, &r.EntityID, &metric, &r.PreviousValue, &r.CurrentValue, &r.ChangePercent, &significant, &detectedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan delta")
		}
		r.Metric = model.MetricName(metric)
		r.IsSignificant = significant != 0
		r.DetectedAt = detectedAt
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list deltas iterate")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
