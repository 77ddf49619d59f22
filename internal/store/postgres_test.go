package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/consensus-engine/internal/model"
)

func newMockPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresFromPool(mock), mock
}

func TestPostgres_ReadLatestNoRows(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT payload FROM consensus_snapshots`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	ec, err := s.ReadLatest(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, ec)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ReadLatestDecodesPayload(t *testing.T) {
	s, mock := newMockPostgres(t)

	want := testConsensus("acme", "FY2026", time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	payload, err := json.Marshal(want)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT payload FROM consensus_snapshots`).
		WithArgs("acme").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(payload))

	got, err := s.ReadLatest(context.Background(), "acme")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "acme", got.EntityID)
	assert.Equal(t, 80, got.OverallConfidence)
	assert.Equal(t, 1e9, *got.Metric(model.MetricRevenue).Value)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Upsert(t *testing.T) {
	s, mock := newMockPostgres(t)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	ec := testConsensus("acme", "FY2026", now)

	mock.ExpectExec(`INSERT INTO consensus_snapshots`).
		WithArgs("acme", "FY2026", pgxmock.AnyArg(), now, now.Add(24*time.Hour)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.Upsert(context.Background(), ec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertDeltaRecords(t *testing.T) {
	s, mock := newMockPostgres(t)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	records := []model.DeltaRecord{
		{ID: "d1", EntityID: "acme", Metric: model.MetricRevenue, PreviousValue: 100, CurrentValue: 106, ChangePercent: 6, IsSignificant: true, DetectedAt: now},
		{ID: "d2", EntityID: "acme", Metric: model.MetricSharePrice, PreviousValue: 50, CurrentValue: 51.5, ChangePercent: 3, DetectedAt: now},
	}
	for _, r := range records {
		mock.ExpectExec(`INSERT INTO delta_records`).
			WithArgs(r.ID, "acme", string(r.Metric), r.PreviousValue, r.CurrentValue, r.ChangePercent, r.IsSignificant, now).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	require.NoError(t, s.InsertDeltaRecords(context.Background(), records))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListDeltaRecords(t *testing.T) {
	s, mock := newMockPostgres(t)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"id", "entity_id", "metric", "previous_value", "current_value", "change_percent", "is_significant", "detected_at"}).
		AddRow("d2", "acme", "share_price", 50.0, 51.5, 3.0, false, now).
		AddRow("d1", "acme", "revenue", 100.0, 106.0, 6.0, true, now.Add(-time.Hour))

	mock.ExpectQuery(`SELECT .+ FROM delta_records`).
		WithArgs("acme", 10).
		WillReturnRows(rows)

	got, err := s.ListDeltaRecords(context.Background(), "acme", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.MetricSharePrice, got[0].Metric)
	assert.True(t, got[1].IsSignificant)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Migrate(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS consensus_snapshots`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
