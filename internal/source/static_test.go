package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/consensus-engine/internal/model"
)

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestStaticFetcher_Fetch(t *testing.T) {
	path := writeFixture(t, `{
		"acme": {
			"observed_at": "2026-08-30T12:00:00Z",
			"metrics": {"revenue": 1e9, "net_margin": 12.5, "not_a_metric": 1}
		}
	}`)

	f, err := NewStaticFetcher("financial_api", path)
	require.NoError(t, err)
	assert.Equal(t, "financial_api", f.Key())

	report, err := f.Fetch(context.Background(), EntityRef{EntityID: "acme"})
	require.NoError(t, err)
	assert.Equal(t, "financial_api", report.SourceID)
	assert.Equal(t, "2026-08-30T12:00:00Z", report.ObservedAt.Format("2006-01-02T15:04:05Z07:00"))

	// Unknown metric names are dropped, known ones kept.
	require.Len(t, report.Metrics, 2)
	assert.Equal(t, 1e9, *report.Metrics[model.MetricRevenue])
	assert.Equal(t, 12.5, *report.Metrics[model.MetricNetMargin])
}

func TestStaticFetcher_UnknownEntity(t *testing.T) {
	path := writeFixture(t, `{"acme": {"metrics": {"revenue": 1}}}`)

	f, err := NewStaticFetcher("financial_api", path)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), EntityRef{EntityID: "globex"})
	assert.Error(t, err)
}

func TestStaticFetcher_MissingObservedAtDefaultsToNow(t *testing.T) {
	path := writeFixture(t, `{"acme": {"metrics": {"revenue": 1}}}`)

	f, err := NewStaticFetcher("financial_api", path)
	require.NoError(t, err)

	report, err := f.Fetch(context.Background(), EntityRef{EntityID: "acme"})
	require.NoError(t, err)
	assert.False(t, report.ObservedAt.IsZero())
}

func TestNewStaticFetcher_BadFile(t *testing.T) {
	_, err := NewStaticFetcher("financial_api", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := writeFixture(t, `not json`)
	_, err = NewStaticFetcher("financial_api", path)
	assert.Error(t, err)
}
