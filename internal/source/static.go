package source

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/consensus-engine/internal/model"
)

// StaticFetcher serves reports from a JSON fixture file, keyed by entity id.
// Used for offline runs and tests. File format:
//
//	{"acme": {"observed_at": "...", "metrics": {"revenue": 1e9}}}
type StaticFetcher struct {
	key     string
	entries map[string]wirePayload
}

// NewStaticFetcher loads a fixture file for one provider category.
func NewStaticFetcher(key, path string) (*StaticFetcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source %s: read fixture %s", key, path)
	}
	var entries map[string]wirePayload
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, eris.Wrapf(err, "source %s: parse fixture", key)
	}
	return &StaticFetcher{key: key, entries: entries}, nil
}

func (f *StaticFetcher) Key() string { return f.key }

// Fetch returns the fixture entry for the entity, or an error when absent so
// the orchestrator records the source as failed.
func (f *StaticFetcher) Fetch(_ context.Context, ref EntityRef) (model.SourceReport, error) {
	payload, ok := f.entries[ref.EntityID]
	if !ok {
		return model.SourceReport{}, eris.Errorf("source %s: no fixture for entity %s", f.key, ref.EntityID)
	}

	report := model.SourceReport{
		SourceID:   f.key,
		ObservedAt: payload.ObservedAt,
		Metrics:    make(map[model.MetricName]*float64, len(payload.Metrics)),
	}
	if report.ObservedAt.IsZero() {
		report.ObservedAt = time.Now().UTC()
	}
	for name, value := range payload.Metrics {
		metric := model.MetricName(name)
		if !metric.Valid() {
			continue
		}
		v := value
		report.Metrics[metric] = &v
	}
	return report, nil
}
