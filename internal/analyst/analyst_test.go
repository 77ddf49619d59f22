package analyst

import (
	"context"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/consensus-engine/internal/model"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) CreateMessage(ctx context.Context, modelID, system, user string) (string, error) {
	args := m.Called(ctx, modelID, system, user)
	return args.String(0), args.Error(1)
}

func f(v float64) *float64 { return &v }

func consensusWithConfidence(confidence int) *model.EntityConsensus {
	return &model.EntityConsensus{
		EntityID:   "acme",
		EntityName: "Acme Corp",
		EntityKind: model.EntityCompany,
		Metrics: map[model.MetricName]model.MetricConsensus{
			model.MetricRevenue: {Value: f(1e9), Confidence: confidence, IsAvailable: true},
		},
		OverallConfidence: confidence,
	}
}

func TestAnalyze_BlocksVeryLowConfidence(t *testing.T) {
	client := new(mockClient)
	a := New(client, "claude-sonnet-4-5")

	_, err := a.Analyze(context.Background(), consensusWithConfidence(29))

	assert.ErrorIs(t, err, ErrConfidenceTooLow)
	client.AssertNotCalled(t, "CreateMessage")
}

func TestAnalyze_PassesRenderedBlock(t *testing.T) {
	client := new(mockClient)
	client.On("CreateMessage", mock.Anything, "claude-sonnet-4-5", mock.Anything, mock.MatchedBy(func(user string) bool {
		// The model sees the formatted block, not raw numbers.
		return strings.Contains(user, "Acme Corp") &&
			strings.Contains(user, "Revenue: $1.00B") &&
			strings.Contains(user, "UNAVAILABLE")
	})).Return("solid revenue, many gaps", nil)

	a := New(client, "claude-sonnet-4-5")
	out, err := a.Analyze(context.Background(), consensusWithConfidence(80))

	require.NoError(t, err)
	assert.Equal(t, "solid revenue, many gaps", out)
	client.AssertExpectations(t)
}

func TestAnalyze_WrapsClientError(t *testing.T) {
	client := new(mockClient)
	client.On("CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", eris.New("api unavailable"))

	a := New(client, "claude-sonnet-4-5")
	_, err := a.Analyze(context.Background(), consensusWithConfidence(80))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "acme")
}
