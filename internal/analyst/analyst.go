// Package analyst runs the downstream language-model read of a reconciled
// consensus. It consumes only the AI-safe text block, never raw per-source
// values, and refuses to run below the confidence gate.
package analyst

import (
	"context"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/consensus-engine/internal/model"
	"github.com/sells-group/consensus-engine/internal/reconcile"
	"github.com/sells-group/consensus-engine/internal/render"
)

// ErrConfidenceTooLow is returned when the consensus confidence is in the
// very_low bucket and analysis is blocked.
var ErrConfidenceTooLow = eris.New("analyst: overall confidence too low for analysis")

const systemPrompt = `You are a financial analyst. You receive reconciled
metrics for one entity. Metrics marked UNAVAILABLE are missing: never guess
or fabricate them, and call out which gaps limit your analysis. Weigh your
statements by the per-metric confidence annotations.`

// Client is the message-creation surface the analyst needs. Satisfied by
// the live SDK-backed client and by mocks in tests.
type Client interface {
	CreateMessage(ctx context.Context, model string, system, user string) (string, error)
}

// Analyst produces a qualitative read of an entity consensus.
type Analyst struct {
	client Client
	model  string
}

// New creates an Analyst.
func New(client Client, modelID string) *Analyst {
	return &Analyst{client: client, model: modelID}
}

// Analyze renders the consensus as the AI-safe block and asks the model for
// a short analysis. Returns ErrConfidenceTooLow without calling the model
// when the confidence bucket is very_low.
func (a *Analyst) Analyze(ctx context.Context, ec *model.EntityConsensus) (string, error) {
	if reconcile.Level(ec.OverallConfidence) == reconcile.LevelVeryLow {
		return "", ErrConfidenceTooLow
	}

	block := render.Consensus(ec)
	zap.L().Debug("requesting analysis",
		zap.String("entity", ec.EntityID),
		zap.Int("overall_confidence", ec.OverallConfidence),
	)

	out, err := a.client.CreateMessage(ctx, a.model, systemPrompt,
		"Analyze the following reconciled financials:\n\n"+block)
	if err != nil {
		return "", eris.Wrapf(err, "analyst: analyze %s", ec.EntityID)
	}
	return out, nil
}

// sdkClient implements Client with the official anthropic-sdk-go.
type sdkClient struct {
	client sdk.Client
}

// NewClient creates a live SDK-backed client.
func NewClient(apiKey string) Client {
	return &sdkClient{client: sdk.NewClient(option.WithAPIKey(apiKey))}
}

func (c *sdkClient) CreateMessage(ctx context.Context, modelID, system, user string) (string, error) {
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(modelID),
		MaxTokens: 1024,
		System: []sdk.TextBlockParam{
			{Text: system},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "anthropic: create message")
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}
