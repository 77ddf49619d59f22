package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/consensus-engine/internal/analyst"
	"github.com/sells-group/consensus-engine/internal/model"
	"github.com/sells-group/consensus-engine/internal/orchestrator"
)

var (
	analyzeName   string
	analyzePeriod string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <entity-id>",
	Short: "Resolve an entity and run the Claude analysis step",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Anthropic.Key == "" {
			return eris.New("anthropic.key is not configured")
		}

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Orchestrator.Resolve(ctx, orchestrator.Request{
			EntityID:     args[0],
			EntityName:   analyzeName,
			Kind:         model.EntityCompany,
			FiscalPeriod: analyzePeriod,
		})
		if err != nil {
			return eris.Wrap(err, "resolve")
		}

		a := analyst.New(analyst.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model)
		text, err := a.Analyze(ctx, res.Consensus)
		if err != nil {
			if eris.Is(err, analyst.ErrConfidenceTooLow) {
				return eris.Errorf(
					"analysis blocked: overall confidence %d%% is very low; resolve more sources first",
					res.Consensus.OverallConfidence)
			}
			return err
		}

		fmt.Println(text)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeName, "name", "", "entity display name")
	analyzeCmd.Flags().StringVar(&analyzePeriod, "period", "FY2026", "fiscal period label")
	rootCmd.AddCommand(analyzeCmd)
}
