package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/consensus-engine/internal/model"
	"github.com/sells-group/consensus-engine/internal/orchestrator"
	"github.com/sells-group/consensus-engine/internal/render"
)

var (
	resolveName    string
	resolveKind    string
	resolvePeriod  string
	resolveTicker  string
	resolveRefresh bool
	resolveJSON    bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <entity-id>",
	Short: "Reconcile one entity's metrics across all configured sources",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Orchestrator.Resolve(ctx, orchestrator.Request{
			EntityID:     args[0],
			EntityName:   resolveName,
			Kind:         model.EntityKind(resolveKind),
			FiscalPeriod: resolvePeriod,
			Ticker:       resolveTicker,
			ForceRefresh: resolveRefresh,
		})
		if err != nil {
			return eris.Wrap(err, "resolve")
		}

		if resolveJSON {
			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return eris.Wrap(err, "encode resolution")
			}
			fmt.Println(string(out))
			return nil
		}

		fmt.Print(render.Consensus(res.Consensus))
		if res.CacheHit {
			fmt.Println("\n(served from result cache)")
		} else {
			fmt.Printf("\nSources attempted: %d, failed: %d\n", len(res.SourcesAttempted), len(res.SourcesFailed))
		}
		if res.Delta != nil && res.Delta.HasSignificantChange {
			fmt.Printf("Changed since last snapshot: %d headline metrics (max %.1f%%)\n",
				len(res.Delta.ChangedMetrics), res.Delta.MaxChangePercent)
		}
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveName, "name", "", "entity display name")
	resolveCmd.Flags().StringVar(&resolveKind, "kind", string(model.EntityCompany), "entity kind (company|industry)")
	resolveCmd.Flags().StringVar(&resolvePeriod, "period", "FY2026", "fiscal period label")
	resolveCmd.Flags().StringVar(&resolveTicker, "ticker", "", "exchange ticker")
	resolveCmd.Flags().BoolVar(&resolveRefresh, "refresh", false, "bypass the result cache")
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "emit the full structured resolution")
	rootCmd.AddCommand(resolveCmd)
}
