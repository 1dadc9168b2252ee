package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/piwi3910/CoverCut/internal/engine"
	"github.com/piwi3910/CoverCut/internal/model"
)

type compareOptions struct {
	*globalOptions
	search searchFlags
	items  string
}

func newCompareCommand(global *globalOptions) *cobra.Command {
	o := &compareOptions{globalOptions: global}

	cmd := &cobra.Command{
		Use:   "compare --items FILE",
		Short: "Run the search with several parameter sets and compare the layouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			o.search.apply(cmd.Flags(), &cfg)
			return o.run(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	o.search.register(cmd.Flags())
	cmd.Flags().StringVar(&o.items, "items", "", "cover list to lay out (.csv or .xlsx)")
	_ = cmd.MarkFlagRequired("items")
	return cmd
}

func (o *compareOptions) run(ctx context.Context, out io.Writer, cfg model.AppConfig) error {
	items, err := loadItems(out, o.items)
	if err != nil {
		return err
	}
	catalog, err := model.NewCatalog(items)
	if err != nil {
		return fmt.Errorf("building catalog: %w", err)
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	scenarios := engine.BuildDefaultScenarios(o.search.engineConfig(cfg))
	results, err := engine.CompareScenarios(ctx, scenarios, catalog, cfg.Sheet(), cfg.Seed)
	if err != nil {
		return err
	}
	printComparison(out, results, cfg.Seed)
	return nil
}

func printComparison(out io.Writer, results []engine.ComparisonResult, seed int64) {
	best := engine.BestComparison(results)

	fmt.Fprintf(out, "seed %d\n", seed)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tSHEETS\tFITNESS\tWASTE\tUNPLACED\tGENERATIONS\t")
	for i, r := range results {
		marker := ""
		if i == best {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s%s\t%d\t%s\t%.1f%%\t%d\t%d\t\n",
			r.Scenario.Name, marker, r.SheetsUsed, r.Fitness, r.WastePercent, r.UnplacedCount, r.Result.Generations)
	}
	tw.Flush()
}
