package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/piwi3910/CoverCut/internal/engine"
	"github.com/piwi3910/CoverCut/internal/export"
	"github.com/piwi3910/CoverCut/internal/importer"
	"github.com/piwi3910/CoverCut/internal/model"
	"github.com/piwi3910/CoverCut/internal/project"
)

type optimizeOptions struct {
	*globalOptions
	search searchFlags

	items       string
	timeout     time.Duration
	pdf         string
	labels      string
	dxf         string
	chart       string
	report      string
	metricsFile string
}

func newOptimizeCommand(global *globalOptions) *cobra.Command {
	o := &optimizeOptions{globalOptions: global}

	cmd := &cobra.Command{
		Use:   "optimize --items FILE",
		Short: "Find a layout for a cover list",
		Example: `  covercut optimize --items class-3b.csv --pdf layout.pdf --labels labels.pdf
  covercut optimize --items covers.xlsx --generations 300 --patience 40 --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			o.search.apply(cmd.Flags(), &cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if o.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, o.timeout)
				defer cancel()
			}
			return o.run(ctx, cmd.OutOrStdout(), cfg)
		},
	}

	fs := cmd.Flags()
	o.search.register(fs)
	fs.StringVar(&o.items, "items", "", "cover list to lay out (.csv or .xlsx)")
	fs.DurationVar(&o.timeout, "timeout", 0, "stop the search after this long and keep the best layout so far")
	fs.StringVar(&o.pdf, "pdf", "", "write the layout as a PDF")
	fs.StringVar(&o.labels, "labels", "", "write QR cover labels as a PDF")
	fs.StringVar(&o.dxf, "dxf", "", "write cut and fold lines as DXF")
	fs.StringVar(&o.chart, "chart", "", "write the convergence chart as HTML")
	fs.StringVar(&o.report, "report", "", "write the run report as JSON")
	fs.StringVar(&o.metricsFile, "metrics-file", "", "write run metrics in Prometheus text format")
	_ = cmd.MarkFlagRequired("items")

	return cmd
}

// loadItems imports a cover list and reports its row problems to out.
// It fails only when nothing usable was read.
func loadItems(out io.Writer, path string) ([]model.ItemInput, error) {
	result := importer.ImportFile(path)
	for _, w := range result.Warnings {
		klog.V(1).InfoS("Import warning", "file", path, "warning", w)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(out, "skipped: %s\n", e)
	}
	if result.Empty() {
		if len(result.Errors) > 0 {
			return nil, fmt.Errorf("importing %s: %s", path, result.Errors[0])
		}
		return nil, fmt.Errorf("importing %s: %w", path, model.ErrEmptyCatalog)
	}
	return result.Items(), nil
}

func (o *optimizeOptions) run(ctx context.Context, out io.Writer, cfg model.AppConfig) error {
	items, err := loadItems(out, o.items)
	if err != nil {
		return err
	}
	catalog, err := model.NewCatalog(items)
	if err != nil {
		return fmt.Errorf("building catalog: %w", err)
	}

	// A fixed seed makes the run reproducible from the printed summary.
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	ecfg := o.search.engineConfig(cfg)

	ga, err := engine.NewGA(ecfg, cfg.Sheet(), catalog, engine.NewRand(cfg.Seed))
	if err != nil {
		return err
	}
	registry := prometheus.NewRegistry()
	ga.Metrics = engine.NewMetrics(registry)

	logger := klog.FromContext(ctx).WithName("optimize")
	result, err := ga.Run(klog.NewContext(ctx, logger))
	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		fmt.Fprintf(out, "search interrupted (%v), keeping the best layout so far\n", err)
	}

	printSummary(out, result, cfg)

	if err := o.writeOutputs(out, result, ecfg, cfg.Seed); err != nil {
		return err
	}
	if o.metricsFile != "" {
		if err := prometheus.WriteToTextfile(o.metricsFile, registry); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}

// writeOutputs writes the requested files. The sheet renderings (PDF, labels,
// DXF) are skipped when no layout is feasible; the chart and report are
// still written.
func (o *optimizeOptions) writeOutputs(out io.Writer, result engine.Result, ecfg engine.Config, seed int64) error {
	layout := result.Best.Layout
	feasible := result.Feasible()
	if !feasible {
		var skipped []string
		for _, path := range []string{o.pdf, o.labels, o.dxf} {
			if path != "" {
				skipped = append(skipped, path)
			}
		}
		if len(skipped) > 0 {
			fmt.Fprintf(out, "nothing to render, not writing %s\n", strings.Join(skipped, ", "))
			klog.V(1).InfoS("Skipping sheet outputs for infeasible layout", "files", skipped)
		}
	}
	if o.pdf != "" && feasible {
		info := export.RunInfo{
			RunID:       result.RunID,
			Fitness:     result.Best.Fitness.String(),
			Generations: result.Generations,
			Seed:        seed,
			Stopped:     string(result.Stopped),
		}
		if err := export.ExportPDF(o.pdf, layout, info); err != nil {
			return fmt.Errorf("writing PDF: %w", err)
		}
	}
	if o.labels != "" && feasible {
		if err := export.ExportLabels(o.labels, layout); err != nil {
			return fmt.Errorf("writing labels: %w", err)
		}
	}
	if o.dxf != "" && feasible {
		if err := export.ExportDXF(o.dxf, layout); err != nil {
			return fmt.Errorf("writing DXF: %w", err)
		}
	}
	if o.chart != "" {
		title := fmt.Sprintf("Run %s", result.RunID)
		if err := export.ExportConvergenceChart(o.chart, title, result.History); err != nil {
			return fmt.Errorf("writing chart: %w", err)
		}
	}
	if o.report != "" {
		if err := project.SaveReport(o.report, project.NewReport(result, ecfg, seed)); err != nil {
			return err
		}
	}
	return nil
}

// printSummary writes the run outcome. An infeasible result is reported,
// not treated as an error.
func printSummary(out io.Writer, result engine.Result, cfg model.AppConfig) {
	layout := result.Best.Layout

	fmt.Fprintf(out, "run %s: %d generations, %s, seed %d\n", result.RunID, result.Generations, result.Stopped, cfg.Seed)
	if !result.Feasible() {
		fmt.Fprintln(out, "no feasible layout: no cover fits a sheet")
	} else {
		fmt.Fprintf(out, "sheets used: %d (%.0f x %.0f cm)\n", layout.SheetCount(), cfg.SheetWidth, cfg.SheetHeight)
		fmt.Fprintf(out, "fitness: %s\n", result.Best.Fitness)
		fmt.Fprintf(out, "covers placed: %d, efficiency %.1f%%, last sheet %.0f%% used\n",
			layout.PlacedCount(), layout.Efficiency(), layout.LastSheetUtilization()*100)
		for i, sheet := range layout.Sheets {
			names := make([]string, 0, len(sheet.Items()))
			for _, p := range sheet.Items() {
				name := p.Item.Name
				if p.Rotated {
					name += " (R)"
				}
				names = append(names, name)
			}
			fmt.Fprintf(out, "  sheet %d: %s\n", i+1, strings.Join(names, ", "))
		}
	}

	if len(layout.Unplaced) > 0 {
		fmt.Fprintf(out, "unplaceable covers: %d\n", len(layout.Unplaced))
		for _, err := range layout.UnplacedErrors() {
			fmt.Fprintf(out, "  %v\n", err)
		}
	}
}
