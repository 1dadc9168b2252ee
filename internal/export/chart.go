package export

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/piwi3910/CoverCut/internal/engine"
)

// RenderConvergenceChart writes an HTML line chart of the best and mean
// fitness per generation.
func RenderConvergenceChart(w io.Writer, title string, history []engine.GenerationStat) error {
	if len(history) == 0 {
		return fmt.Errorf("no generations to chart")
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%d generations", len(history)),
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Generation",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Fitness",
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}))

	gens := make([]int, len(history))
	best := make([]opts.LineData, len(history))
	mean := make([]opts.LineData, len(history))
	for i, stat := range history {
		gens[i] = stat.Generation
		best[i] = fitnessPoint(stat.Best.Feasible, stat.Best.Score)
		mean[i] = fitnessPoint(stat.MeanScore > 0, stat.MeanScore)
	}

	line.SetXAxis(gens).
		AddSeries("Best", best).
		AddSeries("Population mean", mean).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}),
		)

	return line.Render(w)
}

// fitnessPoint leaves infeasible generations as gaps in the line.
func fitnessPoint(feasible bool, score float64) opts.LineData {
	if !feasible {
		return opts.LineData{Value: "-"}
	}
	return opts.LineData{Value: score}
}

// ExportConvergenceChart writes the convergence chart to an HTML file.
func ExportConvergenceChart(path, title string, history []engine.GenerationStat) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return RenderConvergenceChart(f, title, history)
}
