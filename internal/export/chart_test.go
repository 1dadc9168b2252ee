package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/CoverCut/internal/engine"
	"github.com/piwi3910/CoverCut/internal/model"
)

func TestRenderConvergenceChart(t *testing.T) {
	items := model.ExpandCovers([]model.Cover{{Kind: model.KindBook, Size: "A5", Quantity: 6}})
	cfg := engine.DefaultConfig()
	cfg.PopulationSize = 6
	cfg.Generations = 4
	res, err := engine.Optimize(context.Background(), items, model.Sheet{Width: 100, Height: 70}, cfg, 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderConvergenceChart(&buf, "Covers", res.History))
	html := buf.String()
	assert.Contains(t, html, "Covers")
	assert.Contains(t, html, "Population mean")
}

func TestRenderConvergenceChart_Empty(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, RenderConvergenceChart(&buf, "none", nil))
}

func TestExportConvergenceChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.html")
	history := []engine.GenerationStat{
		{Generation: 0, Best: engine.Feasible(2.5), MeanScore: 2.9},
		{Generation: 1, Best: engine.Feasible(2.2), MeanScore: 2.7},
		{Generation: 2, Best: engine.Infeasible(), Infeasible: 3},
	}
	require.NoError(t, ExportConvergenceChart(path, "Run", history))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
