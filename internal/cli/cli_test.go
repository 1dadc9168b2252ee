package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/CoverCut/internal/model"
	"github.com/piwi3910/CoverCut/internal/project"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeCoverList(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "covers.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSizesCommand(t *testing.T) {
	out, err := execute(t, "sizes")
	require.NoError(t, err)

	assert.Contains(t, out, "Pocket")
	assert.Contains(t, out, "15 x 21")
	assert.Contains(t, out, "35.6 x 25") // A5 spiral cover
	assert.Contains(t, out, "fall back to A4")
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.json")

	out, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	_, err = execute(t, "config", "init", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "config", "init", "--config", path, "--force")
	require.NoError(t, err)

	out, err = execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"population_size": 60`)
	assert.Contains(t, out, `"sheet_width": 100`)
}

func TestOptimizeWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	items := writeCoverList(t, dir, "Kind,Size,Qty\nBook,A5,3\nNotebook,A4,2\nBook,A7,2\n")
	files := map[string]string{
		"--pdf":          filepath.Join(dir, "layout.pdf"),
		"--labels":       filepath.Join(dir, "labels.pdf"),
		"--dxf":          filepath.Join(dir, "layout.dxf"),
		"--chart":        filepath.Join(dir, "chart.html"),
		"--report":       filepath.Join(dir, "report.json"),
		"--metrics-file": filepath.Join(dir, "metrics.prom"),
	}

	args := []string{
		"optimize", "--config", filepath.Join(dir, "missing.json"),
		"--items", items, "--population", "8", "--generations", "5", "--seed", "3",
	}
	for flag, path := range files {
		args = append(args, flag, path)
	}

	out, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "sheets used:")
	assert.Contains(t, out, "seed 3")
	assert.Contains(t, out, "covers placed: 7")

	for flag, path := range files {
		info, err := os.Stat(path)
		require.NoError(t, err, "output of %s", flag)
		assert.Greater(t, info.Size(), int64(0), "output of %s", flag)
	}

	metrics, err := os.ReadFile(files["--metrics-file"])
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "covercut_generations_total")
	assert.Contains(t, string(metrics), "covercut_best_sheets")

	report, err := project.LoadReport(files["--report"])
	require.NoError(t, err)
	assert.Equal(t, int64(3), report.Seed)
	assert.Equal(t, 8, report.Config.PopulationSize)
	assert.Equal(t, 7, report.Layout.PlacedCount())
}

func TestOptimizeFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	cfg := model.DefaultAppConfig()
	cfg.PopulationSize = 4
	cfg.Generations = 2
	cfg.Seed = 9
	require.NoError(t, project.SaveAppConfig(cfgPath, cfg))

	items := writeCoverList(t, dir, "Size\nA6\nA6\n")
	report := filepath.Join(dir, "report.json")

	_, err := execute(t, "optimize", "--config", cfgPath, "--items", items, "--generations", "3", "--report", report)
	require.NoError(t, err)

	loaded, err := project.LoadReport(report)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Config.PopulationSize, "population comes from the config file")
	assert.Equal(t, 3, loaded.Config.Generations, "generations come from the flag")
	assert.Equal(t, int64(9), loaded.Seed)
}

func TestOptimizeNoFeasibleLayout(t *testing.T) {
	dir := t.TempDir()
	items := writeCoverList(t, dir, "Size,Qty\nA4,2\n")

	pdf := filepath.Join(dir, "layout.pdf")
	labels := filepath.Join(dir, "labels.pdf")
	dxf := filepath.Join(dir, "layout.dxf")
	chart := filepath.Join(dir, "chart.html")
	report := filepath.Join(dir, "report.json")

	out, err := execute(t, "optimize", "--config", filepath.Join(dir, "none.json"),
		"--items", items, "--sheet-width", "20", "--sheet-height", "20",
		"--population", "4", "--generations", "2", "--seed", "1",
		"--pdf", pdf, "--labels", labels, "--dxf", dxf, "--chart", chart, "--report", report)
	require.NoError(t, err)
	assert.Contains(t, out, "no feasible layout")
	assert.Contains(t, out, "unplaceable covers: 2")
	assert.Contains(t, out, "nothing to render")

	for _, path := range []string{pdf, labels, dxf} {
		assert.NoFileExists(t, path)
	}
	assert.FileExists(t, chart)

	loaded, err := project.LoadReport(report)
	require.NoError(t, err)
	assert.False(t, loaded.Fitness.Feasible)
	assert.Len(t, loaded.Layout.Unplaced, 2)
}

func TestOptimizeReportsSkippedRows(t *testing.T) {
	dir := t.TempDir()
	items := writeCoverList(t, dir, "Size,Qty\nA5,1\nA5,zero\n")

	out, err := execute(t, "optimize", "--config", filepath.Join(dir, "none.json"),
		"--items", items, "--population", "4", "--generations", "1", "--seed", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped: Line 3: Invalid quantity 'zero'")
}

func TestOptimizeErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "none.json")

	_, err := execute(t, "optimize", "--config", cfg)
	require.Error(t, err, "--items is required")

	empty := writeCoverList(t, dir, "Size\n")
	_, err = execute(t, "optimize", "--config", cfg, "--items", empty)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrEmptyCatalog)

	items := writeCoverList(t, dir, "Size\nA5\n")
	_, err = execute(t, "optimize", "--config", cfg, "--items", items, "--mutation", "2")
	require.Error(t, err)
	var invalid *model.InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "mutation_rate", invalid.Field)
}

func TestCompareCommand(t *testing.T) {
	dir := t.TempDir()
	items := writeCoverList(t, dir, "Kind,Size,Qty\nBook,A5,4\nNotebook,A6,3\n")

	out, err := execute(t, "compare", "--config", filepath.Join(dir, "none.json"),
		"--items", items, "--population", "6", "--generations", "3", "--seed", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "seed 5")
	assert.Contains(t, out, "Current Settings")
	assert.Contains(t, out, "No Crossover")
	assert.Contains(t, out, "*")
}
