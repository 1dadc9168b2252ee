package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/CoverCut/internal/engine"
	"github.com/piwi3910/CoverCut/internal/model"
)

func runSmall(t *testing.T) (engine.Result, engine.Config) {
	t.Helper()
	covers := []model.Cover{
		model.NewCover(model.KindBook, "A5", model.BindingSpiral, 0, 3),
		model.NewCover(model.KindNotebook, "A4", model.BindingCustomSpine, 1.5, 2),
	}
	cfg := engine.DefaultConfig()
	cfg.PopulationSize = 8
	cfg.Generations = 5

	result, err := engine.Optimize(context.Background(), model.ExpandCovers(covers), model.Sheet{Width: 100, Height: 70}, cfg, 7)
	require.NoError(t, err)
	return result, cfg
}

func TestSaveAndLoadReport(t *testing.T) {
	result, cfg := runSmall(t)
	path := filepath.Join(t.TempDir(), "runs", "report.json")

	report := NewReport(result, cfg, 7)
	require.NoError(t, SaveReport(path, report))

	loaded, err := LoadReport(path)
	require.NoError(t, err)

	assert.Equal(t, ReportVersion, loaded.Version)
	assert.NotEmpty(t, loaded.CreatedAt)
	assert.Equal(t, result.RunID, loaded.RunID)
	assert.Equal(t, int64(7), loaded.Seed)
	assert.Equal(t, cfg, loaded.Config)
	assert.Equal(t, result.Best.Fitness, loaded.Fitness)
	assert.Len(t, loaded.History, len(result.History))

	if diff := cmp.Diff(result.Best.Layout, loaded.Layout); diff != "" {
		t.Errorf("layout changed after round trip (-want +got):\n%s", diff)
	}
}

func TestLoadReportMissingFile(t *testing.T) {
	_, err := LoadReport(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadReportInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json}"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadReport(path)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestLoadReportMissingVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noversion.json")
	if err := os.WriteFile(path, []byte(`{"run_id":"abc"}`), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadReport(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing version")
}

func TestLoadReportRejectsOverflowingLayout(t *testing.T) {
	item := model.ItemSpec{Width: 60, Height: 20}
	report := Report{
		Version: ReportVersion,
		Layout: model.Layout{
			Sheet: model.Sheet{Width: 50, Height: 50},
			Sheets: []model.CutSheet{{
				UsedHeight: 20,
				Strips: []model.Strip{{
					Height:    20,
					UsedWidth: 60,
					Stacks: []model.Stack{{
						Width:      60,
						UsedHeight: 20,
						Items:      []model.PlacedItem{{Item: item, Width: 60, Height: 20}},
					}},
				}},
			}},
		},
	}
	path := filepath.Join(t.TempDir(), "overflow.json")
	require.NoError(t, SaveReport(path, report))

	_, err := LoadReport(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds sheet width")
}
