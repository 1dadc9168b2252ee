package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/CoverCut/internal/engine"
	"github.com/piwi3910/CoverCut/internal/model"
)

// buildTestLayout packs a realistic mix of covers onto two or more sheets.
func buildTestLayout(t *testing.T) model.Layout {
	t.Helper()
	items := model.ExpandCovers([]model.Cover{
		{Kind: model.KindBook, Size: "A4", Quantity: 4},
		{Kind: model.KindNotebook, Size: "A5", Quantity: 3},
		{Kind: model.KindBook, Size: "A7", Binding: model.BindingCustomSpine, Spine: 1.5, Quantity: 2},
	})
	cat, err := model.NewCatalog(items)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	layout := engine.Pack(cat.IDs(), model.Sheet{Width: 100, Height: 70}, cat)
	if layout.SheetCount() < 2 {
		t.Fatalf("expected test layout to span several sheets, got %d", layout.SheetCount())
	}
	return layout
}

func TestExportPDF_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test_output.pdf")

	info := RunInfo{RunID: "run-1", Fitness: "2.3000", Generations: 80, Seed: 42, Stopped: "completed"}
	if err := ExportPDF(path, buildTestLayout(t), info); err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}

	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("PDF file was not created: %v", err)
	}
	if st.Size() < 500 {
		t.Errorf("PDF file seems too small: %d bytes", st.Size())
	}
}

func TestExportPDF_EmptyLayout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.pdf")

	err := ExportPDF(path, model.Layout{Sheet: model.Sheet{Width: 100, Height: 70}}, RunInfo{})
	if err == nil {
		t.Fatal("expected error for empty layout, got nil")
	}
}

func TestExportPDF_WithUnplacedCovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unplaced.pdf")

	layout := buildTestLayout(t)
	layout.Unplaced = []model.ItemSpec{
		{ID: 90, Name: "Art poster", Width: 150, Height: 120},
	}

	if err := ExportPDF(path, layout, RunInfo{}); err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("PDF file was not created: %v", err)
	}
}

func TestExportPDF_InvalidPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "out.pdf")
	if err := ExportPDF(path, buildTestLayout(t), RunInfo{}); err == nil {
		t.Fatal("expected error writing to a missing directory")
	}
}

func TestPanelColorsCoverEveryKind(t *testing.T) {
	for _, kind := range []model.PanelKind{model.PanelTab, model.PanelFront, model.PanelSpine, model.PanelBack} {
		if PanelColor(kind) == (RGB{}) {
			t.Errorf("no color for panel kind %s", kind)
		}
	}
}

func TestLabelFontSize(t *testing.T) {
	if got := labelFontSize(50, 45); got != 8 {
		t.Errorf("expected 8 for large rect, got %v", got)
	}
	if got := labelFontSize(50, 25); got != 7 {
		t.Errorf("expected 7 for medium rect, got %v", got)
	}
	if got := labelFontSize(10, 50); got != 6 {
		t.Errorf("expected 6 for small rect, got %v", got)
	}
}
