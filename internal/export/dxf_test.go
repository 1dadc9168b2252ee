package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/CoverCut/internal/engine"
	"github.com/piwi3910/CoverCut/internal/model"
)

func packIdentity(cat *model.Catalog) model.Layout {
	return engine.Pack(cat.IDs(), model.Sheet{Width: 100, Height: 70}, cat)
}

func TestExportDXF_WritesCutAndFoldLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.dxf")

	cat, err := model.NewCatalog(model.ExpandCovers([]model.Cover{{Kind: model.KindBook, Size: "A5", Quantity: 2}}))
	require.NoError(t, err)
	layout := packIdentity(cat)
	require.Equal(t, 1, layout.SheetCount())

	require.NoError(t, ExportDXF(path, layout))

	drawing, err := dxf.Open(path)
	require.NoError(t, err)

	var lines, texts int
	for _, ent := range drawing.Entities() {
		switch ent.(type) {
		case *entity.Line:
			lines++
		case *entity.Text:
			texts++
		}
	}
	// Sheet outline, plus per cover: outline and three inner panels.
	assert.Equal(t, 4+2*4*4, lines)
	// Sheet title plus one name per cover.
	assert.Equal(t, 1+2, texts)
}

func TestExportDXF_EmptyLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.dxf")
	assert.Error(t, ExportDXF(path, model.Layout{}))
}

func TestLabelTextHeight(t *testing.T) {
	assert.Equal(t, 0.5, labelTextHeight(3, 40))
	assert.Equal(t, 2.0, labelTextHeight(60, 40))
	assert.InDelta(t, 1.5, labelTextHeight(15, 40), 1e-9)
}
