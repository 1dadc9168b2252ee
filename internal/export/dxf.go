package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"

	"github.com/piwi3910/CoverCut/internal/model"
)

// DXF layer names. Cut lines go on their own layer so plotters and cutters
// can be pointed at it alone; fold lines are scored, not cut.
const (
	LayerSheet  = "SHEET"
	LayerCut    = "CUT"
	LayerFold   = "FOLD"
	LayerLabels = "LABELS"
)

// dxfSheetGap is the horizontal space between consecutive sheets in the drawing (cm).
const dxfSheetGap = 10.0

// ExportDXF writes the layout as a DXF drawing in centimetres. Sheets are
// placed left to right; each cover contributes its outline on the cut layer,
// its fold and spine lines on the fold layer, and its name on the label layer.
// DXF has Y pointing up, so sheet coordinates are flipped.
func ExportDXF(path string, layout model.Layout) error {
	if len(layout.Sheets) == 0 {
		return fmt.Errorf("no sheets to export")
	}

	d := dxf.NewDrawing()
	layers := []struct {
		name  string
		color color.ColorNumber
	}{
		{LayerSheet, color.White},
		{LayerCut, color.Red},
		{LayerFold, color.Blue},
		{LayerLabels, color.Green},
	}
	for _, l := range layers {
		if _, err := d.AddLayer(l.name, l.color, dxf.DefaultLineType, false); err != nil {
			return fmt.Errorf("adding layer %s: %w", l.name, err)
		}
	}

	sheetH := layout.Sheet.Height
	for i, sheet := range layout.Sheets {
		ox := float64(i) * (layout.Sheet.Width + dxfSheetGap)
		flip := func(y float64) float64 { return sheetH - y }

		if err := d.ChangeLayer(LayerSheet); err != nil {
			return err
		}
		if err := dxfRect(d, ox, 0, layout.Sheet.Width, sheetH); err != nil {
			return err
		}
		if _, err := d.Text(fmt.Sprintf("Sheet %d", i+1), ox, sheetH+1, 0, 2); err != nil {
			return err
		}

		for _, p := range sheet.Items() {
			if err := d.ChangeLayer(LayerCut); err != nil {
				return err
			}
			if err := dxfRect(d, ox+p.X, flip(p.Y+p.Height), p.Width, p.Height); err != nil {
				return err
			}

			if err := d.ChangeLayer(LayerFold); err != nil {
				return err
			}
			for _, panel := range p.Panels()[1:] {
				if err := dxfRect(d, ox+panel.X, flip(panel.Y+panel.Height), panel.Width, panel.Height); err != nil {
					return err
				}
			}

			if p.Item.Name == "" {
				continue
			}
			if err := d.ChangeLayer(LayerLabels); err != nil {
				return err
			}
			textH := labelTextHeight(p.Width, p.Height)
			if _, err := d.Text(p.Item.Name, ox+p.X+1, flip(p.Y+p.Height/2), 0, textH); err != nil {
				return err
			}
		}
	}

	return d.SaveAs(path)
}

// dxfRect draws an axis-aligned rectangle as four lines from its lower-left corner.
func dxfRect(d *drawing.Drawing, x, y, w, h float64) error {
	corners := [][2]float64{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
	for i := range corners {
		a := corners[i]
		b := corners[(i+1)%len(corners)]
		if _, err := d.Line(a[0], a[1], 0, b[0], b[1], 0); err != nil {
			return err
		}
	}
	return nil
}

// labelTextHeight scales label text to the piece, between 0.5 and 2 cm.
func labelTextHeight(w, h float64) float64 {
	t := min(w, h) / 10
	return max(0.5, min(t, 2))
}
