package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/CoverCut/internal/model"
)

// LabelInfo is the payload of a cover label's QR code.
type LabelInfo struct {
	Name       string  `json:"name"`
	ItemID     int     `json:"item"`
	Width      float64 `json:"width_cm"`
	Height     float64 `json:"height_cm"`
	Spine      float64 `json:"spine_cm"`
	SheetIndex int     `json:"sheet"`
	Rotated    bool    `json:"rotated"`
	X          float64 `json:"x_cm"`
	Y          float64 `json:"y_cm"`
}

// labelGrid describes a sheet of adhesive labels in mm.
type labelGrid struct {
	paper      string
	marginTop  float64
	marginLeft float64
	cellW      float64
	cellH      float64
	cols, rows int
}

// a4Labels is the common 3 x 8 grid of 70 x 37 mm labels on A4.
var a4Labels = labelGrid{
	paper:      "A4",
	marginTop:  0.5,
	marginLeft: 0,
	cellW:      70,
	cellH:      37,
	cols:       3,
	rows:       8,
}

func (g labelGrid) perPage() int { return g.cols * g.rows }

// cell returns the page and top-left corner of the i-th label.
func (g labelGrid) cell(i int) (page int, x, y float64) {
	page = i / g.perPage()
	pos := i % g.perPage()
	x = g.marginLeft + float64(pos%g.cols)*g.cellW
	y = g.marginTop + float64(pos/g.cols)*g.cellH
	return page, x, y
}

const (
	qrSide     = 26.0
	labelInset = 2.5
)

// ExportLabels writes one QR label per placed cover so cut pieces can be
// matched back to the book they wrap.
func ExportLabels(path string, layout model.Layout) error {
	if len(layout.Sheets) == 0 {
		return errors.New("no sheets to generate labels for")
	}
	labels := CollectLabelInfos(layout)
	if len(labels) == 0 {
		return errors.New("no covers placed to generate labels for")
	}

	grid := a4Labels
	pdf := fpdf.New("P", "mm", grid.paper, "")
	pdf.SetAutoPageBreak(false, 0)

	page := -1
	for i, info := range labels {
		p, x, y := grid.cell(i)
		if p != page {
			pdf.AddPage()
			page = p
		}
		if err := drawLabel(pdf, grid, x, y, i, info); err != nil {
			return fmt.Errorf("label %d (%s): %w", i+1, info.Name, err)
		}
	}
	return pdf.OutputFileAndClose(path)
}

func drawLabel(pdf *fpdf.Fpdf, grid labelGrid, x, y float64, index int, info LabelInfo) error {
	payload, err := json.Marshal(info)
	if err != nil {
		return err
	}
	png, err := qrcode.Encode(string(payload), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("encoding QR code: %w", err)
	}

	// Cut guide
	pdf.SetDrawColor(210, 210, 210)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, grid.cellW, grid.cellH, "D")

	img := fmt.Sprintf("qr-%d", index)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(img, opts, bytes.NewReader(png))
	pdf.ImageOptions(img, x+grid.cellW-qrSide-labelInset, y+(grid.cellH-qrSide)/2, qrSide, qrSide, false, opts, 0, "")

	textW := grid.cellW - qrSide - 3*labelInset
	line := func(style string, size, h float64, r, g, b int, text string) {
		pdf.SetFont("Helvetica", style, size)
		pdf.SetTextColor(r, g, b)
		pdf.SetX(x + labelInset)
		pdf.CellFormat(textW, h, fitText(pdf, text, textW), "", 1, "L", false, 0, "")
	}

	pdf.SetY(y + labelInset)
	line("B", 11, 5.5, 0, 0, 0, info.Name)
	line("", 8, 4, 0, 0, 0, fmt.Sprintf("%.1f x %.1f cm", info.Width, info.Height))
	if info.Spine > 0 {
		line("", 8, 4, 0, 0, 0, fmt.Sprintf("spine %.1f cm", info.Spine))
	}
	line("", 7, 4, 90, 90, 90, fmt.Sprintf("sheet %d at %.1f, %.1f", info.SheetIndex, info.X, info.Y))
	if info.Rotated {
		line("I", 7, 4, 160, 100, 0, "rotated")
	}
	line("", 6, 3.5, 140, 140, 140, fmt.Sprintf("#%d", index+1))

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// fitText shortens text with an ellipsis until it fits width.
func fitText(pdf *fpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	r := []rune(text)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

// CollectLabelInfos returns one label per placed cover in sheet and
// placement order.
func CollectLabelInfos(layout model.Layout) []LabelInfo {
	var labels []LabelInfo
	for i, sheet := range layout.Sheets {
		for _, p := range sheet.Items() {
			labels = append(labels, LabelInfo{
				Name:       p.Item.Name,
				ItemID:     p.Item.ID,
				Width:      p.Item.Width,
				Height:     p.Item.Height,
				Spine:      p.Item.Spine,
				SheetIndex: i + 1,
				Rotated:    p.Rotated,
				X:          p.X,
				Y:          p.Y,
			})
		}
	}
	return labels
}
