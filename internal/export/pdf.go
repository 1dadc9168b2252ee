// Package export provides functionality for exporting cover layouts
// to various file formats.
package export

import (
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/CoverCut/internal/model"
)

// RGB is a fill color for one panel kind.
type RGB struct {
	R, G, B int
}

// panelColors is the palette shared by every renderer, indexed by panel kind.
var panelColors = map[model.PanelKind]RGB{
	model.PanelTab:   {R: 169, G: 223, B: 191}, // soft green fold margin
	model.PanelFront: {R: 93, G: 173, B: 226},  // blue
	model.PanelSpine: {R: 86, G: 101, B: 115},  // dark grey
	model.PanelBack:  {R: 245, G: 176, B: 65},  // orange
}

// PanelColor returns the fill color used for a panel kind.
func PanelColor(kind model.PanelKind) RGB {
	return panelColors[kind]
}

// RunInfo describes the optimization run that produced a layout. It is
// printed on the summary page and may be left empty.
type RunInfo struct {
	RunID       string
	Fitness     string
	Generations int
	Seed        int64
	Stopped     string
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	statsHeight  = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// ExportPDF generates a PDF document containing the layout. Each cut sheet
// is rendered on its own page with every cover drawn as its fold margin,
// covers and spine, followed by a summary page with overall statistics.
func ExportPDF(path string, layout model.Layout, info RunInfo) error {
	if len(layout.Sheets) == 0 {
		return fmt.Errorf("no sheets to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	for i, sheet := range layout.Sheets {
		pdf.AddPage()
		renderSheetPage(pdf, layout.Sheet, sheet, i+1)
	}

	pdf.AddPage()
	renderSummaryPage(pdf, layout, info)

	return pdf.OutputFileAndClose(path)
}

// renderSheetPage draws a single cut sheet on the current PDF page.
func renderSheetPage(pdf *fpdf.Fpdf, stock model.Sheet, sheet model.CutSheet, sheetNum int) {
	items := sheet.Items()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Sheet %d (%.1f x %.1f cm)", sheetNum, stock.Width, stock.Height)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	efficiency := 0.0
	if stock.Area() > 0 {
		efficiency = sheet.UsedArea() / stock.Area() * 100
	}
	stats := fmt.Sprintf("Covers: %d | Strips: %d | Used height: %.1f cm | Efficiency: %.1f%%",
		len(items), len(sheet.Strips), sheet.UsedHeight, efficiency)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - statsHeight
	scale := math.Min(drawWidth/stock.Width, drawHeight/stock.Height)

	canvasW := stock.Width * scale
	canvasH := stock.Height * scale
	offsetX := marginLeft + (drawWidth-canvasW)/2
	offsetY := drawAreaTop

	// Sheet background
	pdf.SetFillColor(245, 245, 240)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(offsetX, offsetY, canvasW, canvasH, "FD")

	// Strip boundaries
	pdf.SetDrawColor(180, 180, 180)
	pdf.SetLineWidth(0.2)
	pdf.SetDashPattern([]float64{1.5, 1}, 0)
	for _, strip := range sheet.Strips {
		y := offsetY + (strip.Y+strip.Height)*scale
		pdf.Line(offsetX, y, offsetX+canvasW, y)
	}
	pdf.SetDashPattern([]float64{}, 0)

	for _, p := range items {
		drawCover(pdf, p, scale, offsetX, offsetY)
	}

	drawDimensionAnnotations(pdf, stock, offsetX, offsetY, canvasW, canvasH)
	drawCoverLegend(pdf, items, offsetY+canvasH+5)
}

// drawCover renders the panels of one placed cover and its name.
func drawCover(pdf *fpdf.Fpdf, p model.PlacedItem, scale, offsetX, offsetY float64) {
	pdf.SetDrawColor(30, 30, 30)
	pdf.SetLineWidth(0.2)
	for _, panel := range p.Panels() {
		col := PanelColor(panel.Kind)
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(offsetX+panel.X*scale, offsetY+panel.Y*scale, panel.Width*scale, panel.Height*scale, "FD")
	}

	pw := p.Width * scale
	ph := p.Height * scale
	if pw <= 15 || ph <= 8 {
		return
	}

	pdf.SetFont("Helvetica", "", labelFontSize(pw, ph))
	pdf.SetTextColor(0, 0, 0)
	px := offsetX + p.X*scale
	py := offsetY + p.Y*scale

	label := p.Item.Name
	if label == "" {
		label = fmt.Sprintf("#%d", p.Item.ID)
	}
	dims := fmt.Sprintf("%.1fx%.1f", p.Item.Width, p.Item.Height)
	labelW := pdf.GetStringWidth(label)
	dimsW := pdf.GetStringWidth(dims)

	if labelW < pw-2 {
		pdf.SetXY(px+(pw-labelW)/2, py+ph/2-4)
		pdf.CellFormat(labelW, 4, label, "", 0, "C", false, 0, "")
	}
	if ph > 14 && dimsW < pw-2 {
		pdf.SetXY(px+(pw-dimsW)/2, py+ph/2)
		pdf.CellFormat(dimsW, 4, dims, "", 0, "C", false, 0, "")
	}
}

// drawDimensionAnnotations adds width and height dimension labels outside the sheet rectangle.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, stock model.Sheet, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	widthLabel := fmt.Sprintf("%.1f cm", stock.Width)
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(offsetX+(canvasW-wLabelW)/2, offsetY+canvasH+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")

	heightLabel := fmt.Sprintf("%.1f cm", stock.Height)
	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-3, offsetY+canvasH/2)
	hLabelW := pdf.GetStringWidth(heightLabel)
	pdf.SetXY(offsetX-3-hLabelW/2, offsetY+canvasH/2-2)
	pdf.CellFormat(hLabelW, 4, heightLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

// drawCoverLegend renders the panel color key and the list of covers on the sheet.
func drawCoverLegend(pdf *fpdf.Fpdf, items []model.PlacedItem, startY float64) {
	if len(items) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft
	for _, kind := range []model.PanelKind{model.PanelTab, model.PanelFront, model.PanelSpine, model.PanelBack} {
		col := PanelColor(kind)
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")
		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(18, 4, kind.String(), "", 0, "L", false, 0, "")
		xPos += 22
	}
	startY += 5

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(30, 4, "Covers placed:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos = marginLeft + 32
	maxX := pageWidth - marginRight
	for _, p := range items {
		label := fmt.Sprintf("%s (%.1fx%.1f)", p.Item.Name, p.Item.Width, p.Item.Height)
		if p.Rotated {
			label += " R"
		}
		labelW := pdf.GetStringWidth(label) + 2

		if xPos+labelW > maxX {
			startY += 5
			xPos = marginLeft
		}
		pdf.SetXY(xPos, startY)
		pdf.CellFormat(labelW, 4, label, "", 0, "L", false, 0, "")
		xPos += labelW + 2
	}
}

type summaryItem struct {
	label string
	value string
}

// renderSummaryPage draws the final summary page with overall statistics.
func renderSummaryPage(pdf *fpdf.Fpdf, layout model.Layout, info RunInfo) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Cover Layout Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Overall Statistics", "", 0, "L", false, 0, "")
	y += 9

	summaryItems := []summaryItem{
		{"Sheet Size", fmt.Sprintf("%.1f x %.1f cm", layout.Sheet.Width, layout.Sheet.Height)},
		{"Total Sheets Used", fmt.Sprintf("%d", layout.SheetCount())},
		{"Overall Efficiency", fmt.Sprintf("%.1f%%", layout.Efficiency())},
		{"Last Sheet Height Used", fmt.Sprintf("%.1f%%", layout.LastSheetUtilization()*100)},
		{"Total Covers Placed", fmt.Sprintf("%d", layout.PlacedCount())},
		{"Unplaced Covers", fmt.Sprintf("%d", len(layout.Unplaced))},
	}
	if info.RunID != "" {
		summaryItems = append(summaryItems,
			summaryItem{"Run", info.RunID},
			summaryItem{"Fitness", info.Fitness},
			summaryItem{"Generations", fmt.Sprintf("%d (%s)", info.Generations, info.Stopped)},
			summaryItem{"Seed", fmt.Sprintf("%d", info.Seed)},
		)
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(80, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	y += 5

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Sheet Breakdown", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{20, 40, 40, 50, 35, 60}
	headers := []string{"Sheet", "Strips", "Covers", "Used Height", "Efficiency", "Used / Total Area"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	total := layout.Sheet.Area()
	for i, sheet := range layout.Sheets {
		xPos = marginLeft
		used := sheet.UsedArea()
		eff := 0.0
		if total > 0 {
			eff = used / total * 100
		}
		rowData := []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", len(sheet.Strips)),
			fmt.Sprintf("%d", len(sheet.Items())),
			fmt.Sprintf("%.1f cm", sheet.UsedHeight),
			fmt.Sprintf("%.1f%%", eff),
			fmt.Sprintf("%.0f / %.0f cm²", used, total),
		}

		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		for j, cell := range rowData {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6

		if y > pageHeight-marginBottom-20 {
			pdf.AddPage()
			y = marginTop
		}
	}

	if len(layout.Unplaced) > 0 {
		y += 8
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(200, 7, "WARNING: Covers larger than the sheet", "", 0, "L", false, 0, "")
		y += 8

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
		for _, it := range layout.Unplaced {
			pdf.SetXY(marginLeft+5, y)
			text := fmt.Sprintf("- %s: %.1f x %.1f cm", it.Name, it.Width, it.Height)
			pdf.CellFormat(200, 5, text, "", 0, "L", false, 0, "")
			y += 5
		}
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by CoverCut - Cover Layout Optimizer", "", 0, "C", false, 0, "")
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 20:
		return 7
	default:
		return 6
	}
}
