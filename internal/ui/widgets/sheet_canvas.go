package widgets

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/piwi3910/CoverCut/internal/export"
	"github.com/piwi3910/CoverCut/internal/model"
)

// panelFill converts the shared export palette into a fyne color.
func panelFill(kind model.PanelKind) color.NRGBA {
	c := export.PanelColor(kind)
	return color.NRGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: 230}
}

// SheetCanvas renders a visual representation of a single cut sheet.
type SheetCanvas struct {
	widget.BaseWidget
	stock     model.Sheet
	sheet     model.CutSheet
	maxWidth  float32
	maxHeight float32
}

func NewSheetCanvas(stock model.Sheet, sheet model.CutSheet, maxW, maxH float32) *SheetCanvas {
	sc := &SheetCanvas{
		stock:     stock,
		sheet:     sheet,
		maxWidth:  maxW,
		maxHeight: maxH,
	}
	sc.ExtendBaseWidget(sc)
	return sc
}

func (sc *SheetCanvas) CreateRenderer() fyne.WidgetRenderer {
	return newSheetCanvasRenderer(sc)
}

// scale returns the factor fitting the stock sheet into the max bounds.
func (sc *SheetCanvas) scale() float32 {
	if sc.stock.Width <= 0 || sc.stock.Height <= 0 {
		return 1
	}
	scale := sc.maxWidth / float32(sc.stock.Width)
	if s := sc.maxHeight / float32(sc.stock.Height); s < scale {
		scale = s
	}
	return scale
}

type sheetCanvasRenderer struct {
	sc      *SheetCanvas
	objects []fyne.CanvasObject
}

func newSheetCanvasRenderer(sc *SheetCanvas) *sheetCanvasRenderer {
	r := &sheetCanvasRenderer{sc: sc}
	r.rebuild()
	return r
}

func (r *sheetCanvasRenderer) rebuild() {
	r.objects = nil

	scale := r.sc.scale()
	canvasW := float32(r.sc.stock.Width) * scale
	canvasH := float32(r.sc.stock.Height) * scale

	// Paper background
	bg := canvas.NewRectangle(color.NRGBA{R: 250, G: 248, B: 240, A: 255})
	bg.Resize(fyne.NewSize(canvasW, canvasH))
	r.objects = append(r.objects, bg)

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.NRGBA{R: 100, G: 100, B: 100, A: 255}
	border.StrokeWidth = 2
	border.Resize(fyne.NewSize(canvasW, canvasH))
	r.objects = append(r.objects, border)

	// Strip boundaries as dashed-looking thin lines
	for _, strip := range r.sc.sheet.Strips {
		y := float32(strip.Y+strip.Height) * scale
		line := canvas.NewLine(color.NRGBA{R: 150, G: 150, B: 150, A: 255})
		line.StrokeWidth = 1
		line.Position1 = fyne.NewPos(0, y)
		line.Position2 = fyne.NewPos(canvasW, y)
		r.objects = append(r.objects, line)
	}

	for _, p := range r.sc.sheet.Items() {
		for _, panel := range p.Panels() {
			rect := canvas.NewRectangle(panelFill(panel.Kind))
			rect.Resize(fyne.NewSize(float32(panel.Width)*scale, float32(panel.Height)*scale))
			rect.Move(fyne.NewPos(float32(panel.X)*scale, float32(panel.Y)*scale))
			r.objects = append(r.objects, rect)
		}

		pw := float32(p.Width) * scale
		ph := float32(p.Height) * scale
		px := float32(p.X) * scale
		py := float32(p.Y) * scale

		outline := canvas.NewRectangle(color.Transparent)
		outline.StrokeColor = color.NRGBA{R: 30, G: 30, B: 30, A: 255}
		outline.StrokeWidth = 1
		outline.Resize(fyne.NewSize(pw, ph))
		outline.Move(fyne.NewPos(px, py))
		r.objects = append(r.objects, outline)

		// Label (only if big enough)
		if pw > 40 && ph > 16 {
			text := fmt.Sprintf("%s %.1fx%.1f", p.Item.Name, p.Item.Width, p.Item.Height)
			if p.Rotated {
				text += " (R)"
			}
			label := canvas.NewText(text, color.Black)
			label.TextSize = 10
			label.Move(fyne.NewPos(px+3, py+2))
			r.objects = append(r.objects, label)
		}
	}
}

func (r *sheetCanvasRenderer) Layout(size fyne.Size)        {}
func (r *sheetCanvasRenderer) Refresh()                     { r.rebuild() }
func (r *sheetCanvasRenderer) Destroy()                     {}
func (r *sheetCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *sheetCanvasRenderer) MinSize() fyne.Size {
	scale := r.sc.scale()
	return fyne.NewSize(float32(r.sc.stock.Width)*scale, float32(r.sc.stock.Height)*scale)
}

// RenderLayout creates a scrollable container showing every sheet of a
// layout, a warning for unplaced covers and an overall summary line.
func RenderLayout(layout *model.Layout) fyne.CanvasObject {
	if layout == nil {
		return widget.NewLabel("No results yet. Add covers, then click Optimize.")
	}

	var items []fyne.CanvasObject

	for i, sheet := range layout.Sheets {
		header := widget.NewLabel(fmt.Sprintf(
			"Sheet %d (%.0f x %.0f cm): %d covers, %d strips, %.1f cm used",
			i+1, layout.Sheet.Width, layout.Sheet.Height,
			len(sheet.Items()), len(sheet.Strips), sheet.UsedHeight,
		))
		header.TextStyle = fyne.TextStyle{Bold: true}

		items = append(items, header, NewSheetCanvas(layout.Sheet, sheet, 600, 420), widget.NewSeparator())
	}

	if len(layout.Unplaced) > 0 {
		warning := widget.NewLabel(fmt.Sprintf(
			"WARNING: %d covers are larger than the sheet and could not be placed.",
			len(layout.Unplaced),
		))
		warning.Importance = widget.DangerImportance
		items = append(items, warning)
		for _, it := range layout.Unplaced {
			items = append(items, widget.NewLabel(fmt.Sprintf("  %s (%.1f x %.1f cm)", it.Name, it.Width, it.Height)))
		}
	}

	summary := widget.NewLabel(SummaryLine(*layout))
	summary.TextStyle = fyne.TextStyle{Bold: true}
	items = append(items, summary)

	return container.NewVScroll(container.NewVBox(items...))
}

// SummaryLine describes a layout in one line.
func SummaryLine(layout model.Layout) string {
	if layout.SheetCount() == 0 {
		return "No feasible layout: no cover fits the sheet."
	}
	return fmt.Sprintf(
		"Total: %d sheets, %d covers, %.1f%% efficiency, last sheet %.0f%% used",
		layout.SheetCount(), layout.PlacedCount(), layout.Efficiency(),
		layout.LastSheetUtilization()*100,
	)
}
