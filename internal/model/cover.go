package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// TabWidth is the fold-over margin added on every edge of a cover piece (cm).
const TabWidth = 2.0

// DefaultSpiralSpine is the spine allowance used for spiral bound items (cm).
const DefaultSpiralSpine = 2.0

// CoverKind is the kind of item being covered.
type CoverKind int

const (
	KindBook     CoverKind = iota // Bound book
	KindNotebook                  // School notebook
)

func (k CoverKind) String() string {
	switch k {
	case KindNotebook:
		return "Notebook"
	default:
		return "Book"
	}
}

// Binding is how the covered item is bound, which decides its spine allowance.
type Binding int

const (
	BindingSpiral      Binding = iota // Fixed 2 cm allowance
	BindingCustomSpine                // Spine measured by the user
)

func (b Binding) String() string {
	switch b {
	case BindingCustomSpine:
		return "Custom spine"
	default:
		return "Spiral"
	}
}

// PaperSize is a named page format with one or more variants (width x height, cm).
type PaperSize struct {
	Name     string
	Variants [][2]float64
}

// PaperSizes lists the supported page formats.
var PaperSizes = []PaperSize{
	{Name: "Pocket", Variants: [][2]float64{{11, 17}, {15, 21}}},
	{Name: "A7", Variants: [][2]float64{{7.4, 10.5}}},
	{Name: "A6", Variants: [][2]float64{{10.5, 14.8}}},
	{Name: "A5", Variants: [][2]float64{{14.8, 21}}},
	{Name: "A4", Variants: [][2]float64{{21, 29.7}}},
	{Name: "Folio", Variants: [][2]float64{{21.5, 31.5}}},
	{Name: "Hardcover", Variants: [][2]float64{{15, 23}}},
	{Name: "Art", Variants: [][2]float64{{30, 30}}},
}

// defaultPaperSize is used when a size name is not recognized.
const defaultPaperSize = "A4"

// LookupPaperSize finds a size by name, case-insensitively.
// Returns the A4 entry and false when the name is unknown.
func LookupPaperSize(name string) (PaperSize, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, ps := range PaperSizes {
		if strings.ToLower(ps.Name) == n {
			return ps, true
		}
	}
	for _, ps := range PaperSizes {
		if ps.Name == defaultPaperSize {
			return ps, false
		}
	}
	return PaperSizes[0], false
}

// Cover is one line of the user's list: a covered item and how many of it.
type Cover struct {
	ID       string    `json:"id"`
	Kind     CoverKind `json:"kind"`
	Size     string    `json:"size"`
	Variant  int       `json:"variant"` // Index into the size's variants
	Binding  Binding   `json:"binding"`
	Spine    float64   `json:"spine"` // Used with BindingCustomSpine (cm)
	Quantity int       `json:"quantity"`
}

// NewCover creates a cover with a short random ID. spine is only used
// with BindingCustomSpine.
func NewCover(kind CoverKind, size string, binding Binding, spine float64, qty int) Cover {
	return Cover{
		ID:       uuid.New().String()[:8],
		Kind:     kind,
		Size:     size,
		Binding:  binding,
		Spine:    spine,
		Quantity: qty,
	}
}

// PageSize returns the covered item's page dimensions. Unknown sizes fall
// back to A4 and out-of-range variants to the first one.
func (c Cover) PageSize() (w, h float64) {
	ps, _ := LookupPaperSize(c.Size)
	v := ps.Variants[0]
	if c.Variant > 0 && c.Variant < len(ps.Variants) {
		v = ps.Variants[c.Variant]
	}
	return v[0], v[1]
}

// SpineWidth returns the spine allowance for the cover's binding. A custom
// spine is taken as given, including zero.
func (c Cover) SpineWidth() float64 {
	if c.Binding == BindingCustomSpine && c.Spine >= 0 {
		return c.Spine
	}
	return DefaultSpiralSpine
}

// Name returns the short display name, e.g. "Boo. A5".
func (c Cover) Name() string {
	kind := c.Kind.String()
	if len(kind) > 3 {
		kind = kind[:3]
	}
	ps, _ := LookupPaperSize(c.Size)
	return fmt.Sprintf("%s. %s", kind, ps.Name)
}

// Dimensions converts the cover into the flat piece to cut: a tab on every
// edge, the front and back covers side by side and the spine between them.
func (c Cover) Dimensions() ItemInput {
	pageW, pageH := c.PageSize()
	spine := c.SpineWidth()
	width := TabWidth + pageW + spine + pageW + TabWidth
	height := TabWidth + pageH + TabWidth
	return ItemInput{
		Width:  round2(width),
		Height: round2(height),
		Name:   c.Name(),
		Spine:  spine,
	}
}

// ExpandCovers converts covers into one ItemInput per physical piece.
// A quantity below one still yields a single piece.
func ExpandCovers(covers []Cover) []ItemInput {
	var items []ItemInput
	for _, c := range covers {
		qty := c.Quantity
		if qty < 1 {
			qty = 1
		}
		dims := c.Dimensions()
		for i := 0; i < qty; i++ {
			items = append(items, dims)
		}
	}
	return items
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// PanelKind identifies a region of a placed cover piece.
type PanelKind int

const (
	PanelTab   PanelKind = iota // Whole piece; the visible part is the fold margin
	PanelFront                  // Front cover
	PanelSpine                  // Spine
	PanelBack                   // Back cover
)

func (k PanelKind) String() string {
	switch k {
	case PanelFront:
		return "front"
	case PanelSpine:
		return "spine"
	case PanelBack:
		return "back"
	default:
		return "tab"
	}
}

// Panel is an axis-aligned region of a placed cover in sheet coordinates.
type Panel struct {
	Kind          PanelKind
	X, Y          float64
	Width, Height float64
}

// Panels splits a placed cover into its tab margin, covers and spine. The
// covers sit side by side along the placed width, or along the placed height
// when the piece was rotated. Pieces too small to hold the tab margin return
// only the tab panel.
func (p PlacedItem) Panels() []Panel {
	panels := []Panel{{Kind: PanelTab, X: p.X, Y: p.Y, Width: p.Width, Height: p.Height}}

	innerW := p.Width - 2*TabWidth
	innerH := p.Height - 2*TabWidth
	if innerW <= 0 || innerH <= 0 {
		return panels
	}
	x := p.X + TabWidth
	y := p.Y + TabWidth
	spine := p.Item.Spine

	if !p.Rotated {
		coverW := (innerW - spine) / 2
		if coverW <= 0 {
			return panels
		}
		return append(panels,
			Panel{Kind: PanelFront, X: x, Y: y, Width: coverW, Height: innerH},
			Panel{Kind: PanelSpine, X: x + coverW, Y: y, Width: spine, Height: innerH},
			Panel{Kind: PanelBack, X: x + coverW + spine, Y: y, Width: coverW, Height: innerH},
		)
	}

	coverH := (innerH - spine) / 2
	if coverH <= 0 {
		return panels
	}
	return append(panels,
		Panel{Kind: PanelFront, X: x, Y: y, Width: innerW, Height: coverH},
		Panel{Kind: PanelSpine, X: x, Y: y + coverH, Width: innerW, Height: spine},
		Panel{Kind: PanelBack, X: x, Y: y + coverH + spine, Width: innerW, Height: coverH},
	)
}
