package model

import "fmt"

// layoutTolerance absorbs float accumulation error when checking layout bounds.
const layoutTolerance = 1e-9

// Sheet is the stock material every cover is cut from. All values are in cm.
type Sheet struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Validate reports an *InvalidInputError when either dimension is not positive.
func (s Sheet) Validate() error {
	if !(s.Width > 0) {
		return &InvalidInputError{Field: "sheet.width", Value: s.Width}
	}
	if !(s.Height > 0) {
		return &InvalidInputError{Field: "sheet.height", Value: s.Height}
	}
	return nil
}

// Area returns the sheet area in cm².
func (s Sheet) Area() float64 {
	return s.Width * s.Height
}

// PlacedItem is one catalog item at its resolved position on a cut sheet.
type PlacedItem struct {
	Item    ItemSpec `json:"item"`
	X       float64  `json:"x"`       // From the left edge of the sheet
	Y       float64  `json:"y"`       // From the top edge of the sheet
	Width   float64  `json:"width"`   // Width as placed (swapped when rotated)
	Height  float64  `json:"height"`  // Height as placed (swapped when rotated)
	Rotated bool     `json:"rotated"` // Whether the item was turned 90°
}

// Area returns the placed area.
func (p PlacedItem) Area() float64 {
	return p.Width * p.Height
}

// Stack is a column of items sharing the same placed width.
type Stack struct {
	Items      []PlacedItem `json:"items"`
	X          float64      `json:"x"`
	Width      float64      `json:"width"`
	UsedHeight float64      `json:"used_height"`
}

// Strip is a row of stacks sharing a fixed height, set by the item that opened it.
type Strip struct {
	Stacks    []Stack `json:"stacks"`
	Y         float64 `json:"y"`
	Height    float64 `json:"height"`
	UsedWidth float64 `json:"used_width"`
}

// CutSheet is one stock sheet with its strips stacked top to bottom.
type CutSheet struct {
	Strips     []Strip `json:"strips"`
	UsedHeight float64 `json:"used_height"`
}

// Items returns every placed item on the sheet in placement order.
func (cs CutSheet) Items() []PlacedItem {
	var items []PlacedItem
	for _, strip := range cs.Strips {
		for _, stack := range strip.Stacks {
			items = append(items, stack.Items...)
		}
	}
	return items
}

// UsedArea returns the total area covered by placed items.
func (cs CutSheet) UsedArea() float64 {
	var total float64
	for _, p := range cs.Items() {
		total += p.Area()
	}
	return total
}

// Layout is the full result of packing one item order.
type Layout struct {
	Sheet    Sheet      `json:"sheet"`
	Sheets   []CutSheet `json:"sheets"`
	Unplaced []ItemSpec `json:"unplaced"` // Items that fit the sheet in neither orientation
}

// SheetCount returns the number of sheets used.
func (l Layout) SheetCount() int {
	return len(l.Sheets)
}

// PlacedCount returns the number of placed items across all sheets.
func (l Layout) PlacedCount() int {
	n := 0
	for _, cs := range l.Sheets {
		for _, strip := range cs.Strips {
			for _, stack := range strip.Stacks {
				n += len(stack.Items)
			}
		}
	}
	return n
}

// UsedArea returns the total area covered by placed items.
func (l Layout) UsedArea() float64 {
	var total float64
	for _, cs := range l.Sheets {
		total += cs.UsedArea()
	}
	return total
}

// TotalArea returns the area of all sheets used.
func (l Layout) TotalArea() float64 {
	return float64(len(l.Sheets)) * l.Sheet.Area()
}

// Efficiency returns the material usage percentage.
func (l Layout) Efficiency() float64 {
	ta := l.TotalArea()
	if ta == 0 {
		return 0
	}
	return (l.UsedArea() / ta) * 100.0
}

// LastSheetUtilization returns the used height fraction of the final sheet,
// or 0 when the layout has no sheets.
func (l Layout) LastSheetUtilization() float64 {
	if len(l.Sheets) == 0 || l.Sheet.Height <= 0 {
		return 0
	}
	return l.Sheets[len(l.Sheets)-1].UsedHeight / l.Sheet.Height
}

// Clone returns a deep copy that shares no slices with l.
func (l Layout) Clone() Layout {
	out := Layout{Sheet: l.Sheet}
	if l.Sheets != nil {
		out.Sheets = make([]CutSheet, len(l.Sheets))
		for i, cs := range l.Sheets {
			out.Sheets[i] = cs.clone()
		}
	}
	if l.Unplaced != nil {
		out.Unplaced = append([]ItemSpec(nil), l.Unplaced...)
	}
	return out
}

func (cs CutSheet) clone() CutSheet {
	out := CutSheet{UsedHeight: cs.UsedHeight}
	if cs.Strips == nil {
		return out
	}
	out.Strips = make([]Strip, len(cs.Strips))
	for i, strip := range cs.Strips {
		cp := strip
		cp.Stacks = make([]Stack, len(strip.Stacks))
		for j, stack := range strip.Stacks {
			st := stack
			st.Items = append([]PlacedItem(nil), stack.Items...)
			cp.Stacks[j] = st
		}
		out.Strips[i] = cp
	}
	return out
}

// Validate checks the structural bounds of the layout: every stack member
// matches its stack width, no stack overflows its strip, no strip overflows
// the sheet width and no sheet overflows the sheet height.
func (l Layout) Validate() error {
	for si, cs := range l.Sheets {
		var stripHeights float64
		for ti, strip := range cs.Strips {
			var stackWidths float64
			for ki, stack := range strip.Stacks {
				var itemHeights float64
				for _, p := range stack.Items {
					if p.Width != stack.Width {
						return fmt.Errorf("sheet %d strip %d stack %d: item %q width %.2f differs from stack width %.2f",
							si, ti, ki, p.Item.Name, p.Width, stack.Width)
					}
					itemHeights += p.Height
				}
				if itemHeights > strip.Height+layoutTolerance || stack.UsedHeight > strip.Height+layoutTolerance {
					return fmt.Errorf("sheet %d strip %d stack %d: used height %.2f exceeds strip height %.2f",
						si, ti, ki, itemHeights, strip.Height)
				}
				stackWidths += stack.Width
			}
			if stackWidths > l.Sheet.Width+layoutTolerance || strip.UsedWidth > l.Sheet.Width+layoutTolerance {
				return fmt.Errorf("sheet %d strip %d: used width %.2f exceeds sheet width %.2f",
					si, ti, stackWidths, l.Sheet.Width)
			}
			stripHeights += strip.Height
		}
		if stripHeights > l.Sheet.Height+layoutTolerance || cs.UsedHeight > l.Sheet.Height+layoutTolerance {
			return fmt.Errorf("sheet %d: used height %.2f exceeds sheet height %.2f",
				si, stripHeights, l.Sheet.Height)
		}
	}
	return nil
}
