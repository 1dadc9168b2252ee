package engine

import "github.com/piwi3910/CoverCut/internal/model"

// orientation is one way of laying an item on the sheet.
type orientation struct {
	w, h    float64
	rotated bool
}

func orientations(it model.ItemSpec) []orientation {
	out := []orientation{{w: it.Width, h: it.Height}}
	if !it.Square() {
		out = append(out, orientation{w: it.Height, h: it.Width, rotated: true})
	}
	return out
}

// packer holds the in-progress layout for a single pass.
type packer struct {
	sheet  model.Sheet
	layout model.Layout
}

// Pack lays out the items in the given order using a greedy shelf heuristic.
// Each item, in each of its orientations, tries in turn to continue the
// current stack, open a new stack in the current strip, or open a new strip
// on the current sheet. When none succeeds a new sheet is opened. Items that
// fit the sheet in neither orientation are recorded in Layout.Unplaced.
//
// Pack is a pure function of its arguments.
func Pack(order []int, sheet model.Sheet, catalog *model.Catalog) model.Layout {
	p := &packer{sheet: sheet, layout: model.Layout{Sheet: sheet}}
	for _, id := range order {
		p.place(catalog.Item(id))
	}
	return p.layout
}

func (p *packer) place(it model.ItemSpec) {
	for _, o := range orientations(it) {
		if p.continueStack(it, o) || p.newStack(it, o) || p.newStrip(it, o) {
			return
		}
	}
	p.newSheet(it)
}

func (p *packer) current() *model.CutSheet {
	if len(p.layout.Sheets) == 0 {
		return nil
	}
	return &p.layout.Sheets[len(p.layout.Sheets)-1]
}

func (p *packer) currentStrip() *model.Strip {
	cs := p.current()
	if cs == nil || len(cs.Strips) == 0 {
		return nil
	}
	return &cs.Strips[len(cs.Strips)-1]
}

func (p *packer) continueStack(it model.ItemSpec, o orientation) bool {
	strip := p.currentStrip()
	if strip == nil || len(strip.Stacks) == 0 {
		return false
	}
	stack := &strip.Stacks[len(strip.Stacks)-1]
	if o.w != stack.Width || stack.UsedHeight+o.h > strip.Height {
		return false
	}
	stack.Items = append(stack.Items, placed(it, o, stack.X, strip.Y+stack.UsedHeight))
	stack.UsedHeight += o.h
	return true
}

func (p *packer) newStack(it model.ItemSpec, o orientation) bool {
	strip := p.currentStrip()
	if strip == nil {
		return false
	}
	if strip.UsedWidth+o.w > p.sheet.Width || o.h > strip.Height {
		return false
	}
	x := strip.UsedWidth
	strip.Stacks = append(strip.Stacks, model.Stack{
		Items:      []model.PlacedItem{placed(it, o, x, strip.Y)},
		X:          x,
		Width:      o.w,
		UsedHeight: o.h,
	})
	strip.UsedWidth += o.w
	return true
}

func (p *packer) newStrip(it model.ItemSpec, o orientation) bool {
	cs := p.current()
	if cs == nil {
		return false
	}
	if o.w > p.sheet.Width || cs.UsedHeight+o.h > p.sheet.Height {
		return false
	}
	openStrip(cs, it, o)
	return true
}

// newSheet opens a sheet for an item that did not fit the current one. The
// natural orientation is kept when it fits the sheet; otherwise the item is
// rotated if that fits, and recorded as unplaced if not.
func (p *packer) newSheet(it model.ItemSpec) {
	o := orientation{w: it.Width, h: it.Height}
	if o.w > p.sheet.Width || o.h > p.sheet.Height {
		if it.Height > p.sheet.Width || it.Width > p.sheet.Height {
			p.layout.Unplaced = append(p.layout.Unplaced, it)
			return
		}
		o = orientation{w: it.Height, h: it.Width, rotated: true}
	}
	p.layout.Sheets = append(p.layout.Sheets, model.CutSheet{})
	openStrip(p.current(), it, o)
}

func openStrip(cs *model.CutSheet, it model.ItemSpec, o orientation) {
	y := cs.UsedHeight
	cs.Strips = append(cs.Strips, model.Strip{
		Stacks: []model.Stack{{
			Items:      []model.PlacedItem{placed(it, o, 0, y)},
			X:          0,
			Width:      o.w,
			UsedHeight: o.h,
		}},
		Y:         y,
		Height:    o.h,
		UsedWidth: o.w,
	})
	cs.UsedHeight += o.h
}

func placed(it model.ItemSpec, o orientation, x, y float64) model.PlacedItem {
	return model.PlacedItem{
		Item:    it,
		X:       x,
		Y:       y,
		Width:   o.w,
		Height:  o.h,
		Rotated: o.rotated,
	}
}
