package model

import "fmt"

// ItemInput is one item as supplied by the caller, before ids are assigned.
type ItemInput struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Name   string  `json:"name"`
	Spine  float64 `json:"spine"`
}

// ItemSpec is an immutable catalog entry. IDs are dense, 0..N-1.
type ItemSpec struct {
	ID     int     `json:"id"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Spine  float64 `json:"spine"`
	Name   string  `json:"name"`
}

// Square reports whether the item has a single orientation.
func (it ItemSpec) Square() bool {
	return it.Width == it.Height
}

// Catalog is the fixed list of items for one optimization run, indexed by id.
type Catalog struct {
	items []ItemSpec
}

// NewCatalog validates the inputs and assigns ids in input order.
func NewCatalog(inputs []ItemInput) (*Catalog, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyCatalog
	}
	items := make([]ItemSpec, len(inputs))
	for i, in := range inputs {
		if !(in.Width > 0) {
			return nil, &InvalidInputError{Field: fmt.Sprintf("items[%d].width", i), Value: in.Width}
		}
		if !(in.Height > 0) {
			return nil, &InvalidInputError{Field: fmt.Sprintf("items[%d].height", i), Value: in.Height}
		}
		if in.Spine < 0 {
			return nil, &InvalidInputError{Field: fmt.Sprintf("items[%d].spine", i), Value: in.Spine}
		}
		items[i] = ItemSpec{
			ID:     i,
			Width:  in.Width,
			Height: in.Height,
			Spine:  in.Spine,
			Name:   in.Name,
		}
	}
	return &Catalog{items: items}, nil
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	return len(c.items)
}

// Item returns the item with the given id. It panics on an out-of-range id, which would
// mean a broken permutation.
func (c *Catalog) Item(id int) ItemSpec {
	return c.items[id]
}

// Items returns a copy of every item in id order.
func (c *Catalog) Items() []ItemSpec {
	return append([]ItemSpec(nil), c.items...)
}

// IDs returns the identity permutation 0..N-1.
func (c *Catalog) IDs() []int {
	ids := make([]int, len(c.items))
	for i := range ids {
		ids[i] = i
	}
	return ids
}
