package model

import (
	"errors"
	"fmt"
)

// ErrEmptyCatalog is returned when an optimization is requested with no items.
var ErrEmptyCatalog = errors.New("catalog has no items")

// InvalidInputError reports a non-positive sheet or item dimension, or a
// negative spine thickness.
type InvalidInputError struct {
	Field string
	Value float64
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %g", e.Field, e.Value)
}

// UnplaceableItemError describes an item that fits the sheet in neither
// orientation. The packer records these in Layout.Unplaced instead of
// failing; callers use this type to report them.
type UnplaceableItemError struct {
	Item  ItemSpec
	Sheet Sheet
}

func (e *UnplaceableItemError) Error() string {
	return fmt.Sprintf("item %d %q (%.2f x %.2f) does not fit sheet %.2f x %.2f in either orientation",
		e.Item.ID, e.Item.Name, e.Item.Width, e.Item.Height, e.Sheet.Width, e.Sheet.Height)
}

// UnplacedErrors converts the layout's unplaced items into errors, one per item.
func (l Layout) UnplacedErrors() []error {
	if len(l.Unplaced) == 0 {
		return nil
	}
	errs := make([]error, len(l.Unplaced))
	for i, it := range l.Unplaced {
		errs[i] = &UnplaceableItemError{Item: it, Sheet: l.Sheet}
	}
	return errs
}
