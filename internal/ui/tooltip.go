package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"

	ttwidget "github.com/dweymouth/fyne-tooltip/widget"
)

// toolAction is one icon button of the main toolbar.
type toolAction struct {
	icon    fyne.Resource
	tooltip string
	tapped  func()
}

// newIconButtonWithTooltip creates an icon-only button with a tooltip that appears on hover.
func newIconButtonWithTooltip(icon fyne.Resource, tooltip string, tapped func()) *ttwidget.Button {
	btn := ttwidget.NewButtonWithIcon("", icon, tapped)
	btn.SetToolTip(tooltip)
	return btn
}

// buildToolbar lays out the actions left to right. A nil icon inserts a gap.
func buildToolbar(actions []toolAction) *fyne.Container {
	box := container.NewHBox()
	for _, act := range actions {
		if act.icon == nil {
			box.Add(container.NewPadded())
			continue
		}
		box.Add(newIconButtonWithTooltip(act.icon, act.tooltip, act.tapped))
	}
	return box
}
