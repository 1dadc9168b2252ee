// CoverCut Viewer: desktop editor and viewer for cover layouts.
//
// Build:
//   go build -o covercut-viewer ./cmd/covercut-viewer
//
// Usage:
//   covercut-viewer [covers.csv | covers.xlsx | report.json]
//
// Using fyne-cross (recommended for proper packaging):
//   go install github.com/fyne-io/fyne-cross@latest
//   fyne-cross windows -arch=amd64
//   fyne-cross darwin  -arch=amd64,arm64

package main

import (
	"flag"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
	fynetooltip "github.com/dweymouth/fyne-tooltip"
	"k8s.io/klog/v2"

	"github.com/piwi3910/CoverCut/internal/project"
	"github.com/piwi3910/CoverCut/internal/ui"
)

func main() {
	klog.InitFlags(nil)
	configPath := flag.String("config", project.DefaultConfigPath(), "path to the JSON config file")
	flag.Parse()
	defer klog.Flush()

	cfg, err := project.LoadAppConfig(*configPath)
	if err != nil {
		klog.ErrorS(err, "Loading config", "path", *configPath)
		os.Exit(1)
	}

	application := app.NewWithID("com.piwi3910.covercut")
	window := application.NewWindow("CoverCut: Cover Layout Optimizer")

	appUI := ui.NewApp(application, window, cfg, *configPath)
	appUI.SetupMenus()
	window.SetContent(fynetooltip.AddWindowToolTipLayer(appUI.Build(), window.Canvas()))
	window.Resize(fyne.NewSize(1100, 760))
	window.CenterOnScreen()

	if path := flag.Arg(0); path != "" {
		if err := appUI.LoadFile(path); err != nil {
			klog.ErrorS(err, "Opening file", "path", path)
			dialog.ShowError(err, window)
		}
	}

	window.ShowAndRun()
}
