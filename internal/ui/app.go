// Package ui provides the CoverCut desktop viewer: a cover list editor, the
// search settings and a rendering of the best layout found.
package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"k8s.io/klog/v2"

	"github.com/piwi3910/CoverCut/internal/engine"
	"github.com/piwi3910/CoverCut/internal/export"
	coverimporter "github.com/piwi3910/CoverCut/internal/importer"
	"github.com/piwi3910/CoverCut/internal/model"
	"github.com/piwi3910/CoverCut/internal/project"
	"github.com/piwi3910/CoverCut/internal/ui/widgets"
)

// App holds all application state and UI references.
type App struct {
	app        fyne.App
	window     fyne.Window
	config     model.AppConfig
	configPath string
	theme      *CoverCutTheme

	covers  []model.Cover
	pieces  []model.ItemInput
	history *History

	result    *engine.Result
	runConfig engine.Config
	runSeed   int64
	cancel    context.CancelFunc

	tabs            *container.AppTabs
	coversContainer *fyne.Container
	resultContainer *fyne.Container
	status          *widget.Label
	progress        *widget.ProgressBarInfinite
}

// NewApp creates the viewer state. configPath is where "Save as defaults"
// writes the settings; it may be empty to disable saving.
func NewApp(application fyne.App, window fyne.Window, config model.AppConfig, configPath string) *App {
	a := &App{
		app:        application,
		window:     window,
		config:     config,
		configPath: configPath,
		history:    NewHistory(),
		runConfig:  engine.ConfigFromAppConfig(config),
		theme:      NewCoverCutTheme(config.Theme),
	}
	application.Settings().SetTheme(a.theme)
	return a
}

// SetupMenus creates the native menu bar for the application.
func (a *App) SetupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Import Cover List...", a.importCoverList),
		fyne.NewMenuItem("Open Report...", a.openReport),
		fyne.NewMenuItem("Save Report...", a.saveReport),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Layout PDF...", func() { a.exportTo("layout.pdf", a.writePDF) }),
		fyne.NewMenuItem("Export Labels PDF...", func() { a.exportTo("labels.pdf", a.writeLabels) }),
		fyne.NewMenuItem("Export DXF...", func() { a.exportTo("layout.dxf", a.writeDXF) }),
		fyne.NewMenuItem("Export Convergence Chart...", func() { a.exportTo("convergence.html", a.writeChart) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() {
			a.window.Close()
		}),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", a.undo),
		fyne.NewMenuItem("Redo", a.redo),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Clear Cover List", func() {
			a.pushHistory("Clear")
			a.covers = nil
			a.pieces = nil
			a.refreshCoversList()
		}),
	)

	toolsMenu := fyne.NewMenu("Tools",
		fyne.NewMenuItem("Optimize", a.runOptimize),
		fyne.NewMenuItem("Stop", a.stopOptimize),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", a.showAboutDialog),
	)

	a.window.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, toolsMenu, helpMenu))
}

func (a *App) showAboutDialog() {
	dialog.ShowInformation(
		"About CoverCut",
		"CoverCut: book and notebook cover layout optimizer\n\n"+
			"Packs cover pieces onto sheets with a genetic search\n"+
			"over the placement order.\n\n"+
			"Version 1.0.0",
		a.window,
	)
}

// Build constructs the full UI and returns the root container.
func (a *App) Build() fyne.CanvasObject {
	coversTab := container.NewTabItem("Covers", a.buildCoversPanel())
	settingsTab := container.NewTabItem("Settings", a.buildSettingsPanel())
	resultsTab := container.NewTabItem("Results", a.buildResultsPanel())

	a.tabs = container.NewAppTabs(coversTab, settingsTab, resultsTab)
	a.tabs.SetTabLocation(container.TabLocationTop)

	toolbar := buildToolbar([]toolAction{
		{theme.FolderOpenIcon(), "Import cover list", a.importCoverList},
		{theme.DocumentSaveIcon(), "Save report", a.saveReport},
		{},
		{theme.ContentUndoIcon(), "Undo", a.undo},
		{theme.ContentRedoIcon(), "Redo", a.redo},
		{},
		{theme.MediaPlayIcon(), "Optimize", a.runOptimize},
		{theme.MediaStopIcon(), "Stop", a.stopOptimize},
		{},
		{theme.DocumentPrintIcon(), "Export layout PDF", func() { a.exportTo("layout.pdf", a.writePDF) }},
	})

	a.status = widget.NewLabel("Ready")
	a.progress = widget.NewProgressBarInfinite()
	a.progress.Stop()
	a.progress.Hide()

	return container.NewBorder(
		toolbar,
		container.NewHBox(a.status, layout.NewSpacer(), a.progress),
		nil, nil,
		a.tabs,
	)
}

// ─── Covers Panel ──────────────────────────────────────────

func (a *App) buildCoversPanel() fyne.CanvasObject {
	a.coversContainer = container.NewVBox()
	a.refreshCoversList()

	addBtn := widget.NewButtonWithIcon("Add Cover", theme.ContentAddIcon(), a.showAddCoverDialog)

	return container.NewBorder(
		container.NewHBox(
			widget.NewLabelWithStyle("Covers to cut", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			layout.NewSpacer(),
			addBtn,
		),
		nil, nil, nil,
		container.NewVScroll(a.coversContainer),
	)
}

func (a *App) refreshCoversList() {
	a.coversContainer.RemoveAll()

	if len(a.covers) == 0 && len(a.pieces) == 0 {
		a.coversContainer.Add(widget.NewLabel("No covers added yet. Click 'Add Cover' or import a list to begin."))
		return
	}

	bold := fyne.TextStyle{Bold: true}
	header := container.NewGridWithColumns(6,
		widget.NewLabelWithStyle("Cover", fyne.TextAlignLeading, bold),
		widget.NewLabelWithStyle("Binding", fyne.TextAlignLeading, bold),
		widget.NewLabelWithStyle("Piece (cm)", fyne.TextAlignLeading, bold),
		widget.NewLabelWithStyle("Qty", fyne.TextAlignLeading, bold),
		widget.NewLabel(""),
		widget.NewLabel(""),
	)
	a.coversContainer.Add(header)
	a.coversContainer.Add(widget.NewSeparator())

	for i := range a.covers {
		idx := i
		c := a.covers[idx]
		dims := c.Dimensions()
		row := container.NewGridWithColumns(6,
			widget.NewLabel(c.Name()),
			widget.NewLabel(fmt.Sprintf("%s %.1f", c.Binding, c.SpineWidth())),
			widget.NewLabel(fmt.Sprintf("%.1f x %.1f", dims.Width, dims.Height)),
			widget.NewLabel(strconv.Itoa(c.Quantity)),
			widget.NewButtonWithIcon("", theme.ContentAddIcon(), func() {
				a.pushHistory("Increase quantity")
				a.covers[idx].Quantity++
				a.refreshCoversList()
			}),
			widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
				a.pushHistory("Remove cover")
				a.covers = append(a.covers[:idx], a.covers[idx+1:]...)
				a.refreshCoversList()
			}),
		)
		a.coversContainer.Add(row)
	}

	for i := range a.pieces {
		idx := i
		p := a.pieces[idx]
		row := container.NewGridWithColumns(6,
			widget.NewLabel(p.Name),
			widget.NewLabel("-"),
			widget.NewLabel(fmt.Sprintf("%.1f x %.1f", p.Width, p.Height)),
			widget.NewLabel("1"),
			widget.NewLabel(""),
			widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
				a.pushHistory("Remove piece")
				a.pieces = append(a.pieces[:idx], a.pieces[idx+1:]...)
				a.refreshCoversList()
			}),
		)
		a.coversContainer.Add(row)
	}

	a.coversContainer.Add(widget.NewSeparator())
	a.coversContainer.Add(widget.NewLabel(fmt.Sprintf("%d pieces to cut", len(a.items()))))
}

func (a *App) showAddCoverDialog() {
	kindSelect := widget.NewSelect([]string{model.KindBook.String(), model.KindNotebook.String()}, nil)
	kindSelect.SetSelected(model.KindBook.String())

	variantSelect := widget.NewSelect(nil, nil)
	sizeSelect := widget.NewSelect(paperSizeNames(), func(size string) {
		variantSelect.Options = variantOptions(size)
		variantSelect.SetSelectedIndex(0)
		variantSelect.Refresh()
	})
	sizeSelect.SetSelected("A5")

	bindingSelect := widget.NewSelect([]string{model.BindingSpiral.String(), model.BindingCustomSpine.String()}, nil)
	bindingSelect.SetSelected(model.BindingSpiral.String())

	spineEntry := widget.NewEntry()
	spineEntry.SetPlaceHolder("Spine width in cm")
	spineEntry.SetText(fmt.Sprintf("%.1f", a.config.DefaultSpine))

	qtyEntry := widget.NewEntry()
	qtyEntry.SetText("1")

	form := dialog.NewForm("Add Cover", "Add", "Cancel",
		[]*widget.FormItem{
			widget.NewFormItem("Kind", kindSelect),
			widget.NewFormItem("Size", sizeSelect),
			widget.NewFormItem("Variant", variantSelect),
			widget.NewFormItem("Binding", bindingSelect),
			widget.NewFormItem("Spine (cm)", spineEntry),
			widget.NewFormItem("Quantity", qtyEntry),
		},
		func(ok bool) {
			if !ok {
				return
			}
			c, err := coverFromForm(coverForm{
				Kind:    kindSelect.Selected,
				Size:    sizeSelect.Selected,
				Variant: variantSelect.SelectedIndex(),
				Binding: bindingSelect.Selected,
				Spine:   spineEntry.Text,
				Qty:     qtyEntry.Text,
			})
			if err != nil {
				dialog.ShowError(err, a.window)
				return
			}
			a.pushHistory("Add cover")
			a.covers = append(a.covers, c)
			a.refreshCoversList()
		},
		a.window,
	)
	form.Resize(fyne.NewSize(400, 380))
	form.Show()
}

// coverForm holds the raw values of the add-cover dialog.
type coverForm struct {
	Kind    string
	Size    string
	Variant int
	Binding string
	Spine   string
	Qty     string
}

// coverFromForm validates the dialog values and builds a cover.
func coverFromForm(f coverForm) (model.Cover, error) {
	q, err := strconv.Atoi(strings.TrimSpace(f.Qty))
	if err != nil || q <= 0 {
		return model.Cover{}, fmt.Errorf("quantity must be a whole number > 0")
	}

	kind := model.KindBook
	if f.Kind == model.KindNotebook.String() {
		kind = model.KindNotebook
	}

	binding := model.BindingSpiral
	var spine float64
	if f.Binding == model.BindingCustomSpine.String() {
		binding = model.BindingCustomSpine
		spine, err = strconv.ParseFloat(strings.TrimSpace(f.Spine), 64)
		if err != nil || spine <= 0 {
			return model.Cover{}, fmt.Errorf("spine width must be > 0")
		}
	}

	if _, ok := model.LookupPaperSize(f.Size); !ok {
		return model.Cover{}, fmt.Errorf("unknown size %q", f.Size)
	}

	c := model.NewCover(kind, f.Size, binding, spine, q)
	if f.Variant > 0 {
		c.Variant = f.Variant
	}
	return c, nil
}

// paperSizeNames lists the size table in display order.
func paperSizeNames() []string {
	names := make([]string, len(model.PaperSizes))
	for i, ps := range model.PaperSizes {
		names[i] = ps.Name
	}
	return names
}

// variantOptions describes each page variant of a size, e.g. "11 x 17".
func variantOptions(size string) []string {
	ps, _ := model.LookupPaperSize(size)
	opts := make([]string, len(ps.Variants))
	for i, v := range ps.Variants {
		opts[i] = fmt.Sprintf("%g x %g", v[0], v[1])
	}
	return opts
}

// ─── Settings Panel ────────────────────────────────────────

func (a *App) buildSettingsPanel() fyne.CanvasObject {
	c := &a.config

	floatEntry := func(val *float64) *widget.Entry {
		e := widget.NewEntry()
		e.SetText(strconv.FormatFloat(*val, 'f', -1, 64))
		e.OnChanged = func(text string) {
			if v, err := strconv.ParseFloat(text, 64); err == nil {
				*val = v
			}
		}
		return e
	}

	intEntry := func(val *int) *widget.Entry {
		e := widget.NewEntry()
		e.SetText(strconv.Itoa(*val))
		e.OnChanged = func(text string) {
			if v, err := strconv.Atoi(text); err == nil {
				*val = v
			}
		}
		return e
	}

	seedEntry := widget.NewEntry()
	seedEntry.SetText(strconv.FormatInt(c.Seed, 10))
	seedEntry.OnChanged = func(text string) {
		if v, err := strconv.ParseInt(text, 10, 64); err == nil {
			c.Seed = v
		}
	}

	sheetSection := widget.NewCard("Sheet", "", container.NewGridWithColumns(2,
		widget.NewLabel("Width (cm)"), floatEntry(&c.SheetWidth),
		widget.NewLabel("Height (cm)"), floatEntry(&c.SheetHeight),
		widget.NewLabel("Default spine (cm)"), floatEntry(&c.DefaultSpine),
	))

	searchSection := widget.NewCard("Genetic search", "", container.NewGridWithColumns(2,
		widget.NewLabel("Population size"), intEntry(&c.PopulationSize),
		widget.NewLabel("Generations"), intEntry(&c.Generations),
		widget.NewLabel("Crossover rate"), floatEntry(&c.CrossoverRate),
		widget.NewLabel("Mutation rate"), floatEntry(&c.MutationRate),
		widget.NewLabel("Tournament size"), intEntry(&c.TournamentSize),
		widget.NewLabel("Workers"), intEntry(&c.Workers),
		widget.NewLabel("Patience (0 = off)"), intEntry(&c.Patience),
		widget.NewLabel("Seed (0 = random)"), seedEntry,
	))

	themeSelect := widget.NewSelect([]string{"system", "light", "dark"}, func(name string) {
		c.Theme = name
		a.theme.SetThemeName(name)
		a.app.Settings().SetTheme(a.theme)
	})
	themeSelect.SetSelected(c.Theme)

	saveBtn := widget.NewButtonWithIcon("Save as defaults", theme.DocumentSaveIcon(), a.saveDefaults)
	if a.configPath == "" {
		saveBtn.Disable()
	}

	return container.NewVScroll(container.NewVBox(
		sheetSection,
		searchSection,
		widget.NewCard("Appearance", "", container.NewGridWithColumns(2, widget.NewLabel("Theme"), themeSelect)),
		container.NewHBox(layout.NewSpacer(), saveBtn),
	))
}

func (a *App) saveDefaults() {
	if err := project.SaveAppConfig(a.configPath, a.config); err != nil {
		dialog.ShowError(err, a.window)
		return
	}
	a.setStatus("Settings saved to " + a.configPath)
}

// ─── Results Panel ─────────────────────────────────────────

func (a *App) buildResultsPanel() fyne.CanvasObject {
	a.resultContainer = container.NewStack(widgets.RenderLayout(nil))
	return a.resultContainer
}

func (a *App) refreshResults() {
	a.resultContainer.RemoveAll()
	if a.result == nil {
		a.resultContainer.Add(widgets.RenderLayout(nil))
	} else {
		a.resultContainer.Add(widgets.RenderLayout(&a.result.Best.Layout))
	}
	a.resultContainer.Refresh()
}

// ─── Actions ───────────────────────────────────────────────

func (a *App) items() []model.ItemInput {
	return append(model.ExpandCovers(a.covers), a.pieces...)
}

func (a *App) setStatus(msg string) {
	if a.status != nil {
		a.status.SetText(msg)
	}
}

func (a *App) runOptimize() {
	if a.cancel != nil {
		return
	}
	items := a.items()
	if len(items) == 0 {
		dialog.ShowInformation("Nothing to optimize", "Add at least one cover first.", a.window)
		return
	}

	cfg := engine.ConfigFromAppConfig(a.config)
	sheet := a.config.Sheet()
	seed := a.config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctx, cancel := context.WithCancel(context.Background())
	ctx = klog.NewContext(ctx, klog.Background().WithName("viewer"))
	a.cancel = cancel
	a.progress.Show()
	a.progress.Start()
	a.setStatus(fmt.Sprintf("Optimizing %d pieces...", len(items)))

	go func() {
		result, err := engine.Optimize(ctx, items, sheet, cfg, seed)
		fyne.Do(func() {
			a.cancel = nil
			cancel()
			a.progress.Stop()
			a.progress.Hide()
			if err != nil && !errors.Is(err, context.Canceled) {
				a.setStatus("Optimization failed")
				dialog.ShowError(err, a.window)
				return
			}
			a.showResult(result, cfg, seed)
		})
	}()
}

func (a *App) stopOptimize() {
	if a.cancel != nil {
		a.cancel()
	}
}

func (a *App) showResult(result engine.Result, cfg engine.Config, seed int64) {
	a.result = &result
	a.runConfig = cfg
	a.runSeed = seed
	a.refreshResults()
	if a.tabs != nil {
		a.tabs.SelectIndex(2)
	}

	msg := widgets.SummaryLine(result.Best.Layout)
	if result.Feasible() {
		msg = fmt.Sprintf("%s (fitness %s, %d generations, %s, seed %d)", msg, result.Best.Fitness, result.Generations, result.Stopped, seed)
	}
	a.setStatus(msg)
}

func (a *App) pushHistory(label string) {
	a.history.Push(MakeSnapshot(a.covers, a.pieces, label))
}

func (a *App) restore(s Snapshot) {
	a.covers = s.Covers
	a.pieces = s.Pieces
	a.refreshCoversList()
}

func (a *App) undo() {
	if !a.history.CanUndo() {
		a.setStatus("Nothing to undo")
		return
	}
	label := a.history.UndoLabel()
	if s, ok := a.history.Undo(MakeSnapshot(a.covers, a.pieces, "")); ok {
		a.restore(s)
		a.setStatus("Undone: " + label)
	}
}

func (a *App) redo() {
	if !a.history.CanRedo() {
		a.setStatus("Nothing to redo")
		return
	}
	label := a.history.RedoLabel()
	if s, ok := a.history.Redo(MakeSnapshot(a.covers, a.pieces, "")); ok {
		a.restore(s)
		a.setStatus("Redone: " + label)
	}
}

// ─── Files ─────────────────────────────────────────────────

// LoadFile opens a cover list (CSV or Excel) or a saved report (.json).
func (a *App) LoadFile(path string) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		report, err := project.LoadReport(path)
		if err != nil {
			return err
		}
		a.showReport(report)
	} else {
		result := coverimporter.ImportFile(path)
		if err := a.applyImport(result); err != nil {
			return err
		}
	}
	a.rememberFile(path)
	return nil
}

func (a *App) rememberFile(path string) {
	a.config.AddRecentProject(path)
	if a.configPath == "" {
		return
	}
	if err := project.SaveAppConfig(a.configPath, a.config); err != nil {
		klog.ErrorS(err, "Saving recent files", "path", a.configPath)
	}
}

func (a *App) showReport(report project.Report) {
	a.showResult(engine.Result{
		RunID:       report.RunID,
		Best:        engine.Candidate{Layout: report.Layout, Fitness: report.Fitness},
		History:     report.History,
		Generations: report.Generations,
		Stopped:     report.Stopped,
	}, report.Config, report.Seed)
}

// applyImport adds the imported covers. Row errors are reported but do not
// discard the rows that parsed.
func (a *App) applyImport(result coverimporter.ImportResult) error {
	for _, w := range result.Warnings {
		klog.V(1).InfoS("Import warning", "warning", w)
	}
	if result.Empty() {
		if len(result.Errors) > 0 {
			return errors.New(strings.Join(result.Errors, "\n"))
		}
		return errors.New("the file contains no covers")
	}

	a.pushHistory("Import")
	a.covers = append(a.covers, result.Covers...)
	a.pieces = append(a.pieces, result.Pieces...)
	a.refreshCoversList()

	msg := fmt.Sprintf("Imported %d covers and %d pieces.", len(result.Covers), len(result.Pieces))
	if len(result.Errors) > 0 {
		msg += fmt.Sprintf(" %d rows had errors and were skipped.", len(result.Errors))
		dialog.ShowError(fmt.Errorf("%s", strings.Join(result.Errors, "\n")), a.window)
	}
	a.setStatus(msg)
	return nil
}

func (a *App) importCoverList() {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()
		path := reader.URI().Path()
		if err := a.applyImport(coverimporter.ImportFile(path)); err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		a.rememberFile(path)
	}, a.window)
}

func (a *App) openReport() {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()
		if err := a.LoadFile(reader.URI().Path()); err != nil {
			dialog.ShowError(err, a.window)
		}
	}, a.window)
}

func (a *App) saveReport() {
	a.exportTo("report.json", func(path string) error {
		return project.SaveReport(path, project.NewReport(*a.result, a.runConfig, a.runSeed))
	})
}

// exportTo asks for a destination and writes the current result with write.
func (a *App) exportTo(defaultName string, write func(path string) error) {
	if a.result == nil {
		dialog.ShowInformation("No results", "Run the optimizer first before exporting.", a.window)
		return
	}
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()
		if err := write(path); err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		a.setStatus("Saved " + path)
	}, a.window)
	d.SetFileName(defaultName)
	d.Show()
}

func (a *App) writePDF(path string) error {
	info := export.RunInfo{
		RunID:       a.result.RunID,
		Fitness:     a.result.Best.Fitness.String(),
		Generations: a.result.Generations,
		Seed:        a.runSeed,
		Stopped:     string(a.result.Stopped),
	}
	return export.ExportPDF(path, a.result.Best.Layout, info)
}

func (a *App) writeLabels(path string) error {
	return export.ExportLabels(path, a.result.Best.Layout)
}

func (a *App) writeDXF(path string) error {
	return export.ExportDXF(path, a.result.Best.Layout)
}

func (a *App) writeChart(path string) error {
	return export.ExportConvergenceChart(path, "Best layout per generation", a.result.History)
}
