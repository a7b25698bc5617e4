package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	fyne "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/keurfonluu/pyckerviewer/src/session"
	"github.com/keurfonluu/pyckerviewer/src/wiggle"
)

// sidePanelWidth is reserved for the control panel when sizing charts.
const sidePanelWidth = 280

// fixedTheme pins the color variant regardless of the OS setting.
type fixedTheme struct{ variant fyne.ThemeVariant }

func (t *fixedTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	return theme.DefaultTheme().Color(name, t.variant)
}
func (t *fixedTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}
func (t *fixedTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}
func (t *fixedTheme) Size(name fyne.ThemeSizeName) float32 {
	return theme.DefaultTheme().Size(name)
}

type uiState struct {
	app    fyne.App
	window fyne.Window
	ctrl   *session.Controller

	dirPath string

	// widgets
	fileList  *widget.List
	dirLabel  *widget.Label
	imgCanvas *canvas.Image
	overlay   *traceOverlay
	status    *widget.Label

	// controls
	plotSelect  *widget.Select
	normChk     *widget.Check
	fillChk     *widget.Check
	percEntry   *widget.Entry
	rateChk     *widget.Check
	rateEntry   *widget.Entry
	lowChk      *widget.Check
	lowEntry    *widget.Entry
	highChk     *widget.Check
	highEntry   *widget.Entry
	delayChk    *widget.Check
	delayEntry  *widget.Entry
	delaySelect *widget.Select
	axisSelect  *widget.Select

	// chart geometry of the last render, used by the overlay's pixel
	// mapping
	gatherColumns int
	plotBox       wiggle.Box
	cellBoxes     []wiggle.Box
}

func main() {
	var dirFlag string
	var screenshotsFlag string
	var logLevelFlag string
	flag.StringVar(&dirFlag, "dir", "", "Directory of waveform files to open at startup")
	flag.StringVar(&screenshotsFlag, "screenshots", "", "Render charts for the first file in -dir to this directory and exit")
	flag.StringVar(&logLevelFlag, "loglevel", "info", "Log level: debug, info, warn, error")
	flag.Parse()
	session.SetLogLevel(logLevelFlag)

	if screenshotsFlag != "" {
		if err := RunScreenshotsMode(dirFlag, screenshotsFlag); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	a := app.NewWithID("com.keurfonluu.pyckerviewer")
	w := a.NewWindow("Pycker Viewer")
	w.Resize(fyne.NewSize(1200, 820))

	state := &uiState{
		app:           a,
		window:        w,
		ctrl:          session.New(session.DiskReader{}),
		dirPath:       dirFlag,
		gatherColumns: 1,
	}

	// control panel widgets; callbacks are wired after the canvas exists
	state.plotSelect = widget.NewSelect([]string{"Wiggle", "Gather"}, nil)
	state.plotSelect.Selected = "Wiggle"
	state.fillChk = widget.NewCheck("Fill positive lobes", nil)
	state.normChk = widget.NewCheck("Normalize", nil)
	state.percEntry = widget.NewEntry()
	state.percEntry.SetText("1")
	state.rateChk = widget.NewCheck("Enforce fs (Hz)", nil)
	state.rateEntry = widget.NewEntry()
	state.lowChk = widget.NewCheck("Lowpass (Hz)", nil)
	state.lowEntry = widget.NewEntry()
	state.highChk = widget.NewCheck("Highpass (Hz)", nil)
	state.highEntry = widget.NewEntry()
	state.delayChk = widget.NewCheck("Delay", nil)
	state.delayEntry = widget.NewEntry()
	state.delayEntry.SetText("0")
	units := make([]string, len(session.Units))
	for i, u := range session.Units {
		units[i] = string(u)
	}
	state.delaySelect = widget.NewSelect(units, nil)
	state.delaySelect.Selected = string(session.UnitSamples)
	state.axisSelect = widget.NewSelect([]string{"Samples", "Seconds"}, nil)
	state.axisSelect.Selected = "Samples"
	applyBtn := widget.NewButton("Apply", func() { applyConfig(state) })

	state.dirLabel = widget.NewLabel("(no directory)")
	state.status = widget.NewLabel("")

	// file list
	state.fileList = widget.NewList(
		func() int { return len(state.ctrl.Files()) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			files := state.ctrl.Files()
			if int(i) < len(files) {
				o.(*widget.Label).SetText(files[i])
			}
		},
	)
	state.fileList.OnSelected = func(i widget.ListItemID) { selectFile(state, int(i)) }

	// chart canvas and interaction overlay
	state.imgCanvas = canvas.NewImageFromImage(blank(640, 400))
	state.imgCanvas.FillMode = canvas.ImageFillContain
	state.imgCanvas.SetMinSize(fyne.NewSize(640, 400))
	state.overlay = newTraceOverlay(state)

	controls := container.NewVBox(
		widget.NewLabelWithStyle("Plot", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		state.plotSelect,
		state.fillChk,
		state.normChk,
		container.NewBorder(nil, nil, widget.NewLabel("Perc:"), nil, state.percEntry),
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Signal", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewBorder(nil, nil, state.rateChk, nil, state.rateEntry),
		container.NewBorder(nil, nil, state.lowChk, nil, state.lowEntry),
		container.NewBorder(nil, nil, state.highChk, nil, state.highEntry),
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Time axis", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		state.axisSelect,
		container.NewBorder(nil, nil, state.delayChk, state.delaySelect, state.delayEntry),
		applyBtn,
		widget.NewSeparator(),
		widget.NewButton("Import Directory…", func() { openDirectoryDialog(state) }),
		state.dirLabel,
	)
	left := container.NewBorder(controls, nil, nil, nil, state.fileList)

	chartArea := container.NewStack(state.imgCanvas, state.overlay)
	center := container.NewBorder(nil, state.status, nil, nil, chartArea)

	split := container.NewHSplit(left, center)
	split.SetOffset(0.22)
	w.SetContent(split)

	// wire callbacks now that everything exists
	onToggle := func(bool) { applyConfig(state) }
	state.plotSelect.OnChanged = func(string) { applyConfig(state) }
	state.fillChk.OnChanged = onToggle
	state.normChk.OnChanged = onToggle
	state.axisSelect.OnChanged = func(string) { applyConfig(state) }
	state.delaySelect.OnChanged = func(string) { applyConfig(state) }

	buildMenus(state)
	loadPrefs(state)
	if th := a.Preferences().StringWithFallback("theme", ""); th != "" {
		setTheme(state, th)
	}

	w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyDown:
			stepFile(state, 1)
		case fyne.KeyUp:
			stepFile(state, -1)
		}
	})
	w.SetCloseIntercept(func() {
		dialog.ShowConfirm("Quit", "Do you want to quit Pycker Viewer?", func(ok bool) {
			if !ok {
				return
			}
			savePrefs(state)
			state.window.Close()
		}, w)
	})

	if state.dirPath != "" {
		importDirectory(state, state.dirPath)
	}

	w.ShowAndRun()
}

func buildMenus(state *uiState) {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Import Directory…", func() { openDirectoryDialog(state) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Next File", func() { stepFile(state, 1) }),
		fyne.NewMenuItem("Previous File", func() { stepFile(state, -1) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Import All Picks…", func() { importPicksDialog(state) }),
		fyne.NewMenuItem("Export Current Picks…", func() { exportCurrentPicksDialog(state) }),
		fyne.NewMenuItem("Export All Picks…", func() { exportAllPicksDialog(state) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { state.window.Close() }),
	)
	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Wiggle", func() { state.plotSelect.SetSelected("Wiggle") }),
		fyne.NewMenuItem("Gather", func() { state.plotSelect.SetSelected("Gather") }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Time in Samples", func() { state.axisSelect.SetSelected("Samples") }),
		fyne.NewMenuItem("Time in Seconds", func() { state.axisSelect.SetSelected("Seconds") }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Light Theme", func() { setTheme(state, "light") }),
		fyne.NewMenuItem("Dark Theme", func() { setTheme(state, "dark") }),
	)
	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", func() {
			dialog.ShowInformation("About",
				"Pycker Viewer\n\nVisualize seismic traces and pick first break arrival times.",
				state.window)
		}),
	)
	state.window.SetMainMenu(fyne.NewMainMenu(fileMenu, viewMenu, helpMenu))

	canv := state.window.Canvas()
	if canv != nil {
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { openDirectoryDialog(state) })
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierSuper}, func(fyne.Shortcut) { openDirectoryDialog(state) })
	}
}

func setTheme(state *uiState, name string) {
	variant := theme.VariantLight
	if name == "dark" {
		variant = theme.VariantDark
	}
	state.app.Settings().SetTheme(&fixedTheme{variant: variant})
	state.app.Preferences().SetString("theme", name)
}

func openDirectoryDialog(state *uiState) {
	d := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		importDirectory(state, uri.Path())
	}, state.window)
	d.Show()
}

func importDirectory(state *uiState, path string) {
	syncConfig(state)
	if err := state.ctrl.ImportDirectory(path); err != nil {
		if errors.Is(err, session.ErrEmptyDirectory) {
			dialog.ShowInformation("Import Directory", "No compatible waveform file found in\n"+path, state.window)
		} else {
			dialog.ShowError(err, state.window)
		}
		return
	}
	state.dirPath = path
	state.dirLabel.SetText(truncatePath(path, 40))
	state.fileList.UnselectAll()
	state.fileList.Refresh()
	state.imgCanvas.Image = blank(640, 400)
	state.imgCanvas.Refresh()
	state.status.SetText(fmt.Sprintf("%d files", len(state.ctrl.Files())))
	savePrefs(state)
}

func selectFile(state *uiState, i int) {
	syncConfig(state)
	if err := state.ctrl.SelectIndex(i); err != nil {
		dialog.ShowError(err, state.window)
		return
	}
	redrawTraces(state)
	state.status.SetText(fmt.Sprintf("%s   %d channels   fs %g Hz",
		state.ctrl.CurrentFile(), state.ctrl.NumChannels(), state.ctrl.SamplingRate()))
}

// stepFile moves the list selection, which drives the actual load. Requests
// beyond either end are no-ops, matching the controller's clamped navigation.
func stepFile(state *uiState, delta int) {
	n := len(state.ctrl.Files())
	if n == 0 {
		return
	}
	i := state.ctrl.CurrentIndex()
	if i < 0 {
		if delta > 0 {
			state.fileList.Select(0)
		}
		return
	}
	j := i + delta
	if j < 0 || j >= n {
		return
	}
	state.fileList.Select(j)
}

// syncConfig copies the control panel into the session configuration.
func syncConfig(state *uiState) {
	cfg := state.ctrl.Config()
	cfg.Wiggle = state.plotSelect.Selected != "Gather"
	cfg.Fill = state.fillChk.Checked
	cfg.Normalize = state.normChk.Checked
	cfg.Perc = parseFloat(state.percEntry.Text, 1)
	cfg.EnforceRate = state.rateChk.Checked
	if cfg.EnforceRate {
		cfg.SamplingRate = parseFloat(state.rateEntry.Text, cfg.SamplingRate)
	}
	cfg.Lowpass = state.lowChk.Checked
	cfg.LowpassCut = parseFloat(state.lowEntry.Text, 0)
	cfg.Highpass = state.highChk.Checked
	cfg.HighpassCut = parseFloat(state.highEntry.Text, 0)
	cfg.Delay = state.delayChk.Checked
	cfg.DelayValue = parseFloat(state.delayEntry.Text, 0)
	cfg.DelayUnit = session.Unit(state.delaySelect.Selected)
	cfg.Seconds = state.axisSelect.Selected == "Seconds"
	state.ctrl.SetConfig(cfg)
}

func applyConfig(state *uiState) {
	syncConfig(state)
	savePrefs(state)
	if state.ctrl.CurrentIndex() < 0 {
		return
	}
	if err := state.ctrl.Apply(); err != nil {
		dialog.ShowError(err, state.window)
		return
	}
	redrawTraces(state)
}

func importPicksDialog(state *uiState) {
	d := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		defer rc.Close()
		if err := state.ctrl.ImportAllPicks(rc); err != nil {
			dialog.ShowError(err, state.window)
			return
		}
		if state.ctrl.CurrentIndex() >= 0 {
			redrawTraces(state)
		}
		state.status.SetText("picks imported")
	}, state.window)
	d.Show()
}

func exportCurrentPicksDialog(state *uiState) {
	fs := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		defer wc.Close()
		if err := state.ctrl.ExportCurrentPick(wc); err != nil {
			if errors.Is(err, session.ErrNoDataToExport) {
				dialog.ShowInformation("Export", "No pick to export.", state.window)
			} else {
				dialog.ShowError(err, state.window)
			}
		}
	}, state.window)
	fs.SetFileName(exportBaseName(state.ctrl.CurrentFile()) + ".txt")
	fs.Show()
}

func exportAllPicksDialog(state *uiState) {
	fs := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		defer wc.Close()
		if err := state.ctrl.ExportAllPicks(wc); err != nil {
			if errors.Is(err, session.ErrNoDataToExport) {
				dialog.ShowInformation("Export", "No pick to export.", state.window)
			} else {
				dialog.ShowError(err, state.window)
			}
		}
	}, state.window)
	fs.SetFileName("picks.gob")
	fs.Show()
}

// exportBaseName strips the waveform extension for the default pick file name.
func exportBaseName(name string) string {
	if name == "" {
		return "picks"
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// prefs
func savePrefs(state *uiState) {
	if state == nil || state.app == nil {
		return
	}
	prefs := state.app.Preferences()
	cfg := state.ctrl.Config()
	prefs.SetString("lastDir", state.dirPath)
	prefs.SetBool("wiggle", cfg.Wiggle)
	prefs.SetBool("fill", cfg.Fill)
	prefs.SetBool("normalize", cfg.Normalize)
	prefs.SetFloat("perc", cfg.Perc)
	prefs.SetBool("enforceRate", cfg.EnforceRate)
	prefs.SetFloat("samplingRate", cfg.SamplingRate)
	prefs.SetBool("lowpass", cfg.Lowpass)
	prefs.SetFloat("lowpassCut", cfg.LowpassCut)
	prefs.SetBool("highpass", cfg.Highpass)
	prefs.SetFloat("highpassCut", cfg.HighpassCut)
	prefs.SetBool("delay", cfg.Delay)
	prefs.SetFloat("delayValue", cfg.DelayValue)
	prefs.SetString("delayUnit", string(cfg.DelayUnit))
	prefs.SetBool("seconds", cfg.Seconds)
}

func loadPrefs(state *uiState) {
	if state == nil || state.app == nil {
		return
	}
	prefs := state.app.Preferences()
	cfg := state.ctrl.Config()
	if state.dirPath == "" {
		state.dirPath = prefs.StringWithFallback("lastDir", "")
	}
	cfg.Wiggle = prefs.BoolWithFallback("wiggle", cfg.Wiggle)
	cfg.Fill = prefs.BoolWithFallback("fill", cfg.Fill)
	cfg.Normalize = prefs.BoolWithFallback("normalize", cfg.Normalize)
	cfg.Perc = prefs.FloatWithFallback("perc", cfg.Perc)
	cfg.EnforceRate = prefs.BoolWithFallback("enforceRate", cfg.EnforceRate)
	cfg.SamplingRate = prefs.FloatWithFallback("samplingRate", cfg.SamplingRate)
	cfg.Lowpass = prefs.BoolWithFallback("lowpass", cfg.Lowpass)
	cfg.LowpassCut = prefs.FloatWithFallback("lowpassCut", cfg.LowpassCut)
	cfg.Highpass = prefs.BoolWithFallback("highpass", cfg.Highpass)
	cfg.HighpassCut = prefs.FloatWithFallback("highpassCut", cfg.HighpassCut)
	cfg.Delay = prefs.BoolWithFallback("delay", cfg.Delay)
	cfg.DelayValue = prefs.FloatWithFallback("delayValue", cfg.DelayValue)
	if u := prefs.StringWithFallback("delayUnit", string(cfg.DelayUnit)); u != "" {
		cfg.DelayUnit = session.Unit(u)
	}
	cfg.Seconds = prefs.BoolWithFallback("seconds", cfg.Seconds)
	state.ctrl.SetConfig(cfg)

	// reflect the loaded configuration in the control panel
	if cfg.Wiggle {
		state.plotSelect.Selected = "Wiggle"
	} else {
		state.plotSelect.Selected = "Gather"
	}
	state.fillChk.SetChecked(cfg.Fill)
	state.normChk.SetChecked(cfg.Normalize)
	state.percEntry.SetText(formatFloat(cfg.Perc))
	state.rateChk.SetChecked(cfg.EnforceRate)
	if cfg.SamplingRate > 0 {
		state.rateEntry.SetText(formatFloat(cfg.SamplingRate))
	}
	state.lowChk.SetChecked(cfg.Lowpass)
	if cfg.LowpassCut > 0 {
		state.lowEntry.SetText(formatFloat(cfg.LowpassCut))
	}
	state.highChk.SetChecked(cfg.Highpass)
	if cfg.HighpassCut > 0 {
		state.highEntry.SetText(formatFloat(cfg.HighpassCut))
	}
	state.delayChk.SetChecked(cfg.Delay)
	state.delayEntry.SetText(formatFloat(cfg.DelayValue))
	state.delaySelect.Selected = string(cfg.DelayUnit)
	if cfg.Seconds {
		state.axisSelect.Selected = "Seconds"
	} else {
		state.axisSelect.Selected = "Samples"
	}
	state.plotSelect.Refresh()
	state.delaySelect.Refresh()
	state.axisSelect.Refresh()
}

// utils
func parseFloat(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fallback
	}
	return v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func truncatePath(p string, n int) string {
	if len(p) <= n {
		return p
	}
	base := filepath.Base(p)
	if len(base)+4 >= n {
		return "..." + base
	}
	dir := filepath.Dir(p)
	left := n - len(base) - 4
	if left <= 0 {
		return "..." + base
	}
	if len(dir) > left {
		dir = dir[:left]
	}
	return dir + "/..." + base
}
