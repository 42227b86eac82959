// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"log"
	"path/filepath"

	"charscan/internal/app"
	"charscan/internal/capture"
	"charscan/internal/classify"
	"charscan/internal/imgio"
	"charscan/internal/ocr"
	"charscan/internal/pipeline"
	"charscan/internal/version"
	"charscan/ui/canvas"
	"charscan/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"gocv.io/x/gocv"
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app   fyne.App
	state *app.State
	prefs *prefs.Prefs

	canvas       *canvas.ImageCanvas
	resultsText  *widget.Label
	statusBar    *widget.Label
	captureBtn   *widget.Button
	recognizeBtn *widget.Button

	fallback *ocr.Engine

	stopCapture chan struct{}
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow("Charscan")

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  p,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.restoreSession()

	win.SetCloseIntercept(func() {
		mw.stopCaptureLoop()
		_ = p.Save()
		fyneApp.Quit()
	})

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewImageCanvas()

	mw.resultsText = widget.NewLabel("")
	mw.resultsText.Wrapping = fyne.TextWrapWord

	mw.statusBar = widget.NewLabel("Ready")

	toolbar := mw.createToolbar()
	sidePanel := mw.createSidePanel()

	canvasArea := container.NewBorder(
		toolbar, // top
		nil,     // bottom
		nil,     // left
		nil,     // right
		mw.canvas.Container(),
	)

	split := container.NewHSplit(sidePanel, canvasArea)
	split.SetOffset(0.25)

	content := container.NewBorder(
		nil,
		container.NewPadded(mw.statusBar),
		nil,
		nil,
		split,
	)

	mw.SetContent(content)
}

// createToolbar creates the toolbar with actions and zoom controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	openBtn := widget.NewButton("Open Image...", mw.onOpenImage)
	mw.recognizeBtn = widget.NewButton("Recognize", mw.onRecognize)
	mw.captureBtn = widget.NewButton("Start Camera", mw.onToggleCapture)

	zoomOutBtn := widget.NewButton("-", mw.canvas.ZoomOut)
	zoomInBtn := widget.NewButton("+", mw.canvas.ZoomIn)
	fitBtn := widget.NewButton("Fit", mw.canvas.FitToWindow)
	actualBtn := widget.NewButton("1:1", func() { mw.canvas.SetZoom(1.0) })

	return container.NewHBox(
		openBtn,
		mw.recognizeBtn,
		mw.captureBtn,
		widget.NewSeparator(),
		widget.NewLabel("Zoom:"),
		zoomOutBtn,
		zoomInBtn,
		fitBtn,
		actualBtn,
	)
}

// createSidePanel creates the controls and results panel.
func (mw *MainWindow) createSidePanel() fyne.CanvasObject {
	modelBtn := widget.NewButton("Load Model...", mw.onLoadModel)

	confSlider := widget.NewSlider(0, 1)
	confSlider.Step = 0.05
	confSlider.Value = mw.prefs.FloatWithFallback(prefs.KeyMinConfidence, 0)
	confLabel := widget.NewLabel(fmt.Sprintf("Min confidence: %.2f", confSlider.Value))
	confSlider.OnChanged = func(v float64) {
		confLabel.SetText(fmt.Sprintf("Min confidence: %.2f", v))
		mw.state.SetMinConfidence(v)
		mw.prefs.SetFloat(prefs.KeyMinConfidence, v)
	}

	fallbackCheck := widget.NewCheck("Tesseract fallback", mw.onToggleFallback)
	fallbackCheck.Checked = mw.prefs.Bool(prefs.KeyUseFallback, false)

	controls := container.NewVBox(
		modelBtn,
		widget.NewSeparator(),
		confLabel,
		confSlider,
		fallbackCheck,
		widget.NewSeparator(),
		widget.NewLabel("Results:"),
	)

	return container.NewBorder(
		controls,
		nil,
		nil,
		nil,
		container.NewScroll(mw.resultsText),
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", mw.onOpenImage),
		fyne.NewMenuItem("Load Model...", mw.onLoadModel),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Annotated Image...", mw.onSaveAnnotated),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.canvas.ZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.canvas.ZoomOut),
		fyne.NewMenuItem("Fit to Window", mw.canvas.FitToWindow),
		fyne.NewMenuItem("Actual Size", func() { mw.canvas.SetZoom(1.0) }),
	)

	toolsMenu := fyne.NewMenu("Tools",
		fyne.NewMenuItem("Recognize", mw.onRecognize),
		fyne.NewMenuItem("Toggle Camera", mw.onToggleCapture),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, viewMenu, toolsMenu, helpMenu))
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventImageLoaded, func(data interface{}) {
		mw.showCurrentImage()
		if path, ok := data.(string); ok {
			mw.SetTitle("Charscan - " + filepath.Base(path))
			mw.updateStatus("Image loaded: " + path)
		}
	})

	mw.state.On(app.EventModelLoaded, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.updateStatus("Model loaded: " + path)
		}
	})

	mw.state.On(app.EventRecognitionDone, func(data interface{}) {
		results, ok := data.([]pipeline.Result)
		if !ok {
			return
		}
		mw.canvas.SetOverlay(canvas.FromResults(results))
		mw.resultsText.SetText(pipeline.Text(results))
		mw.updateStatus(fmt.Sprintf("Recognized %d characters", len(results)))
	})
}

// restoreSession reloads the model and fallback engine from preferences.
func (mw *MainWindow) restoreSession() {
	if path := mw.prefs.String(prefs.KeyModelPath); path != "" {
		if err := mw.state.LoadModel(path); err != nil {
			log.Printf("restore model %s: %v", path, err)
		}
	}
	mw.state.SetMinConfidence(mw.prefs.FloatWithFallback(prefs.KeyMinConfidence, 0))
	if mw.prefs.Bool(prefs.KeyUseFallback, false) {
		mw.onToggleFallback(true)
	}
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// showCurrentImage pushes the current source Mat to the canvas.
func (mw *MainWindow) showCurrentImage() {
	mw.state.WithImage(func(img gocv.Mat) {
		if img.Empty() {
			return
		}
		goImg, err := imgio.ToImage(img)
		if err != nil {
			log.Printf("display image: %v", err)
			return
		}
		mw.canvas.SetImage(goImg)
	})
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastImageDir)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefs.KeyLastImageDir, filepath.Dir(filePath))
}

// Action handlers

func (mw *MainWindow) onOpenImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.state.LoadImage(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".bmp", ".tiff", ".tif"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onLoadModel() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		if err := mw.state.LoadModel(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.prefs.SetString(prefs.KeyModelPath, path)
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	fd.Show()
}

func (mw *MainWindow) onRecognize() {
	if mw.state.IsCapturing() {
		// The capture loop already recognizes every frame.
		mw.updateStatus("Recognition runs per frame while the camera is on")
		return
	}
	if _, err := mw.state.Recognize(); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onSaveAnnotated() {
	results := mw.state.LatestResults()
	if len(results) == 0 {
		mw.updateStatus("Nothing to save: run recognition first")
		return
	}

	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) == "" {
			path += ".png"
		}

		var saveErr error
		mw.state.WithImage(func(img gocv.Mat) {
			annotated := imgio.Annotate(img, results)
			defer annotated.Close()
			saveErr = imgio.Save(path, annotated)
		})
		if saveErr != nil {
			dialog.ShowError(saveErr, mw.Window)
			return
		}
		mw.updateStatus("Saved " + path)
	}, mw.Window)
	fd.SetFileName("annotated.png")
	fd.Show()
}

func (mw *MainWindow) onToggleFallback(on bool) {
	mw.prefs.SetBool(prefs.KeyUseFallback, on)

	if !on {
		mw.state.SetFallback(nil)
		if mw.fallback != nil {
			_ = mw.fallback.Close()
			mw.fallback = nil
		}
		return
	}

	engine, err := ocr.NewEngine(classify.DefaultAlphabet)
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.fallback = engine
	mw.state.SetFallback(engine)
}

func (mw *MainWindow) onToggleCapture() {
	if mw.state.IsCapturing() {
		mw.stopCaptureLoop()
		return
	}

	deviceID := mw.prefs.Int(prefs.KeyCameraDevice, 0)
	camera, err := capture.Open(deviceID)
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}

	mw.stopCapture = make(chan struct{})
	mw.state.SetCapturing(true)
	mw.captureBtn.SetText("Stop Camera")
	mw.recognizeBtn.Disable()
	mw.updateStatus(fmt.Sprintf("Camera %d running", deviceID))

	go func(stop chan struct{}) {
		defer camera.Close()
		err := camera.Run(func(frame gocv.Mat) bool {
			select {
			case <-stop:
				return false
			default:
			}

			mw.state.SetFrame(frame)
			mw.showCurrentImage()
			if _, err := mw.state.Recognize(); err != nil {
				log.Printf("live recognize: %v", err)
			}
			return true
		})
		if err != nil {
			log.Printf("capture loop: %v", err)
		}
		mw.state.SetCapturing(false)
		mw.captureBtn.SetText("Start Camera")
		mw.recognizeBtn.Enable()
	}(mw.stopCapture)
}

// stopCaptureLoop signals the capture goroutine to exit.
func (mw *MainWindow) stopCaptureLoop() {
	if mw.stopCapture != nil {
		select {
		case <-mw.stopCapture:
		default:
			close(mw.stopCapture)
		}
	}
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Charscan",
		fmt.Sprintf("Charscan %s\n\n"+
			"Printed character recognition with a small CNN\n"+
			"and a Tesseract fallback.",
			version.String()),
		mw.Window)
}
