// Package canvas provides an image canvas with zoom and a result overlay.
package canvas

import (
	"image"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	minZoom  = 0.1
	maxZoom  = 8.0
	zoomStep = 1.25
)

// ImageCanvas displays the source image with the recognition overlay.
type ImageCanvas struct {
	widget.BaseWidget

	img     image.Image
	overlay *Overlay

	raster  *fynecanvas.Raster
	zoom    float64
	scroll  *container.Scroll
	imgSize fyne.Size

	onZoomChange func(zoom float64)
}

// NewImageCanvas creates an empty canvas.
func NewImageCanvas() *ImageCanvas {
	ic := &ImageCanvas{
		zoom:    1.0,
		imgSize: fyne.NewSize(400, 300),
	}

	ic.raster = fynecanvas.NewRaster(ic.draw)
	ic.raster.ScaleMode = fynecanvas.ImageScalePixels
	ic.raster.SetMinSize(ic.imgSize)

	ic.scroll = container.NewScroll(ic.raster)
	ic.scroll.Direction = container.ScrollBoth

	ic.ExtendBaseWidget(ic)
	return ic
}

// Container returns the canvas container for embedding in layouts.
func (ic *ImageCanvas) Container() fyne.CanvasObject {
	return ic.scroll
}

// SetImage sets the image to display and clears the overlay.
func (ic *ImageCanvas) SetImage(img image.Image) {
	ic.img = img
	ic.overlay = nil
	ic.updateContentSize()
}

// SetOverlay sets the recognition overlay.
func (ic *ImageCanvas) SetOverlay(overlay *Overlay) {
	ic.overlay = overlay
	ic.Refresh()
}

// SetZoom sets the zoom level, clamped to sane bounds.
func (ic *ImageCanvas) SetZoom(zoom float64) {
	if zoom < minZoom {
		zoom = minZoom
	}
	if zoom > maxZoom {
		zoom = maxZoom
	}
	ic.zoom = zoom
	ic.updateContentSize()

	if ic.onZoomChange != nil {
		ic.onZoomChange(zoom)
	}
}

// Zoom returns the current zoom level.
func (ic *ImageCanvas) Zoom() float64 {
	return ic.zoom
}

// ZoomIn increases the zoom level.
func (ic *ImageCanvas) ZoomIn() {
	ic.SetZoom(ic.zoom * zoomStep)
}

// ZoomOut decreases the zoom level.
func (ic *ImageCanvas) ZoomOut() {
	ic.SetZoom(ic.zoom / zoomStep)
}

// FitToWindow adjusts zoom so the whole image is visible.
func (ic *ImageCanvas) FitToWindow() {
	if ic.img == nil {
		return
	}
	bounds := ic.img.Bounds()
	viewSize := ic.scroll.Size()
	if bounds.Dx() == 0 || bounds.Dy() == 0 || viewSize.Width <= 0 || viewSize.Height <= 0 {
		return
	}

	zoomX := float64(viewSize.Width) / float64(bounds.Dx())
	zoomY := float64(viewSize.Height) / float64(bounds.Dy())
	zoom := zoomX
	if zoomY < zoomX {
		zoom = zoomY
	}
	ic.SetZoom(zoom * 0.95)
}

// OnZoomChange sets a callback for zoom changes.
func (ic *ImageCanvas) OnZoomChange(callback func(zoom float64)) {
	ic.onZoomChange = callback
}

// Refresh refreshes the canvas display.
func (ic *ImageCanvas) Refresh() {
	ic.raster.Refresh()
}

func (ic *ImageCanvas) updateContentSize() {
	if ic.img == nil {
		ic.imgSize = fyne.NewSize(400, 300)
	} else {
		bounds := ic.img.Bounds()
		ic.imgSize = fyne.NewSize(
			float32(float64(bounds.Dx())*ic.zoom),
			float32(float64(bounds.Dy())*ic.zoom),
		)
	}

	ic.raster.SetMinSize(ic.imgSize)
	ic.raster.Resize(ic.imgSize)
	ic.raster.Refresh()
	ic.scroll.Refresh()
}

// draw renders the zoomed image and the overlay.
func (ic *ImageCanvas) draw(w, h int) image.Image {
	output := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(output.Pix); i += 4 {
		output.Pix[i] = 255
	}

	if ic.img != nil {
		srcBounds := ic.img.Bounds()
		for y := 0; y < h; y++ {
			srcY := int(float64(y)/ic.zoom) + srcBounds.Min.Y
			if srcY < srcBounds.Min.Y || srcY >= srcBounds.Max.Y {
				continue
			}
			for x := 0; x < w; x++ {
				srcX := int(float64(x)/ic.zoom) + srcBounds.Min.X
				if srcX < srcBounds.Min.X || srcX >= srcBounds.Max.X {
					continue
				}
				output.Set(x, y, ic.img.At(srcX, srcY))
			}
		}
	}

	if ic.overlay != nil {
		ic.overlay.draw(output, ic.zoom)
	}

	return output
}

// CreateRenderer implements fyne.Widget.
func (ic *ImageCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(ic.scroll)
}
