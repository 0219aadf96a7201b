//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/syedzohaibshah/urdu-card-generator/internal/editor"
	"github.com/syedzohaibshah/urdu-card-generator/internal/geom"
	"github.com/syedzohaibshah/urdu-card-generator/internal/scene"
)

// CardCanvas shows the editor's display surface and feeds pointer input to
// the controller. Widget coordinates are display coordinates.
type CardCanvas struct {
	widget.BaseWidget

	ed     *editor.Editor
	raster *canvas.Image
	cursor scene.Cursor
	down   bool
}

var (
	_ desktop.Mouseable   = (*CardCanvas)(nil)
	_ desktop.Hoverable   = (*CardCanvas)(nil)
	_ desktop.Cursorable  = (*CardCanvas)(nil)
	_ fyne.Draggable      = (*CardCanvas)(nil)
	_ fyne.DoubleTappable = (*CardCanvas)(nil)
)

func NewCardCanvas() *CardCanvas {
	c := &CardCanvas{cursor: scene.CursorDefault}
	c.raster = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	c.raster.FillMode = canvas.ImageFillStretch
	c.raster.ScaleMode = canvas.ImageScaleSmooth
	c.ExtendBaseWidget(c)
	return c
}

// Attach binds the canvas to an editor and shows its surface.
func (c *CardCanvas) Attach(ed *editor.Editor) {
	c.ed = ed
	c.updateImage()
}

// updateImage points the raster at the current display surface, which
// changes identity when the card is resized.
func (c *CardCanvas) updateImage() {
	if c.ed == nil {
		return
	}
	if im, ok := c.ed.Surface().(interface{ Image() image.Image }); ok {
		c.raster.Image = im.Image()
	}
	c.Refresh()
}

func (c *CardCanvas) displaySize() fyne.Size {
	if c.ed == nil {
		return fyne.NewSize(400, 280)
	}
	w, h := c.ed.Viewport().DisplaySize()
	return fyne.NewSize(float32(w), float32(h))
}

func (c *CardCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.NRGBA{R: 0xe9, G: 0xec, B: 0xef, A: 0xff})
	frame := canvas.NewRectangle(color.Transparent)
	frame.StrokeColor = color.NRGBA{R: 0xde, G: 0xe2, B: 0xe6, A: 0xff}
	frame.StrokeWidth = 2
	return &cardCanvasRenderer{c: c, bg: bg, frame: frame, objects: []fyne.CanvasObject{bg, c.raster, frame}}
}

func toPt(p fyne.Position) geom.Pt { return geom.Pt{X: float64(p.X), Y: float64(p.Y)} }

func (c *CardCanvas) MouseDown(e *desktop.MouseEvent) {
	if c.ed == nil || e.Button != desktop.MouseButtonPrimary {
		return
	}
	c.down = true
	c.ed.PointerDown(toPt(e.Position))
}

func (c *CardCanvas) MouseUp(e *desktop.MouseEvent) {
	if c.ed == nil || !c.down {
		return
	}
	c.down = false
	c.ed.PointerUp(toPt(e.Position))
}

func (c *CardCanvas) Dragged(e *fyne.DragEvent) {
	if c.ed != nil {
		c.ed.PointerMove(toPt(e.Position))
	}
}

func (c *CardCanvas) DragEnd() {}

func (c *CardCanvas) DoubleTapped(e *fyne.PointEvent) {
	if c.ed != nil {
		c.ed.DoubleClick(toPt(e.Position))
	}
}

func (c *CardCanvas) MouseIn(e *desktop.MouseEvent) { c.MouseMoved(e) }

func (c *CardCanvas) MouseMoved(e *desktop.MouseEvent) {
	if c.ed != nil {
		c.ed.PointerMove(toPt(e.Position))
	}
}

func (c *CardCanvas) MouseOut() {}

// SetCursor records the shape the editor asked for.
func (c *CardCanvas) SetCursor(cur scene.Cursor) { c.cursor = cur }

func (c *CardCanvas) Cursor() desktop.Cursor { return desktopCursor(c.cursor) }

// desktopCursor maps editor cursors onto the shapes the desktop driver has.
func desktopCursor(c scene.Cursor) desktop.Cursor {
	switch c {
	case scene.CursorCrosshair, scene.CursorNWSE, scene.CursorNESW:
		return desktop.CrosshairCursor
	case scene.CursorMove, scene.CursorGrab:
		return desktop.PointerCursor
	}
	return desktop.DefaultCursor
}

type cardCanvasRenderer struct {
	c         *CardCanvas
	bg, frame *canvas.Rectangle
	objects   []fyne.CanvasObject
}

func (r *cardCanvasRenderer) Destroy()                     {}
func (r *cardCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *cardCanvasRenderer) MinSize() fyne.Size           { return r.c.displaySize() }
func (r *cardCanvasRenderer) Refresh()                     { r.Layout(r.c.Size()); canvas.Refresh(r.c.raster) }

// Layout pins the card to the top-left corner so widget positions equal
// display coordinates.
func (r *cardCanvasRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	ds := r.c.displaySize()
	r.c.raster.Resize(ds)
	r.c.raster.Move(fyne.NewPos(0, 0))
	r.frame.Resize(ds)
	r.frame.Move(fyne.NewPos(0, 0))
}
