/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"math"

	"github.com/syedzohaibshah/urdu-card-generator/internal/config"
	"github.com/syedzohaibshah/urdu-card-generator/internal/geom"
	"github.com/syedzohaibshah/urdu-card-generator/internal/scene"
)

// dragMode is the active pointer gesture.
type dragMode int

const (
	dragNone dragMode = iota
	dragMove
	dragScaleNW
	dragScaleNE
	dragScaleSW
	dragScaleSE
	dragRotate
)

// State names the controller state for hosts and diagnostics.
type State string

const (
	StateIdle     State = "idle"
	StateDragging State = "dragging"
	StateResizing State = "resizing"
	StateRotating State = "rotating"
)

type gesture struct {
	mode dragMode
	id   int64
	last geom.Pt // logical
}

func modeForHandle(h scene.Handle) dragMode {
	switch h {
	case scene.HandleNW:
		return dragScaleNW
	case scene.HandleNE:
		return dragScaleNE
	case scene.HandleSW:
		return dragScaleSW
	case scene.HandleSE:
		return dragScaleSE
	case scene.HandleRotate:
		return dragRotate
	}
	return dragNone
}

// State reports the current gesture.
func (ed *Editor) State() State {
	switch ed.gesture.mode {
	case dragMove:
		return StateDragging
	case dragRotate:
		return StateRotating
	case dragNone:
		return StateIdle
	}
	return StateResizing
}

// PointerDown starts a gesture at a display point. Handles of the selected
// element win over element bodies.
func (ed *Editor) PointerDown(display geom.Pt) {
	p := ed.vp.ToLogical(display)
	ed.gesture = gesture{}

	if h := ed.scene.SelectedHandleAt(p); h != scene.HandleNone {
		ed.gesture = gesture{mode: modeForHandle(h), id: ed.scene.SelectedID(), last: p}
		return
	}
	if e, ok := ed.scene.FindAt(p); ok {
		ed.scene.Select(e.ID)
		ed.gesture = gesture{mode: dragMove, id: e.ID, last: p}
		ed.changed()
		return
	}
	if ed.insertMode {
		ed.addAt(ed.opt.InsertText, p)
		return
	}
	ed.scene.ClearSelection()
	ed.changed()
}

// PointerMove advances the active gesture, or updates the cursor when idle.
func (ed *Editor) PointerMove(display geom.Pt) {
	p := ed.vp.ToLogical(display)
	g := &ed.gesture
	if g.mode == dragNone {
		ed.port.SetCursor(ed.CursorAt(display))
		return
	}
	e, ok := ed.scene.Get(g.id)
	if !ok {
		ed.gesture = gesture{}
		return
	}

	switch g.mode {
	case dragMove:
		ed.scene.Move(e.ID, p.X-g.last.X, p.Y-g.last.Y)
	case dragRotate:
		ed.scene.SetRotation(e.ID, geom.AngleDeg(e.Center(), p))
	default:
		ed.scene.SetBounds(e.ID, resize(e.Bounds(), g.mode, p))
	}
	g.last = p
	ed.redraw()
}

// resize moves the dragged corner of b to p. The opposite corner stays put
// and the size never drops below the element minimums.
func resize(b geom.Rect, mode dragMode, p geom.Pt) geom.Rect {
	right, bottom := b.X+b.W, b.Y+b.H
	switch mode {
	case dragScaleSE:
		b.W = math.Max(scene.MinWidth, p.X-b.X)
		b.H = math.Max(scene.MinHeight, p.Y-b.Y)
	case dragScaleSW:
		b.W = math.Max(scene.MinWidth, right-p.X)
		b.X = right - b.W
		b.H = math.Max(scene.MinHeight, p.Y-b.Y)
	case dragScaleNE:
		b.W = math.Max(scene.MinWidth, p.X-b.X)
		b.H = math.Max(scene.MinHeight, bottom-p.Y)
		b.Y = bottom - b.H
	case dragScaleNW:
		b.W = math.Max(scene.MinWidth, right-p.X)
		b.H = math.Max(scene.MinHeight, bottom-p.Y)
		b.X, b.Y = right-b.W, bottom-b.H
	}
	return b
}

// PointerUp ends the gesture. Any finished gesture is a history entry, even
// when the pointer never moved.
func (ed *Editor) PointerUp(display geom.Pt) {
	if ed.gesture.mode == dragNone {
		return
	}
	ed.gesture = gesture{}
	ed.save()
	e, ok := ed.scene.Selected()
	ed.port.SelectionChanged(e, ok)
	ed.port.SetCursor(ed.CursorAt(display))
}

// DoubleClick adds a new element where nothing is under the pointer.
func (ed *Editor) DoubleClick(display geom.Pt) bool {
	p := ed.vp.ToLogical(display)
	if _, ok := ed.scene.FindAt(p); ok {
		return false
	}
	ed.gesture = gesture{}
	ed.addAt(config.DefaultInsertText, p)
	return true
}

// CursorAt returns the pointer shape for a display point.
func (ed *Editor) CursorAt(display geom.Pt) scene.Cursor {
	if ed.insertMode {
		return scene.CursorCrosshair
	}
	p := ed.vp.ToLogical(display)
	if _, ok := ed.scene.Selected(); !ok {
		return scene.CursorDefault
	}
	if h := ed.scene.SelectedHandleAt(p); h != scene.HandleNone {
		return scene.CursorFor(h)
	}
	if _, ok := ed.scene.FindAt(p); ok {
		return scene.CursorMove
	}
	return scene.CursorDefault
}

func (ed *Editor) idleCursor() scene.Cursor {
	if ed.insertMode {
		return scene.CursorCrosshair
	}
	return scene.CursorDefault
}
