/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import "github.com/syedzohaibshah/urdu-card-generator/internal/geom"

// Handle identifies an edit hotspot on the selected element.
type Handle string

const (
	HandleNone   Handle = ""
	HandleNW     Handle = "nw"
	HandleNE     Handle = "ne"
	HandleSW     Handle = "sw"
	HandleSE     Handle = "se"
	HandleRotate Handle = "rotate"
)

const (
	// HandleTolerance is the half-size of a square handle hotspot.
	HandleTolerance = 8.0
	// RotateHandleOffset is the distance of the rotate handle above the top edge.
	RotateHandleOffset = 20.0
)

// HandlePoint pairs a handle with its logical position.
type HandlePoint struct {
	Handle Handle
	At     geom.Pt
}

// Handles lists the hotspots of e in hit-test priority order.
// Rotation is ignored: handles sit on the unrotated box.
func Handles(e TextElement) []HandlePoint {
	b := e.Bounds()
	return []HandlePoint{
		{HandleNW, b.NW()},
		{HandleNE, b.NE()},
		{HandleSW, b.SW()},
		{HandleSE, b.SE()},
		{HandleRotate, geom.Pt{X: b.X + b.W/2, Y: b.Y - RotateHandleOffset}},
	}
}

// HandleAt returns the first handle of e within HandleTolerance (Chebyshev) of p.
func HandleAt(e TextElement, p geom.Pt) Handle {
	for _, h := range Handles(e) {
		if h.At.Chebyshev(p) <= HandleTolerance {
			return h.Handle
		}
	}
	return HandleNone
}

// FindAt returns the topmost element whose unrotated box contains p.
func (s *Scene) FindAt(p geom.Pt) (TextElement, bool) {
	for i := len(s.elems) - 1; i >= 0; i-- {
		if s.elems[i].Bounds().Contains(p) {
			return s.elems[i], true
		}
	}
	return TextElement{}, false
}

// SelectedHandleAt hit-tests the handles of the selected element only.
func (s *Scene) SelectedHandleAt(p geom.Pt) Handle {
	e, ok := s.Selected()
	if !ok {
		return HandleNone
	}
	return HandleAt(e, p)
}

// Cursor is a pointer shape hint for the host UI.
type Cursor string

const (
	CursorDefault   Cursor = "default"
	CursorCrosshair Cursor = "crosshair"
	CursorMove      Cursor = "move"
	CursorNWSE      Cursor = "nwse-resize"
	CursorNESW      Cursor = "nesw-resize"
	CursorGrab      Cursor = "grab"
)

// CursorFor maps a handle to its cursor.
func CursorFor(h Handle) Cursor {
	switch h {
	case HandleNW, HandleSE:
		return CursorNWSE
	case HandleNE, HandleSW:
		return CursorNESW
	case HandleRotate:
		return CursorGrab
	default:
		return CursorDefault
	}
}
