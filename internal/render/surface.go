/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/syedzohaibshah/urdu-card-generator/internal/textlayout"
)

// Shadow is a drop shadow applied to text. A zero Blur disables it.
// Offsets are in device pixels and do not rotate with the text.
type Shadow struct {
	Color            color.Color
	Blur             float64
	OffsetX, OffsetY float64
}

// Surface is a 2D drawing target with a state stack. Coordinates are device
// pixels transformed by the current rotation.
type Surface interface {
	textlayout.Measurer
	Size() (w, h int)
	// Clear makes every pixel transparent.
	Clear()
	Push()
	Pop()
	// RotateAbout rotates subsequent drawing by deg degrees (clockwise on screen) around (cx, cy).
	RotateAbout(deg, cx, cy float64)
	// SetAlpha sets the alpha multiplier applied to every color.
	SetAlpha(a float64)
	SetColor(c color.Color)
	SetFont(spec textlayout.FontSpec)
	// SetRTL records the paragraph direction; glyph order is left to the face.
	SetRTL(rtl bool)
	SetShadow(s Shadow)
	FillText(s string, x, y float64, align textlayout.Align)
	FillRect(x, y, w, h float64)
	StrokeRect(x, y, w, h, lineWidth float64, dash ...float64)
	FillCircle(cx, cy, r float64)
}

// MaxSurfacePixels bounds off-screen allocations (about 256 MiB of RGBA).
const MaxSurfacePixels = 64 << 20

// ErrSurfaceSize is returned for non-positive or oversized surfaces.
var ErrSurfaceSize = errors.New("render: invalid surface size")

// CheckSize validates surface dimensions before allocation.
func CheckSize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrSurfaceSize, w, h)
	}
	if int64(w)*int64(h) > MaxSurfacePixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrSurfaceSize, w, h, MaxSurfacePixels)
	}
	return nil
}

// Factory allocates surfaces; the editor and the export pipeline take one so
// tests can swap in a Recorder.
type Factory func(w, h int) (Surface, error)
