/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import "math"

const mmPerInch = 25.4

// MMToPixels converts a physical length to whole pixels at dpi. Partial pixels
// are dropped, the same way a raster surface truncates a fractional size.
func MMToPixels(mm, dpi float64) int {
	return int(math.Floor(mm*dpi/mmPerInch + 1e-9))
}

// Viewport maps between the on-screen (display) space and the logical canvas.
// The logical canvas is shrunk to fit a FitW x FitH box but never enlarged.
type Viewport struct {
	LogicalW, LogicalH float64
	FitW, FitH         float64
}

// Scale returns min(1, FitW/LogicalW, FitH/LogicalH). Degenerate sizes give 1.
func (v Viewport) Scale() float64 {
	s := 1.0
	if v.LogicalW > 0 && v.FitW > 0 {
		s = math.Min(s, v.FitW/v.LogicalW)
	}
	if v.LogicalH > 0 && v.FitH > 0 {
		s = math.Min(s, v.FitH/v.LogicalH)
	}
	return s
}

// ToLogical converts a display point to logical canvas space.
func (v Viewport) ToLogical(p Pt) Pt { return p.Mul(1 / v.Scale()) }

// ToDisplay converts a logical point to display space.
func (v Viewport) ToDisplay(p Pt) Pt { return p.Mul(v.Scale()) }

// DisplaySize is the on-screen size of the canvas in display pixels.
func (v Viewport) DisplaySize() (w, h float64) {
	s := v.Scale()
	return v.LogicalW * s, v.LogicalH * s
}
