/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render draws a scene snapshot onto a Surface at a given scale.
// The same code path serves the interactive preview and high resolution
// exports; only Options differ.
package render

import (
	"github.com/syedzohaibshah/urdu-card-generator/internal/geom"
	"github.com/syedzohaibshah/urdu-card-generator/internal/scene"
	"github.com/syedzohaibshah/urdu-card-generator/internal/textlayout"
)

// Layout constants in logical units.
const (
	TextInset    = 10.0
	ShadowOffset = 2.0
	ChromeLine   = 2.0
	ChromeDash   = 5.0
	HandleSize   = 8.0
	RotateRadius = 6.0
)

// Options controls one render pass.
type Options struct {
	// Scale multiplies every logical length, e.g. exportDPI/displayDPI.
	Scale float64
	// Background is a CSS color; unparsable values fall back to white.
	Background string
	// Interactive enables selection chrome. Export surfaces leave it off.
	Interactive bool
}

// ScaleFor returns the export multiplier for a target DPI relative to the
// display DPI the logical canvas is defined at.
func ScaleFor(exportDPI, displayDPI float64) float64 {
	if displayDPI <= 0 {
		return 1
	}
	return exportDPI / displayDPI
}

// Render draws snap onto dst. It reads snap and never modifies it.
func Render(dst Surface, snap scene.Snapshot, opt Options) {
	k := opt.Scale
	if k <= 0 {
		k = 1
	}
	w, h := dst.Size()
	dst.Clear()
	dst.Push()
	dst.SetColor(ColorOr(opt.Background, white))
	dst.FillRect(0, 0, float64(w), float64(h))
	dst.Pop()

	var sel *scene.TextElement
	for i := range snap.Elements {
		e := &snap.Elements[i]
		drawElement(dst, *e, k)
		if e.ID == snap.Selected {
			sel = e
		}
	}
	if opt.Interactive && sel != nil {
		drawChrome(dst, *sel, k)
	}
}

func textAlign(a scene.Alignment) textlayout.Align {
	switch a {
	case scene.AlignLeft:
		return textlayout.AlignLeft
	case scene.AlignCenter:
		return textlayout.AlignCenter
	default:
		return textlayout.AlignRight
	}
}

// drawElement renders one element. Rotation is normalized so that angles a
// full turn apart produce the same pixels.
func drawElement(dst Surface, e scene.TextElement, k float64) {
	dst.Push()
	defer dst.Pop()

	dst.SetAlpha(e.Opacity / scene.MaxOpacity)
	box := e.Bounds().Scaled(k)
	if rot := geom.NormalizeDeg(e.Rotation); rot != 0 {
		c := box.Center()
		dst.RotateAbout(float64(rot), c.X, c.Y)
	}
	dst.SetFont(textlayout.FontSpec{
		Family: e.FontFamily,
		Weight: textlayout.ParseWeight(e.FontWeight),
		SizePx: e.FontSize * k,
	})
	dst.SetColor(ColorOr(e.Color, black))
	dst.SetRTL(true)
	if e.ShadowBlur > 0 {
		dst.SetShadow(Shadow{
			Color:   ColorOr(e.ShadowColor, black),
			Blur:    e.ShadowBlur * k,
			OffsetX: ShadowOffset * k,
			OffsetY: ShadowOffset * k,
		})
	}

	b := textlayout.Block{
		X: box.X, Y: box.Y, W: box.W, H: box.H,
		FontSize:    e.FontSize * k,
		LineSpacing: e.LineSpacing * k,
		WordSpacing: e.WordSpacing * k,
		Inset:       TextInset * k,
		Align:       textAlign(e.Alignment),
	}
	for _, r := range textlayout.LayoutBlock(e.Text, b, dst) {
		dst.FillText(r.Text, r.X, r.Y, r.Align)
	}
}

// drawChrome draws the selection box and handles on the unrotated bounds,
// matching where hit-testing looks for them.
func drawChrome(dst Surface, e scene.TextElement, k float64) {
	dst.Push()
	defer dst.Pop()

	box := e.Bounds().Scaled(k)
	dst.SetColor(selectionColor)
	dst.StrokeRect(box.X, box.Y, box.W, box.H, ChromeLine*k, ChromeDash*k, ChromeDash*k)

	hs := HandleSize * k
	for _, p := range []geom.Pt{box.NW(), box.NE(), box.SW(), box.SE()} {
		dst.FillRect(p.X-hs/2, p.Y-hs/2, hs, hs)
	}
	dst.SetColor(rotateColor)
	dst.FillCircle(box.X+box.W/2, box.Y-scene.RotateHandleOffset*k, RotateRadius*k)
}
