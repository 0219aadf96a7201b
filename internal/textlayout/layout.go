/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Abstractions for font resolution and text measurement.
// The goal is to isolate all measurement behind deterministic interfaces that
// can be implemented with different engines. No shaping or bidi reordering
// happens here; glyphs come from whatever face the Provider returns.

import (
	"image"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// FontSpec describes a requested font. SizePx is in device pixels.
type FontSpec struct {
	Family string
	Weight int // 100..900
	SizePx float64
}

// ParseWeight accepts CSS-style weights ("400", "bold", "normal").
// Unknown values map to 400.
func ParseWeight(s string) int {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bold", "bolder":
		return 700
	case "", "normal", "regular":
		return 400
	case "light", "lighter":
		return 300
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 100 || n > 900 {
		return 400
	}
	return n
}

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Face(spec FontSpec) font.Face
}

// Measurer returns the advance width of s in pixels with the current face.
type Measurer interface {
	MeasureString(s string) float64
}

// Advance measures s with face in pixels.
func Advance(face font.Face, s string) float64 {
	d := &font.Drawer{Face: face}
	return float64(d.MeasureString(s)) / 64
}

// FixedProvider hands out FixedFace at the requested size regardless of family.
// It gives headless code deterministic, size-proportional metrics.
type FixedProvider struct{}

func (FixedProvider) Face(spec FontSpec) font.Face {
	px := spec.SizePx
	if px <= 0 {
		px = 16
	}
	return FixedFace{Px: px}
}

// FixedFace is a synthetic face: every visible rune is a solid box half an em
// wide, whitespace is a quarter em.
type FixedFace struct{ Px float64 }

func toFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(math.Round(v * 64)) }

func (f FixedFace) advance(r rune) fixed.Int26_6 {
	if unicode.IsSpace(r) {
		return toFixed(f.Px * 0.25)
	}
	return toFixed(f.Px * 0.5)
}

func (f FixedFace) Close() error { return nil }

func (f FixedFace) Glyph(dot fixed.Point26_6, r rune) (image.Rectangle, image.Image, image.Point, fixed.Int26_6, bool) {
	adv := f.advance(r)
	if unicode.IsSpace(r) {
		return image.Rectangle{}, image.Opaque, image.Point{}, adv, true
	}
	asc := toFixed(f.Px * 0.8)
	dr := image.Rect(dot.X.Floor(), (dot.Y - asc).Floor(), (dot.X + adv).Ceil(), dot.Y.Ceil())
	return dr, image.Opaque, image.Point{}, adv, true
}

func (f FixedFace) GlyphBounds(r rune) (fixed.Rectangle26_6, fixed.Int26_6, bool) {
	adv := f.advance(r)
	if unicode.IsSpace(r) {
		return fixed.Rectangle26_6{}, adv, true
	}
	return fixed.Rectangle26_6{
		Min: fixed.Point26_6{Y: -toFixed(f.Px * 0.8)},
		Max: fixed.Point26_6{X: adv},
	}, adv, true
}

func (f FixedFace) GlyphAdvance(r rune) (fixed.Int26_6, bool) { return f.advance(r), true }

func (f FixedFace) Kern(_, _ rune) fixed.Int26_6 { return 0 }

func (f FixedFace) Metrics() font.Metrics {
	return font.Metrics{
		Height:     toFixed(f.Px * 1.2),
		Ascent:     toFixed(f.Px * 0.8),
		Descent:    toFixed(f.Px * 0.2),
		XHeight:    toFixed(f.Px * 0.5),
		CapHeight:  toFixed(f.Px * 0.7),
		CaretSlope: image.Point{X: 0, Y: 1},
	}
}
