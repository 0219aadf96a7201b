/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/syedzohaibshah/urdu-card-generator/internal/geom"
	"github.com/syedzohaibshah/urdu-card-generator/internal/textlayout"
)

// GGSurface draws with fogleman/gg onto an RGBA image.
type GGSurface struct {
	dc    *gg.Context
	fonts textlayout.Provider
	st    ggState
	stack []ggState
}

type ggState struct {
	alpha  float64
	color  color.Color
	face   font.Face
	xf     geom.Affine2D
	shadow Shadow
	rtl    bool
}

// NewGGSurface allocates a w x h surface. Allocation panics (out of memory)
// are turned into errors.
func NewGGSurface(w, h int, fonts textlayout.Provider) (s *GGSurface, err error) {
	if err := CheckSize(w, h); err != nil {
		return nil, err
	}
	if fonts == nil {
		fonts = textlayout.NewFontLibrary()
	}
	defer func() {
		if r := recover(); r != nil {
			s, err = nil, fmt.Errorf("render: allocate %dx%d surface: %v", w, h, r)
		}
	}()
	s = &GGSurface{
		dc:    gg.NewContext(w, h),
		fonts: fonts,
		st:    ggState{alpha: 1, color: black, xf: geom.Identity},
	}
	return s, nil
}

// GGFactory returns a Factory producing GGSurfaces that share fonts.
func GGFactory(fonts textlayout.Provider) Factory {
	return func(w, h int) (Surface, error) {
		s, err := NewGGSurface(w, h, fonts)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Image returns the backing image.
func (s *GGSurface) Image() image.Image { return s.dc.Image() }

func (s *GGSurface) Size() (int, int) { return s.dc.Width(), s.dc.Height() }

func (s *GGSurface) Clear() {
	s.dc.SetColor(color.Transparent)
	s.dc.Clear()
}

func (s *GGSurface) Push() {
	s.stack = append(s.stack, s.st)
	s.dc.Push()
}

func (s *GGSurface) Pop() {
	if len(s.stack) == 0 {
		return
	}
	s.st = s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	s.dc.Pop()
}

func (s *GGSurface) RotateAbout(deg, cx, cy float64) {
	s.dc.RotateAbout(gg.Radians(deg), cx, cy)
	s.st.xf = s.st.xf.Mul(geom.RotateAbout(geom.Pt{X: cx, Y: cy}, deg))
}

func (s *GGSurface) SetAlpha(a float64)     { s.st.alpha = a }
func (s *GGSurface) SetColor(c color.Color) { s.st.color = c }
func (s *GGSurface) SetRTL(rtl bool)        { s.st.rtl = rtl }
func (s *GGSurface) SetShadow(sh Shadow)    { s.st.shadow = sh }

func (s *GGSurface) SetFont(spec textlayout.FontSpec) {
	s.st.face = s.fonts.Face(spec)
	s.dc.SetFontFace(s.st.face)
}

func (s *GGSurface) MeasureString(text string) float64 {
	if s.st.face == nil {
		return 0
	}
	return textlayout.Advance(s.st.face, text)
}

func (s *GGSurface) FillText(text string, x, y float64, align textlayout.Align) {
	if s.st.face == nil || text == "" {
		return
	}
	x = s.runStart(text, x, align)
	if s.st.shadow.Blur > 0 && s.st.shadow.Color != nil {
		s.drawShadow(text, x, y)
	}
	s.dc.SetColor(withAlpha(s.st.color, s.st.alpha))
	s.dc.DrawString(text, x, y)
}

func (s *GGSurface) runStart(text string, x float64, align textlayout.Align) float64 {
	switch align {
	case textlayout.AlignRight:
		return x - s.MeasureString(text)
	case textlayout.AlignCenter:
		return x - s.MeasureString(text)/2
	}
	return x
}

func (s *GGSurface) FillRect(x, y, w, h float64) {
	s.dc.SetColor(withAlpha(s.st.color, s.st.alpha))
	s.dc.DrawRectangle(x, y, w, h)
	s.dc.Fill()
}

func (s *GGSurface) StrokeRect(x, y, w, h, lineWidth float64, dash ...float64) {
	s.dc.SetColor(withAlpha(s.st.color, s.st.alpha))
	s.dc.SetLineWidth(lineWidth)
	s.dc.SetDash(dash...)
	s.dc.DrawRectangle(x, y, w, h)
	s.dc.Stroke()
	s.dc.SetDash()
}

func (s *GGSurface) FillCircle(cx, cy, r float64) {
	s.dc.SetColor(withAlpha(s.st.color, s.st.alpha))
	s.dc.DrawCircle(cx, cy, r)
	s.dc.Fill()
}

// drawShadow renders the run into a small layer covering its rotated bounds,
// blurs the layer and composites it at the shadow offset.
func (s *GGSurface) drawShadow(text string, x, y float64) {
	sh := s.st.shadow
	m := s.st.face.Metrics()
	asc, desc := float64(m.Ascent)/64, float64(m.Descent)/64
	w := s.MeasureString(text)
	pad := math.Ceil(sh.Blur * 2)

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range []geom.Pt{{X: x, Y: y - asc}, {X: x + w, Y: y - asc}, {X: x, Y: y + desc}, {X: x + w, Y: y + desc}} {
		q := s.st.xf.Apply(p)
		minX, minY = math.Min(minX, q.X), math.Min(minY, q.Y)
		maxX, maxY = math.Max(maxX, q.X), math.Max(maxY, q.Y)
	}
	bx, by := math.Floor(minX-pad), math.Floor(minY-pad)
	bw, bh := int(math.Ceil(maxX+pad-bx)), int(math.Ceil(maxY+pad-by))
	if CheckSize(bw, bh) != nil {
		return
	}

	layer := gg.NewContext(bw, bh)
	layer.Translate(s.st.xf.E-bx, s.st.xf.F-by)
	layer.Rotate(math.Atan2(s.st.xf.B, s.st.xf.A))
	layer.SetFontFace(s.st.face)
	layer.SetColor(withAlpha(sh.Color, s.st.alpha))
	layer.DrawString(text, x, y)

	img := layer.Image().(*image.RGBA)
	boxBlur(img, sh.Blur/2)

	dst := s.dc.Image().(*image.RGBA)
	at := image.Pt(int(math.Round(bx+sh.OffsetX)), int(math.Round(by+sh.OffsetY)))
	draw.Draw(dst, image.Rectangle{Min: at, Max: at.Add(img.Bounds().Size())}, img, image.Point{}, draw.Over)
}
