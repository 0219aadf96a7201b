/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"image/color"

	"golang.org/x/image/font"

	"github.com/syedzohaibshah/urdu-card-generator/internal/geom"
	"github.com/syedzohaibshah/urdu-card-generator/internal/textlayout"
)

type OpKind int

const (
	OpClear OpKind = iota
	OpFillRect
	OpStrokeRect
	OpFillCircle
	OpFillText
)

// Op is one recorded draw call with the state it was issued under.
type Op struct {
	Kind      OpKind
	Text      string
	X, Y      float64
	W, H      float64 // radius in W for circles
	Align     textlayout.Align
	Color     color.NRGBA // alpha already applied
	Font      textlayout.FontSpec
	Xf        geom.Affine2D
	Rotation  float64
	Shadow    Shadow
	RTL       bool
	LineWidth float64
	Dash      []float64
}

// Recorder is a Surface that keeps the draw calls instead of pixels.
type Recorder struct {
	W, H  int
	Ops   []Op
	fonts textlayout.Provider
	st    recState
	stack []recState
}

type recState struct {
	alpha  float64
	color  color.Color
	spec   textlayout.FontSpec
	face   font.Face
	xf     geom.Affine2D
	rot    float64
	shadow Shadow
	rtl    bool
}

// NewRecorder returns a w x h recorder measuring with fonts, or with the
// deterministic FixedProvider when fonts is nil.
func NewRecorder(w, h int, fonts textlayout.Provider) *Recorder {
	if fonts == nil {
		fonts = textlayout.FixedProvider{}
	}
	return &Recorder{W: w, H: h, fonts: fonts, st: recState{alpha: 1, color: black, xf: geom.Identity}}
}

// RecorderFactory is a Factory for headless use.
func RecorderFactory(fonts textlayout.Provider) Factory {
	return func(w, h int) (Surface, error) {
		if err := CheckSize(w, h); err != nil {
			return nil, err
		}
		return NewRecorder(w, h, fonts), nil
	}
}

// Texts returns the recorded text ops in draw order.
func (r *Recorder) Texts() []Op {
	var out []Op
	for _, op := range r.Ops {
		if op.Kind == OpFillText {
			out = append(out, op)
		}
	}
	return out
}

func (r *Recorder) Size() (int, int) { return r.W, r.H }

func (r *Recorder) Clear() {
	r.Ops = append(r.Ops[:0], Op{Kind: OpClear, Xf: geom.Identity})
}

func (r *Recorder) Push() { r.stack = append(r.stack, r.st) }

func (r *Recorder) Pop() {
	if n := len(r.stack); n > 0 {
		r.st = r.stack[n-1]
		r.stack = r.stack[:n-1]
	}
}

func (r *Recorder) RotateAbout(deg, cx, cy float64) {
	r.st.xf = r.st.xf.Mul(geom.RotateAbout(geom.Pt{X: cx, Y: cy}, deg))
	r.st.rot += deg
}

func (r *Recorder) SetAlpha(a float64)     { r.st.alpha = a }
func (r *Recorder) SetColor(c color.Color) { r.st.color = c }
func (r *Recorder) SetRTL(rtl bool)        { r.st.rtl = rtl }
func (r *Recorder) SetShadow(sh Shadow)    { r.st.shadow = sh }

func (r *Recorder) SetFont(spec textlayout.FontSpec) {
	r.st.spec = spec
	r.st.face = r.fonts.Face(spec)
}

func (r *Recorder) MeasureString(s string) float64 {
	if r.st.face == nil {
		return 0
	}
	return textlayout.Advance(r.st.face, s)
}

func (r *Recorder) op(kind OpKind) Op {
	return Op{
		Kind:     kind,
		Color:    withAlpha(r.st.color, r.st.alpha),
		Font:     r.st.spec,
		Xf:       r.st.xf,
		Rotation: r.st.rot,
		Shadow:   r.st.shadow,
		RTL:      r.st.rtl,
	}
}

func (r *Recorder) FillText(s string, x, y float64, align textlayout.Align) {
	op := r.op(OpFillText)
	op.Text, op.X, op.Y, op.Align = s, x, y, align
	r.Ops = append(r.Ops, op)
}

func (r *Recorder) FillRect(x, y, w, h float64) {
	op := r.op(OpFillRect)
	op.X, op.Y, op.W, op.H = x, y, w, h
	r.Ops = append(r.Ops, op)
}

func (r *Recorder) StrokeRect(x, y, w, h, lineWidth float64, dash ...float64) {
	op := r.op(OpStrokeRect)
	op.X, op.Y, op.W, op.H, op.LineWidth = x, y, w, h, lineWidth
	op.Dash = append([]float64(nil), dash...)
	r.Ops = append(r.Ops, op)
}

func (r *Recorder) FillCircle(cx, cy, radius float64) {
	op := r.op(OpFillCircle)
	op.X, op.Y, op.W = cx, cy, radius
	r.Ops = append(r.Ops, op)
}
