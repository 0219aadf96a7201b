/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import "github.com/syedzohaibshah/urdu-card-generator/internal/geom"

// Alignment selects the anchor edge of every line in an element.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// ParseAlignment maps unknown values to AlignRight, the Urdu default.
func ParseAlignment(s string) Alignment {
	switch Alignment(s) {
	case AlignLeft, AlignCenter, AlignRight:
		return Alignment(s)
	default:
		return AlignRight
	}
}

// Element defaults and bounds.
const (
	DefaultText        = "نیا متن"
	DefaultX           = 50.0
	DefaultY           = 50.0
	DefaultWidth       = 250.0
	DefaultHeight      = 80.0
	DefaultFontSize    = 24.0
	DefaultFontFamily  = "Noto Nastaliq Urdu"
	DefaultFontWeight  = "400"
	DefaultColor       = "#000000"
	DefaultLineSpacing = 8.0

	MinWidth    = 50.0
	MinHeight   = 20.0
	MinFontSize = 1.0
	MaxOpacity  = 100.0
)

// TextElement is one placed block of text. Geometry is in logical canvas units.
// Every field is a value, so copying the struct copies the element.
type TextElement struct {
	ID          int64     `json:"id"`
	Text        string    `json:"text"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Width       float64   `json:"width"`
	Height      float64   `json:"height"`
	FontSize    float64   `json:"fontSize"`
	FontFamily  string    `json:"fontFamily"`
	FontWeight  string    `json:"fontWeight"`
	Color       string    `json:"color"`
	Alignment   Alignment `json:"alignment"`
	Rotation    int       `json:"rotation"`
	LineSpacing float64   `json:"lineSpacing"`
	WordSpacing float64   `json:"wordSpacing"`
	ShadowColor string    `json:"shadowColor"`
	ShadowBlur  float64   `json:"shadowBlur"`
	Opacity     float64   `json:"opacity"`
}

// Bounds returns the unrotated box.
func (e TextElement) Bounds() geom.Rect { return geom.R(e.X, e.Y, e.Width, e.Height) }

// Center is the pivot used for rotation.
func (e TextElement) Center() geom.Pt { return e.Bounds().Center() }

func newElement(id int64, text string, x, y float64) TextElement {
	if text == "" {
		text = DefaultText
	}
	return TextElement{
		ID:          id,
		Text:        text,
		X:           x,
		Y:           y,
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		FontSize:    DefaultFontSize,
		FontFamily:  DefaultFontFamily,
		FontWeight:  DefaultFontWeight,
		Color:       DefaultColor,
		Alignment:   AlignRight,
		LineSpacing: DefaultLineSpacing,
		ShadowColor: DefaultColor,
		Opacity:     MaxOpacity,
	}
}

// clamp enforces the size, font and effect bounds in place.
func (e *TextElement) clamp() {
	e.Width = max(e.Width, MinWidth)
	e.Height = max(e.Height, MinHeight)
	e.FontSize = max(e.FontSize, MinFontSize)
	e.ShadowBlur = max(e.ShadowBlur, 0)
	e.Opacity = min(max(e.Opacity, 0), MaxOpacity)
	e.Alignment = ParseAlignment(string(e.Alignment))
}
