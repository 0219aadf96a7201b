/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"errors"
	"fmt"
	"math"
)

// Property names an editable field of a TextElement.
type Property int

const (
	PropUnknown Property = iota
	// string-valued
	PropText
	PropFontFamily
	PropFontWeight
	PropColor
	PropAlignment
	PropShadowColor
	// number-valued
	PropX
	PropY
	PropWidth
	PropHeight
	PropFontSize
	PropRotation
	PropLineSpacing
	PropWordSpacing
	PropShadowBlur
	PropOpacity
)

var propNames = map[Property]string{
	PropText:        "text",
	PropFontFamily:  "fontFamily",
	PropFontWeight:  "fontWeight",
	PropColor:       "color",
	PropAlignment:   "alignment",
	PropShadowColor: "shadowColor",
	PropX:           "x",
	PropY:           "y",
	PropWidth:       "width",
	PropHeight:      "height",
	PropFontSize:    "fontSize",
	PropRotation:    "rotation",
	PropLineSpacing: "lineSpacing",
	PropWordSpacing: "wordSpacing",
	PropShadowBlur:  "shadowBlur",
	PropOpacity:     "opacity",
}

func (p Property) String() string {
	if s, ok := propNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Property(%d)", int(p))
}

// Numeric reports whether the property takes a number.
func (p Property) Numeric() bool { return p >= PropX && p <= PropOpacity }

// ParseProperty maps the JSON field name to a Property.
func ParseProperty(name string) (Property, error) {
	for p, s := range propNames {
		if s == name {
			return p, nil
		}
	}
	return PropUnknown, fmt.Errorf("%w: %q", ErrUnknownProperty, name)
}

var (
	ErrUnknownProperty = errors.New("scene: unknown property")
	ErrPropertyKind    = errors.New("scene: property value has the wrong kind")
	ErrNotFound        = errors.New("scene: element not found")
)

func setNumber(e *TextElement, p Property, v float64) error {
	if !p.Numeric() {
		if _, ok := propNames[p]; ok {
			return fmt.Errorf("%w: %s is not numeric", ErrPropertyKind, p)
		}
		return fmt.Errorf("%w: %s", ErrUnknownProperty, p)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	switch p {
	case PropX:
		e.X = v
	case PropY:
		e.Y = v
	case PropWidth:
		e.Width = v
	case PropHeight:
		e.Height = v
	case PropFontSize:
		e.FontSize = v
	case PropRotation:
		e.Rotation = int(math.Round(v))
	case PropLineSpacing:
		e.LineSpacing = v
	case PropWordSpacing:
		e.WordSpacing = v
	case PropShadowBlur:
		e.ShadowBlur = v
	case PropOpacity:
		e.Opacity = v
	}
	e.clamp()
	return nil
}

func setString(e *TextElement, p Property, v string) error {
	if p.Numeric() {
		return fmt.Errorf("%w: %s is numeric", ErrPropertyKind, p)
	}
	switch p {
	case PropText:
		e.Text = v
	case PropFontFamily:
		if v != "" {
			e.FontFamily = v
		}
	case PropFontWeight:
		if v != "" {
			e.FontWeight = v
		}
	case PropColor:
		if v != "" {
			e.Color = v
		}
	case PropAlignment:
		e.Alignment = ParseAlignment(v)
	case PropShadowColor:
		if v != "" {
			e.ShadowColor = v
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownProperty, p)
	}
	return nil
}
