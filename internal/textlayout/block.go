/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"strings"
	"unicode"
)

// Align is the horizontal anchor of a run: the run starts at X (left), is
// centered on X, or ends at X (right).
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Block describes one text element's box in device pixels. All lengths are
// already multiplied by the render scale.
type Block struct {
	X, Y, W, H  float64
	FontSize    float64
	LineSpacing float64
	WordSpacing float64
	Inset       float64
	Align       Align
}

// Run is a piece of text drawn with its baseline at Y.
type Run struct {
	Text  string
	X, Y  float64
	Align Align
}

// Pitch is the distance between consecutive baselines.
func (b Block) Pitch() float64 { return b.FontSize + b.LineSpacing }

// FirstBaseline returns the baseline of the first of n lines. Centered blocks
// are centered vertically as a whole.
func (b Block) FirstBaseline(n int) float64 {
	if b.Align == AlignCenter {
		return b.Y + (b.H-float64(n-1)*b.Pitch())/2 + b.FontSize
	}
	return b.Y + b.FontSize
}

// AnchorX is where runs hang from for the block alignment.
func (b Block) AnchorX() float64 {
	switch b.Align {
	case AlignCenter:
		return b.X + b.W/2
	case AlignRight:
		return b.X + b.W - b.Inset
	default:
		return b.X + b.Inset
	}
}

// LayoutBlock splits text on explicit newlines and positions the runs.
// With zero word spacing each line is a single run at the anchor. Otherwise
// each word is its own left-anchored run: a word advances by its measured width
// plus WordSpacing and a whitespace run by its measured width. Right-aligned
// lines end flush at the anchor; centered lines are centered on it.
// Empty lines produce no runs but still take up a line.
func LayoutBlock(text string, b Block, m Measurer) []Run {
	lines := strings.Split(text, "\n")
	y0 := b.FirstBaseline(len(lines))
	ax := b.AnchorX()
	var runs []Run
	for i, line := range lines {
		y := y0 + float64(i)*b.Pitch()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if b.WordSpacing == 0 {
			runs = append(runs, Run{Text: line, X: ax, Y: y, Align: b.Align})
			continue
		}
		runs = append(runs, spacedLine(line, ax, y, b, m)...)
	}
	return runs
}

func spacedLine(line string, ax, y float64, b Block, m Measurer) []Run {
	var words []Run
	x, end := 0.0, 0.0
	for _, tok := range Tokens(line) {
		w := m.MeasureString(tok)
		if isSpace(tok) {
			x += w
			continue
		}
		words = append(words, Run{Text: tok, X: x, Y: y, Align: AlignLeft})
		end = x + w
		x = end + b.WordSpacing
	}
	var shift float64
	switch b.Align {
	case AlignRight:
		shift = ax - end
	case AlignCenter:
		shift = ax - end/2
	default:
		shift = ax
	}
	for i := range words {
		words[i].X += shift
	}
	return words
}

// Tokens splits s into alternating word and whitespace runs, keeping both.
func Tokens(s string) []string {
	var out []string
	start := 0
	prevSpace := false
	for i, r := range s {
		sp := unicode.IsSpace(r)
		if i > start && sp != prevSpace {
			out = append(out, s[start:i])
			start = i
		}
		prevSpace = sp
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func isSpace(tok string) bool { return strings.TrimSpace(tok) == "" }
