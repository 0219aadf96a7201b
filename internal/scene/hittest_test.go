/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"testing"

	"github.com/syedzohaibshah/urdu-card-generator/internal/geom"
)

func TestHandleAt(t *testing.T) {
	e := newElement(1, "h", 50, 50) // box 50,50 .. 300,130
	cases := []struct {
		p    geom.Pt
		want Handle
	}{
		{geom.Pt{X: 50, Y: 50}, HandleNW},
		{geom.Pt{X: 307, Y: 43}, HandleNE},
		{geom.Pt{X: 42, Y: 138}, HandleSW},
		{geom.Pt{X: 300, Y: 130}, HandleSE},
		{geom.Pt{X: 175, Y: 30}, HandleRotate},
		{geom.Pt{X: 183, Y: 22}, HandleRotate}, // corner of the square hotspot
		{geom.Pt{X: 175, Y: 90}, HandleNone},
		{geom.Pt{X: 309, Y: 130}, HandleNone},
	}
	for _, tc := range cases {
		if got := HandleAt(e, tc.p); got != tc.want {
			t.Fatalf("HandleAt(%+v) = %q, want %q", tc.p, got, tc.want)
		}
	}
}

func TestSelectedHandleAtNeedsSelection(t *testing.T) {
	s := New()
	s.Add("h", 50, 50)
	if h := s.SelectedHandleAt(geom.Pt{X: 300, Y: 130}); h != HandleSE {
		t.Fatalf("expected se, got %q", h)
	}
	s.ClearSelection()
	if h := s.SelectedHandleAt(geom.Pt{X: 300, Y: 130}); h != HandleNone {
		t.Fatalf("no selection must yield no handle, got %q", h)
	}
}

func TestCursorFor(t *testing.T) {
	want := map[Handle]Cursor{
		HandleNW: CursorNWSE, HandleSE: CursorNWSE,
		HandleNE: CursorNESW, HandleSW: CursorNESW,
		HandleRotate: CursorGrab, HandleNone: CursorDefault,
	}
	for h, c := range want {
		if got := CursorFor(h); got != c {
			t.Fatalf("CursorFor(%q) = %q, want %q", h, got, c)
		}
	}
}
