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
	"math/rand"
	"testing"
	"time"

	"github.com/syedzohaibshah/urdu-card-generator/internal/geom"
)

func frozen(s *Scene) *Scene {
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return t0 }
	return s
}

func TestAddAppliesDefaultsAndSelects(t *testing.T) {
	s := New()
	e := s.Add("", 12, 34)
	if e.Text != DefaultText || e.X != 12 || e.Y != 34 {
		t.Fatalf("unexpected element: %+v", e)
	}
	if e.Width != 250 || e.Height != 80 || e.FontSize != 24 || e.LineSpacing != 8 || e.Opacity != 100 {
		t.Fatalf("geometry defaults wrong: %+v", e)
	}
	if e.FontFamily != "Noto Nastaliq Urdu" || e.FontWeight != "400" || e.Alignment != AlignRight || e.Color != "#000000" {
		t.Fatalf("style defaults wrong: %+v", e)
	}
	if s.SelectedID() != e.ID {
		t.Fatalf("new element should be selected")
	}
}

func TestIDsUniqueAndSelectionLive(t *testing.T) {
	s := frozen(New())
	r := rand.New(rand.NewSource(7))
	for step := 0; step < 400; step++ {
		if s.Len() == 0 || r.Intn(3) > 0 {
			s.Add("x", 0, 0)
		} else {
			els := s.Elements()
			s.Delete(els[r.Intn(len(els))].ID)
		}
		seen := map[int64]bool{}
		for _, e := range s.Elements() {
			if seen[e.ID] {
				t.Fatalf("duplicate id %d at step %d", e.ID, step)
			}
			seen[e.ID] = true
		}
		if id := s.SelectedID(); id != 0 && !seen[id] {
			t.Fatalf("selection %d dangles at step %d", id, step)
		}
	}
}

func TestDeleteClearsSelectionAndIgnoresMissing(t *testing.T) {
	s := frozen(New())
	a := s.Add("a", 0, 0)
	b := s.Add("b", 0, 0)
	if !s.Delete(b.ID) {
		t.Fatalf("delete of live element reported false")
	}
	if _, ok := s.Selected(); ok {
		t.Fatalf("selection should be cleared after deleting selected")
	}
	if s.Delete(b.ID) {
		t.Fatalf("second delete should be a no-op")
	}
	s.Select(a.ID)
	s.Clear()
	if s.Len() != 0 || s.SelectedID() != 0 {
		t.Fatalf("clear left state behind")
	}
}

func TestFindAtTopmostFirst(t *testing.T) {
	s := frozen(New())
	e := s.Add("one", 50, 50)
	if got, ok := s.FindAt(geom.Pt{X: 150, Y: 90}); !ok || got.ID != e.ID {
		t.Fatalf("expected hit on element at (150,90)")
	}
	if _, ok := s.FindAt(geom.Pt{X: 10, Y: 10}); ok {
		t.Fatalf("expected miss at (10,10)")
	}
	top := s.Add("two", 100, 60)
	if got, _ := s.FindAt(geom.Pt{X: 150, Y: 90}); got.ID != top.ID {
		t.Fatalf("overlap should resolve to the most recent element")
	}
}

func TestFindAtIgnoresRotation(t *testing.T) {
	s := New()
	e := s.Add("r", 50, 50)
	s.SetRotation(e.ID, 45)
	// inside the unrotated corner, outside the rotated shape
	if _, ok := s.FindAt(geom.Pt{X: 52, Y: 52}); !ok {
		t.Fatalf("hit-test must use the unrotated box")
	}
}

func TestSetNumberClampsAndRejectsKinds(t *testing.T) {
	s := New()
	e := s.Add("p", 0, 0)
	cases := []struct {
		p    Property
		v    float64
		get  func(TextElement) float64
		want float64
	}{
		{PropWidth, 3, func(e TextElement) float64 { return e.Width }, MinWidth},
		{PropHeight, -10, func(e TextElement) float64 { return e.Height }, MinHeight},
		{PropOpacity, 250, func(e TextElement) float64 { return e.Opacity }, 100},
		{PropOpacity, -1, func(e TextElement) float64 { return e.Opacity }, 0},
		{PropFontSize, 0, func(e TextElement) float64 { return e.FontSize }, MinFontSize},
		{PropShadowBlur, -4, func(e TextElement) float64 { return e.ShadowBlur }, 0},
		{PropRotation, 44.6, func(e TextElement) float64 { return float64(e.Rotation) }, 45},
		{PropWordSpacing, 12, func(e TextElement) float64 { return e.WordSpacing }, 12},
	}
	for _, tc := range cases {
		if err := s.SetNumber(e.ID, tc.p, tc.v); err != nil {
			t.Fatalf("SetNumber(%s) error: %v", tc.p, err)
		}
		got, _ := s.Get(e.ID)
		if tc.get(got) != tc.want {
			t.Fatalf("%s = %v, want %v", tc.p, tc.get(got), tc.want)
		}
	}
	if err := s.SetNumber(e.ID, PropColor, 1); !errors.Is(err, ErrPropertyKind) {
		t.Fatalf("numeric update of color: err=%v", err)
	}
	if err := s.SetString(e.ID, PropOpacity, "1"); !errors.Is(err, ErrPropertyKind) {
		t.Fatalf("string update of opacity: err=%v", err)
	}
	if err := s.SetNumber(e.ID, PropUnknown, 1); !errors.Is(err, ErrUnknownProperty) {
		t.Fatalf("unknown property: err=%v", err)
	}
	if err := s.SetNumber(999, PropX, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing element: err=%v", err)
	}
}

func TestSetStringAndParseProperty(t *testing.T) {
	s := New()
	e := s.Add("p", 0, 0)
	p, err := ParseProperty("alignment")
	if err != nil || p != PropAlignment {
		t.Fatalf("ParseProperty(alignment) = %v, %v", p, err)
	}
	if _, err := ParseProperty("kerning"); !errors.Is(err, ErrUnknownProperty) {
		t.Fatalf("ParseProperty(kerning) err = %v", err)
	}
	_ = s.SetString(e.ID, PropAlignment, "justify")
	_ = s.SetString(e.ID, PropText, "")
	_ = s.SetString(e.ID, PropColor, "#ff0000")
	got, _ := s.Get(e.ID)
	if got.Alignment != AlignRight || got.Text != "" || got.Color != "#ff0000" {
		t.Fatalf("string updates not applied: %+v", got)
	}
}

func TestSnapshotRestoreIsolation(t *testing.T) {
	s := frozen(New())
	a := s.Add("a", 10, 10)
	snap := s.Snapshot()
	s.Move(a.ID, 100, 100)
	if snap.Elements[0].X != 10 {
		t.Fatalf("snapshot aliased live scene")
	}
	s.Restore(snap)
	snap.Elements[0].X = -1
	got, _ := s.Get(a.ID)
	if got.X != 10 {
		t.Fatalf("restored scene aliased snapshot: %+v", got)
	}
	if s.SelectedID() != a.ID {
		t.Fatalf("selection not restored")
	}

	s.Restore(Snapshot{Selected: a.ID})
	if s.SelectedID() != 0 {
		t.Fatalf("selection must not dangle after restoring a snapshot without it")
	}
	if b := s.Add("b", 0, 0); b.ID <= a.ID {
		t.Fatalf("ids must keep increasing after restore: %d <= %d", b.ID, a.ID)
	}
}
