/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package scene is the document being edited: an ordered list of text elements
// (later ones draw on top) and at most one selected element, referenced by id.
//
// The scene is not safe for concurrent use; the editor drives it from a single
// goroutine.
package scene

import (
	"time"

	"github.com/syedzohaibshah/urdu-card-generator/internal/geom"
)

// Snapshot is a value copy of the element list plus the selected id (0 for none).
type Snapshot struct {
	Elements []TextElement `json:"elements"`
	Selected int64         `json:"selected"`
}

// Clone returns a copy that shares nothing with s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Selected: s.Selected}
	if s.Elements != nil {
		out.Elements = append([]TextElement(nil), s.Elements...)
	}
	return out
}

// Scene owns the authoritative elements.
type Scene struct {
	elems    []TextElement
	selected int64
	lastID   int64
	now      func() time.Time
}

// New returns an empty scene.
func New() *Scene { return &Scene{now: time.Now} }

// nextID hands out creation-time ids in milliseconds, bumped past the last
// id issued so two adds in the same millisecond stay distinct.
func (s *Scene) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// Add appends a new element with default styling and selects it.
// Empty text becomes DefaultText.
func (s *Scene) Add(text string, x, y float64) TextElement {
	e := newElement(s.nextID(), text, x, y)
	s.elems = append(s.elems, e)
	s.selected = e.ID
	return e
}

// Delete removes the element with id. It reports whether anything was removed.
func (s *Scene) Delete(id int64) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.elems = append(s.elems[:i], s.elems[i+1:]...)
	if s.selected == id {
		s.selected = 0
	}
	return true
}

// Clear removes every element and the selection.
func (s *Scene) Clear() {
	s.elems = nil
	s.selected = 0
}

// Len returns the number of elements.
func (s *Scene) Len() int { return len(s.elems) }

// Elements returns a copy of the elements in z-order.
func (s *Scene) Elements() []TextElement {
	return append([]TextElement(nil), s.elems...)
}

// Get returns a copy of the element with id.
func (s *Scene) Get(id int64) (TextElement, bool) {
	i := s.index(id)
	if i < 0 {
		return TextElement{}, false
	}
	return s.elems[i], true
}

// Select marks id as selected. Unknown ids clear the selection.
func (s *Scene) Select(id int64) {
	if s.index(id) < 0 {
		s.selected = 0
		return
	}
	s.selected = id
}

func (s *Scene) ClearSelection() { s.selected = 0 }

// Selected returns the selected element, if any.
func (s *Scene) Selected() (TextElement, bool) {
	if s.selected == 0 {
		return TextElement{}, false
	}
	return s.Get(s.selected)
}

// SelectedID returns the selected id or 0.
func (s *Scene) SelectedID() int64 { return s.selected }

// Move translates the element by (dx, dy).
func (s *Scene) Move(id int64, dx, dy float64) bool {
	return s.mutate(id, func(e *TextElement) {
		e.X += dx
		e.Y += dy
	})
}

// SetBounds replaces the element box. Width and height are clamped to their
// minimums; callers that anchor a corner compute x/y from the clamped size.
func (s *Scene) SetBounds(id int64, r geom.Rect) bool {
	return s.mutate(id, func(e *TextElement) {
		e.X, e.Y, e.Width, e.Height = r.X, r.Y, r.W, r.H
	})
}

// SetRotation stores deg as is; no wraparound.
func (s *Scene) SetRotation(id int64, deg int) bool {
	return s.mutate(id, func(e *TextElement) { e.Rotation = deg })
}

// SetNumber updates a numeric property, clamping to bounds.
func (s *Scene) SetNumber(id int64, p Property, v float64) error {
	i := s.index(id)
	if i < 0 {
		return ErrNotFound
	}
	e := s.elems[i]
	if err := setNumber(&e, p, v); err != nil {
		return err
	}
	s.elems[i] = e
	return nil
}

// SetString updates a string property. Empty values leave style fields unchanged;
// an empty text is kept.
func (s *Scene) SetString(id int64, p Property, v string) error {
	i := s.index(id)
	if i < 0 {
		return ErrNotFound
	}
	e := s.elems[i]
	if err := setString(&e, p, v); err != nil {
		return err
	}
	s.elems[i] = e
	return nil
}

// Snapshot captures the current state for history.
func (s *Scene) Snapshot() Snapshot {
	return Snapshot{Elements: s.Elements(), Selected: s.selected}
}

// Restore replaces elements and selection from snap. The selection is dropped
// when it does not name a restored element. Ids handed out later stay above
// every id seen so far.
func (s *Scene) Restore(snap Snapshot) {
	s.elems = append([]TextElement(nil), snap.Elements...)
	s.selected = 0
	for _, e := range s.elems {
		if e.ID > s.lastID {
			s.lastID = e.ID
		}
		if e.ID == snap.Selected {
			s.selected = e.ID
		}
	}
}

func (s *Scene) index(id int64) int {
	if id == 0 {
		return -1
	}
	for i := range s.elems {
		if s.elems[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Scene) mutate(id int64, fn func(e *TextElement)) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	fn(&s.elems[i])
	s.elems[i].clamp()
	return true
}
