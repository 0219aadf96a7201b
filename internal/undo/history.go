/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"sync"
	"time"
)

// DefaultLimit is the depth used when New is given a non-positive limit.
const DefaultLimit = 50

// Entry is one stored state.
type Entry[T any] struct {
	State T
	TS    time.Time
}

// History is a single linear undo stack with a cursor. Saving after an undo
// discards the redo branch. It is safe for concurrent use.
type History[T any] struct {
	mu      sync.Mutex
	limit   int
	clone   func(T) T
	entries []Entry[T]
	index   int // -1 when empty
	now     func() time.Time
}

// New returns an empty history holding at most limit entries. clone copies a
// state on the way in and on the way out so callers never share memory with a
// stored entry; nil stores values as given.
func New[T any](limit int, clone func(T) T) *History[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &History[T]{limit: limit, clone: clone, index: -1, now: time.Now}
}

// Save truncates any redo entries, pushes state and evicts the oldest entry
// when the limit is exceeded.
func (h *History[T]) Save(state T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = h.entries[:h.index+1]
	h.entries = append(h.entries, Entry[T]{State: h.clone(state), TS: h.now()})
	h.index++
	if len(h.entries) > h.limit {
		drop := len(h.entries) - h.limit
		h.entries = append([]Entry[T](nil), h.entries[drop:]...)
		h.index -= drop
	}
}

// Undo steps back and returns a copy of the previous state.
func (h *History[T]) Undo() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index <= 0 {
		var zero T
		return zero, false
	}
	h.index--
	return h.clone(h.entries[h.index].State), true
}

// Redo steps forward and returns a copy of the next state.
func (h *History[T]) Redo() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index >= len(h.entries)-1 {
		var zero T
		return zero, false
	}
	h.index++
	return h.clone(h.entries[h.index].State), true
}

func (h *History[T]) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index > 0
}

func (h *History[T]) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index < len(h.entries)-1
}

// Reset drops every entry.
func (h *History[T]) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
	h.index = -1
}

// Stats returns current sizes for diagnostics.
func (h *History[T]) Stats() (entries int, index int, limit int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries), h.index, h.limit
}
