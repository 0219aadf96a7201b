/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import "github.com/syedzohaibshah/urdu-card-generator/internal/scene"

// NoticeKind classifies a user-facing message.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeError
)

func (k NoticeKind) String() string {
	if k == NoticeError {
		return "error"
	}
	return "info"
}

// Port is the host UI as seen by the editor. Every call happens synchronously
// on the goroutine that drives the editor.
type Port interface {
	// Invalidate tells the host the display surface was redrawn.
	Invalidate()
	// SelectionChanged reports the selected element so property panels can follow it.
	SelectionChanged(e scene.TextElement, ok bool)
	Notify(kind NoticeKind, msg string)
	SetCursor(c scene.Cursor)
}

// NopPort ignores everything; headless callers use it.
type NopPort struct{}

func (NopPort) Invalidate()                              {}
func (NopPort) SelectionChanged(scene.TextElement, bool) {}
func (NopPort) Notify(NoticeKind, string)                {}
func (NopPort) SetCursor(scene.Cursor)                   {}
