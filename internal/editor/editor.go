/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor is the card editor: it owns the scene, the undo history and
// the display surface, and turns pointer input and property edits into scene
// mutations followed by a synchronous redraw.
package editor

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/syedzohaibshah/urdu-card-generator/internal/config"
	"github.com/syedzohaibshah/urdu-card-generator/internal/export"
	"github.com/syedzohaibshah/urdu-card-generator/internal/geom"
	applog "github.com/syedzohaibshah/urdu-card-generator/internal/log"
	"github.com/syedzohaibshah/urdu-card-generator/internal/render"
	"github.com/syedzohaibshah/urdu-card-generator/internal/scene"
	"github.com/syedzohaibshah/urdu-card-generator/internal/telemetry"
	"github.com/syedzohaibshah/urdu-card-generator/internal/textlayout"
	"github.com/syedzohaibshah/urdu-card-generator/internal/undo"
)

// DemoText is the greeting placed on a fresh card.
const DemoText = "السلام علیکم\nیہ جدید کینوس ایڈیٹر ہے"

// AspectRatios offered by hosts; "custom" leaves the size alone.
var AspectRatios = []string{"custom", "16:9", "4:3", "1:1", "3:4", "5:7"}

var (
	ErrNoSelection = errors.New("editor: nothing selected")
	ErrCardSize    = errors.New("editor: card size must be positive")
)

// Options configure a new Editor.
type Options struct {
	WidthMM, HeightMM float64
	DisplayDPI        float64
	ExportDPI         int
	FitW, FitH        float64
	Background        string
	HistoryLimit      int
	InsertText        string
	InsertMode        bool
	// Demo places DemoText on the fresh card.
	Demo bool

	// Fonts backs the default surfaces.
	Fonts textlayout.Provider
	// Surfaces allocates the display surface, ExportSurfaces the off-screen
	// export surface. Both default to gg surfaces over Fonts.
	Surfaces       render.Factory
	ExportSurfaces render.Factory
	Backend        export.DocumentRenderer
	Events         telemetry.Sink
}

// OptionsFromConfig maps the user configuration onto editor options. The
// caller still supplies surfaces and the backend.
func OptionsFromConfig(cfg config.AppConfig) Options {
	return Options{
		WidthMM:      cfg.Card.WidthMM,
		HeightMM:     cfg.Card.HeightMM,
		DisplayDPI:   cfg.Card.DisplayDPI,
		ExportDPI:    int(cfg.Card.ExportDPI),
		FitW:         cfg.Card.FitWidth,
		FitH:         cfg.Card.FitHeight,
		Background:   cfg.Card.Background,
		HistoryLimit: cfg.Editor.HistoryLimit,
		InsertText:   cfg.Editor.InsertText,
		InsertMode:   cfg.Editor.StartInInsertMode,
		Demo:         true,
	}
}

func (o *Options) normalize() {
	d := config.Defaults()
	if o.DisplayDPI <= 0 {
		o.DisplayDPI = d.Card.DisplayDPI
	}
	if o.ExportDPI <= 0 {
		o.ExportDPI = int(d.Card.ExportDPI)
	}
	if o.Background == "" {
		o.Background = d.Card.Background
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = undo.DefaultLimit
	}
	if o.InsertText == "" {
		o.InsertText = config.DefaultInsertText
	}
	if o.Surfaces == nil || o.ExportSurfaces == nil {
		if o.Fonts == nil {
			o.Fonts = textlayout.NewFontLibrary()
		}
		gg := render.GGFactory(o.Fonts)
		if o.Surfaces == nil {
			o.Surfaces = gg
		}
		if o.ExportSurfaces == nil {
			o.ExportSurfaces = gg
		}
	}
}

// Editor is single-threaded: all methods must be called from one goroutine.
type Editor struct {
	opt      Options
	scene    *scene.Scene
	hist     *undo.History[scene.Snapshot]
	vp       geom.Viewport
	surface  render.Surface
	port     Port
	exporter *export.Exporter
	log      *slog.Logger

	insertMode bool
	gesture    gesture
}

// New builds an editor, allocates the display surface, optionally places
// the demo text and records the initial history entry.
func New(opt Options, port Port) (*Editor, error) {
	opt.normalize()
	if port == nil {
		port = NopPort{}
	}
	ed := &Editor{
		opt:        opt,
		scene:      scene.New(),
		hist:       undo.New(opt.HistoryLimit, scene.Snapshot.Clone),
		port:       port,
		insertMode: opt.InsertMode,
		log:        applog.WithComponent("editor"),
		exporter: &export.Exporter{
			Surfaces: opt.ExportSurfaces,
			Backend:  opt.Backend,
			Events:   opt.Events,
			DPI:      opt.ExportDPI,
		},
	}
	if err := ed.allocate(opt.WidthMM, opt.HeightMM); err != nil {
		return nil, err
	}
	if opt.Demo {
		ed.scene.Add(DemoText, 50, 30)
	}
	ed.hist.Save(ed.scene.Snapshot())
	ed.changed()
	return ed, nil
}

// allocate creates the display surface for a card of w x h mm.
func (ed *Editor) allocate(wmm, hmm float64) error {
	if !(wmm > 0) || !(hmm > 0) || math.IsInf(wmm, 0) || math.IsInf(hmm, 0) {
		return fmt.Errorf("%w: %vx%v mm", ErrCardSize, wmm, hmm)
	}
	w, h := geom.MMToPixels(wmm, ed.opt.DisplayDPI), geom.MMToPixels(hmm, ed.opt.DisplayDPI)
	sf, err := ed.opt.Surfaces(w, h)
	if err != nil {
		return fmt.Errorf("editor: display surface: %w", err)
	}
	ed.surface = sf
	ed.opt.WidthMM, ed.opt.HeightMM = wmm, hmm
	ed.vp = geom.Viewport{LogicalW: float64(w), LogicalH: float64(h), FitW: ed.opt.FitW, FitH: ed.opt.FitH}
	return nil
}

// redraw renders the scene onto the display surface and tells the host.
func (ed *Editor) redraw() {
	render.Render(ed.surface, ed.scene.Snapshot(), render.Options{
		Scale:       1,
		Background:  ed.opt.Background,
		Interactive: true,
	})
	ed.port.Invalidate()
}

// changed redraws and republishes the selection.
func (ed *Editor) changed() {
	ed.redraw()
	e, ok := ed.scene.Selected()
	ed.port.SelectionChanged(e, ok)
}

func (ed *Editor) save() { ed.hist.Save(ed.scene.Snapshot()) }

// Redraw repaints the card without changing it, e.g. after fonts were loaded.
func (ed *Editor) Redraw() { ed.redraw() }

// Surface is the display surface at logical size; hosts scale it by
// Viewport().Scale() for display.
func (ed *Editor) Surface() render.Surface { return ed.surface }

func (ed *Editor) Viewport() geom.Viewport { return ed.vp }

// CardSize returns the physical card size in millimetres.
func (ed *Editor) CardSize() (wmm, hmm float64) { return ed.opt.WidthMM, ed.opt.HeightMM }

func (ed *Editor) Background() string { return ed.opt.Background }

func (ed *Editor) InsertMode() bool { return ed.insertMode }

// Snapshot returns a copy of the current scene.
func (ed *Editor) Snapshot() scene.Snapshot { return ed.scene.Snapshot() }

// Selected returns the selected element.
func (ed *Editor) Selected() (scene.TextElement, bool) { return ed.scene.Selected() }

func (ed *Editor) CanUndo() bool { return ed.hist.CanUndo() }
func (ed *Editor) CanRedo() bool { return ed.hist.CanRedo() }

// AddText places a new element at the default position and selects it.
func (ed *Editor) AddText(text string) scene.TextElement {
	return ed.addAt(text, geom.Pt{X: scene.DefaultX, Y: scene.DefaultY})
}

func (ed *Editor) addAt(text string, p geom.Pt) scene.TextElement {
	e := ed.scene.Add(text, p.X, p.Y)
	ed.save()
	ed.changed()
	return e
}

// DeleteSelected removes the selected element. It reports whether anything was removed.
func (ed *Editor) DeleteSelected() bool {
	id := ed.scene.SelectedID()
	if !ed.scene.Delete(id) {
		return false
	}
	ed.save()
	ed.changed()
	return true
}

// ClearAll removes every element. Hosts confirm with the user first.
func (ed *Editor) ClearAll() {
	ed.scene.Clear()
	ed.save()
	ed.changed()
}

// SelectAt selects the topmost element under a display point, or clears
// the selection. It does not start a gesture.
func (ed *Editor) SelectAt(display geom.Pt) bool {
	e, ok := ed.scene.FindAt(ed.vp.ToLogical(display))
	if ok {
		ed.scene.Select(e.ID)
	} else {
		ed.scene.ClearSelection()
	}
	ed.changed()
	return ok
}

// SetNumber edits a numeric property of the selection.
func (ed *Editor) SetNumber(p scene.Property, v float64) error {
	id := ed.scene.SelectedID()
	if id == 0 {
		return ErrNoSelection
	}
	if err := ed.scene.SetNumber(id, p, v); err != nil {
		return err
	}
	ed.save()
	ed.changed()
	return nil
}

// SetString edits a string property of the selection.
func (ed *Editor) SetString(p scene.Property, v string) error {
	id := ed.scene.SelectedID()
	if id == 0 {
		return ErrNoSelection
	}
	if err := ed.scene.SetString(id, p, v); err != nil {
		return err
	}
	ed.save()
	ed.changed()
	return nil
}

// SetProperty edits a property by its wire name, parsing numeric values.
// Form hosts hand over raw control values through it.
func (ed *Editor) SetProperty(name, value string) error {
	p, err := scene.ParseProperty(name)
	if err != nil {
		return err
	}
	if !p.Numeric() {
		return ed.SetString(p, value)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fmt.Errorf("%w: %s=%q", scene.ErrPropertyKind, name, value)
	}
	return ed.SetNumber(p, v)
}

// SetBackground changes the card background color.
func (ed *Editor) SetBackground(c string) {
	if strings.TrimSpace(c) == "" {
		return
	}
	ed.opt.Background = c
	ed.redraw()
}

// SetInsertMode toggles whether clicks on empty canvas add text.
func (ed *Editor) SetInsertMode(on bool) {
	ed.insertMode = on
	ed.port.SetCursor(ed.idleCursor())
}

// SetInsertText sets the text used for insert-mode clicks.
func (ed *Editor) SetInsertText(s string) {
	if s == "" {
		s = config.DefaultInsertText
	}
	ed.opt.InsertText = s
}

// ResizeCanvas changes the card size. Elements keep their logical
// coordinates. On failure the previous size stays in effect.
func (ed *Editor) ResizeCanvas(wmm, hmm float64) error {
	if err := ed.allocate(wmm, hmm); err != nil {
		ed.log.Warn("resize canvas failed", slog.Any("err", err))
		ed.port.Notify(NoticeError, err.Error())
		return err
	}
	ed.redraw()
	return nil
}

// ApplyAspectRatio keeps the width and derives the height from a "w:h"
// ratio, rounded to whole millimetres. "custom" does nothing.
func (ed *Editor) ApplyAspectRatio(ratio string) error {
	ratio = strings.TrimSpace(ratio)
	if ratio == "" || ratio == "custom" {
		return nil
	}
	a, b, ok := strings.Cut(ratio, ":")
	rw, err1 := strconv.ParseFloat(a, 64)
	rh, err2 := strconv.ParseFloat(b, 64)
	if !ok || err1 != nil || err2 != nil || rw <= 0 || rh <= 0 {
		return fmt.Errorf("editor: bad aspect ratio %q", ratio)
	}
	w := ed.opt.WidthMM
	return ed.ResizeCanvas(w, math.Round(w*rh/rw))
}

// Undo restores the previous history entry.
func (ed *Editor) Undo() bool {
	snap, ok := ed.hist.Undo()
	if !ok {
		return false
	}
	ed.restore(snap)
	return true
}

// Redo re-applies the next history entry.
func (ed *Editor) Redo() bool {
	snap, ok := ed.hist.Redo()
	if !ok {
		return false
	}
	ed.restore(snap)
	return true
}

func (ed *Editor) restore(snap scene.Snapshot) {
	ed.gesture = gesture{}
	ed.scene.Restore(snap)
	ed.changed()
}
