//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/syedzohaibshah/urdu-card-generator/internal/backend"
	"github.com/syedzohaibshah/urdu-card-generator/internal/crash"
	"github.com/syedzohaibshah/urdu-card-generator/internal/editor"
	"github.com/syedzohaibshah/urdu-card-generator/internal/export"
	applog "github.com/syedzohaibshah/urdu-card-generator/internal/log"
	"github.com/syedzohaibshah/urdu-card-generator/internal/render"
	"github.com/syedzohaibshah/urdu-card-generator/internal/scene"
	"github.com/syedzohaibshah/urdu-card-generator/internal/telemetry"
	"github.com/syedzohaibshah/urdu-card-generator/internal/textlayout"
	"github.com/syedzohaibshah/urdu-card-generator/internal/version"
)

// Run starts the Fyne desktop editor and blocks until the window closes.
func Run(opts Options) error {
	defer crash.Recover("")
	l := applog.WithComponent("ui")
	l.Info("starting UI")
	cfg := opts.Config

	fonts := textlayout.NewFontLibrary()
	if dir := cfg.Editor.FontsDir; dir != "" {
		if n, err := fonts.LoadDir(dir); err != nil {
			l.Warn("load fonts failed", slog.String("dir", dir), slog.Any("err", err))
		} else {
			l.Info("fonts loaded", slog.Int("count", n))
		}
	}

	fyneApp := app.NewWithID("urducard")
	w := fyneApp.NewWindow("Urdu Card Editor " + version.String())
	prefs := fyneApp.Preferences()
	w.Resize(fyne.NewSize(
		float32(max(prefs.IntWithFallback("window.width", 1200), 900)),
		float32(max(prefs.IntWithFallback("window.height", 800), 600)),
	))

	status := widget.NewLabel("Ready")
	cardView := NewCardCanvas()
	props := newPropertyPanel()
	port := &windowPort{w: w, status: status, card: cardView, props: props, l: l}

	edOpts := editor.OptionsFromConfig(cfg)
	edOpts.Fonts = fonts
	edOpts.Surfaces = render.GGFactory(fonts)
	edOpts.ExportSurfaces = edOpts.Surfaces
	edOpts.Events = telemetry.Default()
	if cfg.Backend.BaseURL != "" {
		edOpts.Backend = backend.NewClient(cfg.Backend.BaseURL, opts.Token, cfg.Backend.Timeout())
	}
	ed, err := editor.New(edOpts, port)
	if err != nil {
		return fmt.Errorf("start editor: %w", err)
	}
	cardView.Attach(ed)
	props.bind(ed)
	port.ed = ed

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if dir := cfg.Editor.FontsDir; dir != "" {
		watcher, err := fonts.WatchDir(ctx, dir, func(path string) {
			fyne.Do(func() {
				ed.Redraw()
				status.SetText("Font loaded: " + path)
			})
		})
		if err != nil {
			l.Warn("font watch failed", slog.Any("err", err))
		} else {
			defer watcher.Close()
		}
	}

	// Tools
	var addBtn, selectBtn *widget.Button
	setMode := func(insert bool) {
		ed.SetInsertMode(insert)
		if insert {
			addBtn.Importance, selectBtn.Importance = widget.HighImportance, widget.MediumImportance
		} else {
			addBtn.Importance, selectBtn.Importance = widget.MediumImportance, widget.HighImportance
		}
		addBtn.Refresh()
		selectBtn.Refresh()
	}
	addBtn = widget.NewButtonWithIcon("Add Text", theme.ContentAddIcon(), func() { setMode(true) })
	selectBtn = widget.NewButtonWithIcon("Select", theme.NavigateNextIcon(), func() { setMode(false) })
	setMode(ed.InsertMode())

	confirmClear := func() {
		dialog.ShowConfirm("Clear card", "Remove every text element?", func(ok bool) {
			if ok {
				ed.ClearAll()
			}
		}, w)
	}
	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() { ed.AddText(props.text.Text) }),
		widget.NewToolbarAction(theme.DeleteIcon(), func() { ed.DeleteSelected() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentUndoIcon(), func() { ed.Undo() }),
		widget.NewToolbarAction(theme.ContentRedoIcon(), func() { ed.Redo() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentClearIcon(), confirmClear),
		widget.NewToolbarSpacer(),
		widget.NewToolbarAction(theme.FileImageIcon(), func() { exportRaster(w, ed, export.FormatJPEG) }),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() { exportDocument(w, ed, status) }),
	)

	// Card size and background
	wmm, hmm := ed.CardSize()
	widthEntry := widget.NewEntry()
	widthEntry.SetText(backend.FormatMM(wmm))
	heightEntry := widget.NewEntry()
	heightEntry.SetText(backend.FormatMM(hmm))
	syncSize := func() {
		cw, ch := ed.CardSize()
		widthEntry.SetText(backend.FormatMM(cw))
		heightEntry.SetText(backend.FormatMM(ch))
		cardView.updateImage()
	}
	applySize := widget.NewButton("Apply size", func() {
		cw, err1 := strconv.ParseFloat(strings.TrimSpace(widthEntry.Text), 64)
		ch, err2 := strconv.ParseFloat(strings.TrimSpace(heightEntry.Text), 64)
		if err1 != nil || err2 != nil {
			dialog.ShowError(fmt.Errorf("card size must be numbers in mm"), w)
			return
		}
		if ed.ResizeCanvas(cw, ch) == nil {
			syncSize()
		}
	})
	ratio := widget.NewSelect(editor.AspectRatios, func(r string) {
		if err := ed.ApplyAspectRatio(r); err != nil {
			dialog.ShowError(err, w)
			return
		}
		syncSize()
	})
	ratio.SetSelected("custom")
	bgEntry := widget.NewEntry()
	bgEntry.SetText(ed.Background())
	bgEntry.OnSubmitted = func(s string) { ed.SetBackground(s) }

	cardForm := widget.NewForm(
		widget.NewFormItem("Width (mm)", widthEntry),
		widget.NewFormItem("Height (mm)", heightEntry),
		widget.NewFormItem("", applySize),
		widget.NewFormItem("Aspect", ratio),
		widget.NewFormItem("Background", bgEntry),
	)

	left := container.NewVBox(
		widget.NewLabelWithStyle("Tools", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		addBtn, selectBtn,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Card", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		cardForm,
	)
	center := container.NewScroll(cardView)
	right := container.NewVScroll(props.container())
	split := container.NewHSplit(center, right)
	split.Offset = 0.7
	content := container.NewBorder(toolbar, status, left, nil, split)
	w.SetContent(content)

	// Shortcuts
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { ed.Undo() })
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { ed.Redo() })
	w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if w.Canvas().Focused() != nil {
			return
		}
		switch ev.Name {
		case fyne.KeyDelete, fyne.KeyBackspace:
			ed.DeleteSelected()
		}
	})

	w.SetOnClosed(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		telemetry.Default().Flush(context.Background())
	})
	w.ShowAndRun()
	l.Info("UI closed")
	return nil
}

func exportRaster(w fyne.Window, ed *editor.Editor, f export.Format) {
	if ed.Exporting() {
		return
	}
	d := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		if uc == nil {
			return
		}
		defer uc.Close()
		if _, err := ed.ExportRaster(f, uc); err != nil {
			dialog.ShowError(err, w)
		}
	}, w)
	d.SetFileName(ed.RasterFilename(f))
	d.Show()
}

// exportDocument asks for a target file and renders the card on the UI
// goroutine; only the render service round trip runs in the background.
func exportDocument(w fyne.Window, ed *editor.Editor, status *widget.Label) {
	if ed.Exporting() {
		return
	}
	wmm, hmm := ed.CardSize()
	d := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		if uc == nil {
			return
		}
		doc, err := ed.PrepareDocument()
		if err != nil {
			_ = uc.Close()
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Generating PDF...")
		go func() {
			defer uc.Close()
			res, err := doc.Submit(context.Background(), uc)
			fyne.Do(func() {
				if err != nil {
					status.SetText("PDF export failed")
					dialog.ShowError(err, w)
					return
				}
				status.SetText("Exported " + res.Filename)
			})
		}()
	}, w)
	d.SetFileName(backend.PDFFilename(wmm, hmm, export.DefaultDPI))
	d.Show()
}

// windowPort adapts the window to the editor's port.
type windowPort struct {
	w      fyne.Window
	status *widget.Label
	card   *CardCanvas
	props  *propertyPanel
	ed     *editor.Editor
	l      *slog.Logger
}

func (p *windowPort) Invalidate() { p.card.Refresh() }

func (p *windowPort) SelectionChanged(e scene.TextElement, ok bool) { p.props.show(e, ok) }

func (p *windowPort) Notify(kind editor.NoticeKind, msg string) {
	if p.status != nil {
		p.status.SetText(msg)
	}
	p.l.Debug("notice", slog.String("kind", kind.String()), slog.String("msg", msg))
}

func (p *windowPort) SetCursor(c scene.Cursor) { p.card.SetCursor(c) }
