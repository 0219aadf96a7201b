/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"bytes"
	"context"
	"errors"
	"image/jpeg"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/syedzohaibshah/urdu-card-generator/internal/backend"
	"github.com/syedzohaibshah/urdu-card-generator/internal/export"
	"github.com/syedzohaibshah/urdu-card-generator/internal/geom"
	"github.com/syedzohaibshah/urdu-card-generator/internal/render"
	"github.com/syedzohaibshah/urdu-card-generator/internal/scene"
	"github.com/syedzohaibshah/urdu-card-generator/internal/textlayout"
)

type notice struct {
	kind NoticeKind
	msg  string
}

type fakePort struct {
	invalidated int
	selected    scene.TextElement
	hasSel      bool
	notices     []notice
	cursor      scene.Cursor
}

func (p *fakePort) Invalidate() { p.invalidated++ }
func (p *fakePort) SelectionChanged(e scene.TextElement, ok bool) {
	p.selected, p.hasSel = e, ok
}
func (p *fakePort) Notify(kind NoticeKind, msg string) { p.notices = append(p.notices, notice{kind, msg}) }
func (p *fakePort) SetCursor(c scene.Cursor)           { p.cursor = c }

func (p *fakePort) last() notice {
	if len(p.notices) == 0 {
		return notice{}
	}
	return p.notices[len(p.notices)-1]
}

// 101.6 x 50.8 mm at 100 dpi is a 400 x 200 logical canvas.
func testOptions() Options {
	return Options{
		WidthMM:        101.6,
		HeightMM:       50.8,
		DisplayDPI:     100,
		ExportDPI:      100,
		Background:     "#ffffff",
		InsertText:     "متن",
		Surfaces:       render.RecorderFactory(nil),
		ExportSurfaces: render.GGFactory(textlayout.FixedProvider{}),
	}
}

func newTestEditor(t *testing.T, opt Options) (*Editor, *fakePort) {
	t.Helper()
	port := &fakePort{}
	ed, err := New(opt, port)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ed, port
}

// withElement adds one element at (50,50) with the default 250x80 box.
func withElement(t *testing.T) (*Editor, *fakePort, scene.TextElement) {
	t.Helper()
	ed, port := newTestEditor(t, testOptions())
	e := ed.AddText("سلام")
	return ed, port, e
}

func pt(x, y float64) geom.Pt { return geom.Pt{X: x, Y: y} }

func bounds(t *testing.T, ed *Editor) geom.Rect {
	t.Helper()
	e, ok := ed.Selected()
	if !ok {
		t.Fatalf("no selection")
	}
	return e.Bounds()
}

func TestNewDrawsDemoCard(t *testing.T) {
	opt := testOptions()
	opt.Demo = true
	ed, port := newTestEditor(t, opt)
	if ed.scene.Len() != 1 || port.invalidated == 0 {
		t.Fatalf("demo card not drawn: len=%d invalidated=%d", ed.scene.Len(), port.invalidated)
	}
	e, ok := ed.Selected()
	if !ok || e.X != 50 || e.Y != 30 || e.Text != DemoText {
		t.Fatalf("demo element = %+v", e)
	}
	if ed.CanUndo() {
		t.Fatalf("initial state must be the only history entry")
	}
	rec := ed.Surface().(*render.Recorder)
	if w, h := rec.Size(); w != 400 || h != 200 {
		t.Fatalf("display surface = %dx%d, want 400x200", w, h)
	}
	if len(rec.Texts()) != 2 {
		t.Fatalf("want one run per demo line, got %d", len(rec.Texts()))
	}
}

func TestNewRejectsBadCardSize(t *testing.T) {
	opt := testOptions()
	opt.WidthMM = 0
	if _, err := New(opt, nil); !errors.Is(err, ErrCardSize) {
		t.Fatalf("want ErrCardSize, got %v", err)
	}
}

func TestPointerDownPrefersSelectedHandles(t *testing.T) {
	ed, _, a := withElement(t)
	ed.AddText("دوسرا")
	ed.scene.SetBounds(ed.scene.SelectedID(), geom.R(150, 100, 250, 80))
	if !ed.SelectAt(pt(60, 60)) {
		t.Fatalf("SelectAt missed the first element")
	}
	// (300,130) is a's SE corner and inside the second element's body.
	ed.PointerDown(pt(300, 130))
	if ed.State() != StateResizing {
		t.Fatalf("state = %s, want resizing", ed.State())
	}
	if id := ed.scene.SelectedID(); id != a.ID {
		t.Fatalf("selection moved to %d", id)
	}
}

func TestResizeSEClampsAndKeepsOrigin(t *testing.T) {
	ed, _, _ := withElement(t)
	ed.PointerDown(pt(300, 130))
	ed.PointerMove(pt(400, 200))
	if b := bounds(t, ed); b != geom.R(50, 50, 350, 150) {
		t.Fatalf("after grow = %+v", b)
	}
	ed.PointerMove(pt(10, 10))
	if b := bounds(t, ed); b != geom.R(50, 50, scene.MinWidth, scene.MinHeight) {
		t.Fatalf("after shrink = %+v", b)
	}
}

func TestResizeNWKeepsOppositeCorner(t *testing.T) {
	ed, _, _ := withElement(t)
	ed.PointerDown(pt(50, 50))
	ed.PointerMove(pt(20, 40))
	if b := bounds(t, ed); b != geom.R(20, 40, 280, 90) {
		t.Fatalf("after grow = %+v", b)
	}
	ed.PointerMove(pt(500, 500))
	b := bounds(t, ed)
	if b.W != scene.MinWidth || b.H != scene.MinHeight || b.SE() != pt(300, 130) {
		t.Fatalf("clamped nw resize = %+v", b)
	}
}

func TestResizeSWAndNE(t *testing.T) {
	ed, _, _ := withElement(t)
	ed.PointerDown(pt(50, 130))
	ed.PointerMove(pt(40, 150))
	if b := bounds(t, ed); b != geom.R(40, 50, 260, 100) {
		t.Fatalf("sw = %+v", b)
	}
	ed.PointerUp(pt(40, 150))

	ed.PointerDown(pt(300, 50))
	ed.PointerMove(pt(310, 45))
	if b := bounds(t, ed); b != geom.R(40, 45, 270, 105) {
		t.Fatalf("ne = %+v", b)
	}
}

func TestDragIsIncrementalAndSavesOnRelease(t *testing.T) {
	ed, _, _ := withElement(t)
	ed.PointerDown(pt(100, 80))
	if ed.State() != StateDragging {
		t.Fatalf("state = %s", ed.State())
	}
	ed.PointerMove(pt(110, 85))
	ed.PointerMove(pt(130, 95))
	if b := bounds(t, ed); b.X != 80 || b.Y != 65 {
		t.Fatalf("dragged to %+v, want (80,65)", b)
	}
	ed.PointerUp(pt(130, 95))
	if ed.State() != StateIdle {
		t.Fatalf("gesture not ended")
	}
	if !ed.Undo() {
		t.Fatalf("drag should be undoable")
	}
	if b := bounds(t, ed); b.X != 50 || b.Y != 50 {
		t.Fatalf("undo restored %+v", b)
	}
	if !ed.Redo() || bounds(t, ed).X != 80 {
		t.Fatalf("redo lost the drag")
	}
}

func TestRotateHandleRoundsAngle(t *testing.T) {
	ed, _, _ := withElement(t)
	// rotate handle sits 20 above the top center; the pivot is (175, 90).
	ed.PointerDown(pt(175, 30))
	if ed.State() != StateRotating {
		t.Fatalf("state = %s", ed.State())
	}
	ed.PointerMove(pt(175, 190))
	if e, _ := ed.Selected(); e.Rotation != 90 {
		t.Fatalf("rotation = %d, want 90", e.Rotation)
	}
	ed.PointerMove(pt(275.4, 190))
	if e, _ := ed.Selected(); e.Rotation != 45 {
		t.Fatalf("rotation = %d, want 45", e.Rotation)
	}
	ed.PointerMove(pt(75, 90))
	if e, _ := ed.Selected(); e.Rotation != 180 {
		t.Fatalf("rotation = %d, want 180", e.Rotation)
	}
}

func TestPointerUpWithoutMoveStillSaves(t *testing.T) {
	ed, _, _ := withElement(t)
	before, _, _ := ed.hist.Stats()
	ed.PointerDown(pt(100, 80))
	ed.PointerUp(pt(100, 80))
	if after, _, _ := ed.hist.Stats(); after != before+1 {
		t.Fatalf("entries %d -> %d, want one more", before, after)
	}
	ed.PointerUp(pt(100, 80))
	if again, _, _ := ed.hist.Stats(); again != before+1 {
		t.Fatalf("idle pointer-up must not save")
	}
}

func TestInsertModeClickAddsElement(t *testing.T) {
	ed, port, _ := withElement(t)
	ed.SetInsertMode(true)
	if port.cursor != scene.CursorCrosshair {
		t.Fatalf("insert mode cursor = %q", port.cursor)
	}
	ed.PointerDown(pt(20, 150))
	if ed.State() != StateIdle {
		t.Fatalf("insert click must not start a gesture")
	}
	e, ok := ed.Selected()
	if !ok || e.Text != "متن" || e.X != 20 || e.Y != 150 {
		t.Fatalf("inserted %+v", e)
	}
	if !port.hasSel || port.selected.ID != e.ID {
		t.Fatalf("port not told about the new selection")
	}
	// clicking an element still selects it in insert mode
	ed.PointerDown(pt(100, 80))
	if ed.State() != StateDragging || ed.scene.Len() != 2 {
		t.Fatalf("element click in insert mode: state=%s len=%d", ed.State(), ed.scene.Len())
	}
}

func TestEmptyClickClearsSelection(t *testing.T) {
	ed, port, _ := withElement(t)
	ed.PointerDown(pt(10, 190))
	if _, ok := ed.Selected(); ok || port.hasSel {
		t.Fatalf("selection should be cleared")
	}
	if ed.scene.Len() != 1 {
		t.Fatalf("select mode click must not add")
	}
}

func TestDoubleClick(t *testing.T) {
	ed, _, _ := withElement(t)
	if ed.DoubleClick(pt(100, 80)) {
		t.Fatalf("double click on an element must not add")
	}
	if !ed.DoubleClick(pt(10, 150)) {
		t.Fatalf("double click on empty canvas should add")
	}
	e, _ := ed.Selected()
	if e.Text != "نیا متن" || e.X != 10 || e.Y != 150 {
		t.Fatalf("double click added %+v", e)
	}
}

func TestViewportScalesPointer(t *testing.T) {
	opt := testOptions()
	opt.FitW, opt.FitH = 200, 200
	ed, _ := newTestEditor(t, opt)
	ed.AddText("x")
	if s := ed.Viewport().Scale(); s != 0.5 {
		t.Fatalf("scale = %v", s)
	}
	ed.PointerDown(pt(50, 40)) // logical (100, 80)
	ed.PointerMove(pt(55, 40))
	if b := bounds(t, ed); b.X != 60 {
		t.Fatalf("display delta 5 should move 10 logical, x=%v", b.X)
	}
}

func TestCursorAt(t *testing.T) {
	ed, _, _ := withElement(t)
	cases := []struct {
		p    geom.Pt
		want scene.Cursor
	}{
		{pt(52, 48), scene.CursorNWSE},
		{pt(300, 130), scene.CursorNWSE},
		{pt(300, 50), scene.CursorNESW},
		{pt(175, 30), scene.CursorGrab},
		{pt(100, 80), scene.CursorMove},
		{pt(10, 190), scene.CursorDefault},
	}
	for _, c := range cases {
		if got := ed.CursorAt(c.p); got != c.want {
			t.Fatalf("CursorAt(%v) = %q, want %q", c.p, got, c.want)
		}
	}
	ed.scene.ClearSelection()
	if got := ed.CursorAt(pt(100, 80)); got != scene.CursorDefault {
		t.Fatalf("without selection cursor = %q", got)
	}
	ed.SetInsertMode(true)
	if got := ed.CursorAt(pt(100, 80)); got != scene.CursorCrosshair {
		t.Fatalf("insert mode cursor = %q", got)
	}
}

func TestSetPropertyOnSelection(t *testing.T) {
	ed, port, _ := withElement(t)
	if err := ed.SetProperty("fontSize", " 36 "); err != nil {
		t.Fatalf("fontSize: %v", err)
	}
	if err := ed.SetProperty("color", "#ff0000"); err != nil {
		t.Fatalf("color: %v", err)
	}
	if port.selected.FontSize != 36 || port.selected.Color != "#ff0000" {
		t.Fatalf("port saw %+v", port.selected)
	}
	if err := ed.SetProperty("fontSize", "big"); !errors.Is(err, scene.ErrPropertyKind) {
		t.Fatalf("want ErrPropertyKind, got %v", err)
	}
	if err := ed.SetProperty("kerning", "1"); !errors.Is(err, scene.ErrUnknownProperty) {
		t.Fatalf("want ErrUnknownProperty, got %v", err)
	}
	if !ed.Undo() || port.selected.Color != "#000000" {
		t.Fatalf("undo should restore the color, got %+v", port.selected)
	}
	ed.scene.ClearSelection()
	if err := ed.SetNumber(scene.PropOpacity, 50); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("want ErrNoSelection, got %v", err)
	}
}

func TestDeleteAndClear(t *testing.T) {
	ed, port, _ := withElement(t)
	ed.AddText("b")
	if !ed.DeleteSelected() || ed.scene.Len() != 1 || port.hasSel {
		t.Fatalf("delete failed")
	}
	if ed.DeleteSelected() {
		t.Fatalf("nothing selected, nothing to delete")
	}
	ed.ClearAll()
	if ed.scene.Len() != 0 {
		t.Fatalf("clear left elements")
	}
	ed.Undo()
	if ed.scene.Len() != 1 {
		t.Fatalf("undo of clear = %d elements", ed.scene.Len())
	}
}

func TestAspectRatioAndResize(t *testing.T) {
	ed, port, _ := withElement(t)
	if err := ed.ApplyAspectRatio("custom"); err != nil {
		t.Fatalf("custom: %v", err)
	}
	if err := ed.ApplyAspectRatio("16:9"); err != nil {
		t.Fatalf("16:9: %v", err)
	}
	if w, h := ed.CardSize(); w != 101.6 || h != 57 {
		t.Fatalf("card = %vx%v, want 101.6x57", w, h)
	}
	if w, h := ed.Surface().Size(); w != 400 || h != 224 {
		t.Fatalf("surface = %dx%d", w, h)
	}
	if err := ed.ApplyAspectRatio("wide"); err == nil {
		t.Fatalf("bad ratio accepted")
	}
	if err := ed.ResizeCanvas(-1, 10); !errors.Is(err, ErrCardSize) {
		t.Fatalf("want ErrCardSize, got %v", err)
	}
	if port.last().kind != NoticeError {
		t.Fatalf("failed resize not reported")
	}
	if w, h := ed.CardSize(); w != 101.6 || h != 57 {
		t.Fatalf("failed resize changed the card to %vx%v", w, h)
	}
	if ed.Snapshot().Elements[0].X != 50 {
		t.Fatalf("resize moved elements")
	}
}

func TestExportRasterKeepsSelection(t *testing.T) {
	ed, port, e := withElement(t)
	ed.scene.SetBounds(e.ID, geom.R(10, 10, 100, 40))
	var buf bytes.Buffer
	res, err := ed.ExportRaster(export.FormatJPEG, &buf)
	if err != nil {
		t.Fatalf("ExportRaster: %v", err)
	}
	if res.Filename != "urdu-card-101.6x50.8mm-100dpi.jpg" || res.Filename != ed.RasterFilename(export.FormatJPEG) {
		t.Fatalf("filename = %q", res.Filename)
	}
	img, err := jpeg.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 200 {
		t.Fatalf("exported %v", b)
	}
	if ed.scene.SelectedID() != e.ID {
		t.Fatalf("export changed the selection")
	}
	if n := port.last(); n.kind != NoticeInfo || !strings.Contains(n.msg, res.Filename) {
		t.Fatalf("notice = %+v", n)
	}
	if ed.Exporting() {
		t.Fatalf("export still marked busy")
	}
}

func TestExportSurfaceFailureIsReported(t *testing.T) {
	opt := testOptions()
	opt.ExportSurfaces = func(w, h int) (render.Surface, error) {
		return nil, errors.New("out of memory")
	}
	ed, port := newTestEditor(t, opt)
	ed.AddText("x")
	_, err := ed.ExportRaster(export.FormatPNG, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "render surface") {
		t.Fatalf("want render surface error, got %v", err)
	}
	if port.last().kind != NoticeError {
		t.Fatalf("failure not reported: %+v", port.notices)
	}
	if ed.scene.Len() != 1 {
		t.Fatalf("editor should stay usable")
	}
}

func TestExportDocumentWithoutBackend(t *testing.T) {
	ed, port, _ := withElement(t)
	if _, err := ed.ExportDocument(context.Background(), &bytes.Buffer{}); !errors.Is(err, export.ErrNoBackend) {
		t.Fatalf("want ErrNoBackend, got %v", err)
	}
	if port.last().kind != NoticeError {
		t.Fatalf("missing backend not reported")
	}
}

type blockingRenderer struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingRenderer) RenderPDF(ctx context.Context, r backend.PDFRequest) (*backend.Document, error) {
	close(b.started)
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &backend.Document{Filename: "card.pdf", Body: []byte("%PDF-" + strconv.Itoa(r.DPI))}, nil
}

// Display and export share one font library and, at equal DPI, the same
// cached faces. Submitting while the display keeps redrawing must not draw.
func TestDocumentSubmitBesideDisplayRedraws(t *testing.T) {
	fonts := textlayout.NewFontLibrary()
	if err := fonts.LoadBytes(scene.DefaultFontFamily, 400, goregular.TTF); err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	opt := testOptions()
	opt.Fonts = fonts
	opt.Surfaces = render.GGFactory(fonts)
	opt.ExportSurfaces = opt.Surfaces
	rr := &blockingRenderer{started: make(chan struct{}), release: make(chan struct{})}
	opt.Backend = rr
	ed, port := newTestEditor(t, opt)
	ed.AddText("hello world")

	doc, err := ed.PrepareDocument()
	if err != nil {
		t.Fatalf("PrepareDocument: %v", err)
	}
	if !ed.Exporting() {
		t.Fatalf("prepared document must hold the export guard")
	}
	type outcome struct {
		res export.Result
		err error
		out string
	}
	done := make(chan outcome, 1)
	go func() {
		var buf bytes.Buffer
		res, err := doc.Submit(context.Background(), &buf)
		done <- outcome{res, err, buf.String()}
	}()

	<-rr.started
	ed.PointerDown(pt(100, 80))
	for i := 0; i < 20; i++ {
		ed.PointerMove(pt(100+float64(i), 80))
	}
	ed.PointerUp(pt(119, 80))
	close(rr.release)

	got := <-done
	if got.err != nil || got.out != "%PDF-100" || got.res.Width != 400 || got.res.Height != 200 {
		t.Fatalf("submit = %+v", got)
	}
	if ed.Exporting() {
		t.Fatalf("export guard not released")
	}
	if _, err := doc.Submit(context.Background(), &bytes.Buffer{}); !errors.Is(err, export.ErrDocumentSubmitted) {
		t.Fatalf("second submit = %v", err)
	}
	if port.last().kind == NoticeError {
		t.Fatalf("unexpected error notice: %+v", port.notices)
	}
}

func TestDiscardReleasesExportGuard(t *testing.T) {
	opt := testOptions()
	opt.Backend = &blockingRenderer{started: make(chan struct{}), release: make(chan struct{})}
	ed, _ := newTestEditor(t, opt)
	doc, err := ed.PrepareDocument()
	if err != nil {
		t.Fatalf("PrepareDocument: %v", err)
	}
	if _, err := ed.PrepareDocument(); !errors.Is(err, export.ErrExportInProgress) {
		t.Fatalf("second prepare = %v", err)
	}
	doc.Discard()
	if ed.Exporting() {
		t.Fatalf("discard must release the guard")
	}
}
