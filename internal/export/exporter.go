/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/syedzohaibshah/urdu-card-generator/internal/backend"
	applog "github.com/syedzohaibshah/urdu-card-generator/internal/log"
	"github.com/syedzohaibshah/urdu-card-generator/internal/render"
	"github.com/syedzohaibshah/urdu-card-generator/internal/telemetry"
)

// DocumentRenderer turns a card image into a document. *backend.Client implements it.
type DocumentRenderer interface {
	RenderPDF(ctx context.Context, r backend.PDFRequest) (*backend.Document, error)
}

// Result describes a finished export.
type Result struct {
	Filename      string
	Width, Height int // pixels
	Bytes         int64
	Elapsed       time.Duration
}

// Exporter runs one export at a time.
type Exporter struct {
	Surfaces render.Factory
	Backend  DocumentRenderer
	Events   telemetry.Sink
	DPI      int

	busy atomic.Bool
}

func (x *Exporter) dpi() int {
	if x.DPI > 0 {
		return x.DPI
	}
	return DefaultDPI
}

func (x *Exporter) begin() error {
	if !x.busy.CompareAndSwap(false, true) {
		return ErrExportInProgress
	}
	return nil
}

// Busy reports whether an export is running; hosts disable export triggers while it is.
func (x *Exporter) Busy() bool { return x.busy.Load() }

func (x *Exporter) event(name string, props map[string]any) {
	if x.Events != nil {
		x.Events.Event(name, props)
	}
}

func (x *Exporter) fail(kind string, err error) error {
	applog.WithOperation(applog.WithComponent("export"), kind).Error("export failed", slog.Any("err", err))
	x.event(telemetry.EventExportFailed, map[string]any{"kind": kind})
	return err
}

// Raster renders the card at the configured DPI and writes it to w in format f.
func (x *Exporter) Raster(c Card, f Format, w io.Writer) (Result, error) {
	if err := x.begin(); err != nil {
		return Result{}, err
	}
	defer x.busy.Store(false)
	start := time.Now()
	dpi := x.dpi()

	img, err := RenderCard(x.Surfaces, c, float64(dpi))
	if err != nil {
		return Result{}, x.fail("raster", err)
	}
	cw := &countingWriter{w: w}
	if err := Encode(cw, img, f); err != nil {
		return Result{}, x.fail("raster", fmt.Errorf("export: encode %s: %w", f, err))
	}
	b := img.Bounds()
	res := Result{
		Filename: RasterFilename(c.WidthMM, c.HeightMM, dpi, f),
		Width:    b.Dx(),
		Height:   b.Dy(),
		Bytes:    cw.n,
		Elapsed:  time.Since(start),
	}
	applog.WithComponent("export").Info("raster exported",
		slog.String("file", res.Filename), slog.Int("w", res.Width), slog.Int("h", res.Height), slog.Int64("bytes", res.Bytes))
	x.event(telemetry.EventExportRaster, map[string]any{"dpi": dpi, "format": string(f)})
	return res, nil
}

// Document renders the card, sends it as PNG to the render service and
// copies the returned PDF to w. Service errors keep the service's message.
func (x *Exporter) Document(ctx context.Context, c Card, w io.Writer) (Result, error) {
	p, err := x.PrepareDocument(c)
	if err != nil {
		return Result{}, err
	}
	return p.Submit(ctx, w)
}

// PendingDocument is a card rendered for the render service. It holds the
// exporter's busy flag until Submit or Discard is called.
type PendingDocument struct {
	x     *Exporter
	req   backend.PDFRequest
	w, h  int
	start time.Time
	done  atomic.Bool
}

// PrepareDocument renders and encodes the card. Rendering shares font faces
// with the display, so call it on the goroutine that draws the display; only
// Submit may move elsewhere.
func (x *Exporter) PrepareDocument(c Card) (*PendingDocument, error) {
	if x.Backend == nil {
		return nil, ErrNoBackend
	}
	if err := x.begin(); err != nil {
		return nil, err
	}
	start := time.Now()
	dpi := x.dpi()

	img, err := RenderCard(x.Surfaces, c, float64(dpi))
	if err != nil {
		x.busy.Store(false)
		return nil, x.fail("document", err)
	}
	var pb bytes.Buffer
	if err := Encode(&pb, img, FormatPNG); err != nil {
		x.busy.Store(false)
		return nil, x.fail("document", fmt.Errorf("export: encode png: %w", err))
	}
	b := img.Bounds()
	return &PendingDocument{
		x:     x,
		req:   backend.NewPDFRequest(pb.Bytes(), c.WidthMM, c.HeightMM, dpi),
		w:     b.Dx(),
		h:     b.Dy(),
		start: start,
	}, nil
}

// Discard releases the exporter without contacting the service.
func (p *PendingDocument) Discard() {
	if p.done.CompareAndSwap(false, true) {
		p.x.busy.Store(false)
	}
}

// Submit sends the rendered card to the render service and copies the PDF
// to w. It touches no font or surface state and is safe on any goroutine.
func (p *PendingDocument) Submit(ctx context.Context, w io.Writer) (Result, error) {
	if !p.done.CompareAndSwap(false, true) {
		return Result{}, ErrDocumentSubmitted
	}
	x := p.x
	defer x.busy.Store(false)

	doc, err := x.Backend.RenderPDF(ctx, p.req)
	if err != nil {
		return Result{}, x.fail("document", err)
	}
	n, err := w.Write(doc.Body)
	if err != nil {
		return Result{}, x.fail("document", fmt.Errorf("export: write document: %w", err))
	}
	res := Result{
		Filename: doc.Filename,
		Width:    p.w,
		Height:   p.h,
		Bytes:    int64(n),
		Elapsed:  time.Since(p.start),
	}
	applog.WithComponent("export").Info("document exported", slog.String("file", res.Filename), slog.Int64("bytes", res.Bytes))
	x.event(telemetry.EventExportDocument, map[string]any{"dpi": p.req.DPI})
	return res, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
