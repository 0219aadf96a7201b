/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/syedzohaibshah/urdu-card-generator/internal/export"
)

// Card captures the current card for the export pipeline.
func (ed *Editor) Card() export.Card {
	return export.Card{
		Scene:      ed.scene.Snapshot(),
		WidthMM:    ed.opt.WidthMM,
		HeightMM:   ed.opt.HeightMM,
		Background: ed.opt.Background,
		DisplayDPI: ed.opt.DisplayDPI,
	}
}

// Exporting reports whether an export is running.
func (ed *Editor) Exporting() bool { return ed.exporter.Busy() }

// RasterFilename is the suggested file name for a raster export.
func (ed *Editor) RasterFilename(f export.Format) string {
	return export.RasterFilename(ed.opt.WidthMM, ed.opt.HeightMM, ed.exporter.DPI, f)
}

// ExportRaster writes the card as an image at the export DPI. The selection
// is left as it was.
func (ed *Editor) ExportRaster(f export.Format, w io.Writer) (export.Result, error) {
	res, err := ed.exporter.Raster(ed.Card(), f, w)
	if err != nil {
		ed.port.Notify(NoticeError, fmt.Sprintf("Export failed: %v", err))
		return res, err
	}
	ed.port.Notify(NoticeInfo, fmt.Sprintf("Exported %s (%dx%d)", res.Filename, res.Width, res.Height))
	return res, nil
}

// ExportDocument renders the card and has the render service turn it into a
// PDF written to w. It blocks until the service answers or ctx ends.
func (ed *Editor) ExportDocument(ctx context.Context, w io.Writer) (export.Result, error) {
	p, err := ed.PrepareDocument()
	if err != nil {
		return export.Result{}, err
	}
	res, err := p.Submit(ctx, w)
	if err != nil {
		ed.log.Warn("document export failed", slog.Any("err", err))
		ed.port.Notify(NoticeError, fmt.Sprintf("PDF export failed: %v", err))
		return res, err
	}
	ed.port.Notify(NoticeInfo, fmt.Sprintf("Exported %s", res.Filename))
	return res, nil
}

// PrepareDocument renders the current card for the render service. It must
// run on the editor's goroutine since it draws with the editor's fonts. The
// returned document's Submit does no drawing and does not notify the port, so
// hosts may run it elsewhere; they report its outcome themselves.
func (ed *Editor) PrepareDocument() (*export.PendingDocument, error) {
	p, err := ed.exporter.PrepareDocument(ed.Card())
	if err != nil {
		ed.log.Warn("document render failed", slog.Any("err", err))
		ed.port.Notify(NoticeError, fmt.Sprintf("PDF export failed: %v", err))
		return nil, err
	}
	return p, nil
}
