/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strings"

	// decoders for the submitted canvas
	_ "image/jpeg"
	_ "image/png"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"github.com/syedzohaibshah/urdu-card-generator/internal/backend"
	"github.com/syedzohaibshah/urdu-card-generator/internal/export"
	"github.com/syedzohaibshah/urdu-card-generator/internal/render"
	"github.com/syedzohaibshah/urdu-card-generator/internal/storage"
)

// exportRequestSchema validates the shape of POST /export_pdf bodies. A
// missing canvas_data passes so the handler can answer with its own message.
const exportRequestSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"canvas_data": {"type": "string"},
		"width":  {"type": "number", "exclusiveMinimum": 0, "maximum": 2000},
		"height": {"type": "number", "exclusiveMinimum": 0, "maximum": 2000},
		"dpi":    {"type": "integer", "minimum": 1, "maximum": 4800}
	}
}`

var dataURLPrefixes = []string{"data:image/png;base64,", "data:image/jpeg;base64,"}

type exportRequest struct {
	CanvasData string   `json:"canvas_data"`
	Width      *float64 `json:"width"`
	Height     *float64 `json:"height"`
	DPI        *int     `json:"dpi"`
}

func (r exportRequest) size() (w, h float64, dpi int) {
	w, h, dpi = DefaultWidthMM, DefaultHeightMM, DefaultDPI
	if r.Width != nil {
		w = *r.Width
	}
	if r.Height != nil {
		h = *r.Height
	}
	if r.DPI != nil {
		dpi = *r.DPI
	}
	return w, h, dpi
}

// decodeCanvas strips a data URL prefix and decodes the image. Images past
// render.MaxSurfacePixels are refused before their pixels are allocated.
func decodeCanvas(data string) (image.Image, error) {
	for _, p := range dataURLPrefixes {
		if strings.HasPrefix(data, p) {
			data = data[len(p):]
			break
		}
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return nil, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	// decoding and flattening each hold a full copy of the pixels
	if err := render.CheckSize(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	l := s.log.With(slog.String("op", "export_pdf"), slog.String("client", r.RemoteAddr))
	body, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxBody+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read body: %w", err))
		return
	}
	if int64(len(body)) > s.cfg.MaxBody {
		writeError(w, http.StatusRequestEntityTooLarge, errors.New("request body too large"))
		return
	}
	if err := s.validate(body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req exportRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("Invalid request: %v", err))
		return
	}
	wmm, hmm, dpi := req.size()
	entry := storage.Entry{Kind: "pdf", WidthMM: wmm, HeightMM: hmm, DPI: dpi, Client: r.RemoteAddr}

	if req.CanvasData == "" {
		writeError(w, http.StatusBadRequest, errors.New("No canvas data provided"))
		return
	}
	img, err := decodeCanvas(req.CanvasData)
	if err != nil {
		msg := fmt.Sprintf("Invalid image data: %v", err)
		l.Warn("bad canvas", slog.Any("err", err))
		s.record(r, entry, 0, msg)
		writeError(w, http.StatusBadRequest, errors.New(msg))
		return
	}
	b := img.Bounds()
	entry.ImageW, entry.ImageH = b.Dx(), b.Dy()

	var pdf bytes.Buffer
	if err := export.WritePDF(&pdf, img, wmm, hmm); err != nil {
		msg := fmt.Sprintf("PDF generation failed: %v", err)
		l.Error("pdf generation failed", slog.Any("err", err))
		s.record(r, entry, 0, msg)
		writeError(w, http.StatusInternalServerError, errors.New(msg))
		return
	}
	s.record(r, entry, int64(pdf.Len()), "")

	name := backend.PDFFilename(wmm, hmm, dpi)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf.Bytes())
	l.Info("pdf generated", slog.String("file", name), slog.Int("w", entry.ImageW), slog.Int("h", entry.ImageH), slog.Int("bytes", pdf.Len()))
}

// validate checks body against the request schema and reports every
// violation in one error.
func (s *Server) validate(body []byte) error {
	res, err := s.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("Invalid request: %v", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("Invalid request: %s", strings.Join(msgs, "; "))
}

// record journals an attempt; journal failures are logged, never returned.
func (s *Server) record(r *http.Request, e storage.Entry, n int64, errMsg string) {
	if s.cfg.Journal == nil {
		return
	}
	e.Bytes = n
	e.Status = storage.StatusOK
	if errMsg != "" {
		e.Status, e.Error = storage.StatusError, errMsg
	}
	if _, err := s.cfg.Journal.Record(r.Context(), e); err != nil {
		s.log.Warn("journal write failed", slog.Any("err", err))
	}
}
