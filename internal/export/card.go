/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export turns a card into a print-resolution raster or, through the
// render service, a PDF. Exports read a copy of the scene and never change it.
package export

import (
	"errors"
	"fmt"
	"image"

	"github.com/syedzohaibshah/urdu-card-generator/internal/geom"
	"github.com/syedzohaibshah/urdu-card-generator/internal/render"
	"github.com/syedzohaibshah/urdu-card-generator/internal/scene"
)

// DefaultDPI is the print resolution used when none is configured.
const DefaultDPI = 1200

var (
	ErrExportInProgress = errors.New("export: another export is in progress")
	ErrNoBackend        = errors.New("export: no render service configured")
	ErrNotRaster        = errors.New("export: surface has no pixel image")
	// ErrDocumentSubmitted is returned by a second Submit of one PendingDocument.
	ErrDocumentSubmitted = errors.New("export: document already submitted")
)

// Card is everything needed to render the card off-screen.
type Card struct {
	Scene      scene.Snapshot
	WidthMM    float64
	HeightMM   float64
	Background string
	// DisplayDPI is the resolution the logical canvas is defined at.
	DisplayDPI float64
}

// PixelSize returns the surface size of the card at dpi.
func (c Card) PixelSize(dpi float64) (w, h int) {
	return geom.MMToPixels(c.WidthMM, dpi), geom.MMToPixels(c.HeightMM, dpi)
}

// Imager is implemented by surfaces backed by pixels.
type Imager interface {
	Image() image.Image
}

// RenderCard draws the card onto a fresh surface at dpi without selection
// chrome. Allocation failures come back wrapped as a render surface error.
func RenderCard(surfaces render.Factory, c Card, dpi float64) (image.Image, error) {
	w, h := c.PixelSize(dpi)
	sf, err := surfaces(w, h)
	if err != nil {
		return nil, fmt.Errorf("export: render surface: %w", err)
	}
	im, ok := sf.(Imager)
	if !ok {
		return nil, ErrNotRaster
	}
	snap := c.Scene.Clone()
	snap.Selected = 0
	render.Render(sf, snap, render.Options{
		Scale:      render.ScaleFor(dpi, c.DisplayDPI),
		Background: c.Background,
	})
	return im.Image(), nil
}
