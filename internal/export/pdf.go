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
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/syedzohaibshah/urdu-card-generator/internal/version"
)

// PDFImageQuality is the JPEG quality of the page image embedded in PDFs.
const PDFImageQuality = 95

// WritePDF writes a one-page PDF of widthMM x heightMM whose page is covered
// by img. Transparent pixels become white.
func WritePDF(w io.Writer, img image.Image, widthMM, heightMM float64) error {
	if widthMM <= 0 || heightMM <= 0 {
		return fmt.Errorf("export: invalid page size %vx%v mm", widthMM, heightMM)
	}
	var jb bytes.Buffer
	if err := jpeg.Encode(&jb, FlattenOnWhite(img), &jpeg.Options{Quality: PDFImageQuality}); err != nil {
		return fmt.Errorf("encode page image: %w", err)
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    gofpdf.SizeType{Wd: widthMM, Ht: heightMM},
	})
	pdf.SetCreator("urducard "+version.String(), false)
	pdf.SetTitle("Urdu card", false)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opt := gofpdf.ImageOptions{ImageType: "JPG"}
	pdf.RegisterImageOptionsReader("card", opt, &jb)
	pdf.ImageOptions("card", 0, 0, widthMM, heightMM, false, opt, 0, "")
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
