/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"image"
	"math"
)

// boxBlur approximates a gaussian with standard deviation sigma by three
// passes of a separable box filter. img is premultiplied, so averaging all
// four channels keeps edges free of dark fringes.
func boxBlur(img *image.RGBA, sigma float64) {
	if sigma <= 0 {
		return
	}
	r := int(math.Round(sigma * math.Sqrt(3)))
	if r < 1 {
		r = 1
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	tmp := make([]uint8, len(img.Pix))
	for range 3 {
		blurPass(img.Pix, tmp, w, h, img.Stride, 4, r)
		blurPass(tmp, img.Pix, h, w, 4, img.Stride, r)
	}
}

// blurPass averages src along one axis into dst. n is the line length, lines
// the number of lines; step and lineStep are byte offsets between samples and
// between lines.
func blurPass(src, dst []uint8, n, lines, lineStep, step, r int) {
	win := float64(2*r + 1)
	for l := 0; l < lines; l++ {
		base := l * lineStep
		for c := 0; c < 4; c++ {
			var sum int
			at := func(i int) int {
				i = min(max(i, 0), n-1)
				return int(src[base+i*step+c])
			}
			for i := -r; i <= r; i++ {
				sum += at(i)
			}
			for i := 0; i < n; i++ {
				dst[base+i*step+c] = uint8(float64(sum)/win + 0.5)
				sum += at(i+r+1) - at(i-r)
			}
		}
	}
}
