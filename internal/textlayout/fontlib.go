/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// PrimaryFamily is tried after the requested family.
const PrimaryFamily = "Noto Nastaliq Urdu"

// DefaultFamilies is the catalog offered to users and probed at startup.
var DefaultFamilies = []string{
	"Noto Nastaliq Urdu",
	"Amiri",
	"Lalezar",
	"Playpen Sans",
	"Rakkas",
	"Lateef",
	"Aref Ruqaa",
	"Gulzar",
	"Mirza",
	"Marhey",
	"Scheherazade New",
	"Reem Kufi",
	"Cairo",
	"Tajawal",
	"IBM Plex Arabic",
	"Markazi Text",
}

// FallbackChain lists the families tried for a request, without duplicates.
// The built-in Go face is the implicit last step.
func FallbackChain(family string) []string {
	chain := make([]string, 0, 3)
	for _, f := range []string{family, PrimaryFamily, "Arial"} {
		if f == "" {
			continue
		}
		dup := false
		for _, c := range chain {
			if strings.EqualFold(c, f) {
				dup = true
				break
			}
		}
		if !dup {
			chain = append(chain, f)
		}
	}
	return chain
}

// FontLibrary stores loaded OpenType fonts mapped by family/weight and caches
// faces per size. It is safe for concurrent use; the font watcher loads into it
// from its own goroutine. The faces it hands out are shared and not safe for
// concurrent drawing, so everything drawing with one library stays on one
// goroutine.
type FontLibrary struct {
	mu    sync.RWMutex
	fonts map[fontKey]*opentype.Font
	faces map[faceKey]font.Face

	builtinOnce sync.Once
	regular     *truetype.Font
	bold        *truetype.Font
	builtinErr  error
}

// builtinFamily keys the built-in faces in the face cache. Loaded fonts
// always carry a non-empty family.
const builtinFamily = ""

type fontKey struct {
	family string // lower-cased
	weight int
}

type faceKey struct {
	fontKey
	px int // 1/64 px
}

func NewFontLibrary() *FontLibrary {
	return &FontLibrary{fonts: make(map[fontKey]*opentype.Font), faces: make(map[faceKey]font.Face)}
}

// LoadTTF loads a font file into the library under the given family/weight.
func (fl *FontLibrary) LoadTTF(family string, weight int, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	return fl.LoadBytes(family, weight, data)
}

// LoadBytes parses an OpenType/TrueType font. An empty family is taken from
// the font's name table.
func (fl *FontLibrary) LoadBytes(family string, weight int, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font: %w", err)
	}
	if family == "" {
		family = familyName(f)
	}
	if family == "" {
		return fmt.Errorf("parse font: no family name")
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*opentype.Font)
	}
	k := fontKey{family: strings.ToLower(family), weight: weight}
	fl.fonts[k] = f
	// drop stale faces for this family
	for fk := range fl.faces {
		if fk.fontKey.family == k.family {
			delete(fl.faces, fk)
		}
	}
	return nil
}

// IsFontFile reports whether path has a loadable font extension.
func IsFontFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttf", ".otf":
		return true
	}
	return false
}

// LoadFile loads one font file, deriving the family from the name table and
// the weight from the file name ("Amiri-Bold.ttf" is 700).
func (fl *FontLibrary) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	if err := fl.LoadBytes("", weightFromName(path), data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadDir loads every .ttf/.otf file in dir (not recursive). It returns the
// number of fonts loaded; unreadable files are skipped and reported in err.
func (fl *FontLibrary) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read fonts dir: %w", err)
	}
	var n int
	var firstErr error
	for _, e := range entries {
		if e.IsDir() || !IsFontFile(e.Name()) {
			continue
		}
		if err := fl.LoadFile(filepath.Join(dir, e.Name())); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		n++
	}
	return n, firstErr
}

// Probe reports whether family is loaded in any weight.
func (fl *FontLibrary) Probe(family string) bool {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	return fl.findLocked(family, 400) != nil
}

// Families lists loaded family names (lower-cased), sorted.
func (fl *FontLibrary) Families() []string {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for k := range fl.fonts {
		if !seen[k.family] {
			seen[k.family] = true
			out = append(out, k.family)
		}
	}
	sort.Strings(out)
	return out
}

// Resolve walks the fallback chain and reports which family served spec.
// An empty family means the built-in face was used.
func (fl *FontLibrary) Resolve(spec FontSpec) (font.Face, string) {
	if spec.SizePx <= 0 {
		spec.SizePx = 16
	}
	if spec.Weight == 0 {
		spec.Weight = 400
	}
	px := int(math.Round(spec.SizePx * 64))
	for _, fam := range FallbackChain(spec.Family) {
		if face, ok := fl.cachedFace(fam, spec.Weight, px); ok {
			return face, fam
		}
	}
	return fl.builtinFace(spec), ""
}

// Face implements Provider.
func (fl *FontLibrary) Face(spec FontSpec) font.Face {
	f, _ := fl.Resolve(spec)
	return f
}

func (fl *FontLibrary) cachedFace(family string, weight, px int) (font.Face, bool) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	f := fl.findLocked(family, weight)
	if f == nil {
		return nil, false
	}
	k := faceKey{fontKey{family: strings.ToLower(family), weight: weight}, px}
	if face, ok := fl.faces[k]; ok {
		return face, true
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: float64(px) / 64, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil, false
	}
	if fl.faces == nil {
		fl.faces = make(map[faceKey]font.Face)
	}
	fl.faces[k] = face
	return face, true
}

// findLocked returns the exact weight or else the nearest loaded weight of family.
func (fl *FontLibrary) findLocked(family string, weight int) *opentype.Font {
	fam := strings.ToLower(family)
	if f, ok := fl.fonts[fontKey{family: fam, weight: weight}]; ok {
		return f
	}
	var best *opentype.Font
	bestD := math.MaxInt
	for k, f := range fl.fonts {
		if k.family != fam {
			continue
		}
		d := k.weight - weight
		if d < 0 {
			d = -d
		}
		if d < bestD {
			best, bestD = f, d
		}
	}
	return best
}

// builtinFace is the last resort: the Go fonts, parsed with freetype.
func (fl *FontLibrary) builtinFace(spec FontSpec) font.Face {
	fl.builtinOnce.Do(func() {
		fl.regular, fl.builtinErr = truetype.Parse(goregular.TTF)
		if fl.builtinErr == nil {
			fl.bold, fl.builtinErr = truetype.Parse(gobold.TTF)
		}
	})
	if fl.builtinErr != nil {
		return FixedFace{Px: spec.SizePx}
	}
	f, weight := fl.regular, 400
	if spec.Weight >= 600 {
		f, weight = fl.bold, 700
	}
	px := int(math.Round(spec.SizePx * 64))
	k := faceKey{fontKey{family: builtinFamily, weight: weight}, px}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if face, ok := fl.faces[k]; ok {
		return face
	}
	face := truetype.NewFace(f, &truetype.Options{Size: float64(px) / 64, DPI: 72, Hinting: font.HintingNone})
	if fl.faces == nil {
		fl.faces = make(map[faceKey]font.Face)
	}
	fl.faces[k] = face
	return face
}

func familyName(f *opentype.Font) string {
	var buf sfnt.Buffer
	for _, id := range []sfnt.NameID{sfnt.NameIDTypographicFamily, sfnt.NameIDFamily} {
		if s, err := f.Name(&buf, id); err == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

var weightSuffixes = []struct {
	suffix string
	weight int
}{
	{"extrabold", 800}, {"semibold", 600}, {"extralight", 200},
	{"black", 900}, {"bold", 700}, {"medium", 500}, {"light", 300}, {"thin", 100},
}

func weightFromName(path string) int {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	if i := strings.LastIndexAny(base, "-_ "); i >= 0 {
		style := base[i+1:]
		for _, ws := range weightSuffixes {
			if style == ws.suffix {
				return ws.weight
			}
		}
	}
	return 400
}
