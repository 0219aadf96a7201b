/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package fontpack moves font collections between machines as zip archives.
// Urdu faces are rarely installed system-wide, so a pack is the usual way to
// hand a fonts directory to the editor or the render service.
package fontpack

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	applog "github.com/syedzohaibshah/urdu-card-generator/internal/log"
	"github.com/syedzohaibshah/urdu-card-generator/internal/textlayout"
)

// ManifestName is the plain-text listing at the archive root.
const ManifestName = "fontpack.manifest.txt"

// maxFontBytes bounds a single extracted file.
const maxFontBytes = 64 << 20

// Export zips every font file directly under fontsDir into destZip and
// returns how many were added. Other files are ignored. An empty directory
// still yields an archive holding only the manifest.
func Export(fontsDir, destZip string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("fontpack"), "export").With(slog.String("dir", fontsDir))
	if strings.TrimSpace(fontsDir) == "" {
		return 0, errors.New("fontsDir is required")
	}
	if strings.TrimSpace(destZip) == "" {
		return 0, errors.New("destZip is required")
	}
	entries, err := os.ReadDir(fontsDir)
	if err != nil {
		return 0, fmt.Errorf("read fonts dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && textlayout.IsFontFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	if err := os.MkdirAll(filepath.Dir(destZip), 0o755); err != nil {
		return 0, fmt.Errorf("ensure zip dir: %w", err)
	}
	_ = os.Remove(destZip)
	zf, err := os.Create(destZip)
	if err != nil {
		return 0, fmt.Errorf("create zip: %w", err)
	}
	zw := zip.NewWriter(zf)

	manifest := fmt.Sprintf("Urdu Card Editor Font Pack\nCreated: %s\nFonts: %d\n\n%s\n",
		time.Now().Format(time.RFC3339), len(names), strings.Join(names, "\n"))
	if err := addBytes(zw, ManifestName, []byte(manifest)); err != nil {
		_ = zf.Close()
		return 0, fmt.Errorf("add manifest: %w", err)
	}
	for _, name := range names {
		if err := addFile(zw, name, filepath.Join(fontsDir, name)); err != nil {
			l.Error("zip build failed", slog.String("font", name), slog.Any("err", err))
			_ = zf.Close()
			return 0, fmt.Errorf("build zip: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		_ = zf.Close()
		return 0, fmt.Errorf("finish zip: %w", err)
	}
	if err := zf.Close(); err != nil {
		return 0, err
	}
	l.Info("font pack exported", slog.Int("fonts", len(names)), slog.String("zip", destZip))
	return len(names), nil
}

func addBytes(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func addFile(zw *zip.Writer, name, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

// Install extracts the font files of packZip into fontsDir. Archive folders
// are flattened. Existing files are kept and entries that do not parse as
// fonts are skipped. It returns the number of fonts written.
func Install(fontsDir, packZip string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("fontpack"), "install").With(slog.String("dir", fontsDir))
	if strings.TrimSpace(fontsDir) == "" {
		return 0, errors.New("fontsDir is required")
	}
	if strings.TrimSpace(packZip) == "" {
		return 0, errors.New("packZip is required")
	}
	if err := os.MkdirAll(fontsDir, 0o755); err != nil {
		return 0, fmt.Errorf("ensure fonts dir: %w", err)
	}
	r, err := zip.OpenReader(packZip)
	if err != nil {
		return 0, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	installed := 0
	for _, f := range r.File {
		base := path.Base(f.Name)
		if f.FileInfo().IsDir() || base == ManifestName || !textlayout.IsFontFile(base) {
			continue
		}
		target := filepath.Join(fontsDir, base)
		if _, err := os.Stat(target); err == nil {
			l.Warn("skip existing font", slog.String("path", target))
			continue
		}
		data, err := readEntry(f)
		if err != nil {
			return installed, fmt.Errorf("read %s: %w", f.Name, err)
		}
		if err := textlayout.NewFontLibrary().LoadBytes(base, 400, data); err != nil {
			l.Warn("skip unreadable font", slog.String("entry", f.Name), slog.Any("err", err))
			continue
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return installed, err
		}
		installed++
	}
	l.Info("font pack installed", slog.Int("fonts", installed))
	return installed, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxFontBytes {
		return nil, fmt.Errorf("entry larger than %d bytes", maxFontBytes)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(rc, maxFontBytes+1)); err != nil {
		return nil, err
	}
	if buf.Len() > maxFontBytes {
		return nil, fmt.Errorf("entry larger than %d bytes", maxFontBytes)
	}
	return buf.Bytes(), nil
}
