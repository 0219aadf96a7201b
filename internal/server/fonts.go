/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	applog "github.com/syedzohaibshah/urdu-card-generator/internal/log"
	"github.com/syedzohaibshah/urdu-card-generator/internal/textlayout"
)

// FontNames returns DefaultFonts followed by the base names of the font
// files in dir, without duplicates. A missing dir lists only the defaults.
func FontNames(dir string) []string {
	out := append([]string(nil), DefaultFonts...)
	seen := make(map[string]bool, len(out))
	for _, f := range out {
		seen[f] = true
	}
	if dir == "" {
		return out
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			applog.WithComponent("server").Warn("read fonts dir failed", slog.String("dir", dir), slog.Any("err", err))
		}
		return out
	}
	for _, e := range entries {
		if e.IsDir() || !textlayout.IsFontFile(e.Name()) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

func (s *Server) handleFonts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, FontNames(s.cfg.FontsDir))
}
