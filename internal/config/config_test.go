/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zalando/go-keyring"
)

type memStore struct{ m map[string]string }

func (s *memStore) Get(service, key string) (string, error) {
	v, ok := s.m[service+"/"+key]
	if !ok {
		return "", keyring.ErrNotFound
	}
	return v, nil
}
func (s *memStore) Set(service, key, value string) error {
	s.m[service+"/"+key] = value
	return nil
}
func (s *memStore) Delete(service, key string) error {
	if _, ok := s.m[service+"/"+key]; !ok {
		return keyring.ErrNotFound
	}
	delete(s.m, service+"/"+key)
	return nil
}

// isolate points the config at a temp file and stubs the keychain.
func isolate(t *testing.T) (string, *memStore) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, path)
	st := &memStore{m: map[string]string{}}
	prev := SetTokenStore(st)
	t.Cleanup(func() { SetTokenStore(prev) })
	return path, st
}

func TestDefaultsMatchCardEditor(t *testing.T) {
	d := Defaults()
	if d.Card.DisplayDPI != 600 || d.Card.ExportDPI != 1200 {
		t.Fatalf("dpi defaults = %v/%v", d.Card.DisplayDPI, d.Card.ExportDPI)
	}
	if d.Card.FitWidth != 600 || d.Card.FitHeight != 400 {
		t.Fatalf("fit box = %vx%v", d.Card.FitWidth, d.Card.FitHeight)
	}
	if d.Editor.HistoryLimit != 50 || d.Editor.InsertText != DefaultInsertText || !d.Editor.StartInInsertMode {
		t.Fatalf("editor defaults = %#v", d.Editor)
	}
	if d.Backend.Timeout() != 0 {
		t.Fatalf("default backend timeout should be zero, got %v", d.Backend.Timeout())
	}
}

func TestEnvOverridesBackendURL(t *testing.T) {
	isolate(t)
	t.Setenv(EnvBackendURL, "https://example.test:8443")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Backend.BaseURL, "https://example.test:8443"; got != want {
		t.Fatalf("Backend.BaseURL = %q, want %q", got, want)
	}
	if env, ok := EnvOverrideFor("backend.base_url"); !ok || env != EnvBackendURL {
		t.Fatalf("EnvOverrideFor = %q,%v", env, ok)
	}
	if _, ok := EnvOverrideFor("logging.level"); ok {
		t.Fatalf("logging.level should not be reported as overridden")
	}
}

func TestEnvOverridesCardAndTelemetry(t *testing.T) {
	isolate(t)
	t.Setenv(EnvTelemetryOptIn, "yes")
	t.Setenv(EnvCardWidthMM, "150")
	t.Setenv(EnvCardHeightMM, "-3")
	t.Setenv(EnvHistoryLimit, "10")
	t.Setenv(EnvBackendTimeoutMs, "2500")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.General.TelemetryOptIn {
		t.Fatalf("General.TelemetryOptIn expected true from env override")
	}
	if cfg.Card.WidthMM != 150 || cfg.Card.HeightMM != 70 {
		t.Fatalf("card size = %vx%v, want 150x70", cfg.Card.WidthMM, cfg.Card.HeightMM)
	}
	if cfg.Editor.HistoryLimit != 10 {
		t.Fatalf("HistoryLimit = %d", cfg.Editor.HistoryLimit)
	}
	if cfg.Backend.Timeout() != 2500*time.Millisecond {
		t.Fatalf("Timeout = %v", cfg.Backend.Timeout())
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "DEBUG"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "/tmp/uce.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/uce.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestMergeKeepsDefaultsForZeroFields(t *testing.T) {
	dst := Defaults()
	var src AppConfig
	src.Card.Background = "#fafafa"
	src.Editor.StartInInsertMode = false
	mergeInto(&dst, &src)
	if dst.Card.WidthMM != 100 || dst.Card.ExportDPI != 1200 || dst.Editor.HistoryLimit != 50 {
		t.Fatalf("zero fields overwrote defaults: %#v", dst)
	}
	if dst.Card.Background != "#fafafa" {
		t.Fatalf("background = %q", dst.Card.Background)
	}
	if dst.Editor.StartInInsertMode {
		t.Fatalf("file preference for insert mode not honored")
	}
}

func TestSaveLoadRoundTripWithToken(t *testing.T) {
	path, st := isolate(t)
	cfg := Defaults()
	cfg.Card.WidthMM = 89
	cfg.Card.HeightMM = 51
	cfg.Server.Addr = ":9000"
	if err := Save(cfg, "s3cret"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	got, tok, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Card.WidthMM != 89 || got.Card.HeightMM != 51 || got.Server.Addr != ":9000" {
		t.Fatalf("round trip mismatch: %#v", got.Card)
	}
	if tok != "s3cret" {
		t.Fatalf("token = %q", tok)
	}
	if err := ClearToken(); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	if len(st.m) != 0 {
		t.Fatalf("token not removed: %v", st.m)
	}
	if err := ClearToken(); err != nil {
		t.Fatalf("ClearToken on missing token: %v", err)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "/var/tmp/uce.log")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "/var/tmp/uce.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}
