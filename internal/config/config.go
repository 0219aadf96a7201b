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
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

// CardConfig describes the physical card and the two render resolutions.
type CardConfig struct {
	WidthMM    float64 `yaml:"width_mm"`
	HeightMM   float64 `yaml:"height_mm"`
	Background string  `yaml:"background"`
	DisplayDPI float64 `yaml:"display_dpi"`
	ExportDPI  float64 `yaml:"export_dpi"`
	// FitWidth/FitHeight bound the on-screen canvas; the card is scaled down to fit.
	FitWidth  float64 `yaml:"fit_width"`
	FitHeight float64 `yaml:"fit_height"`
}

type EditorConfig struct {
	HistoryLimit      int    `yaml:"history_limit"`
	InsertText        string `yaml:"insert_text"`
	FontsDir          string `yaml:"fonts_dir"`
	StartInInsertMode bool   `yaml:"start_in_insert_mode"`
}

type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	// TimeoutMs of 0 leaves the request deadline to the caller's context.
	TimeoutMs int `yaml:"timeout_ms"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// JournalPath is a SQLite file or a postgres:// URL.
	JournalPath string `yaml:"journal_path"`
	FontsDir    string `yaml:"fonts_dir"`
}

type GeneralConfig struct {
	TelemetryOptIn bool `yaml:"telemetry_opt_in"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Card          CardConfig    `yaml:"card"`
	Editor        EditorConfig  `yaml:"editor"`
	Backend       BackendConfig `yaml:"backend"`
	Server        ServerConfig  `yaml:"server"`
	General       GeneralConfig `yaml:"general"`
	Logging       LoggingConfig `yaml:"logging"`
}

// DefaultInsertText is placed by insert-mode clicks and double clicks.
const DefaultInsertText = "نیا متن"

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Card: CardConfig{
			WidthMM: 100, HeightMM: 70, Background: "#ffffff",
			DisplayDPI: 600, ExportDPI: 1200,
			FitWidth: 600, FitHeight: 400,
		},
		Editor: EditorConfig{
			HistoryLimit:      50,
			InsertText:        DefaultInsertText,
			FontsDir:          "fonts",
			StartInInsertMode: true,
		},
		Backend: BackendConfig{BaseURL: "http://localhost:5002", TimeoutMs: 0},
		Server:  ServerConfig{Addr: ":5002", JournalPath: "", FontsDir: "fonts"},
		General: GeneralConfig{TelemetryOptIn: false},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath       = "UCE_CONFIG"
	EnvCardWidthMM      = "UCE_CARD_WIDTH_MM"
	EnvCardHeightMM     = "UCE_CARD_HEIGHT_MM"
	EnvExportDPI        = "UCE_EXPORT_DPI"
	EnvFontsDir         = "UCE_FONTS_DIR"
	EnvHistoryLimit     = "UCE_HISTORY_LIMIT"
	EnvBackendURL       = "UCE_BACKEND_URL"
	EnvBackendTimeoutMs = "UCE_BACKEND_TIMEOUT_MS"
	EnvServerAddr       = "UCE_SERVER_ADDR"
	EnvJournalPath      = "UCE_JOURNAL_PATH"
	EnvTelemetryOptIn   = "UCE_TELEMETRY_OPT_IN"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "UCE_LOG_LEVEL"
	EnvLogFormat = "UCE_LOG_FORMAT"
	EnvLogSource = "UCE_LOG_SOURCE"
	EnvLogFile   = "UCE_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "UrduCardEditor"
	keyringToken   = "render_service_token"
)

// tokenStore abstracts keyring, so we can stub in tests.
var tokenStore TokenStore = osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// SetTokenStore swaps the keychain backend and returns the previous one.
func SetTokenStore(ts TokenStore) TokenStore {
	prev := tokenStore
	tokenStore = ts
	return prev
}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error   { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error       { return keyring.Delete(service, key) }

// ConfigPath returns the per-user config file path. UCE_CONFIG wins when set.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "UrduCard")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "UrduCard")
	default:
		home := os.Getenv("HOME")
		if home == "" {
			return "", errors.New("cannot resolve config directory")
		}
		base = filepath.Join(home, ".config", "urducard")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads user config file (if present), applies defaults, and merges environment overrides.
// It also loads the render service token from keyring (returned separately).
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into OS keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return err
		}
	}
	return nil
}

// ClearToken removes the stored render service token.
func ClearToken() error {
	err := tokenStore.Delete(keyringService, keyringToken)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// card: zero means "not set in file"
	if src.Card.WidthMM > 0 {
		dst.Card.WidthMM = src.Card.WidthMM
	}
	if src.Card.HeightMM > 0 {
		dst.Card.HeightMM = src.Card.HeightMM
	}
	if s := strings.TrimSpace(src.Card.Background); s != "" {
		dst.Card.Background = s
	}
	if src.Card.DisplayDPI > 0 {
		dst.Card.DisplayDPI = src.Card.DisplayDPI
	}
	if src.Card.ExportDPI > 0 {
		dst.Card.ExportDPI = src.Card.ExportDPI
	}
	if src.Card.FitWidth > 0 {
		dst.Card.FitWidth = src.Card.FitWidth
	}
	if src.Card.FitHeight > 0 {
		dst.Card.FitHeight = src.Card.FitHeight
	}
	// editor
	if src.Editor.HistoryLimit > 0 {
		dst.Editor.HistoryLimit = src.Editor.HistoryLimit
	}
	if src.Editor.InsertText != "" {
		dst.Editor.InsertText = src.Editor.InsertText
	}
	if s := strings.TrimSpace(src.Editor.FontsDir); s != "" {
		dst.Editor.FontsDir = s
	}
	dst.Editor.StartInInsertMode = src.Editor.StartInInsertMode
	// backend
	if src.Backend.BaseURL != "" {
		dst.Backend.BaseURL = src.Backend.BaseURL
	}
	if src.Backend.TimeoutMs > 0 {
		dst.Backend.TimeoutMs = src.Backend.TimeoutMs
	}
	// server
	if s := strings.TrimSpace(src.Server.Addr); s != "" {
		dst.Server.Addr = s
	}
	if s := strings.TrimSpace(src.Server.JournalPath); s != "" {
		dst.Server.JournalPath = s
	}
	if s := strings.TrimSpace(src.Server.FontsDir); s != "" {
		dst.Server.FontsDir = s
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func positiveFloat(v string) (float64, bool) {
	f, err := strconv.ParseFloat(v, 64)
	return f, err == nil && f > 0
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvCardWidthMM)); v != "" {
		if f, ok := positiveFloat(v); ok {
			cfg.Card.WidthMM = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvCardHeightMM)); v != "" {
		if f, ok := positiveFloat(v); ok {
			cfg.Card.HeightMM = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportDPI)); v != "" {
		if f, ok := positiveFloat(v); ok {
			cfg.Card.ExportDPI = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvFontsDir)); v != "" {
		cfg.Editor.FontsDir = v
		cfg.Server.FontsDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryLimit)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Editor.HistoryLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvServerAddr)); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvJournalPath)); v != "" {
		cfg.Server.JournalPath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = truthy(v)
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"card.width_mm":            EnvCardWidthMM,
	"card.height_mm":           EnvCardHeightMM,
	"card.export_dpi":          EnvExportDPI,
	"editor.fonts_dir":         EnvFontsDir,
	"editor.history_limit":     EnvHistoryLimit,
	"backend.base_url":         EnvBackendURL,
	"backend.timeout_ms":       EnvBackendTimeoutMs,
	"server.addr":              EnvServerAddr,
	"server.journal_path":      EnvJournalPath,
	"general.telemetry_opt_in": EnvTelemetryOptIn,
	"logging.level":            EnvLogLevel,
	"logging.format":           EnvLogFormat,
	"logging.source":           EnvLogSource,
	"logging.file":             EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envKeys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// Timeout returns the configured request timeout; zero means none.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutMs <= 0 {
		return 0
	}
	return time.Duration(b.TimeoutMs) * time.Millisecond
}
