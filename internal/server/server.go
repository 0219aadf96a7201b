/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package server is the render service: it turns a rasterized card into a
// one-page PDF and lists the fonts it can offer.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	applog "github.com/syedzohaibshah/urdu-card-generator/internal/log"
	"github.com/syedzohaibshah/urdu-card-generator/internal/storage"
	"github.com/syedzohaibshah/urdu-card-generator/internal/version"
)

// DefaultFonts are always listed by /fonts.
var DefaultFonts = []string{
	"Noto Nastaliq Urdu",
	"Jameel Noori Nastaleeq",
	"Alvi Nastaleeq",
	"Nafees Web Naskh",
}

// Request defaults used when a field is missing.
const (
	DefaultWidthMM  = 100.0
	DefaultHeightMM = 70.0
	DefaultDPI      = 1200

	// DefaultMaxBody bounds the request body; a 1200 dpi PNG of a large card
	// is tens of megabytes once base64 encoded.
	DefaultMaxBody = 256 << 20
)

// Config configures the service.
type Config struct {
	Addr     string
	FontsDir string
	// Token, when set, is required as a bearer token on every API route.
	Token string
	// Journal, when set, records every export attempt.
	Journal *storage.Journal
	MaxBody int64
}

// Server holds the handlers' shared state.
type Server struct {
	cfg    Config
	schema *gojsonschema.Schema
	log    *slog.Logger
}

// New compiles the request schema and returns a ready server.
func New(cfg Config) (*Server, error) {
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = DefaultMaxBody
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(exportRequestSchema))
	if err != nil {
		return nil, fmt.Errorf("compile request schema: %w", err)
	}
	return &Server{cfg: cfg, schema: schema, log: applog.WithComponent("server")}, nil
}

// Handler returns the service routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(version.String()))
	})
	mux.HandleFunc("/export_pdf", s.withAuth(s.handleExportPDF))
	mux.HandleFunc("/fonts", s.withAuth(s.handleFonts))
	mux.HandleFunc("/exports", s.withAuth(s.handleExports))
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()
	s.log.Info("render service listening", slog.String("addr", ln.Addr().String()))
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-done
		return nil
	}
	return err
}

func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	if s.cfg.Token == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(strings.ToLower(auth), strings.ToLower(prefix)) {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}
		token := strings.TrimSpace(auth[len(prefix):])
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.Token)) != 1 {
			writeError(w, http.StatusUnauthorized, errors.New("invalid token"))
			return
		}
		next(w, r)
	}
}

// handleExports lists recent journal entries: GET /exports?limit=N.
func (s *Server) handleExports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.cfg.Journal == nil {
		writeError(w, http.StatusNotFound, errors.New("journal disabled"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.cfg.Journal.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	type item struct {
		ID        string    `json:"id"`
		CreatedAt time.Time `json:"created_at"`
		WidthMM   float64   `json:"width_mm"`
		HeightMM  float64   `json:"height_mm"`
		DPI       int       `json:"dpi"`
		Bytes     int64     `json:"bytes"`
		Status    string    `json:"status"`
		Error     string    `json:"error,omitempty"`
	}
	out := make([]item, 0, len(entries))
	for _, e := range entries {
		out = append(out, item{e.ID, e.CreatedAt, e.WidthMM, e.HeightMM, e.DPI, e.Bytes, e.Status, e.Error})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
