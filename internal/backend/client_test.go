/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRenderPDFSendsRequestAndReadsDocument(t *testing.T) {
	var got PDFRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/export_pdf" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", "attachment; filename=urdu-card-100x70mm-1200dpi.pdf")
		_, _ = w.Write([]byte("%PDF-1.3 fake"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "secret", 0)
	doc, err := c.RenderPDF(context.Background(), NewPDFRequest([]byte{1, 2, 3}, 100, 70, 1200))
	if err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}
	if auth != "Bearer secret" {
		t.Fatalf("auth header = %q", auth)
	}
	if !strings.HasPrefix(got.CanvasData, PNGDataURLPrefix) || got.Width != 100 || got.Height != 70 || got.DPI != 1200 {
		t.Fatalf("request = %+v", got)
	}
	raw, _ := base64.StdEncoding.DecodeString(strings.TrimPrefix(got.CanvasData, PNGDataURLPrefix))
	if len(raw) != 3 {
		t.Fatalf("payload not round-tripped: %v", raw)
	}
	if doc.Filename != "urdu-card-100x70mm-1200dpi.pdf" || doc.ContentType != "application/pdf" || string(doc.Body) != "%PDF-1.3 fake" {
		t.Fatalf("document = %+v", doc)
	}
}

func TestRenderPDFServiceErrorText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"No canvas data provided"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", 0).RenderPDF(context.Background(), PDFRequest{})
	se, ok := IsServiceError(err)
	if !ok || se.Status != http.StatusBadRequest || se.Message != "No canvas data provided" {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "No canvas data provided") {
		t.Fatalf("message not surfaced: %v", err)
	}
}

func TestServiceErrorRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", 0).Fonts(context.Background())
	se, ok := IsServiceError(err)
	if !ok || se.Message != "gateway down" {
		t.Fatalf("err = %v", err)
	}
}

func TestFontsAndFilenameFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fonts":
			_ = json.NewEncoder(w).Encode([]string{"Noto Nastaliq Urdu", "Amiri"})
		default:
			_, _ = w.Write([]byte("%PDF"))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	fonts, err := c.Fonts(context.Background())
	if err != nil || len(fonts) != 2 || fonts[1] != "Amiri" {
		t.Fatalf("Fonts = %v, %v", fonts, err)
	}
	doc, err := c.RenderPDF(context.Background(), PDFRequest{Width: 85.6, Height: 54, DPI: 600})
	if err != nil {
		t.Fatal(err)
	}
	if doc.Filename != "urdu-card-85.6x54mm-600dpi.pdf" {
		t.Fatalf("fallback filename = %q", doc.Filename)
	}
}

func TestTransportErrorIsNotServiceError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "", 200*time.Millisecond)
	_, err := c.Fonts(context.Background())
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if _, ok := IsServiceError(err); ok {
		t.Fatalf("transport errors carry no status")
	}
}
