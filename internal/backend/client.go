/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package backend is the client side of the card render service.
package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// PNGDataURLPrefix is prepended to the encoded card image.
const PNGDataURLPrefix = "data:image/png;base64,"

// maxErrorBody caps how much of an error response is read for the message.
const maxErrorBody = 64 << 10

// Client talks to the render service. It never retries.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a client for baseURL (a trailing slash is trimmed).
// A zero timeout leaves deadlines to the caller's context.
func NewClient(baseURL string, token string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// ServiceError is a non-2xx answer from the service. Message is the service's
// own error text when it sent one.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("render service: %s", http.StatusText(e.Status))
	}
	return fmt.Sprintf("render service: %s", e.Message)
}

// PDFRequest is the body of POST /export_pdf. Width and height are in
// millimetres.
type PDFRequest struct {
	CanvasData string  `json:"canvas_data"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	DPI        int     `json:"dpi"`
}

// NewPDFRequest wraps an encoded PNG into a request.
func NewPDFRequest(png []byte, widthMM, heightMM float64, dpi int) PDFRequest {
	return PDFRequest{
		CanvasData: PNGDataURLPrefix + base64.StdEncoding.EncodeToString(png),
		Width:      widthMM,
		Height:     heightMM,
		DPI:        dpi,
	}
}

// Document is a rendered file returned by the service.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return nil, err
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, serviceError(resp)
	}
	return resp, nil
}

// serviceError extracts {"error": "..."} from the body, falling back to the
// raw text.
func serviceError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var env struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &env) == nil && env.Error != "" {
		msg = env.Error
	}
	return &ServiceError{Status: resp.StatusCode, Message: msg}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// RenderPDF submits the card image and returns the generated PDF.
func (c *Client) RenderPDF(ctx context.Context, r PDFRequest) (*Document, error) {
	resp, err := c.do(ctx, http.MethodPost, "/export_pdf", r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	doc := &Document{ContentType: resp.Header.Get("Content-Type"), Body: body}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		doc.Filename = params["filename"]
	}
	if doc.Filename == "" {
		doc.Filename = PDFFilename(r.Width, r.Height, r.DPI)
	}
	return doc, nil
}

// Fonts lists the families the service can render.
func (c *Client) Fonts(ctx context.Context) ([]string, error) {
	var list []string
	if err := c.doJSON(ctx, http.MethodGet, "/fonts", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// PDFFilename is the download name for a card document.
func PDFFilename(widthMM, heightMM float64, dpi int) string {
	return fmt.Sprintf("urdu-card-%sx%smm-%ddpi.pdf", FormatMM(widthMM), FormatMM(heightMM), dpi)
}

// FormatMM prints a dimension in its shortest form (100, 85.6).
func FormatMM(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// IsServiceError reports whether err came back from the service with a status.
func IsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	ok := errors.As(err, &se)
	return se, ok
}
