/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/syedzohaibshah/urdu-card-generator/internal/backend"
	"github.com/syedzohaibshah/urdu-card-generator/internal/config"
	"github.com/syedzohaibshah/urdu-card-generator/internal/crash"
	"github.com/syedzohaibshah/urdu-card-generator/internal/editor"
	"github.com/syedzohaibshah/urdu-card-generator/internal/export"
	"github.com/syedzohaibshah/urdu-card-generator/internal/fontpack"
	applog "github.com/syedzohaibshah/urdu-card-generator/internal/log"
	"github.com/syedzohaibshah/urdu-card-generator/internal/render"
	"github.com/syedzohaibshah/urdu-card-generator/internal/server"
	"github.com/syedzohaibshah/urdu-card-generator/internal/storage"
	"github.com/syedzohaibshah/urdu-card-generator/internal/telemetry"
	"github.com/syedzohaibshah/urdu-card-generator/internal/textlayout"
	"github.com/syedzohaibshah/urdu-card-generator/internal/ui"
	"github.com/syedzohaibshah/urdu-card-generator/internal/version"
)

func usage() {
	fmt.Println("Urdu Card Editor")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  urducard version|-v|--version          Show version")
	fmt.Println("  urducard serve [addr]                   Run the PDF render service (default :5002)")
	fmt.Println("  urducard demo [outDir] [--pdf] [--local] Export the demo card as JPEG (and PDF)")
	fmt.Println("  urducard fonts list|export <zip>|install <zip> [dir]  Manage the fonts directory")
	fmt.Println("  urducard ui                             Launch desktop UI (build with -tags fyne for full UI)")
}

func main() {
	os.Exit(run(os.Args))
}

// run executes one command and returns the process exit code: 0 on success,
// 1 on failure, 2 on bad usage. Deferred flushes run before main exits.
func run(args []string) int {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	defer crash.Recover("")

	if len(args) < 2 {
		usage()
		return 0
	}
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println(version.String())
		return 0
	case "help", "-h", "--help":
		usage()
		return 0
	}

	cfg, token, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
	}
	applog.Init(logOptions(cfg))
	l = applog.WithComponent("cli")
	tc := telemetry.New(telemetry.FromEnv().WithOptIn(cfg.General.TelemetryOptIn))
	telemetry.SetDefault(tc)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		tc.Flush(ctx)
		tc.Close()
	}()
	l.Debug("start", slog.String("cmd", args[1]), slog.Int("args", len(args)))

	switch args[1] {
	case "serve":
		if len(args) > 2 {
			cfg.Server.Addr = args[2]
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return exitCode(runServe(ctx, cfg, token))
	case "demo":
		opts, err := parseDemoArgs(args[2:])
		if err != nil {
			fmt.Println(err)
			usage()
			return 2
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		files, err := runDemo(ctx, cfg, token, opts)
		for _, f := range files {
			fmt.Println("Wrote", f)
		}
		return exitCode(err)
	case "fonts":
		return exitCode(runFonts(cfg, args[2:]))
	case "ui":
		return exitCode(ui.Run(ui.Options{Config: cfg, Token: token}))
	}
	fmt.Println("unknown command:", args[1])
	usage()
	return 2
}

// exitCode prints err and maps it to an exit code.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	fmt.Println("Error:", err)
	if errors.Is(err, errUsage) {
		usage()
		return 2
	}
	return 1
}

func logOptions(cfg config.AppConfig) applog.Options {
	return applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	}
}

func runServe(ctx context.Context, cfg config.AppConfig, token string) error {
	path := cfg.Server.JournalPath
	if path == "" {
		path = storage.DefaultJournalPath()
	}
	j, err := storage.OpenJournal(path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	srv, err := server.New(server.Config{
		Addr:     cfg.Server.Addr,
		FontsDir: cfg.Server.FontsDir,
		Token:    token,
		Journal:  j,
	})
	if err != nil {
		return err
	}
	telemetry.Event(telemetry.EventServeStarted, map[string]any{"auth": token != ""})
	return srv.ListenAndServe(ctx)
}

type demoOptions struct {
	OutDir string
	PDF    bool
	// Local writes the PDF in-process instead of calling the render service.
	Local bool
}

func parseDemoArgs(args []string) (demoOptions, error) {
	opts := demoOptions{OutDir: "."}
	seenDir := false
	for _, a := range args {
		switch {
		case a == "--pdf":
			opts.PDF = true
		case a == "--local":
			opts.PDF, opts.Local = true, true
		case strings.HasPrefix(a, "-"):
			return opts, fmt.Errorf("demo: unknown flag %s", a)
		case seenDir:
			return opts, errors.New("demo: only one output directory")
		default:
			opts.OutDir, seenDir = a, true
		}
	}
	return opts, nil
}

// runDemo builds the demo card headlessly and writes its exports into
// opts.OutDir. It returns the written paths.
func runDemo(ctx context.Context, cfg config.AppConfig, token string, opts demoOptions) ([]string, error) {
	l := applog.WithOperation(applog.WithComponent("cli"), "demo")
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, err
	}

	fonts := textlayout.NewFontLibrary()
	if dir := cfg.Editor.FontsDir; dir != "" {
		if n, err := fonts.LoadDir(dir); err != nil {
			l.Debug("no fonts loaded", slog.String("dir", dir), slog.Any("err", err))
		} else {
			l.Info("fonts loaded", slog.Int("count", n))
		}
	}
	edOpts := editor.OptionsFromConfig(cfg)
	edOpts.Fonts = fonts
	edOpts.Surfaces = render.GGFactory(fonts)
	edOpts.ExportSurfaces = edOpts.Surfaces
	edOpts.Events = telemetry.Default()
	if opts.PDF && !opts.Local {
		edOpts.Backend = backend.NewClient(cfg.Backend.BaseURL, token, cfg.Backend.Timeout())
	}
	ed, err := editor.New(edOpts, editor.NopPort{})
	if err != nil {
		return nil, err
	}

	var written []string
	var buf bytes.Buffer
	res, err := ed.ExportRaster(export.FormatJPEG, &buf)
	if err != nil {
		return nil, err
	}
	p := filepath.Join(opts.OutDir, res.Filename)
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		return nil, err
	}
	written = append(written, p)

	if !opts.PDF {
		return written, nil
	}
	buf.Reset()
	name, err := demoPDF(ctx, ed, edOpts.ExportSurfaces, cfg.Card.ExportDPI, opts.Local, &buf)
	if err != nil {
		return written, err
	}
	p = filepath.Join(opts.OutDir, name)
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		return written, err
	}
	return append(written, p), nil
}

func demoPDF(ctx context.Context, ed *editor.Editor, surfaces render.Factory, dpi float64, local bool, buf *bytes.Buffer) (string, error) {
	card := ed.Card()
	if !local {
		res, err := ed.ExportDocument(ctx, buf)
		if err != nil {
			return "", err
		}
		return res.Filename, nil
	}
	if dpi <= 0 {
		dpi = export.DefaultDPI
	}
	img, err := export.RenderCard(surfaces, card, dpi)
	if err != nil {
		return "", err
	}
	if err := export.WritePDF(buf, img, card.WidthMM, card.HeightMM); err != nil {
		return "", err
	}
	return backend.PDFFilename(card.WidthMM, card.HeightMM, int(dpi)), nil
}

var errUsage = errors.New("bad arguments")

func runFonts(cfg config.AppConfig, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("fonts: missing subcommand: %w", errUsage)
	}
	dir := cfg.Editor.FontsDir
	switch args[0] {
	case "list":
		if len(args) > 1 {
			dir = args[1]
		}
		fl := textlayout.NewFontLibrary()
		n, err := fl.LoadDir(dir)
		if err != nil {
			return err
		}
		fmt.Printf("%d font files in %s\n", n, dir)
		for _, fam := range fl.Families() {
			fmt.Println(" ", fam)
		}
		return nil
	case "export", "install":
		if len(args) < 2 {
			return fmt.Errorf("fonts %s requires <zip>: %w", args[0], errUsage)
		}
		if len(args) > 2 {
			dir = args[2]
		}
		if args[0] == "export" {
			n, err := fontpack.Export(dir, args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Packed %d fonts into %s\n", n, args[1])
			return nil
		}
		n, err := fontpack.Install(dir, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Installed %d fonts into %s\n", n, dir)
		return nil
	}
	return fmt.Errorf("fonts: unknown subcommand %q: %w", args[0], errUsage)
}
