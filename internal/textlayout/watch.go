/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	applog "github.com/syedzohaibshah/urdu-card-generator/internal/log"
)

// FontWatcher loads font files dropped into a directory while the app runs.
type FontWatcher struct {
	lib    *FontLibrary
	dir    string
	fsw    *fsnotify.Watcher
	onLoad func(path string)
	wg     sync.WaitGroup
}

// WatchDir starts watching dir. onLoad (optional) is called from the watcher
// goroutine after each successful load. The watcher stops when ctx is done or
// Close is called.
func (fl *FontLibrary) WatchDir(ctx context.Context, dir string, onLoad func(path string)) (*FontWatcher, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("fonts dir: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("font watcher: %w", err)
	}
	if err := fsw.Add(abs); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", abs, err)
	}
	w := &FontWatcher{lib: fl, dir: abs, fsw: fsw, onLoad: onLoad}
	w.wg.Add(1)
	go w.loop(ctx)
	return w, nil
}

// Close stops the watcher and waits for its goroutine.
func (w *FontWatcher) Close() error {
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *FontWatcher) loop(ctx context.Context) {
	defer w.wg.Done()
	l := applog.WithComponent("fonts").With(slog.String("dir", w.dir))
	for {
		select {
		case <-ctx.Done():
			_ = w.fsw.Close()
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !IsFontFile(ev.Name) {
				continue
			}
			// a file still being copied fails to parse; the next Write retries
			if err := w.lib.LoadFile(ev.Name); err != nil {
				l.Debug("font not loaded yet", slog.String("file", ev.Name), slog.Any("err", err))
				continue
			}
			l.Info("font loaded", slog.String("file", ev.Name))
			if w.onLoad != nil {
				w.onLoad(ev.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			l.Warn("font watcher error", slog.Any("err", err))
		}
	}
}
