// (c) Copyright gosec's authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/securego/conform"
)

const debounce = 300 * time.Millisecond

// watch scans once, then again each time a Go file under the given paths
// changes, until ctx is done. Bursts of events within the debounce window
// collapse into one scan.
func watch(ctx context.Context, analyzer *conform.Analyzer, paths, rootPaths []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	excluded := conform.ExcludedDirsRegExp(flagDirsExclude)
	for _, root := range rootPaths {
		if err := addWatchRecursive(watcher, root, excluded); err != nil {
			return err
		}
	}

	rescan := func() {
		packages, err := listPackages(paths)
		if err != nil {
			logger.Printf("Listing packages failed: %v", err)
			return
		}
		if _, err := scan(ctx, analyzer, packages, rootPaths); err != nil {
			logger.Printf("Scan failed: %v", err)
		}
	}
	rescan()

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case <-fire:
			rescan()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addWatchRecursive(watcher, ev.Name, excluded); err != nil {
						logger.Printf("Watching %s failed: %v", ev.Name, err)
					}
					continue
				}
			}
			if !isGoSourceEvent(ev) {
				continue
			}
			logger.Printf("Change detected: %s", ev.Name)
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Printf("Watch error: %v", err)
		}
	}
}

// isGoSourceEvent reports whether ev changes the contents or the presence
// of a Go file. Attribute changes are ignored.
func isGoSourceEvent(ev fsnotify.Event) bool {
	if !strings.HasSuffix(ev.Name, ".go") {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) ||
		ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

func addWatchRecursive(w *fsnotify.Watcher, root string, excluded []*regexp.Regexp) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata") {
			return filepath.SkipDir
		}
		for _, re := range excluded {
			if re.MatchString(path) {
				return filepath.SkipDir
			}
		}
		return w.Add(path)
	})
}
