// Copyright 2025 Tom Barlow
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

package acl

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce is how long Watch waits after the last filesystem event before
// reloading, so that editors which write-then-rename (producing several
// events per save) only trigger one reload.
const debounce = 250 * time.Millisecond

// Watch reloads the ACL file at path whenever it changes on disk, until ctx
// is cancelled. It watches the file's parent directory rather than the file
// itself, since editors commonly replace a file via rename rather than
// writing it in place, which an inode-based watch on the file would miss.
//
// ACL changes take effect without a restart, since operators routinely
// need to revoke a user's tool access immediately.
func (l *List) Watch(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()

		var timer *time.Timer
		reload := func() {
			if err := l.Load(path); err != nil {
				l.logger.Error("acl reload failed", "path", path, "error", err)
			}
		}

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounce, reload)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.logger.Warn("acl watcher error", "error", err)
			}
		}
	}()

	return nil
}
