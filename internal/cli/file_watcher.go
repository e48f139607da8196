// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/MKhiriev/go-doc-sync/models"
)

// fileWatcher turns writes to one edit file into document edits. The parent
// directory is watched so editors that save by rename are seen too.
type fileWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	errors  chan error
	last    []byte
}

func newFileWatcher(path string) (*fileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err = w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &fileWatcher{watcher: w, path: abs, errors: make(chan error, 10)}, nil
}

// Errors carries unreadable or unparsable file contents. Sends are dropped
// when nobody listens.
func (fw *fileWatcher) Errors() <-chan error {
	return fw.errors
}

// Run emits an edit for every write that changes the file. The returned
// channel is closed when ctx is done or the watcher is closed.
func (fw *fileWatcher) Run(ctx context.Context) <-chan models.DocumentEdit {
	edits := make(chan models.DocumentEdit)

	go func() {
		defer close(edits)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fw.watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != fw.path || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				edit, changed, err := fw.read()
				if err != nil {
					fw.report(err)
					continue
				}
				if !changed {
					continue
				}
				select {
				case edits <- edit:
				case <-ctx.Done():
					return
				}
			case err, ok := <-fw.watcher.Errors:
				if !ok {
					return
				}
				fw.report(err)
			}
		}
	}()

	return edits
}

func (fw *fileWatcher) read() (models.DocumentEdit, bool, error) {
	data, err := os.ReadFile(fw.path)
	if err != nil {
		return models.DocumentEdit{}, false, fmt.Errorf("read edit file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(data, fw.last) {
		return models.DocumentEdit{}, false, nil
	}

	edit, err := parseEdit(data)
	if err != nil {
		return models.DocumentEdit{}, false, err
	}
	fw.last = data
	return edit, true, nil
}

func (fw *fileWatcher) report(err error) {
	select {
	case fw.errors <- err:
	default:
	}
}

func (fw *fileWatcher) Close() error {
	return fw.watcher.Close()
}
