package calendar

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// FileStorage persists the event document as a single JSON file and reports
// writes made by other processes via filesystem notifications. It watches
// the parent directory rather than the file itself so atomic replace-by-
// rename writers are still observed.
type FileStorage struct {
	Path string
}

// NewFileStorage returns storage rooted at path, creating parent
// directories as needed.
func NewFileStorage(path string) (*FileStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create calendar dir: %w", err)
	}
	return &FileStorage{Path: path}, nil
}

// Read returns the document, or nil when no document exists yet.
func (f *FileStorage) Read() ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar file: %w", err)
	}
	return data, nil
}

// Write replaces the document in full.
func (f *FileStorage) Write(data []byte) error {
	if err := os.WriteFile(f.Path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write calendar file: %w", err)
	}
	return nil
}

// Watch invokes onChange whenever the document is written, removed, or
// replaced. Notifications fire for this process's own writes too; receivers
// re-read in full, so the extra hydrate is harmless.
func (f *FileStorage) Watch(onChange func()) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(f.Path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch calendar dir: %w", err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != f.Path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
					onChange()
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
