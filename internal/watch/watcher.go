// Package watch monitors directories for new or modified workbooks and hands
// each one to a handler, one file at a time.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/klytics/sheetsplit/internal/split"
)

// DefaultDebounce is used when WatchConfig.Debounce is not positive.
const DefaultDebounce = 500

// WatchConfig holds the complete watcher configuration. The split settings
// are not interpreted by the watcher; they are saved alongside the
// directories so that status and config commands can report them.
type WatchConfig struct {
	Directories []string `yaml:"directories" json:"directories"`
	Recursive   bool     `yaml:"recursive" json:"recursive"`
	// Pattern is an optional glob matched against the file's base name.
	Pattern  string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Debounce int    `yaml:"debounce_ms" json:"debounceMs"`

	Column       int    `yaml:"column" json:"column"`
	Sheet        string `yaml:"sheet,omitempty" json:"sheet,omitempty"`
	Disambiguate bool   `yaml:"disambiguate" json:"disambiguate"`
	StartedAt    string `yaml:"started_at,omitempty" json:"startedAt,omitempty"`
}

// Event represents a file event that was detected and processed.
type Event struct {
	Time      time.Time `json:"time"`
	Path      string    `json:"path"`
	Operation string    `json:"operation"`
	Status    string    `json:"status"` // "processed", "error", "skipped"
	Error     string    `json:"error,omitempty"`
}

// Handler processes one workbook. Calls are serialized.
type Handler func(ctx context.Context, path string) error

// Status represents the current watcher status.
type Status struct {
	Running     bool     `json:"running"`
	Directories []string `json:"directories"`
	EventCount  int      `json:"eventCount"`
	Processed   int      `json:"processed"`
	Failed      int      `json:"failed"`
}

// Watcher monitors directories for workbook changes and triggers the handler.
type Watcher struct {
	Config  WatchConfig
	Logger  *zap.Logger
	Handler Handler

	mu       sync.Mutex
	events   []Event
	debounce map[string]*time.Timer
	closed   bool
	pending  sync.WaitGroup

	// run serializes handler calls.
	run sync.Mutex

	watcher *fsnotify.Watcher
}

// New creates a new Watcher with the given configuration.
func New(config WatchConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}

	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}

	return &Watcher{
		Config:   config,
		Logger:   zap.NewNop(),
		watcher:  fsw,
		debounce: make(map[string]*time.Timer),
	}, nil
}

// Start begins watching the configured directories. It blocks until the
// context is cancelled, then waits for any scheduled or running handler call
// to finish before returning.
func (w *Watcher) Start(ctx context.Context) error {
	defer w.shutdown()

	for _, dir := range w.Config.Directories {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("could not resolve %s: %w", dir, err)
		}

		if w.Config.Recursive {
			if err := w.addRecursive(absDir); err != nil {
				return err
			}
		} else {
			if err := w.watcher.Add(absDir); err != nil {
				return fmt.Errorf("could not watch %s: %w", absDir, err)
			}
		}
	}

	w.Logger.Info("watching directories",
		zap.Strings("directories", w.Config.Directories),
		zap.Bool("recursive", w.Config.Recursive))

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("stopping watcher")
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn("watch error", zap.Error(err))
		}
	}
}

// Close releases the underlying file watcher without starting it.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) shutdown() {
	w.mu.Lock()
	w.closed = true
	for path, timer := range w.debounce {
		if timer.Stop() {
			w.pending.Done()
		}
		delete(w.debounce, path)
	}
	w.mu.Unlock()

	w.pending.Wait()
	w.watcher.Close()
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			return nil
		}
		if path != dir && skipDir(filepath.Base(path)) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == split.ArchiveFolder
}

// Eligible reports whether path names a workbook the watcher should split:
// an .xlsx file that is not an Office lock file and not inside a staging folder.
func Eligible(path, pattern string) bool {
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return false
	}

	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".~") {
		return false
	}

	for _, part := range strings.Split(filepath.ToSlash(filepath.Dir(path)), "/") {
		if part == split.ArchiveFolder {
			return false
		}
	}

	if pattern != "" {
		if matched, _ := filepath.Match(pattern, base); !matched {
			return false
		}
	}
	return true
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if w.Config.Recursive && event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !skipDir(filepath.Base(event.Name)) {
			if err := w.watcher.Add(event.Name); err != nil {
				w.Logger.Warn("could not watch new directory", zap.String("path", event.Name), zap.Error(err))
			}
			return
		}
	}

	// Only process create and write events
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	path := event.Name
	if !Eligible(path, w.Config.Pattern) {
		return
	}

	op := event.Op.String()

	// Debounce: restart the timer on every event for the same path.
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if timer, ok := w.debounce[path]; ok && timer.Stop() {
		w.pending.Done()
	}
	w.pending.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(time.Duration(w.Config.Debounce)*time.Millisecond, func() {
		defer w.pending.Done()

		w.mu.Lock()
		if w.debounce[path] == timer {
			delete(w.debounce, path)
		}
		w.mu.Unlock()

		w.processFile(ctx, path, op)
	})
	w.debounce[path] = timer
}

func (w *Watcher) processFile(ctx context.Context, path, operation string) {
	w.run.Lock()
	defer w.run.Unlock()

	evt := Event{
		Time:      time.Now(),
		Path:      path,
		Operation: operation,
	}

	switch {
	case ctx.Err() != nil:
		evt.Status = "skipped"
	case w.Handler == nil:
		evt.Status = "skipped"
		w.Logger.Info("matched file (no handler)", zap.String("path", path))
	default:
		if _, err := os.Stat(path); err != nil {
			// Removed or renamed before the debounce expired.
			evt.Status = "skipped"
			break
		}
		if err := w.Handler(ctx, path); err != nil {
			evt.Status = "error"
			evt.Error = err.Error()
			w.Logger.Error("could not process file", zap.String("path", path), zap.Error(err))
		} else {
			evt.Status = "processed"
			w.Logger.Info("processed file", zap.String("path", path))
		}
	}

	w.mu.Lock()
	w.events = append(w.events, evt)
	w.mu.Unlock()
}

// GetStatus returns the current watcher status.
func (w *Watcher) GetStatus() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := Status{
		Running:     !w.closed,
		Directories: w.Config.Directories,
		EventCount:  len(w.events),
	}
	for _, e := range w.events {
		switch e.Status {
		case "processed":
			s.Processed++
		case "error":
			s.Failed++
		}
	}
	return s
}

// GetEvents returns all recorded events.
func (w *Watcher) GetEvents() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	events := make([]Event, len(w.events))
	copy(events, w.events)
	return events
}
