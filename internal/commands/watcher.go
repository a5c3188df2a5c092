package commands

import (
	"log/slog"
	"os"
	"time"
)

// PollInterval is how often the watcher checks the commands file for
// changes. Polling over filesystem notification is a deliberate choice:
// the file changes rarely and a five second delay is invisible to chat users.
const PollInterval = 5 * time.Second

// Watcher reloads the command table into the store when the backing file's
// modification time advances past the last successfully applied load. It is
// driven externally (by the scheduler) and does its file I/O outside any
// store lock.
type Watcher struct {
	path  string
	store *Store
	log   *slog.Logger

	lastApplied time.Time
	loaded      bool
}

// NewWatcher creates a watcher for the commands file at path.
func NewWatcher(path string, store *Store, log *slog.Logger) *Watcher {
	return &Watcher{
		path:  path,
		store: store,
		log:   log.With("component", "command_watcher"),
	}
}

// Check runs one poll tick: stat the file and reload if it changed since the
// last successful load (or if none has happened yet). All failures are
// logged and leave the previous table and timestamp in place, so a broken
// file is retried every tick until it is fixed. Check never panics and
// never returns an error; the watcher must not be able to stop the process.
func (w *Watcher) Check() {
	info, err := os.Stat(w.path)
	if err != nil {
		w.log.Error("Failed to stat commands file", "path", w.path, "error", err)
		return
	}

	modTime := info.ModTime()
	if w.loaded && !modTime.After(w.lastApplied) {
		return
	}

	table, err := LoadFile(w.path)
	if err != nil {
		// Keep lastApplied unchanged so the same file is retried next tick.
		w.log.Error("Failed to reload commands file", "path", w.path, "error", err)
		return
	}

	w.store.Swap(table)
	w.lastApplied = modTime
	w.loaded = true
	w.log.Info("Command table reloaded", "path", w.path, "commands", len(table))
}
