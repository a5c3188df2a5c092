package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveBotID writes the newly created bot id back into the config file at
// path, preserving every other key the operator put there. The write is
// durable: the file is fsynced before being renamed into place, so a crash
// right after bot creation cannot lose the id and trigger a duplicate bot on
// the next start.
func SaveBotID(path, botID string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config for bot id write-back: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse config for bot id write-back: %w", err)
	}
	doc["bot_id"] = botID

	return WriteJSONFile(path, doc)
}

// WriteJSONFile atomically replaces path with the indented JSON encoding of
// v: write to a temp file in the same directory, fsync, then rename.
func WriteJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after successful rename

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
