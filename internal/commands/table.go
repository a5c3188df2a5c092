// Package commands owns the live command table: parsing the backing
// commands.json file, the thread-safe store the matcher reads from, the
// resolver that turns inbound messages into responses, and the watcher that
// hot-reloads the file while the bot is serving.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

var (
	// ErrNotFound indicates the commands file is absent.
	ErrNotFound = errors.New("commands file not found")
	// ErrParse indicates the commands file is not a valid command table.
	ErrParse = errors.New("commands file malformed")
)

// Line is one line of a command response. Only the responseLine1 field is
// read; the file format fixes that name.
type Line struct {
	Text string `json:"responseLine1"`
}

// Table maps a trigger string (exact, case-sensitive, including any leading
// symbol such as "!") to its raw response value. Values are kept undecoded
// so that one malformed entry cannot poison the rest of the table; the
// resolver interprets each value at lookup time.
type Table map[string]json.RawMessage

// Parse decodes a command table from its JSON representation.
func Parse(data []byte) (Table, error) {
	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return table, nil
}

// LoadFile reads and parses the commands file at path. The caller decides
// whether a failure is fatal (startup) or retryable (hot reload).
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read commands file: %w", err)
	}
	return Parse(data)
}
