package commands

import (
	"encoding/json"
	"log/slog"
	"strings"

	"groupmebot/internal/groupme"
)

// Resolver matches inbound messages against the command store.
type Resolver struct {
	store *Store
	log   *slog.Logger
}

// NewResolver creates a resolver reading from the given store.
func NewResolver(store *Store, log *slog.Logger) *Resolver {
	return &Resolver{
		store: store,
		log:   log.With("component", "resolver"),
	}
}

// Resolve returns the response for a message, or ok=false when the message
// should produce none. Messages from bots are ignored outright so the bot
// never answers itself. The trimmed text is matched verbatim against the
// table: no prefix matching, no tokenization, no case folding.
//
// A malformed table entry yields no response but never an error; one bad
// command must not take down message processing for the others.
func (r *Resolver) Resolve(msg *groupme.Message) (string, bool) {
	if msg.FromBot() {
		return "", false
	}

	trigger := strings.TrimSpace(msg.Text)
	raw, ok := r.store.Lookup(trigger)
	if !ok {
		return "", false
	}

	// Normal shape: an ordered list of response-line records.
	var lines []Line
	if err := json.Unmarshal(raw, &lines); err == nil {
		if len(lines) == 0 {
			return "", false
		}
		parts := make([]string, len(lines))
		for i, line := range lines {
			parts[i] = line.Text
		}
		return strings.Join(parts, "\n"), true
	}

	// Legacy shape: the trigger maps directly to a plain string.
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single, true
	}

	r.log.Warn("Invalid response format for command", "command", trigger)
	return "", false
}
