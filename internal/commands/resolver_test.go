package commands

import (
	"io"
	"log/slog"
	"testing"

	"groupmebot/internal/groupme"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func storeFromJSON(t *testing.T, doc string) *Store {
	t.Helper()
	table, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse table fixture: %v", err)
	}
	store := NewStore()
	store.Swap(table)
	return store
}

func TestResolve(t *testing.T) {
	t.Parallel()

	table := `{
		"!ping": [{"responseLine1": "pong"}],
		"!info": [{"responseLine1": "line1"}, {"responseLine1": "line2"}],
		"!legacy": "plain old string",
		"!empty": [],
		"!noise": 42,
		"!mixed": [{"responseLine1": "ok"}, "not a record"],
		"!img": [{"responseLine1": "https://i.example.com/x.png"}]
	}`
	resolver := NewResolver(storeFromJSON(t, table), discardLogger())

	tests := []struct {
		name   string
		msg    groupme.Message
		want   string
		wantOK bool
	}{
		{
			name:   "single line command",
			msg:    groupme.Message{SenderType: "user", Text: "!ping"},
			want:   "pong",
			wantOK: true,
		},
		{
			name:   "surrounding whitespace trimmed",
			msg:    groupme.Message{SenderType: "user", Text: " !ping "},
			want:   "pong",
			wantOK: true,
		},
		{
			name:   "multi line joined with newline",
			msg:    groupme.Message{SenderType: "user", Text: "!info"},
			want:   "line1\nline2",
			wantOK: true,
		},
		{
			name:   "bot sender suppressed",
			msg:    groupme.Message{SenderType: "bot", Text: "!ping"},
			wantOK: false,
		},
		{
			name:   "unknown trigger",
			msg:    groupme.Message{SenderType: "user", Text: "!nope"},
			wantOK: false,
		},
		{
			name:   "no prefix matching",
			msg:    groupme.Message{SenderType: "user", Text: "!ping extra"},
			wantOK: false,
		},
		{
			name:   "no case folding",
			msg:    groupme.Message{SenderType: "user", Text: "!PING"},
			wantOK: false,
		},
		{
			name:   "legacy bare string returned unchanged",
			msg:    groupme.Message{SenderType: "user", Text: "!legacy"},
			want:   "plain old string",
			wantOK: true,
		},
		{
			name:   "empty sequence means no response",
			msg:    groupme.Message{SenderType: "user", Text: "!empty"},
			wantOK: false,
		},
		{
			name:   "malformed entry yields none",
			msg:    groupme.Message{SenderType: "user", Text: "!noise"},
			wantOK: false,
		},
		{
			name:   "list with non-record entry yields none",
			msg:    groupme.Message{SenderType: "user", Text: "!mixed"},
			wantOK: false,
		},
		{
			name:   "image url passes through as text",
			msg:    groupme.Message{SenderType: "user", Text: "!img"},
			want:   "https://i.example.com/x.png",
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := resolver.Resolve(&tt.msg)
			if ok != tt.wantOK {
				t.Fatalf("Resolve() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveIdempotent(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(storeFromJSON(t, `{"!ping": [{"responseLine1": "pong"}]}`), discardLogger())
	msg := groupme.Message{SenderType: "user", Text: "!ping"}

	for i := 0; i < 10; i++ {
		got, ok := resolver.Resolve(&msg)
		if !ok || got != "pong" {
			t.Fatalf("Resolve() call %d = %q, %v; want pong, true", i, got, ok)
		}
	}
}
