package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"groupmebot/internal/commands"
)

type fakePoster struct {
	calls []string
	err   error
}

func (f *fakePoster) PostMessage(ctx context.Context, botID, text string) error {
	f.calls = append(f.calls, text)
	return f.err
}

func newTestHandler(t *testing.T, tableJSON string, poster *fakePoster) http.Handler {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	table, err := commands.Parse([]byte(tableJSON))
	if err != nil {
		t.Fatalf("parse table fixture: %v", err)
	}
	store := commands.NewStore()
	store.Swap(table)

	r := chi.NewRouter()
	NewHandler(commands.NewResolver(store, log), poster, "b1", log).Register(r)
	return r
}

func postCallback(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestCallbackDispatchesResponse(t *testing.T) {
	t.Parallel()

	poster := &fakePoster{}
	h := newTestHandler(t, `{"!ping": [{"responseLine1": "pong"}]}`, poster)

	rr := postCallback(t, h, `{"sender_type": "user", "text": " !ping ", "name": "Alice"}`)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rr.Body.String())
	}
	if len(poster.calls) != 1 || poster.calls[0] != "pong" {
		t.Errorf("poster calls = %v, want [pong]", poster.calls)
	}
}

func TestCallbackIgnoresBotMessages(t *testing.T) {
	t.Parallel()

	poster := &fakePoster{}
	h := newTestHandler(t, `{"!ping": [{"responseLine1": "pong"}]}`, poster)

	rr := postCallback(t, h, `{"sender_type": "bot", "text": "!ping"}`)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
	if len(poster.calls) != 0 {
		t.Errorf("dispatcher invoked for bot message: %v", poster.calls)
	}
}

func TestCallbackUnknownCommand(t *testing.T) {
	t.Parallel()

	poster := &fakePoster{}
	h := newTestHandler(t, `{"!ping": [{"responseLine1": "pong"}]}`, poster)

	rr := postCallback(t, h, `{"sender_type": "user", "text": "hello everyone"}`)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
	if len(poster.calls) != 0 {
		t.Errorf("dispatcher invoked for non-command: %v", poster.calls)
	}
}

func TestCallbackAcknowledgesMalformedPayload(t *testing.T) {
	t.Parallel()

	poster := &fakePoster{}
	h := newTestHandler(t, `{}`, poster)

	rr := postCallback(t, h, `this is not json`)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 even for malformed payload", rr.Code)
	}
	if len(poster.calls) != 0 {
		t.Errorf("dispatcher invoked for malformed payload: %v", poster.calls)
	}
}

func TestCallbackAcknowledgesDispatchFailure(t *testing.T) {
	t.Parallel()

	poster := &fakePoster{err: errors.New("groupme is down")}
	h := newTestHandler(t, `{"!ping": [{"responseLine1": "pong"}]}`, poster)

	rr := postCallback(t, h, `{"sender_type": "user", "text": "!ping"}`)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 despite dispatch failure", rr.Code)
	}
	if len(poster.calls) != 1 {
		t.Errorf("poster calls = %d, want 1", len(poster.calls))
	}
}

func TestCallbackSkipsEmptyResponse(t *testing.T) {
	t.Parallel()

	poster := &fakePoster{}
	h := newTestHandler(t, `{"!blank": [{"responseLine1": ""}]}`, poster)

	rr := postCallback(t, h, `{"sender_type": "user", "text": "!blank"}`)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
	if len(poster.calls) != 0 {
		t.Errorf("dispatcher invoked for empty response: %v", poster.calls)
	}
}
