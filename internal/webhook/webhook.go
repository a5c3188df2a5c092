// Package webhook implements the callback ingestion endpoint: the HTTP
// boundary GroupMe delivers new chat messages to.
package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"groupmebot/internal/commands"
	"groupmebot/internal/groupme"
)

// maxBodySize bounds callback payloads; GroupMe messages are tiny.
const maxBodySize = 1 << 20

// Poster submits a resolved response through the platform's send API.
// Satisfied by the groupme client.
type Poster interface {
	PostMessage(ctx context.Context, botID, text string) error
}

// Handler processes inbound callback requests. Everything that goes wrong
// past the transport layer is logged and swallowed: the platform treats any
// non-success reply as a delivery failure and retries, which would duplicate
// processing, so the endpoint always acknowledges with 200 and an empty body.
type Handler struct {
	resolver *commands.Resolver
	poster   Poster
	botID    string
	log      *slog.Logger
}

// NewHandler creates the callback handler.
func NewHandler(resolver *commands.Resolver, poster Poster, botID string, log *slog.Logger) *Handler {
	return &Handler{
		resolver: resolver,
		poster:   poster,
		botID:    botID,
		log:      log.With("component", "webhook"),
	}
}

// Register mounts the callback route on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/callback", h.handleCallback)
}

func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	defer w.WriteHeader(http.StatusOK)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		h.log.Error("Failed to read callback body", "error", err)
		return
	}

	var msg groupme.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		h.log.Error("Failed to decode callback payload", "error", err)
		return
	}

	h.log.Debug("Received callback",
		"sender_type", msg.SenderType,
		"sender_name", msg.Name,
		"text", msg.Text)

	response, ok := h.resolver.Resolve(&msg)
	if !ok || response == "" {
		return
	}

	h.log.Info("Responding to command", "text", msg.Text)
	if err := h.poster.PostMessage(r.Context(), h.botID, response); err != nil {
		// Fire-and-forget: the sender gets no reply and we move on.
		h.log.Error("Failed to post response", "bot_id", h.botID, "error", err)
	}
}
