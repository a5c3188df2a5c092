// Package groupme implements the client for the GroupMe v3 REST API. It
// covers the calls the bot needs: identity lookup, group listing, bot
// creation and listing, message history, and posting through a bot.
package groupme

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the production GroupMe API endpoint.
const DefaultBaseURL = "https://api.groupme.com/v3"

// imagePrefix marks outbound text that should be sent as a single image
// attachment instead of a plain text message.
const imagePrefix = "https://i."

// Client defines the GroupMe API operations used by the bot.
type Client interface {
	// Me fetches the authenticated user, which doubles as a token check.
	Me(ctx context.Context) (*User, error)

	// Groups fetches the user's active groups.
	Groups(ctx context.Context) ([]Group, error)

	// Messages fetches recent messages in a group, optionally only those
	// newer than sinceID. A 304 from the API yields an empty slice.
	Messages(ctx context.Context, groupID, sinceID string) ([]Message, error)

	// CreateBot registers a new bot in the group and returns its bot id.
	CreateBot(ctx context.Context, name, groupID, callbackURL string) (string, error)

	// Bots lists all bots owned by the token.
	Bots(ctx context.Context) ([]Bot, error)

	// PostMessage sends text through the bot. Text starting with the
	// image URL prefix is sent as a single image attachment.
	PostMessage(ctx context.Context, botID, text string) error
}

// APIError is returned when the GroupMe API answers with an unexpected status.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("groupme API request failed: %d - %s", e.Status, e.Body)
}

// HTTPClient is the production implementation of Client.
type HTTPClient struct {
	token   string
	baseURL string
	httpc   *http.Client
	log     *slog.Logger
}

// NewClient creates a GroupMe API client for the given access token.
func NewClient(token string, log *slog.Logger) *HTTPClient {
	return &HTTPClient{
		token:   token,
		baseURL: DefaultBaseURL,
		httpc:   &http.Client{Timeout: 15 * time.Second},
		log:     log.With("component", "groupme_client"),
	}
}

// envelope is the standard GroupMe response wrapper.
type envelope struct {
	Response json.RawMessage `json:"response"`
}

func (c *HTTPClient) get(ctx context.Context, path string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return errNotModified
	}
	if resp.StatusCode != http.StatusOK {
		return readAPIError(resp)
	}
	return decodeEnvelope(resp.Body, out)
}

func (c *HTTPClient) post(ctx context.Context, path string, withToken bool, body, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	u := c.baseURL + path
	if withToken {
		u += "?token=" + url.QueryEscape(c.token)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return readAPIError(resp)
	}
	if out == nil {
		return nil
	}
	return decodeEnvelope(resp.Body, out)
}

func decodeEnvelope(r io.Reader, out any) error {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(env.Response, out); err != nil {
		return fmt.Errorf("decode response payload: %w", err)
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

// errNotModified is internal to get; Messages translates it to an empty result.
var errNotModified = fmt.Errorf("not modified")

// Me fetches details about the authenticated user.
func (c *HTTPClient) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, "/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Groups fetches the authenticated user's active groups.
func (c *HTTPClient) Groups(ctx context.Context) ([]Group, error) {
	query := url.Values{"per_page": {"10"}}
	var groups []Group
	if err := c.get(ctx, "/groups", query, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Messages fetches up to 20 messages from a group, newest first. When
// sinceID is set only newer messages are returned; a 304 means no new
// messages and yields an empty slice.
func (c *HTTPClient) Messages(ctx context.Context, groupID, sinceID string) ([]Message, error) {
	query := url.Values{"limit": {"20"}}
	if sinceID != "" {
		query.Set("since_id", sinceID)
	}

	var payload struct {
		Messages []Message `json:"messages"`
	}
	err := c.get(ctx, "/groups/"+url.PathEscape(groupID)+"/messages", query, &payload)
	if err == errNotModified {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payload.Messages, nil
}

// CreateBot registers a new bot bound to the group and callback URL and
// returns the platform-assigned bot id.
func (c *HTTPClient) CreateBot(ctx context.Context, name, groupID, callbackURL string) (string, error) {
	botSpec := map[string]string{
		"name":     name,
		"group_id": groupID,
	}
	if callbackURL != "" {
		botSpec["callback_url"] = callbackURL
	}

	var created struct {
		BotID string `json:"bot_id"`
	}
	if err := c.post(ctx, "/bots", true, map[string]any{"bot": botSpec}, &created); err != nil {
		return "", err
	}

	c.log.Info("Bot created successfully", "bot_id", created.BotID, "group_id", groupID)
	return created.BotID, nil
}

// Bots lists all bots owned by the access token.
func (c *HTTPClient) Bots(ctx context.Context) ([]Bot, error) {
	var bots []Bot
	if err := c.get(ctx, "/bots", nil, &bots); err != nil {
		return nil, err
	}
	return bots, nil
}

// PostMessage sends text through the bot. The send is fire-and-forget: a
// non-201/202 status is returned as an error and the caller decides whether
// it matters.
func (c *HTTPClient) PostMessage(ctx context.Context, botID, text string) error {
	var body any
	if strings.HasPrefix(text, imagePrefix) {
		body = imagePayload(botID, text)
	} else {
		body = textPayload(botID, text)
	}

	if err := c.post(ctx, "/bots/post", false, body, nil); err != nil {
		return err
	}
	c.log.Debug("Message posted successfully", "bot_id", botID)
	return nil
}

func textPayload(botID, text string) map[string]any {
	return map[string]any{
		"bot_id": botID,
		"text":   text,
	}
}

func imagePayload(botID, imgURL string) map[string]any {
	return map[string]any{
		"bot_id": botID,
		"text":   "",
		"attachments": []map[string]string{
			{"type": "image", "url": imgURL},
		},
	}
}
