package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"groupmebot/internal/config"
	"groupmebot/internal/groupme"
)

var (
	// ErrNoGroups indicates the account belongs to no groups, so there is
	// nowhere to attach a bot.
	ErrNoGroups = errors.New("no groups found")
	// ErrBotNotFound indicates the configured bot id no longer exists on
	// the platform.
	ErrBotNotFound = errors.New("bot not found")
)

// Identity is the resolved bot identity the serving components run with.
// It is established once at startup and immutable afterwards.
type Identity struct {
	BotID       string
	GroupID     string
	CallbackURL string
}

// Setup walks the bot from unregistered to ready-to-serve: authenticate the
// token, resolve the target group, create the bot if none is configured
// (persisting the new id through saveBotID before returning), and verify
// the registered callback URL. Every failure here is fatal to startup; an
// operator has to fix the configuration.
func Setup(ctx context.Context, cfg *config.Config, client groupme.Client, saveBotID func(string) error, log *slog.Logger) (*Identity, error) {
	log = log.With("component", "setup")

	user, err := client.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	log.Info("Authenticated", "user_name", user.Name, "user_id", user.ID)

	groupID, err := resolveGroup(ctx, cfg.GroupID, client, log)
	if err != nil {
		return nil, err
	}

	botID := cfg.BotID
	if botID == "" {
		log.Info("No bot_id configured, creating a new bot", "group_id", groupID)
		botID, err = client.CreateBot(ctx, cfg.BotName, groupID, cfg.CallbackURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create bot: %w", err)
		}
		if err := saveBotID(botID); err != nil {
			return nil, fmt.Errorf("failed to persist bot id: %w", err)
		}
		log.Info("Bot created and persisted", "bot_id", botID)
	}

	if err := verifyCallback(ctx, client, botID, cfg.CallbackURL, log); err != nil {
		return nil, err
	}

	return &Identity{
		BotID:       botID,
		GroupID:     groupID,
		CallbackURL: cfg.CallbackURL,
	}, nil
}

// resolveGroup picks the group to serve: the saved group id when it still
// exists among the account's groups, otherwise the first group returned.
func resolveGroup(ctx context.Context, savedID string, client groupme.Client, log *slog.Logger) (string, error) {
	groups, err := client.Groups(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch groups: %w", err)
	}
	if len(groups) == 0 {
		return "", fmt.Errorf("%w: join a group first", ErrNoGroups)
	}

	for _, g := range groups {
		log.Info("Available group", "group_name", g.Name, "group_id", g.ID)
	}

	if savedID != "" {
		for _, g := range groups {
			if g.ID == savedID {
				log.Info("Using saved group", "group_name", g.Name, "group_id", g.ID)
				return g.ID, nil
			}
		}
		log.Warn("Saved group id not found, defaulting to the first group",
			"saved_group_id", savedID, "group_id", groups[0].ID)
		return groups[0].ID, nil
	}

	log.Info("No saved group id, using the first group",
		"group_name", groups[0].Name, "group_id", groups[0].ID)
	return groups[0].ID, nil
}

// verifyCallback checks that the bot still exists and that its registered
// callback URL matches the configured one. A mismatch is logged with the
// corrective payload but not submitted.
//
// TODO: submit the corrective update once the bot-update flow has been
// verified against the live API; until then a mismatch needs an operator.
func verifyCallback(ctx context.Context, client groupme.Client, botID, callbackURL string, log *slog.Logger) error {
	bots, err := client.Bots(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch bots: %w", err)
	}

	for _, b := range bots {
		if b.BotID != botID {
			continue
		}
		if b.CallbackURL == callbackURL {
			log.Info("Bot callback URL verified", "bot_id", botID, "callback_url", callbackURL)
			return nil
		}

		corrected := b
		corrected.CallbackURL = callbackURL
		log.Warn("Bot has an incorrect callback URL; not updating",
			"bot_id", botID,
			"current_url", b.CallbackURL,
			"requested_url", callbackURL,
			"corrective_update", fmt.Sprintf("%+v", corrected))
		return nil
	}

	return fmt.Errorf("%w: bot id %s", ErrBotNotFound, botID)
}
