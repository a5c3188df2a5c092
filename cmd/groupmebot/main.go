// Package main contains the entrypoint for the GroupMe command bot.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"groupmebot/internal/bot"
	"groupmebot/internal/commands"
	"groupmebot/internal/config"
	"groupmebot/internal/groupme"
	"groupmebot/internal/logger"
	"groupmebot/internal/web"
	"groupmebot/internal/webhook"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes all components (config, logger, GroupMe client, lifecycle
// setup, command store, watcher, HTTP surface), starts serving, and returns
// an exit code. Every failure before serving is fatal; an operator has to
// fix the configuration or the platform state.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.json", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.LogLevel, cfg.LogJSON)
	slog.SetDefault(log)

	client := groupme.NewClient(cfg.AccessToken, log)

	saveBotID := func(botID string) error {
		return config.SaveBotID(*configPath, botID)
	}
	identity, err := bot.Setup(ctx, cfg, client, saveBotID, log)
	if err != nil {
		log.Error("Bot setup failed", "error", err)
		return 1
	}
	log.Info("Bot setup complete", "bot_id", identity.BotID, "group_id", identity.GroupID)

	// The initial command table must load; a bot with no commands and no
	// prospect of any is misconfigured. Later reload failures are retried.
	store := commands.NewStore()
	table, err := commands.LoadFile(cfg.CommandsPath)
	if err != nil {
		log.Error("Initial load of commands failed", "path", cfg.CommandsPath, "error", err)
		return 1
	}
	store.Swap(table)
	log.Info("Commands loaded", "path", cfg.CommandsPath, "commands", store.Len())

	watcher := commands.NewWatcher(cfg.CommandsPath, store, log)
	sched, err := bot.NewScheduler(log)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	if err := sched.AddEvery("command_reload", commands.PollInterval, watcher.Check); err != nil {
		log.Error("Failed to schedule command reload", "error", err)
		return 1
	}

	r := chi.NewRouter()
	r.Use(logger.Middleware(log))
	webhook.NewHandler(commands.NewResolver(store, log), client, identity.BotID, log).Register(r)
	if cfg.AdminEnabled() {
		web.NewHandler(cfg.CommandsPath, log).Register(r, cfg.AdminUsername, cfg.AdminPassword)
		log.Info("Command editor enabled", "path", "/commands")
	}

	app := bot.New(log, cfg.ListenAddr, r, sched)
	log.Info("Starting bot...", "addr", cfg.ListenAddr, "callback_url", identity.CallbackURL)
	if err := app.Run(ctx); err != nil {
		return 1
	}
	return 0
}
