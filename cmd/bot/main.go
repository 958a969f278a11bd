// Command bot runs the guild-bank Discord bot: it loads configuration,
// opens the SQLite store, connects the gateway session, registers the slash
// commands, and serves the ops HTTP endpoints until interrupted.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thj-dnt/bankbot/internal/config"
	"github.com/thj-dnt/bankbot/internal/discord"
	"github.com/thj-dnt/bankbot/internal/ops"
	"github.com/thj-dnt/bankbot/internal/repo"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	setLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("opening database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("creating Discord session failed")
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	notifier := discord.NewNotifier(session, cfg)
	router := discord.NewRouter(cfg, db, notifier)
	session.AddHandler(router.HandleInteraction)
	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info().Str("bot_user", r.User.Username).Msg("gateway session ready")
		if err := discord.RegisterCommands(s, cfg.ApplicationID, cfg.GuildID); err != nil {
			log.Error().Err(err).Msg("registering slash commands failed")
			return
		}
		log.Info().Str("guild_id", cfg.GuildID).Msg("slash commands registered")
	})

	if err := session.Open(); err != nil {
		log.Fatal().Err(err).Msg("opening gateway connection failed")
	}
	defer session.Close()

	opsSrv := ops.NewServer(cfg.OpsPort)
	go func() {
		log.Info().Str("port", cfg.OpsPort).Msg("ops server listening")
		if err := opsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("ops server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Hourly sweep of expired interaction-dedupe rows.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				purged, err := repo.PurgeExpiredInteractions(ctx, db, time.Now().UTC())
				if err != nil {
					log.Error().Err(err).Msg("purging expired interaction records failed")
				} else if purged > 0 {
					log.Info().Int64("purged", purged).Msg("expired interaction records purged")
				}
			}
		}
	}()

	log.Info().Msg("bot is running, press Ctrl+C to stop")
	<-ctx.Done()

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := opsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("ops server shutdown failed")
	}
}

// setLogLevel configures the global zerolog level from its string form.
func setLogLevel(lvl string) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info", "":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
