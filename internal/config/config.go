// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes the bot's settings:
// Discord credentials and guild wiring, destination channel and role IDs,
// staff authorization, database path, logging, rate limiting, and the ops
// HTTP port.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the bot.
type Config struct {
	// Discord
	Token         string // DISCORD_TOKEN
	ApplicationID string // DISCORD_APPLICATION_ID
	GuildID       string // DISCORD_GUILD_ID

	// Destinations and roles
	BankRequestChannelID  string   // forum channel receiving request threads
	GuildBankTagID        string   // forum tag applied to request threads (optional)
	StimulusChannelID     string   // officer channel receiving claim prompts
	StimulusClaimedRoleID string   // role granted when a claim is paid
	AuthorizedStaffRoles  []string // roles allowed to use staff actions
	WebsiteURL            string   // guild bank website, linked from the panel

	// App
	DBPath    string // SQLite path
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev
	OpsPort   string // health + metrics HTTP port

	// Abuse control
	RateRPS   float64       // tokens per second for user-facing actions (>= 0)
	RateBurst int           // bucket size (>= 1)
	DedupeTTL time.Duration // how long an interaction ID stays deduplicated
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Token:         getenv("DISCORD_TOKEN", ""),
		ApplicationID: getenv("DISCORD_APPLICATION_ID", ""),
		GuildID:       getenv("DISCORD_GUILD_ID", ""),

		BankRequestChannelID:  getenv("BANK_REQUEST_FORUM_CHANNEL_ID", ""),
		GuildBankTagID:        getenv("GUILD_BANK_TAG_ID", ""),
		StimulusChannelID:     getenv("STIMULUS_CHANNEL_ID", ""),
		StimulusClaimedRoleID: getenv("STIMULUS_CLAIMED_ROLE_ID", ""),
		AuthorizedStaffRoles:  splitCSV(getenv("AUTHORIZED_STAFF_ROLES", "")),
		WebsiteURL:            getenv("GUILD_BANK_WEBSITE_URL", "https://thj-dnt.web.app/bank"),

		DBPath:    getenv("DB_PATH", "bank.db"),
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),
		OpsPort:   getenv("OPS_PORT", "9090"),

		RateRPS:   getfloat("RATE_RPS", 0.5),
		RateBurst: getint("RATE_BURST", 3),
		DedupeTTL: getdur("INTERACTION_DEDUPE_TTL", 15*time.Minute),
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return cfg, errors.New("DISCORD_TOKEN must not be empty")
	}
	if strings.TrimSpace(cfg.ApplicationID) == "" {
		return cfg, errors.New("DISCORD_APPLICATION_ID must not be empty")
	}
	if strings.TrimSpace(cfg.GuildID) == "" {
		return cfg, errors.New("DISCORD_GUILD_ID must not be empty")
	}
	if strings.TrimSpace(cfg.BankRequestChannelID) == "" {
		return cfg, errors.New("BANK_REQUEST_FORUM_CHANNEL_ID must not be empty")
	}
	if strings.TrimSpace(cfg.StimulusChannelID) == "" {
		return cfg, errors.New("STIMULUS_CHANNEL_ID must not be empty")
	}
	if strings.TrimSpace(cfg.StimulusClaimedRoleID) == "" {
		return cfg, errors.New("STIMULUS_CLAIMED_ROLE_ID must not be empty")
	}
	if len(cfg.AuthorizedStaffRoles) == 0 {
		return cfg, errors.New("AUTHORIZED_STAFF_ROLES must name at least one role")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.OpsPort) == "" {
		return cfg, errors.New("OPS_PORT must not be empty")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.DedupeTTL <= 0 {
		return cfg, errors.New("INTERACTION_DEDUPE_TTL must be > 0")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
