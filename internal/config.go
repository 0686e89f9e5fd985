// Package internal holds process-wide configuration, unmarshaled
// directly from the environment.
package internal

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Config is the complete set of environment-driven knobs for the
// binaries. Host, RestartInterval and CallTimeout are parsed but not
// read by any component: the registries and the chat server use their
// own fixed 5s call timeout, and the supervisor its own fixed 200ms
// restart delay.
type Config struct {
	Host string `env:"HOST,default=localhost"`
	Port int    `env:"PORT,default=8080"`

	NodeID      string `env:"NODE_ID,default=node-1"`
	ClusterSize int    `env:"CLUSTER_SIZE,default=1"`

	BufferSize      int           `env:"BUFFER_SIZE,default=256"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	CallTimeout     time.Duration `env:"CALL_TIMEOUT,default=5s"`

	SnapshotDir      string        `env:"SNAPSHOT_DIR,default=./data"`
	SnapshotInterval time.Duration `env:"SNAPSHOT_INTERVAL,default=0s"`

	ModerationCharReplacement string `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`

	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	LoadTestTeams        int `env:"LOAD_TEST_TEAMS,default=20"`
	LoadTestParticipants int `env:"LOAD_TEST_PARTICIPANTS,default=5"`
	LoadTestMessages     int `env:"LOAD_TEST_MESSAGES,default=10"`
	LoadTestConcurrency  int `env:"LOAD_TEST_CONCURRENCY,default=50"`
}

// Load preloads a local .env file (ignored if absent, matching
// godotenv's own convention) and then unmarshals the process
// environment into a Config.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}

// CharacterRune validates that ModerationCharReplacement is exactly one
// rune: the censor mask must be a single character.
func (c Config) CharacterRune() (rune, error) {
	r := []rune(c.ModerationCharReplacement)
	if len(r) != 1 {
		return 0, fmt.Errorf("MODERATION_CHARACTER_REPLACEMENT must be a single character, got %q", c.ModerationCharReplacement)
	}
	return r[0], nil
}

// SlogLevel parses LogLevel into a slog.Level, defaulting to Info on an
// unrecognized value instead of failing startup over a typo'd env var.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToUpper(strings.TrimSpace(c.LogLevel)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
