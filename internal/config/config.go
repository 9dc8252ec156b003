// Package config holds the server settings read from flags and the
// environment.
package config

import (
	"flag"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/pkg/errors"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the server configuration.
type Config struct {
	Addr         string
	AllowOrigins string // comma-separated, as the CORS middleware takes it
	LogLevel     string
	LogFormat    string // "text" or "json"

	// MatchmakingInterval is how often queued players are paired.
	MatchmakingInterval time.Duration

	ReadBufferSize  int
	WriteBufferSize int
}

// Default returns the settings used when neither a flag nor an environment
// variable is given.
func Default() Config {
	return Config{
		Addr:                ":3000",
		AllowOrigins:        "http://localhost:5173",
		LogLevel:            "info",
		LogFormat:           "text",
		MatchmakingInterval: time.Second,
		ReadBufferSize:      1024,
		WriteBufferSize:     1024,
	}
}

// Load parses args over the defaults. Each flag's default is taken from its
// CHESS_* environment variable when that is set, so flags win over the
// environment.
func Load(args []string, getenv func(string) string) (Config, error) {
	cfg := Default()
	env := envLookup{getenv: getenv}

	fs := flag.NewFlagSet("chess-server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.Addr, "addr", env.str("CHESS_ADDR", cfg.Addr), "Listen address")
	fs.StringVar(&cfg.AllowOrigins, "allow-origins", env.str("CHESS_ALLOW_ORIGINS", cfg.AllowOrigins), "Comma-separated CORS and WebSocket origins")
	fs.StringVar(&cfg.LogLevel, "log-level", env.str("CHESS_LOG_LEVEL", cfg.LogLevel), "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", env.str("CHESS_LOG_FORMAT", cfg.LogFormat), "Log format: text or json")
	fs.DurationVar(&cfg.MatchmakingInterval, "matchmaking-interval", env.duration("CHESS_MATCHMAKING_INTERVAL", cfg.MatchmakingInterval), "How often queued players are paired")
	fs.IntVar(&cfg.ReadBufferSize, "ws-read-buffer", env.integer("CHESS_WS_READ_BUFFER", cfg.ReadBufferSize), "WebSocket read buffer size in bytes")
	fs.IntVar(&cfg.WriteBufferSize, "ws-write-buffer", env.integer("CHESS_WS_WRITE_BUFFER", cfg.WriteBufferSize), "WebSocket write buffer size in bytes")

	if env.err != nil {
		return Config{}, env.err
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, errors.Wrap(ErrInvalidConfig, err.Error())
	}
	if fs.NArg() > 0 {
		return Config{}, errors.Wrapf(ErrInvalidConfig, "unexpected arguments %v", fs.Args())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail late, at startup
// of the listener or the matchmaking loop.
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.Wrap(ErrInvalidConfig, "addr is empty")
	}
	// CORS with credentials cannot use a wildcard origin.
	if strings.Contains(c.AllowOrigins, "*") {
		return errors.Wrap(ErrInvalidConfig, "allow-origins must list origins explicitly")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return errors.Wrapf(ErrInvalidConfig, "log format %q", c.LogFormat)
	}
	if c.MatchmakingInterval <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "matchmaking interval %s", c.MatchmakingInterval)
	}
	if c.ReadBufferSize <= 0 || c.WriteBufferSize <= 0 {
		return errors.Wrap(ErrInvalidConfig, "websocket buffer sizes must be positive")
	}
	return nil
}

// Origins splits AllowOrigins for the WebSocket upgrader.
func (c Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// envLookup reads typed defaults and keeps the first parse error.
type envLookup struct {
	getenv func(string) string
	err    error
}

func (e *envLookup) str(key, def string) string {
	if v := e.getenv(key); v != "" {
		return v
	}
	return def
}

func (e *envLookup) integer(key string, def int) int {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v)
		return def
	}
	return n
}

func (e *envLookup) duration(key string, def time.Duration) time.Duration {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v)
		return def
	}
	return d
}

func (e *envLookup) fail(key, value string) {
	if e.err == nil {
		e.err = errors.Wrapf(ErrInvalidConfig, "%s=%q", key, value)
	}
}
