package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/iamasit07/blokus-client/internal/service/bot"
)

type Config struct {
	Host        string
	Port        int
	Reservation string
	GameType    string
	Policy      string
	PolicySeed  int64

	MoveTimeout    time.Duration
	MoveTimeMargin time.Duration
	PassOnEmpty    bool
	DialTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxFrameBytes  int
	InboxSize      int

	LogLevel  string
	LogFormat string

	DatabaseURL          string
	DBMaxOpenConns       int
	DBMaxIdleConns       int
	DBConnMaxLifetimeMin int

	RedisURL      string
	RedisPassword string
	RedisTTL      time.Duration

	WatchPort           string
	WatchAllowedOrigins []string
}

// LoadConfig reads the environment. Values that do not parse are reported
// together; the defaults stand in for them in the returned Config.
func LoadConfig() (*Config, error) {
	var errs []error
	intVal := func(key string, def int) int {
		v, err := GetEnvAsInt(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	durationVal := func(key string, def int, unit time.Duration) time.Duration {
		v, err := GetEnvAsDuration(key, time.Duration(def)*unit, unit)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	passOnEmpty, err := GetEnvAsBool("PASS_ON_EMPTY", false)
	if err != nil {
		errs = append(errs, err)
	}

	// Watch surface & CORS
	var origins []string
	for _, origin := range strings.Split(GetEnv("WATCH_ALLOWED_ORIGINS", ""), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	cfg := &Config{
		Host:        GetEnv("GAME_HOST", "localhost"),
		Port:        intVal("GAME_PORT", 13050),
		Reservation: GetEnv("RESERVATION", ""),
		GameType:    GetEnv("GAME_TYPE", "swc_2021_blokus"),
		Policy:      GetEnv("POLICY", bot.PolicyRandom),
		PolicySeed:  int64(intVal("POLICY_SEED", 0)),

		MoveTimeout:    durationVal("MOVE_TIMEOUT_MS", 2000, time.Millisecond),
		MoveTimeMargin: durationVal("MOVE_TIME_MARGIN_MS", 200, time.Millisecond),
		PassOnEmpty:    passOnEmpty,
		DialTimeout:    durationVal("DIAL_TIMEOUT_SECONDS", 10, time.Second),
		WriteTimeout:   durationVal("WRITE_TIMEOUT_SECONDS", 5, time.Second),
		MaxFrameBytes:  intVal("MAX_FRAME_BYTES", 1<<20),
		InboxSize:      intVal("INBOX_SIZE", 16),

		LogLevel:  GetEnv("LOG_LEVEL", "info"),
		LogFormat: GetEnv("LOG_FORMAT", "console"),

		DatabaseURL:          GetEnv("DATABASE_URL", GetEnv("DATABASE_URI", "")),
		DBMaxOpenConns:       intVal("DB_MAX_OPEN_CONNS", 5),
		DBMaxIdleConns:       intVal("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetimeMin: intVal("DB_CONN_MAX_LIFETIME_MINUTES", 5),

		RedisURL:      GetEnv("REDIS_URL", ""),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),
		RedisTTL:      durationVal("REDIS_TTL_MINUTES", 60, time.Minute),

		WatchPort:           GetEnv("WATCH_PORT", ""),
		WatchAllowedOrigins: origins,
	}
	return cfg, errors.Join(errs...)
}

// Load reads the environment, applies the flags and validates the result.
// Every problem found is reported in the one joined error. A -help flag
// yields an error matching flag.ErrHelp.
func Load(args []string) (*Config, error) {
	cfg, loadErr := LoadConfig()
	flagErr := cfg.ApplyFlags(args)
	if errors.Is(flagErr, flag.ErrHelp) {
		return cfg, flagErr
	}
	return cfg, errors.Join(loadErr, flagErr, cfg.Validate())
}

func (c *Config) flagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("blokus-client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&c.Host, "host", c.Host, "game server host")
	fs.IntVar(&c.Port, "port", c.Port, "game server port")
	fs.StringVar(&c.Reservation, "reservation", c.Reservation, "reservation code of a prepared game")
	fs.StringVar(&c.Policy, "policy", c.Policy, "move policy: random, greedy or first")
	return fs
}

// ApplyFlags lets command line flags override the environment.
func (c *Config) ApplyFlags(args []string) error {
	fs := c.flagSet()
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return nil
}

// PrintUsage writes the flag summary with the current values as defaults.
func (c *Config) PrintUsage(w io.Writer) {
	cp := *c
	fs := cp.flagSet()
	fs.SetOutput(w)
	fmt.Fprintln(w, "Usage: blokus-client [flags]")
	fmt.Fprintln(w, "Connection and policy settings also come from the environment or a .env file.")
	fs.PrintDefaults()
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Host) == "" {
		errs = append(errs, errors.New("host must not be empty"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MoveTimeout <= 0 {
		errs = append(errs, fmt.Errorf("move timeout must be positive, got %s", c.MoveTimeout))
	}
	if c.MoveTimeMargin < 0 || c.MoveTimeMargin >= c.MoveTimeout {
		errs = append(errs, fmt.Errorf("move time margin %s must be below the move timeout", c.MoveTimeMargin))
	}
	if c.DialTimeout <= 0 || c.WriteTimeout <= 0 {
		errs = append(errs, errors.New("dial and write timeouts must be positive"))
	}
	if c.MaxFrameBytes <= 0 || c.InboxSize <= 0 {
		errs = append(errs, errors.New("frame size and inbox size must be positive"))
	}
	if !bot.IsKnown(c.Policy) {
		errs = append(errs, fmt.Errorf("unknown policy %q", c.Policy))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log format %q, want console or json", c.LogFormat))
	}
	if c.WatchPort != "" {
		if p, err := strconv.Atoi(c.WatchPort); err != nil || p < 1 || p > 65535 {
			errs = append(errs, fmt.Errorf("watch port %q is not a port", c.WatchPort))
		}
	}
	return errors.Join(errs...)
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid integer value for %s: %q", key, valueStr)
	}
	return value, nil
}

func GetEnvAsBool(key string, defaultValue bool) (bool, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid boolean value for %s: %q", key, valueStr)
	}
	return value, nil
}

// GetEnvAsDuration reads an integer count of unit.
func GetEnvAsDuration(key string, defaultValue, unit time.Duration) (time.Duration, error) {
	n, err := GetEnvAsInt(key, 0)
	if err != nil || os.Getenv(key) == "" {
		return defaultValue, err
	}
	return time.Duration(n) * unit, nil
}
