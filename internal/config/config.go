package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. USER_RECORDS_MIN_AGE.
const EnvPrefix = "USER_RECORDS"

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

const (
	keyAddr            = "addr"
	keyMinAge          = "min-age"
	keyStore           = "store"
	keyDatabaseURL     = "database-url"
	keyLogLevel        = "log-level"
	keyLogFormat       = "log-format"
	keyAllowOrigins    = "allow-origins"
	keyShutdownTimeout = "shutdown-timeout"
)

const (
	defaultAddr            = ":8080"
	defaultMinAge          = 18
	defaultStore           = StoreMemory
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
	defaultAllowOrigins    = "*"
	defaultShutdownTimeout = 10 * time.Second
)

// Config holds the settings read once at startup.
type Config struct {
	Addr            string
	MinAge          int
	AllowOrigins    string
	ShutdownTimeout time.Duration
	Store           StoreConfig
	Logging         LoggingConfig
}

type StoreConfig struct {
	Driver      string
	DatabaseURL string
}

type LoggingConfig struct {
	Level  string
	Format string // json|console
}

// RegisterFlags declares the command line flags understood by Load.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String(keyAddr, defaultAddr, "address the HTTP server listens on")
	flags.Int(keyMinAge, defaultMinAge, "minimum age in years a user must reach to be created")
	flags.String(keyStore, defaultStore, "record store backend (memory, postgres)")
	flags.String(keyDatabaseURL, "", "PostgreSQL connection string, required for the postgres store")
	flags.String(keyLogLevel, defaultLogLevel, "log level (debug, info, warn, error)")
	flags.String(keyLogFormat, defaultLogFormat, "log format (json, console)")
	flags.String(keyAllowOrigins, defaultAllowOrigins, "comma-separated list of CORS origins")
	flags.Duration(keyShutdownTimeout, defaultShutdownTimeout, "time allowed for graceful shutdown")
}

// Load resolves the configuration from flags, USER_RECORDS_* environment
// variables, .env files and defaults, in that order of precedence. flags may
// be nil.
func Load(flags *pflag.FlagSet) (Config, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(keyAddr, defaultAddr)
	v.SetDefault(keyMinAge, defaultMinAge)
	v.SetDefault(keyStore, defaultStore)
	v.SetDefault(keyDatabaseURL, "")
	v.SetDefault(keyLogLevel, defaultLogLevel)
	v.SetDefault(keyLogFormat, defaultLogFormat)
	v.SetDefault(keyAllowOrigins, defaultAllowOrigins)
	v.SetDefault(keyShutdownTimeout, defaultShutdownTimeout)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	minAge, err := strconv.Atoi(strings.TrimSpace(v.GetString(keyMinAge)))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s value %q: %w", keyMinAge, v.GetString(keyMinAge), err)
	}

	shutdownTimeout, err := time.ParseDuration(v.GetString(keyShutdownTimeout))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s value %q: %w", keyShutdownTimeout, v.GetString(keyShutdownTimeout), err)
	}

	cfg := Config{
		Addr:            v.GetString(keyAddr),
		MinAge:          minAge,
		AllowOrigins:    v.GetString(keyAllowOrigins),
		ShutdownTimeout: shutdownTimeout,
		Store: StoreConfig{
			Driver:      strings.ToLower(strings.TrimSpace(v.GetString(keyStore))),
			DatabaseURL: v.GetString(keyDatabaseURL),
		},
		Logging: LoggingConfig{
			Level:  v.GetString(keyLogLevel),
			Format: strings.ToLower(v.GetString(keyLogFormat)),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.MinAge < 0 {
		return fmt.Errorf("%s must not be negative, got %d", keyMinAge, c.MinAge)
	}
	if c.Addr == "" {
		return fmt.Errorf("%s must not be empty", keyAddr)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%s must be positive, got %s", keyShutdownTimeout, c.ShutdownTimeout)
	}

	switch c.Store.Driver {
	case StoreMemory:
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("%s is required for the %s store", keyDatabaseURL, StorePostgres)
		}
	default:
		return fmt.Errorf("unknown %s %q (expected %s or %s)", keyStore, c.Store.Driver, StoreMemory, StorePostgres)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown %s %q (expected json or console)", keyLogFormat, c.Logging.Format)
	}

	return nil
}
