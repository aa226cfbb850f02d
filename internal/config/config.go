package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. AUCTION_SWEEPER_INTERVAL
const EnvPrefix = "AUCTION"

// Config represents the complete auction house configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Bidding BiddingConfig `mapstructure:"bidding"`
	Auction AuctionConfig `mapstructure:"auction"`
	Sweeper SweeperConfig `mapstructure:"sweeper"`
	Logging LoggingConfig `mapstructure:"logging"`
	Seed    SeedConfig    `mapstructure:"seed"`
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	// Port is the listen address, either ":8080" or a bare "8080"
	Port string `mapstructure:"port"`
	// RequestTimeout bounds reading a request
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// BiddingConfig controls the write path
type BiddingConfig struct {
	// LockTimeout is how long a write waits for its auction before reporting it unavailable
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
	// MaxConflictRetries is how many times a bid is retried after a version conflict
	MaxConflictRetries int `mapstructure:"max_conflict_retries"`
}

// AuctionConfig controls auction creation
type AuctionConfig struct {
	// LiveOnCreate opens auctions without a starts_at immediately (default: true)
	LiveOnCreate bool `mapstructure:"live_on_create"`
}

// SweeperConfig controls the background lifecycle sweep
type SweeperConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Interval    time.Duration `mapstructure:"interval"`
	Parallelism int           `mapstructure:"parallelism"`
}

// LoggingConfig controls the log level
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `mapstructure:"level"`
}

// SeedConfig controls demo data
type SeedConfig struct {
	// Demo creates a few sample auctions at startup
	Demo bool `mapstructure:"demo"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           ":8080",
			RequestTimeout: 5 * time.Second,
		},
		Bidding: BiddingConfig{
			LockTimeout:        2 * time.Second,
			MaxConflictRetries: 3,
		},
		Auction: AuctionConfig{
			LiveOnCreate: true,
		},
		Sweeper: SweeperConfig{
			Enabled:     true,
			Interval:    time.Second,
			Parallelism: 8,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// SetDefaults registers every default with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("server.port", defaults.Server.Port)
	viper.SetDefault("server.request_timeout", defaults.Server.RequestTimeout)

	viper.SetDefault("bidding.lock_timeout", defaults.Bidding.LockTimeout)
	viper.SetDefault("bidding.max_conflict_retries", defaults.Bidding.MaxConflictRetries)

	viper.SetDefault("auction.live_on_create", defaults.Auction.LiveOnCreate)

	viper.SetDefault("sweeper.enabled", defaults.Sweeper.Enabled)
	viper.SetDefault("sweeper.interval", defaults.Sweeper.Interval)
	viper.SetDefault("sweeper.parallelism", defaults.Sweeper.Parallelism)

	viper.SetDefault("logging.level", defaults.Logging.Level)

	viper.SetDefault("seed.demo", defaults.Seed.Demo)
}

// Init sets defaults, environment overrides and reads cfgFile if given.
// Without cfgFile an optional ./config.yaml is picked up.
func Init(cfgFile string) error {
	SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix(EnvPrefix)
	// e.g., AUCTION_BIDDING_LOCK_TIMEOUT for bidding.lock_timeout
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	// PORT is the conventional platform variable; the prefixed one wins
	if err := viper.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT"); err != nil {
		return fmt.Errorf("config: bind port env: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", cfgFile, err)
	}
	return nil
}

// Load unmarshals and validates the current viper state
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Addr returns the port in listen-address form
func (c ServerConfig) Addr() string {
	if strings.HasPrefix(c.Port, ":") || strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the accepted logging.level values
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if strings.TrimPrefix(c.Server.Port, ":") == "" {
		errs = append(errs, ValidationError{Field: "server.port", Value: c.Server.Port, Message: "must not be empty"})
	}
	if c.Server.RequestTimeout < 0 {
		errs = append(errs, ValidationError{Field: "server.request_timeout", Value: c.Server.RequestTimeout, Message: "must not be negative"})
	}
	if c.Bidding.LockTimeout < 0 {
		errs = append(errs, ValidationError{Field: "bidding.lock_timeout", Value: c.Bidding.LockTimeout, Message: "must not be negative"})
	}
	if c.Bidding.MaxConflictRetries < 0 {
		errs = append(errs, ValidationError{Field: "bidding.max_conflict_retries", Value: c.Bidding.MaxConflictRetries, Message: "must not be negative"})
	}
	if c.Sweeper.Enabled && c.Sweeper.Interval <= 0 {
		errs = append(errs, ValidationError{Field: "sweeper.interval", Value: c.Sweeper.Interval, Message: "must be positive when the sweeper is enabled"})
	}
	if c.Sweeper.Parallelism < 1 {
		errs = append(errs, ValidationError{Field: "sweeper.parallelism", Value: c.Sweeper.Parallelism, Message: "must be at least 1"})
	}
	if !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: "must be one of " + strings.Join(ValidLogLevels(), ", "),
		})
	}

	return errs
}
