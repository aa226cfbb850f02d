package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// viper is process-global, so these tests do not run in parallel

func TestDefault(t *testing.T) {
	cfg := Default()

	require.Equal(t, ":8080", cfg.Server.Port)
	require.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	require.Equal(t, 2*time.Second, cfg.Bidding.LockTimeout)
	require.Equal(t, 3, cfg.Bidding.MaxConflictRetries)
	require.True(t, cfg.Auction.LiveOnCreate)
	require.True(t, cfg.Sweeper.Enabled)
	require.Equal(t, time.Second, cfg.Sweeper.Interval)
	require.Equal(t, 8, cfg.Sweeper.Parallelism)
	require.Equal(t, "info", cfg.Logging.Level)
	require.False(t, cfg.Seed.Demo)
	require.Empty(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	chdir(t, t.TempDir())

	require.NoError(t, Init(""))
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad_EnvOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	chdir(t, t.TempDir())

	t.Setenv("AUCTION_BIDDING_LOCK_TIMEOUT", "250ms")
	t.Setenv("AUCTION_AUCTION_LIVE_ON_CREATE", "false")
	t.Setenv("AUCTION_SWEEPER_PARALLELISM", "2")
	t.Setenv("PORT", "9090")

	require.NoError(t, Init(""))
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 250*time.Millisecond, cfg.Bidding.LockTimeout)
	require.False(t, cfg.Auction.LiveOnCreate)
	require.Equal(t, 2, cfg.Sweeper.Parallelism)
	require.Equal(t, ":9090", cfg.Server.Addr())
}

func TestLoad_PrefixedPortWins(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	chdir(t, t.TempDir())

	t.Setenv("PORT", "9090")
	t.Setenv("AUCTION_SERVER_PORT", ":7070")

	require.NoError(t, Init(""))
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.Server.Addr())
}

func TestLoad_ConfigFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "auction.yaml")
	content := `
server:
  port: ":8181"
sweeper:
  enabled: false
  interval: 0s
logging:
  level: debug
seed:
  demo: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	require.NoError(t, Init(path))
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8181", cfg.Server.Port)
	require.False(t, cfg.Sweeper.Enabled)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.True(t, cfg.Seed.Demo)
	require.Equal(t, 2*time.Second, cfg.Bidding.LockTimeout, "unset keys keep defaults")
}

func TestInit_MissingExplicitFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	err := Init(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	chdir(t, t.TempDir())

	t.Setenv("AUCTION_LOGGING_LEVEL", "verbose")
	t.Setenv("AUCTION_SWEEPER_PARALLELISM", "0")

	require.NoError(t, Init(""))
	_, err := Load()
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 2)
	require.Contains(t, err.Error(), "logging.level")
	require.Contains(t, err.Error(), "sweeper.parallelism")
}

func TestServerConfig_Addr(t *testing.T) {
	tests := []struct {
		port string
		want string
	}{
		{":8080", ":8080"},
		{"8080", ":8080"},
		{"127.0.0.1:8080", "127.0.0.1:8080"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, ServerConfig{Port: tt.port}.Addr())
	}
}
