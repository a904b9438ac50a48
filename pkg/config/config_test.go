package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "test-config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))
	return configPath
}

func TestLoad(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		t.Setenv("TEST_APP_HASH", "0123456789abcdef")
		t.Setenv("PRIVATE_SIGNALS_LINK", "https://t.me/+secret1")
		t.Setenv("INVITE_LINK_CRYPTO_CLUB", "https://t.me/+secret2")

		cfg, err := Load(writeConfig(t, `
sources:
  - name: durov
  - name: Private Signals
    invite_env: PRIVATE_SIGNALS_LINK
  - Crypto Club
window:
  start: 2025-01-01
telegram:
  app_id: 12345
  app_hash: ${TEST_APP_HASH}
  transports: [abridged, full, intermediate]
  dialog_pages: 3
crawl:
  max_retries: 3
  retry_delay: 2s
  batch_size: 50
database:
  dsn: "file:test.db"
export:
  dir: /tmp/out
  formats: [csv, rss]
`))
		require.NoError(t, err)

		require.Len(t, cfg.Sources, 3)
		assert.Equal(t, "durov", cfg.Sources[0].Name)
		assert.Equal(t, "PRIVATE_SIGNALS_LINK", cfg.Sources[1].InviteEnv)
		assert.Equal(t, "Crypto Club", cfg.Sources[2].Name)

		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local), cfg.Window.Start.Time)
		assert.Equal(t, 12345, cfg.Telegram.AppID)
		assert.Equal(t, "0123456789abcdef", cfg.Telegram.AppHash)
		assert.Equal(t, []string{"abridged", "full", "intermediate"}, cfg.Telegram.Transports)
		assert.Equal(t, 3, cfg.Telegram.DialogPages)
		assert.Equal(t, 3, cfg.Crawl.MaxRetries)
		assert.Equal(t, 2*time.Second, cfg.Crawl.RetryDelay)
		assert.Equal(t, 50, cfg.Crawl.BatchSize)
		assert.Equal(t, "file:test.db", cfg.Database.DSN)
		assert.Equal(t, []string{"csv", "rss"}, cfg.Export.Formats)

		assert.Equal(t, map[string]string{
			"Private Signals": "https://t.me/+secret1",
			"Crypto Club":     "https://t.me/+secret2",
		}, cfg.Invites)
		assert.ElementsMatch(t, []string{"0123456789abcdef", "https://t.me/+secret1", "https://t.me/+secret2"}, cfg.Secrets())
	})

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
sources: [news]
window:
  start: "2025-01-01 12:30:00"
telegram:
  app_id: 1
  app_hash: hash
`))
		require.NoError(t, err)

		assert.Equal(t, time.Date(2025, 1, 1, 12, 30, 0, 0, time.Local), cfg.Window.Start.Time)
		assert.Equal(t, "chanscope.session.json", cfg.Telegram.SessionFile)
		assert.Equal(t, []string{"abridged", "full"}, cfg.Telegram.Transports)
		assert.Equal(t, 30*time.Second, cfg.Telegram.DialTimeout)
		assert.Equal(t, time.Minute, cfg.Telegram.MaxFloodWait)
		assert.Equal(t, 10, cfg.Telegram.DialogPages)
		assert.Equal(t, 5, cfg.Crawl.MaxRetries)
		assert.Equal(t, 5*time.Second, cfg.Crawl.RetryDelay)
		assert.Equal(t, 100, cfg.Crawl.BatchSize)
		assert.Equal(t, 5, cfg.Crawl.FetchRetries)
		assert.Equal(t, 5*time.Second, cfg.Crawl.FetchRetryDelay)
		assert.Equal(t, time.Minute, cfg.Crawl.FetchMaxDelay)
		assert.Equal(t, 5, cfg.Crawl.SearchLimit)
		assert.Equal(t, "file:chanscope.db?cache=shared&mode=rwc&_txlock=immediate", cfg.Database.DSN)
		assert.Equal(t, 1, cfg.Database.MaxOpenConns)
		assert.Equal(t, "export", cfg.Export.Dir)
		assert.Equal(t, []string{"csv"}, cfg.Export.Formats)
		assert.Equal(t, 4, cfg.Export.Concurrency)
		assert.Empty(t, cfg.Invites)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load("/nonexistent/config.yml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read config file")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "sources: [unclosed"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse config")
	})

	t.Run("invalid date", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
sources: [news]
window:
  start: 01/01/2025
telegram:
  app_id: 1
  app_hash: hash
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid date")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{Sources: []SourceConfig{{Name: "news"}, {Name: "Crypto Club"}}}
		cfg.Window.Start = Date{Time: time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)}
		cfg.Telegram.AppID = 1
		cfg.Telegram.AppHash = "hash"
		setDefaults(cfg)
		return cfg
	}
	require.NoError(t, validate(valid()))

	tests := []struct {
		name   string
		modify func(cfg *Config)
		errMsg string
	}{
		{"no sources", func(cfg *Config) { cfg.Sources = nil }, "at least one source"},
		{"empty name", func(cfg *Config) { cfg.Sources[1].Name = "" }, "sources[1]: name is required"},
		{"duplicate name", func(cfg *Config) { cfg.Sources[1].Name = "NEWS" }, "duplicate name"},
		{"control characters", func(cfg *Config) { cfg.Sources[0].Name = "bad\x07name" }, "control characters"},
		{"no window start", func(cfg *Config) { cfg.Window.Start = Date{} }, "window.start is required"},
		{"future window start", func(cfg *Config) { cfg.Window.Start = Date{Time: time.Now().Add(time.Hour)} }, "in the future"},
		{"no app id", func(cfg *Config) { cfg.Telegram.AppID = 0 }, "telegram.app_id"},
		{"no app hash", func(cfg *Config) { cfg.Telegram.AppHash = "" }, "telegram.app_hash"},
		{"bad transport", func(cfg *Config) { cfg.Telegram.Transports = []string{"udp"} }, "unknown transport"},
		{"bad proxy scheme", func(cfg *Config) { cfg.Telegram.Proxy = "http://proxy:8080" }, "telegram.proxy"},
		{"proxy without host", func(cfg *Config) { cfg.Telegram.Proxy = "socks5://" }, "telegram.proxy"},
		{"negative dialog pages", func(cfg *Config) { cfg.Telegram.DialogPages = -1 }, "telegram.dialog_pages"},
		{"batch too large", func(cfg *Config) { cfg.Crawl.BatchSize = 500 }, "batch_size"},
		{"negative delay", func(cfg *Config) { cfg.Crawl.RetryDelay = -time.Second }, "non-negative"},
		{"bad export format", func(cfg *Config) { cfg.Export.Formats = []string{"xlsx"} }, "unknown format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			err := validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestParseDate(t *testing.T) {
	tbl := []struct {
		in   string
		want time.Time
		err  bool
	}{
		{"2025-01-01", time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local), false},
		{" 2025-01-03 23:59:59 ", time.Date(2025, 1, 3, 23, 59, 59, 0, time.Local), false},
		{"2025-01-03T10:00:00", time.Date(2025, 1, 3, 10, 0, 0, 0, time.Local), false},
		{"2025-01-03T10:00:00Z", time.Date(2025, 1, 3, 10, 0, 0, 0, time.UTC), false},
		{"yesterday", time.Time{}, true},
	}
	for _, tt := range tbl {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDate(tt.in)
			if tt.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(d.Time), "got %v", d.Time)
		})
	}
}

func TestInviteEnvName(t *testing.T) {
	assert.Equal(t, "INVITE_LINK_CRYPTO_CLUB", InviteEnvName("Crypto Club"))
	assert.Equal(t, "INVITE_LINK_RAVENSIGNALSPRO", InviteEnvName("RAVENSignalsPro"))
	assert.Equal(t, "INVITE_LINK_A_B_C", InviteEnvName("a-b.c"))
}

func TestCollectInvites(t *testing.T) {
	env := map[string]string{
		"INVITE_LINK_RAVENSignalsPro": "as-is",
		"INVITE_LINK_CRYPTO_CLUB":     "normalized",
		"CUSTOM":                      " custom ",
		"INVITE_LINK_OVERRIDDEN":      "ignored",
	}
	getenv := func(k string) string { return env[k] }

	res := collectInvites([]SourceConfig{
		{Name: "RAVENSignalsPro"},
		{Name: "Crypto Club"},
		{Name: "overridden", InviteEnv: "CUSTOM"},
		{Name: "public"},
	}, getenv)
	assert.Equal(t, map[string]string{
		"RAVENSignalsPro": "as-is",
		"Crypto Club":     "normalized",
		"overridden":      "custom",
	}, res)
}
