package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000/api", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Polling.Prices)
	assert.Equal(t, 60*time.Second, cfg.Polling.Signals)
	assert.Equal(t, 10.0, cfg.Limits.ProfitTargetPct)
	assert.Equal(t, 5.0, cfg.Limits.DailyLossLimitPct)
	assert.Equal(t, StoreFile, cfg.Session.Store)
	assert.Equal(t, "token", cfg.Session.TokenKey)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "values.yaml")
	body := `
api:
  base_url: https://desk.example.com/api
polling:
  account: 15s
limits:
  profit_target_pct: 8
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("DESK_POLLING_PRICES", "5s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://desk.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Polling.Account)
	assert.Equal(t, 5*time.Second, cfg.Polling.Prices)
	assert.Equal(t, 8.0, cfg.Limits.ProfitTargetPct)
	assert.Equal(t, 8.0, NewLimits(cfg).ProfitTargetPct)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	bad := *cfg
	bad.Session.Store = StorePostgres
	assert.Error(t, bad.Validate(), "postgres without a dsn")

	bad = *cfg
	bad.API.BaseURL = "localhost"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Limits.ProfitTargetPct = 0
	assert.Error(t, bad.Validate())
}
