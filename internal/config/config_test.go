package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"ACCOUNTS_PATH", "PROXIES_PATH", "CLAIMLOG_PATH", "ASSISTERR_API_URL", "CLAIM_INTERVAL_MINUTES"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, "accounts.txt", cfg.AccountsPath)
	assert.Equal(t, "proxies.txt", cfg.ProxiesPath)
	assert.Equal(t, "data/claims.db", cfg.ClaimLogPath)
	assert.Equal(t, "https://api.assisterr.ai/incentive", cfg.APIBaseURL)
	assert.Equal(t, time.Hour, cfg.ClaimInterval)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ACCOUNTS_PATH", "wallets/accounts.txt")
	t.Setenv("CLAIM_INTERVAL_MINUTES", "90")
	t.Setenv("ASSISTERR_API_URL", "https://staging.example.com/incentive/")

	cfg := Load()

	assert.Equal(t, "wallets/accounts.txt", cfg.AccountsPath)
	assert.Equal(t, 90*time.Minute, cfg.ClaimInterval)
	assert.Equal(t, "https://staging.example.com/incentive", cfg.APIBaseURL, "trailing slash is trimmed")
}

func TestLoadRejectsBadInterval(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLAIM_INTERVAL_MINUTES", "not-a-number")

	assert.Equal(t, time.Hour, Load().ClaimInterval)

	t.Setenv("CLAIM_INTERVAL_MINUTES", "0")
	assert.Equal(t, time.Hour, Load().ClaimInterval)
}

func TestValidate(t *testing.T) {
	valid := Config{
		AccountsPath:  "accounts.txt",
		APIBaseURL:    "https://api.assisterr.ai/incentive",
		ClaimInterval: time.Hour,
	}
	assert.NoError(t, valid.Validate())

	noAccounts := valid
	noAccounts.AccountsPath = " "
	assert.Error(t, noAccounts.Validate())

	badURL := valid
	badURL.APIBaseURL = "not a url"
	assert.Error(t, badURL.Validate())

	noInterval := valid
	noInterval.ClaimInterval = 0
	assert.Error(t, noInterval.Validate())
}
