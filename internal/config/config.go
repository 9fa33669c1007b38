package config

import (
	"errors"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AccountsPath  string
	ProxiesPath   string
	ClaimLogPath  string
	APIBaseURL    string
	ClaimInterval time.Duration
}

const defaultAPIBaseURL = "https://api.assisterr.ai/incentive"

func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using default values")
	}

	intervalMinutes := parseIntWithDefault(os.Getenv("CLAIM_INTERVAL_MINUTES"), 60)
	if intervalMinutes <= 0 {
		intervalMinutes = 60
	}

	return Config{
		AccountsPath:  stringWithDefault(os.Getenv("ACCOUNTS_PATH"), "accounts.txt"),
		ProxiesPath:   stringWithDefault(os.Getenv("PROXIES_PATH"), "proxies.txt"),
		ClaimLogPath:  stringWithDefault(os.Getenv("CLAIMLOG_PATH"), "data/claims.db"),
		APIBaseURL:    strings.TrimRight(stringWithDefault(os.Getenv("ASSISTERR_API_URL"), defaultAPIBaseURL), "/"),
		ClaimInterval: time.Duration(intervalMinutes) * time.Minute,
	}
}

func stringWithDefault(value, defaultVal string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultVal
	}
	return value
}

func parseIntWithDefault(value string, defaultVal int) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultVal
	}
	if v, err := strconv.Atoi(value); err == nil && v >= 0 {
		return v
	}
	return defaultVal
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.AccountsPath) == "" {
		return errors.New("accounts path is required")
	}
	if u, err := url.Parse(c.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("invalid API base URL (set ASSISTERR_API_URL to a full https URL)")
	}
	if c.ClaimInterval <= 0 {
		return errors.New("claim interval must be positive")
	}
	return nil
}
