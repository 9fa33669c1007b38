package credstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ohmynofan/assisterr-daily-bot/internal/domain/model"
)

// Store reads and rewrites the two flat input files: accounts.txt with one
// `accessToken:refreshToken:privateKey` record per line, and proxies.txt with
// one proxy URI per line. Both are re-read every cycle so external edits take
// effect without a restart.
//
// The account format has no escaping; a token containing ':' would corrupt
// its line on the next rewrite. Known limitation of the upstream file format.
type Store struct {
	accountsPath string
	proxiesPath  string
}

func New(accountsPath, proxiesPath string) *Store {
	return &Store{accountsPath: accountsPath, proxiesPath: proxiesPath}
}

func (s *Store) LoadAccounts() ([]model.Account, error) {
	data, err := os.ReadFile(s.accountsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read accounts file: %w", err)
	}

	accounts := make([]model.Account, 0)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 3)
		if len(parts) != 3 {
			continue
		}
		accounts = append(accounts, model.Account{
			AccessToken:  parts[0],
			RefreshToken: parts[1],
			PrivateKey:   parts[2],
		})
	}
	return accounts, nil
}

// SaveAccounts rewrites the whole accounts file in record order. The write
// goes through a temp file and rename, so a crash mid-write never leaves a
// truncated credential file behind.
func (s *Store) SaveAccounts(accounts []model.Account) error {
	var content strings.Builder
	for _, acc := range accounts {
		content.WriteString(fmt.Sprintf("%s:%s:%s\n", acc.AccessToken, acc.RefreshToken, acc.PrivateKey))
	}

	dir := filepath.Dir(s.accountsPath)
	tmp, err := os.CreateTemp(dir, ".accounts-*")
	if err != nil {
		return fmt.Errorf("failed to create temp accounts file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(content.String()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write accounts file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close accounts file: %w", err)
	}
	if err := os.Rename(tmpPath, s.accountsPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace accounts file: %w", err)
	}
	return nil
}

func (s *Store) LoadProxies() ([]string, error) {
	data, err := os.ReadFile(s.proxiesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read proxies file: %w", err)
	}

	proxies := make([]string, 0)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			proxies = append(proxies, line)
		}
	}
	return proxies, nil
}

// ProxyFor assigns proxies round-robin by account index. An empty pool means
// direct connection.
func ProxyFor(proxies []string, idx int) string {
	if len(proxies) == 0 {
		return ""
	}
	return proxies[idx%len(proxies)]
}
