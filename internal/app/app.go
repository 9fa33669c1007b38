package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ohmynofan/assisterr-daily-bot/internal/app/worker"
	"github.com/ohmynofan/assisterr-daily-bot/internal/config"
	"github.com/ohmynofan/assisterr-daily-bot/internal/domain/model"
	"github.com/ohmynofan/assisterr-daily-bot/internal/platform/logger"
	"github.com/ohmynofan/assisterr-daily-bot/internal/storage/claimlog"
	"github.com/ohmynofan/assisterr-daily-bot/internal/storage/credstore"
)

type App struct{ cfg config.Config }

func New(cfg config.Config) *App { return &App{cfg: cfg} }

// Run executes claim cycles until the context is cancelled. Input files are
// re-read at the start of each cycle so external edits take effect, accounts
// are processed strictly in file order, and the credential file is rewritten
// once after the full pass.
func (app *App) Run(ctx context.Context) error {
	store, err := claimlog.NewStore(app.cfg.ClaimLogPath)
	if err != nil {
		return err
	}
	defer store.Close()

	files := credstore.New(app.cfg.AccountsPath, app.cfg.ProxiesPath)
	log := logger.NewNamed("CycleDriver", nil)

	for {
		app.runCycle(ctx, files, store, log)

		log.JustLog(fmt.Sprintf("All accounts processed, next cycle in %s", app.cfg.ClaimInterval))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(app.cfg.ClaimInterval):
		}
	}
}

func (app *App) runCycle(ctx context.Context, files *credstore.Store, store *claimlog.Store, log *logger.ClassLogger) {
	accounts, err := files.LoadAccounts()
	if err != nil {
		// A missing or unreadable accounts file makes this a trivial cycle,
		// not a crash. Skipping the rewrite below leaves the file untouched.
		log.JustLog(fmt.Sprintf("Error reading accounts: %v", err))
		return
	}

	proxies, err := files.LoadProxies()
	if err != nil {
		log.JustLog(fmt.Sprintf("Error reading proxies, using direct connections: %v", err))
		proxies = nil
	}

	log.JustLog(fmt.Sprintf("Processing %d accounts with %d proxies", len(accounts), len(proxies)))

	updated := make([]model.Account, 0, len(accounts))
	for idx, account := range accounts {
		if ctx.Err() != nil {
			// Shutting down: carry the remaining records through unchanged
			// so the rewrite below loses nothing.
			updated = append(updated, accounts[idx:]...)
			break
		}
		updated = append(updated, worker.ProcessAccount(ctx, account, idx, credstore.ProxyFor(proxies, idx), app.cfg, store))
	}

	if err := files.SaveAccounts(updated); err != nil {
		log.JustLog(fmt.Sprintf("Error updating accounts file: %v", err))
	}
}
