package worker

import (
	"context"
	"fmt"

	adhttp "github.com/ohmynofan/assisterr-daily-bot/internal/adapters/http"
	"github.com/ohmynofan/assisterr-daily-bot/internal/config"
	"github.com/ohmynofan/assisterr-daily-bot/internal/domain/model"
	"github.com/ohmynofan/assisterr-daily-bot/internal/platform/logger"
	"github.com/ohmynofan/assisterr-daily-bot/internal/storage/claimlog"
	"github.com/ohmynofan/assisterr-daily-bot/pkg/utils"
)

// ProcessAccount runs the claim workflow for a single account and returns the
// record to persist. Every failure mode is contained here: whatever goes
// wrong, the caller gets a record back and the batch moves on to the next
// account.
func ProcessAccount(ctx context.Context, account model.Account, index int, proxy string, cfg config.Config, store *claimlog.Store) (result model.Account) {
	result = account

	session := model.Session{AccIdx: index, Proxy: proxy, AuthStatus: statusWaiting, ClaimStatus: statusWaiting}
	log := logger.NewNamed(fmt.Sprintf("Claimer - Account %d", index+1), &session)

	defer func() {
		if r := recover(); r != nil {
			log.Log(fmt.Sprintf("Recovered from panic: %v", r), 0)
			result = account
		}
	}()

	apiClient, err := adhttp.NewAPIClient(proxy, &session)
	if err != nil {
		log.Log(fmt.Sprintf("Could not initialize API client: %v", err), 0)
		return account
	}

	w := NewAssisterrWorker(apiClient, log, cfg.APIBaseURL, store, &session, account.PrivateKey)
	log.Log(fmt.Sprintf("Processing %s", utils.ShortenKey(session.PublicKey)))

	updated, err := w.Run(ctx, account)
	if err != nil {
		log.Log(fmt.Sprintf("Account iteration failed: %v", err), 0)
		return account
	}
	return updated
}
