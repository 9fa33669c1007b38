package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/types"

	adhttp "github.com/ohmynofan/assisterr-daily-bot/internal/adapters/http"
	"github.com/ohmynofan/assisterr-daily-bot/internal/adapters/solana"
	"github.com/ohmynofan/assisterr-daily-bot/internal/domain/model"
	"github.com/ohmynofan/assisterr-daily-bot/internal/platform/logger"
	"github.com/ohmynofan/assisterr-daily-bot/internal/storage/claimlog"
)

const (
	endpointGetMessage = "/auth/login/get_message/"
	endpointLogin      = "/auth/login/"
	endpointRefresh    = "/auth/refresh_token/"
	endpointUserStatus = "/users/me/"
	endpointUserMeta   = "/users/me/meta/"
	endpointDailyClaim = "/users/me/daily_points/"
)

const (
	statusWaiting    = "WAITING"
	statusInProgress = "IN PROGRESS"
	statusDone       = "DONE"
	statusFailed     = "FAILED"
)

var (
	ErrRefreshRejected = errors.New("refresh token rejected")
	ErrLoginRejected   = errors.New("login rejected")
	ErrClaimRejected   = errors.New("claim rejected")
)

// step is one state of the per-account claim workflow:
// CheckStatus -> {Refresh -> CheckStatus | Login} -> FetchMeta -> {wait | Claim} -> Done.
type step int

const (
	stepCheckStatus step = iota
	stepRefresh
	stepLogin
	stepFetchMeta
	stepClaim
	stepDone
)

func (s step) String() string {
	switch s {
	case stepCheckStatus:
		return "CheckStatus"
	case stepRefresh:
		return "Refresh"
	case stepLogin:
		return "Login"
	case stepFetchMeta:
		return "FetchMeta"
	case stepClaim:
		return "Claim"
	case stepDone:
		return "Done"
	}
	return "Unknown"
}

type AssisterrWorker struct {
	api       *adhttp.APIClient
	log       *logger.ClassLogger
	baseURL   string
	store     *claimlog.Store
	session   *model.Session
	wallet    types.Account
	hasWallet bool
	now       func() time.Time
}

func NewAssisterrWorker(api *adhttp.APIClient, log *logger.ClassLogger, baseURL string, store *claimlog.Store, session *model.Session, privateKey string) *AssisterrWorker {
	w := &AssisterrWorker{
		api:     api,
		log:     log,
		baseURL: strings.TrimRight(baseURL, "/"),
		store:   store,
		session: session,
		now:     time.Now,
	}
	wallet, err := solana.Keypair(privateKey)
	if err != nil {
		log.JustLog(fmt.Sprintf("Error decoding private key: %v", err))
	} else {
		w.wallet = wallet
		w.hasWallet = true
	}
	if session != nil {
		session.PublicKey = solana.ResolveIdentity(privateKey)
	}
	return w
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type userStatusResponse struct {
	ID interface{} `json:"id"`
}

type userMetaResponse struct {
	DailyPointsStartAt string `json:"daily_points_start_at"`
}

type claimResponse struct {
	Points             json.RawMessage `json:"points"`
	DailyPointsStartAt string          `json:"daily_points_start_at"`
}

// Run drives one account through the workflow and returns the record to
// persist. On any hard failure the original record comes back unchanged; the
// caller decides whether the error is worth more than a log line.
func (w *AssisterrWorker) Run(ctx context.Context, account model.Account) (model.Account, error) {
	current := account
	state := stepCheckStatus
	refreshAttempted := false

	for state != stepDone {
		w.log.JustLog(fmt.Sprintf("Workflow step: %s", state))

		switch state {
		case stepCheckStatus:
			if !current.HasSession() && !refreshAttempted {
				w.log.Log("No stored session, attempting refresh")
				state = stepRefresh
				break
			}
			valid, err := w.checkStatus(ctx, current.AccessToken)
			if err != nil {
				return account, fmt.Errorf("failed checking user status: %w", err)
			}
			if valid {
				w.setAuthStatus(statusDone)
				state = stepFetchMeta
				break
			}
			if refreshAttempted {
				state = stepLogin
				break
			}
			w.log.Log("Token expired, attempting refresh")
			state = stepRefresh

		case stepRefresh:
			refreshAttempted = true
			w.setAuthStatus(statusInProgress)
			pair, err := w.refreshSession(ctx, current.RefreshToken)
			if err != nil {
				if errors.Is(err, ErrRefreshRejected) {
					w.log.Log("Token refresh failed, attempting new login")
					state = stepLogin
					break
				}
				return account, err
			}
			w.log.Log("Token refreshed successfully")
			current = current.WithTokens(pair.AccessToken, pair.RefreshToken)
			state = stepCheckStatus

		case stepLogin:
			w.setAuthStatus(statusInProgress)
			pair, err := w.login(ctx)
			if err != nil {
				w.setAuthStatus(statusFailed)
				return account, err
			}
			w.log.Log("New login successful")
			current = current.WithTokens(pair.AccessToken, pair.RefreshToken)
			w.setAuthStatus(statusDone)
			state = stepFetchMeta

		case stepFetchMeta:
			nextClaim, err := w.fetchMeta(ctx, current.AccessToken)
			if err != nil {
				return account, fmt.Errorf("failed fetching user meta: %w", err)
			}
			if !nextClaim.IsZero() && nextClaim.After(w.now()) {
				waitMinutes := minutesUntil(w.now(), nextClaim)
				w.log.Log(fmt.Sprintf("Next claim available in %d minutes", waitMinutes))
				w.noteNextEligible(nextClaim)
				w.setClaimStatus(statusWaiting)
				// Not eligible yet. Hand back the refreshed session so any
				// rotated tokens still get persisted.
				return current, nil
			}
			state = stepClaim

		case stepClaim:
			w.setClaimStatus(statusInProgress)
			if err := w.claim(ctx, current.AccessToken); err != nil {
				if errors.Is(err, ErrClaimRejected) {
					// Non-fatal: next cycle retries with the same session.
					w.setClaimStatus(statusFailed)
					state = stepDone
					break
				}
				return account, err
			}
			w.setClaimStatus(statusDone)
			state = stepDone
		}
	}

	return current, nil
}

func (w *AssisterrWorker) checkStatus(ctx context.Context, accessToken string) (bool, error) {
	var status userStatusResponse
	if err := w.fetchJSON(ctx, endpointUserStatus, &adhttp.FetchOptions{Method: "GET", Token: accessToken}, &status); err != nil {
		return false, err
	}
	return status.ID != nil, nil
}

func (w *AssisterrWorker) refreshSession(ctx context.Context, refreshToken string) (tokenPairResponse, error) {
	var pair tokenPairResponse
	err := w.fetchJSON(ctx, endpointRefresh, &adhttp.FetchOptions{Method: "POST", Token: refreshToken}, &pair)
	if err != nil {
		return tokenPairResponse{}, fmt.Errorf("refresh request failed: %w", err)
	}
	if strings.TrimSpace(pair.AccessToken) == "" {
		return tokenPairResponse{}, ErrRefreshRejected
	}
	return pair, nil
}

func (w *AssisterrWorker) login(ctx context.Context) (tokenPairResponse, error) {
	if !w.hasWallet {
		return tokenPairResponse{}, fmt.Errorf("%w: no usable signing key", ErrLoginRejected)
	}

	message, err := w.loginMessage(ctx)
	if err != nil {
		return tokenPairResponse{}, err
	}

	signature, publicKey := solana.SignMessage(w.wallet, message)
	payload := map[string]string{
		"message":   message,
		"signature": signature,
		"key":       publicKey,
	}

	var pair tokenPairResponse
	if err := w.fetchJSON(ctx, endpointLogin, &adhttp.FetchOptions{Method: "POST", Body: payload}, &pair); err != nil {
		return tokenPairResponse{}, fmt.Errorf("login request failed: %w", err)
	}
	if strings.TrimSpace(pair.AccessToken) == "" {
		return tokenPairResponse{}, ErrLoginRejected
	}
	return pair, nil
}

// loginMessage fetches the one-time challenge. The server wraps the free-text
// message in quotes; they are not part of the signed bytes.
func (w *AssisterrWorker) loginMessage(ctx context.Context) (string, error) {
	raw, err := w.api.Fetch(ctx, w.baseURL+endpointGetMessage, &adhttp.FetchOptions{Method: "GET"})
	if err != nil {
		return "", fmt.Errorf("failed to fetch login message: %w", err)
	}
	message, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("unexpected login message payload: %T", raw)
	}
	message = strings.Trim(strings.TrimSpace(message), `'"`)
	if message == "" {
		return "", fmt.Errorf("received empty login message")
	}
	return message, nil
}

func (w *AssisterrWorker) fetchMeta(ctx context.Context, accessToken string) (time.Time, error) {
	var meta userMetaResponse
	if err := w.fetchJSON(ctx, endpointUserMeta, &adhttp.FetchOptions{Method: "GET", Token: accessToken}, &meta); err != nil {
		return time.Time{}, err
	}
	if strings.TrimSpace(meta.DailyPointsStartAt) == "" {
		return time.Time{}, nil
	}
	nextClaim, err := time.Parse(time.RFC3339, meta.DailyPointsStartAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse daily_points_start_at: %w", err)
	}
	return nextClaim, nil
}

func (w *AssisterrWorker) claim(ctx context.Context, accessToken string) error {
	raw, err := w.api.Fetch(ctx, w.baseURL+endpointDailyClaim, &adhttp.FetchOptions{Method: "POST", Token: accessToken})
	if err != nil {
		var httpErr *adhttp.HTTPError
		if errors.As(err, &httpErr) && json.Valid(httpErr.Body) {
			raw = nil
			if uerr := json.Unmarshal(httpErr.Body, &raw); uerr != nil {
				return fmt.Errorf("claim request failed: %w", err)
			}
		} else {
			return fmt.Errorf("claim request failed: %w", err)
		}
	}

	var res claimResponse
	if err := decodeInto(raw, &res); err != nil {
		return fmt.Errorf("failed to decode claim response: %w", err)
	}

	if !hasPoints(res.Points) {
		w.log.LogObject("Claim failed, raw response", raw)
		w.log.Log("Claim failed, retrying next cycle")
		return fmt.Errorf("%w: response carried no points", ErrClaimRejected)
	}

	points := string(bytes.TrimSpace(res.Points))
	w.log.Log(fmt.Sprintf("Claim successful! Received %s points", points))
	if w.session != nil {
		w.session.Points = points
	}

	if nextClaim, err := time.Parse(time.RFC3339, res.DailyPointsStartAt); err == nil {
		w.log.Log(fmt.Sprintf("Next claim available at %s", nextClaim.Local().Format("2006-01-02 15:04:05")))
		w.noteNextEligible(nextClaim)
	}
	w.markClaimed(points, res.DailyPointsStartAt)
	return nil
}

// fetchJSON decodes a response body into out. The incentive API signals
// rejection through the body shape rather than just the status code, so a
// non-2xx reply with a JSON body is decoded instead of bubbling up as an
// error; callers branch on missing fields.
func (w *AssisterrWorker) fetchJSON(ctx context.Context, endpoint string, opts *adhttp.FetchOptions, out interface{}) error {
	raw, err := w.api.Fetch(ctx, w.baseURL+endpoint, opts)
	if err != nil {
		var httpErr *adhttp.HTTPError
		if errors.As(err, &httpErr) && json.Valid(httpErr.Body) {
			return json.Unmarshal(httpErr.Body, out)
		}
		return err
	}
	return decodeInto(raw, out)
}

func (w *AssisterrWorker) markClaimed(points, nextClaimAt string) {
	if w.store == nil || w.session == nil {
		return
	}
	if err := w.store.MarkClaim(w.session.PublicKey, w.now().UTC(), points, nextClaimAt); err != nil {
		w.log.JustLog(fmt.Sprintf("Warning: failed to record claim: %v", err))
	}
}

func (w *AssisterrWorker) noteNextEligible(nextClaim time.Time) {
	if w.session != nil {
		w.session.NextClaimAt = nextClaim.Local().Format("2006-01-02 15:04:05")
	}
	if w.store == nil || w.session == nil {
		return
	}
	if err := w.store.SetNextEligible(w.session.PublicKey, w.now().UTC(), nextClaim.UTC().Format(time.RFC3339)); err != nil {
		w.log.JustLog(fmt.Sprintf("Warning: failed to record eligibility window: %v", err))
	}
}

func (w *AssisterrWorker) setAuthStatus(status string) {
	if w.session != nil {
		w.session.AuthStatus = status
	}
}

func (w *AssisterrWorker) setClaimStatus(status string) {
	if w.session != nil {
		w.session.ClaimStatus = status
	}
}

// minutesUntil reports the remaining wait in whole minutes, rounded up.
func minutesUntil(now, next time.Time) int {
	return int(math.Ceil(next.Sub(now).Minutes()))
}

func hasPoints(points json.RawMessage) bool {
	trimmed := bytes.TrimSpace(points)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func decodeInto(in interface{}, out interface{}) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
