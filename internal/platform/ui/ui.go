package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ohmynofan/assisterr-daily-bot/internal/domain/model"
	"github.com/pterm/pterm"
)

var (
	multi    *pterm.MultiPrinter
	spinners = make(map[int]*pterm.SpinnerPrinter)
	mu       sync.Mutex
)

func StartUISystem() {
	m, _ := pterm.DefaultMultiPrinter.Start()
	multi = m
}

func StopUISystem() {
	if multi != nil {
		multi.Stop()
	}
}

func UpdateStatus(session model.Session, status string, remainingDelay time.Duration) {
	mu.Lock()
	defer mu.Unlock()

	if multi == nil {
		return
	}

	delayStr := FormatDelay(remainingDelay)
	proxy := defaultString(session.Proxy, "direct")
	points := defaultString(session.Points, "-")
	nextClaim := defaultString(session.NextClaimAt, "-")
	authStatus := defaultString(session.AuthStatus, "WAITING")
	claimStatus := defaultString(session.ClaimStatus, "WAITING")

	content := fmt.Sprintf(`
=============== Account %d ================
Public Key  : %s
Proxy       : %s

Auth        : %s
Daily Claim : %s
Points      : %s
Next Claim  : %s

Status   : %s
Delay    : %s
===========================================`,
		session.AccIdx+1,
		session.PublicKey,
		proxy,
		authStatus,
		claimStatus,
		points,
		nextClaim,
		status,
		delayStr)

	if spinner, ok := spinners[session.AccIdx]; ok {
		spinner.UpdateText(content)
	} else {
		spinner, _ := pterm.DefaultSpinner.
			WithWriter(multi.NewWriter()).
			WithRemoveWhenDone(false).
			Start(content)
		spinners[session.AccIdx] = spinner
	}
}

func FormatDelay(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d H %02d M %02d S", h, m, s)
}

func defaultString(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}
