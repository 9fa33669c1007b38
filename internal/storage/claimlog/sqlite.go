package claimlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// Store keeps a local history of daily claims per public key. It is advisory
// only: eligibility always comes from the server meta endpoint, the log just
// feeds the dashboard and leaves an audit trail across restarts.
type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) init() error {
	createStmt := `CREATE TABLE IF NOT EXISTS claim_logs (
        pubkey TEXT NOT NULL,
        claim_date TEXT NOT NULL,
        claimed INTEGER NOT NULL DEFAULT 0,
        points TEXT,
        next_claim_at TEXT,
        PRIMARY KEY(pubkey, claim_date)
    )`
	_, err := s.db.Exec(createStmt)
	return err
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DailyStatus reports whether a claim was already recorded for the given day.
func (s *Store) DailyStatus(pubkey string, day time.Time) (claimed bool, points, nextClaimAt string, err error) {
	key := normalizeKey(pubkey)
	dateStr := day.UTC().Format(dateLayout)

	var done int
	var pointsNS, nextNS sql.NullString
	err = s.db.QueryRow(`SELECT claimed, points, next_claim_at FROM claim_logs WHERE pubkey = ? AND claim_date = ?`, key, dateStr).
		Scan(&done, &pointsNS, &nextNS)
	if err == sql.ErrNoRows {
		return false, "", "", nil
	}
	if err != nil {
		return false, "", "", err
	}
	claimed = done == 1
	if pointsNS.Valid {
		points = pointsNS.String
	}
	if nextNS.Valid {
		nextClaimAt = nextNS.String
	}
	return claimed, points, nextClaimAt, nil
}

func (s *Store) MarkClaim(pubkey string, day time.Time, points, nextClaimAt string) error {
	key := normalizeKey(pubkey)
	dateStr := day.UTC().Format(dateLayout)

	_, err := s.db.Exec(`INSERT INTO claim_logs(pubkey, claim_date, claimed, points, next_claim_at)
    VALUES(?, ?, 1, ?, ?)
    ON CONFLICT(pubkey, claim_date) DO UPDATE SET claimed = 1, points = excluded.points, next_claim_at = excluded.next_claim_at`, key, dateStr, points, nextClaimAt)
	return err
}

// SetNextEligible records the server-reported eligibility window for days the
// account was checked but not yet due.
func (s *Store) SetNextEligible(pubkey string, day time.Time, nextClaimAt string) error {
	key := normalizeKey(pubkey)
	dateStr := day.UTC().Format(dateLayout)

	_, err := s.db.Exec(`INSERT INTO claim_logs(pubkey, claim_date, next_claim_at)
    VALUES(?, ?, ?)
    ON CONFLICT(pubkey, claim_date) DO UPDATE SET next_claim_at = excluded.next_claim_at`, key, dateStr, nextClaimAt)
	return err
}

func normalizeKey(pubkey string) string {
	return strings.TrimSpace(pubkey)
}
