// Package storage provides the SQLite-backed ledger of notifications the relay
// has already forwarded.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/rewired-gh/tickerdesk/internal/models"
)

// Entry is one relayed notification.
type Entry struct {
	ID             string
	NotificationID string
	Ticker         string
	Severity       models.Severity
	Message        string
	CreatedAt      time.Time
	RelayedAt      time.Time
}

// Storage wraps a SQLite database holding the relay ledger.
type Storage struct {
	db         *sql.DB
	maxEntries int
	now        func() time.Time
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/tickerdesk/ledger.db.
func New(maxEntries int, dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "tickerdesk", "ledger.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Storage{db: db, maxEntries: maxEntries, now: time.Now}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS relayed (
			id              TEXT PRIMARY KEY,
			notification_id TEXT NOT NULL UNIQUE,
			ticker          TEXT,
			severity        TEXT NOT NULL,
			message         TEXT NOT NULL,
			created_at      INTEGER NOT NULL,
			relayed_at      INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_relayed_at ON relayed(relayed_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// MarkRelayed records n as delivered. Recording the same notification twice
// keeps the first record.
func (s *Storage) MarkRelayed(n models.Notification) error {
	if n.ID == "" {
		return errors.New("notification id must not be empty")
	}
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO relayed
			(id, notification_id, ticker, severity, message, created_at, relayed_at)
		VALUES (?,?,?,?,?,?,?)`,
		uuid.NewString(), n.ID, n.Ticker, string(n.Severity), n.Message,
		n.CreatedAt.UnixNano(), s.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record relayed notification: %w", err)
	}
	return nil
}

// WasRelayed reports whether the notification with id has been delivered.
func (s *Storage) WasRelayed(id string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM relayed WHERE notification_id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query ledger: %w", err)
	}
	return n > 0, nil
}

// Recent returns up to k entries, most recently relayed first.
func (s *Storage) Recent(k int) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, notification_id, ticker, severity, message, created_at, relayed_at
		FROM relayed ORDER BY relayed_at DESC, rowid DESC LIMIT ?`, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var ticker sql.NullString
		var severity string
		var createdAtNano, relayedAtNano int64
		if err := rows.Scan(&e.ID, &e.NotificationID, &ticker, &severity, &e.Message, &createdAtNano, &relayedAtNano); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.Ticker = ticker.String
		e.Severity = models.Severity(severity)
		e.CreatedAt = time.Unix(0, createdAtNano)
		e.RelayedAt = time.Unix(0, relayedAtNano)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of ledger entries.
func (s *Storage) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM relayed`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count ledger: %w", err)
	}
	return n, nil
}

// Prune trims the ledger to the maxEntries most recently relayed entries and
// returns how many were removed. Entries whose notification id is in keep are
// never removed, however old, so a notification the backend still lists is
// not mistaken for a new one.
func (s *Storage) Prune(keep []string) (int, error) {
	query := `
		DELETE FROM relayed WHERE id NOT IN (
			SELECT id FROM relayed ORDER BY relayed_at DESC, rowid DESC LIMIT ?
		)`
	args := []interface{}{s.maxEntries}
	if len(keep) > 0 {
		query += ` AND notification_id NOT IN (?` + strings.Repeat(",?", len(keep)-1) + `)`
		for _, id := range keep {
			args = append(args, id)
		}
	}

	res, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to prune ledger: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
