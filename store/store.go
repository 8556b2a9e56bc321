package store

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"papertrade/broker"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists paper-trading account snapshots to SQLite.
type Store struct {
	db *sql.DB
}

// Snapshot is one account's full persisted state.
type Snapshot struct {
	User      string
	Balance   float64
	Positions map[string]broker.Position
	History   []broker.Transaction
	Watchlist []string
	SavedAt   time.Time
}

// ErrNotFound is returned when no snapshot exists for a user.
var ErrNotFound = fmt.Errorf("store: account not found")

// DB returns the underlying sql.DB for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// Open opens (or creates) the database at path, enables WAL mode and
// initializes the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single-writer; the daemon serializes access behind a mutex anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[store] opened database at %s", path)
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			user       TEXT PRIMARY KEY,
			balance    REAL NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS positions (
			user     TEXT NOT NULL,
			symbol   TEXT NOT NULL,
			qty      INTEGER NOT NULL,
			avg_cost REAL NOT NULL,
			PRIMARY KEY (user, symbol)
		);

		CREATE TABLE IF NOT EXISTS transactions (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			user     TEXT NOT NULL,
			ts       INTEGER NOT NULL,
			action   TEXT NOT NULL,
			symbol   TEXT NOT NULL,
			price    REAL NOT NULL,
			qty      INTEGER NOT NULL,
			fee      REAL NOT NULL,
			tax      REAL NOT NULL,
			pnl      REAL NOT NULL
		);

		CREATE TABLE IF NOT EXISTS watchlists (
			user   TEXT NOT NULL,
			symbol TEXT NOT NULL,
			PRIMARY KEY (user, symbol)
		);
	`)
	return err
}

// SaveSnapshot replaces the persisted state for snap.User in a single
// transaction: positions, history and watchlist are rewritten wholesale.
func (s *Store) SaveSnapshot(snap *Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO accounts (user, balance, updated_at) VALUES (?, ?, ?)`,
		snap.User, snap.Balance, now,
	); err != nil {
		return fmt.Errorf("save account: %w", err)
	}

	for _, table := range []string{"positions", "transactions", "watchlists"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE user = ?`, snap.User); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	posStmt, err := tx.Prepare(`INSERT INTO positions (user, symbol, qty, avg_cost) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer posStmt.Close()
	for symbol, p := range snap.Positions {
		if p.Qty == 0 {
			continue
		}
		if _, err := posStmt.Exec(snap.User, symbol, p.Qty, p.AvgCost); err != nil {
			return fmt.Errorf("save position %s: %w", symbol, err)
		}
	}

	txStmt, err := tx.Prepare(`
		INSERT INTO transactions (user, ts, action, symbol, price, qty, fee, tax, pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer txStmt.Close()
	for _, t := range snap.History {
		if _, err := txStmt.Exec(snap.User, t.Time.Unix(), string(t.Action), t.Symbol,
			t.Price, t.Qty, t.Fee, t.Tax, t.RealizedPnL); err != nil {
			return fmt.Errorf("save transaction: %w", err)
		}
	}

	wlStmt, err := tx.Prepare(`INSERT OR IGNORE INTO watchlists (user, symbol) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer wlStmt.Close()
	for _, symbol := range snap.Watchlist {
		if _, err := wlStmt.Exec(snap.User, symbol); err != nil {
			return fmt.Errorf("save watchlist %s: %w", symbol, err)
		}
	}

	return tx.Commit()
}

// LoadSnapshot reads the persisted state for user. Returns ErrNotFound
// when the account has never been saved.
func (s *Store) LoadSnapshot(user string) (*Snapshot, error) {
	snap := &Snapshot{
		User:      user,
		Positions: make(map[string]broker.Position),
	}

	var updatedAt int64
	err := s.db.QueryRow(`SELECT balance, updated_at FROM accounts WHERE user = ?`, user).
		Scan(&snap.Balance, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	snap.SavedAt = time.Unix(updatedAt, 0)

	rows, err := s.db.Query(`SELECT symbol, qty, avg_cost FROM positions WHERE user = ?`, user)
	if err != nil {
		return nil, fmt.Errorf("load positions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var symbol string
		var p broker.Position
		if err := rows.Scan(&symbol, &p.Qty, &p.AvgCost); err != nil {
			return nil, err
		}
		snap.Positions[symbol] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	txRows, err := s.db.Query(`
		SELECT ts, action, symbol, price, qty, fee, tax, pnl
		FROM transactions WHERE user = ? ORDER BY ts, id
	`, user)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	defer txRows.Close()
	for txRows.Next() {
		var t broker.Transaction
		var ts int64
		var action string
		if err := txRows.Scan(&ts, &action, &t.Symbol, &t.Price, &t.Qty, &t.Fee, &t.Tax, &t.RealizedPnL); err != nil {
			return nil, err
		}
		t.Time = time.Unix(ts, 0)
		t.Action = broker.Action(action)
		snap.History = append(snap.History, t)
	}
	if err := txRows.Err(); err != nil {
		return nil, err
	}

	wlRows, err := s.db.Query(`SELECT symbol FROM watchlists WHERE user = ? ORDER BY symbol`, user)
	if err != nil {
		return nil, fmt.Errorf("load watchlist: %w", err)
	}
	defer wlRows.Close()
	for wlRows.Next() {
		var symbol string
		if err := wlRows.Scan(&symbol); err != nil {
			return nil, err
		}
		snap.Watchlist = append(snap.Watchlist, symbol)
	}
	if err := wlRows.Err(); err != nil {
		return nil, err
	}

	return snap, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
