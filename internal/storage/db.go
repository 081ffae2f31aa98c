package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Profile selects the PRAGMA tuning applied to the connection, the same
// three-way split the teacher's database package offers: a run ledger
// wants maximum durability, a scratch/history cache wants speed.
type Profile string

const (
	ProfileLedger  Profile = "ledger"
	ProfileCache   Profile = "cache"
	ProfileStandard Profile = "standard"
)

// DB wraps a PRAGMA-tuned sqlite connection for one run's ledger.
type DB struct {
	conn    *sql.DB
	path    string
	profile Profile
	name    string
}

// Config describes how to open a ledger database.
type Config struct {
	Path    string
	Profile Profile
	Name    string
}

// Open opens (creating if necessary) the sqlite database described by
// cfg, applying profile-specific PRAGMAs via the connection string.
func Open(cfg Config) (*DB, error) {
	if !strings.HasPrefix(cfg.Path, "file:") {
		absPath, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("storage: failed to resolve db path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return nil, fmt.Errorf("storage: failed to create db directory: %w", err)
		}
		cfg.Path = absPath
	}
	if cfg.Profile == "" {
		cfg.Profile = ProfileStandard
	}

	conn, err := sql.Open("sqlite", connectionString(cfg.Path, cfg.Profile))
	if err != nil {
		return nil, fmt.Errorf("storage: failed to open %s: %w", cfg.Name, err)
	}
	configurePool(conn, cfg.Profile)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("storage: failed to ping %s: %w", cfg.Name, err)
	}

	db := &DB{conn: conn, path: cfg.Path, profile: cfg.Profile, name: cfg.Name}
	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("storage: failed to migrate %s: %w", cfg.Name, err)
	}
	return db, nil
}

func connectionString(path string, profile Profile) string {
	conn := path + "?_pragma=journal_mode(WAL)"
	switch profile {
	case ProfileLedger:
		conn += "&_pragma=synchronous(FULL)"
		conn += "&_pragma=auto_vacuum(NONE)"
	case ProfileCache:
		conn += "&_pragma=synchronous(OFF)"
		conn += "&_pragma=temp_store(MEMORY)"
	default:
		conn += "&_pragma=synchronous(NORMAL)"
		conn += "&_pragma=temp_store(MEMORY)"
	}
	conn += "&_pragma=foreign_keys(1)"
	conn += "&_pragma=cache_size(-64000)"
	return conn
}

func configurePool(conn *sql.DB, profile Profile) {
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(24 * time.Hour)
	if profile == ProfileCache {
		conn.SetMaxOpenConns(10)
		conn.SetMaxIdleConns(2)
	}
}

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS equity_curve (
	t     TEXT NOT NULL,
	value REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS orders (
	id          TEXT PRIMARY KEY,
	symbol      TEXT NOT NULL,
	type        TEXT NOT NULL,
	direction   TEXT NOT NULL,
	quantity    REAL NOT NULL,
	fill_price  REAL,
	fill_time   TEXT,
	status      TEXT NOT NULL,
	commission  REAL
);
CREATE INDEX IF NOT EXISTS idx_orders_symbol ON orders(symbol);
`

func (db *DB) migrate() error {
	_, err := db.conn.Exec(ledgerSchema)
	return err
}

// Close closes the underlying connection.
func (db *DB) Close() error { return db.conn.Close() }

// AppendEquityPoint inserts one equity-curve sample. The ledger is
// append-only: no update or delete path is exposed.
func (db *DB) AppendEquityPoint(p EquityPoint) error {
	_, err := db.conn.Exec(`INSERT INTO equity_curve (t, value) VALUES (?, ?)`,
		p.Time.UTC().Format(time.RFC3339Nano), p.Value)
	if err != nil {
		return fmt.Errorf("storage: failed to append equity point: %w", err)
	}
	return nil
}

// UpsertOrder inserts or replaces the persisted record of an order. Orders
// transition through states (submitted -> filled), so this table alone is
// not append-only — unlike equity_curve, it reflects current order state.
func (db *DB) UpsertOrder(o OrderRecord) error {
	var fillTime interface{}
	if !o.FillTime.IsZero() {
		fillTime = o.FillTime.UTC().Format(time.RFC3339Nano)
	}
	_, err := db.conn.Exec(`
		INSERT INTO orders (id, symbol, type, direction, quantity, fill_price, fill_time, status, commission)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			fill_price = excluded.fill_price,
			fill_time  = excluded.fill_time,
			status     = excluded.status,
			commission = excluded.commission
	`, o.ID, o.Symbol, o.Type, o.Direction, o.Quantity, o.FillPrice, fillTime, o.Status, o.Commission)
	if err != nil {
		return fmt.Errorf("storage: failed to upsert order %s: %w", o.ID, err)
	}
	return nil
}

// LoadResult reconstructs a Result from the ledger tables (used when a
// paper-trading run is resumed or inspected without the JSON artifact).
func (db *DB) LoadResult() (*Result, error) {
	r := NewResult()

	rows, err := db.conn.Query(`SELECT t, value FROM equity_curve ORDER BY t`)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to load equity curve: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tStr string
		var value float64
		if err := rows.Scan(&tStr, &value); err != nil {
			return nil, fmt.Errorf("storage: failed to scan equity point: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, tStr)
		if err != nil {
			return nil, fmt.Errorf("storage: failed to parse equity point time: %w", err)
		}
		r.EquityCurve = append(r.EquityCurve, EquityPoint{Time: t, Value: value})
	}

	orderRows, err := db.conn.Query(`SELECT id, symbol, type, direction, quantity, fill_price, fill_time, status, commission FROM orders ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to load orders: %w", err)
	}
	defer orderRows.Close()
	for orderRows.Next() {
		var o OrderRecord
		var fillPrice, commission sql.NullFloat64
		var fillTime sql.NullString
		if err := orderRows.Scan(&o.ID, &o.Symbol, &o.Type, &o.Direction, &o.Quantity, &fillPrice, &fillTime, &o.Status, &commission); err != nil {
			return nil, fmt.Errorf("storage: failed to scan order: %w", err)
		}
		o.FillPrice = fillPrice.Float64
		o.Commission = commission.Float64
		if fillTime.Valid {
			if t, err := time.Parse(time.RFC3339Nano, fillTime.String); err == nil {
				o.FillTime = t
			}
		}
		r.Orders = append(r.Orders, o)
	}

	return r, nil
}
