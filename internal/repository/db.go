package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			collection TEXT NOT NULL DEFAULT '',
			price INTEGER NOT NULL,
			image TEXT NOT NULL DEFAULT '',
			images TEXT NOT NULL DEFAULT '[]',
			description TEXT NOT NULL DEFAULT '',
			features TEXT NOT NULL DEFAULT '[]',
			specs TEXT NOT NULL DEFAULT '{}',
			in_stock INTEGER NOT NULL DEFAULT 1,
			stock_quantity INTEGER NOT NULL DEFAULT 0,
			sku TEXT NOT NULL DEFAULT '',
			movement TEXT NOT NULL DEFAULT '',
			case_material TEXT NOT NULL DEFAULT '',
			dial_color TEXT NOT NULL DEFAULT '',
			water_resistance TEXT NOT NULL DEFAULT '',
			seo_title TEXT NOT NULL DEFAULT '',
			seo_description TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_collection ON products(collection)`,
		`CREATE INDEX IF NOT EXISTS idx_products_sku ON products(sku)`,

		`CREATE TABLE IF NOT EXISTS collections (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			image TEXT NOT NULL DEFAULT '',
			number TEXT NOT NULL DEFAULT '',
			active INTEGER NOT NULL DEFAULT 1
		)`,

		`CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_number TEXT UNIQUE NOT NULL,
			items TEXT NOT NULL DEFAULT '[]',
			customer TEXT NOT NULL DEFAULT '{}',
			delivery_method TEXT NOT NULL DEFAULT '',
			payment_method TEXT NOT NULL DEFAULT '',
			delivery_address TEXT NOT NULL DEFAULT '',
			subtotal INTEGER NOT NULL DEFAULT 0,
			shipping INTEGER NOT NULL DEFAULT 0,
			total INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'pending',
			notes TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,

		`CREATE TABLE IF NOT EXISTS bookings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			booking_number TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			phone TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			boutique TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,

		`CREATE TABLE IF NOT EXISTS content_blocks (
			name TEXT PRIMARY KEY,
			body TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			body TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			payme_id TEXT UNIQUE NOT NULL,
			order_number TEXT NOT NULL,
			amount INTEGER NOT NULL,
			state INTEGER NOT NULL,
			create_time INTEGER NOT NULL,
			perform_time INTEGER NOT NULL DEFAULT 0,
			cancel_time INTEGER NOT NULL DEFAULT 0,
			reason INTEGER NOT NULL DEFAULT 0,
			account TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_order ON transactions(order_number)`,
		// At most one pending (state=1) transaction per order. Concurrent
		// CreateTransaction calls race on this index rather than on an
		// application-level check.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_pending_order
			ON transactions(order_number) WHERE state = 1`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:60], err)
		}
	}

	return nil
}
