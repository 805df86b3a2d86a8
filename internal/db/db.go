package db

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

var DB *sql.DB

// Init initializes the database connection and schema
func Init(path string) error {
	var err error

	if err = ensureDirectory(path); err != nil {
		return err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	DB, err = sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database at %s: %w", path, err)
	}

	if err = DB.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	enableWAL()
	if err = createSchema(); err != nil {
		return err
	}
	migrateSchema()
	return nil
}

func ensureDirectory(path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}
	return nil
}

func enableWAL() {
	if _, err := DB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		log.Printf("⚠️  Could not enable WAL mode: %v", err)
	}
}

func createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'owner',
		name TEXT NOT NULL DEFAULT '',
		phone TEXT DEFAULT '',
		address TEXT DEFAULT '',
		is_active INTEGER DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);

	CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);

	CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE NOT NULL,
		description TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		model TEXT DEFAULT '',
		color TEXT DEFAULT '',
		size TEXT DEFAULT '',
		category_id INTEGER,
		stock_qty INTEGER NOT NULL DEFAULT 0,
		min_stock INTEGER NOT NULL DEFAULT 0,
		max_stock INTEGER NOT NULL DEFAULT 0,
		unit TEXT NOT NULL DEFAULT 'pcs',
		price TEXT NOT NULL DEFAULT '0',
		description TEXT DEFAULT '',
		is_active INTEGER DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE SET NULL
	);
	CREATE INDEX IF NOT EXISTS idx_items_code ON items(code);
	CREATE INDEX IF NOT EXISTS idx_items_category ON items(category_id);
	CREATE INDEX IF NOT EXISTS idx_items_active ON items(is_active);

	CREATE TABLE IF NOT EXISTS stock_in (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		transaction_code TEXT UNIQUE NOT NULL,
		item_id INTEGER NOT NULL,
		supplier_id INTEGER,
		qty INTEGER NOT NULL,
		price TEXT NOT NULL DEFAULT '0',
		total_price TEXT NOT NULL DEFAULT '0',
		date TEXT NOT NULL,
		notes TEXT DEFAULT '',
		created_by INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (item_id) REFERENCES items(id),
		FOREIGN KEY (supplier_id) REFERENCES users(id)
	);
	CREATE INDEX IF NOT EXISTS idx_stock_in_item ON stock_in(item_id);
	CREATE INDEX IF NOT EXISTS idx_stock_in_date ON stock_in(date);

	CREATE TABLE IF NOT EXISTS stock_out (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		transaction_code TEXT UNIQUE NOT NULL,
		item_id INTEGER NOT NULL,
		qty INTEGER NOT NULL,
		purpose TEXT NOT NULL,
		recipient TEXT DEFAULT '',
		date TEXT NOT NULL,
		notes TEXT DEFAULT '',
		created_by INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (item_id) REFERENCES items(id)
	);
	CREATE INDEX IF NOT EXISTS idx_stock_out_item ON stock_out(item_id);
	CREATE INDEX IF NOT EXISTS idx_stock_out_date ON stock_out(date);

	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_code TEXT UNIQUE NOT NULL,
		supplier_id INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		total_amount TEXT NOT NULL DEFAULT '0',
		notes TEXT DEFAULT '',
		order_date DATETIME DEFAULT CURRENT_TIMESTAMP,
		confirmed_at DATETIME,
		shipped_at DATETIME,
		auto_reject_at DATETIME NOT NULL,
		FOREIGN KEY (supplier_id) REFERENCES users(id)
	);
	CREATE INDEX IF NOT EXISTS idx_orders_supplier ON orders(supplier_id);
	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);

	CREATE TABLE IF NOT EXISTS order_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id INTEGER NOT NULL,
		item_id INTEGER NOT NULL,
		qty INTEGER NOT NULL,
		price TEXT NOT NULL DEFAULT '0',
		total_price TEXT NOT NULL DEFAULT '0',
		notes TEXT DEFAULT '',
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
		FOREIGN KEY (item_id) REFERENCES items(id)
	);
	CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);

	CREATE TABLE IF NOT EXISTS notification_settings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		service_type TEXT NOT NULL,
		config_json TEXT NOT NULL,
		enabled INTEGER DEFAULT 1,
		notify_on_critical INTEGER DEFAULT 1,
		notify_on_warning INTEGER DEFAULT 1,
		notify_on_info INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS notification_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		service_id INTEGER,
		event_type TEXT NOT NULL,
		item_code TEXT DEFAULT '',
		message TEXT NOT NULL,
		status TEXT NOT NULL,
		error_message TEXT DEFAULT '',
		sent_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_notif_history_created ON notification_history(created_at);
	`

	if _, err := DB.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

func migrateSchema() {
	// Columns added after the first release; errors mean they already exist
	DB.Exec("ALTER TABLE users ADD COLUMN phone TEXT DEFAULT ''")
	DB.Exec("ALTER TABLE users ADD COLUMN address TEXT DEFAULT ''")
	DB.Exec("ALTER TABLE items ADD COLUMN max_stock INTEGER NOT NULL DEFAULT 0")
	DB.Exec("ALTER TABLE orders ADD COLUMN confirmed_at DATETIME")
	DB.Exec("ALTER TABLE orders ADD COLUMN shipped_at DATETIME")
}
