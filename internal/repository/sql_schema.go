package repository

// Application tables in drop order (children first).
var appTables = []string{"requests", "items", "users"}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'donor',
		phone_number TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		email_notifications_enabled BOOLEAN NOT NULL DEFAULT 1,
		date_joined DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 1 CHECK (quantity >= 1),
		expiry_date TEXT NOT NULL,
		is_available BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		donor_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		latitude REAL,
		longitude REAL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_items_available ON items(is_available, created_at)`,
	`CREATE TABLE IF NOT EXISTS requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id INTEGER NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		requester_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		status TEXT NOT NULL DEFAULT 'Pending',
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_requests_requester ON requests(requester_id, created_at)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_requests_accepted_item ON requests(item_id) WHERE status = 'Accepted'`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'donor',
		phone_number TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		email_notifications_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		date_joined TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 1 CHECK (quantity >= 1),
		expiry_date DATE NOT NULL,
		is_available BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		donor_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION
	)`,
	`CREATE INDEX IF NOT EXISTS idx_items_available ON items(is_available, created_at)`,
	`CREATE TABLE IF NOT EXISTS requests (
		id BIGSERIAL PRIMARY KEY,
		item_id BIGINT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		requester_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		status TEXT NOT NULL DEFAULT 'Pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_requests_requester ON requests(requester_id, created_at)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_requests_accepted_item ON requests(item_id) WHERE status = 'Accepted'`,
}

// MySQL has no partial indexes and no CREATE INDEX IF NOT EXISTS, so indexes
// live inside the table definitions and the one-accepted-request rule is
// enforced by the claim transaction alone.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(254) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		first_name VARCHAR(150) NOT NULL DEFAULT '',
		last_name VARCHAR(150) NOT NULL DEFAULT '',
		role VARCHAR(20) NOT NULL DEFAULT 'donor',
		phone_number VARCHAR(15) NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		email_notifications_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		date_joined DATETIME(6) NOT NULL,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS items (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		address VARCHAR(255) NOT NULL,
		quantity INT UNSIGNED NOT NULL DEFAULT 1,
		expiry_date DATE NOT NULL,
		is_available BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME(6) NOT NULL,
		donor_id BIGINT NOT NULL,
		latitude DOUBLE NULL,
		longitude DOUBLE NULL,
		KEY idx_items_available (is_available, created_at),
		CONSTRAINT fk_items_donor FOREIGN KEY (donor_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS requests (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		item_id BIGINT NOT NULL,
		requester_id BIGINT NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'Pending',
		created_at DATETIME(6) NOT NULL,
		KEY idx_requests_requester (requester_id, created_at),
		CONSTRAINT fk_requests_item FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE,
		CONSTRAINT fk_requests_requester FOREIGN KEY (requester_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}
