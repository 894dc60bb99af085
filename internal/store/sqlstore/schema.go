package sqlstore

var schema = map[Dialect][]string{
	Postgres: {
		`CREATE TABLE IF NOT EXISTS inventory (
			item_id       BIGSERIAL PRIMARY KEY,
			name          VARCHAR(64) NOT NULL,
			default_price NUMERIC NOT NULL,
			active        BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			transaction_id BIGSERIAL PRIMARY KEY,
			created_at     TIMESTAMPTZ NOT NULL,
			subtotal       NUMERIC NOT NULL,
			sales_tax      NUMERIC NOT NULL,
			grand_total    NUMERIC NOT NULL,
			items          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS transactions_created_at_idx ON transactions (created_at)`,
	},
	MySQL: {
		`CREATE TABLE IF NOT EXISTS inventory (
			item_id       BIGINT AUTO_INCREMENT PRIMARY KEY,
			name          VARCHAR(64) NOT NULL,
			default_price DECIMAL(20,8) NOT NULL,
			active        BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			transaction_id BIGINT AUTO_INCREMENT PRIMARY KEY,
			created_at     DATETIME(6) NOT NULL,
			subtotal       DECIMAL(24,8) NOT NULL,
			sales_tax      DECIMAL(24,8) NOT NULL,
			grand_total    DECIMAL(24,8) NOT NULL,
			items          MEDIUMTEXT,
			INDEX transactions_created_at_idx (created_at)
		)`,
	},
}
