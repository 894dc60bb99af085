// Package sqlstore persists transactions and inventory in PostgreSQL (through
// the pgx stdlib driver) or MySQL, behind the same database/sql code path.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"tillpoint/internal/domain"
	"tillpoint/internal/store"
)

// Dialect is also the database/sql driver name.
type Dialect string

const (
	Postgres Dialect = "pgx"
	MySQL    Dialect = "mysql"
)

func ParseDialect(raw string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	default:
		return "", fmt.Errorf("unsupported sql dialect %q", raw)
	}
}

type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects and pings. MySQL DSNs need parseTime=true.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, describe("ping", err)
	}

	return New(db, dialect), nil
}

func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema[s.dialect] {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return describe("migrate", err)
		}
	}
	return nil
}

func (s *Store) InsertTransaction(ctx context.Context, rec store.TransactionRecord) (int64, error) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	args := []any{rec.Timestamp.UTC(), rec.Subtotal, rec.SalesTax, rec.GrandTotal, rec.ItemBlob}
	const insert = `
		INSERT INTO transactions (created_at, subtotal, sales_tax, grand_total, items)
		VALUES (?, ?, ?, ?, ?)`

	if s.dialect == Postgres {
		var id int64
		if err := s.db.QueryRowContext(ctx, s.rebind(insert+` RETURNING transaction_id`), args...).Scan(&id); err != nil {
			return 0, describe("insert transaction", err)
		}
		return id, nil
	}

	result, err := s.db.ExecContext(ctx, s.rebind(insert), args...)
	if err != nil {
		return 0, describe("insert transaction", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, describe("insert transaction", err)
	}
	return id, nil
}

func (s *Store) QueryTransactions(ctx context.Context, filter store.TransactionFilter) ([]store.TransactionRecord, error) {
	where, args := filterClause(filter)
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT transaction_id, created_at, subtotal, sales_tax, grand_total, items
		FROM transactions`+where+`
		ORDER BY created_at, transaction_id`), args...)
	if err != nil {
		return nil, describe("query transactions", err)
	}
	defer rows.Close()

	records := make([]store.TransactionRecord, 0, 64)
	for rows.Next() {
		rec, err := scanTransaction(rows)
		if err != nil {
			return nil, describe("scan transaction", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, describe("query transactions", err)
	}
	return records, nil
}

func (s *Store) GetTransaction(ctx context.Context, id int64) (store.TransactionRecord, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT transaction_id, created_at, subtotal, sales_tax, grand_total, items
		FROM transactions
		WHERE transaction_id = ?`), id)
	rec, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.TransactionRecord{}, store.ErrNotFound
		}
		return store.TransactionRecord{}, describe("get transaction", err)
	}
	return rec, nil
}

func (s *Store) InsertInventoryItem(ctx context.Context, name string, price decimal.Decimal) (int64, error) {
	const insert = `INSERT INTO inventory (name, default_price, active) VALUES (?, ?, ?)`

	if s.dialect == Postgres {
		var id int64
		if err := s.db.QueryRowContext(ctx, s.rebind(insert+` RETURNING item_id`), name, price, true).Scan(&id); err != nil {
			return 0, describe("insert inventory item", err)
		}
		return id, nil
	}

	result, err := s.db.ExecContext(ctx, s.rebind(insert), name, price, true)
	if err != nil {
		return 0, describe("insert inventory item", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, describe("insert inventory item", err)
	}
	return id, nil
}

func (s *Store) UpdateInventoryItem(ctx context.Context, item domain.InventoryItem) error {
	result, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE inventory
		SET name = ?, default_price = ?, active = ?
		WHERE item_id = ?`), item.Name, item.DefaultPrice, item.Active, item.ID)
	if err != nil {
		return describe("update inventory item", err)
	}

	rows, _ := result.RowsAffected()
	if rows > 0 {
		return nil
	}

	// MySQL reports zero affected rows when nothing changed.
	var one int
	err = s.db.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM inventory WHERE item_id = ?`), item.ID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return describe("update inventory item", err)
	}
	return nil
}

func (s *Store) QueryInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, name, default_price, active
		FROM inventory
		ORDER BY item_id`)
	if err != nil {
		return nil, describe("query inventory", err)
	}
	defer rows.Close()

	items := make([]domain.InventoryItem, 0, 32)
	for rows.Next() {
		var item domain.InventoryItem
		if err := rows.Scan(&item.ID, &item.Name, &item.DefaultPrice, &item.Active); err != nil {
			return nil, describe("scan inventory item", err)
		}
		item.DefaultPrice = store.NormalizeMoney(item.DefaultPrice)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, describe("query inventory", err)
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (store.TransactionRecord, error) {
	var (
		rec   store.TransactionRecord
		items sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.Timestamp, &rec.Subtotal, &rec.SalesTax, &rec.GrandTotal, &items); err != nil {
		return store.TransactionRecord{}, err
	}
	rec.Timestamp = rec.Timestamp.UTC()
	rec.Subtotal = store.NormalizeMoney(rec.Subtotal)
	rec.SalesTax = store.NormalizeMoney(rec.SalesTax)
	rec.GrandTotal = store.NormalizeMoney(rec.GrandTotal)
	rec.ItemBlob = items.String
	return rec, nil
}

func filterClause(filter store.TransactionFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if !filter.Since.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, filter.Since.UTC())
	}
	if filter.MinTotal != nil {
		conds = append(conds, "grand_total >= ?")
		args = append(args, *filter.MinTotal)
	}
	if filter.MaxTotal != nil {
		conds = append(conds, "grand_total < ?")
		args = append(args, *filter.MaxTotal)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "\n\t\tWHERE " + strings.Join(conds, " AND "), args
}

// rebind rewrites ? placeholders to $n for postgres. Queries here never
// carry a literal question mark.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// describe prefixes the operation and, when the driver reports one, the
// server error code.
func describe(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: sqlstate %s: %w", op, pgErr.Code, err)
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return fmt.Errorf("%s: mysql error %d: %w", op, myErr.Number, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
