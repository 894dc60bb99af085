// Package sqlite is a single-file embedded store built on gorm.
package sqlite

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tillpoint/internal/domain"
	"tillpoint/internal/store"
)

// Money columns are TEXT written by money.Value, so 2.50 is stored as
// "2.50" and not "2.5". Amount filters are applied in Go after the time
// range narrows the scan.
type inventoryRow struct {
	ID           int64  `gorm:"column:item_id;primaryKey;autoIncrement"`
	Name         string `gorm:"size:64;not null"`
	DefaultPrice money  `gorm:"type:text;not null"`
	Active       bool   `gorm:"not null"`
}

func (inventoryRow) TableName() string { return "inventory" }

type transactionRow struct {
	ID         int64     `gorm:"column:transaction_id;primaryKey;autoIncrement"`
	Timestamp  time.Time `gorm:"column:created_at;not null;index"`
	Subtotal   money     `gorm:"type:text;not null"`
	SalesTax   money     `gorm:"type:text;not null"`
	GrandTotal money     `gorm:"type:text;not null"`
	Items      string    `gorm:"type:text"`
}

func (transactionRow) TableName() string { return "transactions" }

// money keeps a decimal's scale through a TEXT column. decimal.Decimal's
// own Value trims trailing zeros.
type money decimal.Decimal

func (m money) Value() (driver.Value, error) {
	d := decimal.Decimal(m)
	if d.Exponent() < 0 {
		return d.StringFixed(-d.Exponent()), nil
	}
	return d.String(), nil
}

func (m *money) Scan(value any) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	*m = money(d)
	return nil
}

func (m money) dec() decimal.Decimal {
	return decimal.Decimal(m)
}

type Store struct {
	db *gorm.DB
}

func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(&inventoryRow{}, &transactionRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) InsertTransaction(ctx context.Context, rec store.TransactionRecord) (int64, error) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	row := transactionRow{
		Timestamp:  rec.Timestamp.UTC(),
		Subtotal:   money(rec.Subtotal),
		SalesTax:   money(rec.SalesTax),
		GrandTotal: money(rec.GrandTotal),
		Items:      rec.ItemBlob,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("failed to save transaction: %w", err)
	}
	return row.ID, nil
}

func (s *Store) QueryTransactions(ctx context.Context, filter store.TransactionFilter) ([]store.TransactionRecord, error) {
	q := s.db.WithContext(ctx).Order("created_at, transaction_id")
	if !filter.Since.IsZero() {
		q = q.Where("created_at >= ?", filter.Since.UTC())
	}

	var rows []transactionRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}

	records := make([]store.TransactionRecord, 0, len(rows))
	for _, row := range rows {
		rec := row.record()
		if filter.Matches(rec) {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (s *Store) GetTransaction(ctx context.Context, id int64) (store.TransactionRecord, error) {
	var row transactionRow
	err := s.db.WithContext(ctx).First(&row, "transaction_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.TransactionRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.TransactionRecord{}, fmt.Errorf("failed to get transaction: %w", err)
	}
	return row.record(), nil
}

func (s *Store) InsertInventoryItem(ctx context.Context, name string, price decimal.Decimal) (int64, error) {
	row := inventoryRow{Name: name, DefaultPrice: money(price), Active: true}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("failed to save inventory item: %w", err)
	}
	return row.ID, nil
}

func (s *Store) UpdateInventoryItem(ctx context.Context, item domain.InventoryItem) error {
	result := s.db.WithContext(ctx).
		Model(&inventoryRow{}).
		Where("item_id = ?", item.ID).
		Updates(map[string]any{
			"name":          item.Name,
			"default_price": money(item.DefaultPrice),
			"active":        item.Active,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update inventory item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) QueryInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	var rows []inventoryRow
	if err := s.db.WithContext(ctx).Order("item_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}

	items := make([]domain.InventoryItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, domain.InventoryItem{
			ID:           row.ID,
			Name:         row.Name,
			DefaultPrice: row.DefaultPrice.dec(),
			Active:       row.Active,
		})
	}
	return items, nil
}

func (row transactionRow) record() store.TransactionRecord {
	return store.TransactionRecord{
		ID:         row.ID,
		Timestamp:  row.Timestamp.UTC(),
		Subtotal:   row.Subtotal.dec(),
		SalesTax:   row.SalesTax.dec(),
		GrandTotal: row.GrandTotal.dec(),
		ItemBlob:   row.Items,
	}
}
