package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"tillpoint/internal/domain"
)

// ErrNotFound is returned by stores for unknown ids.
var ErrNotFound = domain.ErrNotFound

// TransactionRecord is the persisted shape of a transaction: scalar totals
// plus the encoded item list.
type TransactionRecord struct {
	ID         int64
	Timestamp  time.Time
	Subtotal   decimal.Decimal
	SalesTax   decimal.Decimal
	GrandTotal decimal.Decimal
	ItemBlob   string
}

// TransactionFilter selects transactions. Zero values mean unbounded.
type TransactionFilter struct {
	Since    time.Time        // inclusive
	MinTotal *decimal.Decimal // inclusive, on GrandTotal
	MaxTotal *decimal.Decimal // exclusive, on GrandTotal
}

func (f TransactionFilter) Matches(rec TransactionRecord) bool {
	if !f.Since.IsZero() && rec.Timestamp.Before(f.Since) {
		return false
	}
	if f.MinTotal != nil && rec.GrandTotal.LessThan(*f.MinTotal) {
		return false
	}
	if f.MaxTotal != nil && !rec.GrandTotal.LessThan(*f.MaxTotal) {
		return false
	}
	return true
}

type TransactionStore interface {
	InsertTransaction(ctx context.Context, rec TransactionRecord) (int64, error)
	QueryTransactions(ctx context.Context, filter TransactionFilter) ([]TransactionRecord, error)
	GetTransaction(ctx context.Context, id int64) (TransactionRecord, error)
}

type InventoryStore interface {
	InsertInventoryItem(ctx context.Context, name string, price decimal.Decimal) (int64, error)
	UpdateInventoryItem(ctx context.Context, item domain.InventoryItem) error
	QueryInventory(ctx context.Context) ([]domain.InventoryItem, error)
}

// Repository is everything the core needs from persistence. Implementations
// return transactions ordered by timestamp then id, and inventory ordered by
// id.
type Repository interface {
	TransactionStore
	InventoryStore
	Close() error
}

// NormalizeMoney undoes the padding of fixed-scale numeric columns: 2.5000
// reads back as 2.50 and 0.1250 as 0.125.
func NormalizeMoney(d decimal.Decimal) decimal.Decimal {
	if d.Exponent() >= -2 {
		return d
	}
	trimmed := decimal.RequireFromString(d.String())
	if trimmed.Exponent() > -2 {
		return d.Round(2)
	}
	return trimmed
}
