package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tillpoint/internal/domain"
	"tillpoint/internal/store"
)

type Store struct {
	mu           sync.RWMutex
	transactions []store.TransactionRecord
	inventory    []domain.InventoryItem
	nextTxID     int64
	nextItemID   int64
}

func New() *Store {
	return &Store{
		transactions: make([]store.TransactionRecord, 0, 64),
		inventory:    make([]domain.InventoryItem, 0, 32),
	}
}

// NewSeeded returns a store with a small demo catalog.
func NewSeeded() *Store {
	s := New()
	for _, seed := range []struct {
		name  string
		price string
	}{
		{"Coffee", "2.50"},
		{"Bagel", "1.75"},
		{"Orange Juice", "3.25"},
		{"Muffin", "2.95"},
		{"Newspaper", "1.00"},
	} {
		_, _ = s.InsertInventoryItem(context.Background(), seed.name, decimal.RequireFromString(seed.price))
	}
	return s
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) InsertTransaction(_ context.Context, rec store.TransactionRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextTxID++
	rec.ID = s.nextTxID
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	s.transactions = append(s.transactions, rec)
	return rec.ID, nil
}

func (s *Store) QueryTransactions(_ context.Context, filter store.TransactionFilter) ([]store.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]store.TransactionRecord, 0, len(s.transactions))
	for _, rec := range s.transactions {
		if filter.Matches(rec) {
			result = append(result, rec)
		}
	}
	slices.SortStableFunc(result, func(a, b store.TransactionRecord) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return compareID(a.ID, b.ID)
	})
	return result, nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (store.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.transactions {
		if rec.ID == id {
			return rec, nil
		}
	}
	return store.TransactionRecord{}, store.ErrNotFound
}

func (s *Store) InsertInventoryItem(_ context.Context, name string, price decimal.Decimal) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextItemID++
	s.inventory = append(s.inventory, domain.InventoryItem{
		ID:           s.nextItemID,
		Name:         name,
		DefaultPrice: price,
		Active:       true,
	})
	return s.nextItemID, nil
}

func (s *Store) UpdateInventoryItem(_ context.Context, item domain.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.inventory {
		if s.inventory[i].ID == item.ID {
			s.inventory[i] = item
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) QueryInventory(_ context.Context) ([]domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.inventory), nil
}

func compareID(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
