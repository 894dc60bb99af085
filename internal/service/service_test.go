package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/cache"
	"tillpoint/internal/domain"
	"tillpoint/internal/store"
	"tillpoint/internal/store/memory"
)

var testNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func newTestService(repo store.Repository) *Service {
	return New(repo, cache.NewMemoryParkedSales(), Options{
		Clock: func() time.Time { return testNow },
	})
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func price(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// countingRepo records inventory writes.
type countingRepo struct {
	store.Repository
	updates int
}

func (r *countingRepo) UpdateInventoryItem(ctx context.Context, item domain.InventoryItem) error {
	r.updates++
	return r.Repository.UpdateInventoryItem(ctx, item)
}

type failingRepo struct {
	store.Repository
}

var errDiskGone = errors.New("disk gone")

func (failingRepo) InsertTransaction(context.Context, store.TransactionRecord) (int64, error) {
	return 0, errDiskGone
}

func (failingRepo) QueryTransactions(context.Context, store.TransactionFilter) ([]store.TransactionRecord, error) {
	return nil, errDiskGone
}

func (failingRepo) QueryInventory(context.Context) ([]domain.InventoryItem, error) {
	return nil, errDiskGone
}

func TestAddInventoryItemRejectsBadInput(t *testing.T) {
	svc := newTestService(memory.New())
	ctx := context.Background()

	cases := map[string]struct {
		name  string
		price string
	}{
		"blank name":     {"   ", "1.00"},
		"negative price": {"Tea", "-0.01"},
		"reserved comma": {"Tea, hot", "1.00"},
		"reserved tilde": {"Tea~~hot", "1.00"},
		"reserved brace": {"[Tea]", "1.00"},
	}
	for label, tc := range cases {
		t.Run(label, func(t *testing.T) {
			_, err := svc.AddInventoryItem(ctx, tc.name, dec(tc.price))
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	items, err := svc.ListInventory(ctx)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestAddInventoryItemIsActive(t *testing.T) {
	svc := newTestService(memory.New())
	ctx := context.Background()

	id, err := svc.AddInventoryItem(ctx, "  Tea ", dec("1.80"))
	require.NoError(t, err)

	items, err := svc.ListInventory(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, id, items[0].ID)
	require.Equal(t, "Tea", items[0].Name)
	require.True(t, items[0].Active)
	require.True(t, items[0].DefaultPrice.Equal(dec("1.80")))
}

func TestSetInventoryActiveSkipsRedundantWrites(t *testing.T) {
	repo := &countingRepo{Repository: memory.New()}
	svc := newTestService(repo)
	ctx := context.Background()

	id, err := svc.AddInventoryItem(ctx, "Tea", dec("1.80"))
	require.NoError(t, err)

	require.NoError(t, svc.SetInventoryActive(ctx, id, true))
	require.Equal(t, 0, repo.updates)

	require.NoError(t, svc.SetInventoryActive(ctx, id, false))
	require.NoError(t, svc.SetInventoryActive(ctx, id, false))
	require.Equal(t, 1, repo.updates)

	names, err := svc.ListActiveNames(ctx)
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestSetInventoryActiveUnknownID(t *testing.T) {
	svc := newTestService(memory.New())
	err := svc.SetInventoryActive(context.Background(), 42, false)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEditInventoryItem(t *testing.T) {
	svc := newTestService(memory.NewSeeded())
	ctx := context.Background()

	err := svc.EditInventoryItem(ctx, domain.InventoryItem{ID: 99, Name: "Ghost", DefaultPrice: dec("1")})
	require.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.EditInventoryItem(ctx, domain.InventoryItem{ID: 1, Name: "", DefaultPrice: dec("1")})
	require.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, svc.EditInventoryItem(ctx, domain.InventoryItem{ID: 1, Name: "Espresso", DefaultPrice: dec("3.10"), Active: true}))
	got, err := svc.LookupDefaultPrice(ctx, "Espresso")
	require.NoError(t, err)
	require.True(t, got.Equal(dec("3.10")))

	_, err = svc.LookupDefaultPrice(ctx, "Coffee")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListActiveNamesSortedCaseInsensitive(t *testing.T) {
	svc := newTestService(memory.NewSeeded())
	ctx := context.Background()

	_, err := svc.AddInventoryItem(ctx, "apple", dec("0.50"))
	require.NoError(t, err)
	_, err = svc.AddInventoryItem(ctx, "Zucchini", dec("0.75"))
	require.NoError(t, err)

	names, err := svc.ListActiveNames(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"apple", "Bagel", "Coffee", "Muffin", "Newspaper", "Orange Juice", "Zucchini"}, names)
}

func TestSelectableItemsDisabledWithoutActiveItems(t *testing.T) {
	svc := newTestService(memory.New())
	ctx := context.Background()

	sel, err := svc.SelectableItems(ctx)
	require.NoError(t, err)
	require.False(t, sel.EntryEnabled)
	require.Empty(t, sel.Names)

	id, err := svc.AddInventoryItem(ctx, "Tea", dec("1.80"))
	require.NoError(t, err)
	sel, err = svc.SelectableItems(ctx)
	require.NoError(t, err)
	require.True(t, sel.EntryEnabled)
	require.Equal(t, []string{"Tea"}, sel.Names)

	require.NoError(t, svc.SetInventoryActive(ctx, id, false))
	sel, err = svc.SelectableItems(ctx)
	require.NoError(t, err)
	require.False(t, sel.EntryEnabled)
}

func TestLookupDefaultPriceTakesFirstActiveMatch(t *testing.T) {
	svc := newTestService(memory.New())
	ctx := context.Background()

	first, err := svc.AddInventoryItem(ctx, "Tea", dec("1.00"))
	require.NoError(t, err)
	_, err = svc.AddInventoryItem(ctx, "Tea", dec("2.00"))
	require.NoError(t, err)

	got, err := svc.LookupDefaultPrice(ctx, "Tea")
	require.NoError(t, err)
	require.True(t, got.Equal(dec("1.00")))

	require.NoError(t, svc.SetInventoryActive(ctx, first, false))
	got, err = svc.LookupDefaultPrice(ctx, "Tea")
	require.NoError(t, err)
	require.True(t, got.Equal(dec("2.00")))

	_, err = svc.LookupDefaultPrice(ctx, "tea")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInventoryStoreFailureIsStoreError(t *testing.T) {
	svc := newTestService(failingRepo{Repository: memory.New()})
	ctx := context.Background()

	_, err := svc.ListActiveNames(ctx)
	require.True(t, domain.IsStoreError(err), "got %v", err)
	require.ErrorIs(t, err, errDiskGone)

	err = svc.SetInventoryActive(ctx, 1, true)
	require.True(t, domain.IsStoreError(err), "got %v", err)
}
