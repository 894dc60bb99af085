package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/cache"
	"tillpoint/internal/domain"
	"tillpoint/internal/report"
	"tillpoint/internal/store/memory"
)

func TestCompleteSalePersistsTransaction(t *testing.T) {
	repo := memory.NewSeeded()
	svc := newTestService(repo)
	ctx := context.Background()

	sale, err := svc.OpenSale(ctx)
	require.NoError(t, err)
	require.Empty(t, sale.Lines)

	_, err = svc.AddSaleLine(ctx, sale.SaleID, domain.SaleLineRequest{Name: "Coffee", Quantity: 2})
	require.NoError(t, err)
	snap, err := svc.AddSaleLine(ctx, sale.SaleID, domain.SaleLineRequest{Name: "Widget", UnitPrice: price("9.99"), Quantity: 1})
	require.NoError(t, err)
	require.Len(t, snap.Lines, 2)
	require.Equal(t, "14.99", snap.Subtotal.StringFixed(2))
	require.Equal(t, "0.90", snap.SalesTax.StringFixed(2))
	require.Equal(t, "15.89", snap.GrandTotal.StringFixed(2))

	tx, err := svc.CompleteSale(ctx, sale.SaleID)
	require.NoError(t, err)
	require.NotZero(t, tx.ID)
	require.Equal(t, testNow, tx.Timestamp)

	rec, err := repo.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	require.Equal(t, "[Coffee~~2.50~~2],[Widget~~9.99~~1]", rec.ItemBlob)
	require.True(t, rec.GrandTotal.Equal(dec("15.89")))

	after, err := svc.GetSale(ctx, sale.SaleID)
	require.NoError(t, err)
	require.Empty(t, after.Lines)
	require.True(t, after.GrandTotal.IsZero())

	loaded, err := svc.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Lines, 2)
	require.Equal(t, "Coffee", loaded.Lines[0].Name)
	require.True(t, loaded.Lines[0].UnitPrice.Equal(dec("2.50")))
}

func TestCompleteEmptySaleFails(t *testing.T) {
	svc := newTestService(memory.New())
	ctx := context.Background()

	sale, err := svc.OpenSale(ctx)
	require.NoError(t, err)

	_, err = svc.CompleteSale(ctx, sale.SaleID)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestCompleteSaleKeepsLinesOnStoreFailure(t *testing.T) {
	svc := newTestService(failingRepo{Repository: memory.New()})
	ctx := context.Background()

	sale, err := svc.OpenSale(ctx)
	require.NoError(t, err)
	_, err = svc.AddSaleLine(ctx, sale.SaleID, domain.SaleLineRequest{Name: "Widget", UnitPrice: price("1.00"), Quantity: 3})
	require.NoError(t, err)

	_, err = svc.CompleteSale(ctx, sale.SaleID)
	require.True(t, domain.IsStoreError(err), "got %v", err)

	snap, err := svc.GetSale(ctx, sale.SaleID)
	require.NoError(t, err)
	require.Len(t, snap.Lines, 1)
}

func TestAddSaleLineValidation(t *testing.T) {
	svc := newTestService(memory.NewSeeded())
	ctx := context.Background()

	sale, err := svc.OpenSale(ctx)
	require.NoError(t, err)

	cases := map[string]domain.SaleLineRequest{
		"zero quantity":     {Name: "Coffee", Quantity: 0},
		"negative price":    {Name: "Widget", UnitPrice: price("-1"), Quantity: 1},
		"unknown default":   {Name: "Caviar", Quantity: 1},
		"blank name":        {Name: " ", UnitPrice: price("1"), Quantity: 1},
		"reserved name":     {Name: "a,b", UnitPrice: price("1"), Quantity: 1},
		"blank no price":    {Name: "", Quantity: 1},
		"reserved brackets": {Name: "[x]", Quantity: 1},
	}
	for label, req := range cases {
		t.Run(label, func(t *testing.T) {
			_, err := svc.AddSaleLine(ctx, sale.SaleID, req)
			require.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	snap, err := svc.GetSale(ctx, sale.SaleID)
	require.NoError(t, err)
	require.Empty(t, snap.Lines)
}

func TestUnknownSaleIsNotFound(t *testing.T) {
	svc := newTestService(memory.New())
	ctx := context.Background()

	_, err := svc.GetSale(ctx, "sale-missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.AddSaleLine(ctx, "sale-missing", domain.SaleLineRequest{Name: "x", UnitPrice: price("1"), Quantity: 1})
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.CompleteSale(ctx, "sale-missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, svc.DiscardSale(ctx, "sale-missing"), domain.ErrNotFound)
}

func TestClearAndDiscardSale(t *testing.T) {
	svc := newTestService(memory.New())
	ctx := context.Background()

	sale, err := svc.OpenSale(ctx)
	require.NoError(t, err)
	_, err = svc.AddSaleLine(ctx, sale.SaleID, domain.SaleLineRequest{Name: "Widget", UnitPrice: price("4.00"), Quantity: 1})
	require.NoError(t, err)

	snap, err := svc.ClearSale(ctx, sale.SaleID)
	require.NoError(t, err)
	require.Empty(t, snap.Lines)
	require.True(t, snap.Subtotal.IsZero())

	require.NoError(t, svc.DiscardSale(ctx, sale.SaleID))
	_, err = svc.GetSale(ctx, sale.SaleID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestParkAndResumeSale(t *testing.T) {
	svc := newTestService(memory.NewSeeded())
	ctx := context.Background()

	sale, err := svc.OpenSale(ctx)
	require.NoError(t, err)

	_, err = svc.ParkSale(ctx, sale.SaleID)
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.AddSaleLine(ctx, sale.SaleID, domain.SaleLineRequest{Name: "Bagel", Quantity: 4})
	require.NoError(t, err)
	_, err = svc.AddSaleLine(ctx, sale.SaleID, domain.SaleLineRequest{Name: "Muffin", Quantity: 1})
	require.NoError(t, err)

	parked, err := svc.ParkSale(ctx, sale.SaleID)
	require.NoError(t, err)
	require.Equal(t, 2, parked.Lines)
	require.Equal(t, testNow, parked.ParkedAt)

	_, err = svc.GetSale(ctx, sale.SaleID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	resumed, err := svc.ResumeSale(ctx, parked.ParkID)
	require.NoError(t, err)
	require.NotEqual(t, sale.SaleID, resumed.SaleID)
	require.Len(t, resumed.Lines, 2)
	require.Equal(t, "9.95", resumed.Subtotal.StringFixed(2))

	_, err = svc.ResumeSale(ctx, parked.ParkID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestParkedSalesSurviveInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	parked := cache.NewRedisParkedSales(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = parked.Close() })

	svc := New(memory.NewSeeded(), parked, Options{ParkedSaleTTL: time.Minute})
	ctx := context.Background()

	sale, err := svc.OpenSale(ctx)
	require.NoError(t, err)
	_, err = svc.AddSaleLine(ctx, sale.SaleID, domain.SaleLineRequest{Name: "Coffee", Quantity: 1})
	require.NoError(t, err)

	p, err := svc.ParkSale(ctx, sale.SaleID)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	_, err = svc.ResumeSale(ctx, p.ParkID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHistoryAndSummary(t *testing.T) {
	repo := memory.New()
	clock := testNow
	svc := New(repo, nil, Options{Clock: func() time.Time { return clock }})
	ctx := context.Background()

	complete := func(unit string, qty int) {
		t.Helper()
		sale, err := svc.OpenSale(ctx)
		require.NoError(t, err)
		_, err = svc.AddSaleLine(ctx, sale.SaleID, domain.SaleLineRequest{Name: "Widget", UnitPrice: price(unit), Quantity: qty})
		require.NoError(t, err)
		_, err = svc.CompleteSale(ctx, sale.SaleID)
		require.NoError(t, err)
	}

	clock = testNow.Add(-48 * time.Hour)
	complete("50.00", 1) // 53.00
	clock = testNow.Add(-10 * time.Minute)
	complete("100.00", 2) // 212.00
	clock = testNow

	all, err := svc.ListTransactions(ctx, report.WindowAll, report.BucketAll)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.True(t, all[0].Timestamp.Before(all[1].Timestamp))

	recent, err := svc.ListTransactions(ctx, report.WindowHour, report.BucketAll)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, "Widget", recent[0].Lines[0].Name)

	summary, err := svc.Summarize(ctx, report.WindowAll, report.BucketAll)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Count)
	require.Equal(t, "265.00", summary.Revenue.StringFixed(2))
	require.Equal(t, "15.00", summary.SalesTaxTotal.StringFixed(2))
	require.Equal(t, "250.00", summary.NetIncome.StringFixed(2))

	small, err := svc.Summarize(ctx, report.WindowAll, report.BucketUnder100)
	require.NoError(t, err)
	require.Equal(t, 1, small.Count)
	require.Equal(t, "53.00", small.Revenue.StringFixed(2))
}

func TestSummaryStoreFailure(t *testing.T) {
	svc := newTestService(failingRepo{Repository: memory.New()})

	_, err := svc.Summarize(context.Background(), report.WindowDay, report.BucketAll)
	require.True(t, domain.IsStoreError(err), "got %v", err)

	_, err = svc.ListTransactions(context.Background(), report.WindowDay, report.BucketAll)
	require.True(t, domain.IsStoreError(err), "got %v", err)
}

func TestZeroTaxRateIsHonoured(t *testing.T) {
	zero := dec("0")
	svc := New(memory.NewSeeded(), nil, Options{TaxRate: &zero})
	ctx := context.Background()

	sale, err := svc.OpenSale(ctx)
	require.NoError(t, err)
	snap, err := svc.AddSaleLine(ctx, sale.SaleID, domain.SaleLineRequest{Name: "Muffin", Quantity: 2})
	require.NoError(t, err)
	require.True(t, snap.SalesTax.IsZero())
	require.Equal(t, "5.90", snap.GrandTotal.StringFixed(2))

	require.True(t, New(memory.New(), nil, Options{}).TaxRate().Equal(dec("0.06")))
}
