// Package report answers aggregate questions over stored transactions:
// how many sales, how much revenue and tax, within a time window and a
// grand-total bucket.
package report

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tillpoint/internal/domain"
	"tillpoint/internal/store"
)

type Window string

const (
	WindowAll   Window = "all"
	WindowHour  Window = "hour"
	WindowDay   Window = "day"
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
	WindowYear  Window = "year"
)

var Windows = []Window{WindowAll, WindowHour, WindowDay, WindowWeek, WindowMonth, WindowYear}

func ParseWindow(raw string) (Window, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return WindowAll, nil
	}
	for _, w := range Windows {
		if string(w) == value {
			return w, nil
		}
	}
	return "", domain.Invalid("unknown report window %q", raw)
}

// Cutoff returns the earliest timestamp selected by w at now. ok is false
// for WindowAll.
func (w Window) Cutoff(now time.Time) (cutoff time.Time, ok bool) {
	switch w {
	case WindowHour:
		return now.Add(-time.Hour), true
	case WindowDay:
		return now.Add(-24 * time.Hour), true
	case WindowWeek:
		return now.Add(-7 * 24 * time.Hour), true
	case WindowMonth:
		return now.AddDate(0, -1, 0), true
	case WindowYear:
		return now.AddDate(-1, 0, 0), true
	default:
		return time.Time{}, false
	}
}

type Bucket string

const (
	BucketAll         Bucket = "all"
	BucketUnder100    Bucket = "under-100"
	Bucket100To500    Bucket = "100-500"
	Bucket500To1000   Bucket = "500-1000"
	Bucket1000AndOver Bucket = "1000-plus"
)

var Buckets = []Bucket{BucketAll, BucketUnder100, Bucket100To500, Bucket500To1000, Bucket1000AndOver}

var (
	hundred     = decimal.NewFromInt(100)
	fiveHundred = decimal.NewFromInt(500)
	thousand    = decimal.NewFromInt(1000)
)

func ParseBucket(raw string) (Bucket, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return BucketAll, nil
	}
	for _, b := range Buckets {
		if string(b) == value {
			return b, nil
		}
	}
	return "", domain.Invalid("unknown value bucket %q", raw)
}

// Bounds returns the half-open interval [lo, hi) of grand totals in b.
// A nil bound is open.
func (b Bucket) Bounds() (lo, hi *decimal.Decimal) {
	switch b {
	case BucketUnder100:
		return nil, &hundred
	case Bucket100To500:
		return &hundred, &fiveHundred
	case Bucket500To1000:
		return &fiveHundred, &thousand
	case Bucket1000AndOver:
		return &thousand, nil
	default:
		return nil, nil
	}
}

func (b Bucket) Contains(total decimal.Decimal) bool {
	lo, hi := b.Bounds()
	return store.TransactionFilter{MinTotal: lo, MaxTotal: hi}.Matches(store.TransactionRecord{GrandTotal: total})
}

// Filter builds the store predicate for a window/bucket pair evaluated at now.
func Filter(window Window, bucket Bucket, now time.Time) store.TransactionFilter {
	var filter store.TransactionFilter
	if cutoff, ok := window.Cutoff(now); ok {
		filter.Since = cutoff
	}
	filter.MinTotal, filter.MaxTotal = bucket.Bounds()
	return filter
}

type Source interface {
	QueryTransactions(ctx context.Context, filter store.TransactionFilter) ([]store.TransactionRecord, error)
}

// Aggregator computes summaries from scratch on every call; it keeps no
// running totals.
type Aggregator struct {
	source Source
	now    func() time.Time
}

func NewAggregator(source Source) *Aggregator {
	return &Aggregator{
		source: source,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	if now != nil {
		a.now = now
	}
	return a
}

func (a *Aggregator) Summarize(ctx context.Context, window Window, bucket Bucket) (domain.ReportSummary, error) {
	now := a.now()
	records, err := a.source.QueryTransactions(ctx, Filter(window, bucket, now))
	if err != nil {
		return domain.ReportSummary{}, domain.WrapStore("query transactions", err)
	}
	summary := Summarize(records)
	summary.Window = string(window)
	summary.Bucket = string(bucket)
	summary.GeneratedAt = now
	return summary, nil
}

// Summarize totals an already-filtered record set.
func Summarize(records []store.TransactionRecord) domain.ReportSummary {
	revenue := decimal.Zero
	tax := decimal.Zero
	for _, rec := range records {
		revenue = revenue.Add(rec.GrandTotal)
		tax = tax.Add(rec.SalesTax)
	}
	return domain.ReportSummary{
		Count:         len(records),
		Revenue:       revenue,
		SalesTaxTotal: tax,
		NetIncome:     revenue.Sub(tax),
	}
}
