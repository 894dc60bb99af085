// Package sale holds the in-progress sale accumulator and the arithmetic
// that derives a transaction's totals from its lines.
package sale

import (
	"time"

	"github.com/shopspring/decimal"

	"tillpoint/internal/domain"
)

// DefaultTaxRate is used when no rate is configured.
var DefaultTaxRate = decimal.RequireFromString("0.06")

const taxPlaces = 2

// ComputeTotals sums the lines and applies the tax rate once, on the final
// subtotal, rounding half-up to two places.
func ComputeTotals(lines []domain.LineItem, taxRate decimal.Decimal) domain.Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal())
	}
	tax := subtotal.Mul(taxRate).Round(taxPlaces)
	return domain.Totals{
		Subtotal:   subtotal,
		SalesTax:   tax,
		GrandTotal: subtotal.Add(tax),
	}
}

// Calculator accumulates the lines of one in-progress sale. It is owned by a
// single entry session and is not safe for concurrent use.
type Calculator struct {
	taxRate decimal.Decimal
	lines   []domain.LineItem
	totals  domain.Totals
	now     func() time.Time
}

func NewCalculator(taxRate decimal.Decimal) *Calculator {
	c := &Calculator{
		taxRate: taxRate,
		now:     func() time.Time { return time.Now().UTC() },
	}
	c.Recalculate()
	return c
}

// WithClock replaces the clock used by Finalize.
func (c *Calculator) WithClock(now func() time.Time) *Calculator {
	if now != nil {
		c.now = now
	}
	return c
}

func (c *Calculator) TaxRate() decimal.Decimal {
	return c.taxRate
}

func (c *Calculator) AddLine(item domain.LineItem) error {
	if err := domain.ValidateLineItem(item); err != nil {
		return err
	}
	c.lines = append(c.lines, item)
	c.Recalculate()
	return nil
}

func (c *Calculator) Clear() {
	c.lines = nil
	c.Recalculate()
}

func (c *Calculator) Recalculate() domain.Totals {
	c.totals = ComputeTotals(c.lines, c.taxRate)
	return c.totals
}

func (c *Calculator) Len() int {
	return len(c.lines)
}

// Lines returns a copy of the accumulated lines.
func (c *Calculator) Lines() []domain.LineItem {
	return append([]domain.LineItem{}, c.lines...)
}

func (c *Calculator) Totals() domain.Totals {
	return c.totals
}

// Finalize stamps the sale and returns it as an independent Transaction.
// The accumulator keeps its lines until Clear is called.
func (c *Calculator) Finalize() (domain.Transaction, error) {
	if len(c.lines) == 0 {
		return domain.Transaction{}, domain.Invalid("cannot finalize a sale without line items")
	}
	return domain.Transaction{
		Timestamp: c.now(),
		Lines:     c.Lines(),
		Totals:    c.Recalculate(),
	}, nil
}
