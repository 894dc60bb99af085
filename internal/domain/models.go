package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type LineItem struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// LineTotal is UnitPrice x Quantity, unrounded.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	SalesTax   decimal.Decimal `json:"sales_tax"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// Transaction is a finalized sale. Totals are derived from Lines by the
// calculator when the sale is finalized, or read back from the store for
// historical transactions.
type Transaction struct {
	ID        int64      `json:"id"`
	Timestamp time.Time  `json:"timestamp"`
	Lines     []LineItem `json:"lines"`
	Totals
}

// Clone returns a copy that shares no line storage with t.
func (t Transaction) Clone() Transaction {
	out := t
	out.Lines = append([]LineItem(nil), t.Lines...)
	return out
}

type InventoryItem struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	DefaultPrice decimal.Decimal `json:"default_price"`
	Active       bool            `json:"active"`
}

type SelectableItems struct {
	Names        []string `json:"names"`
	EntryEnabled bool     `json:"entry_enabled"`
}

// SaleLineRequest adds a line to an open sale. A nil UnitPrice means the
// item's inventory default price.
type SaleLineRequest struct {
	Name      string
	UnitPrice *decimal.Decimal
	Quantity  int
}

// SaleSnapshot is an immutable view of an in-progress sale.
type SaleSnapshot struct {
	SaleID string     `json:"sale_id"`
	Lines  []LineItem `json:"lines"`
	Totals
}

type ParkedSale struct {
	ParkID   string    `json:"park_id"`
	Lines    int       `json:"lines"`
	ParkedAt time.Time `json:"parked_at"`
}

type ReportSummary struct {
	Window        string          `json:"window"`
	Bucket        string          `json:"bucket"`
	Count         int             `json:"count"`
	Revenue       decimal.Decimal `json:"revenue"`
	SalesTaxTotal decimal.Decimal `json:"sales_tax_total"`
	NetIncome     decimal.Decimal `json:"net_income"`
	GeneratedAt   time.Time       `json:"generated_at"`
}

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

type Actor struct {
	Username string
	Role     string
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}
