package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"tillpoint/internal/domain"
)

// Views carry money as fixed-point text so every output format prints the
// same digits.

type inventoryView struct {
	ID           int64  `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	DefaultPrice string `json:"default_price" yaml:"default_price"`
	Active       bool   `json:"active" yaml:"active"`
}

type lineView struct {
	Name      string `json:"name" yaml:"name"`
	UnitPrice string `json:"unit_price" yaml:"unit_price"`
	Quantity  int    `json:"quantity" yaml:"quantity"`
	LineTotal string `json:"line_total" yaml:"line_total"`
}

type transactionView struct {
	ID         int64      `json:"id" yaml:"id"`
	Timestamp  string     `json:"timestamp" yaml:"timestamp"`
	Subtotal   string     `json:"subtotal" yaml:"subtotal"`
	SalesTax   string     `json:"sales_tax" yaml:"sales_tax"`
	GrandTotal string     `json:"grand_total" yaml:"grand_total"`
	Lines      []lineView `json:"lines" yaml:"lines"`
}

type summaryView struct {
	Window        string `json:"window" yaml:"window"`
	Bucket        string `json:"bucket" yaml:"bucket"`
	Count         int    `json:"count" yaml:"count"`
	Revenue       string `json:"revenue" yaml:"revenue"`
	SalesTaxTotal string `json:"sales_tax_total" yaml:"sales_tax_total"`
	NetIncome     string `json:"net_income" yaml:"net_income"`
	GeneratedAt   string `json:"generated_at" yaml:"generated_at"`
}

// money prints at least two places without dropping finer precision.
func money(d decimal.Decimal) string {
	if d.Exponent() < -2 {
		return d.String()
	}
	return d.StringFixed(2)
}

func inventoryViews(items []domain.InventoryItem) []inventoryView {
	out := make([]inventoryView, 0, len(items))
	for _, item := range items {
		out = append(out, inventoryView{
			ID:           item.ID,
			Name:         item.Name,
			DefaultPrice: money(item.DefaultPrice),
			Active:       item.Active,
		})
	}
	return out
}

func transactionViewOf(tx domain.Transaction) transactionView {
	lines := make([]lineView, 0, len(tx.Lines))
	for _, line := range tx.Lines {
		lines = append(lines, lineView{
			Name:      line.Name,
			UnitPrice: money(line.UnitPrice),
			Quantity:  line.Quantity,
			LineTotal: line.LineTotal().StringFixed(2),
		})
	}
	return transactionView{
		ID:         tx.ID,
		Timestamp:  tx.Timestamp.UTC().Format(time.RFC3339),
		Subtotal:   tx.Subtotal.StringFixed(2),
		SalesTax:   tx.SalesTax.StringFixed(2),
		GrandTotal: tx.GrandTotal.StringFixed(2),
		Lines:      lines,
	}
}

func summaryViewOf(s domain.ReportSummary) summaryView {
	return summaryView{
		Window:        s.Window,
		Bucket:        s.Bucket,
		Count:         s.Count,
		Revenue:       s.Revenue.StringFixed(2),
		SalesTaxTotal: s.SalesTaxTotal.StringFixed(2),
		NetIncome:     s.NetIncome.StringFixed(2),
		GeneratedAt:   s.GeneratedAt.UTC().Format(time.RFC3339),
	}
}

// render writes v as JSON or YAML, or hands the writer to text for the
// human-readable form.
func (a *app) render(w io.Writer, v any, text func(tw *tabwriter.Writer)) error {
	switch a.output {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		text(tw)
		return tw.Flush()
	}
}

func printInventory(tw *tabwriter.Writer, items []inventoryView) {
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tACTIVE")
	for _, item := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%t\n", item.ID, item.Name, item.DefaultPrice, item.Active)
	}
}
