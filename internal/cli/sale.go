package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tillpoint/internal/domain"
)

func (a *app) saleCommand() *cobra.Command {
	var lines []string
	cmd := &cobra.Command{
		Use:   "sale",
		Short: "Ring up and record a sale in one step",
		Long: `Each --line is NAME, NAME:QTY or NAME:QTY:PRICE. Without a price the
item's catalog default is charged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(lines) == 0 {
				return domain.Invalid("at least one --line is required")
			}
			ctx := cmd.Context()
			snapshot, err := a.svc.OpenSale(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.svc.DiscardSale(ctx, snapshot.SaleID) }()

			for _, spec := range lines {
				req, err := parseLineSpec(spec)
				if err != nil {
					return err
				}
				if _, err := a.svc.AddSaleLine(ctx, snapshot.SaleID, req); err != nil {
					return err
				}
			}

			tx, err := a.svc.CompleteSale(ctx, snapshot.SaleID)
			if err != nil {
				return err
			}
			view := transactionViewOf(tx)
			return a.render(cmd.OutOrStdout(), view, func(tw *tabwriter.Writer) {
				printReceipt(tw, view)
			})
		},
	}
	cmd.Flags().StringArrayVarP(&lines, "line", "l", nil, "line item as NAME[:QTY[:PRICE]]")
	return cmd
}

func parseLineSpec(spec string) (domain.SaleLineRequest, error) {
	parts := strings.Split(spec, ":")
	req := domain.SaleLineRequest{Name: strings.TrimSpace(parts[0]), Quantity: 1}
	if len(parts) > 3 {
		return req, domain.Invalid("line %q has too many fields", spec)
	}
	if len(parts) >= 2 {
		qty, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return req, domain.Invalid("line %q: quantity must be a whole number", spec)
		}
		req.Quantity = qty
	}
	if len(parts) == 3 {
		price, err := domain.ParsePrice(parts[2])
		if err != nil {
			return req, err
		}
		req.UnitPrice = &price
	}
	return req, nil
}

func printReceipt(tw *tabwriter.Writer, tx transactionView) {
	fmt.Fprintf(tw, "transaction %d\t%s\n", tx.ID, tx.Timestamp)
	for _, line := range tx.Lines {
		fmt.Fprintf(tw, "  %s\t%d x %s\t%s\n", line.Name, line.Quantity, line.UnitPrice, line.LineTotal)
	}
	fmt.Fprintf(tw, "subtotal\t\t%s\n", tx.Subtotal)
	fmt.Fprintf(tw, "sales tax\t\t%s\n", tx.SalesTax)
	fmt.Fprintf(tw, "total\t\t%s\n", tx.GrandTotal)
}
