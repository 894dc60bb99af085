package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tillpoint/internal/export"
	"tillpoint/internal/report"
)

type windowFlags struct {
	window string
	bucket string
}

func (f *windowFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.window, "window", "w", string(report.WindowAll), "time window: all, hour, day, week, month, year")
	cmd.Flags().StringVarP(&f.bucket, "bucket", "b", string(report.BucketAll), "grand total range: all, under-100, 100-500, 500-1000, 1000-plus")
}

func (f *windowFlags) parse() (report.Window, report.Bucket, error) {
	window, err := report.ParseWindow(f.window)
	if err != nil {
		return "", "", err
	}
	bucket, err := report.ParseBucket(f.bucket)
	if err != nil {
		return "", "", err
	}
	return window, bucket, nil
}

func (a *app) reportCommand() *cobra.Command {
	var flags windowFlags
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize revenue, sales tax and net income",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			window, bucket, err := flags.parse()
			if err != nil {
				return err
			}
			summary, err := a.svc.Summarize(cmd.Context(), window, bucket)
			if err != nil {
				return err
			}
			view := summaryViewOf(summary)
			return a.render(cmd.OutOrStdout(), view, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "window\t%s\n", view.Window)
				fmt.Fprintf(tw, "bucket\t%s\n", view.Bucket)
				fmt.Fprintf(tw, "transactions\t%d\n", view.Count)
				fmt.Fprintf(tw, "revenue\t%s\n", view.Revenue)
				fmt.Fprintf(tw, "sales tax\t%s\n", view.SalesTaxTotal)
				fmt.Fprintf(tw, "net income\t%s\n", view.NetIncome)
				fmt.Fprintf(tw, "generated\t%s\n", view.GeneratedAt)
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func (a *app) historyCommand() *cobra.Command {
	var flags windowFlags
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded transactions, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			window, bucket, err := flags.parse()
			if err != nil {
				return err
			}
			txs, err := a.svc.ListTransactions(cmd.Context(), window, bucket)
			if err != nil {
				return err
			}
			views := make([]transactionView, 0, len(txs))
			for _, tx := range txs {
				views = append(views, transactionViewOf(tx))
			}
			return a.render(cmd.OutOrStdout(), views, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "ID\tTIME\tLINES\tSUBTOTAL\tTAX\tTOTAL")
				for _, v := range views {
					fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n", v.ID, v.Timestamp, len(v.Lines), v.Subtotal, v.SalesTax, v.GrandTotal)
				}
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func (a *app) exportCommand() *cobra.Command {
	var (
		flags windowFlags
		path  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write transactions and their lines to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			window, bucket, err := flags.parse()
			if err != nil {
				return err
			}
			txs, err := a.svc.ListTransactions(cmd.Context(), window, bucket)
			if err != nil {
				return err
			}

			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := export.WriteTransactions(f, txs); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			result := map[string]any{"path": path, "transactions": len(txs)}
			return a.render(cmd.OutOrStdout(), result, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "wrote %d transactions to %s\n", len(txs), path)
			})
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVarP(&path, "file", "f", "transactions.xlsx", "destination workbook")
	return cmd
}
