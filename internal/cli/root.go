// Package cli is the back-office command line: inventory maintenance,
// report summaries, transaction history and spreadsheet export against the
// same store the server uses.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"tillpoint/internal/service"
	"tillpoint/internal/store"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// Options wires the command tree to its collaborators. Open is called once
// per invocation, before any subcommand runs.
type Options struct {
	Open    func(ctx context.Context) (store.Repository, error)
	TaxRate *decimal.Decimal
	Logger  *slog.Logger
}

type app struct {
	opts   Options
	output string
	repo   store.Repository
	svc    *service.Service
}

func NewRootCommand(opts Options) *cobra.Command {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:           "tillctl",
		Short:         "Back-office tools for the tillpoint register",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVarP(&a.output, "output", "o", outputText, "output format: text, json or yaml")

	root.AddCommand(
		a.inventoryCommand(),
		a.saleCommand(),
		a.reportCommand(),
		a.historyCommand(),
		a.exportCommand(),
	)
	return root
}

func (a *app) open(ctx context.Context) error {
	switch a.output {
	case outputText, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unknown output format %q", a.output)
	}
	if a.opts.Open == nil {
		return fmt.Errorf("no repository configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	repo, err := a.opts.Open(ctx)
	if err != nil {
		return err
	}
	a.repo = repo
	a.svc = service.New(repo, nil, service.Options{
		TaxRate: a.opts.TaxRate,
		Logger:  a.opts.Logger,
	})
	return nil
}

func (a *app) close() error {
	if a.repo == nil {
		return nil
	}
	err := a.repo.Close()
	a.repo = nil
	return err
}
