package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"tillpoint/internal/domain"
	"tillpoint/internal/export"
	"tillpoint/internal/store"
	"tillpoint/internal/store/memory"
)

func run(t *testing.T, repo store.Repository, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(Options{
		Open: func(context.Context) (store.Repository, error) { return repo, nil },
	})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInventoryListText(t *testing.T) {
	out, err := run(t, memory.NewSeeded(), "inventory", "list")
	require.NoError(t, err)
	require.Contains(t, out, "ID")
	require.Contains(t, out, "Coffee")
	require.Contains(t, out, "2.50")
}

func TestInventoryAddEditAndToggle(t *testing.T) {
	repo := memory.NewSeeded()

	out, err := run(t, repo, "-o", "json", "inventory", "add", "--name", "Tea", "--price", "1.80")
	require.NoError(t, err)
	var added map[string]int64
	require.NoError(t, json.Unmarshal([]byte(out), &added))
	require.Equal(t, int64(6), added["id"])

	out, err = run(t, repo, "-o", "json", "inventory", "edit", "6", "--price", "2.05")
	require.NoError(t, err)
	var edited inventoryView
	require.NoError(t, json.Unmarshal([]byte(out), &edited))
	require.Equal(t, inventoryView{ID: 6, Name: "Tea", DefaultPrice: "2.05", Active: true}, edited)

	_, err = run(t, repo, "inventory", "deactivate", "6")
	require.NoError(t, err)

	out, err = run(t, repo, "-o", "json", "inventory", "names")
	require.NoError(t, err)
	var names []string
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	require.Equal(t, []string{"Bagel", "Coffee", "Muffin", "Newspaper", "Orange Juice"}, names)

	_, err = run(t, repo, "inventory", "edit", "42", "--name", "Ghost")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = run(t, repo, "inventory", "add", "--name", "Bad~~Name", "--price", "1")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = run(t, repo, "inventory", "activate", "zero")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestSaleThenReportYAML(t *testing.T) {
	repo := memory.NewSeeded()

	out, err := run(t, repo, "sale", "--line", "Coffee:2", "--line", "Widget:1:9.99")
	require.NoError(t, err)
	require.Contains(t, out, "15.89")

	out, err = run(t, repo, "-o", "yaml", "report", "--window", "day")
	require.NoError(t, err)
	var summary summaryView
	require.NoError(t, yaml.Unmarshal([]byte(out), &summary))
	require.Equal(t, 1, summary.Count)
	require.Equal(t, "15.89", summary.Revenue)
	require.Equal(t, "0.90", summary.SalesTaxTotal)
	require.Equal(t, "14.99", summary.NetIncome)

	out, err = run(t, repo, "-o", "json", "history")
	require.NoError(t, err)
	var history []transactionView
	require.NoError(t, json.Unmarshal([]byte(out), &history))
	require.Len(t, history, 1)
	require.Equal(t, []lineView{
		{Name: "Coffee", UnitPrice: "2.50", Quantity: 2, LineTotal: "5.00"},
		{Name: "Widget", UnitPrice: "9.99", Quantity: 1, LineTotal: "9.99"},
	}, history[0].Lines)
}

func TestSaleRejectsBadLines(t *testing.T) {
	repo := memory.NewSeeded()

	_, err := run(t, repo, "sale")
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = run(t, repo, "sale", "--line", "Coffee:two")
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = run(t, repo, "sale", "--line", "Caviar:1")
	require.ErrorIs(t, err, domain.ErrValidation)

	txs, err := repo.QueryTransactions(context.Background(), store.TransactionFilter{})
	require.NoError(t, err)
	require.Empty(t, txs)
}

func TestParseLineSpec(t *testing.T) {
	req, err := parseLineSpec("Bagel")
	require.NoError(t, err)
	require.Equal(t, domain.SaleLineRequest{Name: "Bagel", Quantity: 1}, req)

	req, err = parseLineSpec("Widget:3:4.25")
	require.NoError(t, err)
	require.Equal(t, 3, req.Quantity)
	require.True(t, req.UnitPrice.Equal(decimal.RequireFromString("4.25")))

	_, err = parseLineSpec("a:1:2:3")
	require.Error(t, err)
}

func TestReportRejectsUnknownWindowAndOutput(t *testing.T) {
	_, err := run(t, memory.NewSeeded(), "report", "--window", "fortnight")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = run(t, memory.NewSeeded(), "-o", "xml", "report")
	require.Error(t, err)
	require.Contains(t, err.Error(), "output format")
}

func TestExportWritesWorkbook(t *testing.T) {
	repo := memory.New()
	_, err := repo.InsertTransaction(context.Background(), store.TransactionRecord{
		Timestamp:  time.Now().UTC(),
		Subtotal:   decimal.RequireFromString("1200.00"),
		SalesTax:   decimal.RequireFromString("72.00"),
		GrandTotal: decimal.RequireFromString("1272.00"),
		ItemBlob:   "[Laptop~~1200.00~~1]",
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.xlsx")
	out, err := run(t, repo, "export", "--bucket", "1000-plus", "--file", path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "wrote 1 transactions"))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	rows, err := f.GetRows(export.TransactionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestOpenFailureIsReturned(t *testing.T) {
	errDown := errors.New("database down")
	root := NewRootCommand(Options{
		Open: func(context.Context) (store.Repository, error) { return nil, errDown },
	})
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"inventory", "list"})
	require.ErrorIs(t, root.ExecuteContext(context.Background()), errDown)
}
