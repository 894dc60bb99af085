// Package export renders transaction history as an XLSX workbook with one
// sheet of transactions and one of their line items.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"tillpoint/internal/domain"
)

const (
	TransactionsSheet = "Transactions"
	LinesSheet        = "Lines"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	transactionHeader = []any{"Transaction ID", "Timestamp", "Lines", "Subtotal", "Sales Tax", "Grand Total"}
	lineHeader        = []any{"Transaction ID", "Name", "Unit Price", "Quantity", "Line Total"}
)

func WriteTransactions(w io.Writer, txs []domain.Transaction) error {
	f, err := Build(txs)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Build lays out the workbook. Money cells are numbers with two decimals;
// timestamps are real date cells in UTC.
func Build(txs []domain.Transaction) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), TransactionsSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(LinesSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to add sheet: %w", err)
	}

	if err := fill(f, txs); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func fill(f *excelize.File, txs []domain.Transaction) error {
	dateFmt := "yyyy-mm-dd hh:mm:ss"
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return fmt.Errorf("failed to create money style: %w", err)
	}

	if err := f.SetSheetRow(TransactionsSheet, "A1", &transactionHeader); err != nil {
		return err
	}
	if err := f.SetSheetRow(LinesSheet, "A1", &lineHeader); err != nil {
		return err
	}

	lineRow := 2
	for i, tx := range txs {
		row := i + 2
		values := []any{
			tx.ID,
			tx.Timestamp.UTC(),
			len(tx.Lines),
			tx.Subtotal.InexactFloat64(),
			tx.SalesTax.InexactFloat64(),
			tx.GrandTotal.InexactFloat64(),
		}
		if err := f.SetSheetRow(TransactionsSheet, cell(1, row), &values); err != nil {
			return err
		}
		if err := f.SetCellStyle(TransactionsSheet, cell(2, row), cell(2, row), dateStyle); err != nil {
			return err
		}
		if err := f.SetCellStyle(TransactionsSheet, cell(4, row), cell(6, row), moneyStyle); err != nil {
			return err
		}

		for _, line := range tx.Lines {
			values := []any{
				tx.ID,
				line.Name,
				line.UnitPrice.InexactFloat64(),
				line.Quantity,
				line.LineTotal().InexactFloat64(),
			}
			if err := f.SetSheetRow(LinesSheet, cell(1, lineRow), &values); err != nil {
				return err
			}
			if err := f.SetCellStyle(LinesSheet, cell(3, lineRow), cell(3, lineRow), moneyStyle); err != nil {
				return err
			}
			if err := f.SetCellStyle(LinesSheet, cell(5, lineRow), cell(5, lineRow), moneyStyle); err != nil {
				return err
			}
			lineRow++
		}
	}

	for _, sheet := range []string{TransactionsSheet, LinesSheet} {
		if err := f.SetColWidth(sheet, "A", "F", 16); err != nil {
			return err
		}
	}
	return f.SetColWidth(TransactionsSheet, "B", "B", 20)
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
