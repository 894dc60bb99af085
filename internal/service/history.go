package service

import (
	"context"

	"tillpoint/internal/codec"
	"tillpoint/internal/domain"
	"tillpoint/internal/report"
	"tillpoint/internal/store"
)

// ListTransactions returns the saved transactions matching a window and
// bucket, oldest first, with their item lists decoded.
func (s *Service) ListTransactions(ctx context.Context, window report.Window, bucket report.Bucket) ([]domain.Transaction, error) {
	records, err := s.repo.QueryTransactions(ctx, report.Filter(window, bucket, s.now()))
	if err != nil {
		return nil, domain.WrapStore("query transactions", err)
	}

	out := make([]domain.Transaction, 0, len(records))
	for _, rec := range records {
		out = append(out, transactionFromRecord(rec))
	}
	return out, nil
}

func (s *Service) GetTransaction(ctx context.Context, id int64) (domain.Transaction, error) {
	rec, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return domain.Transaction{}, domain.WrapStore("get transaction", err)
	}
	return transactionFromRecord(rec), nil
}

// Summarize produces the summary for one window/bucket pair.
func (s *Service) Summarize(ctx context.Context, window report.Window, bucket report.Bucket) (domain.ReportSummary, error) {
	summary, err := s.aggregator.Summarize(ctx, window, bucket)
	if err != nil {
		s.logger.ErrorContext(ctx, "report failed", "window", window, "bucket", bucket, "error", err)
		return domain.ReportSummary{}, err
	}
	s.metrics.ReportGenerated(string(window), string(bucket))
	return summary, nil
}

// Stored totals are authoritative; lines are decoded leniently.
func transactionFromRecord(rec store.TransactionRecord) domain.Transaction {
	return domain.Transaction{
		ID:        rec.ID,
		Timestamp: rec.Timestamp,
		Lines:     codec.Decode(rec.ItemBlob),
		Totals: domain.Totals{
			Subtotal:   rec.Subtotal,
			SalesTax:   rec.SalesTax,
			GrandTotal: rec.GrandTotal,
		},
	}
}
