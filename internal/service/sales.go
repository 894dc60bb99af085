package service

import (
	"context"
	"errors"
	"strings"

	"tillpoint/internal/codec"
	"tillpoint/internal/domain"
	"tillpoint/internal/sale"
	"tillpoint/internal/store"
	"tillpoint/internal/xid"
)

// OpenSale starts an empty sale session.
func (s *Service) OpenSale(ctx context.Context) (domain.SaleSnapshot, error) {
	id, session := s.newSession()
	s.logger.DebugContext(ctx, "sale opened", "sale_id", id)
	return snapshotOf(id, session.calc), nil
}

func (s *Service) GetSale(_ context.Context, saleID string) (domain.SaleSnapshot, error) {
	session, err := s.session(saleID)
	if err != nil {
		return domain.SaleSnapshot{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return snapshotOf(saleID, session.calc), nil
}

// AddSaleLine appends a line to an open sale. Without an explicit unit price
// the active inventory item of that name supplies it.
func (s *Service) AddSaleLine(ctx context.Context, saleID string, req domain.SaleLineRequest) (domain.SaleSnapshot, error) {
	session, err := s.session(saleID)
	if err != nil {
		return domain.SaleSnapshot{}, err
	}

	name := strings.TrimSpace(req.Name)
	if err := codec.ValidateName(name); err != nil {
		return domain.SaleSnapshot{}, err
	}

	line := domain.LineItem{Name: name, Quantity: req.Quantity}
	if req.UnitPrice != nil {
		line.UnitPrice = *req.UnitPrice
	} else {
		if name == "" {
			return domain.SaleSnapshot{}, domain.Invalid("item name is required")
		}
		price, err := s.LookupDefaultPrice(ctx, name)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.SaleSnapshot{}, domain.Invalid("no active item named %q to take a default price from", name)
		}
		if err != nil {
			return domain.SaleSnapshot{}, err
		}
		line.UnitPrice = price
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if err := session.calc.AddLine(line); err != nil {
		return domain.SaleSnapshot{}, err
	}
	return snapshotOf(saleID, session.calc), nil
}

func (s *Service) ClearSale(_ context.Context, saleID string) (domain.SaleSnapshot, error) {
	session, err := s.session(saleID)
	if err != nil {
		return domain.SaleSnapshot{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	session.calc.Clear()
	return snapshotOf(saleID, session.calc), nil
}

// DiscardSale drops the session and its lines.
func (s *Service) DiscardSale(ctx context.Context, saleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[saleID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.sessions, saleID)
	s.logger.DebugContext(ctx, "sale discarded", "sale_id", saleID)
	return nil
}

// CompleteSale finalizes the sale, persists it and clears the session. On a
// store failure the lines stay in place so the sale can be retried.
func (s *Service) CompleteSale(ctx context.Context, saleID string) (domain.Transaction, error) {
	session, err := s.session(saleID)
	if err != nil {
		return domain.Transaction{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	tx, err := session.calc.Finalize()
	if err != nil {
		return domain.Transaction{}, err
	}

	id, err := s.repo.InsertTransaction(ctx, store.TransactionRecord{
		Timestamp:  tx.Timestamp,
		Subtotal:   tx.Subtotal,
		SalesTax:   tx.SalesTax,
		GrandTotal: tx.GrandTotal,
		ItemBlob:   codec.Encode(tx.Lines),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "save transaction failed", "sale_id", saleID, "error", err)
		return domain.Transaction{}, domain.WrapStore("insert transaction", err)
	}
	tx.ID = id
	session.calc.Clear()

	s.metrics.SaleCompleted(tx.GrandTotal)
	s.logAudit(ctx, "sale_complete", "sale_id", saleID, "transaction_id", id, "lines", len(tx.Lines), "grand_total", tx.GrandTotal.String())
	return tx, nil
}

// ParkSale moves a non-empty sale into the parked-sale cache and closes its
// session.
func (s *Service) ParkSale(ctx context.Context, saleID string) (domain.ParkedSale, error) {
	session, err := s.session(saleID)
	if err != nil {
		return domain.ParkedSale{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.calc.Len() == 0 {
		return domain.ParkedSale{}, domain.Invalid("cannot park a sale without line items")
	}

	parkID := xid.New("park")
	if err := s.parked.Park(ctx, parkID, codec.Encode(session.calc.Lines()), s.parkedTTL); err != nil {
		return domain.ParkedSale{}, domain.WrapStore("park sale", err)
	}

	s.mu.Lock()
	delete(s.sessions, saleID)
	s.mu.Unlock()

	parked := domain.ParkedSale{ParkID: parkID, Lines: session.calc.Len(), ParkedAt: s.now()}
	s.logAudit(ctx, "sale_park", "sale_id", saleID, "park_id", parkID, "lines", parked.Lines)
	return parked, nil
}

// ResumeSale takes a parked sale out of the cache and opens a new session
// with its lines. A park id can be resumed once.
func (s *Service) ResumeSale(ctx context.Context, parkID string) (domain.SaleSnapshot, error) {
	blob, ok, err := s.parked.Take(ctx, parkID)
	if err != nil {
		return domain.SaleSnapshot{}, domain.WrapStore("take parked sale", err)
	}
	if !ok {
		return domain.SaleSnapshot{}, domain.ErrNotFound
	}

	id, session := s.newSession()
	session.mu.Lock()
	defer session.mu.Unlock()

	for _, line := range codec.Decode(blob) {
		if err := session.calc.AddLine(line); err != nil {
			s.logger.WarnContext(ctx, "dropped parked line", "park_id", parkID, "name", line.Name, "error", err)
		}
	}

	s.logAudit(ctx, "sale_resume", "park_id", parkID, "sale_id", id, "lines", session.calc.Len())
	return snapshotOf(id, session.calc), nil
}

func (s *Service) newSession() (string, *saleSession) {
	id := xid.New("sale")
	session := &saleSession{calc: sale.NewCalculator(s.taxRate).WithClock(s.now)}

	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()
	return id, session
}

func (s *Service) session(saleID string) (*saleSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[saleID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return session, nil
}

func snapshotOf(saleID string, calc *sale.Calculator) domain.SaleSnapshot {
	return domain.SaleSnapshot{
		SaleID: saleID,
		Lines:  calc.Lines(),
		Totals: calc.Totals(),
	}
}
