package services

import (
	"context"
	"fmt"
	"log/slog"

	"billed/internal/core"
	"billed/internal/log"
	"billed/internal/store"
)

// Publisher announces created bills.
type Publisher interface {
	PublishBillCreated(ctx context.Context, id, email string) error
	Close() error
}

// Counter is the subset of a Prometheus counter the service bumps.
type Counter interface {
	Inc()
}

// BillService saves bills through a store and publishes a bill.created
// message so the export worker can pick them up.
type BillService struct {
	store     store.BillStore
	publisher Publisher
	created   Counter
	closers   []func() error
}

func NewBillService(s store.BillStore, publisher Publisher) *BillService {
	return &BillService{store: s, publisher: publisher}
}

// WithCreatedCounter counts successful creations.
func (s *BillService) WithCreatedCounter(c Counter) *BillService {
	s.created = c
	return s
}

// OnClose registers a cleanup run by Close after the publisher is closed.
func (s *BillService) OnClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *BillService) List(ctx context.Context) ([]core.Bill, error) {
	return s.store.List(ctx)
}

// ListByEmail lists one employee's bills, through the store's own filter
// when it has one.
func (s *BillService) ListByEmail(ctx context.Context, email string) ([]core.Bill, error) {
	return store.OwnedBy(s.store, email).List(ctx)
}

// Create saves the bill first; publish failures are logged and never fail
// the request since the bill is already persisted.
func (s *BillService) Create(ctx context.Context, nb store.NewBill) (core.Bill, error) {
	b, err := s.store.Create(ctx, nb)
	if err != nil {
		return core.Bill{}, err
	}
	if s.created != nil {
		s.created.Inc()
	}
	log.NewStructuredLogger(log.FromContext(ctx)).LogBillCreated(ctx, b.ID, b.Email, b.Date, b.Amount.Cents, b.FileName)

	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping bill created message", "id", b.ID)
		return b, nil
	}
	if err := s.publisher.PublishBillCreated(ctx, b.ID, b.Email); err != nil {
		slog.ErrorContext(ctx, "Failed to publish bill created message", "id", b.ID, "error", err)
	}
	return b, nil
}

// Get delegates to the store when it can load single bills.
func (s *BillService) Get(ctx context.Context, id string) (core.Bill, error) {
	g, ok := s.store.(store.BillGetter)
	if !ok {
		return core.Bill{}, fmt.Errorf("bill %s: %w", id, core.ErrNotFound)
	}
	return g.Get(ctx, id)
}

// Receipt delegates to the store when it serves receipts.
func (s *BillService) Receipt(ctx context.Context, id string) (core.Receipt, error) {
	rr, ok := s.store.(store.ReceiptReader)
	if !ok {
		return core.Receipt{}, fmt.Errorf("receipt %s: %w", id, core.ErrNotFound)
	}
	return rr.Receipt(ctx, id)
}

// Close closes the publisher and the registered resources.
func (s *BillService) Close() error {
	var errs []error
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	for _, fn := range s.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close bill service: %v", errs)
	}
	return nil
}
