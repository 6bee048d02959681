package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"billed/internal/core"
	"billed/internal/events"
)

// ExportStore is the bookkeeping side of the export: the SQLite repository.
type ExportStore interface {
	Get(ctx context.Context, id string) (core.Bill, error)
	PendingExport(ctx context.Context, limit int) ([]core.Bill, error)
	IsExported(ctx context.Context, id string) (bool, error)
	MarkExported(ctx context.Context, id string) error
}

// SheetWriter appends bills to the export spreadsheet.
type SheetWriter interface {
	AppendBill(ctx context.Context, b core.Bill) (string, error)
	ExportedIDs(ctx context.Context) (map[string]struct{}, error)
}

// OutcomeCounter counts exports by outcome ("exported", "skipped", "failed").
type OutcomeCounter interface {
	Inc(outcome string)
}

// ExportWorker copies bills from SQLite to the export sheet. Messages and
// sweeps export one bill at a time so a bill is never appended twice.
type ExportWorker struct {
	mu        sync.Mutex
	store     ExportStore
	sheet     SheetWriter
	batchSize int
	outcomes  OutcomeCounter
}

func NewExportWorker(store ExportStore, sheet SheetWriter, batchSize int, outcomes OutcomeCounter) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &ExportWorker{store: store, sheet: sheet, batchSize: batchSize, outcomes: outcomes}
}

// HandleBillCreated exports the bill named by an AMQP message. Returning an
// error requeues the message. Redelivered messages for exported bills are
// acknowledged without a new row.
func (w *ExportWorker) HandleBillCreated(ctx context.Context, msg *events.BillCreatedMessage) error {
	slog.InfoContext(ctx, "Processing bill created message", "id", msg.ID, "email", msg.Email)

	w.mu.Lock()
	defer w.mu.Unlock()

	b, err := w.store.Get(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get bill from storage: %w", err)
	}
	existing, err := w.sheet.ExportedIDs(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Could not read exported ids, relying on the export flag", "error", err)
		existing = nil
	}
	_, err = w.exportOnce(ctx, b, existing)
	return err
}

// ProcessPending exports bills whose message was lost. Bills already present
// in the sheet are only marked exported.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.PendingExport(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending bills: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	existing, err := w.sheet.ExportedIDs(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Could not read exported ids, exporting without dedup", "error", err)
		existing = nil
	}

	slog.InfoContext(ctx, "Processing pending bills", "count", len(pending))

	exported, failed := 0, 0
	for _, b := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.mu.Lock()
		appended, err := w.exportOnce(ctx, b, existing)
		w.mu.Unlock()
		if err != nil {
			slog.ErrorContext(ctx, "Failed to export bill", "id", b.ID, "error", err)
			failed++
			continue
		}
		if appended {
			exported++
		}
	}

	slog.InfoContext(ctx, "Pending export completed",
		"total", len(pending),
		"exported", exported,
		"errors", failed)
	return nil
}

// exportOnce appends b unless it is flagged exported or already on the
// sheet, and reports whether a row was written. Callers hold w.mu.
func (w *ExportWorker) exportOnce(ctx context.Context, b core.Bill, onSheet map[string]struct{}) (bool, error) {
	done, err := w.store.IsExported(ctx, b.ID)
	if err != nil {
		return false, fmt.Errorf("check export state: %w", err)
	}
	if done {
		slog.InfoContext(ctx, "Bill already exported, skipping", "id", b.ID)
		w.count("skipped")
		return false, nil
	}
	if _, ok := onSheet[b.ID]; ok {
		if err := w.store.MarkExported(ctx, b.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mark already exported bill", "id", b.ID, "error", err)
		}
		w.count("skipped")
		return false, nil
	}
	if err := w.export(ctx, b); err != nil {
		return false, err
	}
	return true, nil
}

func (w *ExportWorker) export(ctx context.Context, b core.Bill) error {
	ref, err := w.sheet.AppendBill(ctx, b)
	if err != nil {
		w.count("failed")
		return fmt.Errorf("append to sheet: %w", err)
	}
	w.count("exported")

	// The row is written; a failed mark only means a later sweep skips it.
	if err := w.store.MarkExported(ctx, b.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark bill as exported", "id", b.ID, "error", err)
	}

	slog.InfoContext(ctx, "Exported bill",
		"id", b.ID,
		"sheet_ref", ref,
		"amount_cents", b.Amount.Cents)
	return nil
}

func (w *ExportWorker) count(outcome string) {
	if w.outcomes != nil {
		w.outcomes.Inc(outcome)
	}
}
