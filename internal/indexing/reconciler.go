package indexing

import (
	"context"
	"log/slog"
	"time"

	"kvittera/internal/storage"
	"kvittera/pkg/model"
)

// Reconciler removes an owner's receipts together with their derived state.
//
// Receipts are processed one at a time, each with its own atomic batch. A
// crash mid-purge can leave later receipts untouched, but never a deleted
// receipt with dangling index entries, nor removed entries whose counters
// were not decremented.
type Reconciler struct {
	receipts storage.ReceiptStore
	index    storage.IndexStore
	applier  *Applier
}

func NewReconciler(receipts storage.ReceiptStore, index storage.IndexStore, applier *Applier) *Reconciler {
	return &Reconciler{receipts: receipts, index: index, applier: applier}
}

// PurgeOwner deletes every receipt of the owner after cleaning its index
// entries and counters. Returns the number of receipts purged.
func (r *Reconciler) PurgeOwner(ctx context.Context, ownerID string) (int, error) {
	ids, err := r.receipts.IDsByOwner(ctx, ownerID)
	if err != nil {
		return 0, model.WrapError(err)
	}

	purged := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return purged, model.WrapError(err)
		}
		if err := r.PurgeReceipt(ctx, id); err != nil {
			return purged, err
		}
		purged++
	}

	slog.Info("Owner purge completed", "owner_id", ownerID, "receipts", purged)
	return purged, nil
}

// PurgeReceipt cleans one receipt's derived state in an atomic batch and
// then deletes the receipt itself. The index cleanup commits before the
// parent delete so a crash in between leaves no dangling entries.
func (r *Reconciler) PurgeReceipt(ctx context.Context, receiptID string) error {
	previous, err := r.index.EntriesByReceipt(ctx, receiptID)
	if err != nil {
		return model.WrapError(err)
	}

	plan := BuildRemovalPlan(receiptID, previous)
	if err := r.applier.Apply(ctx, plan, time.Now()); err != nil {
		return err
	}

	if err := r.receipts.Delete(ctx, receiptID); err != nil && err != model.ErrNotFound {
		return model.WrapError(err)
	}
	return nil
}
