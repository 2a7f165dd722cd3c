package indexing

import (
	"context"
	"log/slog"
	"time"

	"kvittera/internal/events"
	"kvittera/internal/storage"
	"kvittera/pkg/model"
)

// Engine coordinates snapshot reads, plan computation and atomic commits.
// It spawns no background work; every call is one unit of work on the
// caller's goroutine.
//
// Concurrent syncs of different receipts compose through signed counter
// increments. Concurrent syncs of the same receipt race on the snapshot
// read and are not guarded; last observed snapshot wins.
type Engine struct {
	provider  storage.Provider
	applier   *Applier
	reader    *Reader
	reconcile *Reconciler
	publisher events.Publisher
}

// NewEngine builds the engine on top of a storage provider. publisher may
// be nil, in which case events are discarded.
func NewEngine(provider storage.Provider, publisher events.Publisher) *Engine {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	applier := NewApplier(provider.Writer())
	return &Engine{
		provider:  provider,
		applier:   applier,
		reader:    NewReader(provider.Index(), provider.Ledger()),
		reconcile: NewReconciler(provider.Receipts(), provider.Index(), applier),
		publisher: publisher,
	}
}

func (e *Engine) Sync(ctx context.Context, receiptID string) (*SyncResult, error) {
	receipt, err := e.provider.Receipts().Get(ctx, receiptID)
	if err != nil {
		return nil, model.WrapError(err)
	}

	previous, err := e.provider.Index().EntriesByReceipt(ctx, receiptID)
	if err != nil {
		return nil, model.WrapError(err)
	}

	var plan *Plan
	syncType := events.SyncUpsert
	if receipt.Status == model.StatusParsed {
		plan = BuildUpsertPlan(receipt, previous)
	} else {
		// Pending or failed receipts carry no trustworthy items; whatever
		// was indexed for an earlier parse must go.
		plan = BuildRemovalPlan(receiptID, previous)
		syncType = events.SyncRemove
	}

	if err := e.commit(ctx, plan, syncType, receipt.OwnerID()); err != nil {
		return nil, err
	}
	return planResult(plan), nil
}

func (e *Engine) Remove(ctx context.Context, receiptID string) (*SyncResult, error) {
	previous, err := e.provider.Index().EntriesByReceipt(ctx, receiptID)
	if err != nil {
		return nil, model.WrapError(err)
	}

	plan := BuildRemovalPlan(receiptID, previous)
	ownerID := ""
	if len(previous) > 0 {
		ownerID = previous[0].OwnerID
	}

	if err := e.commit(ctx, plan, events.SyncRemove, ownerID); err != nil {
		return nil, err
	}
	return planResult(plan), nil
}

func (e *Engine) PurgeReceipt(ctx context.Context, receiptID string) error {
	return e.reconcile.PurgeReceipt(ctx, receiptID)
}

func (e *Engine) PurgeOwner(ctx context.Context, ownerID string) (int, error) {
	return e.reconcile.PurgeOwner(ctx, ownerID)
}

func (e *Engine) OccurrenceCounts(ctx context.Context, codes []string, ownerID string) (map[string]int64, error) {
	return e.reader.OccurrenceCounts(ctx, codes, ownerID)
}

func (e *Engine) References(ctx context.Context, code string, ownerID string, limit int) ([]*storage.ItemIndexEntry, error) {
	return e.reader.References(ctx, code, ownerID, limit)
}

// commit applies the plan and, for non-empty plans, publishes the sync
// event. Event delivery failures are logged, never propagated: the commit
// already happened.
func (e *Engine) commit(ctx context.Context, plan *Plan, syncType events.SyncType, ownerID string) error {
	if plan.Empty() {
		return nil
	}

	if err := e.applier.Apply(ctx, plan, time.Now()); err != nil {
		return err
	}

	event := events.NewSyncEvent(syncType, plan.ReceiptID, ownerID)
	event.Inserted = len(plan.Insertions)
	event.Deleted = len(plan.Deletions)
	for key, delta := range plan.Deltas {
		event.Deltas[key.String()] = delta
	}

	if err := e.publisher.Publish(ctx, event); err != nil {
		slog.Warn("Failed to publish sync event", "receipt_id", plan.ReceiptID, "error", err)
	}

	slog.Debug("Synchronization committed",
		"receipt_id", plan.ReceiptID,
		"type", syncType,
		"inserted", len(plan.Insertions),
		"deleted", len(plan.Deletions),
		"deltas", len(plan.Deltas),
	)
	return nil
}

func planResult(plan *Plan) *SyncResult {
	result := &SyncResult{
		ReceiptID: plan.ReceiptID,
		Inserted:  len(plan.Insertions),
		Deleted:   len(plan.Deletions),
		Deltas:    map[string]int64{},
	}
	for key, delta := range plan.Deltas {
		result.Deltas[key.String()] = delta
	}
	return result
}
