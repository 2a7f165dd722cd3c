package indexing

import (
	"context"
	"time"

	"kvittera/internal/storage"
	"kvittera/pkg/model"
)

// Applier commits sync plans. It is the only component that mutates the
// secondary index or the aggregate ledger.
type Applier struct {
	writer storage.BatchWriter
}

func NewApplier(writer storage.BatchWriter) *Applier {
	return &Applier{writer: writer}
}

// Apply commits every deletion, insertion and non-zero counter delta of the
// plan as a single atomic batch: either all effects become visible or none
// do. An empty plan is a successful no-op.
//
// On failure the caller must retry the full synchronization from a freshly
// read snapshot; replaying a stale plan would double count.
func (a *Applier) Apply(ctx context.Context, plan *Plan, writeTime time.Time) error {
	if plan == nil || plan.Empty() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return model.WrapError(err)
	}

	batch := &storage.Batch{
		DeleteEntries:  plan.Deletions,
		InsertEntries:  plan.Insertions,
		WriteTimestamp: writeTime.UnixMilli(),
	}

	for _, key := range plan.SortedKeys() {
		delta := plan.Deltas[key]
		inc := storage.CounterIncrement{Key: key, Delta: delta}
		// Counter metadata follows net additions only
		if delta > 0 {
			if meta, ok := plan.Meta[key]; ok {
				inc.Meta = &meta
			}
		}
		batch.Increments = append(batch.Increments, inc)
	}

	return a.writer.Commit(ctx, batch)
}
