package indexing

import (
	"sort"
	"strconv"

	"github.com/google/uuid"

	"kvittera/internal/storage"
	"kvittera/pkg/model"
)

// Plan is the computed set of writes that moves derived state from a
// previous index snapshot to the desired one. It lives only for the
// duration of one synchronization call.
type Plan struct {
	ReceiptID string

	// Deletions are the entry ids to remove: always the full previous
	// snapshot. The index is replaced wholesale on every sync, never
	// patched entry by entry.
	Deletions []string

	// Insertions are the freshly synthesized entries
	Insertions []*storage.ItemIndexEntry

	// Deltas are the signed counter adjustments per (scope, code). Keys
	// with a zero net delta are omitted.
	Deltas map[storage.CounterKey]int64

	// Meta carries last-write info for keys the new snapshot touches
	Meta map[storage.CounterKey]storage.CounterMeta
}

// Empty reports whether applying the plan would write nothing.
func (p *Plan) Empty() bool {
	return len(p.Deletions) == 0 && len(p.Insertions) == 0 && len(p.Deltas) == 0
}

// SortedKeys returns the delta keys in a stable order.
func (p *Plan) SortedKeys() []storage.CounterKey {
	keys := make([]storage.CounterKey, 0, len(p.Deltas))
	for key := range p.Deltas {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

// BuildRemovalPlan computes the plan for a receipt that was deleted or
// failed extraction: drop every index entry and decrement the counters the
// entries contributed to, one decrement per removed occurrence.
func BuildRemovalPlan(receiptID string, previous []*storage.ItemIndexEntry) *Plan {
	plan := &Plan{
		ReceiptID: receiptID,
		Deltas:    map[storage.CounterKey]int64{},
		Meta:      map[storage.CounterKey]storage.CounterMeta{},
	}

	for _, entry := range previous {
		plan.Deletions = append(plan.Deletions, entry.ID)
	}
	for key, count := range snapshotCounts(previous) {
		if count != 0 {
			plan.Deltas[key] = -count
		}
	}

	return plan
}

// BuildUpsertPlan computes the plan that replaces the receipt's index
// entries with ones derived from its current items and adjusts counters by
// the difference against the previous snapshot.
//
// Items without a resolvable product code contribute nothing; they are
// deliberately invisible to indexing and aggregation.
func BuildUpsertPlan(receipt *model.Receipt, previous []*storage.ItemIndexEntry) *Plan {
	plan := &Plan{
		ReceiptID: receipt.ID,
		Deltas:    map[storage.CounterKey]int64{},
		Meta:      map[storage.CounterKey]storage.CounterMeta{},
	}

	for _, entry := range previous {
		plan.Deletions = append(plan.Deletions, entry.ID)
	}

	ownerID := receipt.OwnerID()
	newCounts := map[storage.CounterKey]int64{}

	for position, item := range receipt.Items {
		code, ok := NormalizeCode(item)
		if !ok {
			continue
		}

		// Fresh identity on every sync. The identity of a deleted entry is
		// never reused, even for a semantically identical item.
		entry := &storage.ItemIndexEntry{
			ID:               uuid.NewString(),
			ReceiptID:        receipt.ID,
			ItemPosition:     strconv.Itoa(position),
			Code:             code,
			Item:             item,
			OwnerID:          ownerID,
			ReceiptDate:      receipt.General.Date,
			StoreLabel:       receipt.General.StoreLabel,
			ReceiptUpdatedAt: receipt.UpdatedAt,
		}
		plan.Insertions = append(plan.Insertions, entry)

		for _, key := range scopeKeys(ownerID, code) {
			newCounts[key]++
			plan.Meta[key] = storage.CounterMeta{
				ReceiptID:   receipt.ID,
				ReceiptDate: receipt.General.Date,
				StoreLabel:  receipt.General.StoreLabel,
			}
		}
	}

	previousCounts := snapshotCounts(previous)
	for key, count := range newCounts {
		if delta := count - previousCounts[key]; delta != 0 {
			plan.Deltas[key] = delta
		}
	}
	for key, count := range previousCounts {
		if _, seen := newCounts[key]; !seen && count != 0 {
			plan.Deltas[key] = -count
		}
	}

	return plan
}

// snapshotCounts derives per-key occurrence counts from stored entries,
// fanning every entry out to its owner scope and the global scope.
func snapshotCounts(entries []*storage.ItemIndexEntry) map[storage.CounterKey]int64 {
	counts := map[storage.CounterKey]int64{}
	for _, entry := range entries {
		for _, key := range scopeKeys(entry.OwnerID, entry.Code) {
			counts[key]++
		}
	}
	return counts
}

// scopeKeys fans one occurrence out to the scopes it is aggregated under.
func scopeKeys(ownerID string, code string) []storage.CounterKey {
	keys := []storage.CounterKey{{Scope: storage.GlobalScope, Code: code}}
	if ownerID != "" {
		keys = append(keys, storage.CounterKey{Scope: ownerID, Code: code})
	}
	return keys
}
