package indexing

import (
	"context"

	"kvittera/internal/storage"
	"kvittera/pkg/model"
)

// Reader serves the two read paths over the derived state: occurrence
// counts and purchase references. Both are side-effect free and safe at
// arbitrary concurrency.
type Reader struct {
	index  storage.IndexStore
	ledger storage.LedgerStore
}

func NewReader(index storage.IndexStore, ledger storage.LedgerStore) *Reader {
	return &Reader{index: index, ledger: ledger}
}

// OccurrenceCounts returns the purchase count per code within the scope.
// Codes that were never indexed map to zero; "unseen" and "seen zero times"
// are the same observable state. scope == "" means the global scope.
//
// Lookups are chunked to the store's key-set limit. This is required
// correctness behavior, not an optimization: an oversized lookup fails
// outright.
func (r *Reader) OccurrenceCounts(ctx context.Context, codes []string, scope string) (map[string]int64, error) {
	if scope == "" {
		scope = storage.GlobalScope
	}

	unique := dedupe(codes)
	counts := make(map[string]int64, len(unique))

	for start := 0; start < len(unique); start += storage.MaxCounterLookup {
		end := start + storage.MaxCounterLookup
		if end > len(unique) {
			end = len(unique)
		}

		chunk, err := r.ledger.Counts(ctx, scope, unique[start:end])
		if err != nil {
			return nil, model.WrapError(err)
		}
		for code, count := range chunk {
			counts[code] = count
		}
	}

	// Zero-default for codes absent from the ledger
	for _, code := range unique {
		if _, ok := counts[code]; !ok {
			counts[code] = 0
		}
	}

	return counts, nil
}

// References returns the purchase history for a code ordered by recency,
// usable to render price/date/store without re-reading the parent receipts.
// ownerID == "" queries across all owners.
func (r *Reader) References(ctx context.Context, code string, ownerID string, limit int) ([]*storage.ItemIndexEntry, error) {
	entries, err := r.index.EntriesByCode(ctx, code, ownerID, limit)
	if err != nil {
		return nil, model.WrapError(err)
	}
	return entries, nil
}

func dedupe(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}
