package indexing

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"kvittera/internal/storage"
	"kvittera/pkg/model"
)

// fakeProvider is an in-memory stand-in for the MongoDB provider. Commit is
// all-or-nothing: a configured failure leaves every map untouched.
type fakeProvider struct {
	mu sync.Mutex

	entries  map[string]*storage.ItemIndexEntry
	counters map[storage.CounterKey]*storage.Counter
	receipts map[string]*model.Receipt

	// lookups records the key-set size of every Counts call
	lookups []int
	commits int

	failCommit error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		entries:  map[string]*storage.ItemIndexEntry{},
		counters: map[storage.CounterKey]*storage.Counter{},
		receipts: map[string]*model.Receipt{},
	}
}

func (f *fakeProvider) Index() storage.IndexStore      { return f }
func (f *fakeProvider) Ledger() storage.LedgerStore    { return f }
func (f *fakeProvider) Receipts() storage.ReceiptStore { return f }
func (f *fakeProvider) Writer() storage.BatchWriter    { return f }
func (f *fakeProvider) Close(context.Context) error    { return nil }

func (f *fakeProvider) putReceipt(r *model.Receipt) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipts[r.ID] = r
}

func (f *fakeProvider) count(scope, code string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.counters[storage.CounterKey{Scope: scope, Code: code}]; ok {
		return c.Count
	}
	return 0
}

func (f *fakeProvider) counter(scope, code string) *storage.Counter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counters[storage.CounterKey{Scope: scope, Code: code}]
}

func (f *fakeProvider) entryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// IndexStore

func (f *fakeProvider) EntriesByReceipt(_ context.Context, receiptID string) ([]*storage.ItemIndexEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*storage.ItemIndexEntry
	for _, e := range f.entries {
		if e.ReceiptID == receiptID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeProvider) EntriesByCode(_ context.Context, code string, ownerID string, limit int) ([]*storage.ItemIndexEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*storage.ItemIndexEntry
	for _, e := range f.entries {
		if e.Code != code {
			continue
		}
		if ownerID != "" && e.OwnerID != ownerID {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceiptDate > out[j].ReceiptDate })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// LedgerStore

func (f *fakeProvider) Counts(_ context.Context, scope string, codes []string) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(codes) > storage.MaxCounterLookup {
		return nil, fmt.Errorf("lookup of %d keys exceeds limit of %d", len(codes), storage.MaxCounterLookup)
	}
	f.lookups = append(f.lookups, len(codes))
	counts := map[string]int64{}
	for _, code := range codes {
		if c, ok := f.counters[storage.CounterKey{Scope: scope, Code: code}]; ok {
			counts[code] = c.Count
		}
	}
	return counts, nil
}

func (f *fakeProvider) Counter(_ context.Context, key storage.CounterKey) (*storage.Counter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.counters[key]; ok {
		return c, nil
	}
	return nil, model.ErrNotFound
}

// ReceiptStore

func (f *fakeProvider) Get(_ context.Context, id string) (*model.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.receipts[id]; ok {
		return r, nil
	}
	return nil, model.ErrNotFound
}

func (f *fakeProvider) IDsByOwner(_ context.Context, ownerID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, r := range f.receipts {
		if r.OwnerID() == ownerID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeProvider) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.receipts[id]; !ok {
		return model.ErrNotFound
	}
	delete(f.receipts, id)
	return nil
}

// BatchWriter

func (f *fakeProvider) Commit(ctx context.Context, batch *storage.Batch) error {
	if batch == nil || batch.Empty() {
		return nil
	}
	if batch.Size() > storage.MaxBatchWrites {
		return model.ErrBatchTooLarge
	}
	if err := ctx.Err(); err != nil {
		return model.WrapError(err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCommit != nil {
		return f.failCommit
	}

	for _, id := range batch.DeleteEntries {
		delete(f.entries, id)
	}
	for _, entry := range batch.InsertEntries {
		f.entries[entry.ID] = entry
	}
	for _, inc := range batch.Increments {
		c, ok := f.counters[inc.Key]
		if !ok {
			c = &storage.Counter{
				ID:    storage.CalculateCounterID(inc.Key),
				Scope: inc.Key.Scope,
				Code:  inc.Key.Code,
			}
			f.counters[inc.Key] = c
		}
		c.Count += inc.Delta
		c.UpdatedAt = batch.WriteTimestamp
		if inc.Delta > 0 && inc.Meta != nil {
			c.LastReceiptID = inc.Meta.ReceiptID
			c.LastReceiptDate = inc.Meta.ReceiptDate
			c.LastStoreLabel = inc.Meta.StoreLabel
		}
	}
	f.commits++
	return nil
}
