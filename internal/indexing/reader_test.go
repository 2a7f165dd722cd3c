package indexing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvittera/pkg/model"
)

func TestOccurrenceCountsZeroDefault(t *testing.T) {
	provider := newFakeProvider()
	reader := NewReader(provider, provider)

	counts, err := reader.OccurrenceCounts(context.Background(), []string{"99999999"}, "o1")
	require.NoError(t, err)

	count, ok := counts["99999999"]
	assert.True(t, ok, "unseen codes must be present, not missing")
	assert.Equal(t, int64(0), count)
}

func TestOccurrenceCountsChunking(t *testing.T) {
	provider := newFakeProvider()
	applier := NewApplier(provider)

	codes := make([]string, 25)
	for i := range codes {
		codes[i] = fmt.Sprintf("1000000%04d", i)
		receipt := testReceipt(fmt.Sprintf("r%d", i), "o1", model.Item{"ean": codes[i]})
		require.NoError(t, applier.Apply(context.Background(), BuildUpsertPlan(receipt, nil), time.Now()))
	}

	reader := NewReader(provider, provider)
	counts, err := reader.OccurrenceCounts(context.Background(), codes, "o1")
	require.NoError(t, err)

	require.Len(t, counts, 25)
	for _, code := range codes {
		assert.Equal(t, int64(1), counts[code])
	}
	assert.Equal(t, []int{10, 10, 5}, provider.lookups, "25 codes over a 10-key limit is exactly 3 chunks")
}

func TestOccurrenceCountsGlobalScopeDefault(t *testing.T) {
	provider := newFakeProvider()
	applier := NewApplier(provider)

	receipt := testReceipt("r1", "o1", model.Item{"ean": "12345678"})
	require.NoError(t, applier.Apply(context.Background(), BuildUpsertPlan(receipt, nil), time.Now()))

	reader := NewReader(provider, provider)
	counts, err := reader.OccurrenceCounts(context.Background(), []string{"12345678"}, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts["12345678"], `empty scope reads the global sentinel`)
}

func TestOccurrenceCountsDedupes(t *testing.T) {
	provider := newFakeProvider()
	reader := NewReader(provider, provider)

	counts, err := reader.OccurrenceCounts(context.Background(), []string{"11111111", "11111111", ""}, "o1")
	require.NoError(t, err)
	assert.Len(t, counts, 1)
	assert.Equal(t, []int{1}, provider.lookups)
}

func TestReferences(t *testing.T) {
	provider := newFakeProvider()
	applier := NewApplier(provider)

	older := testReceipt("r1", "o1", model.Item{"ean": "12345678", "price": "12.50"})
	older.General.Date = "2026-08-01"
	newer := testReceipt("r2", "o2", model.Item{"ean": "12345678"})
	newer.General.Date = "2026-08-28"

	require.NoError(t, applier.Apply(context.Background(), BuildUpsertPlan(older, nil), time.Now()))
	require.NoError(t, applier.Apply(context.Background(), BuildUpsertPlan(newer, nil), time.Now()))

	reader := NewReader(provider, provider)

	// Global: both purchases, newest first
	refs, err := reader.References(context.Background(), "12345678", "", 10)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "r2", refs[0].ReceiptID)
	assert.Equal(t, "r1", refs[1].ReceiptID)

	// Owner-restricted path
	refs, err = reader.References(context.Background(), "12345678", "o1", 10)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "r1", refs[0].ReceiptID)

	// The payload copy carries enough to render history without the parent
	price, ok := refs[0].Item.Price()
	require.True(t, ok)
	assert.Equal(t, "12.5", price.String())
	assert.Equal(t, "ICA Kvantum", refs[0].StoreLabel)
}
