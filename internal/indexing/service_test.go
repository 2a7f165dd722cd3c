package indexing

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvittera/internal/events"
	"kvittera/internal/storage"
	"kvittera/pkg/model"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []*events.SyncEvent
}

func (c *capturePublisher) Publish(_ context.Context, event *events.SyncEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func TestEngineSyncAndResync(t *testing.T) {
	provider := newFakeProvider()
	publisher := &capturePublisher{}
	engine := NewEngine(provider, publisher)

	receipt := testReceipt("r1", "o1", model.Item{"ean": "12345678"}, model.Item{"ean": "12345678"})
	provider.putReceipt(receipt)

	result, err := engine.Sync(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 0, result.Deleted)
	assert.Equal(t, int64(2), result.Deltas["o1|12345678"])
	assert.Equal(t, int64(2), result.Deltas["~all|12345678"])

	// Identical resync: entries rewritten, counters untouched
	result, err = engine.Sync(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 2, result.Deleted)
	assert.Empty(t, result.Deltas)

	assert.Equal(t, int64(2), provider.count("o1", "12345678"))
	assert.Equal(t, int64(2), provider.count(storage.GlobalScope, "12345678"))

	require.Len(t, publisher.events, 2)
	assert.Equal(t, events.SyncUpsert, publisher.events[0].Type)
	assert.Equal(t, "r1", publisher.events[0].ReceiptID)
	assert.Equal(t, "o1", publisher.events[0].OwnerID)
}

func TestEngineAdditivityAcrossReceipts(t *testing.T) {
	provider := newFakeProvider()
	engine := NewEngine(provider, nil)

	a := testReceipt("a", "o1", model.Item{"ean": "12345678"})
	b := testReceipt("b", "o2", model.Item{"ean": "12345678"}, model.Item{"ean": "12345678"})
	provider.putReceipt(a)
	provider.putReceipt(b)

	_, err := engine.Sync(context.Background(), "a")
	require.NoError(t, err)
	_, err = engine.Sync(context.Background(), "b")
	require.NoError(t, err)

	assert.Equal(t, int64(3), provider.count(storage.GlobalScope, "12345678"))
	assert.Equal(t, int64(1), provider.count("o1", "12345678"))
	assert.Equal(t, int64(2), provider.count("o2", "12345678"))
}

func TestEngineSyncFailedReceiptRemoves(t *testing.T) {
	provider := newFakeProvider()
	engine := NewEngine(provider, nil)

	receipt := testReceipt("r1", "o1", model.Item{"ean": "12345678"})
	provider.putReceipt(receipt)
	_, err := engine.Sync(context.Background(), "r1")
	require.NoError(t, err)
	require.Equal(t, int64(1), provider.count("o1", "12345678"))

	// Re-parse failed: previously indexed entries must be withdrawn
	failed := testReceipt("r1", "o1", model.Item{"ean": "12345678"})
	failed.Status = model.StatusFailed
	provider.putReceipt(failed)

	result, err := engine.Sync(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 1, result.Deleted)

	assert.Equal(t, int64(0), provider.count("o1", "12345678"))
	assert.Equal(t, 0, provider.entryCount())
}

func TestEngineSyncUnknownReceipt(t *testing.T) {
	provider := newFakeProvider()
	engine := NewEngine(provider, nil)

	_, err := engine.Sync(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestEngineRemoveRoundTrip(t *testing.T) {
	provider := newFakeProvider()
	publisher := &capturePublisher{}
	engine := NewEngine(provider, publisher)

	receipt := testReceipt("r1", "o1",
		model.Item{"ean": "12345678"},
		model.Item{"ean": "12345678"},
		model.Item{"name": "no-code-item"},
	)
	provider.putReceipt(receipt)

	_, err := engine.Sync(context.Background(), "r1")
	require.NoError(t, err)
	require.Equal(t, int64(2), provider.count("o1", "12345678"))
	require.Equal(t, int64(2), provider.count(storage.GlobalScope, "12345678"))
	require.Equal(t, 2, provider.entryCount(), "codeless item never indexed")

	result, err := engine.Remove(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Deleted)

	// Every counter returns to its pre-upsert value
	assert.Equal(t, int64(0), provider.count("o1", "12345678"))
	assert.Equal(t, int64(0), provider.count(storage.GlobalScope, "12345678"))
	assert.Equal(t, 0, provider.entryCount())

	require.Len(t, publisher.events, 2)
	assert.Equal(t, events.SyncRemove, publisher.events[1].Type)
	assert.Equal(t, "o1", publisher.events[1].OwnerID)
}

func TestEngineRemoveUnindexedIsNoOp(t *testing.T) {
	provider := newFakeProvider()
	publisher := &capturePublisher{}
	engine := NewEngine(provider, publisher)

	result, err := engine.Remove(context.Background(), "never-synced")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Deleted)
	assert.Empty(t, publisher.events, "empty plans publish nothing")
}
