package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounterKeyString(t *testing.T) {
	key := CounterKey{Scope: "owner-1", Code: "7310867001823"}
	assert.Equal(t, "owner-1|7310867001823", key.String())

	global := CounterKey{Scope: GlobalScope, Code: "7310867001823"}
	assert.Equal(t, "~all|7310867001823", global.String())
}

func TestCalculateCounterID(t *testing.T) {
	id1 := CalculateCounterID(CounterKey{Scope: "o1", Code: "12345678"})
	id2 := CalculateCounterID(CounterKey{Scope: "o1", Code: "12345678"})
	id3 := CalculateCounterID(CounterKey{Scope: "o2", Code: "12345678"})

	assert.Equal(t, id1, id2, "Same key should generate same ID")
	assert.NotEqual(t, id1, id3, "Different scopes should generate different IDs")
	assert.Len(t, id1, 32)
}

func TestBatchSize(t *testing.T) {
	batch := &Batch{}
	assert.True(t, batch.Empty())
	assert.Equal(t, 0, batch.Size())

	batch.DeleteEntries = []string{"a", "b"}
	batch.InsertEntries = []*ItemIndexEntry{{ID: "c"}}
	batch.Increments = []CounterIncrement{{Key: CounterKey{Scope: GlobalScope, Code: "1"}, Delta: 1}}

	assert.False(t, batch.Empty())
	assert.Equal(t, 4, batch.Size())
}
