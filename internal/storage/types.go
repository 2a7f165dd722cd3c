package storage

import (
	"context"
	"encoding/hex"

	"github.com/zeebo/blake3"

	"kvittera/pkg/model"
)

const (
	// GlobalScope is the reserved scope under which purchases of all owners
	// are aggregated. Owner ids never start with '~'.
	GlobalScope = "~all"

	// counterKeySeparator joins scope and code into a ledger key.
	counterKeySeparator = "|"

	// MaxBatchWrites is the maximum number of write operations the store
	// accepts in one atomic batch. Larger batches are rejected outright.
	MaxBatchWrites = 500

	// MaxCounterLookup is the maximum number of keys the store accepts in
	// one point-lookup. Readers must chunk larger key sets.
	MaxCounterLookup = 10
)

// ItemIndexEntry is a derived record exposing one receipt line item for
// lookup by product code. The whole set for a receipt is replaced on every
// sync; entries are never patched in place.
type ItemIndexEntry struct {
	// ID is a fresh random identity assigned at plan time. Identities of
	// deleted entries are never reused.
	ID string `json:"id" bson:"_id"`

	// ReceiptID is the id of the parent receipt
	ReceiptID string `json:"receipt_id" bson:"receipt_id"`

	// ItemPosition is the position of the item within the receipt payload,
	// as a string. Empty when the position is unknown.
	ItemPosition string `json:"item_position,omitempty" bson:"item_position,omitempty"`

	// Code is the canonical product code, never empty
	Code string `json:"code" bson:"code"`

	// Item is an opaque copy of the item's fields for later display
	Item model.Item `json:"item" bson:"item"`

	// OwnerID is the receipt owner at sync time, "" for ownerless receipts
	OwnerID string `json:"owner_id,omitempty" bson:"owner_id,omitempty"`

	// ReceiptDate and StoreLabel are denormalized from the receipt so that
	// purchase history can be rendered without re-reading the parent.
	ReceiptDate string `json:"receipt_date,omitempty" bson:"receipt_date,omitempty"`
	StoreLabel  string `json:"store_label,omitempty" bson:"store_label,omitempty"`

	// ReceiptUpdatedAt is the parent's update timestamp copied at sync time
	ReceiptUpdatedAt int64 `json:"receipt_updated_at" bson:"receipt_updated_at"`
}

// CounterKey addresses one running aggregate: purchases of Code within
// Scope, where Scope is an owner id or GlobalScope.
type CounterKey struct {
	Scope string
	Code  string
}

// String renders the key in its persisted composite form.
func (k CounterKey) String() string {
	return k.Scope + counterKeySeparator + k.Code
}

// CalculateCounterID derives the counter document id from the composite key,
// 128-bit BLAKE3, hex encoded.
func CalculateCounterID(key CounterKey) string {
	hash := blake3.Sum256([]byte(key.String()))
	return hex.EncodeToString(hash[:16])
}

// Counter is one running aggregate document. Count is mutated exclusively
// through signed increments so concurrent syncs of different receipts
// compose regardless of commit order.
type Counter struct {
	ID    string `json:"id" bson:"_id"`
	Scope string `json:"scope" bson:"scope"`
	Code  string `json:"code" bson:"code"`
	Count int64  `json:"count" bson:"count"`

	// Metadata of the most recent contributing insertion
	LastReceiptID   string `json:"last_receipt_id,omitempty" bson:"last_receipt_id,omitempty"`
	LastReceiptDate string `json:"last_receipt_date,omitempty" bson:"last_receipt_date,omitempty"`
	LastStoreLabel  string `json:"last_store_label,omitempty" bson:"last_store_label,omitempty"`

	UpdatedAt int64 `json:"updated_at" bson:"updated_at"`
}

// CounterMeta is the last-write info recorded on a counter when a batch
// adds occurrences for its key.
type CounterMeta struct {
	ReceiptID   string
	ReceiptDate string
	StoreLabel  string
}

// CounterIncrement is one signed delta within an atomic batch. Meta is only
// honored for positive deltas; a net removal must not overwrite the most
// recent legitimate purchase's metadata.
type CounterIncrement struct {
	Key   CounterKey
	Delta int64
	Meta  *CounterMeta
}

// Batch is the unit of atomic commit: either every operation becomes
// visible or none do. Size returns the total number of write operations,
// which must not exceed MaxBatchWrites.
type Batch struct {
	DeleteEntries []string
	InsertEntries []*ItemIndexEntry
	Increments    []CounterIncrement

	// WriteTimestamp stamps counters' updated_at, Unix milliseconds
	WriteTimestamp int64
}

// Size returns the number of write operations in the batch.
func (b *Batch) Size() int {
	return len(b.DeleteEntries) + len(b.InsertEntries) + len(b.Increments)
}

// Empty reports whether the batch carries no writes.
func (b *Batch) Empty() bool {
	return b.Size() == 0
}

// IndexStore reads the secondary index. All writes go through BatchWriter.
type IndexStore interface {
	// EntriesByReceipt returns every index entry derived from the receipt,
	// in no particular order. An unindexed receipt yields an empty slice.
	EntriesByReceipt(ctx context.Context, receiptID string) ([]*ItemIndexEntry, error)

	// EntriesByCode returns entries for the code ordered by receipt date
	// descending. ownerID == "" returns entries across all owners.
	EntriesByCode(ctx context.Context, code string, ownerID string, limit int) ([]*ItemIndexEntry, error)
}

// LedgerStore reads aggregate counters. All writes go through BatchWriter.
type LedgerStore interface {
	// Counts returns the stored count per code for the scope. Keys never
	// indexed are absent from the result. len(codes) must not exceed
	// MaxCounterLookup.
	Counts(ctx context.Context, scope string, codes []string) (map[string]int64, error)

	// Counter returns the full counter document for one key.
	Counter(ctx context.Context, key CounterKey) (*Counter, error)
}

// ReceiptStore reads and deletes primary receipt records. The extraction
// pipeline owns their content.
type ReceiptStore interface {
	Get(ctx context.Context, id string) (*model.Receipt, error)

	// IDsByOwner returns the ids of all receipts belonging to the owner.
	IDsByOwner(ctx context.Context, ownerID string) ([]string, error)

	Delete(ctx context.Context, id string) error
}

// BatchWriter commits one atomic batch against the index and the ledger.
type BatchWriter interface {
	// Commit applies the batch as a single all-or-nothing unit. Returns
	// model.ErrBatchTooLarge without writing when the batch exceeds
	// MaxBatchWrites.
	Commit(ctx context.Context, batch *Batch) error
}

// Provider bundles the stores backed by one logical database.
type Provider interface {
	Index() IndexStore
	Ledger() LedgerStore
	Receipts() ReceiptStore
	Writer() BatchWriter
	Close(ctx context.Context) error
}
