package indexing

import (
	"context"

	"kvittera/internal/storage"
)

// SyncResult summarizes one committed synchronization.
type SyncResult struct {
	ReceiptID string           `json:"receiptId"`
	Inserted  int              `json:"inserted"`
	Deleted   int              `json:"deleted"`
	Deltas    map[string]int64 `json:"deltas,omitempty"`
}

// Service is the synchronization engine's public surface. Write operations
// run as independent units of work; read operations have no side effects
// and are safe at arbitrary concurrency.
type Service interface {
	// Sync rebuilds the receipt's index entries and counters from its
	// current content. A receipt whose extraction failed is treated as a
	// removal.
	Sync(ctx context.Context, receiptID string) (*SyncResult, error)

	// Remove drops the receipt's index entries and decrements its counters.
	// The receipt record itself is left in place.
	Remove(ctx context.Context, receiptID string) (*SyncResult, error)

	// PurgeReceipt removes the receipt's derived state and then the receipt.
	PurgeReceipt(ctx context.Context, receiptID string) error

	// PurgeOwner purges all of the owner's receipts, one batch per receipt.
	PurgeOwner(ctx context.Context, ownerID string) (int, error)

	// OccurrenceCounts returns purchase counts per code within the scope;
	// never-indexed codes map to zero. ownerID == "" means global.
	OccurrenceCounts(ctx context.Context, codes []string, ownerID string) (map[string]int64, error)

	// References returns the purchase history for a code, newest first.
	References(ctx context.Context, code string, ownerID string, limit int) ([]*storage.ItemIndexEntry, error)
}
