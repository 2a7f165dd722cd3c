// Package events defines the event schema published after every committed
// synchronization. Read-side consumers (dashboards, analytics) subscribe to
// these instead of polling the ledger.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SyncType describes what a synchronization did to the derived state.
type SyncType string

const (
	SyncUpsert SyncType = "upsert"
	SyncRemove SyncType = "remove"
)

// SyncEvent is emitted once per committed non-empty sync plan. Deltas is
// keyed by the composite counter key (scope + "|" + code).
type SyncEvent struct {
	EventID   string           `json:"eventId"`
	Type      SyncType         `json:"type"`
	ReceiptID string           `json:"receiptId"`
	OwnerID   string           `json:"ownerId,omitempty"`
	Inserted  int              `json:"inserted"`
	Deleted   int              `json:"deleted"`
	Deltas    map[string]int64 `json:"deltas,omitempty"`
	Timestamp int64            `json:"timestamp"` // Unix milliseconds
}

// NewSyncEvent creates an event with a fresh id and the current timestamp.
func NewSyncEvent(syncType SyncType, receiptID, ownerID string) *SyncEvent {
	return &SyncEvent{
		EventID:   uuid.NewString(),
		Type:      syncType,
		ReceiptID: receiptID,
		OwnerID:   ownerID,
		Deltas:    map[string]int64{},
		Timestamp: time.Now().UnixMilli(),
	}
}

// Publisher delivers sync events to interested consumers. Publishing
// happens after the batch commit; a delivery failure never rolls back the
// committed state.
type Publisher interface {
	Publish(ctx context.Context, event *SyncEvent) error
}

// NoopPublisher discards all events.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *SyncEvent) error { return nil }

// MultiPublisher fans events out to several publishers. The first error is
// returned, remaining publishers still receive the event.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, event *SyncEvent) error {
	var firstErr error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
