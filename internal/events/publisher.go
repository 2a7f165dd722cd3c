package events

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// natsPublisher delivers sync events over NATS JetStream.
type natsPublisher struct {
	js     jetstream.JetStream
	prefix string
}

// NewNATSPublisher creates a JetStream publisher and ensures the stream
// exists. streamName defaults to "RECEIPTS".
func NewNATSPublisher(nc *nats.Conn, streamName string) (Publisher, error) {
	if nc == nil {
		return nil, fmt.Errorf("nats connection cannot be nil")
	}
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, err
	}
	if streamName == "" {
		streamName = "RECEIPTS"
	}
	if err := EnsureStream(js, streamName); err != nil {
		return nil, fmt.Errorf("failed to ensure stream: %w", err)
	}
	return &natsPublisher{js: js, prefix: streamName}, nil
}

// EnsureStream creates or updates the JetStream stream the events go to.
func EnsureStream(js jetstream.JetStream, streamName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{fmt.Sprintf("%s.>", streamName)},
		Storage:  jetstream.MemoryStorage,
	})
	return err
}

func (p *natsPublisher) Publish(ctx context.Context, event *SyncEvent) error {
	// Subject format: <streamName>.sync.<receiptId>
	// Receipt ids are base64url encoded to keep the subject token safe.
	encodedID := base64.URLEncoding.EncodeToString([]byte(event.ReceiptID))
	subject := fmt.Sprintf("%s.sync.%s", p.prefix, encodedID)

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(ctx, subject, data, jetstream.WithExpectStream(p.prefix), jetstream.WithRetryAttempts(3))
	return err
}
