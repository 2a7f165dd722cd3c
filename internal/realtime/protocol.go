package realtime

import (
	"encoding/json"
)

// Message types
const (
	TypeSubscribe      = "subscribe"
	TypeSubscribeAck   = "subscribe_ack"
	TypeUnsubscribe    = "unsubscribe"
	TypeUnsubscribeAck = "unsubscribe_ack"
	TypeEvent          = "event"
	TypeError          = "error"
)

// BaseMessage is the envelope for all messages
type BaseMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SubscribePayload selects which sync events a client receives. Empty
// fields match everything.
type SubscribePayload struct {
	OwnerID string   `json:"ownerId,omitempty"`
	Codes   []string `json:"codes,omitempty"`
}

// EventPayload (Server -> Client)
type EventPayload struct {
	SubID string          `json:"subId"`
	Event json.RawMessage `json:"event"`
}

// ErrorPayload
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return data
}
