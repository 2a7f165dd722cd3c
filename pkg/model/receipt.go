package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status describes the extraction state of a receipt. Only receipts that
// parsed successfully contribute index entries; a failed receipt is treated
// like a removal when synchronized.
type Status string

const (
	StatusPending Status = "pending"
	StatusParsed  Status = "parsed"
	StatusFailed  Status = "failed"
)

// Owner identifies the account a receipt belongs to. Receipts uploaded
// before sign-in carry no owner.
type Owner struct {
	ID    string `json:"id" bson:"id"`
	Label string `json:"label,omitempty" bson:"label,omitempty"`
}

// Item is one line entry of a receipt payload. Extraction produces an
// unordered bag of fields whose names vary by store chain, so items are kept
// schemaless and interpreted field-by-field.
type Item map[string]any

// General holds the receipt-level fields shared by all line items.
type General struct {
	StoreLabel string `json:"storeLabel,omitempty" bson:"store_label,omitempty"`
	Date       string `json:"date,omitempty" bson:"date,omitempty"`
}

// Receipt is the primary, authoritative record produced by the extraction
// pipeline. This core reads it and derives index entries and counters from
// it; it never writes the payload back.
type Receipt struct {
	ID        string  `json:"id" bson:"_id"`
	Owner     *Owner  `json:"owner,omitempty" bson:"owner,omitempty"`
	Status    Status  `json:"status" bson:"status"`
	General   General `json:"general" bson:"general"`
	Items     []Item  `json:"items" bson:"items"`
	UpdatedAt int64   `json:"updated_at" bson:"updated_at"`
	CreatedAt int64   `json:"created_at" bson:"created_at"`
}

// OwnerID returns the owner id or "" for ownerless receipts.
func (r *Receipt) OwnerID() string {
	if r.Owner == nil {
		return ""
	}
	return r.Owner.ID
}

// UpdatedTime returns the last update timestamp as time.Time.
func (r *Receipt) UpdatedTime() time.Time {
	return time.UnixMilli(r.UpdatedAt)
}

// StringField returns the named item field rendered as a string.
// Numeric values are formatted without an exponent so that barcode-like
// numbers survive the JSON round trip through float64.
func (it Item) StringField(name string) string {
	v, ok := it[name]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

// Price parses the first recognized price field of the item.
// Returns false when no price field parses as a decimal number.
func (it Item) Price() (decimal.Decimal, bool) {
	for _, field := range []string{"price", "totalPrice", "amount", "unitPrice"} {
		raw := strings.TrimSpace(it.StringField(field))
		if raw == "" {
			continue
		}
		// Extraction output sometimes uses a decimal comma
		raw = strings.ReplaceAll(raw, ",", ".")
		d, err := decimal.NewFromString(raw)
		if err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}
