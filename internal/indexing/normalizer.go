package indexing

import (
	"regexp"
	"strings"

	"kvittera/pkg/model"
)

// Canonical product codes are barcode-like digit strings between 8 and 14
// digits (EAN-8 up to GTIN-14).
const (
	minCodeLen = 8
	maxCodeLen = 14
)

// codeFields is the priority order in which item fields are inspected for a
// product code. Dedicated code fields first, the free-text name last.
var codeFields = []string{"eanCode", "ean", "gtin", "barcode", "articleCode", "code", "name"}

var digitRun = regexp.MustCompile(`[0-9]{8,14}`)

// NormalizeCode extracts the canonical product code from an item's field
// bag. It returns false when no field yields an acceptable code; such items
// are invisible to indexing and aggregation.
//
// The function is deterministic and side-effect free. It runs at write time
// when building index entries and at read time when matching purchase
// history, and both call sites must agree exactly.
func NormalizeCode(item model.Item) (string, bool) {
	for _, field := range codeFields {
		if code, ok := NormalizeValue(item.StringField(field)); ok {
			return code, true
		}
	}
	return "", false
}

// NormalizeValue canonicalizes a single raw field value. It accepts the
// first embedded run of 8-14 consecutive digits, and otherwise the value
// with all non-digits stripped when the remainder is 8-14 digits long.
func NormalizeValue(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	if run := digitRun.FindString(raw); run != "" {
		return run, true
	}

	digits := stripNonDigits(raw)
	if len(digits) >= minCodeLen && len(digits) <= maxCodeLen {
		return digits, true
	}

	return "", false
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
