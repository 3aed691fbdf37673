package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RawRecord is a normalized, not-yet-committed representation of one line
// from an imported bank file.
type RawRecord struct {
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	Hash        string

	// Optional fields some bank formats report. They ride along to the
	// created entry and are excluded from the hash: the same movement must
	// dedup identically whether or not the bank included them.
	ValueDate    *time.Time
	PurchaseDate *time.Time
	CheckNumber  string
}

// GenerateHash creates a stable hash for duplicate detection. The hash is
// deterministic over (date, amount, normalized description) so re-importing
// the identical file is detected regardless of what the matching step would
// have proposed.
func (r *RawRecord) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s",
		r.Date.Format("2006-01-02"),
		r.Amount.StringFixed(2),
		NormalizeDescription(r.Description))
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// NormalizeDescription canonicalizes a bank description for hashing:
// trimmed, whitespace collapsed, upper-cased.
func NormalizeDescription(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
