// Package txn defines the transaction record consumed by the feature engine.
package txn

import (
	"github.com/shopspring/decimal"
)

// Transaction is a single bank/card transaction as loaded from the upstream
// feed. Date is kept as the raw string; parsing happens in dateparse so the
// strict/lenient policy is applied in exactly one place.
//
// Identity is by ID only. Multiple transactions can share the same
// (vendor, amount, date) triple, so set membership must never be value-based.
type Transaction struct {
	ID         string
	UserID     string
	VendorName string
	Amount     decimal.Decimal
	Date       string
}

// IDSet tracks transaction membership by ID.
type IDSet map[string]bool

// NewIDSet builds a set from the given transactions.
func NewIDSet(txns []Transaction) IDSet {
	s := make(IDSet, len(txns))
	for _, t := range txns {
		s[t.ID] = true
	}
	return s
}

// Contains reports whether the transaction is in the set.
func (s IDSet) Contains(t Transaction) bool {
	return s[t.ID]
}
