// Package grouping indexes a transaction history by vendor so per-transaction
// feature computation does not rescan the full history. The index is built
// once per batch and is read-only afterwards, which makes it safe to share
// across feature workers without locking.
package grouping

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/recurring-features/internal/domain/dateparse"
	"github.com/eshaffer321/recurring-features/internal/domain/txn"
	"github.com/eshaffer321/recurring-features/internal/domain/vendor"
)

// Entry pairs a transaction with its parsed date so downstream analyzers
// never re-parse date strings.
type Entry struct {
	Txn  txn.Transaction
	Date time.Time
}

// Group is a date-ascending sequence of same-vendor entries.
type Group []Entry

// userVendorKey identifies a (user, canonical vendor) group.
type userVendorKey struct {
	userID string
	vendor string
}

// Index holds the prebuilt groups for one batch. Treat as immutable after
// Build returns.
type Index struct {
	byUserVendor map[userVendorKey]Group
	byVendor     map[string]Group
	skipped      []txn.Transaction
}

// Build groups transactions by (user, canonical vendor) and by vendor alone,
// each group sorted ascending by parsed date.
//
// In strict mode, transactions whose dates do not parse are excluded from the
// groups (they cannot be ordered) and reported via Skipped. In lenient mode
// the parser substitutes the epoch sentinel, so nothing is skipped.
func Build(txns []txn.Transaction, norm *vendor.Normalizer, parser *dateparse.Parser) *Index {
	idx := &Index{
		byUserVendor: make(map[userVendorKey]Group),
		byVendor:     make(map[string]Group),
	}

	for _, t := range txns {
		date, err := parser.Parse(t.Date)
		if err != nil {
			idx.skipped = append(idx.skipped, t)
			continue
		}
		canonical := norm.Normalize(t.VendorName)
		e := Entry{Txn: t, Date: date}

		uk := userVendorKey{userID: t.UserID, vendor: canonical}
		idx.byUserVendor[uk] = append(idx.byUserVendor[uk], e)
		idx.byVendor[canonical] = append(idx.byVendor[canonical], e)
	}

	for k := range idx.byUserVendor {
		sortGroup(idx.byUserVendor[k])
	}
	for k := range idx.byVendor {
		sortGroup(idx.byVendor[k])
	}

	return idx
}

// sortGroup orders entries by date ascending; ties break by transaction ID so
// group order is deterministic regardless of input order.
func sortGroup(g Group) {
	sort.SliceStable(g, func(i, j int) bool {
		if !g[i].Date.Equal(g[j].Date) {
			return g[i].Date.Before(g[j].Date)
		}
		return g[i].Txn.ID < g[j].Txn.ID
	})
}

// UserVendor returns the date-sorted group for one user and canonical vendor.
// The returned slice is shared; callers must not mutate it.
func (idx *Index) UserVendor(userID, canonical string) Group {
	return idx.byUserVendor[userVendorKey{userID: userID, vendor: canonical}]
}

// Vendor returns the date-sorted group for a canonical vendor across all users.
func (idx *Index) Vendor(canonical string) Group {
	return idx.byVendor[canonical]
}

// Skipped returns transactions excluded from the index because their dates
// failed to parse (strict mode only).
func (idx *Index) Skipped() []txn.Transaction {
	return idx.skipped
}

// FilterAmount returns the entries whose amount is within tol of amount.
// The result preserves date order.
func (g Group) FilterAmount(amount, tol decimal.Decimal) Group {
	var out Group
	for _, e := range g {
		if e.Txn.Amount.Sub(amount).Abs().Cmp(tol) <= 0 {
			out = append(out, e)
		}
	}
	return out
}

// Dates returns the parsed dates of the group in order.
func (g Group) Dates() []time.Time {
	out := make([]time.Time, len(g))
	for i, e := range g {
		out[i] = e.Date
	}
	return out
}

// Amounts returns the amounts of the group in date order.
func (g Group) Amounts() []decimal.Decimal {
	out := make([]decimal.Decimal, len(g))
	for i, e := range g {
		out[i] = e.Txn.Amount
	}
	return out
}

// Contains reports membership by transaction ID.
func (g Group) Contains(t txn.Transaction) bool {
	for _, e := range g {
		if e.Txn.ID == t.ID {
			return true
		}
	}
	return false
}
