package recurrence

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/eshaffer321/recurring-features/internal/domain/grouping"
	"github.com/eshaffer321/recurring-features/internal/domain/txn"
	"github.com/eshaffer321/recurring-features/internal/domain/vendor"
)

func newScorer(cfg Config) *Scorer {
	return NewScorer(cfg, vendor.NewNormalizer(vendor.DefaultConfig()))
}

// groupWithGaps builds a group for one vendor with entries the given number
// of days apart, all at the same amount.
func groupWithGaps(name, amountStr string, start time.Time, gaps ...int) grouping.Group {
	amt := decimal.RequireFromString(amountStr)
	g := grouping.Group{{
		Txn:  txn.Transaction{ID: "t0", UserID: "u1", VendorName: name, Amount: amt},
		Date: start,
	}}
	date := start
	for i, gap := range gaps {
		date = date.AddDate(0, 0, gap)
		g = append(g, grouping.Entry{
			Txn:  txn.Transaction{ID: fmt.Sprintf("t%d", i+1), UserID: "u1", VendorName: name, Amount: amt},
			Date: date,
		})
	}
	return g
}

func TestScore_AlwaysRecurringShortCircuit(t *testing.T) {
	// A single Netflix occurrence is recurring with full confidence: vendor
	// identity beats the occurrence-count rule.
	s := newScorer(DefaultConfig())
	g := groupWithGaps("Netflix", "15.49", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	got := s.Score(g, g, g[0].Txn)

	assert.True(t, got.IsRecurring)
	assert.Equal(t, 1.0, got.Confidence)
}

func TestScore_RecurringKeywordShortCircuit(t *testing.T) {
	s := newScorer(DefaultConfig())
	g := groupWithGaps("Acme Gym MEMBERSHIP", "45.00", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	got := s.Score(g, g, g[0].Txn)

	assert.True(t, got.IsRecurring)
	assert.Equal(t, 1.0, got.Confidence)
}

func TestScore_BelowMinOccurrences(t *testing.T) {
	s := newScorer(DefaultConfig())
	g := groupWithGaps("Best Buy", "1999.00", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	got := s.Score(g, g, g[0].Txn)

	assert.False(t, got.IsRecurring)
}

func TestScore_MonthlyPattern(t *testing.T) {
	s := newScorer(DefaultConfig())
	g := groupWithGaps("Blue Apron", "59.94", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 30, 31, 29)

	got := s.Score(g, g, g[3].Txn)

	assert.True(t, got.IsRecurring)
	assert.Greater(t, got.Confidence, 0.5)
	assert.LessOrEqual(t, got.Confidence, 1.0)
}

func TestScore_LongGapResetsStreak(t *testing.T) {
	// Two charges 200 days apart: the long gap resets the streak, so the
	// final streak is below min_occurrences-1.
	s := newScorer(DefaultConfig())
	g := groupWithGaps("Corner Store", "12.50", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 200)

	got := s.Score(g, g, g[1].Txn)

	assert.False(t, got.IsRecurring)
}

func TestScore_ShortGapDoesNotResetStreak(t *testing.T) {
	// Legacy asymmetry: a too-short gap between in-cycle gaps does not reset
	// the streak. Gaps 30, 3, 30 keep the streak at 2.
	s := newScorer(DefaultConfig())
	g := groupWithGaps("Meal Kit Co", "60.00", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 30, 3, 30)

	got := s.Score(g, g, g[3].Txn)

	assert.True(t, got.IsRecurring)
}

func TestScore_StrictStreakResetsOnShortGap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StrictStreak = true
	cfg.MinOccurrences = 3
	s := newScorer(cfg)
	g := groupWithGaps("Meal Kit Co", "60.00", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 30, 3, 30)

	got := s.Score(g, g, g[3].Txn)

	// With symmetric resets the 3-day gap breaks the run: final streak 1 < 2.
	assert.False(t, got.IsRecurring)
}

func TestScore_ConfidenceClipped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IntervalWeight = 5 // pathological weights still clip to [0,1]
	cfg.AmountWeight = 5
	s := newScorer(cfg)
	g := groupWithGaps("Blue Apron", "59.94", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 30, 30)

	got := s.Score(g, g, g[2].Txn)

	assert.Equal(t, 1.0, got.Confidence)
}

func TestScore_Deterministic(t *testing.T) {
	s := newScorer(DefaultConfig())
	g := groupWithGaps("Blue Apron", "59.94", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 30, 31, 29)

	first := s.Score(g, g, g[3].Txn)
	second := s.Score(g, g, g[3].Txn)

	assert.Equal(t, first, second)
}
