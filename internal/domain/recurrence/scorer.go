// Package recurrence folds vendor identity, interval regularity and amount
// consistency into the final recurring/one-off judgment.
package recurrence

import (
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/recurring-features/internal/domain/amount"
	"github.com/eshaffer321/recurring-features/internal/domain/grouping"
	"github.com/eshaffer321/recurring-features/internal/domain/interval"
	"github.com/eshaffer321/recurring-features/internal/domain/txn"
	"github.com/eshaffer321/recurring-features/internal/domain/vendor"
)

// Config tunes the scorer. The short-circuit rule and the [0,1] confidence
// clipping are contract; everything here is configuration.
type Config struct {
	// MinOccurrences is the minimum size of the amount-matched subset before
	// interval evidence is considered.
	MinOccurrences int
	// Cycle is the target billing cycle for the streak walk.
	Cycle interval.Bucket
	// StrictStreak makes too-short gaps reset the streak as well. The legacy
	// behavior (default) only resets on too-long gaps: a mid-cycle extra
	// charge did not break a subscription's streak.
	StrictStreak bool
	// Weights for the confidence blend.
	IntervalWeight float64
	AmountWeight   float64
	AlwaysWeight   float64
}

// DefaultConfig returns the scorer defaults: two occurrences, a 30±4 day
// cycle, legacy asymmetric streak resets, 0.4/0.4/0.2 weights.
func DefaultConfig() Config {
	return Config{
		MinOccurrences: 2,
		Cycle:          interval.Bucket{Name: "cycle", Center: 30, Tolerance: 4},
		IntervalWeight: 0.4,
		AmountWeight:   0.4,
		AlwaysWeight:   0.2,
	}
}

// Result is the scorer's judgment for one transaction.
type Result struct {
	IsRecurring bool
	Confidence  float64
}

// Scorer combines identity overrides with interval and amount evidence.
type Scorer struct {
	config Config
	norm   *vendor.Normalizer
}

// NewScorer creates a scorer using the given vendor tables.
func NewScorer(cfg Config, norm *vendor.Normalizer) *Scorer {
	if cfg.MinOccurrences <= 0 {
		cfg.MinOccurrences = DefaultConfig().MinOccurrences
	}
	if cfg.Cycle.Center == 0 {
		cfg.Cycle = DefaultConfig().Cycle
	}
	return &Scorer{config: cfg, norm: norm}
}

// Score judges the reference transaction against its vendor group and the
// amount-matched subset of that group (both date-sorted, subset including the
// reference transaction).
//
// Identity beats evidence: an always-recurring vendor or a recurring keyword
// in the raw name short-circuits to recurring with full confidence, even on a
// single observation.
func (s *Scorer) Score(group, amountSubset grouping.Group, ref txn.Transaction) Result {
	always := s.norm.IsAlwaysRecurring(ref.VendorName) || s.norm.HasRecurringKeywords(ref.VendorName)
	if always {
		return Result{IsRecurring: true, Confidence: 1.0}
	}

	if len(amountSubset) < s.config.MinOccurrences {
		return Result{IsRecurring: false, Confidence: s.confidence(amountSubset, 0)}
	}

	streak := s.walkStreak(interval.Intervals(amountSubset))
	isRecurring := streak >= s.config.MinOccurrences-1

	return Result{
		IsRecurring: isRecurring,
		Confidence:  s.confidence(amountSubset, 0),
	}
}

// walkStreak runs the streak counter over the intervals. In-window gaps grow
// the streak. Too-long gaps reset it to zero. Too-short gaps reset only under
// StrictStreak; the legacy rule lets them pass.
func (s *Scorer) walkStreak(intervals []int) int {
	cycle := s.config.Cycle
	streak := 0
	for _, d := range intervals {
		switch {
		case cycle.Contains(d):
			streak++
		case d > cycle.Center+cycle.Tolerance:
			streak = 0
		case s.config.StrictStreak:
			streak = 0
		}
	}
	return streak
}

var centTol = decimal.New(1, -2)

// confidence blends interval regularity, amount consistency and the
// always-recurring flag into [0, 1].
func (s *Scorer) confidence(subset grouping.Group, alwaysFlag float64) float64 {
	intervals := interval.Intervals(subset)

	intervalScore := interval.BucketFraction(intervals, s.config.Cycle)
	amountScore := amount.FractionMatchingModal(subset.Amounts(), centTol)

	c := s.config.IntervalWeight*intervalScore +
		s.config.AmountWeight*amountScore +
		s.config.AlwaysWeight*alwaysFlag
	return clip01(c)
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
