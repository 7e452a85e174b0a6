// Package features assembles the per-transaction feature map the downstream
// classifier trains on. The engine wires the date parser, vendor resolver,
// grouping index, interval and amount analyzers and the recurrence scorer,
// and runs them under several tolerance parameterizations.
package features

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/recurring-features/internal/domain/amount"
	"github.com/eshaffer321/recurring-features/internal/domain/dateparse"
	"github.com/eshaffer321/recurring-features/internal/domain/grouping"
	"github.com/eshaffer321/recurring-features/internal/domain/interval"
	"github.com/eshaffer321/recurring-features/internal/domain/recurrence"
	"github.com/eshaffer321/recurring-features/internal/domain/txn"
	"github.com/eshaffer321/recurring-features/internal/domain/vendor"
)

// DayWindow is a "transactions N days apart" parameterization.
type DayWindow struct {
	Days      int
	Tolerance int
}

// Config parameterizes the assembler. The legacy variants hard-coded these
// differently per author; they are presets here.
type Config struct {
	Vendor vendor.Config
	Amount amount.Config
	Scorer recurrence.Config

	// Buckets are the billing cycles scored per transaction.
	Buckets []interval.Bucket
	// DayWindows are the "N days apart" variants.
	DayWindows []DayWindow
	// DayOfMonthTolerances are the "same day of month" variants.
	DayOfMonthTolerances []int
	// AmountTolerance bounds the same-amount subset filter.
	AmountTolerance decimal.Decimal
	// DateMode picks strict or lenient date handling for the whole engine.
	DateMode dateparse.Mode
	// IncludeFuture keeps the legacy look-ahead features (days_until_next,
	// future occurrence counts). They leak post-reference data into training
	// features; disable to compute from past data only. Feature names do not
	// change, so downstream schemas are stable either way.
	IncludeFuture bool
}

// DefaultConfig mirrors the historical training configuration.
func DefaultConfig() Config {
	return Config{
		Vendor:  vendor.DefaultConfig(),
		Amount:  amount.DefaultConfig(),
		Scorer:  recurrence.DefaultConfig(),
		Buckets: interval.DefaultBuckets(),
		DayWindows: []DayWindow{
			{Days: 14, Tolerance: 0},
			{Days: 14, Tolerance: 1},
			{Days: 30, Tolerance: 2},
			{Days: 30, Tolerance: 4},
		},
		DayOfMonthTolerances: []int{0, 1, 2},
		AmountTolerance:      decimal.New(1, -2),
		DateMode:             dateparse.Lenient,
		IncludeFuture:        true,
	}
}

// Engine computes feature maps. It holds no mutable state after construction
// and is safe for concurrent use.
type Engine struct {
	config   Config
	parser   *dateparse.Parser
	norm     *vendor.Normalizer
	analyzer *amount.Analyzer
	scorer   *recurrence.Scorer
}

// New builds an engine from config.
func New(cfg Config) *Engine {
	norm := vendor.NewNormalizer(cfg.Vendor)
	return &Engine{
		config:   cfg,
		parser:   dateparse.NewParser(cfg.DateMode),
		norm:     norm,
		analyzer: amount.NewAnalyzer(cfg.Amount),
		scorer:   recurrence.NewScorer(cfg.Scorer, norm),
	}
}

// Normalizer exposes the engine's vendor resolver (index building needs the
// same tables the engine uses).
func (e *Engine) Normalizer() *vendor.Normalizer {
	return e.norm
}

// Parser exposes the engine's date parser for the same reason.
func (e *Engine) Parser() *dateparse.Parser {
	return e.parser
}

// BuildIndex groups a history with the engine's own normalizer and parser.
func (e *Engine) BuildIndex(history []txn.Transaction) *grouping.Index {
	return grouping.Build(history, e.norm, e.parser)
}

// Compute produces the flat feature map for one transaction against a
// prebuilt index. Pure: identical (transaction, index) inputs produce
// identical maps regardless of call order. Strict date mode surfaces a
// *dateparse.FormatError for an unparsable reference date; lenient mode
// computes against the epoch sentinel.
func (e *Engine) Compute(t txn.Transaction, idx *grouping.Index) (map[string]float64, error) {
	refDate, err := e.parser.Parse(t.Date)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
	}

	canonical := e.norm.Normalize(t.VendorName)
	group := idx.UserVendor(t.UserID, canonical)
	subset := group.FilterAmount(t.Amount, e.config.AmountTolerance)

	f := make(map[string]float64, 64)

	// Vendor identity signals.
	f["vendor_always_recurring"] = boolToFloat(e.norm.IsAlwaysRecurring(t.VendorName))
	f["vendor_recurring_keyword"] = boolToFloat(e.norm.HasRecurringKeywords(t.VendorName))
	f["vendor_txn_count"] = float64(len(group))
	f["vendor_same_amount_count"] = float64(len(subset))

	// Amount signals.
	amt, _ := amount.Normalize(t.Amount).Float64()
	f["amount"] = amt
	f["amount_common_subscription"] = boolToFloat(e.analyzer.IsCommonSubscriptionPrice(t.Amount))
	amounts := group.Amounts()
	stats := amount.Dispersion(amounts)
	f["amount_mean"] = stats.Mean
	f["amount_stdev"] = stats.Stdev
	f["amount_mad"] = stats.MAD
	f["amount_coef_var"] = stats.CoefVar
	f["amount_outlier_score"] = amount.OutlierScore(t.Amount, amounts)
	modal, _ := amount.ModalAmount(amounts).Float64()
	f["amount_modal"] = modal
	f["amount_frac_modal"] = amount.FractionMatchingModal(amounts, e.config.AmountTolerance)

	// Interval signals over the whole vendor group and the same-amount subset.
	e.intervalFeatures(f, "interval", interval.Intervals(group))
	e.intervalFeatures(f, "amount_interval", interval.Intervals(subset))

	// Recency.
	f["days_since_last"] = interval.DaysSinceLast(refDate, t.ID, group)
	if e.config.IncludeFuture {
		f["days_until_next"] = interval.DaysUntilNext(refDate, t.ID, group)
	} else {
		f["days_until_next"] = interval.NoData
	}

	// "N days apart" parameterizations: does another same-vendor transaction
	// sit a near-multiple of Days away from the reference?
	for _, w := range e.config.DayWindows {
		name := fmt.Sprintf("txn_%dd_apart_tol%d", w.Days, w.Tolerance)
		f[name] = float64(e.countDaysApart(refDate, t.ID, group, w))
	}

	// "Same day of month" parameterizations.
	for _, tol := range e.config.DayOfMonthTolerances {
		name := fmt.Sprintf("same_dom_tol%d", tol)
		f[name] = float64(countSameDayOfMonth(refDate, t.ID, group, tol))
	}

	// The final judgment.
	result := e.scorer.Score(group, subset, t)
	f["is_recurring"] = boolToFloat(result.IsRecurring)
	f["recurrence_confidence"] = result.Confidence

	return f, nil
}

// intervalFeatures writes the per-bucket and summary interval statistics
// under the given name prefix.
func (e *Engine) intervalFeatures(f map[string]float64, prefix string, intervals []int) {
	f[prefix+"_mean"] = interval.Mean(intervals)
	f[prefix+"_median"] = interval.Median(intervals)
	f[prefix+"_stdev"] = interval.Stdev(intervals)
	f[prefix+"_mad"] = interval.MAD(intervals)
	mode := interval.ModeInterval(intervals)
	f[prefix+"_mode"] = float64(mode)
	modeBucket, classified := interval.Classify(mode, e.config.Buckets)
	for _, b := range e.config.Buckets {
		f[fmt.Sprintf("%s_frac_%s", prefix, b.Name)] = interval.BucketFraction(intervals, b)
		f[fmt.Sprintf("%s_streak_%s", prefix, b.Name)] = float64(interval.LongestStreak(intervals, b))
		f[fmt.Sprintf("%s_mode_is_%s", prefix, b.Name)] = boolToFloat(classified && b.Name == modeBucket.Name)
	}
}

// countDaysApart counts group entries (other than the reference) whose
// distance to the reference date is within tolerance of a positive multiple
// of w.Days. Without IncludeFuture only earlier entries count.
func (e *Engine) countDaysApart(ref time.Time, refID string, g grouping.Group, w DayWindow) int {
	count := 0
	for _, entry := range g {
		if entry.Txn.ID == refID {
			continue
		}
		diff := daysAbs(ref, entry.Date)
		if !e.config.IncludeFuture && entry.Date.After(ref) {
			continue
		}
		if diff == 0 {
			continue
		}
		rem := diff % w.Days
		if rem <= w.Tolerance || w.Days-rem <= w.Tolerance {
			count++
		}
	}
	return count
}

// countSameDayOfMonth counts group entries (other than the reference) whose
// calendar day of month is within tol of the reference's, with wraparound so
// the 31st and the 1st are one day apart.
func countSameDayOfMonth(ref time.Time, refID string, g grouping.Group, tol int) int {
	count := 0
	for _, entry := range g {
		if entry.Txn.ID == refID {
			continue
		}
		diff := entry.Date.Day() - ref.Day()
		if diff < 0 {
			diff = -diff
		}
		if wrapped := 31 - diff; wrapped < diff {
			diff = wrapped
		}
		if diff <= tol {
			count++
		}
	}
	return count
}

// daysAbs returns the whole-day distance between two dates.
func daysAbs(a, b time.Time) int {
	return int(math.Abs(b.Sub(a).Hours()) / 24)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
