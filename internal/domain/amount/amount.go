// Package amount measures how consistent a vendor's charge amounts are and
// whether they look like subscription price points. Amounts are
// decimal.Decimal throughout; float64 appears only in derived statistics
// where fractional drift no longer matters.
package amount

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// centTolerance is the default closeness for "same price" comparisons.
var centTolerance = decimal.New(1, -2) // 0.01

// commonPriceEndings are the cent endings subscription services favor.
var commonPriceEndings = []int{0, 99, 95, 49}

// Normalize rounds to two decimal places so near-identical amounts cluster
// before comparison.
func Normalize(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Config holds the curated subscription price list. Data, not code: swap per
// market without touching the analyzer.
type Config struct {
	CommonPrices []decimal.Decimal
}

// DefaultConfig returns the built-in common subscription price points.
func DefaultConfig() Config {
	raw := []string{
		"0.99", "1.99", "2.99", "3.99", "4.99", "5.99", "6.99", "7.99",
		"8.99", "9.99", "10.99", "11.99", "12.99", "13.99", "14.99",
		"15.49", "15.99", "17.99", "19.99", "24.99", "29.99", "39.99",
		"49.99", "59.99", "79.99", "99.99", "9.95", "14.95", "19.95",
		"5.00", "10.00", "15.00", "20.00", "25.00", "50.00", "100.00",
	}
	prices := make([]decimal.Decimal, len(raw))
	for i, s := range raw {
		prices[i] = decimal.RequireFromString(s)
	}
	return Config{CommonPrices: prices}
}

// Analyzer answers subscription price questions against a configured list.
type Analyzer struct {
	prices []decimal.Decimal
}

// NewAnalyzer creates an analyzer over the configured price list.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{prices: cfg.CommonPrices}
}

// IsCommonSubscriptionPrice reports whether the amount is within one cent of
// a curated price point, or carries a typical subscription cent ending
// (.99/.95/.49/whole dollars) on a positive amount.
func (a *Analyzer) IsCommonSubscriptionPrice(d decimal.Decimal) bool {
	norm := Normalize(d)
	for _, p := range a.prices {
		if norm.Sub(p).Abs().Cmp(centTolerance) <= 0 {
			return true
		}
	}
	if norm.Sign() <= 0 {
		return false
	}
	cents := norm.Mod(decimal.New(1, 0)).Mul(decimal.New(100, 0)).IntPart()
	for _, e := range commonPriceEndings {
		if int(cents) == e {
			return true
		}
	}
	return false
}

// Stats holds population dispersion statistics over a group of amounts.
type Stats struct {
	Mean    float64
	Stdev   float64
	MAD     float64
	CoefVar float64
}

// Dispersion computes population statistics with the sparse-history policy:
// fewer than one amount yields a zeroed Stats (Mean 0), a single amount
// yields its mean with zero dispersion, and CoefVar is 0 when the mean is 0.
func Dispersion(amounts []decimal.Decimal) Stats {
	if len(amounts) == 0 {
		return Stats{}
	}
	vals := toFloats(amounts)

	var s Stats
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	s.Mean = sum / float64(len(vals))

	if len(vals) < 2 {
		return s
	}

	var ss float64
	for _, v := range vals {
		diff := v - s.Mean
		ss += diff * diff
	}
	s.Stdev = math.Sqrt(ss / float64(len(vals)))
	s.MAD = medianAbsDev(vals)
	if s.Mean != 0 {
		s.CoefVar = s.Stdev / math.Abs(s.Mean)
	}
	return s
}

// OutlierScore returns the absolute z-score of a relative to the group, or 0
// when the group's stdev is 0 (identical amounts are never outliers).
func OutlierScore(a decimal.Decimal, amounts []decimal.Decimal) float64 {
	s := Dispersion(amounts)
	if s.Stdev == 0 {
		return 0
	}
	v, _ := Normalize(a).Float64()
	return math.Abs(v-s.Mean) / s.Stdev
}

// ModalAmount returns the most frequent normalized amount, ties broken by the
// smallest value. Empty input yields zero.
func ModalAmount(amounts []decimal.Decimal) decimal.Decimal {
	if len(amounts) == 0 {
		return decimal.Zero
	}
	counts := make(map[string]int, len(amounts))
	values := make(map[string]decimal.Decimal, len(amounts))
	for _, d := range amounts {
		norm := Normalize(d)
		key := norm.String()
		counts[key]++
		values[key] = norm
	}

	var best decimal.Decimal
	bestCount := 0
	for key, c := range counts {
		v := values[key]
		if c > bestCount || (c == bestCount && v.Cmp(best) < 0) {
			best, bestCount = v, c
		}
	}
	return best
}

// FractionMatchingModal returns the fraction of amounts within tol of the
// modal amount, in [0, 1]. Empty input yields 0.
func FractionMatchingModal(amounts []decimal.Decimal, tol decimal.Decimal) float64 {
	if len(amounts) == 0 {
		return 0
	}
	modal := ModalAmount(amounts)
	hits := 0
	for _, d := range amounts {
		if Normalize(d).Sub(modal).Abs().Cmp(tol) <= 0 {
			hits++
		}
	}
	return float64(hits) / float64(len(amounts))
}

func toFloats(amounts []decimal.Decimal) []float64 {
	out := make([]float64, len(amounts))
	for i, d := range amounts {
		out[i], _ = Normalize(d).Float64()
	}
	return out
}

func medianAbsDev(vals []float64) float64 {
	med := median(vals)
	devs := make([]float64, len(vals))
	for i, v := range vals {
		devs[i] = math.Abs(v - med)
	}
	return median(devs)
}

func median(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
