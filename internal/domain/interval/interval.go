// Package interval measures the regularity of time gaps between same-vendor
// transactions. All statistics follow one failure policy: with zero or one
// data points they return a documented neutral value and never panic, because
// sparse histories (a single observation per vendor) are the common case,
// not the exception.
package interval

import (
	"math"
	"sort"
	"time"

	"github.com/eshaffer321/recurring-features/internal/domain/grouping"
)

// Neutral values for insufficient data. Mean/median of nothing is -1
// ("no gap information"), dispersion of nothing is 0 ("no variance evidence").
const (
	NoData       = -1.0
	NoDispersion = 0.0
)

// Intervals returns the day gaps between chronologically adjacent entries of
// a date-sorted group. Same-day duplicates produce an interval of 0, which is
// deliberately kept: a 0 gap sits outside every billing-cycle window, so
// duplicate-dated charges count as evidence against periodicity rather than
// being silently dropped. Negative gaps cannot occur on sorted input.
func Intervals(g grouping.Group) []int {
	if len(g) < 2 {
		return nil
	}
	out := make([]int, 0, len(g)-1)
	for i := 1; i < len(g); i++ {
		out = append(out, daysBetween(g[i-1].Date, g[i].Date))
	}
	return out
}

// daysBetween returns whole days from a to b, truncating partial days.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// Mean returns the arithmetic mean, or NoData for empty input.
func Mean(intervals []int) float64 {
	if len(intervals) == 0 {
		return NoData
	}
	sum := 0
	for _, d := range intervals {
		sum += d
	}
	return float64(sum) / float64(len(intervals))
}

// Median returns the middle value (mean of the two middle values for even
// lengths), or NoData when empty.
func Median(intervals []int) float64 {
	if len(intervals) == 0 {
		return NoData
	}
	sorted := append([]int(nil), intervals...)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return float64(sorted[mid-1]+sorted[mid]) / 2
}

// Stdev returns the population standard deviation, or NoDispersion for fewer
// than two values.
func Stdev(intervals []int) float64 {
	if len(intervals) < 2 {
		return NoDispersion
	}
	mean := Mean(intervals)
	var ss float64
	for _, d := range intervals {
		diff := float64(d) - mean
		ss += diff * diff
	}
	return math.Sqrt(ss / float64(len(intervals)))
}

// MAD returns the median absolute deviation from the median, or NoDispersion
// for fewer than two values.
func MAD(intervals []int) float64 {
	if len(intervals) < 2 {
		return NoDispersion
	}
	med := Median(intervals)
	devs := make([]float64, len(intervals))
	for i, d := range intervals {
		devs[i] = math.Abs(float64(d) - med)
	}
	sort.Float64s(devs)
	mid := len(devs) / 2
	if len(devs)%2 == 1 {
		return devs[mid]
	}
	return (devs[mid-1] + devs[mid]) / 2
}

// BucketFraction returns the fraction of intervals inside the bucket's
// window, in [0, 1]. Empty input yields 0.
func BucketFraction(intervals []int, b Bucket) float64 {
	if len(intervals) == 0 {
		return 0
	}
	hits := 0
	for _, d := range intervals {
		if b.Contains(d) {
			hits++
		}
	}
	return float64(hits) / float64(len(intervals))
}

// ModeInterval returns the most frequent interval, ties broken by the
// smallest value. Empty input yields -1.
func ModeInterval(intervals []int) int {
	if len(intervals) == 0 {
		return -1
	}
	counts := make(map[int]int, len(intervals))
	for _, d := range intervals {
		counts[d]++
	}
	best, bestCount := 0, 0
	for d, c := range counts {
		if c > bestCount || (c == bestCount && d < best) {
			best, bestCount = d, c
		}
	}
	return best
}

// LongestStreak returns the length of the longest run of consecutive
// intervals all inside the bucket's window. One out-of-window interval resets
// the running streak to zero.
func LongestStreak(intervals []int, b Bucket) int {
	longest, current := 0, 0
	for _, d := range intervals {
		if b.Contains(d) {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 0
		}
	}
	return longest
}

// DaysSinceLast returns the days from the closest entry dated at or before
// ref (excluding the transaction identified by refID) to ref, or NoData when
// no earlier entry exists.
func DaysSinceLast(ref time.Time, refID string, g grouping.Group) float64 {
	best := NoData
	for _, e := range g {
		if e.Txn.ID == refID || e.Date.After(ref) {
			continue
		}
		d := float64(daysBetween(e.Date, ref))
		if best == NoData || d < best {
			best = d
		}
	}
	return best
}

// DaysUntilNext is the forward-looking mirror of DaysSinceLast. It inspects
// entries dated after ref, which leaks future information into a training
// feature; callers opt into it explicitly (see the assembler's IncludeFuture
// switch).
func DaysUntilNext(ref time.Time, refID string, g grouping.Group) float64 {
	best := NoData
	for _, e := range g {
		if e.Txn.ID == refID || e.Date.Before(ref) {
			continue
		}
		d := float64(daysBetween(ref, e.Date))
		if best == NoData || d < best {
			best = d
		}
	}
	return best
}
