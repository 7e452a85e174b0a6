package interval

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/recurring-features/internal/domain/grouping"
	"github.com/eshaffer321/recurring-features/internal/domain/txn"
)

// syntheticGroup builds a date-sorted group with the given start date and day
// gaps between consecutive entries.
func syntheticGroup(start time.Time, gaps ...int) grouping.Group {
	g := grouping.Group{{
		Txn:  txn.Transaction{ID: "t0", Amount: decimal.New(999, -2)},
		Date: start,
	}}
	date := start
	for i, gap := range gaps {
		date = date.AddDate(0, 0, gap)
		g = append(g, grouping.Entry{
			Txn:  txn.Transaction{ID: fmt.Sprintf("t%d", i+1), Amount: decimal.New(999, -2)},
			Date: date,
		})
	}
	return g
}

func TestIntervals(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Nil(t, Intervals(nil))
	assert.Nil(t, Intervals(syntheticGroup(start)))
	assert.Equal(t, []int{30, 31, 29}, Intervals(syntheticGroup(start, 30, 31, 29)))
}

func TestIntervals_SameDayDuplicatesKeptAsZero(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	got := Intervals(syntheticGroup(start, 0, 30))

	assert.Equal(t, []int{0, 30}, got)
}

func TestStats_NeutralValues(t *testing.T) {
	// Zero and one-element inputs must return neutral values, never panic.
	for _, intervals := range [][]int{nil, {}, {30}} {
		if len(intervals) == 0 {
			assert.Equal(t, NoData, Mean(intervals))
			assert.Equal(t, NoData, Median(intervals))
		}
		assert.Equal(t, NoDispersion, Stdev(intervals))
		assert.Equal(t, NoDispersion, MAD(intervals))
	}
	assert.Equal(t, 30.0, Mean([]int{30}))
	assert.Equal(t, 30.0, Median([]int{30}))
}

func TestStats_Values(t *testing.T) {
	intervals := []int{28, 30, 32}

	assert.InDelta(t, 30.0, Mean(intervals), 1e-9)
	assert.Equal(t, 30.0, Median(intervals))
	assert.InDelta(t, 1.63299, Stdev(intervals), 1e-4)
	assert.Equal(t, 2.0, MAD(intervals))
}

func TestBucketFraction_MonthlyRoundTrip(t *testing.T) {
	// Six transactions exactly 30 days apart starting 2024-01-01.
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := syntheticGroup(start, 30, 30, 30, 30, 30)
	intervals := Intervals(g)

	assert.Equal(t, 1.0, BucketFraction(intervals, Monthly))
	assert.Equal(t, 5, LongestStreak(intervals, Monthly))
}

func TestBucketFraction(t *testing.T) {
	assert.Equal(t, 0.0, BucketFraction(nil, Monthly))
	assert.Equal(t, 0.5, BucketFraction([]int{30, 90}, Monthly))
	assert.Equal(t, 1.0, BucketFraction([]int{7, 8, 6, 5, 9}, Weekly))
}

func TestModeInterval(t *testing.T) {
	assert.Equal(t, -1, ModeInterval(nil))
	assert.Equal(t, 30, ModeInterval([]int{30, 30, 7}))
	// Ties break to the smallest value.
	assert.Equal(t, 7, ModeInterval([]int{30, 7, 30, 7}))
}

func TestLongestStreak_ResetsOnOutOfWindow(t *testing.T) {
	// Two monthly gaps, a long break, then three more monthly gaps.
	intervals := []int{30, 31, 120, 29, 30, 33}

	assert.Equal(t, 3, LongestStreak(intervals, Monthly))
	assert.Equal(t, 0, LongestStreak(nil, Monthly))
}

func TestClassify(t *testing.T) {
	buckets := DefaultBuckets()

	weekly, ok := Classify(7, buckets)
	require.True(t, ok)
	assert.Equal(t, "weekly", weekly.Name)

	// 16 days is only biweekly (14±2).
	biweekly, ok := Classify(16, buckets)
	require.True(t, ok)
	assert.Equal(t, "biweekly", biweekly.Name)

	_, ok = Classify(50, buckets)
	assert.False(t, ok)
}

func TestClassify_OverlapPrefersNarrowestThenSmallerCenter(t *testing.T) {
	// Overlapping windows: 10 satisfies both; the narrower wins.
	wide := Bucket{Name: "wide", Center: 12, Tolerance: 5}
	narrow := Bucket{Name: "narrow", Center: 9, Tolerance: 2}

	got, ok := Classify(10, []Bucket{wide, narrow})
	require.True(t, ok)
	assert.Equal(t, "narrow", got.Name)

	// Equal widths: smaller center wins regardless of slice order.
	a := Bucket{Name: "a", Center: 8, Tolerance: 2}
	b := Bucket{Name: "b", Center: 10, Tolerance: 2}
	got, ok = Classify(9, []Bucket{b, a})
	require.True(t, ok)
	assert.Equal(t, "a", got.Name)
}

func TestDaysSinceLast(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := syntheticGroup(start, 30, 30) // t0=Jan1, t1=Jan31, t2=Mar1
	ref := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 10.0, DaysSinceLast(ref, "ref", g))
	assert.Equal(t, 20.0, DaysUntilNext(ref, "ref", g))

	// No earlier entry: sentinel.
	early := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, NoData, DaysSinceLast(early, "ref", g))
	assert.Equal(t, NoData, DaysUntilNext(ref, "ref", nil))
}

func TestDaysSinceLast_ExcludesReferenceTransaction(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := syntheticGroup(start, 30) // t0=Jan1, t1=Jan31

	// The reference transaction itself must not count as its own neighbor.
	got := DaysSinceLast(g[1].Date, g[1].Txn.ID, g)

	assert.Equal(t, 30.0, got)
}
