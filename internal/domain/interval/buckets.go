package interval

// Bucket is a named billing cycle: a center gap in days plus a tolerance
// window. An interval d satisfies the bucket when |d - Center| <= Tolerance.
type Bucket struct {
	Name      string
	Center    int
	Tolerance int
}

// Contains reports whether the interval falls inside the bucket's window.
func (b Bucket) Contains(days int) bool {
	diff := days - b.Center
	if diff < 0 {
		diff = -diff
	}
	return diff <= b.Tolerance
}

// Standard billing cycles. Callers needing tighter or looser windows build
// their own Bucket values; these are the defaults the assembler uses.
var (
	Weekly    = Bucket{Name: "weekly", Center: 7, Tolerance: 2}
	Biweekly  = Bucket{Name: "biweekly", Center: 14, Tolerance: 2}
	Monthly   = Bucket{Name: "monthly", Center: 30, Tolerance: 4}
	Quarterly = Bucket{Name: "quarterly", Center: 90, Tolerance: 10}
	Annual    = Bucket{Name: "annual", Center: 365, Tolerance: 15}
)

// DefaultBuckets returns the standard cycles in ascending center order.
func DefaultBuckets() []Bucket {
	return []Bucket{Weekly, Biweekly, Monthly, Quarterly, Annual}
}

// Classify picks the single best bucket for an interval. Windows may overlap;
// the narrowest matching window wins, and on equal width the smaller center
// wins (weekly before biweekly). Returns false when no bucket matches.
func Classify(days int, buckets []Bucket) (Bucket, bool) {
	var best Bucket
	found := false
	for _, b := range buckets {
		if !b.Contains(days) {
			continue
		}
		if !found || b.Tolerance < best.Tolerance ||
			(b.Tolerance == best.Tolerance && b.Center < best.Center) {
			best = b
			found = true
		}
	}
	return best, found
}
