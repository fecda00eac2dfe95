package records

import (
	"sort"
	"strings"
	"time"
)

// bucket is a named numeric range. The top bucket of each family is open ended and
// excludes its lower bound.
type bucket struct {
	lo          float64
	hi          float64
	loExclusive bool
	open        bool
}

func (b bucket) contains(x float64) bool {
	if b.loExclusive {
		if x <= b.lo {
			return false
		}
	} else if x < b.lo {
		return false
	}
	return b.open || x <= b.hi
}

// Experience buckets are inclusive on both ends, so 2.5 years falls in no bucket.
var experienceBuckets = map[string]bucket{
	"0-2":  {lo: 0, hi: 2},
	"3-5":  {lo: 3, hi: 5},
	"6-10": {lo: 6, hi: 10},
	"10+":  {lo: 10, loExclusive: true, open: true},
}

// CTC buckets above the first exclude their lower bound, so a boundary value belongs
// to the lower bucket. This differs from experience on purpose; keep both as they are.
var ctcBuckets = map[string]bucket{
	"0-5":   {lo: 0, hi: 5},
	"5-10":  {lo: 5, hi: 10, loExclusive: true},
	"10-15": {lo: 10, hi: 15, loExclusive: true},
	"15-20": {lo: 15, hi: 20, loExclusive: true},
	"20+":   {lo: 20, loExclusive: true, open: true},
}

var ageBuckets = map[string]bucket{
	"18-25": {lo: 18, hi: 25},
	"26-35": {lo: 26, hi: 35},
	"36-45": {lo: 36, hi: 45},
	"46-55": {lo: 46, hi: 55},
	"55+":   {lo: 55, loExclusive: true, open: true},
}

// BucketNames lists the accepted values of each range filter.
func BucketNames() map[string][]string {
	return map[string][]string{
		"experienceRange": sortedNames(experienceBuckets),
		"ctcRange":        sortedNames(ctcBuckets),
		"ageRange":        sortedNames(ageBuckets),
	}
}

func sortedNames(m map[string]bucket) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		return m[names[i]].lo < m[names[j]].lo
	})
	return names
}

var dobLayouts = []string{"2006-01-02", time.RFC3339, time.RFC3339Nano}

// Age returns completed years between dob and now. ok is false when dob is empty or
// cannot be parsed.
func Age(dob string, now time.Time) (age int, ok bool) {
	dob = strings.TrimSpace(dob)
	if dob == "" {
		return 0, false
	}
	var born time.Time
	var err error
	for i, layout := range dobLayouts {
		born, err = time.Parse(layout, dob)
		if err == nil {
			// timestamps name an instant; read the birthday in now's zone
			if i > 0 {
				born = born.In(now.Location())
			}
			break
		}
	}
	if err != nil {
		return 0, false
	}

	age = now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	return age, true
}
