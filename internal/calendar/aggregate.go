// Package calendar turns a flat list of recorridos into a month view: a
// per-day bucket map, a Monday-first grid of weeks and summary totals.
package calendar

import (
	"sort"
	"strconv"
	"strings"

	"recorridos/internal/core"
)

// Buckets maps a day of month (1-31) to the recorridos on that day, in the
// order they appeared in the source list. Days without recorridos have no key.
type Buckets map[int][]core.Recorrido

// Days returns the populated days in ascending order.
func (b Buckets) Days() []int {
	days := make([]int, 0, len(b))
	for d, rs := range b {
		if len(rs) > 0 {
			days = append(days, d)
		}
	}
	sort.Ints(days)
	return days
}

// Has reports whether day has at least one recorrido.
func (b Buckets) Has(day int) bool {
	return len(b[day]) > 0
}

// Aggregate groups the recorridos falling in month/year by day of month.
// Records whose fecha is not a YYYY-MM-DD triple of integers are skipped, as
// are days outside 1..31. The result is a pure function of its inputs.
func Aggregate(records []core.Recorrido, month, year int) Buckets {
	b := Buckets{}
	for _, r := range records {
		y, m, d, ok := ParseFecha(r.Fecha)
		if !ok || y != year || m != month {
			continue
		}
		if d < 1 || d > 31 {
			continue
		}
		b[d] = append(b[d], r)
	}
	return b
}

// Dropped counts the records Aggregate can never place in any month because
// their fecha is malformed.
func Dropped(records []core.Recorrido) int {
	n := 0
	for _, r := range records {
		if _, _, d, ok := ParseFecha(r.Fecha); !ok || d < 1 || d > 31 {
			n++
		}
	}
	return n
}

// ParseFecha splits a YYYY-MM-DD string into its integer parts. No range or
// calendar checks are applied.
func ParseFecha(fecha string) (year, month, day int, ok bool) {
	if fecha == "" {
		return 0, 0, 0, false
	}
	parts := strings.Split(fecha, "-")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0, 0, 0, false
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], true
}
