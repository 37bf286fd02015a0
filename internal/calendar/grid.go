package calendar

import (
	"fmt"
	"time"
)

// Cell is one day in the month grid. Padding positions are nil.
type Cell struct {
	Day           int
	HasRecorridos bool
	IsToday       bool
}

// WeekdayLabels are the grid column headers, Monday first.
var WeekdayLabels = [7]string{"Lun", "Mar", "Mié", "Jue", "Vie", "Sáb", "Dom"}

// BuildGrid lays out month/year as rows of seven cells starting on Monday.
// Leading and trailing positions outside the month are nil. It panics when
// month is not in 1..12.
func BuildGrid(month, year int, b Buckets, clock Clock) [][]*Cell {
	if month < 1 || month > 12 {
		panic(fmt.Sprintf("calendar: BuildGrid called with month %d, want 1..12", month))
	}
	if clock == nil {
		clock = SystemClock{}
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	offset := int(first.Weekday()) - 1
	if first.Weekday() == time.Sunday {
		offset = 6
	}
	daysInMonth := DaysIn(month, year)

	ty, tm, td := clock.Now().Date()

	var rows [][]*Cell
	row := make([]*Cell, 0, 7)
	for i := 0; i < offset; i++ {
		row = append(row, nil)
	}
	for day := 1; day <= daysInMonth; day++ {
		row = append(row, &Cell{
			Day:           day,
			HasRecorridos: b.Has(day),
			IsToday:       day == td && month == int(tm) && year == ty,
		})
		if len(row) == 7 {
			rows = append(rows, row)
			row = make([]*Cell, 0, 7)
		}
	}
	if len(row) > 0 {
		for len(row) < 7 {
			row = append(row, nil)
		}
		rows = append(rows, row)
	}
	return rows
}

// DaysIn returns the number of days in month/year.
func DaysIn(month, year int) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
