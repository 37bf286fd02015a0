package http

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"recorridos/internal/calendar"
	"recorridos/internal/core"
	"recorridos/internal/export"
	"recorridos/internal/log"
)

// monthParams reads year and month from the query. Missing values default
// to the clock's month; invalid ones fall back to it with a warning.
func (s *Server) monthParams(r *http.Request) (year, month int) {
	month, year = calendar.Month(s.clock)
	q := r.URL.Query()

	if v := strings.TrimSpace(q.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Invalid year parameter",
				log.FieldYear, v, "corrected_to", year)
		} else {
			year = y
		}
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			curMonth, curYear := calendar.Month(s.clock)
			log.FromContext(r.Context()).WarnContext(r.Context(), "Invalid month parameter",
				log.FieldMonth, v, "corrected_to", curMonth)
			return curYear, curMonth
		}
		month = m
	}
	return year, month
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("id %q: %w", r.PathValue("id"), core.ErrNotFound)
	}
	return id, nil
}

// sanitizeInput removes control characters except tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// formatPesos formats cents as "$1.234" or "$1.234,50".
func formatPesos(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := "$" + groupThousands(cents/100)
	if rem := cents % 100; rem != 0 {
		s += fmt.Sprintf(",%02d", rem)
	}
	if neg {
		return "-" + s
	}
	return s
}

func groupThousands(n int64) string {
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return b.String()
}

// amountInput renders cents for a form field in a shape ParseDecimalToCents
// reads back.
func amountInput(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	if cents%100 == 0 {
		return sign + strconv.FormatInt(cents/100, 10)
	}
	return fmt.Sprintf("%s%d,%02d", sign, cents/100, cents%100)
}

// monthNav holds the selected month and its neighbours.
type monthNav struct {
	Year, Month         int
	Label               string
	PrevYear, PrevMonth int
	NextYear, NextMonth int
}

func newMonthNav(year, month int) monthNav {
	n := monthNav{Year: year, Month: month, Label: fmt.Sprintf("%s %d", export.MonthName(month), year)}
	n.PrevYear, n.PrevMonth = year, month-1
	if n.PrevMonth < 1 {
		n.PrevYear, n.PrevMonth = year-1, 12
	}
	n.NextYear, n.NextMonth = year, month+1
	if n.NextMonth > 12 {
		n.NextYear, n.NextMonth = year+1, 1
	}
	return n
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"pesos":     func(m core.Money) string { return formatPesos(m.Cents) },
		"monthName": export.MonthName,
		"weekdays":  func() [7]string { return calendar.WeekdayLabels },
		"fieldErr": func(errs map[string]string, field string) string {
			return errs[field]
		},
	}
}
