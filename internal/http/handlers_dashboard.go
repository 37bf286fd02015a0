package http

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"recorridos/internal/calendar"
	"recorridos/internal/core"
	"recorridos/internal/export"
	"recorridos/internal/log"
)

type calendarView struct {
	Nav      monthNav
	Weekdays [7]string
	Rows     [][]*calendar.Cell
	Summary  calendar.Summary
}

type dashboardView struct {
	Calendar  calendarView
	Vehiculos int
	Ninos     int
	Error     string
}

type dayView struct {
	Nav        monthNav
	Day        int
	Recorridos []core.Recorrido
}

// monthData is what the dashboard and the export read for one month.
type monthData struct {
	recorridos []core.Recorrido
	vehiculos  []core.Vehiculo
	ninos      []core.Nino
}

// fetchMonth loads the month's recorridos together with the vehiculos and
// niños lists.
func (s *Server) fetchMonth(ctx context.Context, year, month int) (monthData, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	var d monthData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rs, err := s.backend.ListRecorridosByMonth(gctx, year, month)
		d.recorridos = rs
		return err
	})
	g.Go(func() error {
		vs, err := s.backend.ListVehiculos(gctx)
		d.vehiculos = vs
		return err
	})
	g.Go(func() error {
		ns, err := s.backend.ListNinos(gctx)
		d.ninos = ns
		return err
	})
	if err := g.Wait(); err != nil {
		return monthData{}, err
	}
	return d, nil
}

// calendar aggregates records into the grid and summary for year/month.
func (s *Server) calendar(ctx context.Context, year, month int, records []core.Recorrido) calendarView {
	if n := calendar.Dropped(records); n > 0 {
		log.FromContext(ctx).WithComponent(log.ComponentCalendar).DebugContext(ctx, "Recorridos with malformed fecha skipped",
			log.FieldYear, year,
			log.FieldMonth, month,
			log.FieldDropped, n)
	}
	buckets := s.memo.Aggregate(records, month, year)
	return calendarView{
		Nav:      newMonthNav(year, month),
		Weekdays: calendar.WeekdayLabels,
		Rows:     calendar.BuildGrid(month, year, buckets, s.clock),
		Summary:  calendar.Summarize(buckets),
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	year, month := s.monthParams(r)
	view := dashboardView{}

	data, err := s.fetchMonth(r.Context(), year, month)
	if err != nil {
		if statusFor(err) == http.StatusUnauthorized {
			s.handleError(w, r, log.OpRead, err)
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Dashboard data error",
			log.FieldYear, year, log.FieldMonth, month, log.FieldError, err)
		view.Error = userMessage(err)
	}
	view.Calendar = s.calendar(r.Context(), year, month, data.recorridos)
	view.Vehiculos = len(data.vehiculos)
	view.Ninos = len(data.ninos)

	s.renderPage(w, r, "dashboard.html", "Calendario", "dashboard", view)
}

// handleCalendar renders the calendar partial for the selected month.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	year, month := s.monthParams(r)

	ctx, cancel := context.WithTimeout(r.Context(), fetchTimeout)
	defer cancel()
	records, err := s.backend.ListRecorridosByMonth(ctx, year, month)
	if err != nil {
		s.handleError(w, r, log.OpList, err)
		return
	}
	s.render(w, r, http.StatusOK, "calendar", s.calendar(r.Context(), year, month, records))
}

// handleCalendarDay lists the recorridos of one day, in source order.
func (s *Server) handleCalendarDay(w http.ResponseWriter, r *http.Request) {
	year, month := s.monthParams(r)
	day, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("day")))
	if err != nil || day < 1 || day > calendar.DaysIn(month, year) {
		ErrorResponse(http.StatusUnprocessableEntity, "Día inválido").Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), fetchTimeout)
	defer cancel()
	records, err := s.backend.ListRecorridosByMonth(ctx, year, month)
	if err != nil {
		s.handleError(w, r, log.OpList, err)
		return
	}
	buckets := s.memo.Aggregate(records, month, year)
	s.render(w, r, http.StatusOK, "calendar_day", dayView{
		Nav:        newMonthNav(year, month),
		Day:        day,
		Recorridos: buckets[day],
	})
}

// handleExport streams the month report as an XLSX download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	year, month := s.monthParams(r)

	data, err := s.fetchMonth(r.Context(), year, month)
	if err != nil {
		s.handleError(w, r, log.OpExport, err)
		return
	}
	records := fillNames(data.recorridos, data.vehiculos, data.ninos)

	var buf bytes.Buffer
	if err := export.MonthReport(&buf, year, month, records); err != nil {
		s.handleError(w, r, log.OpExport, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Month report exported",
		log.FieldOperation, log.OpExport,
		log.FieldYear, year,
		log.FieldMonth, month,
		"bytes", buf.Len())

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(year, month)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// fillNames completes vehiculo descriptions and niño names the source left
// empty. The input slice is not modified.
func fillNames(records []core.Recorrido, vehiculos []core.Vehiculo, ninos []core.Nino) []core.Recorrido {
	vs := make(map[int64]string, len(vehiculos))
	for _, v := range vehiculos {
		vs[v.ID] = v.Descripcion
	}
	ns := make(map[int64]string, len(ninos))
	for _, n := range ninos {
		ns[n.ID] = n.NombreCompleto()
	}

	out := make([]core.Recorrido, len(records))
	for i, r := range records {
		if r.VehiculoDescripcion == "" {
			r.VehiculoDescripcion = vs[r.VehiculoID]
		}
		ninosCopy := make([]core.RecorridoNino, len(r.Ninos))
		for j, n := range r.Ninos {
			if n.Nombre == "" {
				n.Nombre = ns[n.ID]
			}
			ninosCopy[j] = n
		}
		r.Ninos = ninosCopy
		out[i] = r
	}
	return out
}
