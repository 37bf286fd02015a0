package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"recorridos/internal/calendar"
	"recorridos/internal/core"
	"recorridos/internal/log"
)

// ninoOption is one checkbox of the recorrido form.
type ninoOption struct {
	ID      int64
	Nombre  string
	Checked bool
	Notas   string
}

type recorridoForm struct {
	Action    string
	Recorrido core.Recorrido
	Costo     string
	Vehiculos []core.Vehiculo
	Ninos     []ninoOption
	Errors    map[string]string
}

type recorridosView struct {
	Nav  monthNav
	List []core.Recorrido
	Form recorridoForm
}

type recorridosList struct {
	Nav  monthNav
	List []core.Recorrido
}

// parseRecorrido reads the form. Values that cannot be converted are
// reported as field errors; rec still carries what could be read.
func parseRecorrido(r *http.Request) (rec core.Recorrido, costo string, fields map[string]string) {
	fields = map[string]string{}
	rec = core.Recorrido{
		Fecha:      sanitizeInput(r.PostForm.Get("fecha")),
		HoraInicio: sanitizeInput(r.PostForm.Get("hora_inicio")),
		Ninos:      []core.RecorridoNino{},
	}

	if v := strings.TrimSpace(r.PostForm.Get("vehiculo_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			fields["vehiculo_id"] = "vehículo inválido"
		}
		rec.VehiculoID = id
	}

	costo = strings.TrimSpace(r.PostForm.Get("costo"))
	if costo != "" {
		cents, err := core.ParseDecimalToCents(costo)
		if err != nil {
			fields["costo"] = "importe inválido"
		}
		rec.Costo = core.Money{Cents: cents}
	}

	for _, raw := range r.PostForm["nino_id"] {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || id <= 0 {
			fields["ninos"] = "niño inválido"
			continue
		}
		rec.Ninos = append(rec.Ninos, core.RecorridoNino{
			ID:    id,
			Notas: sanitizeInput(r.PostForm.Get("notas_" + strconv.FormatInt(id, 10))),
		})
	}

	if len(fields) == 0 {
		return rec, costo, nil
	}
	// report the remaining problems together with the conversion errors
	check := rec
	check.Normalize()
	if verr, ok := fieldErrors(check.Validate()); ok {
		for k, v := range verr {
			if _, set := fields[k]; !set {
				fields[k] = v
			}
		}
	}
	return rec, costo, fields
}

// recorridoForm loads the vehiculo and niño choices for the form.
func (s *Server) recorridoForm(ctx context.Context, action string, rec core.Recorrido, costo string, errs map[string]string) (recorridoForm, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	var (
		vehiculos []core.Vehiculo
		ninos     []core.Nino
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vehiculos, err = s.backend.ListVehiculos(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		ninos, err = s.backend.ListNinos(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return recorridoForm{}, err
	}

	selected := make(map[int64]core.RecorridoNino, len(rec.Ninos))
	for _, n := range rec.Ninos {
		selected[n.ID] = n
	}
	options := make([]ninoOption, 0, len(ninos))
	for _, n := range ninos {
		sel, checked := selected[n.ID]
		options = append(options, ninoOption{ID: n.ID, Nombre: n.NombreCompleto(), Checked: checked, Notas: sel.Notas})
	}

	return recorridoForm{
		Action:    action,
		Recorrido: rec,
		Costo:     costo,
		Vehiculos: vehiculos,
		Ninos:     options,
		Errors:    errs,
	}, nil
}

// blankRecorridoForm is the create form with today's date.
func (s *Server) blankRecorridoForm(ctx context.Context) (recorridoForm, error) {
	rec := core.Recorrido{Fecha: s.clock.Now().Format("2006-01-02")}
	return s.recorridoForm(ctx, "/recorridos", rec, "", nil)
}

// monthList flattens the month's buckets in day order.
func monthList(b calendar.Buckets) []core.Recorrido {
	var out []core.Recorrido
	for _, d := range b.Days() {
		out = append(out, b[d]...)
	}
	return out
}

func (s *Server) handleRecorridos(w http.ResponseWriter, r *http.Request) {
	year, month := s.monthParams(r)

	ctx, cancel := context.WithTimeout(r.Context(), fetchTimeout)
	defer cancel()
	records, err := s.backend.ListRecorridosByMonth(ctx, year, month)
	if err != nil {
		s.handleError(w, r, log.OpList, err)
		return
	}
	list := recorridosList{
		Nav:  newMonthNav(year, month),
		List: monthList(s.memo.Aggregate(records, month, year)),
	}
	if r.URL.Query().Get("fragment") == "list" {
		s.render(w, r, http.StatusOK, "recorridos_list", list)
		return
	}

	form, err := s.blankRecorridoForm(r.Context())
	if err != nil {
		s.handleError(w, r, log.OpList, err)
		return
	}
	s.renderPage(w, r, "recorridos.html", "Recorridos", "recorridos", recorridosView{Nav: list.Nav, List: list.List, Form: form})
}

func (s *Server) handleCreateRecorrido(w http.ResponseWriter, r *http.Request) {
	s.writeRecorrido(w, r, 0)
}

func (s *Server) handleUpdateRecorrido(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, r, log.OpUpdate, err)
		return
	}
	s.writeRecorrido(w, r, id)
}

// writeRecorrido creates (id 0) or updates a recorrido from the form.
func (s *Server) writeRecorrido(w http.ResponseWriter, r *http.Request, id int64) {
	if err := r.ParseForm(); err != nil {
		ErrorResponse(http.StatusBadRequest, "Formato de solicitud inválido").Write(w)
		return
	}
	ctx := r.Context()
	op, action, message := log.OpCreate, "/recorridos", "Recorrido registrado"
	if id != 0 {
		op, action, message = log.OpUpdate, "/recorridos/"+strconv.FormatInt(id, 10), "Recorrido actualizado"
	}

	rec, costo, fields := parseRecorrido(r)
	rec.ID = id

	var err error
	if fields == nil {
		var saved core.Recorrido
		if id == 0 {
			saved, err = s.backend.CreateRecorrido(ctx, rec)
		} else {
			saved, err = s.backend.UpdateRecorrido(ctx, rec)
		}
		if err == nil {
			log.FromContext(ctx).InfoContext(ctx, "Recorrido saved",
				log.NewFields().
					WithOperation(op).
					WithEntity("recorrido", saved.ID).
					WithRecorrido(saved.Fecha, saved.VehiculoID, saved.Costo.Cents).
					ToSlice()...)
			next, ferr := s.blankRecorridoForm(ctx)
			if ferr != nil {
				s.handleError(w, r, log.OpRead, ferr)
				return
			}
			s.saved(w, r, "recorridos", message+": "+saved.Fecha+" "+saved.HoraInicio, "recorrido_form", next)
			return
		}
		var ok bool
		if fields, ok = fieldErrors(err); !ok {
			s.handleError(w, r, op, err)
			return
		}
	}

	form, ferr := s.recorridoForm(ctx, action, rec, costo, fields)
	if ferr != nil {
		s.handleError(w, r, log.OpRead, ferr)
		return
	}
	s.invalid(w, r, "recorrido_form", form)
}

func (s *Server) handleEditRecorrido(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, r, log.OpRead, err)
		return
	}
	rec, err := s.backend.GetRecorrido(r.Context(), id)
	if err != nil {
		s.handleError(w, r, log.OpRead, err)
		return
	}
	form, err := s.recorridoForm(r.Context(), "/recorridos/"+strconv.FormatInt(id, 10), rec, amountInput(rec.Costo.Cents), nil)
	if err != nil {
		s.handleError(w, r, log.OpRead, err)
		return
	}
	s.render(w, r, http.StatusOK, "recorrido_form", form)
}

func (s *Server) handleDeleteRecorrido(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = s.backend.DeleteRecorrido(r.Context(), id)
	}
	if err != nil {
		s.handleError(w, r, log.OpDelete, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Recorrido deleted",
		log.NewFields().WithEntity("recorrido", id).ToSlice()...)
	s.saved(w, r, "recorridos", "Recorrido eliminado", "", nil)
}
