package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"recorridos/internal/calendar"
	"recorridos/internal/core"
)

func (s *Store) ListRecorridos(context.Context) ([]core.Recorrido, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Recorrido, 0, len(s.recorridos))
	for _, r := range s.recorridos {
		out = append(out, cloneRecorrido(r))
	}
	sortRecorridos(out)
	return out, nil
}

// ListRecorridosByMonth filters on the parsed fecha the same way the
// calendar does.
func (s *Store) ListRecorridosByMonth(ctx context.Context, year, month int) ([]core.Recorrido, error) {
	all, err := s.ListRecorridos(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, r := range all {
		if y, m, _, ok := calendar.ParseFecha(r.Fecha); ok && y == year && m == month {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) GetRecorrido(_ context.Context, id int64) (core.Recorrido, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recorridos[id]
	if !ok {
		return core.Recorrido{}, core.ErrNotFound
	}
	return cloneRecorrido(r), nil
}

func (s *Store) CreateRecorrido(_ context.Context, r core.Recorrido) (core.Recorrido, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRecorrido(r, 0); err != nil {
		return core.Recorrido{}, err
	}
	r.ID = s.assignID(0)
	r = s.denormalize(cloneRecorrido(r))
	s.recorridos[r.ID] = r
	return cloneRecorrido(r), nil
}

func (s *Store) UpdateRecorrido(_ context.Context, r core.Recorrido) (core.Recorrido, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recorridos[r.ID]; !ok {
		return core.Recorrido{}, core.ErrNotFound
	}
	if err := s.checkRecorrido(r, r.ID); err != nil {
		return core.Recorrido{}, err
	}
	r = s.denormalize(cloneRecorrido(r))
	s.recorridos[r.ID] = r
	return cloneRecorrido(r), nil
}

func (s *Store) DeleteRecorrido(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recorridos[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.recorridos, id)
	return nil
}

// checkRecorrido verifies references and that the vehicle is free at that
// fecha and hora_inicio.
func (s *Store) checkRecorrido(r core.Recorrido, self int64) error {
	fields := map[string]string{}
	if _, ok := s.vehiculos[r.VehiculoID]; !ok {
		fields["vehiculo_id"] = "no existe"
	}
	for i, n := range r.Ninos {
		if _, ok := s.ninos[n.ID]; !ok {
			fields[fmt.Sprintf("ninos[%d].id", i)] = "no existe"
		}
	}
	if len(fields) > 0 {
		return &core.ValidationError{Fields: fields}
	}
	for id, other := range s.recorridos {
		if id != self && other.VehiculoID == r.VehiculoID && other.Fecha == r.Fecha && other.HoraInicio == r.HoraInicio {
			return fmt.Errorf("vehiculo %d already has a recorrido on %s %s: %w", r.VehiculoID, r.Fecha, r.HoraInicio, core.ErrConflict)
		}
	}
	return nil
}

// denormalize fills the display names from the referenced entities.
func (s *Store) denormalize(r core.Recorrido) core.Recorrido {
	if v, ok := s.vehiculos[r.VehiculoID]; ok {
		r.VehiculoDescripcion = v.Descripcion
	}
	for i, rn := range r.Ninos {
		if n, ok := s.ninos[rn.ID]; ok {
			r.Ninos[i].Nombre = n.NombreCompleto()
		}
	}
	return r
}

func cloneRecorrido(r core.Recorrido) core.Recorrido {
	r.Ninos = slices.Clone(r.Ninos)
	if r.Ninos == nil {
		r.Ninos = []core.RecorridoNino{}
	}
	return r
}

func sortRecorridos(rs []core.Recorrido) {
	slices.SortFunc(rs, func(a, b core.Recorrido) int {
		if c := strings.Compare(a.Fecha, b.Fecha); c != 0 {
			return c
		}
		if c := strings.Compare(a.HoraInicio, b.HoraInicio); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
