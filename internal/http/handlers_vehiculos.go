package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"recorridos/internal/core"
	"recorridos/internal/log"
)

type vehiculoForm struct {
	Action   string
	Vehiculo core.Vehiculo
	Errors   map[string]string
}

type vehiculosView struct {
	List []core.Vehiculo
	Form vehiculoForm
}

func newVehiculoForm() vehiculoForm {
	return vehiculoForm{Action: "/vehiculos"}
}

// parseVehiculo reads the form. A capacidad that is not a number is
// reported as a field error.
func parseVehiculo(r *http.Request) (core.Vehiculo, map[string]string) {
	v := core.Vehiculo{
		Patente:     sanitizeInput(r.PostForm.Get("patente")),
		Descripcion: sanitizeInput(r.PostForm.Get("descripcion")),
		Conductor:   sanitizeInput(r.PostForm.Get("conductor")),
	}
	if c := strings.TrimSpace(r.PostForm.Get("capacidad")); c != "" {
		n, err := strconv.Atoi(c)
		if err != nil {
			return v, map[string]string{"capacidad": "debe ser un número entero"}
		}
		v.Capacidad = n
	}
	return v, nil
}

func (s *Server) handleVehiculos(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), fetchTimeout)
	defer cancel()
	list, err := s.backend.ListVehiculos(ctx)
	if err != nil {
		s.handleError(w, r, log.OpList, err)
		return
	}
	if r.URL.Query().Get("fragment") == "list" {
		s.render(w, r, http.StatusOK, "vehiculos_list", list)
		return
	}
	s.renderPage(w, r, "vehiculos.html", "Vehículos", "vehiculos", vehiculosView{List: list, Form: newVehiculoForm()})
}

func (s *Server) handleCreateVehiculo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		ErrorResponse(http.StatusBadRequest, "Formato de solicitud inválido").Write(w)
		return
	}
	v, fields := parseVehiculo(r)
	if fields != nil {
		s.invalid(w, r, "vehiculo_form", vehiculoForm{Action: "/vehiculos", Vehiculo: v, Errors: fields})
		return
	}
	saved, err := s.backend.CreateVehiculo(r.Context(), v)
	s.answerWrite(w, r, log.OpCreate, err, "vehiculo_form",
		func(fields map[string]string) any { return vehiculoForm{Action: "/vehiculos", Vehiculo: v, Errors: fields} },
		"vehiculos", "Vehículo registrado: "+saved.Patente, newVehiculoForm())
}

func (s *Server) handleEditVehiculo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, r, log.OpRead, err)
		return
	}
	v, err := s.backend.GetVehiculo(r.Context(), id)
	if err != nil {
		s.handleError(w, r, log.OpRead, err)
		return
	}
	s.render(w, r, http.StatusOK, "vehiculo_form", vehiculoForm{Action: "/vehiculos/" + strconv.FormatInt(id, 10), Vehiculo: v})
}

func (s *Server) handleUpdateVehiculo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, r, log.OpUpdate, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		ErrorResponse(http.StatusBadRequest, "Formato de solicitud inválido").Write(w)
		return
	}
	action := "/vehiculos/" + strconv.FormatInt(id, 10)
	v, fields := parseVehiculo(r)
	v.ID = id
	if fields != nil {
		s.invalid(w, r, "vehiculo_form", vehiculoForm{Action: action, Vehiculo: v, Errors: fields})
		return
	}
	saved, err := s.backend.UpdateVehiculo(r.Context(), v)
	s.answerWrite(w, r, log.OpUpdate, err, "vehiculo_form",
		func(fields map[string]string) any { return vehiculoForm{Action: action, Vehiculo: v, Errors: fields} },
		"vehiculos", "Vehículo actualizado: "+saved.Patente, newVehiculoForm())
}

func (s *Server) handleDeleteVehiculo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = s.backend.DeleteVehiculo(r.Context(), id)
	}
	if err != nil {
		s.handleError(w, r, log.OpDelete, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Vehículo deleted",
		log.NewFields().WithEntity("vehiculo", id).ToSlice()...)
	s.saved(w, r, "vehiculos", "Vehículo eliminado", "", nil)
}
