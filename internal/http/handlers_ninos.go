package http

import (
	"context"
	"net/http"
	"strconv"

	"recorridos/internal/core"
	"recorridos/internal/log"
)

type ninoForm struct {
	Action string
	Nino   core.Nino
	Errors map[string]string
}

type ninosView struct {
	List []core.Nino
	Form ninoForm
}

func newNinoForm() ninoForm {
	return ninoForm{Action: "/ninos"}
}

func parseNino(r *http.Request) core.Nino {
	return core.Nino{
		Nombre:           sanitizeInput(r.PostForm.Get("nombre")),
		Apellido:         sanitizeInput(r.PostForm.Get("apellido")),
		Curso:            sanitizeInput(r.PostForm.Get("curso")),
		Direccion:        sanitizeInput(r.PostForm.Get("direccion")),
		TelefonoContacto: sanitizeInput(r.PostForm.Get("telefono_contacto")),
		Observaciones:    sanitizeInput(r.PostForm.Get("observaciones")),
	}
}

func (s *Server) handleNinos(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), fetchTimeout)
	defer cancel()
	list, err := s.backend.ListNinos(ctx)
	if err != nil {
		s.handleError(w, r, log.OpList, err)
		return
	}
	if r.URL.Query().Get("fragment") == "list" {
		s.render(w, r, http.StatusOK, "ninos_list", list)
		return
	}
	s.renderPage(w, r, "ninos.html", "Niños", "ninos", ninosView{List: list, Form: newNinoForm()})
}

func (s *Server) handleCreateNino(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		ErrorResponse(http.StatusBadRequest, "Formato de solicitud inválido").Write(w)
		return
	}
	n := parseNino(r)
	saved, err := s.backend.CreateNino(r.Context(), n)
	s.answerWrite(w, r, log.OpCreate, err, "nino_form",
		func(fields map[string]string) any { return ninoForm{Action: "/ninos", Nino: n, Errors: fields} },
		"ninos", "Niño registrado: "+saved.NombreCompleto(), newNinoForm())
}

func (s *Server) handleEditNino(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, r, log.OpRead, err)
		return
	}
	n, err := s.backend.GetNino(r.Context(), id)
	if err != nil {
		s.handleError(w, r, log.OpRead, err)
		return
	}
	s.render(w, r, http.StatusOK, "nino_form", ninoForm{Action: "/ninos/" + strconv.FormatInt(id, 10), Nino: n})
}

func (s *Server) handleUpdateNino(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, r, log.OpUpdate, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		ErrorResponse(http.StatusBadRequest, "Formato de solicitud inválido").Write(w)
		return
	}
	n := parseNino(r)
	n.ID = id
	saved, err := s.backend.UpdateNino(r.Context(), n)
	s.answerWrite(w, r, log.OpUpdate, err, "nino_form",
		func(fields map[string]string) any {
			return ninoForm{Action: "/ninos/" + strconv.FormatInt(id, 10), Nino: n, Errors: fields}
		},
		"ninos", "Niño actualizado: "+saved.NombreCompleto(), newNinoForm())
}

func (s *Server) handleDeleteNino(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = s.backend.DeleteNino(r.Context(), id)
	}
	if err != nil {
		s.handleError(w, r, log.OpDelete, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Niño deleted",
		log.NewFields().WithEntity("nino", id).ToSlice()...)
	s.saved(w, r, "ninos", "Niño eliminado", "", nil)
}

// answerWrite finishes a create or update: the form again with its field
// errors when input was invalid, an error fragment on other failures, and a
// fresh form plus change events on success.
func (s *Server) answerWrite(w http.ResponseWriter, r *http.Request, op string, err error, form string, withErrors func(map[string]string) any, entity, message string, next any) {
	if err == nil {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Entity saved",
			log.FieldOperation, op,
			log.FieldEntity, entity)
		s.saved(w, r, entity, message, form, next)
		return
	}
	if fields, ok := fieldErrors(err); ok {
		s.invalid(w, r, form, withErrors(fields))
		return
	}
	s.handleError(w, r, op, err)
}
