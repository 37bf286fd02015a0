package http

import (
	"context"
	"errors"
	"net/http"

	"recorridos/internal/apiclient"
	"recorridos/internal/auth"
	"recorridos/internal/core"
	"recorridos/internal/log"
	"recorridos/internal/session"
)

// page is the data every full page template receives.
type page struct {
	Title   string
	Active  string
	Session *session.Session
	Data    any
}

// statusFor maps domain and transport errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, core.ErrInvalidInput), errors.Is(err, core.ErrInvalidAmount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apiclient.ErrUnauthorized), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// userMessage is the toast text for err.
func userMessage(err error) string {
	switch statusFor(err) {
	case http.StatusUnprocessableEntity:
		return "Datos inválidos"
	case http.StatusConflict:
		return "El registro entra en conflicto con otro existente"
	case http.StatusNotFound:
		return "Registro no encontrado"
	case http.StatusForbidden:
		return "No tiene permisos para esta acción"
	case http.StatusUnauthorized:
		return "Su sesión expiró, ingrese nuevamente"
	case http.StatusGatewayTimeout:
		return "El servidor de datos no respondió a tiempo"
	default:
		return "Error inesperado, intente nuevamente"
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// handleError answers a failed backend call. An unauthorized answer ends
// the session; everything else becomes an error fragment in #flash.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	status := statusFor(err)
	logger := log.FromContext(ctx)
	fields := []any{log.FieldOperation, op, log.FieldError, err, log.FieldStatusCode, status}

	if status == http.StatusUnauthorized {
		logger.WithComponent(log.ComponentAuth).WarnContext(ctx, "Backend rejected session token", fields...)
		s.sessions.Logout(w, r)
		s.redirectToLogin(w, r)
		return
	}
	if status >= 500 {
		logger.ErrorContext(ctx, "Backend operation failed", fields...)
	} else {
		logger.InfoContext(ctx, "Backend operation rejected", fields...)
	}

	ErrorResponse(status, userMessage(err)).
		Header("HX-Retarget", "#flash").
		Header("HX-Reswap", "innerHTML").
		Write(w)
}

// render writes a template with status, logging template failures.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	b := NewHTMXResponse().Status(status).Render(s.templates, name, data)
	if err := b.Err(); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldOperation, log.OpRender, "template", name, log.FieldError, err)
	}
	b.Write(w)
}

// renderPage wraps data in the layout fields and renders a full page.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, name, title, active string, data any) {
	s.render(w, r, http.StatusOK, name, page{
		Title:   title,
		Active:  active,
		Session: session.FromContext(r.Context()),
		Data:    data,
	})
}

// saved answers a successful write: a toast, a change event and an
// optional replacement fragment.
func (s *Server) saved(w http.ResponseWriter, r *http.Request, entity, message, name string, data any) {
	b := NewHTMXResponse().
		TriggerChanged(entity).
		TriggerSuccessNotification(message)
	if name != "" {
		b.Render(s.templates, name, data)
		if err := b.Err(); err != nil {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
				log.FieldOperation, log.OpRender, "template", name, log.FieldError, err)
		}
	}
	b.Write(w)
}

// fieldErrors extracts per field messages from a validation failure.
func fieldErrors(err error) (map[string]string, bool) {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields, true
	}
	return nil, false
}

// invalid re-renders a form with its field errors and a 422 status.
func (s *Server) invalid(w http.ResponseWriter, r *http.Request, name string, data any) {
	b := NewHTMXResponse().
		Status(http.StatusUnprocessableEntity).
		TriggerErrorNotification("Revise los campos marcados").
		Render(s.templates, name, data)
	if err := b.Err(); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldOperation, log.OpRender, "template", name, log.FieldError, err)
	}
	b.Write(w)
}
