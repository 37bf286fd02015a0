package http

import (
	"context"
	"errors"
	"net/http"

	"recorridos/internal/apiclient"
	"recorridos/internal/auth"
	"recorridos/internal/log"
	"recorridos/internal/services"
	"recorridos/internal/session"
)

type loginForm struct {
	Email string
	Error string
}

// requireAuth loads the session, checks its token and puts the session,
// the bearer token and the acting usuario in the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.sessions.Get(r)
		if !ok || !sess.Authenticated() {
			s.redirectToLogin(w, r)
			return
		}
		if err := s.backend.Verify(sess.Token); err != nil {
			log.FromContext(r.Context()).WithComponent(log.ComponentAuth).InfoContext(r.Context(), "Session token rejected",
				log.FieldUserEmail, sess.Usuario.Email,
				log.FieldError, err)
			s.sessions.Logout(w, r)
			s.redirectToLogin(w, r)
			return
		}

		ctx := session.NewContext(r.Context(), sess)
		ctx = apiclient.WithToken(ctx, sess.Token)
		ctx = services.WithActor(ctx, sess.Usuario.Email)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUserEmail, sess.Usuario.Email))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin must run inside requireAuth.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !session.FromContext(r.Context()).IsAdmin() {
			log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).WarnContext(r.Context(), "Admin route denied",
				log.FieldPath, r.URL.Path)
			ErrorResponse(http.StatusForbidden, "No tiene permisos para esta sección").Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// redirectToLogin sends htmx requests an HX-Redirect with 401 and plain
// requests a 303.
func (s *Server) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		NewHTMXResponse().Status(http.StatusUnauthorized).Redirect("/login").Write(w)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.sessions.Get(r); ok && sess.Authenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", page{Title: "Ingresar", Data: loginForm{}})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, r, http.StatusBadRequest, "login.html", page{Title: "Ingresar", Data: loginForm{Error: "Formato de solicitud inválido"}})
		return
	}
	form := loginForm{Email: sanitizeInput(r.PostForm.Get("email"))}
	password := r.PostForm.Get("password")
	if form.Email == "" || password == "" {
		form.Error = "Ingrese correo y contraseña"
		s.render(w, r, http.StatusUnprocessableEntity, "login.html", page{Title: "Ingresar", Data: form})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), fetchTimeout)
	defer cancel()
	logger := log.FromContext(ctx).WithComponent(log.ComponentAuth)

	creds, err := s.backend.Login(ctx, form.Email, password)
	if err != nil {
		status := http.StatusUnauthorized
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, apiclient.ErrUnauthorized):
			form.Error = "Correo o contraseña incorrectos"
		case errors.Is(err, auth.ErrAccountDisabled):
			form.Error = "La cuenta está deshabilitada"
		default:
			status = http.StatusBadGateway
			form.Error = "No se pudo iniciar sesión, intente más tarde"
		}
		logger.WarnContext(ctx, "Login failed",
			log.FieldOperation, log.OpLogin,
			log.FieldUserEmail, form.Email,
			log.FieldError, err)
		s.render(w, r, status, "login.html", page{Title: "Ingresar", Data: form})
		return
	}

	sess := s.sessions.Login(w, creds)
	logger.InfoContext(ctx, "Login succeeded",
		log.FieldOperation, log.OpLogin,
		log.FieldUserEmail, sess.Usuario.Email,
		"admin", sess.IsAdmin())

	if isHTMX(r) {
		NewHTMXResponse().Redirect("/").Write(w)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	s.sessions.Logout(w, r)
	log.FromContext(r.Context()).WithComponent(log.ComponentAuth).InfoContext(r.Context(), "Logout",
		log.FieldOperation, log.OpLogout,
		log.FieldUserEmail, sess.Usuario.Email)

	if isHTMX(r) {
		NewHTMXResponse().Redirect("/login").Write(w)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
