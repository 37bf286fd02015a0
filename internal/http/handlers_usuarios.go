package http

import (
	"context"
	"net/http"
	"strconv"

	"recorridos/internal/core"
	"recorridos/internal/log"
	"recorridos/internal/session"
)

type usuarioForm struct {
	Action  string
	Editing bool
	Usuario core.UsuarioInput
	Errors  map[string]string
}

type usuariosView struct {
	List []core.Usuario
	Self int64
	Form usuarioForm
}

type usuariosList struct {
	List []core.Usuario
	Self int64
}

func newUsuarioForm() usuarioForm {
	return usuarioForm{Action: "/usuarios", Usuario: core.UsuarioInput{Rol: core.RolUsuario, Activo: true}}
}

// parseUsuario reads the form; passwords are taken verbatim.
func parseUsuario(r *http.Request) core.UsuarioInput {
	return core.UsuarioInput{
		Nombre:          sanitizeInput(r.PostForm.Get("nombre")),
		Email:           sanitizeInput(r.PostForm.Get("email")),
		Rol:             core.Rol(sanitizeInput(r.PostForm.Get("rol"))),
		Activo:          r.PostForm.Get("activo") != "",
		Password:        r.PostForm.Get("password"),
		PasswordConfirm: r.PostForm.Get("password_confirm"),
	}
}

// redacted drops the passwords before the input is echoed back in a form.
func redacted(in core.UsuarioInput) core.UsuarioInput {
	in.Password, in.PasswordConfirm = "", ""
	return in
}

func (s *Server) handleUsuarios(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), fetchTimeout)
	defer cancel()
	list, err := s.backend.ListUsuarios(ctx)
	if err != nil {
		s.handleError(w, r, log.OpList, err)
		return
	}
	self := session.FromContext(r.Context()).Usuario.ID
	if r.URL.Query().Get("fragment") == "list" {
		s.render(w, r, http.StatusOK, "usuarios_list", usuariosList{List: list, Self: self})
		return
	}
	s.renderPage(w, r, "usuarios.html", "Usuarios", "usuarios", usuariosView{List: list, Self: self, Form: newUsuarioForm()})
}

func (s *Server) handleCreateUsuario(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		ErrorResponse(http.StatusBadRequest, "Formato de solicitud inválido").Write(w)
		return
	}
	in := parseUsuario(r)
	saved, err := s.backend.CreateUsuario(r.Context(), in)
	s.answerWrite(w, r, log.OpCreate, err, "usuario_form",
		func(fields map[string]string) any {
			return usuarioForm{Action: "/usuarios", Usuario: redacted(in), Errors: fields}
		},
		"usuarios", "Usuario creado: "+saved.Email, newUsuarioForm())
}

func (s *Server) handleEditUsuario(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, r, log.OpRead, err)
		return
	}
	u, err := s.backend.GetUsuario(r.Context(), id)
	if err != nil {
		s.handleError(w, r, log.OpRead, err)
		return
	}
	s.render(w, r, http.StatusOK, "usuario_form", usuarioForm{
		Action:  "/usuarios/" + strconv.FormatInt(id, 10),
		Editing: true,
		Usuario: core.UsuarioInput{Nombre: u.Nombre, Email: u.Email, Rol: u.Rol, Activo: u.Activo},
	})
}

func (s *Server) handleUpdateUsuario(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, r, log.OpUpdate, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		ErrorResponse(http.StatusBadRequest, "Formato de solicitud inválido").Write(w)
		return
	}
	in := parseUsuario(r)
	sess := session.FromContext(r.Context())
	if id == sess.Usuario.ID && (in.Rol != core.RolAdmin || !in.Activo) {
		ErrorResponse(http.StatusConflict, "No puede quitarse el rol de administrador ni desactivar su propia cuenta").
			Header("HX-Retarget", "#flash").
			Header("HX-Reswap", "innerHTML").
			Write(w)
		return
	}
	saved, err := s.backend.UpdateUsuario(r.Context(), id, in)
	s.answerWrite(w, r, log.OpUpdate, err, "usuario_form",
		func(fields map[string]string) any {
			return usuarioForm{Action: "/usuarios/" + strconv.FormatInt(id, 10), Editing: true, Usuario: redacted(in), Errors: fields}
		},
		"usuarios", "Usuario actualizado: "+saved.Email, newUsuarioForm())
}

func (s *Server) handleDeleteUsuario(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, r, log.OpDelete, err)
		return
	}
	if id == session.FromContext(r.Context()).Usuario.ID {
		ErrorResponse(http.StatusConflict, "No puede eliminar su propia cuenta").
			Header("HX-Retarget", "#flash").
			Header("HX-Reswap", "innerHTML").
			Write(w)
		return
	}
	if err := s.backend.DeleteUsuario(r.Context(), id); err != nil {
		s.handleError(w, r, log.OpDelete, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Usuario deleted",
		log.NewFields().WithEntity("usuario", id).ToSlice()...)
	s.saved(w, r, "usuarios", "Usuario eliminado", "", nil)
}
