package core

import (
	"errors"
	"strings"
)

const (
	RolAdmin   Rol = "admin"
	RolUsuario Rol = "usuario"
)

type (
	Rol string

	// Nino is a child that can be assigned to recorridos.
	Nino struct {
		ID               int64  `json:"id" yaml:"id"`
		Nombre           string `json:"nombre" yaml:"nombre" validate:"required,max=80"`
		Apellido         string `json:"apellido" yaml:"apellido" validate:"required,max=80"`
		Curso            string `json:"curso,omitempty" yaml:"curso" validate:"max=40"`
		Direccion        string `json:"direccion,omitempty" yaml:"direccion" validate:"max=200"`
		TelefonoContacto string `json:"telefono_contacto,omitempty" yaml:"telefono_contacto" validate:"max=40"`
		Observaciones    string `json:"observaciones,omitempty" yaml:"observaciones" validate:"max=500"`
	}

	Vehiculo struct {
		ID          int64  `json:"id" yaml:"id"`
		Patente     string `json:"patente" yaml:"patente" validate:"required,max=12"`
		Descripcion string `json:"descripcion" yaml:"descripcion" validate:"required,max=120"`
		Capacidad   int    `json:"capacidad" yaml:"capacidad" validate:"gte=0,lte=100"`
		Conductor   string `json:"conductor,omitempty" yaml:"conductor" validate:"max=120"`
	}

	// RecorridoNino is a child riding a recorrido, with optional notes for that run.
	RecorridoNino struct {
		ID     int64  `json:"id" yaml:"id" validate:"gt=0"`
		Nombre string `json:"nombre,omitempty" yaml:"nombre"`
		Notas  string `json:"notas,omitempty" yaml:"notas" validate:"max=200"`
	}

	// Recorrido is a scheduled transport run. Fecha is kept as the raw
	// YYYY-MM-DD string returned by the data source.
	Recorrido struct {
		ID                  int64           `json:"id" yaml:"id"`
		Fecha               string          `json:"fecha" yaml:"fecha" validate:"required,datetime=2006-01-02"`
		HoraInicio          string          `json:"hora_inicio" yaml:"hora_inicio" validate:"required,datetime=15:04"`
		VehiculoID          int64           `json:"vehiculo_id" yaml:"vehiculo_id" validate:"gt=0"`
		VehiculoDescripcion string          `json:"vehiculo_descripcion,omitempty" yaml:"vehiculo_descripcion"`
		Costo               Money           `json:"costo" yaml:"costo"`
		Ninos               []RecorridoNino `json:"ninos" yaml:"ninos" validate:"dive"`
	}

	Usuario struct {
		ID           int64  `json:"id" yaml:"id"`
		Nombre       string `json:"nombre" yaml:"nombre"`
		Email        string `json:"email" yaml:"email"`
		Rol          Rol    `json:"rol" yaml:"rol"`
		Activo       bool   `json:"activo" yaml:"activo"`
		PasswordHash []byte `json:"-" yaml:"-"`
	}

	// UsuarioInput carries the editable fields of a Usuario. Password is
	// optional on update; an empty value keeps the current one.
	UsuarioInput struct {
		Nombre          string `json:"nombre" validate:"required,max=100"`
		Email           string `json:"email" validate:"required,email"`
		Rol             Rol    `json:"rol" validate:"required,oneof=admin usuario"`
		Activo          bool   `json:"activo"`
		Password        string `json:"password,omitempty" validate:"omitempty,min=8"`
		PasswordConfirm string `json:"password_confirm,omitempty" validate:"eqfield=Password"`
	}
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrInvalidInput  = errors.New("invalid input")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidAmount = errors.New("invalid amount")
)

func (n Nino) NombreCompleto() string {
	return strings.TrimSpace(n.Nombre + " " + n.Apellido)
}

func (n *Nino) Normalize() {
	n.Nombre = CleanString(n.Nombre)
	n.Apellido = CleanString(n.Apellido)
	n.Curso = CleanString(n.Curso)
	n.Direccion = CleanString(n.Direccion)
	n.TelefonoContacto = CleanString(n.TelefonoContacto)
	n.Observaciones = strings.TrimSpace(n.Observaciones)
}

func (n Nino) Validate() error {
	return validateStruct(n)
}

func (v *Vehiculo) Normalize() {
	v.Patente = strings.ToUpper(strings.ReplaceAll(CleanString(v.Patente), " ", ""))
	v.Descripcion = CleanString(v.Descripcion)
	v.Conductor = CleanString(v.Conductor)
}

func (v Vehiculo) Validate() error {
	return validateStruct(v)
}

func (r *Recorrido) Normalize() {
	r.Fecha = strings.TrimSpace(r.Fecha)
	r.HoraInicio = strings.TrimSpace(r.HoraInicio)
	for i := range r.Ninos {
		r.Ninos[i].Notas = strings.TrimSpace(r.Ninos[i].Notas)
	}
}

func (r Recorrido) Validate() error {
	fields := fieldErrors(validateStruct(r))
	if r.Costo.Cents < 0 {
		fields["costo"] = "no puede ser negativo"
	}
	if hasDuplicateNinos(r.Ninos) {
		fields["ninos"] = "contiene niños repetidos"
	}
	return newValidationError(fields)
}

// NinoIDs returns the ids of the children riding the recorrido, in order.
func (r Recorrido) NinoIDs() []int64 {
	ids := make([]int64, len(r.Ninos))
	for i, n := range r.Ninos {
		ids[i] = n.ID
	}
	return ids
}

func hasDuplicateNinos(ninos []RecorridoNino) bool {
	seen := make(map[int64]struct{}, len(ninos))
	for _, n := range ninos {
		if _, ok := seen[n.ID]; ok {
			return true
		}
		seen[n.ID] = struct{}{}
	}
	return false
}

func (u Usuario) IsAdmin() bool {
	return u.Rol == RolAdmin
}

func (in *UsuarioInput) Normalize() {
	in.Nombre = CleanString(in.Nombre)
	in.Email = CleanString(in.Email, true)
	in.Rol = Rol(CleanString(string(in.Rol), true))
}

// Validate checks the input; requirePassword is set when creating a usuario.
func (in UsuarioInput) Validate(requirePassword bool) error {
	fields := fieldErrors(validateStruct(in))
	if requirePassword && in.Password == "" {
		fields["password"] = "es obligatorio"
	}
	return newValidationError(fields)
}

// Apply copies the input onto u, hashing the password when one was given.
func (in UsuarioInput) Apply(u *Usuario) error {
	u.Nombre = in.Nombre
	u.Email = in.Email
	u.Rol = in.Rol
	u.Activo = in.Activo
	if in.Password != "" {
		return u.SetPassword(in.Password)
	}
	return nil
}

// CleanString trims and collapses inner whitespace; lower folds to lower case.
func CleanString(s string, lower ...bool) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(lower) > 0 && lower[0] {
		s = strings.ToLower(s)
	}
	return s
}
