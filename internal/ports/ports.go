// Package ports declares the storage and authentication interfaces the web
// layer depends on. Each backend (remote API, sqlite, memory) implements them.
package ports

import (
	"context"
	"time"

	"recorridos/internal/core"
)

type (
	NinoStore interface {
		ListNinos(ctx context.Context) ([]core.Nino, error)
		GetNino(ctx context.Context, id int64) (core.Nino, error)
		CreateNino(ctx context.Context, n core.Nino) (core.Nino, error)
		UpdateNino(ctx context.Context, n core.Nino) (core.Nino, error)
		DeleteNino(ctx context.Context, id int64) error
	}

	VehiculoStore interface {
		ListVehiculos(ctx context.Context) ([]core.Vehiculo, error)
		GetVehiculo(ctx context.Context, id int64) (core.Vehiculo, error)
		CreateVehiculo(ctx context.Context, v core.Vehiculo) (core.Vehiculo, error)
		UpdateVehiculo(ctx context.Context, v core.Vehiculo) (core.Vehiculo, error)
		DeleteVehiculo(ctx context.Context, id int64) error
	}

	RecorridoStore interface {
		ListRecorridos(ctx context.Context) ([]core.Recorrido, error)
		// ListRecorridosByMonth returns the recorridos the source files under
		// year/month. Callers still aggregate locally; a source may return
		// extra or malformed records.
		ListRecorridosByMonth(ctx context.Context, year, month int) ([]core.Recorrido, error)
		GetRecorrido(ctx context.Context, id int64) (core.Recorrido, error)
		CreateRecorrido(ctx context.Context, r core.Recorrido) (core.Recorrido, error)
		UpdateRecorrido(ctx context.Context, r core.Recorrido) (core.Recorrido, error)
		DeleteRecorrido(ctx context.Context, id int64) error
	}

	UsuarioStore interface {
		ListUsuarios(ctx context.Context) ([]core.Usuario, error)
		GetUsuario(ctx context.Context, id int64) (core.Usuario, error)
		CreateUsuario(ctx context.Context, in core.UsuarioInput) (core.Usuario, error)
		UpdateUsuario(ctx context.Context, id int64, in core.UsuarioInput) (core.Usuario, error)
		DeleteUsuario(ctx context.Context, id int64) error
	}

	// UsuarioFinder is implemented by local stores that can look a usuario up
	// by email, password hash included.
	UsuarioFinder interface {
		FindUsuarioByEmail(ctx context.Context, email string) (core.Usuario, error)
	}

	Authenticator interface {
		Login(ctx context.Context, email, password string) (Credentials, error)
	}

	// TokenVerifier checks a bearer token issued by an Authenticator.
	TokenVerifier interface {
		Verify(token string) error
	}

	// Store bundles every entity store.
	Store interface {
		NinoStore
		VehiculoStore
		RecorridoStore
		UsuarioStore
	}
)

// Credentials is the outcome of a successful login.
type Credentials struct {
	Token     string
	Usuario   core.Usuario
	ExpiresAt time.Time
}

