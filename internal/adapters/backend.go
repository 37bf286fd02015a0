// Package adapters composes a store, the recorrido service and an
// authenticator into the single object the web layer talks to.
package adapters

import (
	"context"
	"errors"

	"recorridos/internal/core"
	"recorridos/internal/ports"
	"recorridos/internal/services"
)

// Pinger reports whether the data source is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Backend normalizes and validates entity input before it reaches the
// store. Recorrido writes go through the RecorridoService.
type Backend struct {
	store      ports.Store
	recorridos *services.RecorridoService
	auth       ports.Authenticator
	verifier   ports.TokenVerifier
	pinger     Pinger
	name       string
}

type Option func(*Backend)

// WithVerifier checks session tokens locally on every request. Without one
// tokens are trusted until the remote API rejects them.
func WithVerifier(v ports.TokenVerifier) Option {
	return func(b *Backend) { b.verifier = v }
}

func WithPinger(p Pinger) Option {
	return func(b *Backend) { b.pinger = p }
}

func NewBackend(name string, store ports.Store, recorridos *services.RecorridoService, auth ports.Authenticator, opts ...Option) *Backend {
	b := &Backend{
		store:      store,
		recorridos: recorridos,
		auth:       auth,
		name:       name,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name is the backend kind: api, sqlite or memory.
func (b *Backend) Name() string { return b.name }

// Recorridos exposes the service for cache registration.
func (b *Backend) Recorridos() *services.RecorridoService { return b.recorridos }

func (b *Backend) Login(ctx context.Context, email, password string) (ports.Credentials, error) {
	if b.auth == nil {
		return ports.Credentials{}, errors.New("no authenticator configured")
	}
	return b.auth.Login(ctx, email, password)
}

// Verify checks token with the local verifier, if any.
func (b *Backend) Verify(token string) error {
	if b.verifier == nil {
		return nil
	}
	return b.verifier.Verify(token)
}

func (b *Backend) Ping(ctx context.Context) error {
	if b.pinger == nil {
		return nil
	}
	return b.pinger.Ping(ctx)
}

func (b *Backend) ListNinos(ctx context.Context) ([]core.Nino, error) {
	return b.store.ListNinos(ctx)
}

func (b *Backend) GetNino(ctx context.Context, id int64) (core.Nino, error) {
	return b.store.GetNino(ctx, id)
}

func (b *Backend) CreateNino(ctx context.Context, n core.Nino) (core.Nino, error) {
	n.Normalize()
	if err := n.Validate(); err != nil {
		return core.Nino{}, err
	}
	return b.store.CreateNino(ctx, n)
}

func (b *Backend) UpdateNino(ctx context.Context, n core.Nino) (core.Nino, error) {
	n.Normalize()
	if err := n.Validate(); err != nil {
		return core.Nino{}, err
	}
	saved, err := b.store.UpdateNino(ctx, n)
	if err == nil {
		// Recorridos carry the child's name.
		b.recorridos.Invalidate()
	}
	return saved, err
}

func (b *Backend) DeleteNino(ctx context.Context, id int64) error {
	if err := b.store.DeleteNino(ctx, id); err != nil {
		return err
	}
	b.recorridos.Invalidate()
	return nil
}

func (b *Backend) ListVehiculos(ctx context.Context) ([]core.Vehiculo, error) {
	return b.store.ListVehiculos(ctx)
}

func (b *Backend) GetVehiculo(ctx context.Context, id int64) (core.Vehiculo, error) {
	return b.store.GetVehiculo(ctx, id)
}

func (b *Backend) CreateVehiculo(ctx context.Context, v core.Vehiculo) (core.Vehiculo, error) {
	v.Normalize()
	if err := v.Validate(); err != nil {
		return core.Vehiculo{}, err
	}
	return b.store.CreateVehiculo(ctx, v)
}

func (b *Backend) UpdateVehiculo(ctx context.Context, v core.Vehiculo) (core.Vehiculo, error) {
	v.Normalize()
	if err := v.Validate(); err != nil {
		return core.Vehiculo{}, err
	}
	saved, err := b.store.UpdateVehiculo(ctx, v)
	if err == nil {
		b.recorridos.Invalidate()
	}
	return saved, err
}

func (b *Backend) DeleteVehiculo(ctx context.Context, id int64) error {
	return b.store.DeleteVehiculo(ctx, id)
}

func (b *Backend) ListRecorridos(ctx context.Context) ([]core.Recorrido, error) {
	return b.recorridos.ListRecorridos(ctx)
}

func (b *Backend) ListRecorridosByMonth(ctx context.Context, year, month int) ([]core.Recorrido, error) {
	return b.recorridos.ListRecorridosByMonth(ctx, year, month)
}

func (b *Backend) GetRecorrido(ctx context.Context, id int64) (core.Recorrido, error) {
	return b.recorridos.GetRecorrido(ctx, id)
}

func (b *Backend) CreateRecorrido(ctx context.Context, r core.Recorrido) (core.Recorrido, error) {
	return b.recorridos.CreateRecorrido(ctx, r)
}

func (b *Backend) UpdateRecorrido(ctx context.Context, r core.Recorrido) (core.Recorrido, error) {
	return b.recorridos.UpdateRecorrido(ctx, r)
}

func (b *Backend) DeleteRecorrido(ctx context.Context, id int64) error {
	return b.recorridos.DeleteRecorrido(ctx, id)
}

func (b *Backend) ListUsuarios(ctx context.Context) ([]core.Usuario, error) {
	return b.store.ListUsuarios(ctx)
}

func (b *Backend) GetUsuario(ctx context.Context, id int64) (core.Usuario, error) {
	return b.store.GetUsuario(ctx, id)
}

func (b *Backend) CreateUsuario(ctx context.Context, in core.UsuarioInput) (core.Usuario, error) {
	in.Normalize()
	if err := in.Validate(true); err != nil {
		return core.Usuario{}, err
	}
	return b.store.CreateUsuario(ctx, in)
}

func (b *Backend) UpdateUsuario(ctx context.Context, id int64, in core.UsuarioInput) (core.Usuario, error) {
	in.Normalize()
	if err := in.Validate(false); err != nil {
		return core.Usuario{}, err
	}
	return b.store.UpdateUsuario(ctx, id, in)
}

func (b *Backend) DeleteUsuario(ctx context.Context, id int64) error {
	return b.store.DeleteUsuario(ctx, id)
}
