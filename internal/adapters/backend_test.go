package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"recorridos/internal/auth"
	"recorridos/internal/core"
	"recorridos/internal/memory"
	"recorridos/internal/services"
)

func newBackend(t *testing.T) (*Backend, *memory.Store) {
	t.Helper()
	store, err := memory.NewFromFile("../memory/testdata/seed.yaml")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := services.NewRecorridoService(store, nil, time.Minute)
	local := auth.NewLocal(store, "0123456789abcdef0123", time.Hour)
	return NewBackend("memory", store, svc, local, WithVerifier(local), WithPinger(store)), store
}

func TestCreateNinoNormalizesAndValidates(t *testing.T) {
	b, _ := newBackend(t)
	ctx := context.Background()

	n, err := b.CreateNino(ctx, core.Nino{Nombre: "  Sofía  ", Apellido: "Muñoz   Soto"})
	if err != nil {
		t.Fatalf("CreateNino: %v", err)
	}
	if n.Nombre != "Sofía" || n.Apellido != "Muñoz Soto" || n.ID == 0 {
		t.Errorf("unexpected nino %+v", n)
	}

	_, err = b.CreateNino(ctx, core.Nino{Nombre: "   "})
	var verr *core.ValidationError
	if !errors.As(err, &verr) || !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := verr.Fields["apellido"]; !ok {
		t.Errorf("missing apellido field error: %v", verr.Fields)
	}
}

func TestVehiculoPatenteNormalized(t *testing.T) {
	b, _ := newBackend(t)
	v, err := b.CreateVehiculo(context.Background(), core.Vehiculo{Patente: "xy zw 34", Descripcion: "Van", Capacidad: 8})
	if err != nil {
		t.Fatalf("CreateVehiculo: %v", err)
	}
	if v.Patente != "XYZW34" {
		t.Errorf("patente = %q", v.Patente)
	}
	_, err = b.CreateVehiculo(context.Background(), core.Vehiculo{Patente: "abcd12", Descripcion: "Otro"})
	if !errors.Is(err, core.ErrConflict) {
		t.Fatalf("duplicate patente: got %v, want conflict", err)
	}
}

func TestCreateUsuarioRequiresPassword(t *testing.T) {
	b, _ := newBackend(t)
	ctx := context.Background()
	in := core.UsuarioInput{Nombre: "Carla", Email: "CARLA@example.com", Rol: core.RolUsuario, Activo: true}

	if _, err := b.CreateUsuario(ctx, in); !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("expected invalid input without password, got %v", err)
	}

	in.Password, in.PasswordConfirm = "secreto123", "secreto123"
	u, err := b.CreateUsuario(ctx, in)
	if err != nil {
		t.Fatalf("CreateUsuario: %v", err)
	}
	if u.Email != "carla@example.com" {
		t.Errorf("email = %q", u.Email)
	}

	// Password may be omitted on update.
	in.Password, in.PasswordConfirm = "", ""
	in.Nombre = "Carla R."
	if _, err := b.UpdateUsuario(ctx, u.ID, in); err != nil {
		t.Fatalf("UpdateUsuario: %v", err)
	}
	creds, err := b.Login(ctx, "carla@example.com", "secreto123")
	if err != nil {
		t.Fatalf("Login after update: %v", err)
	}
	if err := b.Verify(creds.Token); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if err := b.Verify("garbage"); err == nil {
		t.Fatal("Verify accepted a bad token")
	}
}

func TestNinoWritesInvalidateMonthCache(t *testing.T) {
	b, _ := newBackend(t)
	ctx := context.Background()

	rs, err := b.ListRecorridosByMonth(ctx, 2024, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rs) != 1 {
		t.Fatalf("recorridos = %d, want 1", len(rs))
	}

	if err := b.DeleteNino(ctx, 2); err != nil {
		t.Fatalf("DeleteNino: %v", err)
	}
	rs, err = b.ListRecorridosByMonth(ctx, 2024, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := len(rs[0].Ninos); got != 1 {
		t.Fatalf("stale cache: recorrido still has %d ninos", got)
	}
}

func TestVerifyWithoutVerifier(t *testing.T) {
	b := NewBackend("api", nil, nil, nil)
	if err := b.Verify("anything"); err != nil {
		t.Fatalf("Verify = %v", err)
	}
	if err := b.Ping(context.Background()); err != nil {
		t.Fatalf("Ping = %v", err)
	}
	if _, err := b.Login(context.Background(), "a", "b"); err == nil {
		t.Fatal("Login without authenticator must fail")
	}
}
