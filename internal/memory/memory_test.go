package memory

import (
	"context"
	"errors"
	"testing"

	"recorridos/internal/core"
)

func seeded(t *testing.T) *Store {
	t.Helper()
	s, err := NewFromFile("testdata/seed.yaml")
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewFromFile(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	ninos, _ := s.ListNinos(ctx)
	if len(ninos) != 2 || ninos[0].Apellido != "Pérez" {
		t.Fatalf("unexpected ninos: %+v", ninos)
	}

	r, err := s.GetRecorrido(ctx, 100)
	if err != nil {
		t.Fatal(err)
	}
	if r.VehiculoDescripcion != "Furgón blanco" || r.Costo.Cents != 350000 {
		t.Fatalf("recorrido not denormalized: %+v", r)
	}
	if r.Ninos[0].Nombre != "Ana Pérez" || r.Ninos[1].Notas != "Baja en la esquina" {
		t.Fatalf("ninos not filled: %+v", r.Ninos)
	}

	u, err := s.FindUsuarioByEmail(ctx, "ADMIN@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if !u.IsAdmin() || !u.Activo || u.CheckPassword("admin12345") != nil {
		t.Fatalf("seed usuario wrong: %+v", u)
	}
	op, _ := s.FindUsuarioByEmail(ctx, "operador@example.com")
	if op.Activo {
		t.Fatal("activo: false not honoured")
	}

	// new ids never collide with seeded ones
	n, _ := s.CreateNino(ctx, core.Nino{Nombre: "Sofía", Apellido: "Díaz"})
	if n.ID <= 101 {
		t.Fatalf("new id %d collides with seed ids", n.ID)
	}
}

func TestListRecorridosByMonthSkipsMalformed(t *testing.T) {
	s := seeded(t)
	rs, err := s.ListRecorridosByMonth(context.Background(), 2024, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(rs) != 1 || rs[0].ID != 100 {
		t.Fatalf("unexpected recorridos: %+v", rs)
	}
	all, _ := s.ListRecorridos(context.Background())
	if len(all) != 2 {
		t.Fatalf("ListRecorridos should keep malformed records, got %d", len(all))
	}
}

func TestRecorridoRules(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	clash := core.Recorrido{Fecha: "2024-03-05", HoraInicio: "07:30", VehiculoID: 10}
	if _, err := s.CreateRecorrido(ctx, clash); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	clash.HoraInicio = "16:00"
	created, err := s.CreateRecorrido(ctx, clash)
	if err != nil {
		t.Fatal(err)
	}
	// updating a recorrido onto its own slot is not a conflict
	if _, err := s.UpdateRecorrido(ctx, created); err != nil {
		t.Fatalf("self update conflicted: %v", err)
	}

	bad := core.Recorrido{Fecha: "2024-03-06", HoraInicio: "07:30", VehiculoID: 99, Ninos: []core.RecorridoNino{{ID: 77}}}
	_, err = s.CreateRecorrido(ctx, bad)
	var verr *core.ValidationError
	if !errors.As(err, &verr) || verr.Fields["vehiculo_id"] == "" || verr.Fields["ninos[0].id"] == "" {
		t.Fatalf("expected reference errors, got %v", err)
	}

	if err := s.DeleteVehiculo(ctx, 10); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("vehiculo in use deleted: %v", err)
	}
	if err := s.DeleteRecorrido(ctx, 12345); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteNinoDetachesFromRecorridos(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	if err := s.DeleteNino(ctx, 1); err != nil {
		t.Fatal(err)
	}
	r, _ := s.GetRecorrido(ctx, 100)
	if len(r.Ninos) != 1 || r.Ninos[0].ID != 2 {
		t.Fatalf("nino 1 still attached: %+v", r.Ninos)
	}
}

func TestUsuarios(t *testing.T) {
	s := New()
	ctx := context.Background()
	in := core.UsuarioInput{Nombre: "Ana", Email: "ana@example.com", Rol: core.RolUsuario, Activo: true, Password: "clave1234"}

	u, err := s.CreateUsuario(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	if u.PasswordHash != nil {
		t.Fatal("hash leaked from CreateUsuario")
	}
	if _, err := s.CreateUsuario(ctx, in); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("duplicate email: %v", err)
	}

	in.Password = ""
	in.Nombre = "Ana María"
	if _, err := s.UpdateUsuario(ctx, u.ID, in); err != nil {
		t.Fatal(err)
	}
	stored, _ := s.FindUsuarioByEmail(ctx, "ana@example.com")
	if stored.Nombre != "Ana María" || stored.CheckPassword("clave1234") != nil {
		t.Fatalf("update lost fields or password: %+v", stored)
	}
	list, _ := s.ListUsuarios(ctx)
	if len(list) != 1 || list[0].PasswordHash != nil {
		t.Fatalf("unexpected list: %+v", list)
	}
}
