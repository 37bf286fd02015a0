package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"recorridos/internal/core"
	"recorridos/internal/storage"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestMigrateAndAddUser(t *testing.T) {
	db := filepath.Join(t.TempDir(), "admin.db")

	out, err := run(t, "--db", db, "migrate", "up")
	if err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	if !strings.Contains(out, "schema version 1") {
		t.Errorf("migrate up output = %q", out)
	}

	out, err = run(t, "--db", db, "adduser",
		"--nombre", "Admin", "--email", " Admin@Example.com ", "--password", "secreto123", "--admin")
	if err != nil {
		t.Fatalf("adduser: %v (%s)", err, out)
	}
	if !strings.Contains(out, "admin@example.com (admin)") {
		t.Errorf("adduser output = %q", out)
	}

	repo, err := storage.NewSQLiteRepository(db)
	if err != nil {
		t.Fatal(err)
	}
	defer repo.Close()
	u, err := repo.FindUsuarioByEmail(context.Background(), "admin@example.com")
	if err != nil {
		t.Fatalf("find usuario: %v", err)
	}
	if u.Rol != core.RolAdmin || !u.Activo {
		t.Errorf("usuario = %+v", u)
	}
	if err := u.CheckPassword("secreto123"); err != nil {
		t.Errorf("password not stored: %v", err)
	}
}

func TestAddUserValidation(t *testing.T) {
	db := filepath.Join(t.TempDir(), "admin.db")

	out, err := run(t, "--db", db, "adduser", "--nombre", "X", "--email", "no-es-correo", "--password", "corta")
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if !strings.Contains(out, "email:") || !strings.Contains(out, "password:") {
		t.Errorf("field errors not printed: %q", out)
	}
}

func TestMigrateDownSteps(t *testing.T) {
	db := filepath.Join(t.TempDir(), "admin.db")
	if _, err := run(t, "--db", db, "migrate", "up"); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "--db", db, "migrate", "down", "--steps", "0"); err == nil {
		t.Error("expected an error for --steps 0")
	}
	out, err := run(t, "--db", db, "migrate", "down")
	if err != nil {
		t.Fatalf("migrate down: %v", err)
	}
	if !strings.Contains(out, "schema version 0") {
		t.Errorf("migrate down output = %q", out)
	}
}

func TestCalendarFromSeed(t *testing.T) {
	out, err := run(t, "calendar", "--from-seed", "--seed", "../../internal/memory/testdata/seed.yaml",
		"--year", "2024", "--month", "3")
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	for _, want := range []string{"Marzo 2024", "Lun", "  5*", "Recorridos: 1", "Asientos: 2", "Costo total: 3500.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if _, err := run(t, "calendar", "--from-seed", "--seed", "../../internal/memory/testdata/seed.yaml", "--month", "13"); err == nil {
		t.Error("expected an error for month 13")
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "recorridos-admin dev") {
		t.Errorf("version output = %q", out)
	}
}
