// Package memory is an in-process store for development and tests. It can
// be seeded from a YAML file and applies the same local rules as the sqlite
// backend.
package memory

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"recorridos/internal/core"
)

type Store struct {
	mu         sync.Mutex
	ninos      map[int64]core.Nino
	vehiculos  map[int64]core.Vehiculo
	recorridos map[int64]core.Recorrido
	usuarios   map[int64]core.Usuario
	nextID     int64
}

func New() *Store {
	return &Store{
		ninos:      map[int64]core.Nino{},
		vehiculos:  map[int64]core.Vehiculo{},
		recorridos: map[int64]core.Recorrido{},
		usuarios:   map[int64]core.Usuario{},
	}
}

// Seed is the YAML layout accepted by NewFromFile.
type Seed struct {
	Usuarios []struct {
		Nombre   string   `yaml:"nombre"`
		Email    string   `yaml:"email"`
		Rol      core.Rol `yaml:"rol"`
		Activo   *bool    `yaml:"activo"`
		Password string   `yaml:"password"`
	} `yaml:"usuarios"`
	Ninos      []core.Nino      `yaml:"ninos"`
	Vehiculos  []core.Vehiculo  `yaml:"vehiculos"`
	Recorridos []core.Recorrido `yaml:"recorridos"`
}

// NewFromFile builds a store from a YAML seed. An empty path yields an
// empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(b, &seed); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	if err := s.Load(seed); err != nil {
		return nil, fmt.Errorf("load seed %s: %w", path, err)
	}
	return s, nil
}

// Load inserts seed data keeping explicit ids where given. Recorridos are
// loaded as-is so malformed fechas survive for the calendar to skip.
func (s *Store) Load(seed Seed) error {
	ctx := context.Background()
	for _, u := range seed.Usuarios {
		activo := true
		if u.Activo != nil {
			activo = *u.Activo
		}
		in := core.UsuarioInput{Nombre: u.Nombre, Email: u.Email, Rol: u.Rol, Activo: activo, Password: u.Password, PasswordConfirm: u.Password}
		if _, err := s.CreateUsuario(ctx, in); err != nil {
			return fmt.Errorf("usuario %s: %w", u.Email, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range seed.Ninos {
		n.ID = s.assignID(n.ID)
		s.ninos[n.ID] = n
	}
	for _, v := range seed.Vehiculos {
		v.ID = s.assignID(v.ID)
		s.vehiculos[v.ID] = v
	}
	for _, r := range seed.Recorridos {
		r.ID = s.assignID(r.ID)
		s.recorridos[r.ID] = s.denormalize(r)
	}
	return nil
}

func (s *Store) assignID(id int64) int64 {
	if id == 0 {
		s.nextID++
		return s.nextID
	}
	if id > s.nextID {
		s.nextID = id
	}
	return id
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) ListNinos(context.Context) ([]core.Nino, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := values(s.ninos)
	slices.SortFunc(out, func(a, b core.Nino) int {
		return strings.Compare(a.Apellido+" "+a.Nombre, b.Apellido+" "+b.Nombre)
	})
	return out, nil
}

func (s *Store) GetNino(_ context.Context, id int64) (core.Nino, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.ninos[id]
	if !ok {
		return core.Nino{}, core.ErrNotFound
	}
	return n, nil
}

func (s *Store) CreateNino(_ context.Context, n core.Nino) (core.Nino, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = s.assignID(0)
	s.ninos[n.ID] = n
	return n, nil
}

func (s *Store) UpdateNino(_ context.Context, n core.Nino) (core.Nino, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ninos[n.ID]; !ok {
		return core.Nino{}, core.ErrNotFound
	}
	s.ninos[n.ID] = n
	return n, nil
}

// DeleteNino also removes the child from every recorrido.
func (s *Store) DeleteNino(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ninos[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.ninos, id)
	for rid, r := range s.recorridos {
		r.Ninos = slices.DeleteFunc(slices.Clone(r.Ninos), func(rn core.RecorridoNino) bool { return rn.ID == id })
		s.recorridos[rid] = r
	}
	return nil
}

func (s *Store) ListVehiculos(context.Context) ([]core.Vehiculo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := values(s.vehiculos)
	slices.SortFunc(out, func(a, b core.Vehiculo) int { return strings.Compare(a.Patente, b.Patente) })
	return out, nil
}

func (s *Store) GetVehiculo(_ context.Context, id int64) (core.Vehiculo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehiculos[id]
	if !ok {
		return core.Vehiculo{}, core.ErrNotFound
	}
	return v, nil
}

func (s *Store) CreateVehiculo(_ context.Context, v core.Vehiculo) (core.Vehiculo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.patenteTaken(v.Patente, 0) {
		return core.Vehiculo{}, fmt.Errorf("patente %s: %w", v.Patente, core.ErrConflict)
	}
	v.ID = s.assignID(0)
	s.vehiculos[v.ID] = v
	return v, nil
}

func (s *Store) UpdateVehiculo(_ context.Context, v core.Vehiculo) (core.Vehiculo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vehiculos[v.ID]; !ok {
		return core.Vehiculo{}, core.ErrNotFound
	}
	if s.patenteTaken(v.Patente, v.ID) {
		return core.Vehiculo{}, fmt.Errorf("patente %s: %w", v.Patente, core.ErrConflict)
	}
	s.vehiculos[v.ID] = v
	for id, r := range s.recorridos {
		if r.VehiculoID == v.ID {
			s.recorridos[id] = s.denormalize(r)
		}
	}
	return v, nil
}

// DeleteVehiculo refuses to remove a vehicle still assigned to a recorrido.
func (s *Store) DeleteVehiculo(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vehiculos[id]; !ok {
		return core.ErrNotFound
	}
	for _, r := range s.recorridos {
		if r.VehiculoID == id {
			return fmt.Errorf("vehiculo %d in use: %w", id, core.ErrConflict)
		}
	}
	delete(s.vehiculos, id)
	return nil
}

func (s *Store) patenteTaken(patente string, except int64) bool {
	for id, v := range s.vehiculos {
		if id != except && strings.EqualFold(v.Patente, patente) {
			return true
		}
	}
	return false
}

func values[T any](m map[int64]T) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
