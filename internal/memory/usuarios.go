package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"recorridos/internal/core"
)

func (s *Store) ListUsuarios(context.Context) ([]core.Usuario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := values(s.usuarios)
	for i := range out {
		out[i].PasswordHash = nil
	}
	slices.SortFunc(out, func(a, b core.Usuario) int { return strings.Compare(a.Email, b.Email) })
	return out, nil
}

func (s *Store) GetUsuario(_ context.Context, id int64) (core.Usuario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.usuarios[id]
	if !ok {
		return core.Usuario{}, core.ErrNotFound
	}
	u.PasswordHash = nil
	return u, nil
}

// FindUsuarioByEmail returns the usuario with its password hash.
func (s *Store) FindUsuarioByEmail(_ context.Context, email string) (core.Usuario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.usuarios {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return core.Usuario{}, core.ErrNotFound
}

func (s *Store) CreateUsuario(_ context.Context, in core.UsuarioInput) (core.Usuario, error) {
	var u core.Usuario
	if err := in.Apply(&u); err != nil {
		return core.Usuario{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTaken(u.Email, 0) {
		return core.Usuario{}, fmt.Errorf("email %s: %w", u.Email, core.ErrConflict)
	}
	u.ID = s.assignID(0)
	s.usuarios[u.ID] = u
	u.PasswordHash = nil
	return u, nil
}

func (s *Store) UpdateUsuario(_ context.Context, id int64, in core.UsuarioInput) (core.Usuario, error) {
	s.mu.Lock()
	u, ok := s.usuarios[id]
	s.mu.Unlock()
	if !ok {
		return core.Usuario{}, core.ErrNotFound
	}
	// hash outside the lock, bcrypt is slow
	if err := in.Apply(&u); err != nil {
		return core.Usuario{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.usuarios[id]; !ok {
		return core.Usuario{}, core.ErrNotFound
	}
	if s.emailTaken(u.Email, id) {
		return core.Usuario{}, fmt.Errorf("email %s: %w", u.Email, core.ErrConflict)
	}
	s.usuarios[id] = u
	u.PasswordHash = nil
	return u, nil
}

func (s *Store) DeleteUsuario(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.usuarios[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.usuarios, id)
	return nil
}

func (s *Store) emailTaken(email string, except int64) bool {
	for id, u := range s.usuarios {
		if id != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}
