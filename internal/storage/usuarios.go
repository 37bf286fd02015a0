package storage

import (
	"context"

	"recorridos/internal/core"
)

const usuarioColumns = `id, nombre, email, rol, activo, password_hash`

func scanUsuario(s rowScanner) (core.Usuario, error) {
	var u core.Usuario
	var rol string
	err := s.Scan(&u.ID, &u.Nombre, &u.Email, &rol, &u.Activo, &u.PasswordHash)
	u.Rol = core.Rol(rol)
	return u, err
}

func (r *SQLiteRepository) ListUsuarios(ctx context.Context) ([]core.Usuario, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+usuarioColumns+` FROM usuarios ORDER BY email`)
	if err != nil {
		return nil, mapErr("list usuarios", err)
	}
	defer rows.Close()

	var out []core.Usuario
	for rows.Next() {
		u, err := scanUsuario(rows)
		if err != nil {
			return nil, mapErr("scan usuario", err)
		}
		u.PasswordHash = nil
		out = append(out, u)
	}
	return out, mapErr("list usuarios", rows.Err())
}

func (r *SQLiteRepository) GetUsuario(ctx context.Context, id int64) (core.Usuario, error) {
	u, err := scanUsuario(r.db.QueryRowContext(ctx, `SELECT `+usuarioColumns+` FROM usuarios WHERE id = ?`, id))
	if err != nil {
		return core.Usuario{}, mapErr("get usuario", err)
	}
	u.PasswordHash = nil
	return u, nil
}

// FindUsuarioByEmail returns the usuario including its password hash.
func (r *SQLiteRepository) FindUsuarioByEmail(ctx context.Context, email string) (core.Usuario, error) {
	u, err := scanUsuario(r.db.QueryRowContext(ctx, `SELECT `+usuarioColumns+` FROM usuarios WHERE email = ?`, email))
	if err != nil {
		return core.Usuario{}, mapErr("find usuario", err)
	}
	return u, nil
}

func (r *SQLiteRepository) CreateUsuario(ctx context.Context, in core.UsuarioInput) (core.Usuario, error) {
	var u core.Usuario
	if err := in.Apply(&u); err != nil {
		return core.Usuario{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO usuarios (nombre, email, rol, activo, password_hash) VALUES (?, ?, ?, ?, ?)`,
		u.Nombre, u.Email, string(u.Rol), u.Activo, u.PasswordHash)
	if err != nil {
		return core.Usuario{}, mapErr("create usuario", err)
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return core.Usuario{}, mapErr("create usuario", err)
	}
	u.PasswordHash = nil
	return u, nil
}

// UpdateUsuario keeps the stored password when in.Password is empty.
func (r *SQLiteRepository) UpdateUsuario(ctx context.Context, id int64, in core.UsuarioInput) (core.Usuario, error) {
	u, err := scanUsuario(r.db.QueryRowContext(ctx, `SELECT `+usuarioColumns+` FROM usuarios WHERE id = ?`, id))
	if err != nil {
		return core.Usuario{}, mapErr("get usuario", err)
	}
	if err := in.Apply(&u); err != nil {
		return core.Usuario{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE usuarios SET nombre = ?, email = ?, rol = ?, activo = ?, password_hash = ? WHERE id = ?`,
		u.Nombre, u.Email, string(u.Rol), u.Activo, u.PasswordHash, id)
	if err != nil {
		return core.Usuario{}, mapErr("update usuario", err)
	}
	if err := checkAffected(res); err != nil {
		return core.Usuario{}, err
	}
	u.PasswordHash = nil
	return u, nil
}

func (r *SQLiteRepository) DeleteUsuario(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM usuarios WHERE id = ?`, id)
	if err != nil {
		return mapErr("delete usuario", err)
	}
	return checkAffected(res)
}
