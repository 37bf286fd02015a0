package storage

import (
	"context"
	"database/sql"

	"recorridos/internal/core"
)

const ninoColumns = `id, nombre, apellido, curso, direccion, telefono_contacto, observaciones`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNino(s rowScanner) (core.Nino, error) {
	var n core.Nino
	err := s.Scan(&n.ID, &n.Nombre, &n.Apellido, &n.Curso, &n.Direccion, &n.TelefonoContacto, &n.Observaciones)
	return n, err
}

func (r *SQLiteRepository) ListNinos(ctx context.Context) ([]core.Nino, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+ninoColumns+` FROM ninos ORDER BY apellido, nombre`)
	if err != nil {
		return nil, mapErr("list ninos", err)
	}
	defer rows.Close()

	var out []core.Nino
	for rows.Next() {
		n, err := scanNino(rows)
		if err != nil {
			return nil, mapErr("scan nino", err)
		}
		out = append(out, n)
	}
	return out, mapErr("list ninos", rows.Err())
}

func (r *SQLiteRepository) GetNino(ctx context.Context, id int64) (core.Nino, error) {
	n, err := scanNino(r.db.QueryRowContext(ctx, `SELECT `+ninoColumns+` FROM ninos WHERE id = ?`, id))
	if err != nil {
		return core.Nino{}, mapErr("get nino", err)
	}
	return n, nil
}

func (r *SQLiteRepository) CreateNino(ctx context.Context, n core.Nino) (core.Nino, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO ninos (nombre, apellido, curso, direccion, telefono_contacto, observaciones) VALUES (?, ?, ?, ?, ?, ?)`,
		n.Nombre, n.Apellido, n.Curso, n.Direccion, n.TelefonoContacto, n.Observaciones)
	if err != nil {
		return core.Nino{}, mapErr("create nino", err)
	}
	if n.ID, err = res.LastInsertId(); err != nil {
		return core.Nino{}, mapErr("create nino", err)
	}
	return n, nil
}

func (r *SQLiteRepository) UpdateNino(ctx context.Context, n core.Nino) (core.Nino, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE ninos SET nombre = ?, apellido = ?, curso = ?, direccion = ?, telefono_contacto = ?, observaciones = ? WHERE id = ?`,
		n.Nombre, n.Apellido, n.Curso, n.Direccion, n.TelefonoContacto, n.Observaciones, n.ID)
	if err != nil {
		return core.Nino{}, mapErr("update nino", err)
	}
	if err := checkAffected(res); err != nil {
		return core.Nino{}, err
	}
	return n, nil
}

// DeleteNino cascades to recorrido_ninos.
func (r *SQLiteRepository) DeleteNino(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ninos WHERE id = ?`, id)
	if err != nil {
		return mapErr("delete nino", err)
	}
	return checkAffected(res)
}

func ninoExists(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM ninos WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}
