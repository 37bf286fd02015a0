package storage

import (
	"context"
	"database/sql"
	"fmt"

	"recorridos/internal/core"
)

const vehiculoColumns = `id, patente, descripcion, capacidad, conductor`

func scanVehiculo(s rowScanner) (core.Vehiculo, error) {
	var v core.Vehiculo
	err := s.Scan(&v.ID, &v.Patente, &v.Descripcion, &v.Capacidad, &v.Conductor)
	return v, err
}

func (r *SQLiteRepository) ListVehiculos(ctx context.Context) ([]core.Vehiculo, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+vehiculoColumns+` FROM vehiculos ORDER BY patente`)
	if err != nil {
		return nil, mapErr("list vehiculos", err)
	}
	defer rows.Close()

	var out []core.Vehiculo
	for rows.Next() {
		v, err := scanVehiculo(rows)
		if err != nil {
			return nil, mapErr("scan vehiculo", err)
		}
		out = append(out, v)
	}
	return out, mapErr("list vehiculos", rows.Err())
}

func (r *SQLiteRepository) GetVehiculo(ctx context.Context, id int64) (core.Vehiculo, error) {
	v, err := scanVehiculo(r.db.QueryRowContext(ctx, `SELECT `+vehiculoColumns+` FROM vehiculos WHERE id = ?`, id))
	if err != nil {
		return core.Vehiculo{}, mapErr("get vehiculo", err)
	}
	return v, nil
}

func (r *SQLiteRepository) CreateVehiculo(ctx context.Context, v core.Vehiculo) (core.Vehiculo, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO vehiculos (patente, descripcion, capacidad, conductor) VALUES (?, ?, ?, ?)`,
		v.Patente, v.Descripcion, v.Capacidad, v.Conductor)
	if err != nil {
		return core.Vehiculo{}, mapErr("create vehiculo", err)
	}
	if v.ID, err = res.LastInsertId(); err != nil {
		return core.Vehiculo{}, mapErr("create vehiculo", err)
	}
	return v, nil
}

func (r *SQLiteRepository) UpdateVehiculo(ctx context.Context, v core.Vehiculo) (core.Vehiculo, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE vehiculos SET patente = ?, descripcion = ?, capacidad = ?, conductor = ? WHERE id = ?`,
		v.Patente, v.Descripcion, v.Capacidad, v.Conductor, v.ID)
	if err != nil {
		return core.Vehiculo{}, mapErr("update vehiculo", err)
	}
	if err := checkAffected(res); err != nil {
		return core.Vehiculo{}, err
	}
	return v, nil
}

// DeleteVehiculo fails with core.ErrConflict while recorridos reference it.
func (r *SQLiteRepository) DeleteVehiculo(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var refs int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM recorridos WHERE vehiculo_id = ?`, id).Scan(&refs); err != nil {
			return fmt.Errorf("count vehiculo references: %w", err)
		}
		if refs > 0 {
			return fmt.Errorf("delete vehiculo: used by %d recorridos: %w", refs, core.ErrConflict)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM vehiculos WHERE id = ?`, id)
		if err != nil {
			return mapErr("delete vehiculo", err)
		}
		return checkAffected(res)
	})
}

func vehiculoExists(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM vehiculos WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}
