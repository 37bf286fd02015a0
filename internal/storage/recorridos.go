package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"recorridos/internal/core"
)

const recorridoSelect = `
SELECT r.id, r.fecha, r.hora_inicio, r.vehiculo_id, COALESCE(v.descripcion, ''), r.costo_cents
FROM recorridos r
LEFT JOIN vehiculos v ON v.id = r.vehiculo_id`

func (r *SQLiteRepository) ListRecorridos(ctx context.Context) ([]core.Recorrido, error) {
	return r.queryRecorridos(ctx, recorridoSelect+` ORDER BY r.fecha, r.hora_inicio, r.id`)
}

// ListRecorridosByMonth relies on fechas being stored as validated
// YYYY-MM-DD strings.
func (r *SQLiteRepository) ListRecorridosByMonth(ctx context.Context, year, month int) ([]core.Recorrido, error) {
	prefix := fmt.Sprintf("%04d-%02d-", year, month)
	return r.queryRecorridos(ctx, recorridoSelect+` WHERE r.fecha LIKE ? ORDER BY r.fecha, r.hora_inicio, r.id`, prefix+"%")
}

func (r *SQLiteRepository) GetRecorrido(ctx context.Context, id int64) (core.Recorrido, error) {
	rs, err := r.queryRecorridos(ctx, recorridoSelect+` WHERE r.id = ?`, id)
	if err != nil {
		return core.Recorrido{}, err
	}
	if len(rs) == 0 {
		return core.Recorrido{}, core.ErrNotFound
	}
	return rs[0], nil
}

func (r *SQLiteRepository) queryRecorridos(ctx context.Context, query string, args ...any) ([]core.Recorrido, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr("list recorridos", err)
	}
	defer rows.Close()

	out := []core.Recorrido{}
	index := map[int64]int{}
	for rows.Next() {
		var rec core.Recorrido
		if err := rows.Scan(&rec.ID, &rec.Fecha, &rec.HoraInicio, &rec.VehiculoID, &rec.VehiculoDescripcion, &rec.Costo.Cents); err != nil {
			return nil, mapErr("scan recorrido", err)
		}
		rec.Ninos = []core.RecorridoNino{}
		index[rec.ID] = len(out)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list recorridos", err)
	}
	if len(out) == 0 {
		return out, nil
	}
	if err := r.attachNinos(ctx, out, index); err != nil {
		return nil, err
	}
	return out, nil
}

// attachNinos loads the children of every recorrido in one query.
func (r *SQLiteRepository) attachNinos(ctx context.Context, rs []core.Recorrido, index map[int64]int) error {
	ids := make([]any, len(rs))
	for i, rec := range rs {
		ids[i] = rec.ID
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	rows, err := r.db.QueryContext(ctx, `
SELECT rn.recorrido_id, rn.nino_id, n.nombre || ' ' || n.apellido, rn.notas
FROM recorrido_ninos rn
JOIN ninos n ON n.id = rn.nino_id
WHERE rn.recorrido_id IN (`+placeholders+`)
ORDER BY rn.recorrido_id, rn.posicion`, ids...)
	if err != nil {
		return mapErr("list recorrido ninos", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rid int64
		var rn core.RecorridoNino
		if err := rows.Scan(&rid, &rn.ID, &rn.Nombre, &rn.Notas); err != nil {
			return mapErr("scan recorrido nino", err)
		}
		i := index[rid]
		rs[i].Ninos = append(rs[i].Ninos, rn)
	}
	return mapErr("list recorrido ninos", rows.Err())
}

func (r *SQLiteRepository) CreateRecorrido(ctx context.Context, rec core.Recorrido) (core.Recorrido, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkRecorrido(ctx, tx, rec, 0); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO recorridos (fecha, hora_inicio, vehiculo_id, costo_cents) VALUES (?, ?, ?, ?)`,
			rec.Fecha, rec.HoraInicio, rec.VehiculoID, rec.Costo.Cents)
		if err != nil {
			return mapErr("create recorrido", err)
		}
		if rec.ID, err = res.LastInsertId(); err != nil {
			return mapErr("create recorrido", err)
		}
		return insertNinos(ctx, tx, rec)
	})
	if err != nil {
		return core.Recorrido{}, err
	}
	r.logger.InfoContext(ctx, "Recorrido saved to SQLite", "id", rec.ID, "fecha", rec.Fecha, "vehiculo_id", rec.VehiculoID)
	return r.GetRecorrido(ctx, rec.ID)
}

func (r *SQLiteRepository) UpdateRecorrido(ctx context.Context, rec core.Recorrido) (core.Recorrido, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkRecorrido(ctx, tx, rec, rec.ID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE recorridos SET fecha = ?, hora_inicio = ?, vehiculo_id = ?, costo_cents = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			rec.Fecha, rec.HoraInicio, rec.VehiculoID, rec.Costo.Cents, rec.ID)
		if err != nil {
			return mapErr("update recorrido", err)
		}
		if err := checkAffected(res); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM recorrido_ninos WHERE recorrido_id = ?`, rec.ID); err != nil {
			return mapErr("update recorrido", err)
		}
		return insertNinos(ctx, tx, rec)
	})
	if err != nil {
		return core.Recorrido{}, err
	}
	return r.GetRecorrido(ctx, rec.ID)
}

func (r *SQLiteRepository) DeleteRecorrido(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recorridos WHERE id = ?`, id)
	if err != nil {
		return mapErr("delete recorrido", err)
	}
	return checkAffected(res)
}

func insertNinos(ctx context.Context, tx *sql.Tx, rec core.Recorrido) error {
	for i, n := range rec.Ninos {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recorrido_ninos (recorrido_id, nino_id, posicion, notas) VALUES (?, ?, ?, ?)`,
			rec.ID, n.ID, i, n.Notas); err != nil {
			return mapErr("insert recorrido nino", err)
		}
	}
	return nil
}

// checkRecorrido verifies references exist and the vehicle is free at
// fecha/hora_inicio. self is excluded from the slot check.
func checkRecorrido(ctx context.Context, tx *sql.Tx, rec core.Recorrido, self int64) error {
	fields := map[string]string{}
	ok, err := vehiculoExists(ctx, tx, rec.VehiculoID)
	if err != nil {
		return mapErr("check vehiculo", err)
	}
	if !ok {
		fields["vehiculo_id"] = "no existe"
	}
	for i, n := range rec.Ninos {
		ok, err := ninoExists(ctx, tx, n.ID)
		if err != nil {
			return mapErr("check nino", err)
		}
		if !ok {
			fields[fmt.Sprintf("ninos[%d].id", i)] = "no existe"
		}
	}
	if len(fields) > 0 {
		return &core.ValidationError{Fields: fields}
	}

	var clash int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM recorridos WHERE vehiculo_id = ? AND fecha = ? AND hora_inicio = ? AND id <> ? LIMIT 1`,
		rec.VehiculoID, rec.Fecha, rec.HoraInicio, self).Scan(&clash)
	switch {
	case err == sql.ErrNoRows:
		return nil
	case err != nil:
		return mapErr("check vehiculo slot", err)
	}
	return fmt.Errorf("vehiculo %d already has recorrido %d on %s %s: %w", rec.VehiculoID, clash, rec.Fecha, rec.HoraInicio, core.ErrConflict)
}
