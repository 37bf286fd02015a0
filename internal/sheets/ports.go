package sheets

import (
	"context"
	"strconv"
	"strings"
	"time"

	"recorridos/internal/amqp"
	"recorridos/internal/core"
)

// EventLog receives recorrido change events, one row each.
type EventLog interface {
	AppendEvent(ctx context.Context, ev *amqp.RecorridoEvent) error
}

// Header is the first row of the log sheet.
var Header = []any{"Registrado", "Evento", "ID", "Fecha", "Hora", "Vehículo", "Costo", "Niños", "Usuario"}

// EventRow flattens an event into the log sheet columns. Delete events
// only carry the id.
func EventRow(ev *amqp.RecorridoEvent) []any {
	row := []any{
		ev.OccurredAt.UTC().Format(time.RFC3339),
		string(ev.Type),
		ev.RecorridoID,
		"", "", "", "", "",
		ev.Actor,
	}
	if r := ev.Recorrido; r != nil {
		vehiculo := r.VehiculoDescripcion
		if vehiculo == "" {
			vehiculo = "#" + strconv.FormatInt(r.VehiculoID, 10)
		}
		row[3] = r.Fecha
		row[4] = r.HoraInicio
		row[5] = vehiculo
		row[6] = r.Costo.Pesos()
		row[7] = ninoNames(r.Ninos)
	}
	return row
}

func ninoNames(ninos []core.RecorridoNino) string {
	names := make([]string, 0, len(ninos))
	for _, n := range ninos {
		if n.Nombre != "" {
			names = append(names, n.Nombre)
			continue
		}
		names = append(names, "#"+strconv.FormatInt(n.ID, 10))
	}
	return strings.Join(names, ", ")
}
