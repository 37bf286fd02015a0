package memory

import (
	"context"
	"testing"

	"recorridos/internal/amqp"
	"recorridos/internal/core"
)

func TestLogAppendEvent(t *testing.T) {
	l := New()
	r := &core.Recorrido{ID: 3, Fecha: "2024-03-05", HoraInicio: "07:30", VehiculoID: 1}
	if err := l.AppendEvent(context.Background(), amqp.NewRecorridoEvent(amqp.RecorridoCreated, 3, r, "ana@example.com")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := l.AppendEvent(context.Background(), amqp.NewRecorridoEvent(amqp.RecorridoDeleted, 3, nil, "")); err != nil {
		t.Fatalf("append: %v", err)
	}

	rows := l.Rows()
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0][1] != "recorrido.created" || rows[1][1] != "recorrido.deleted" {
		t.Errorf("unexpected event columns: %v / %v", rows[0][1], rows[1][1])
	}
}

func TestLogAppendCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := New()
	if err := l.AppendEvent(ctx, amqp.NewRecorridoEvent(amqp.RecorridoDeleted, 1, nil, "")); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if len(l.Rows()) != 0 {
		t.Fatal("cancelled append must not store a row")
	}
}
