package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"recorridos/internal/amqp"
	"recorridos/internal/core"
	"recorridos/internal/memory"
)

type fakePublisher struct {
	events []*amqp.RecorridoEvent
	err    error
	closed bool
}

func (f *fakePublisher) Publish(_ context.Context, ev *amqp.RecorridoEvent) error {
	f.events = append(f.events, ev)
	return f.err
}

func (f *fakePublisher) Close() error { f.closed = true; return nil }

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.New()
	err := s.Load(memory.Seed{
		Ninos:     []core.Nino{{ID: 1, Nombre: "Ana", Apellido: "Pérez"}},
		Vehiculos: []core.Vehiculo{{ID: 2, Patente: "ABCD12", Descripcion: "Furgón"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRecorridoServicePublishesEvents(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewRecorridoService(newStore(t), pub, time.Minute)
	ctx := WithActor(context.Background(), "ana@example.com")

	r, err := svc.CreateRecorrido(ctx, core.Recorrido{Fecha: " 2024-03-05 ", HoraInicio: "07:30", VehiculoID: 2, Ninos: []core.RecorridoNino{{ID: 1}}})
	if err != nil {
		t.Fatal(err)
	}
	if r.Fecha != "2024-03-05" {
		t.Fatalf("fecha not normalized: %q", r.Fecha)
	}
	r.HoraInicio = "08:00"
	if _, err := svc.UpdateRecorrido(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteRecorrido(ctx, r.ID); err != nil {
		t.Fatal(err)
	}

	want := []amqp.EventType{amqp.RecorridoCreated, amqp.RecorridoUpdated, amqp.RecorridoDeleted}
	if len(pub.events) != len(want) {
		t.Fatalf("got %d events", len(pub.events))
	}
	for i, ev := range pub.events {
		if ev.Type != want[i] || ev.RecorridoID != r.ID || ev.Actor != "ana@example.com" {
			t.Fatalf("event %d = %+v", i, ev)
		}
	}
	if pub.events[0].Recorrido == nil || pub.events[2].Recorrido != nil {
		t.Fatal("payload presence wrong")
	}
}

func TestRecorridoServiceValidatesBeforeSaving(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewRecorridoService(newStore(t), pub, 0)
	_, err := svc.CreateRecorrido(context.Background(), core.Recorrido{Fecha: "mañana", HoraInicio: "07:30", VehiculoID: 2})
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatal("no event expected for rejected input")
	}
}

func TestRecorridoServicePublishFailureIsNotFatal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewRecorridoService(newStore(t), pub, 0)
	if _, err := svc.CreateRecorrido(context.Background(), core.Recorrido{Fecha: "2024-03-05", HoraInicio: "07:30", VehiculoID: 2}); err != nil {
		t.Fatalf("publish failure should not fail the write: %v", err)
	}
	if err := svc.Close(); err != nil || !pub.closed {
		t.Fatal("Close should close the publisher")
	}
}

func TestRecorridoServiceMonthCache(t *testing.T) {
	svc := NewRecorridoService(newStore(t), nil, time.Minute)
	ctx := context.Background()

	rs, _ := svc.ListRecorridosByMonth(ctx, 2024, 3)
	if len(rs) != 0 {
		t.Fatalf("expected empty month, got %d", len(rs))
	}
	if _, err := svc.CreateRecorrido(ctx, core.Recorrido{Fecha: "2024-03-05", HoraInicio: "07:30", VehiculoID: 2}); err != nil {
		t.Fatal(err)
	}
	rs, _ = svc.ListRecorridosByMonth(ctx, 2024, 3)
	if len(rs) != 1 {
		t.Fatalf("cache not invalidated on write, got %d", len(rs))
	}
	if svc.MonthCache().Size() != 1 {
		t.Fatalf("expected one cached month")
	}
}
