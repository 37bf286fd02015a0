// Package services holds the recorrido write path: validation, storage,
// month cache invalidation and change events.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"recorridos/internal/amqp"
	"recorridos/internal/cache"
	"recorridos/internal/core"
	"recorridos/internal/ports"
)

// Publisher sends recorrido change events.
type Publisher interface {
	Publish(ctx context.Context, ev *amqp.RecorridoEvent) error
	Close() error
}

type actorKey struct{}

// WithActor records who is acting, for event attribution.
func WithActor(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, actorKey{}, email)
}

func actorFrom(ctx context.Context) string {
	a, _ := ctx.Value(actorKey{}).(string)
	return a
}

// RecorridoService saves recorridos through a store and then publishes an
// event. A publish failure is logged and never fails the write.
type RecorridoService struct {
	store     ports.RecorridoStore
	publisher Publisher
	months    *cache.LRUCache[[]core.Recorrido]
	logger    *slog.Logger
}

func NewRecorridoService(store ports.RecorridoStore, publisher Publisher, cacheTTL time.Duration) *RecorridoService {
	s := &RecorridoService{
		store:     store,
		publisher: publisher,
		logger:    slog.Default().With("component", "recorrido"),
	}
	if cacheTTL > 0 {
		s.months = cache.NewLRUCache[[]core.Recorrido](24, cacheTTL)
	}
	return s
}

// MonthCache exposes the month cache for cleanup registration; nil when
// caching is disabled.
func (s *RecorridoService) MonthCache() *cache.LRUCache[[]core.Recorrido] { return s.months }

func (s *RecorridoService) ListRecorridos(ctx context.Context) ([]core.Recorrido, error) {
	return s.store.ListRecorridos(ctx)
}

// ListRecorridosByMonth serves from the month cache when possible.
func (s *RecorridoService) ListRecorridosByMonth(ctx context.Context, year, month int) ([]core.Recorrido, error) {
	key := fmt.Sprintf("%04d-%02d", year, month)
	if s.months != nil {
		if rs, ok := s.months.Get(key); ok {
			return rs, nil
		}
	}
	rs, err := s.store.ListRecorridosByMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}
	if s.months != nil {
		s.months.Set(key, rs)
	}
	return rs, nil
}

func (s *RecorridoService) GetRecorrido(ctx context.Context, id int64) (core.Recorrido, error) {
	return s.store.GetRecorrido(ctx, id)
}

func (s *RecorridoService) CreateRecorrido(ctx context.Context, r core.Recorrido) (core.Recorrido, error) {
	r.Normalize()
	if err := r.Validate(); err != nil {
		return core.Recorrido{}, err
	}
	saved, err := s.store.CreateRecorrido(ctx, r)
	if err != nil {
		return core.Recorrido{}, fmt.Errorf("save recorrido: %w", err)
	}
	s.Invalidate()
	s.publish(ctx, amqp.RecorridoCreated, saved.ID, &saved)
	return saved, nil
}

func (s *RecorridoService) UpdateRecorrido(ctx context.Context, r core.Recorrido) (core.Recorrido, error) {
	r.Normalize()
	if err := r.Validate(); err != nil {
		return core.Recorrido{}, err
	}
	saved, err := s.store.UpdateRecorrido(ctx, r)
	if err != nil {
		return core.Recorrido{}, fmt.Errorf("update recorrido: %w", err)
	}
	s.Invalidate()
	s.publish(ctx, amqp.RecorridoUpdated, saved.ID, &saved)
	return saved, nil
}

func (s *RecorridoService) DeleteRecorrido(ctx context.Context, id int64) error {
	if err := s.store.DeleteRecorrido(ctx, id); err != nil {
		return fmt.Errorf("delete recorrido: %w", err)
	}
	s.Invalidate()
	s.publish(ctx, amqp.RecorridoDeleted, id, nil)
	return nil
}

// Invalidate drops every cached month. Writes to other entities shown in
// recorridos call it too.
func (s *RecorridoService) Invalidate() {
	if s.months != nil {
		s.months.Purge()
	}
}

func (s *RecorridoService) publish(ctx context.Context, t amqp.EventType, id int64, r *core.Recorrido) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No event publisher, skipping event", "type", t, "recorrido_id", id)
		return
	}
	if err := s.publisher.Publish(ctx, amqp.NewRecorridoEvent(t, id, r, actorFrom(ctx))); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish recorrido event", "type", t, "recorrido_id", id, "error", err)
	}
}

// Close closes the publisher.
func (s *RecorridoService) Close() error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Close(); err != nil {
		return fmt.Errorf("close publisher: %w", err)
	}
	return nil
}
