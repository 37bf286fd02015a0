package calendar

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"time"

	"recorridos/internal/cache"
	"recorridos/internal/core"
)

// Memo caches Aggregate results keyed on year, month and a fingerprint of
// the source list. A change to any record's fecha or payload yields a new key.
type Memo struct {
	lru *cache.LRUCache[Buckets]
}

func NewMemo(size int, ttl time.Duration) *Memo {
	return &Memo{lru: cache.NewLRUCache[Buckets](size, ttl)}
}

// Aggregate returns the cached buckets for the inputs or computes them.
// Callers must not modify the returned map.
func (m *Memo) Aggregate(records []core.Recorrido, month, year int) Buckets {
	key := fmt.Sprintf("%04d-%02d:%016x", year, month, fingerprint(records))
	if b, ok := m.lru.Get(key); ok {
		return b
	}
	b := Aggregate(records, month, year)
	m.lru.Set(key, b)
	return b
}

// Cache exposes the underlying LRU for registration with a cache.Manager.
func (m *Memo) Cache() *cache.LRUCache[Buckets] { return m.lru }

func fingerprint(records []core.Recorrido) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	write := func(n int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(n))
		h.Write(buf[:])
	}
	write(int64(len(records)))
	for _, r := range records {
		write(r.ID)
		h.Write([]byte(r.Fecha))
		h.Write([]byte{0})
		h.Write([]byte(r.HoraInicio))
		h.Write([]byte{0})
		h.Write([]byte(r.VehiculoDescripcion))
		h.Write([]byte{0})
		write(r.VehiculoID)
		write(r.Costo.Cents)
		write(int64(len(r.Ninos)))
		for _, n := range r.Ninos {
			write(n.ID)
			h.Write([]byte(n.Nombre))
			h.Write([]byte{0})
			h.Write([]byte(n.Notas))
			h.Write([]byte{0})
		}
	}
	return h.Sum64()
}
