package http

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"recorridos/internal/log"
)

// sizer is implemented by caches that can report their size and hit rate.
type sizer interface {
	Size() int
	Stats() (hits, misses uint64)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready once the backend answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := s.backend.Ping(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed",
			"backend", s.backend.Name(), log.FieldError, err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("backend unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder

	tm := s.tracer.GetMetrics()
	fmt.Fprintf(&b, "http_requests_total %d\n", tm.TotalRequests)
	fmt.Fprintf(&b, "http_server_errors_total %d\n", tm.ServerErrors)
	fmt.Fprintf(&b, "http_response_time_avg_ms %.3f\n", float64(tm.AverageResponseTime.Microseconds())/1000)

	sm := s.detector.GetMetrics()
	fmt.Fprintf(&b, "security_suspicious_requests_total %d\n", sm.SuspiciousRequests)
	fmt.Fprintf(&b, "security_blocked_requests_total %d\n", sm.BlockedRequests)

	rm := s.limiter.GetMetrics()
	fmt.Fprintf(&b, "ratelimit_rejected_total %d\n", rm.TotalHits)
	fmt.Fprintf(&b, "ratelimit_clients %d\n", rm.ClientCount)

	fmt.Fprintf(&b, "sessions_active %d\n", s.sessions.Len())

	caches := map[string]any{"calendar_memo": s.memo.Cache()}
	for name, c := range s.extraCaches {
		caches[name] = c
	}
	names := make([]string, 0, len(caches))
	for name := range caches {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c, ok := caches[name].(sizer)
		if !ok {
			continue
		}
		hits, misses := c.Stats()
		fmt.Fprintf(&b, "cache_entries{cache=%q} %d\n", name, c.Size())
		fmt.Fprintf(&b, "cache_hits_total{cache=%q} %d\n", name, hits)
		fmt.Fprintf(&b, "cache_misses_total{cache=%q} %d\n", name, misses)
	}

	fmt.Fprintf(&b, "backend_info{backend=%q} 1\n", s.backend.Name())

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(b.String()))
}
