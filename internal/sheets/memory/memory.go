package memory

import (
	"context"
	"sync"

	"recorridos/internal/amqp"
	"recorridos/internal/sheets"
)

// Log keeps event rows in memory. The worker falls back to it when no
// spreadsheet is configured.
type Log struct {
	mu   sync.Mutex
	rows [][]any
}

var _ sheets.EventLog = (*Log)(nil)

func New() *Log {
	return &Log{}
}

func (l *Log) AppendEvent(ctx context.Context, ev *amqp.RecorridoEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row := sheets.EventRow(ev)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, row)
	return nil
}

// Rows returns a copy of the appended rows, header excluded.
func (l *Log) Rows() [][]any {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]any, len(l.rows))
	copy(out, l.rows)
	return out
}
