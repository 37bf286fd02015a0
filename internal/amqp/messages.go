package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"recorridos/internal/core"
)

// EventType doubles as the routing key.
type EventType string

const (
	RecorridoCreated EventType = "recorrido.created"
	RecorridoUpdated EventType = "recorrido.updated"
	RecorridoDeleted EventType = "recorrido.deleted"
)

func (t EventType) Valid() bool {
	switch t {
	case RecorridoCreated, RecorridoUpdated, RecorridoDeleted:
		return true
	}
	return false
}

// RecorridoEvent describes a change to a recorrido. It carries the full
// record so consumers never read the backend; Recorrido is nil on delete.
type RecorridoEvent struct {
	Type        EventType       `json:"type"`
	RecorridoID int64           `json:"recorrido_id"`
	Recorrido   *core.Recorrido `json:"recorrido,omitempty"`
	Actor       string          `json:"actor,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

func NewRecorridoEvent(t EventType, id int64, r *core.Recorrido, actor string) *RecorridoEvent {
	return &RecorridoEvent{
		Type:        t,
		RecorridoID: id,
		Recorrido:   r,
		Actor:       actor,
		OccurredAt:  time.Now().UTC(),
	}
}

func (e *RecorridoEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecorridoEventFromJSON decodes and checks an event body.
func RecorridoEventFromJSON(data []byte) (*RecorridoEvent, error) {
	var e RecorridoEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if !e.Type.Valid() {
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.Type != RecorridoDeleted && e.Recorrido == nil {
		return nil, fmt.Errorf("%s event without recorrido", e.Type)
	}
	return &e, nil
}
