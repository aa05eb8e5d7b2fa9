// Package events carries pipeline happenings to the status SSE endpoint.
package events

import (
	"encoding/json"
	"time"
)

const (
	TypeLeadDispatched = "lead_dispatched"
	TypeLeadRejected   = "lead_rejected"
	TypeUnitRestarted  = "unit_restarted"
	TypePing           = "ping"
)

type Event struct {
	Type string          `json:"type"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Make serializes an event envelope; marshal failures degrade to an empty
// data field rather than dropping the event.
func Make(typ string, data any) string {
	var raw json.RawMessage
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			raw = b
		}
	}
	b, _ := json.Marshal(Event{Type: typ, At: time.Now().UTC(), Data: raw})
	return string(b)
}
