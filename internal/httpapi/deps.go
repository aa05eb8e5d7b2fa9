package httpapi

import (
	"time"

	"leadsniper-engine/internal/events"
)

// Status is the snapshot served by /status.
type Status struct {
	StartedAt       time.Time      `json:"started_at"`
	UptimeSeconds   int64          `json:"uptime_seconds"`
	Restarts        map[string]int `json:"restarts"`
	LeadsDispatched int64          `json:"leads_dispatched"`
	CooldownEntries int            `json:"cooldown_entries"`
}

type Deps struct {
	Hub *events.Hub

	// Snapshot builder (inject for testability)
	Status func() Status
}
