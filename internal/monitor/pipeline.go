// Package monitor drives candidates from each source through the shared
// filter → cooldown → qualify → record → dispatch pipeline.
package monitor

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"leadsniper-engine/internal/cooldown"
	"leadsniper-engine/internal/dispatch"
	"leadsniper-engine/internal/domain"
	"leadsniper-engine/internal/events"
	"leadsniper-engine/internal/filter"
	"leadsniper-engine/internal/qualify"
)

// Pipeline is shared by all monitors. Everything here is either immutable
// configuration or safe for concurrent use (the cooldown store carries the
// lone mutex).
type Pipeline struct {
	Keywords []string
	Cooldown *cooldown.Store
	TTL      time.Duration
	Gate     qualify.Gate
	Sender   dispatch.Sender
	Hub      *events.Hub

	dispatched atomic.Int64
}

// Process runs one candidate end to end. Nothing in here can fail the
// calling monitor: qualification fails closed and delivery failures are
// logged and dropped.
func (p *Pipeline) Process(ctx context.Context, c domain.Candidate) {
	text := c.CombinedText()
	if !filter.Matches(text, p.Keywords) {
		return
	}

	fp := c.Fingerprint()
	if p.Cooldown.Seen(fp) {
		log.Printf("[pipeline] cooldown skip %s (%s)", fp, c.SourceName)
		return
	}

	log.Printf("[pipeline] trigger keywords hit in %s: %s", c.SourceName, c.Title)
	res := p.Gate.Qualify(ctx, text)
	if !res.IsLead {
		// negatives are never recorded, so the same content can be
		// re-evaluated if another source surfaces it
		p.publish(events.TypeLeadRejected, c)
		return
	}

	// Recorded before dispatch so a slow or retrying delivery can never
	// re-qualify or double-notify the same content. A failed dispatch does
	// not un-record.
	p.Cooldown.Record(fp, p.TTL)

	n := domain.NotificationFrom(c)
	if err := p.Sender.Send(ctx, n); err != nil {
		log.Printf("[pipeline] delivery failed, dropping %q: %v", n.Title, err)
		return
	}
	p.dispatched.Add(1)
	p.publish(events.TypeLeadDispatched, n)
	log.Printf("[pipeline] lead dispatched: %s (%s)", n.Title, n.SourceLabel)
}

// Dispatched is the number of notifications delivered since startup.
func (p *Pipeline) Dispatched() int64 { return p.dispatched.Load() }

func (p *Pipeline) publish(typ string, data any) {
	if p.Hub != nil {
		p.Hub.Publish(events.Make(typ, data))
	}
}
