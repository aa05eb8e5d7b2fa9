// Package supervisor owns one goroutine per source monitor, restarting
// failed units with backoff and propagating fatal failures to shutdown.
package supervisor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"leadsniper-engine/internal/errkind"
	"leadsniper-engine/internal/events"
	"leadsniper-engine/internal/retry"
)

// Unit is one restartable worker driving a single source monitor.
type Unit struct {
	Name string
	Run  func(ctx context.Context) error
}

type Config struct {
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

type Supervisor struct {
	cfg Config
	hub *events.Hub

	mu       sync.Mutex
	restarts map[string]int
}

func New(cfg Config, hub *events.Hub) *Supervisor {
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 10 * time.Second
	}
	if cfg.BackoffMax < cfg.BackoffBase {
		cfg.BackoffMax = cfg.BackoffBase
	}
	return &Supervisor{
		cfg:      cfg,
		hub:      hub,
		restarts: make(map[string]int),
	}
}

// Run blocks until every unit exits. A retryable unit failure restarts that
// unit after a growing backoff; a fatal failure cancels the group context so
// every other unit winds down, and the error comes back to the caller.
// Restart attempts are unbounded; the backoff caps the rate.
func (s *Supervisor) Run(ctx context.Context, units []Unit) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, u := range units {
		u := u
		g.Go(func() error { return s.runUnit(ctx, u) })
	}
	return g.Wait()
}

func (s *Supervisor) runUnit(ctx context.Context, u Unit) error {
	delay := s.cfg.BackoffBase
	for {
		started := time.Now()
		err := u.Run(ctx)
		if ctx.Err() != nil {
			log.Printf("[supervisor] %s stopped", u.Name)
			return nil
		}
		if err == nil {
			log.Printf("[supervisor] %s finished", u.Name)
			return nil
		}
		if errkind.Is(err, errkind.Fatal) {
			log.Printf("[supervisor] %s raised a fatal error: %v", u.Name, err)
			return fmt.Errorf("%s: %w", u.Name, err)
		}

		// a unit that ran healthy for a while starts the ladder over
		if time.Since(started) > time.Minute {
			delay = s.cfg.BackoffBase
		}

		s.bump(u.Name)
		log.Printf("[supervisor] %s failed: %v (restart in %s)", u.Name, err, delay)
		if s.hub != nil {
			s.hub.Publish(events.Make(events.TypeUnitRestarted, map[string]any{
				"unit": u.Name, "error": err.Error(), "backoff": delay.String(),
			}))
		}

		if serr := retry.Sleep(ctx, delay); serr != nil {
			return nil
		}
		delay *= 2
		if delay > s.cfg.BackoffMax {
			delay = s.cfg.BackoffMax
		}
	}
}

func (s *Supervisor) bump(name string) {
	s.mu.Lock()
	s.restarts[name]++
	s.mu.Unlock()
}

// Restarts returns a copy of the per-unit restart counts.
func (s *Supervisor) Restarts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.restarts))
	for k, v := range s.restarts {
		out[k] = v
	}
	return out
}
