package reddit

import (
	"context"

	"leadsniper-engine/internal/domain"
)

// seenCap bounds the dedup window; listings return at most 100 items per
// poll, so a few hundred ids of history absorbs at-least-once delivery.
const seenCap = 1000

// Stream turns a repeated newest-first listing fetch into a push-style
// sequence: the first poll only primes the seen window (skip_existing
// semantics), later polls yield unseen items oldest-first.
type Stream struct {
	fetch  func(ctx context.Context) ([]domain.Candidate, error)
	seen   map[string]struct{}
	order  []string
	primed bool
}

func NewStream(fetch func(ctx context.Context) ([]domain.Candidate, error)) *Stream {
	return &Stream{
		fetch: fetch,
		seen:  make(map[string]struct{}),
	}
}

// Next polls once. Errors pass through untouched so the supervisor can
// classify them; the seen window is only advanced on success.
func (s *Stream) Next(ctx context.Context) ([]domain.Candidate, error) {
	items, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	if !s.primed {
		for _, it := range items {
			s.mark(it.ExternalID)
		}
		s.primed = true
		return nil, nil
	}

	var fresh []domain.Candidate
	// reverse so candidates come out in the order they were posted
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		if _, ok := s.seen[it.ExternalID]; ok {
			continue
		}
		s.mark(it.ExternalID)
		fresh = append(fresh, it)
	}
	return fresh, nil
}

func (s *Stream) mark(id string) {
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.order = append(s.order, id)
	for len(s.order) > seenCap {
		delete(s.seen, s.order[0])
		s.order = s.order[1:]
	}
}
