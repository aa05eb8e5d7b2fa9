package monitor

import (
	"context"
	"time"

	"leadsniper-engine/internal/feed"
	"leadsniper-engine/internal/reddit"
	"leadsniper-engine/internal/retry"
)

// StreamMonitor drives one reddit stream (submissions or comments) through
// the pipeline. A nil error return means the context ended; any other return
// goes to the supervisor for classification and restart.
type StreamMonitor struct {
	Name     string
	Stream   *reddit.Stream
	Pipeline *Pipeline
	Interval time.Duration
}

func (m *StreamMonitor) Run(ctx context.Context) error {
	for {
		cands, err := m.Stream.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		for _, c := range cands {
			m.Pipeline.Process(ctx, c)
		}
		if err := retry.Sleep(ctx, m.Interval); err != nil {
			return nil
		}
	}
}

// FeedMonitor polls the configured feeds on a fixed interval. Individual
// feed failures are absorbed inside the poller, so this unit only exits on
// cancellation.
type FeedMonitor struct {
	Name     string
	Poller   *feed.Poller
	Pipeline *Pipeline
	Interval time.Duration
}

func (m *FeedMonitor) Run(ctx context.Context) error {
	t := time.NewTicker(m.Interval)
	defer t.Stop()
	for {
		for _, c := range m.Poller.PollOnce(ctx) {
			m.Pipeline.Process(ctx, c)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}
