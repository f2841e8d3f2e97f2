// Package poll periodically refreshes the pending manual review count shown
// as a badge in the operator views.
package poll

import (
	"context"
	"log/slog"
	"time"
)

// DefaultInterval is how often the pending count is refreshed.
const DefaultInterval = 30 * time.Second

// CountFunc fetches the current pending count.
type CountFunc func(ctx context.Context) (int, error)

// Poller fetches a count on a fixed interval and pushes it to a callback.
// Fetch failures are logged and skipped; the previous count stays displayed
// until the next successful fetch.
type Poller struct {
	interval time.Duration
	count    CountFunc
	onCount  func(int)
	logger   *slog.Logger
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval overrides the poll interval.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) { p.interval = d }
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) { p.logger = logger }
}

// NewPoller creates a poller that delivers counts to onCount.
func NewPoller(count CountFunc, onCount func(int), opts ...Option) *Poller {
	p := &Poller{
		interval: DefaultInterval,
		count:    count,
		onCount:  onCount,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run fetches once immediately and then on every interval until the context
// is cancelled. It always returns ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	p.fetch(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.fetch(ctx)
		}
	}
}

func (p *Poller) fetch(ctx context.Context) {
	count, err := p.count(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.DebugContext(ctx, "pending count fetch failed", "error", err)
		return
	}
	p.onCount(count)
}
