package rover

import (
	"context"
	"time"

	"github.com/golang/glog"
)

// Querier sends telemetry queries.
type Querier interface {
	QueryAll() error
}

// Poller periodically queries all telemetry so the cache stays fresh.
type Poller struct {
	Driver   Querier
	Interval time.Duration
}

// DefaultPollInterval is used when Interval is not set.
const DefaultPollInterval = time.Second

// Name implements Named.
func (p *Poller) Name() string {
	return "poller"
}

// Run implements Runnable.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.Driver.QueryAll(); err != nil {
				glog.Warningf("telemetry query error: %v", err)
			}
		}
	}
}
