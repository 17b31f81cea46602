package ingest

import (
	"context"
	"time"
)

// Re-check of one sender's submission after it had time to go quiet
type DeferredCheck struct {
	Sender   string `json:"sender"`
	MarketID int64  `json:"market_id"`
}

type CheckHandler func(ctx context.Context, check *DeferredCheck) error

// Schedules deferred checks. Checks are a latency optimization only, a lost one is picked up by the sweep.
type Deferrer interface {
	Defer(ctx context.Context, check *DeferredCheck, delay time.Duration) error
}
