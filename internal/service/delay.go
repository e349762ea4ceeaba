package service

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/muratoffalex/poegram/internal/config"
)

// Delayer pauses the calling event before an outbound backend request.
type Delayer interface {
	Wait(ctx context.Context) error
}

// RandomDelay sleeps for a duration drawn uniformly from [Min, Max].
type RandomDelay struct {
	Min time.Duration
	Max time.Duration
}

func NewRandomDelay(cfg config.DelayConfig) RandomDelay {
	return RandomDelay{Min: cfg.Min, Max: cfg.Max}
}

func (d RandomDelay) Next() time.Duration {
	if d.Max <= d.Min {
		return d.Min
	}
	return d.Min + rand.N(d.Max-d.Min+1)
}

func (d RandomDelay) Wait(ctx context.Context) error {
	return sleep(ctx, d.Next())
}

// NoDelay returns immediately unless ctx is already done.
type NoDelay struct{}

func (NoDelay) Wait(ctx context.Context) error {
	return ctx.Err()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
