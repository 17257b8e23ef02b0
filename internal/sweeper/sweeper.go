// Package sweeper retires stale bookings in the background. A booked
// reservation whose stay has fully elapsed without a check-in becomes a
// no-show: it stops counting against capacity and can be deleted.
package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Store interface {
	MarkNoShows(ctx context.Context, today time.Time) (int64, error)
}

type Sweeper struct {
	Store    Store
	Interval time.Duration
	Log      *zap.Logger
}

func (s *Sweeper) Run(ctx context.Context) error {
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	// kick immediately
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	n, err := s.Store.MarkNoShows(ctx, time.Now().UTC())
	if err != nil {
		s.Log.Warn("no-show sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.Log.Info("marked no-shows", zap.Int64("count", n))
	}
}
