package app

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// TickInterval is the countdown resolution.
const TickInterval = time.Second

// RunCountdown ticks s once per TickInterval until the session leaves the
// active phase or ctx is cancelled. onTick, when set, sees every snapshot
// produced by a tick, including the one that submitted the session.
func RunCountdown(ctx context.Context, s *Session, clock clockwork.Clock, log logrus.FieldLogger, onTick func(Snapshot)) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	ticker := clock.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.Done():
			return
		case <-ticker.Chan():
			snap, err := s.Tick(ctx)
			if err != nil && log != nil {
				log.WithError(err).WithField("session", s.ID()).Error("timed submission failed")
			}
			if onTick != nil {
				onTick(snap)
			}
			if snap.Phase != PhaseActive {
				return
			}
		}
	}
}
