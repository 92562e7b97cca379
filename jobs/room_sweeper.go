package jobs

import (
	"context"
	"time"

	"coincafe/service"

	log "github.com/sirupsen/logrus"
)

// RoomSweeper periodically expires stale room members and closes rooms
// past their lifetime
type RoomSweeper struct {
	rooms    service.RoomService
	interval time.Duration
	stopCh   chan struct{}
}

// NewRoomSweeper creates a new room sweeper
func NewRoomSweeper(rooms service.RoomService, interval time.Duration) *RoomSweeper {
	return &RoomSweeper{
		rooms:    rooms,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the sweep loop until the context is cancelled or Stop is
// called. Blocks; run it in its own goroutine.
func (j *RoomSweeper) Start(ctx context.Context) {
	log.WithField("interval", j.interval).Info("Room sweeper started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Room sweeper stopped by context")
			return
		case <-j.stopCh:
			log.Info("Room sweeper stopped")
			return
		case <-ticker.C:
			if err := j.rooms.SweepStale(ctx); err != nil {
				log.WithError(err).Error("Room sweep failed")
			}
		}
	}
}

// Stop signals the sweep loop to exit
func (j *RoomSweeper) Stop() {
	close(j.stopCh)
}
