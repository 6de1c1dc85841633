package blobstore

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically drops blobs nobody fetched.
type Sweeper struct {
	store  *Store
	maxAge time.Duration
	cron   *cron.Cron
}

// NewSweeper schedules Sweep(maxAge) every interval.
func NewSweeper(store *Store, interval, maxAge time.Duration) (*Sweeper, error) {
	if interval <= 0 || maxAge <= 0 {
		return nil, fmt.Errorf("sweep interval and max age must be positive")
	}
	s := &Sweeper{store: store, maxAge: maxAge, cron: cron.New()}
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), s.sweep); err != nil {
		return nil, fmt.Errorf("failed to schedule blob sweep: %w", err)
	}
	return s, nil
}

func (s *Sweeper) Start() { s.cron.Start() }

// Stop waits for a sweep in progress.
func (s *Sweeper) Stop() { <-s.cron.Stop().Done() }

func (s *Sweeper) sweep() {
	if n := s.store.Sweep(s.maxAge); n > 0 {
		log.Printf("[EXPORT] Swept %d unfetched downloads", n)
	}
}
