// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// MediaPathLister reports every media path still referenced by an
// annotation. Implemented by annotations.Repository.
type MediaPathLister interface {
	AllMediaPaths() (map[string]struct{}, error)
}

// OrphanSweeper deletes unreferenced files. Implemented by media.Store.
type OrphanSweeper interface {
	SweepOrphans(inUse map[string]struct{}) (int, error)
}

// MediaSweepScheduler periodically deletes media files no longer
// referenced by any annotation or book. It is a safety net behind the
// cleanup_media task queue: files orphaned by a crash between row
// deletion and task completion get picked up on the next sweep.
type MediaSweepScheduler struct {
	annotations MediaPathLister
	covers      func() (map[string]struct{}, error)
	sweeper     OrphanSweeper
	schedule    string

	cron       *cron.Cron
	mu         sync.Mutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewMediaSweepScheduler creates a scheduler. covers returns the cover
// paths currently referenced by books; schedule is a standard 5-field
// cron expression.
func NewMediaSweepScheduler(annotations MediaPathLister, covers func() (map[string]struct{}, error), sweeper OrphanSweeper, schedule string) *MediaSweepScheduler {
	return &MediaSweepScheduler{
		annotations: annotations,
		covers:      covers,
		sweeper:     sweeper,
		schedule:    schedule,
		cron:        cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler.
func (s *MediaSweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.runSweep); err != nil {
		return fmt.Errorf("invalid media sweep schedule '%s': %w", s.schedule, err)
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true
	log.Printf("Media sweep scheduler: started with schedule '%s'", s.schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler.
func (s *MediaSweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.cron.Stop()
	s.isRunning = false
	log.Printf("Media sweep scheduler: stopped")
}

// RunNow performs one sweep immediately. Exposed for tests and for a
// manual trigger from the API.
func (s *MediaSweepScheduler) RunNow() (int, error) {
	inUse, err := s.annotations.AllMediaPaths()
	if err != nil {
		return 0, fmt.Errorf("list referenced media: %w", err)
	}
	if s.covers != nil {
		coverPaths, err := s.covers()
		if err != nil {
			return 0, fmt.Errorf("list referenced covers: %w", err)
		}
		for p := range coverPaths {
			inUse[p] = struct{}{}
		}
	}
	return s.sweeper.SweepOrphans(inUse)
}

func (s *MediaSweepScheduler) runSweep() {
	removed, err := s.RunNow()
	if err != nil {
		log.Printf("Media sweep failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Media sweep removed %d orphaned files", removed)
	}
}
