package scheduler

import (
	"context"
	"log"
	"time"

	embeddingusecase "github.com/cs-flytbase/support-sync/internal/embedding/usecase"
	"github.com/cs-flytbase/support-sync/internal/sync/usecase"
)

// SyncScheduler drives the periodic incremental sweep and queue
// maintenance for deployments without an external cron.
type SyncScheduler struct {
	orchestrator  *usecase.Orchestrator
	processor     *embeddingusecase.Processor
	interval      time.Duration
	retentionDays int
	stopChan      chan struct{}
}

func NewSyncScheduler(orchestrator *usecase.Orchestrator, processor *embeddingusecase.Processor, interval time.Duration, retentionDays int) *SyncScheduler {
	return &SyncScheduler{
		orchestrator:  orchestrator,
		processor:     processor,
		interval:      interval,
		retentionDays: retentionDays,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the scheduler loop
func (s *SyncScheduler) Start() {
	log.Printf("[SyncScheduler] Starting incremental sweep scheduler (interval: %s)", s.interval)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		// Queue cleanup is cheap; once a day is plenty.
		cleanup := time.NewTicker(24 * time.Hour)
		defer cleanup.Stop()

		for {
			select {
			case <-ticker.C:
				s.runSweep()
			case <-cleanup.C:
				if _, err := s.processor.Cleanup(s.retentionDays); err != nil {
					log.Printf("[SyncScheduler] queue cleanup failed: %v", err)
				}
			case <-s.stopChan:
				log.Println("[SyncScheduler] Scheduler stopped")
				return
			}
		}
	}()
}

// Stop stops the scheduler
func (s *SyncScheduler) Stop() {
	close(s.stopChan)
}

func (s *SyncScheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	swept, errs := s.orchestrator.SweepIncremental(ctx)
	if len(errs) > 0 {
		log.Printf("[SyncScheduler] sweep finished: %d users, %d errors (first: %s)", swept, len(errs), errs[0])
		return
	}
	log.Printf("[SyncScheduler] sweep finished: %d users", swept)
}
