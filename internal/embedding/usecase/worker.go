package usecase

import (
	"context"
	"log"
	"sync"
	"time"
)

// WorkerService drains the embedding queue in the background. Sync
// services wake it after enqueuing; a slow ticker catches anything a
// wake-up missed.
type WorkerService struct {
	processor   *Processor
	wake        chan struct{}
	stopChan    chan struct{}
	workerWg    sync.WaitGroup
	workerCount int
	started     bool
	mu          sync.Mutex
}

func NewWorkerService(processor *Processor, workerCount int) *WorkerService {
	if workerCount <= 0 {
		workerCount = 2
	}
	return &WorkerService{
		processor:   processor,
		wake:        make(chan struct{}, 100),
		stopChan:    make(chan struct{}),
		workerCount: workerCount,
	}
}

// Start starts the queue workers
func (s *WorkerService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	for i := 0; i < s.workerCount; i++ {
		s.workerWg.Add(1)
		go s.worker(i)
	}
	s.started = true
	log.Printf("[EmbeddingWorker] Started %d workers", s.workerCount)
}

// Stop stops all workers gracefully
func (s *WorkerService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	close(s.stopChan)
	s.workerWg.Wait()
	s.started = false
	log.Println("[EmbeddingWorker] All workers stopped")
}

// Wake nudges the workers without blocking. Returns false when the
// wake buffer is full, which is fine: a drain is already due.
func (s *WorkerService) Wake() bool {
	select {
	case s.wake <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *WorkerService) worker(id int) {
	defer s.workerWg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			log.Printf("[EmbeddingWorker] Worker %d stopped", id)
			return
		case <-s.wake:
			s.drain()
		case <-ticker.C:
			s.drain()
		}
	}
}

// drain runs batches until the queue is empty.
func (s *WorkerService) drain() {
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		result, err := s.processor.ProcessBatch(ctx, defaultBatchSize)
		cancel()
		if err != nil {
			log.Printf("[EmbeddingWorker] batch failed: %v", err)
			return
		}
		if result.Processed == 0 && result.Failed == 0 {
			return
		}
		log.Printf("[EmbeddingWorker] batch done: %d processed, %d failed", result.Processed, result.Failed)
	}
}
