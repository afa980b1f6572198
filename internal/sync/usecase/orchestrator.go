package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	syncdomain "github.com/cs-flytbase/support-sync/internal/sync/domain"
	"github.com/cs-flytbase/support-sync/internal/sync/dto"
	integrationrepo "github.com/cs-flytbase/support-sync/internal/integration/repository"
	syncrepo "github.com/cs-flytbase/support-sync/internal/sync/repository"
	"github.com/cs-flytbase/support-sync/pkg/apiclient"
)

// Orchestrator sequences the source syncs for a user and guards each
// (user, source) pair so overlapping triggers cannot interleave
// cursor writes.
type Orchestrator struct {
	sources      []SourceSyncer
	runs         syncrepo.SyncRunRepository
	integrations integrationrepo.IntegrationRepository

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewOrchestrator(runs syncrepo.SyncRunRepository, integrations integrationrepo.IntegrationRepository, sources ...SourceSyncer) *Orchestrator {
	return &Orchestrator{
		sources:      sources,
		runs:         runs,
		integrations: integrations,
		inFlight:     make(map[string]bool),
	}
}

func (o *Orchestrator) tryAcquire(userID, source string) bool {
	key := userID + ":" + source
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight[key] {
		return false
	}
	o.inFlight[key] = true
	return true
}

func (o *Orchestrator) release(userID, source string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, userID+":"+source)
}

// SyncSource runs one source under the single-flight guard.
func (o *Orchestrator) SyncSource(ctx context.Context, userID, source string, opts SyncOptions) (*dto.SyncResult, error) {
	for _, syncer := range o.sources {
		if syncer.Source() != source {
			continue
		}
		if !o.tryAcquire(userID, source) {
			return nil, ErrSyncInProgress
		}
		defer o.release(userID, source)
		return syncer.Sync(ctx, userID, opts)
	}
	return nil, fmt.Errorf("unknown sync source %q", source)
}

// RunAll syncs every registered source in order, recording the run. A
// source without credentials is skipped; a failing source marks the
// run failed but later sources still get their chance.
func (o *Orchestrator) RunAll(ctx context.Context, userID string, opts SyncOptions) (*dto.OrchestratedResult, error) {
	run := &syncdomain.SyncRun{UserID: userID, SyncType: string(opts.Mode)}
	if err := o.runs.Create(run); err != nil {
		return nil, fmt.Errorf("failed to record sync run: %w", err)
	}

	out := &dto.OrchestratedResult{RunID: run.ID}
	for _, syncer := range o.sources {
		source := syncer.Source()
		if !o.tryAcquire(userID, source) {
			out.Errors = append(out.Errors, fmt.Sprintf("%s: sync already in progress", source))
			continue
		}
		result, err := syncer.Sync(ctx, userID, opts)
		o.release(userID, source)

		if result != nil {
			out.Results = append(out.Results, result)
		}
		if err != nil {
			if errors.Is(err, apiclient.ErrNoCredentials) {
				log.Printf("[Orchestrator] skipping %s for user %s: not connected", source, userID)
				continue
			}
			out.Errors = append(out.Errors, fmt.Sprintf("%s: %v", source, err))
		}
	}

	status := syncdomain.SyncRunSuccess
	if len(out.Errors) > 0 {
		status = syncdomain.SyncRunFailed
	}
	out.Status = string(status)
	if err := o.runs.Complete(run.ID, status, out.Errors); err != nil {
		log.Printf("[Orchestrator] failed to complete sync run %s: %v", run.ID, err)
	}
	return out, nil
}

// SweepIncremental runs an incremental RunAll for every user with an
// active integration. Used by the cron endpoint and the scheduler.
func (o *Orchestrator) SweepIncremental(ctx context.Context) (int, []string) {
	userIDs, err := o.integrations.ListActiveUserIDs()
	if err != nil {
		return 0, []string{fmt.Sprintf("failed to list users: %v", err)}
	}

	swept := 0
	var errs []string
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err.Error())
			break
		}
		result, err := o.RunAll(ctx, userID, SyncOptions{Mode: ModeIncremental})
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", userID, err))
			continue
		}
		swept++
		for _, e := range result.Errors {
			errs = append(errs, fmt.Sprintf("%s: %s", userID, e))
		}
	}
	return swept, errs
}

// LatestRun exposes run history for the status endpoint.
func (o *Orchestrator) LatestRun(userID string) (*syncdomain.SyncRun, error) {
	return o.runs.GetLatestByUser(userID)
}
