package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncdomain "github.com/cs-flytbase/support-sync/internal/sync/domain"
	"github.com/cs-flytbase/support-sync/internal/sync/dto"
	"github.com/cs-flytbase/support-sync/pkg/apiclient"
)

func TestOrchestratorSingleFlight(t *testing.T) {
	blocked := &fakeSyncer{source: "gmail", block: make(chan struct{})}
	orch := NewOrchestrator(&fakeRunRepo{}, newFakeIntegrationRepo(), blocked)

	done := make(chan error, 1)
	go func() {
		_, err := orch.SyncSource(context.Background(), "user-1", "gmail", SyncOptions{Mode: ModeFull})
		done <- err
	}()

	require.Eventually(t, func() bool { return blocked.callCount() == 1 }, time.Second, 5*time.Millisecond)

	_, err := orch.SyncSource(context.Background(), "user-1", "gmail", SyncOptions{Mode: ModeFull})
	assert.ErrorIs(t, err, ErrSyncInProgress)

	// Another user is not blocked by this user's sync.
	otherDone := make(chan struct{})
	go func() {
		orch.SyncSource(context.Background(), "user-2", "gmail", SyncOptions{Mode: ModeFull})
		close(otherDone)
	}()
	require.Eventually(t, func() bool { return blocked.callCount() == 2 }, time.Second, 5*time.Millisecond)

	close(blocked.block)
	require.NoError(t, <-done)
	<-otherDone

	// The guard releases once the sync returns.
	_, err = orch.SyncSource(context.Background(), "user-1", "gmail", SyncOptions{Mode: ModeFull})
	require.NoError(t, err)
}

func TestOrchestratorUnknownSource(t *testing.T) {
	orch := NewOrchestrator(&fakeRunRepo{}, newFakeIntegrationRepo(), &fakeSyncer{source: "gmail"})
	_, err := orch.SyncSource(context.Background(), "user-1", "linear", SyncOptions{Mode: ModeFull})
	assert.Error(t, err)
}

func TestOrchestratorRunAllRecordsRun(t *testing.T) {
	runs := &fakeRunRepo{}
	orch := NewOrchestrator(runs, newFakeIntegrationRepo(),
		&fakeSyncer{source: "gmail", result: &dto.SyncResult{Source: "gmail", Synced: 3}},
		&fakeSyncer{source: "slack", result: &dto.SyncResult{Source: "slack", Synced: 1}},
	)

	out, err := orch.RunAll(context.Background(), "user-1", SyncOptions{Mode: ModeFull})
	require.NoError(t, err)
	assert.Equal(t, string(syncdomain.SyncRunSuccess), out.Status)
	assert.Len(t, out.Results, 2)
	assert.Empty(t, out.Errors)

	latest, err := orch.LatestRun("user-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, out.RunID, latest.ID)
	assert.Equal(t, syncdomain.SyncRunSuccess, latest.Status)
	assert.NotNil(t, latest.CompletedAt)
}

func TestOrchestratorRunAllSkipsDisconnectedSources(t *testing.T) {
	connected := &fakeSyncer{source: "gmail", result: &dto.SyncResult{Source: "gmail", Synced: 2}}
	disconnected := &fakeSyncer{source: "hubspot", err: apiclient.ErrNoCredentials}
	orch := NewOrchestrator(&fakeRunRepo{}, newFakeIntegrationRepo(), connected, disconnected)

	out, err := orch.RunAll(context.Background(), "user-1", SyncOptions{Mode: ModeFull})
	require.NoError(t, err)
	assert.Equal(t, string(syncdomain.SyncRunSuccess), out.Status)
	assert.Empty(t, out.Errors)
	assert.Len(t, out.Results, 1)
}

func TestOrchestratorRunAllContinuesPastFailure(t *testing.T) {
	failing := &fakeSyncer{source: "gmail", err: errors.New("quota exhausted")}
	healthy := &fakeSyncer{source: "slack", result: &dto.SyncResult{Source: "slack", Synced: 5}}
	orch := NewOrchestrator(&fakeRunRepo{}, newFakeIntegrationRepo(), failing, healthy)

	out, err := orch.RunAll(context.Background(), "user-1", SyncOptions{Mode: ModeFull})
	require.NoError(t, err)
	assert.Equal(t, string(syncdomain.SyncRunFailed), out.Status)
	require.Len(t, out.Errors, 1)
	assert.Contains(t, out.Errors[0], "gmail")
	assert.Equal(t, 1, healthy.callCount())
}

func TestOrchestratorSweepIncremental(t *testing.T) {
	integrations := newFakeIntegrationRepo("user-1:gmail")
	syncer := &fakeSyncer{source: "gmail", result: &dto.SyncResult{Source: "gmail", Synced: 1}}
	orch := NewOrchestrator(&fakeRunRepo{}, integrations, syncer)

	swept, errs := orch.SweepIncremental(context.Background())
	assert.Equal(t, 1, swept)
	assert.Empty(t, errs)
	assert.Equal(t, 1, syncer.callCount())
}
