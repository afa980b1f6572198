package delivery

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	integrationdomain "github.com/cs-flytbase/support-sync/internal/integration/domain"
	integrationrepo "github.com/cs-flytbase/support-sync/internal/integration/repository"
	"github.com/cs-flytbase/support-sync/internal/sync/dto"
	"github.com/cs-flytbase/support-sync/internal/sync/usecase"
	"github.com/cs-flytbase/support-sync/pkg/apiclient"
)

// SyncHandler exposes the sync trigger and status endpoints
type SyncHandler struct {
	orchestrator *usecase.Orchestrator
	hubspot      *usecase.HubSpotSyncService
	integrations integrationrepo.IntegrationRepository
}

func NewSyncHandler(orchestrator *usecase.Orchestrator, hubspot *usecase.HubSpotSyncService, integrations integrationrepo.IntegrationRepository) *SyncHandler {
	return &SyncHandler{
		orchestrator: orchestrator,
		hubspot:      hubspot,
		integrations: integrations,
	}
}

func parseOptions(c *gin.Context) (usecase.SyncOptions, bool) {
	var req dto.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return usecase.SyncOptions{}, false
	}
	mode := usecase.ModeIncremental
	if req.SyncType == string(usecase.ModeFull) {
		mode = usecase.ModeFull
	}
	return usecase.SyncOptions{Mode: mode, DaysBack: req.DaysBack}, true
}

func syncStatusCode(err error) int {
	switch {
	case errors.Is(err, usecase.ErrSyncInProgress):
		return http.StatusConflict
	case errors.Is(err, apiclient.ErrNoCredentials):
		return http.StatusPreconditionFailed
	case apiclient.IsAuthError(err):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// RunAll handles POST /api/sync
func (h *SyncHandler) RunAll(c *gin.Context) {
	opts, ok := parseOptions(c)
	if !ok {
		return
	}
	result, err := h.orchestrator.RunAll(c.Request.Context(), c.GetString("userID"), opts)
	if err != nil {
		c.JSON(syncStatusCode(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": result.Status == "success", "result": result})
}

// Status handles GET /api/sync
func (h *SyncHandler) Status(c *gin.Context) {
	userID := c.GetString("userID")
	run, err := h.orchestrator.LatestRun(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	platforms := []string{
		integrationdomain.PlatformGmail,
		integrationdomain.PlatformCalendar,
		integrationdomain.PlatformHubSpot,
		integrationdomain.PlatformSlack,
	}
	integrations := gin.H{}
	for _, platform := range platforms {
		integration, err := h.integrations.GetByUserAndPlatform(userID, platform)
		if err != nil || integration == nil {
			continue
		}
		integrations[platform] = gin.H{
			"is_active":    integration.IsActive,
			"last_sync_at": integration.LastSyncAt,
		}
	}
	c.JSON(http.StatusOK, gin.H{"latest_run": run, "integrations": integrations})
}

func (h *SyncHandler) syncOne(c *gin.Context, source string) {
	opts, ok := parseOptions(c)
	if !ok {
		return
	}
	result, err := h.orchestrator.SyncSource(c.Request.Context(), c.GetString("userID"), source, opts)
	if err != nil {
		c.JSON(syncStatusCode(err), gin.H{"success": false, "error": err.Error(), "result": result})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}

// SyncGmail handles POST /api/sync/gmail
func (h *SyncHandler) SyncGmail(c *gin.Context) {
	h.syncOne(c, integrationdomain.PlatformGmail)
}

// SyncCalendar handles POST /api/sync/calendar
func (h *SyncHandler) SyncCalendar(c *gin.Context) {
	h.syncOne(c, integrationdomain.PlatformCalendar)
}

// SyncHubSpot handles POST /api/sync/hubspot with per-phase counts
func (h *SyncHandler) SyncHubSpot(c *gin.Context) {
	result, err := h.hubspot.SyncAll(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		c.JSON(syncStatusCode(err), gin.H{"success": false, "error": err.Error(), "result": result})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}

// SyncSlack handles POST /api/sync/slack
func (h *SyncHandler) SyncSlack(c *gin.Context) {
	h.syncOne(c, integrationdomain.PlatformSlack)
}

// SweepIncremental handles POST /api/cron/sync-incremental
func (h *SyncHandler) SweepIncremental(c *gin.Context) {
	swept, errs := h.orchestrator.SweepIncremental(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"success": len(errs) == 0, "users_synced": swept, "errors": errs})
}
