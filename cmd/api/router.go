package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authDelivery "github.com/cs-flytbase/support-sync/internal/auth/delivery"
	embeddingDelivery "github.com/cs-flytbase/support-sync/internal/embedding/delivery"
	syncDelivery "github.com/cs-flytbase/support-sync/internal/sync/delivery"
	"github.com/cs-flytbase/support-sync/pkg/config"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config, syncHandler *syncDelivery.SyncHandler, embeddingHandler *embeddingDelivery.EmbeddingHandler) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Sync routes (protected)
		syncGroup := api.Group("/sync")
		syncGroup.Use(authDelivery.APIKeyMiddleware(cfg.APISecret))
		{
			syncGroup.GET("", syncHandler.Status)
			syncGroup.POST("", syncHandler.RunAll)
			syncGroup.POST("/gmail", syncHandler.SyncGmail)
			syncGroup.POST("/calendar", syncHandler.SyncCalendar)
			syncGroup.POST("/hubspot", syncHandler.SyncHubSpot)
			syncGroup.POST("/slack", syncHandler.SyncSlack)
			syncGroup.POST("/embeddings", embeddingHandler.Process)
			syncGroup.GET("/embeddings", embeddingHandler.Stats)
		}

		// Cron routes (cron secret)
		cron := api.Group("/cron")
		cron.Use(authDelivery.CronMiddleware(cfg.CronSecret))
		{
			cron.POST("/sync-incremental", syncHandler.SweepIncremental)
			cron.POST("/cleanup-queue", embeddingHandler.Cleanup)
		}
	}
}
