package api

import (
	"log"

	"github.com/gin-gonic/gin"

	embeddingDelivery "github.com/cs-flytbase/support-sync/internal/embedding/delivery"
	syncDelivery "github.com/cs-flytbase/support-sync/internal/sync/delivery"
	"github.com/cs-flytbase/support-sync/pkg/config"
)

type Handler struct {
	config           *config.Config
	syncHandler      *syncDelivery.SyncHandler
	embeddingHandler *embeddingDelivery.EmbeddingHandler
}

func NewHandler(cfg *config.Config, syncHandler *syncDelivery.SyncHandler, embeddingHandler *embeddingDelivery.EmbeddingHandler) *Handler {
	return &Handler{
		config:           cfg,
		syncHandler:      syncHandler,
		embeddingHandler: embeddingHandler,
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	SetupRoutes(r, h.config, h.syncHandler, h.embeddingHandler)
	log.Printf("Server starting on %s", addr)
	return r.Run(addr)
}
