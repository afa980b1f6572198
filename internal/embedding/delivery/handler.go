package delivery

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cs-flytbase/support-sync/internal/embedding/usecase"
	"github.com/cs-flytbase/support-sync/internal/sync/dto"
)

// EmbeddingHandler exposes manual queue controls
type EmbeddingHandler struct {
	processor     *usecase.Processor
	retentionDays int
}

func NewEmbeddingHandler(processor *usecase.Processor, retentionDays int) *EmbeddingHandler {
	return &EmbeddingHandler{processor: processor, retentionDays: retentionDays}
}

// Process handles POST /api/sync/embeddings
func (h *EmbeddingHandler) Process(c *gin.Context) {
	var req dto.EmbeddingsRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := h.processor.ProcessBatch(c.Request.Context(), req.BatchSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "processed": result.Processed, "failed": result.Failed})
}

// Stats handles GET /api/sync/embeddings
func (h *EmbeddingHandler) Stats(c *gin.Context) {
	stats, err := h.processor.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// Cleanup handles POST /api/cron/cleanup-queue
func (h *EmbeddingHandler) Cleanup(c *gin.Context) {
	var req dto.CleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	days := req.DaysOld
	if days <= 0 {
		days = h.retentionDays
	}
	deleted, err := h.processor.Cleanup(days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": deleted})
}
