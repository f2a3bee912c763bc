package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"cre-pipeline/internal/ratelimit"
	"cre-pipeline/internal/scheduler"
	"cre-pipeline/internal/search"
	"cre-pipeline/internal/store"
)

// AdminHandler handles operational endpoints
type AdminHandler struct {
	store     *store.Store
	scheduler *scheduler.Scheduler
	search    *search.SearchClient
	limiter   *ratelimit.Limiter
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(st *store.Store, sched *scheduler.Scheduler, searchClient *search.SearchClient, limiter *ratelimit.Limiter) *AdminHandler {
	return &AdminHandler{
		store:     st,
		scheduler: sched,
		search:    searchClient,
		limiter:   limiter,
	}
}

// GetStats returns system statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats := make(map[string]interface{})

	byStatus, err := h.store.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	total := 0
	statusCounts := make(map[string]int, len(byStatus))
	for status, count := range byStatus {
		statusCounts[string(status)] = count
		total += count
	}
	stats["properties"] = map[string]interface{}{
		"by_status": statusCounts,
		"total":     total,
	}

	if h.limiter != nil {
		stats["parcel_lookups"] = h.limiter.GetStats()
	}

	c.JSON(http.StatusOK, stats)
}

// TriggerSync manually triggers the dataset refresh
func (h *AdminHandler) TriggerSync(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Scheduler not available"})
		return
	}

	log.Println("Admin: Manual dataset refresh requested")

	// Run in goroutine to avoid blocking
	go func() {
		if err := h.scheduler.RunNow(); err != nil {
			log.Printf("Admin: Manual dataset refresh failed: %v", err)
		} else {
			log.Println("Admin: Manual dataset refresh completed successfully")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Dataset refresh started",
		"status":  "running",
	})
}

// ReindexAll rebuilds the search index from the store
func (h *AdminHandler) ReindexAll(c *gin.Context) {
	if h.search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search is not configured"})
		return
	}

	properties, err := h.store.List(true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.search.IndexProperties(properties); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	log.Printf("Admin: Reindexed %d properties", len(properties))
	c.JSON(http.StatusOK, gin.H{"indexed": len(properties)})
}
