package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"cre-pipeline/internal/models"
	"cre-pipeline/internal/proforma"
	"cre-pipeline/internal/search"
	"cre-pipeline/internal/storage"
	"cre-pipeline/internal/store"
)

// PropertyHandler handles pipeline CRUD, transitions, and projections
type PropertyHandler struct {
	store  *store.Store
	search *search.SearchClient
}

// NewPropertyHandler creates a new property handler. searchClient may be nil
// when Meilisearch is not configured.
func NewPropertyHandler(st *store.Store, searchClient *search.SearchClient) *PropertyHandler {
	return &PropertyHandler{
		store:  st,
		search: searchClient,
	}
}

// respondError maps domain errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	var invalidTransition *store.InvalidTransitionError
	var validation *models.ValidationError
	var persistence *storage.PersistenceError

	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &invalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &persistence):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// reindex pushes a property into the search index, logging failures instead
// of surfacing them: search is a secondary projection of the store
func (h *PropertyHandler) reindex(p *models.Property) {
	if h.search == nil {
		return
	}
	if err := h.search.IndexProperty(p); err != nil {
		log.Printf("Handlers: Failed to index property %s: %v", p.ID, err)
	}
}

// ListProperties returns the pipeline in insertion order
func (h *PropertyHandler) ListProperties(c *gin.Context) {
	includeHidden := c.Query("include_hidden") == "true"

	properties, err := h.store.List(includeHidden)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"properties": properties,
		"count":      len(properties),
	})
}

// GetProperty returns a single property by id
func (h *PropertyHandler) GetProperty(c *gin.Context) {
	property, err := h.store.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, property)
}

// SaveProperty inserts or updates a property
func (h *PropertyHandler) SaveProperty(c *gin.Context) {
	var property models.Property
	if err := c.ShouldBindJSON(&property); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.store.Save(property)
	if err != nil {
		respondError(c, err)
		return
	}

	h.reindex(&saved)
	c.JSON(http.StatusOK, saved)
}

// TransitionProperty moves a property to a new lifecycle status
func (h *PropertyHandler) TransitionProperty(c *gin.Context) {
	var req struct {
		Status models.PropertyStatus `json:"status" binding:"required"`
		Note   string                `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	property, err := h.store.Transition(c.Param("id"), req.Status, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}

	h.reindex(&property)
	c.JSON(http.StatusOK, property)
}

// DeleteProperty permanently removes a property
func (h *PropertyHandler) DeleteProperty(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.HardDelete(id); err != nil {
		respondError(c, err)
		return
	}

	if h.search != nil {
		if err := h.search.RemoveProperty(id); err != nil {
			log.Printf("Handlers: Failed to deindex property %s: %v", id, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// GetProforma returns the multi-year projection for a property
func (h *PropertyHandler) GetProforma(c *gin.Context) {
	property, err := h.store.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	points := proforma.Project(property.Financials, property.Assumptions)
	c.JSON(http.StatusOK, gin.H{
		"propertyId": property.ID,
		"points":     points,
	})
}

// SearchProperties performs a full-text search over the index
func (h *PropertyHandler) SearchProperties(c *gin.Context) {
	if h.search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search is not configured"})
		return
	}

	params := search.FilterParams{
		Query:  c.Query("q"),
		City:   c.Query("city"),
		SortBy: c.Query("sort"),
	}
	if class := c.Query("asset_class"); class != "" {
		params.AssetClasses = []string{class}
	}
	if status := c.Query("status"); status != "" {
		params.Statuses = []string{status}
	}

	hits, err := h.search.FilterSearch(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"properties": hits,
		"count":      len(hits),
	})
}
