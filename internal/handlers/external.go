package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cre-pipeline/internal/enrich"
	"cre-pipeline/internal/imagery"
	"cre-pipeline/internal/models"
	"cre-pipeline/internal/parcels"
	"cre-pipeline/internal/search"
	"cre-pipeline/internal/store"
)

// ExternalHandler fronts the outbound integrations: model enrichment, parcel
// records, and street-level imagery
type ExternalHandler struct {
	store   *store.Store
	enrich  *enrich.Client
	parcels *parcels.Client
	imagery *imagery.Client
	search  *search.SearchClient
}

// NewExternalHandler creates a new external integrations handler.
// searchClient may be nil when Meilisearch is not configured.
func NewExternalHandler(st *store.Store, enrichClient *enrich.Client, parcelClient *parcels.Client, imageryClient *imagery.Client, searchClient *search.SearchClient) *ExternalHandler {
	return &ExternalHandler{
		store:   st,
		enrich:  enrichClient,
		parcels: parcelClient,
		imagery: imageryClient,
		search:  searchClient,
	}
}

func (h *ExternalHandler) reindex(p *models.Property) {
	if h.search == nil {
		return
	}
	if err := h.search.IndexProperty(p); err != nil {
		log.Printf("Handlers: Failed to index property %s: %v", p.ID, err)
	}
}

// EnrichProperty asks the model for estimated facts about a property and
// merges whatever usable fields came back
func (h *ExternalHandler) EnrichProperty(c *gin.Context) {
	property, err := h.store.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	patch, err := h.enrich.EnrichProperty(c.Request.Context(), property.Address)
	if err != nil {
		if errors.Is(err, enrich.ErrAPIKeyMissing) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	if patch.IsEmpty() {
		log.Printf("Handlers: Enrichment returned nothing usable for property %s", property.ID)
		c.JSON(http.StatusOK, property)
		return
	}

	merged, err := enrich.Merge(property, patch)
	if err != nil {
		respondError(c, err)
		return
	}

	saved, err := h.store.Save(merged)
	if err != nil {
		respondError(c, err)
		return
	}

	h.reindex(&saved)
	c.JSON(http.StatusOK, saved)
}

// GenerateValuePlan asks the reasoning model for a value-add plan and stores
// it on the property
func (h *ExternalHandler) GenerateValuePlan(c *gin.Context) {
	property, err := h.store.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	plan, err := h.enrich.GenerateValueAddPlan(c.Request.Context(), property)
	if err != nil {
		if errors.Is(err, enrich.ErrAPIKeyMissing) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	property.AIValuePlan = plan
	property.LastAIUpdate = time.Now().UTC().Format(time.RFC3339)

	saved, err := h.store.Save(property)
	if err != nil {
		respondError(c, err)
		return
	}

	h.reindex(&saved)
	c.JSON(http.StatusOK, saved)
}

// AnalyzeTrends returns a management trend commentary without persisting it
func (h *ExternalHandler) AnalyzeTrends(c *gin.Context) {
	property, err := h.store.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	analysis, err := h.enrich.AnalyzeManagementTrends(c.Request.Context(), property)
	if err != nil {
		if errors.Is(err, enrich.ErrAPIKeyMissing) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"propertyId": property.ID,
		"analysis":   analysis,
	})
}

// SearchParcels queries the official parcel layer either by free-text address
// or by city plus category, and returns candidate properties ready to insert
func (h *ExternalHandler) SearchParcels(c *gin.Context) {
	query := c.Query("q")
	city := c.Query("city")
	category := strings.ToLower(c.Query("category"))

	var features []parcels.Feature
	var err error

	switch {
	case query != "":
		features, err = h.parcels.SearchByAddress(c.Request.Context(), query)
	case city != "" && category != "":
		codes, ok := parcels.CategoryToCodes[category]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category: " + category})
			return
		}
		features, err = h.parcels.QueryByCriteria(c.Request.Context(), city, codes)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "provide q, or city and category"})
		return
	}

	if err != nil {
		if errors.Is(err, parcels.ErrRateLimited) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	candidates := make([]interface{}, 0, len(features))
	for _, f := range features {
		candidates = append(candidates, gin.H{
			"parcel":   f.Attributes,
			"property": parcels.ConvertToProperty(f),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"candidates": candidates,
		"count":      len(candidates),
	})
}

// GetStreetView resolves street-level imagery for a property. With
// save=true the thumbnail URL is persisted on the record.
func (h *ExternalHandler) GetStreetView(c *gin.Context) {
	property, err := h.store.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if property.Latitude == nil || property.Longitude == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "property has no coordinates"})
		return
	}

	lat, lng := *property.Latitude, *property.Longitude

	thumb, err := h.imagery.NearestPhoto(c.Request.Context(), lat, lng)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	if thumb != "" && c.Query("save") == "true" {
		property.StreetViewImageURL = thumb
		saved, err := h.store.Save(property)
		if err != nil {
			respondError(c, err)
			return
		}
		h.reindex(&saved)
	}

	c.JSON(http.StatusOK, gin.H{
		"propertyId":     property.ID,
		"thumbnailUrl":   thumb,
		"streetViewLink": imagery.GoogleStreetViewLink(lat, lng),
	})
}
