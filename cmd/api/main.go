package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"cre-pipeline/internal/config"
	"cre-pipeline/internal/enrich"
	"cre-pipeline/internal/handlers"
	"cre-pipeline/internal/imagery"
	"cre-pipeline/internal/parcels"
	"cre-pipeline/internal/ratelimit"
	"cre-pipeline/internal/scheduler"
	"cre-pipeline/internal/search"
	"cre-pipeline/internal/storage"
	"cre-pipeline/internal/store"
	syncsvc "cre-pipeline/internal/sync"
)

func main() {
	// Load configuration
	configPath := getEnv("CONFIG_PATH", "./config/pipeline.yaml")
	appConfig, err := config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	} else {
		log.Printf("Loaded configuration from %s", configPath)
	}

	// Initialize persistence: JSON document as primary, sqlite as fallback
	fileStore, err := storage.NewFileStore(storage.Options{Dir: appConfig.Storage.DataDir})
	if err != nil {
		log.Printf("Warning: File storage unavailable at %s: %v. Running on fallback only.", appConfig.Storage.DataDir, err)
		fileStore = nil
	}

	kvStore, err := storage.NewKVStore(appConfig.Storage.FallbackDBPath)
	if err != nil {
		log.Fatalf("Failed to open fallback database: %v", err)
	}
	defer kvStore.Close()

	var backend storage.Backend
	if fileStore != nil {
		backend = storage.NewDual(fileStore, kvStore)
		log.Printf("Storage: primary %s, fallback %s", fileStore.Dir(), appConfig.Storage.FallbackDBPath)
	} else {
		backend = storage.NewDual(nil, kvStore)
		log.Printf("Storage: fallback only (%s)", appConfig.Storage.FallbackDBPath)
	}

	propertyStore := store.New(backend)
	if err := propertyStore.Seed(); err != nil {
		log.Printf("Warning: Failed to seed portfolio: %v", err)
	}

	// Initialize Meilisearch when configured
	var searchClient *search.SearchClient
	meilisearchHost := getEnvOrConfig(appConfig.Search.Meilisearch.Host, "MEILISEARCH_HOST", "")
	if meilisearchHost != "" {
		meilisearchKey := getEnvOrConfig(appConfig.Search.Meilisearch.APIKey, "MEILISEARCH_KEY", "")
		searchClient = search.NewSearchClient(meilisearchHost, meilisearchKey)

		if err := searchClient.InitIndex(); err != nil {
			log.Printf("Warning: Failed to initialize search index: %v", err)
		}

		// Rebuild the index from the store on boot
		if all, err := propertyStore.List(true); err == nil {
			if err := searchClient.IndexProperties(all); err != nil {
				log.Printf("Warning: Failed to index portfolio: %v", err)
			}
		}
	} else {
		log.Println("Search: Meilisearch not configured, search endpoints disabled")
	}

	// Initialize enrichment client
	enrichClient := enrich.NewClient(enrich.ClientConfig{
		APIKey:          getEnvOrConfig(appConfig.Enrich.APIKey, "GEMINI_API_KEY", ""),
		GenerationModel: appConfig.Enrich.GenerationModel,
		ReasoningModel:  appConfig.Enrich.ReasoningModel,
		Timeout:         appConfig.Enrich.GetTimeout(),
	})

	// Initialize outbound rate limiter and parcel client
	rateLimiter := ratelimit.NewLimiter(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerDay,
		appConfig.RateLimit.Enabled,
	)
	log.Printf("Rate limiter initialized: %d req/min, %d req/day (enabled: %v)",
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerDay,
		appConfig.RateLimit.Enabled,
	)

	parcelClient := parcels.NewClient(appConfig.Parcels.LayerURL, appConfig.Parcels.GetTimeout(), rateLimiter)
	imageryClient := imagery.NewClient("", 0)

	// Initialize dataset sync and its nightly scheduler
	syncService := syncsvc.NewService(
		appConfig.Storage.DataDir,
		appConfig.Sync.DatasetURL,
		appConfig.Sync.IndexURL,
		appConfig.Sync.GetTimeout(),
	)
	appScheduler := scheduler.NewScheduler(syncService, appConfig)
	if err := appScheduler.Start(); err != nil {
		log.Printf("Warning: Failed to start scheduler: %v", err)
	}
	defer appScheduler.Stop()

	// Setup Gin router
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     appConfig.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	propertyHandler := handlers.NewPropertyHandler(propertyStore, searchClient)
	externalHandler := handlers.NewExternalHandler(propertyStore, enrichClient, parcelClient, imageryClient, searchClient)
	adminHandler := handlers.NewAdminHandler(propertyStore, appScheduler, searchClient, rateLimiter)

	// Routes
	r.GET("/health", healthCheck)

	r.GET("/api/properties", propertyHandler.ListProperties)
	r.POST("/api/properties", propertyHandler.SaveProperty)
	r.GET("/api/properties/:id", propertyHandler.GetProperty)
	r.PUT("/api/properties/:id", propertyHandler.SaveProperty)
	r.DELETE("/api/properties/:id", propertyHandler.DeleteProperty)
	r.POST("/api/properties/:id/transition", propertyHandler.TransitionProperty)
	r.GET("/api/properties/:id/proforma", propertyHandler.GetProforma)

	r.GET("/api/search", propertyHandler.SearchProperties)

	r.POST("/api/properties/:id/enrich", externalHandler.EnrichProperty)
	r.POST("/api/properties/:id/value-plan", externalHandler.GenerateValuePlan)
	r.GET("/api/properties/:id/trends", externalHandler.AnalyzeTrends)
	r.GET("/api/properties/:id/street-view", externalHandler.GetStreetView)
	r.GET("/api/parcels/search", externalHandler.SearchParcels)

	admin := r.Group("/api/admin")
	{
		admin.GET("/stats", adminHandler.GetStats)
		admin.POST("/sync/trigger", adminHandler.TriggerSync)
		admin.POST("/search/reindex", adminHandler.ReindexAll)
	}

	port := getEnv("PORT", fmt.Sprintf("%d", appConfig.Server.Port))
	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now(),
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrConfig returns config value if set, otherwise falls back to environment variable, then default
func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}
