package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Search    SearchConfig    `yaml:"search"`
	Enrich    EnrichConfig    `yaml:"enrich"`
	Parcels   ParcelsConfig   `yaml:"parcels"`
	Sync      SyncConfig      `yaml:"sync"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// StorageConfig contains persistence settings. DataDir is the user-granted
// directory holding the JSON document; FallbackDBPath is the always-available
// sqlite fallback.
type StorageConfig struct {
	DataDir        string `yaml:"data_dir"`
	FallbackDBPath string `yaml:"fallback_db_path"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings. An empty host
// disables the search index.
type MeilisearchConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
}

// EnrichConfig contains AI enrichment settings
type EnrichConfig struct {
	APIKey          string `yaml:"api_key"`
	GenerationModel string `yaml:"generation_model"`
	ReasoningModel  string `yaml:"reasoning_model"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

// ParcelsConfig contains the parcel-record lookup settings
type ParcelsConfig struct {
	LayerURL       string `yaml:"layer_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// SyncConfig contains the bulk dataset download settings
type SyncConfig struct {
	DatasetURL     string `yaml:"dataset_url"`
	IndexURL       string `yaml:"index_url"`
	TimeoutMinutes int    `yaml:"timeout_minutes"`
	NightlyEnabled bool   `yaml:"nightly_enabled"`
	NightlyRunTime string `yaml:"nightly_run_time"`
}

// RateLimitConfig contains outbound rate limiting for the parcel lookup API
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerDay    int  `yaml:"requests_per_day"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8084,
			CORSOrigins: []string{"http://localhost:5173"},
		},
		Storage: StorageConfig{
			DataDir:        "./data",
			FallbackDBPath: "./data/fallback.db",
		},
		Enrich: EnrichConfig{
			GenerationModel: "gemini-3-flash-preview",
			ReasoningModel:  "gemini-3-pro-preview",
			TimeoutSeconds:  60,
		},
		Parcels: ParcelsConfig{
			LayerURL:       "https://services1.arcgis.com/hGdibHYSPO59RG1h/arcgis/rest/services/L3_TAXPAR_POLY_ASSESS_gdb/FeatureServer/0",
			TimeoutSeconds: 30,
		},
		Sync: SyncConfig{
			DatasetURL:     "https://download.massgis.digital.mass.gov/shapefiles/l3parcels/L3_SHP_STATEWIDE.zip",
			TimeoutMinutes: 120,
			NightlyEnabled: false,
			NightlyRunTime: "02:00",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 30,
			RequestsPerDay:    5000,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// GetTimeout returns the enrichment request timeout as a duration
func (c *EnrichConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetTimeout returns the parcel lookup timeout as a duration
func (c *ParcelsConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetTimeout returns the dataset download timeout as a duration
func (c *SyncConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutMinutes) * time.Minute
}
