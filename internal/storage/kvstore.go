package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cre-pipeline/internal/models"
)

// kvRecord is one serialized document in the fallback database
type kvRecord struct {
	Key       string `gorm:"type:varchar(64);primaryKey"`
	Value     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName specifies the table name
func (kvRecord) TableName() string {
	return "kv_documents"
}

// KVStore is the always-available local fallback: the whole collection stored
// as one blob row in a sqlite database.
type KVStore struct {
	db *gorm.DB
}

// NewKVStore opens (creating if needed) the fallback database
func NewKVStore(path string) (*KVStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("kv store: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&kvRecord{}); err != nil {
		return nil, fmt.Errorf("kv store: migrate: %w", err)
	}
	return &KVStore{db: db}, nil
}

// Load reads the whole collection. A missing row is an empty collection.
func (s *KVStore) Load() ([]models.Property, error) {
	var record kvRecord
	result := s.db.Where("key = ?", FallbackKey).First(&record)
	if result.Error == gorm.ErrRecordNotFound {
		return []models.Property{}, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("kv store: load: %w", result.Error)
	}

	var properties []models.Property
	if err := json.Unmarshal(record.Value, &properties); err != nil {
		return nil, fmt.Errorf("kv store: parse document: %w", err)
	}
	return properties, nil
}

// Save upserts the whole collection under the fixed key
func (s *KVStore) Save(properties []models.Property) error {
	data, err := json.Marshal(properties)
	if err != nil {
		return fmt.Errorf("kv store: encode collection: %w", err)
	}

	record := kvRecord{Key: FallbackKey, Value: data, UpdatedAt: time.Now()}

	var existing kvRecord
	result := s.db.Where("key = ?", FallbackKey).First(&existing)
	if result.Error == gorm.ErrRecordNotFound {
		if err := s.db.Create(&record).Error; err != nil {
			return fmt.Errorf("kv store: insert: %w", err)
		}
		return nil
	}
	if result.Error != nil {
		return fmt.Errorf("kv store: save: %w", result.Error)
	}

	if err := s.db.Save(&record).Error; err != nil {
		return fmt.Errorf("kv store: update: %w", err)
	}
	return nil
}

// Close releases the underlying database handle
func (s *KVStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
