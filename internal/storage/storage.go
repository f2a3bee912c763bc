// Package storage persists the full property collection as a single JSON
// document. Two backends implement the same contract: a directory-backed file
// store and a local sqlite key-value fallback. Callers go through Dual, which
// hides which backend served an operation.
package storage

import (
	"fmt"
	"log"

	"cre-pipeline/internal/models"
)

// DBFileName is the fixed document name inside the data directory
const DBFileName = "beaconhill_db.json"

// FallbackKey is the fixed key the sqlite fallback stores the document under
const FallbackKey = "beaconhill_data_fallback"

// Backend loads and saves the entire collection atomically. Partial or
// streaming writes are not part of the contract.
type Backend interface {
	Load() ([]models.Property, error)
	Save(properties []models.Property) error
}

// PersistenceError reports that both the primary backend and the fallback
// failed to complete an operation. It is the only error kind worth a
// caller-level retry.
type PersistenceError struct {
	Op       string
	Primary  error
	Fallback error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: primary: %v; fallback: %v", e.Op, e.Primary, e.Fallback)
}

// Dual prefers the primary backend and falls back per-operation. A nil
// primary means the durable store was never authorized and every operation
// goes straight to the fallback.
type Dual struct {
	primary  Backend
	fallback Backend
}

// NewDual builds the selection policy over the two backends
func NewDual(primary, fallback Backend) *Dual {
	return &Dual{primary: primary, fallback: fallback}
}

// Load reads the collection from the primary store, degrading to the fallback
func (d *Dual) Load() ([]models.Property, error) {
	if d.primary == nil {
		return d.fallback.Load()
	}

	properties, err := d.primary.Load()
	if err == nil {
		return properties, nil
	}
	log.Printf("Storage: primary load failed, trying fallback: %v", err)

	properties, fbErr := d.fallback.Load()
	if fbErr != nil {
		return nil, &PersistenceError{Op: "load", Primary: err, Fallback: fbErr}
	}
	return properties, nil
}

// Save writes the collection to the primary store. A failed write is retried
// on the fallback rather than dropped; an error surfaces only when both legs
// fail.
func (d *Dual) Save(properties []models.Property) error {
	if d.primary == nil {
		return d.fallback.Save(properties)
	}

	err := d.primary.Save(properties)
	if err == nil {
		return nil
	}
	log.Printf("Storage: primary save failed, trying fallback: %v", err)

	if fbErr := d.fallback.Save(properties); fbErr != nil {
		return &PersistenceError{Op: "save", Primary: err, Fallback: fbErr}
	}
	return nil
}
