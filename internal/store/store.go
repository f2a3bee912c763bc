// Package store owns the authoritative property collection. Every mutation
// follows the same discipline: load the whole collection, mutate the single
// target record, write the whole collection back. Status changes go through
// Transition exclusively; Save never touches status or history on an existing
// record.
package store

import (
	"errors"
	"fmt"
	"log"
	"time"

	"cre-pipeline/internal/models"
	"cre-pipeline/internal/storage"
)

// ErrNotFound reports an operation that referenced an id absent from the
// collection
var ErrNotFound = errors.New("property not found")

// InvalidTransitionError reports a requested status change that is not in the
// allowed transition table
type InvalidTransitionError struct {
	From models.PropertyStatus
	To   models.PropertyStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// Store is the property collection service
type Store struct {
	backend storage.Backend
	now     func() time.Time
}

// New creates a store over the given persistence backend
func New(backend storage.Backend) *Store {
	return &Store{backend: backend, now: time.Now}
}

// List returns the collection in insertion order. Records in terminal states
// (PASSED, DISPOSED) are excluded unless includeHidden is set.
func (s *Store) List(includeHidden bool) ([]models.Property, error) {
	properties, err := s.backend.Load()
	if err != nil {
		return nil, err
	}
	if includeHidden {
		return properties, nil
	}

	visible := make([]models.Property, 0, len(properties))
	for _, p := range properties {
		if !p.Status.IsTerminal() {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

// GetByID returns one record or ErrNotFound
func (s *Store) GetByID(id string) (models.Property, error) {
	properties, err := s.backend.Load()
	if err != nil {
		return models.Property{}, err
	}
	for _, p := range properties {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Property{}, ErrNotFound
}

// Save upserts a record by id. On update the stored status and history are
// preserved verbatim: financial edits and pipeline moves are different
// operations and must not clobber each other. On insert the record is stored
// as given (missing id and status get defaults). Validation failures are
// rejected before any write.
func (s *Store) Save(property models.Property) (models.Property, error) {
	if err := property.Validate(); err != nil {
		return models.Property{}, err
	}

	properties, err := s.backend.Load()
	if err != nil {
		return models.Property{}, err
	}

	if property.ID == "" {
		property.ID = models.NewID()
	}
	if property.Status == "" {
		property.Status = models.StatusDiscover
	}

	updated := false
	for i := range properties {
		if properties[i].ID != property.ID {
			continue
		}
		property.Status = properties[i].Status
		property.History = properties[i].History
		properties[i] = property
		updated = true
		break
	}
	if !updated {
		properties = append(properties, property)
	}

	if err := s.backend.Save(properties); err != nil {
		return models.Property{}, err
	}
	return property, nil
}

// Transition moves a record to a new pipeline stage, appending the
// pre-transition status to its history. It is the only operation that changes
// status.
func (s *Store) Transition(id string, newStatus models.PropertyStatus, note string) (models.Property, error) {
	properties, err := s.backend.Load()
	if err != nil {
		return models.Property{}, err
	}

	for i := range properties {
		if properties[i].ID != id {
			continue
		}

		current := properties[i].Status
		if !models.CanTransition(current, newStatus) {
			return models.Property{}, &InvalidTransitionError{From: current, To: newStatus}
		}

		if note == "" {
			note = "Moved to " + string(newStatus)
		}
		properties[i].History = append(properties[i].History, models.StatusHistory{
			Status: current,
			Date:   s.now(),
			Note:   note,
		})
		properties[i].Status = newStatus

		if err := s.backend.Save(properties); err != nil {
			return models.Property{}, err
		}
		log.Printf("Store: property %s moved %s -> %s", id, current, newStatus)
		return properties[i], nil
	}

	return models.Property{}, ErrNotFound
}

// HardDelete removes a record entirely. Irreversible; the normal workflow
// ends a property with a terminal transition instead.
func (s *Store) HardDelete(id string) error {
	properties, err := s.backend.Load()
	if err != nil {
		return err
	}

	kept := make([]models.Property, 0, len(properties))
	found := false
	for _, p := range properties {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return ErrNotFound
	}

	if err := s.backend.Save(kept); err != nil {
		return err
	}
	log.Printf("Store: property %s hard-deleted", id)
	return nil
}

// Stats returns the record count per pipeline stage
func (s *Store) Stats() (map[models.PropertyStatus]int, error) {
	properties, err := s.backend.Load()
	if err != nil {
		return nil, err
	}

	counts := make(map[models.PropertyStatus]int, len(models.AllStatuses()))
	for _, status := range models.AllStatuses() {
		counts[status] = 0
	}
	for _, p := range properties {
		counts[p.Status]++
	}
	return counts, nil
}
