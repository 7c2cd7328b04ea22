package ecs

import (
	"errors"
	"fmt"
)

// Store is the kind-erased view of a Pool used for bulk teardown.
type Store interface {
	Release(owner EntityID) error
	Has(owner EntityID) bool
	Len() int
	Clear()
}

// Stores maps each component kind to its store.
type Stores struct {
	byKind [MaxKinds]Store
}

// Register installs s as the store for kind k, replacing any previous one.
func (r *Stores) Register(k Kind, s Store) {
	r.byKind[k] = s
}

// At returns the store for kind k, or nil if none was registered.
func (r *Stores) At(k Kind) Store {
	if int(k) >= MaxKinds {
		return nil
	}
	return r.byKind[k]
}

// ReleaseAll releases owner's component in every store named by mask.
// Every kind is attempted; the errors are joined.
func (r *Stores) ReleaseAll(owner EntityID, mask Mask) error {
	var errs []error
	for _, k := range mask.Kinds() {
		s := r.byKind[k]
		if s == nil {
			errs = append(errs, fmt.Errorf("kind %d: no store registered", k))
			continue
		}
		if err := s.Release(owner); err != nil {
			errs = append(errs, fmt.Errorf("kind %d: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

// Clear empties every registered store.
func (r *Stores) Clear() {
	for _, s := range r.byKind {
		if s != nil {
			s.Clear()
		}
	}
}
