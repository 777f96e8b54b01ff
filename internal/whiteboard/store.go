// Package whiteboard holds the ordered set of elements drawn on the meeting board.
//
// Store is not safe for concurrent use; its owner serializes access.
package whiteboard

import (
	"fmt"
	"slices"

	"github.com/cwrk-planet/meeting-service/internal/domain"
)

type Store struct {
	elements []domain.Element
	index    map[string]int // id -> position in elements
}

func New() *Store {
	return &Store{index: make(map[string]int)}
}

func (s *Store) Len() int { return len(s.elements) }

func (s *Store) has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Append adds e at the top of the z-order.
func (s *Store) Append(e domain.Element) (domain.Element, error) {
	e = e.WithDefaults().Clone()
	if s.has(e.ID) {
		return domain.Element{}, fmt.Errorf("%w: %s", domain.ErrDuplicateID, e.ID)
	}
	if err := validateElement(e); err != nil {
		return domain.Element{}, err
	}
	if err := checkEndpoints(e, s.has); err != nil {
		return domain.Element{}, err
	}

	s.index[e.ID] = len(s.elements)
	s.elements = append(s.elements, e)
	return e.Clone(), nil
}

func (s *Store) Find(id string) (domain.Element, error) {
	i, ok := s.index[id]
	if !ok {
		return domain.Element{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return s.elements[i].Clone(), nil
}

// Update applies a partial patch. ID and kind never change.
func (s *Store) Update(id string, patch domain.ElementPatch) (domain.Element, error) {
	i, ok := s.index[id]
	if !ok {
		return domain.Element{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	next := patch.Apply(s.elements[i])
	if err := validateElement(next); err != nil {
		return domain.Element{}, err
	}
	if err := checkEndpoints(next, s.has); err != nil {
		return domain.Element{}, err
	}

	s.elements[i] = next
	return next.Clone(), nil
}

// Remove deletes an element. Elements still referenced by a connector are
// never removed: the call fails with ErrDanglingReference and the board is
// left as it was.
func (s *Store) Remove(id string) error {
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	for _, e := range s.elements {
		if e.References(id) {
			return fmt.Errorf("%w: %s is an endpoint of %s", domain.ErrDanglingReference, id, e.ID)
		}
	}

	s.elements = slices.Delete(s.elements, i, i+1)
	s.reindex()
	return nil
}

// Connect adds targetID to the endpoints of a connector. It reports false
// when the endpoint was already present.
func (s *Store) Connect(connectorID, targetID string) (bool, error) {
	i, err := s.connector(connectorID)
	if err != nil {
		return false, err
	}
	if !s.has(targetID) {
		return false, fmt.Errorf("%w: %s", domain.ErrNotFound, targetID)
	}
	if targetID == connectorID {
		return false, fmt.Errorf("%w: connector %s references itself", domain.ErrInvalidElement, connectorID)
	}
	if slices.Contains(s.elements[i].Connections, targetID) {
		return false, nil
	}

	s.elements[i].Connections = append(s.elements[i].Connections, targetID)
	return true, nil
}

// Disconnect drops targetID from a connector's endpoints and reports whether it was there.
func (s *Store) Disconnect(connectorID, targetID string) (bool, error) {
	i, err := s.connector(connectorID)
	if err != nil {
		return false, err
	}

	before := len(s.elements[i].Connections)
	s.elements[i].Connections = slices.DeleteFunc(s.elements[i].Connections, func(id string) bool {
		return id == targetID
	})
	return len(s.elements[i].Connections) < before, nil
}

func (s *Store) connector(id string) (int, error) {
	i, ok := s.index[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if s.elements[i].Kind != domain.KindConnector {
		return 0, fmt.Errorf("%w: %s is a %s, not a connector", domain.ErrInvalidElement, id, s.elements[i].Kind)
	}
	return i, nil
}

// Elements returns a deep copy in display order.
func (s *Store) Elements() []domain.Element {
	out := make([]domain.Element, len(s.elements))
	for i, e := range s.elements {
		out[i] = e.Clone()
	}
	return out
}

func (s *Store) Clear() {
	s.elements = nil
	s.index = make(map[string]int)
}

// Replace swaps the whole board for elements. Nothing changes unless every
// element validates; connectors may point at any element of the new set.
func (s *Store) Replace(elements []domain.Element) error {
	next := New()
	for _, e := range elements {
		e = e.WithDefaults().Clone()
		if next.has(e.ID) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateID, e.ID)
		}
		if err := validateElement(e); err != nil {
			return err
		}
		next.index[e.ID] = len(next.elements)
		next.elements = append(next.elements, e)
	}
	for _, e := range next.elements {
		if err := checkEndpoints(e, next.has); err != nil {
			return err
		}
	}

	s.elements, s.index = next.elements, next.index
	return nil
}

func (s *Store) Clone() *Store {
	return &Store{elements: s.Elements(), index: cloneIndex(s.index)}
}

func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.elements))
	for i, e := range s.elements {
		s.index[e.ID] = i
	}
}

func cloneIndex(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
