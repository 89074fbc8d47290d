package drawing

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ChangeKind identifies a store mutation.
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeUpdated
	ChangeRemoved
	ChangeCleared
	ChangeSelected
	ChangeTool
	ChangeLoaded
)

// Change is delivered to subscribers after every mutation, once the store is
// fully updated.
type Change struct {
	Kind ChangeKind
	ID   string
}

// Store is the single source of truth for annotations, the selection and the
// active tool. Annotations keep insertion order.
type Store struct {
	mu       sync.RWMutex
	items    []Annotation
	selected string
	tool     Tool
	newID    func() string

	subMu  sync.Mutex
	subs   []subscriber
	nextID int
}

type subscriber struct {
	id int
	fn func(Change)
}

// Option modifies a Store during creation.
type Option func(*Store)

// WithIDGenerator replaces the uuid based identifier source.
func WithIDGenerator(fn func() string) Option { return func(s *Store) { s.newID = fn } }

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		newID: func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Subscribe registers fn for change notifications and returns a function that
// removes it.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) emit(c Change) {
	s.subMu.Lock()
	fns := make([]func(Change), len(s.subs))
	for i, sub := range s.subs {
		fns[i] = sub.fn
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// Add assigns a fresh ID to draft, appends it and returns the stored copy.
func (s *Store) Add(draft Annotation) (Annotation, error) {
	if err := draft.Validate(); err != nil {
		return Annotation{}, err
	}
	a := draft.Clone()
	s.mu.Lock()
	a.ID = s.newID()
	for s.indexOf(a.ID) >= 0 {
		a.ID = s.newID()
	}
	s.items = append(s.items, a)
	s.mu.Unlock()
	s.emit(Change{Kind: ChangeAdded, ID: a.ID})
	return a.Clone(), nil
}

// Load appends previously persisted annotations keeping their IDs. It fails
// without modifying the store if any entry is invalid or duplicates an ID.
func (s *Store) Load(items []Annotation) error {
	s.mu.Lock()
	seen := make(map[string]bool, len(s.items)+len(items))
	for _, a := range s.items {
		seen[a.ID] = true
	}
	batch := make([]Annotation, 0, len(items))
	for _, a := range items {
		if a.ID == "" {
			s.mu.Unlock()
			return fmt.Errorf("%w: missing id", ErrInvalidAnnotation)
		}
		if err := a.Validate(); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("annotation %s: %w", a.ID, err)
		}
		if seen[a.ID] {
			s.mu.Unlock()
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidAnnotation, a.ID)
		}
		seen[a.ID] = true
		batch = append(batch, a.Clone())
	}
	s.items = append(s.items, batch...)
	s.mu.Unlock()
	s.emit(Change{Kind: ChangeLoaded})
	return nil
}

// Update merges p into the annotation with the given ID. It is a no-op
// returning false when the ID is absent.
func (s *Store) Update(id string, p Patch) (Annotation, bool) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Annotation{}, false
	}
	p.apply(&s.items[i])
	out := s.items[i].Clone()
	s.mu.Unlock()
	s.emit(Change{Kind: ChangeUpdated, ID: id})
	return out, true
}

// Remove deletes the annotation with the given ID, clearing the selection if
// it pointed at it.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	if s.selected == id {
		s.selected = ""
	}
	s.mu.Unlock()
	s.emit(Change{Kind: ChangeRemoved, ID: id})
	return true
}

// Clear removes every annotation and returns the removed IDs in order.
func (s *Store) Clear() []string {
	s.mu.Lock()
	ids := make([]string, len(s.items))
	for i, a := range s.items {
		ids[i] = a.ID
	}
	s.items = nil
	s.selected = ""
	s.mu.Unlock()
	s.emit(Change{Kind: ChangeCleared})
	return ids
}

// Select sets the selection. An empty id clears it. Selecting an unknown ID
// leaves the selection untouched and returns false.
func (s *Store) Select(id string) bool {
	s.mu.Lock()
	if id != "" && s.indexOf(id) < 0 {
		s.mu.Unlock()
		return false
	}
	changed := s.selected != id
	s.selected = id
	s.mu.Unlock()
	if changed {
		s.emit(Change{Kind: ChangeSelected, ID: id})
	}
	return true
}

// Selected returns the selected annotation ID.
func (s *Store) Selected() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected, s.selected != ""
}

// SetTool changes the active tool. Subscribers use ChangeTool to drop any
// pending point or preview.
func (s *Store) SetTool(t Tool) {
	s.mu.Lock()
	s.tool = t
	s.mu.Unlock()
	s.emit(Change{Kind: ChangeTool})
}

// Tool returns the active tool.
func (s *Store) Tool() Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tool
}

// Get returns a copy of the annotation with the given ID.
func (s *Store) Get(id string) (Annotation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return Annotation{}, false
	}
	return s.items[i].Clone(), true
}

// All returns copies of every annotation in insertion order.
func (s *Store) All() []Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Annotation, len(s.items))
	for i, a := range s.items {
		out[i] = a.Clone()
	}
	return out
}

// Len returns the number of annotations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
