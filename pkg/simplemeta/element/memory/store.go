package memory

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/simple-meta/pkg/simplemeta"
	"gopkg.in/yaml.v3"
)

// Store implements simplemeta.ElementStore using in-memory storage
type Store struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*simplemeta.Entry
	byURI   map[string]uuid.UUID
}

// New creates a new in-memory element store
func New() *Store {
	return &Store{
		entries: make(map[uuid.UUID]*simplemeta.Entry),
		byURI:   make(map[string]uuid.UUID),
	}
}

// Put stores copies of the entries. Entries without an id get one.
func (s *Store) Put(entries ...*simplemeta.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		entryCopy := *e
		if entryCopy.EntryID == uuid.Nil {
			entryCopy.EntryID = uuid.New()
			e.EntryID = entryCopy.EntryID
		}
		entryCopy.URI = simplemeta.NormalizeURI(entryCopy.URI)

		if old, exists := s.entries[entryCopy.EntryID]; exists {
			delete(s.byURI, old.URI)
		}
		s.entries[entryCopy.EntryID] = &entryCopy
		s.byURI[entryCopy.URI] = entryCopy.EntryID
	}
}

// Remove deletes an entry
func (s *Store) Remove(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[id]
	if !exists {
		return simplemeta.ErrElementNotFound
	}
	delete(s.byURI, e.URI)
	delete(s.entries, id)
	return nil
}

// Element returns a copy of the entry with the given id
func (s *Store) Element(ctx context.Context, id uuid.UUID) (simplemeta.Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[id]
	if !exists {
		return nil, simplemeta.ErrElementNotFound
	}
	entryCopy := *e
	return &entryCopy, nil
}

// ElementByURI returns a copy of the entry served at uri
func (s *Store) ElementByURI(ctx context.Context, uri string) (simplemeta.Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byURI[simplemeta.NormalizeURI(uri)]
	if !exists {
		return nil, simplemeta.ErrElementNotFound
	}
	entryCopy := *s.entries[id]
	return &entryCopy, nil
}

// MatchedElement routes the request URI carried by ctx
func (s *Store) MatchedElement(ctx context.Context) (simplemeta.Element, error) {
	uri, ok := simplemeta.RequestURIFromContext(ctx)
	if !ok {
		return nil, nil
	}
	return s.ElementByURI(ctx, uri)
}

// List returns copies of all entries ordered by URI
func (s *Store) List() []*simplemeta.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*simplemeta.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		entryCopy := *e
		result = append(result, &entryCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].URI < result[j].URI
	})
	return result
}

// fixtures is the YAML layout of an entry fixture file
type fixtures struct {
	Entries []*simplemeta.Entry `yaml:"entries"`
}

// Load reads entries from a YAML fixture document
func (s *Store) Load(r io.Reader) error {
	var doc fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return fmt.Errorf("decode fixtures: %w", err)
	}
	s.Put(doc.Entries...)
	return nil
}

// LoadFile reads entries from a YAML fixture file
func (s *Store) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()
	return s.Load(f)
}
