package fakes

import (
	"sync"

	"github.com/vvka-141/credprobe/pkg/credprobe"
)

// Store holds documents per "database.collection" key.
type Store struct {
	mu   sync.Mutex
	docs map[string][]credprobe.Document
}

func NewStore() *Store {
	return &Store{docs: make(map[string][]credprobe.Document)}
}

// Seed inserts documents directly, bypassing any scripted failure.
func (s *Store) Seed(database, collection string, docs ...credprobe.Document) {
	for _, doc := range docs {
		s.insert(database+"."+collection, doc)
	}
}

// Count returns the number of documents in the collection.
func (s *Store) Count(database, collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs[database+"."+collection])
}

func (s *Store) insert(key string, doc credprobe.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(credprobe.Document, len(doc))
	for k, v := range doc {
		cp[k] = v
	}
	s.docs[key] = append(s.docs[key], cp)
}

func (s *Store) first(key string) credprobe.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.docs[key]) == 0 {
		return nil
	}
	return s.docs[key][0]
}

func (s *Store) clear(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.docs[key]))
	delete(s.docs, key)
	return n
}
