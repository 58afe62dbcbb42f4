package imagestore

import (
	"context"
	"sync"

	"github.com/healapp/mealtrack/internal/domain/capture"
)

// MemoryStore keeps photos in process memory. Used when no object storage
// is configured and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStore constructs an empty in-memory photo store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Put stores a copy of the photo bytes under the key.
func (s *MemoryStore) Put(_ context.Context, key string, imageJPEG []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dup := make([]byte, len(imageJPEG))
	copy(dup, imageJPEG)
	s.objects[key] = dup
	return nil
}

// Delete removes the stored photo. Deleting a missing key is a no-op.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Get returns the stored photo, if present.
func (s *MemoryStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	return data, ok
}

// Len reports the number of stored photos.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

var _ capture.ImageStore = (*MemoryStore)(nil)
