package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// MemoryStore keeps objects in process memory. It backs local runs without a
// bucket and the tests.
type MemoryStore struct {
	BaseURL string

	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemoryStore creates an empty store whose public URLs start with baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		BaseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string][]byte),
	}
}

// Upload stores data under objectName.
func (s *MemoryStore) Upload(_ context.Context, objectName string, data io.Reader, _ string) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectName] = buf
	return nil
}

// PublicURL is BaseURL joined with objectName.
func (s *MemoryStore) PublicURL(objectName string) string {
	return fmt.Sprintf("%s/%s", s.BaseURL, objectName)
}

// Delete removes objectName.
func (s *MemoryStore) Delete(_ context.Context, objectName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, objectName)
	return nil
}

// DeletePrefix removes every object whose name starts with prefix.
func (s *MemoryStore) DeletePrefix(_ context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for name := range s.objects {
		if strings.HasPrefix(name, prefix) {
			delete(s.objects, name)
			removed++
		}
	}
	return removed, nil
}

// Get returns the stored bytes of objectName.
func (s *MemoryStore) Get(objectName string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[objectName]
	return b, ok
}

// Len is the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
