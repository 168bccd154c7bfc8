package artifact

import (
	"context"
	"sync"
)

// InMemoryStore keeps artifacts in process memory. It backs tests and
// dev runs that have no object storage configured.
type InMemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{objects: make(map[string]memoryObject)}
}

func (s *InMemoryStore) Upload(_ context.Context, issuanceID string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[issuanceID] = memoryObject{data: buf, contentType: contentType}
	return "memory://certificates/" + issuanceID + extensionFor(contentType), nil
}

// Object returns the stored bytes and content type for an issuance.
func (s *InMemoryStore) Object(issuanceID string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[issuanceID]
	if !ok {
		return nil, "", false
	}
	return append([]byte{}, obj.data...), obj.contentType, true
}

func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
