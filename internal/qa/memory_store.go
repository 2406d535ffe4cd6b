package qa

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryDocumentStore struct {
	mu   sync.RWMutex
	docs []Document
}

func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{}
}

func (s *MemoryDocumentStore) Add(ctx context.Context, name, content string) (Document, error) {
	if strings.TrimSpace(content) == "" {
		return Document{}, ErrEmptyDocument
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, d := range s.docs {
		if d.Name == name {
			s.docs[i].Content = content
			return s.docs[i], nil
		}
	}
	doc := Document{ID: uuid.New(), Name: name, Content: content, CreatedAt: time.Now().UTC()}
	s.docs = append(s.docs, doc)
	return doc, nil
}

func (s *MemoryDocumentStore) List(ctx context.Context) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Document(nil), s.docs...), nil
}

func (s *MemoryDocumentStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}
