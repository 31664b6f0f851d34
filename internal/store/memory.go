package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/satushop/kaspisync/pkg/errors"
)

// MemoryStore is an in-process Store used by tests and the operator tools
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string]Document
	notifier *notifier
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]Document),
		notifier: newNotifier(),
	}
}

func (s *MemoryStore) Get(ctx context.Context, path string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[path]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "document", ID: path}
	}
	return cloneDoc(doc), nil
}

func (s *MemoryStore) Set(ctx context.Context, path string, doc Document) error {
	s.mu.Lock()
	s.docs[path] = cloneDoc(doc)
	s.mu.Unlock()

	s.notifier.notify(s, []string{path})
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	delete(s.docs, path)
	s.mu.Unlock()

	s.notifier.notify(s, []string{path})
	return nil
}

func (s *MemoryStore) List(ctx context.Context, prefix string) ([]Keyed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Keyed, 0)
	for path, doc := range s.docs {
		if strings.HasPrefix(path, prefix) {
			result = append(result, Keyed{Path: path, Doc: cloneDoc(doc)})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}

func (s *MemoryStore) Apply(ctx context.Context, batch Batch) error {
	s.mu.Lock()
	touched := make([]string, 0, len(batch))
	for _, op := range batch {
		switch op.Kind {
		case OpSet:
			s.docs[op.Path] = cloneDoc(op.Doc)
		case OpDelete:
			delete(s.docs, op.Path)
		}
		touched = append(touched, op.Path)
	}
	s.mu.Unlock()

	s.notifier.notify(s, touched)
	return nil
}

func (s *MemoryStore) Watch(prefix string, fn SnapshotFunc) CancelFunc {
	return s.notifier.add(prefix, fn)
}

func cloneDoc(doc Document) Document {
	dup := make(Document, len(doc))
	for k, v := range doc {
		dup[k] = v
	}
	return dup
}
