package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore keeps the document tree in process memory. It backs tests and
// serves as a throwaway backend when no database is configured.
//
// Values are normalized to JSON types on write so that reads return the same
// shapes a persistent backend would.
type MemoryStore struct {
	mu   sync.RWMutex
	root map[string]any
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{root: make(map[string]any)}
}

// Read returns a deep copy of the subtree at path, or nil when absent.
func (m *MemoryStore) Read(_ context.Context, path string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var node any = m.root
	for _, seg := range splitPath(path) {
		obj, ok := node.(map[string]any)
		if !ok {
			return nil, nil
		}
		node, ok = obj[seg]
		if !ok {
			return nil, nil
		}
	}
	return deepCopy(node)
}

// Write replaces the node at path. Writing nil deletes it.
func (m *MemoryStore) Write(_ context.Context, path string, value any) error {
	segs := splitPath(path)
	if len(segs) == 0 {
		return fmt.Errorf("cannot write to the store root")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if value == nil {
		m.deleteLocked(segs)
		return nil
	}

	normalized, err := deepCopy(value)
	if err != nil {
		return err
	}

	node := m.root
	for _, seg := range segs[:len(segs)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[seg] = child
		}
		node = child
	}
	node[segs[len(segs)-1]] = normalized
	return nil
}

// Update shallow-merges fields into the map at path, creating it if needed.
func (m *MemoryStore) Update(ctx context.Context, path string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	segs := splitPath(path)
	if len(segs) == 0 {
		return fmt.Errorf("cannot update the store root")
	}

	node := m.root
	for _, seg := range segs[:len(segs)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[seg] = child
		}
		node = child
	}

	last := segs[len(segs)-1]
	target, ok := node[last].(map[string]any)
	if !ok {
		target = make(map[string]any)
		node[last] = target
	}
	for k, v := range fields {
		normalized, err := deepCopy(v)
		if err != nil {
			return err
		}
		if normalized == nil {
			delete(target, k)
			continue
		}
		target[k] = normalized
	}
	return nil
}

// Close is a no-op for the in-memory backend.
func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) deleteLocked(segs []string) {
	node := m.root
	for _, seg := range segs[:len(segs)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			return
		}
		node = child
	}
	delete(node, segs[len(segs)-1])
}

// deepCopy round-trips through JSON to both isolate callers from internal
// state and coerce arbitrary Go values into JSON shapes.
func deepCopy(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}
	return out, nil
}
