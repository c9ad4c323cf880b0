package store

import "context"

// ScopedStore prefixes every path with a school scope so that several
// schools can share one backend. The engine itself only ever sees the
// unprefixed logical paths.
type ScopedStore struct {
	inner Store
	scope string
}

// NewScopedStore wraps inner so all paths live under scope. An empty scope
// returns inner unchanged.
func NewScopedStore(inner Store, scope string) Store {
	scope = joinPath(splitPath(scope))
	if scope == "" {
		return inner
	}
	return &ScopedStore{inner: inner, scope: scope}
}

func (s *ScopedStore) resolve(path string) string {
	return s.scope + "/" + joinPath(splitPath(path))
}

// Read reads the value at the scoped path.
func (s *ScopedStore) Read(ctx context.Context, path string) (any, error) {
	return s.inner.Read(ctx, s.resolve(path))
}

// Write writes the value at the scoped path.
func (s *ScopedStore) Write(ctx context.Context, path string, value any) error {
	return s.inner.Write(ctx, s.resolve(path), value)
}

// Update merges fields at the scoped path.
func (s *ScopedStore) Update(ctx context.Context, path string, fields map[string]any) error {
	return s.inner.Update(ctx, s.resolve(path), fields)
}

// Close closes the underlying store.
func (s *ScopedStore) Close() error {
	return s.inner.Close()
}
