// Package store provides the path-addressed hierarchical document store the
// fee engine reads configuration from and writes mutations through.
//
// Paths are slash-delimited logical paths such as "finance/2025/classes/P1".
// Reading an interior path assembles the subtree below it into nested maps;
// reading an absent path yields nil, never an error. Writing nil removes the
// node and everything under it.
package store

import (
	"context"
	"strings"
)

// Store is the persistence contract consumed by the engine. Values are
// JSON-shaped: maps, slices, strings, float64 numbers, bools and nil.
type Store interface {
	// Read returns the value at path, or nil when nothing is stored there.
	Read(ctx context.Context, path string) (any, error)
	// Write replaces the value at path wholesale. A nil value deletes the
	// node and its descendants.
	Write(ctx context.Context, path string, value any) error
	// Update shallow-merges the given fields into the map stored at path,
	// creating it when absent.
	Update(ctx context.Context, path string, fields map[string]any) error
	Close() error
}

func splitPath(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

func joinPath(segs []string) string {
	return strings.Join(segs, "/")
}
