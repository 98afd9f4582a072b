// Package dedup provides the in-memory index of already-ingested record
// identifiers. The index is seeded once from the persistent store before a
// run starts and is the sole authority on whether a record is new.
package dedup

import (
	"github.com/jonesrussell/socialcrawl/internal/domain"
)

// Key identifies one logical record across platforms.
type Key struct {
	Platform domain.Platform
	ID       string
}

// Index is a monotonically growing set of (platform, id) pairs. It is owned
// by exactly one orchestrator for the duration of a run and is not safe for
// concurrent writers.
type Index struct {
	seen map[Key]struct{}
}

// NewIndex creates an empty index. It must be seeded before use; the
// orchestrator fails closed if the seed read from storage fails.
func NewIndex() *Index {
	return &Index{seen: make(map[Key]struct{})}
}

// Seed replaces the index state with the given identifiers. Called once
// before a run starts.
func (i *Index) Seed(ids map[Key]struct{}) {
	i.seen = make(map[Key]struct{}, len(ids))
	for k := range ids {
		i.seen[k] = struct{}{}
	}
}

// Contains reports whether the record has been seen before.
func (i *Index) Contains(platform domain.Platform, id string) bool {
	_, ok := i.seen[Key{Platform: platform, ID: id}]
	return ok
}

// Add marks a record as seen. Adding an existing key is a no-op.
func (i *Index) Add(platform domain.Platform, id string) {
	i.seen[Key{Platform: platform, ID: id}] = struct{}{}
}

// Len returns the number of distinct keys in the index.
func (i *Index) Len() int {
	return len(i.seen)
}
