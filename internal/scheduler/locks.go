package scheduler

import (
	"slices"
	"sync"
)

// WriteLocks provides per-file mutual exclusion for tasks dispatched at the
// same time. Batches already keep write sets disjoint; the locks also cover
// drivers that overlap batches.
type WriteLocks struct {
	mu    sync.Mutex            // Guards the files map itself
	files map[string]*fileEntry // Per-file mutexes, dropped when unused
}

type fileEntry struct {
	mu   sync.Mutex
	refs int
}

// NewWriteLocks creates an empty lock table.
func NewWriteLocks() *WriteLocks {
	return &WriteLocks{
		files: make(map[string]*fileEntry),
	}
}

// Lock acquires the mutex for a single path.
func (w *WriteLocks) Lock(path string) {
	w.mu.Lock()
	entry, exists := w.files[path]
	if !exists {
		entry = &fileEntry{}
		w.files[path] = entry
	}
	entry.refs++
	w.mu.Unlock()

	// Block outside the table lock so other paths stay available
	entry.mu.Lock()
}

// Unlock releases the mutex for a single path.
func (w *WriteLocks) Unlock(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	entry, exists := w.files[path]
	if !exists {
		return
	}
	entry.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(w.files, path)
	}
}

// LockAll acquires every path in lexicographic order, so two callers with
// overlapping sets cannot deadlock. Repeated paths are locked once. The
// returned func releases them.
func (w *WriteLocks) LockAll(paths []string) func() {
	sorted := sortedUnique(paths)
	for _, path := range sorted {
		w.Lock(path)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(sorted) - 1; i >= 0; i-- {
				w.Unlock(sorted[i])
			}
		})
	}
}

// Len returns the number of paths currently locked or waited on.
func (w *WriteLocks) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.files)
}

func sortedUnique(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	sorted := slices.Clone(paths)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}
