// Package batch groups ready tasks into batches that can run concurrently
// without two members writing the same file.
package batch

import (
	"slices"

	"github.com/aristath/batchplan/internal/scheduler"
)

// ConflictType classifies an overlap between two task manifests.
type ConflictType string

// WriteWrite is the only overlap that separates tasks. Read/read and
// read/write overlaps are allowed inside a batch.
const WriteWrite ConflictType = "write-write"

// Conflict records two tasks that both write at least one common file.
type Conflict struct {
	TaskA string       // Writer that appears first in the input
	TaskB string       // Writer that appears later in the input
	Type  ConflictType // Always WriteWrite
	Files []string     // Every file both tasks write, sorted
}

// Involves reports whether taskID is one side of the conflict.
func (c Conflict) Involves(taskID string) bool {
	return c.TaskA == taskID || c.TaskB == taskID
}

// HasFileManifest reports whether the task declares reads or writes.
func HasFileManifest(t *scheduler.Task) bool {
	return t != nil && t.HasFileManifest()
}

// DetectFileConflicts returns one conflict per pair of tasks that write a
// common file. Tasks without a manifest are left out entirely. The result is
// computed fresh on every call and ordered by the input positions of the pair.
func DetectFileConflicts(tasks []*scheduler.Task) []Conflict {
	writers := make(map[string][]int) // file -> input positions of its writers
	for i, t := range tasks {
		if !HasFileManifest(t) {
			continue
		}
		for _, file := range uniquePaths(t.Writes) {
			writers[file] = append(writers[file], i)
		}
	}

	shared := make(map[[2]int][]string)
	for file, positions := range writers {
		for x := 0; x < len(positions); x++ {
			for y := x + 1; y < len(positions); y++ {
				a, b := positions[x], positions[y]
				if tasks[a].ID == tasks[b].ID {
					continue
				}
				key := [2]int{a, b}
				shared[key] = append(shared[key], file)
			}
		}
	}

	pairs := make([][2]int, 0, len(shared))
	for key := range shared {
		pairs = append(pairs, key)
	}
	slices.SortFunc(pairs, func(p, q [2]int) int {
		if p[0] != q[0] {
			return p[0] - q[0]
		}
		return p[1] - q[1]
	})

	conflicts := make([]Conflict, 0, len(pairs))
	for _, key := range pairs {
		files := shared[key]
		slices.Sort(files)
		conflicts = append(conflicts, Conflict{
			TaskA: tasks[key[0]].ID,
			TaskB: tasks[key[1]].ID,
			Type:  WriteWrite,
			Files: files,
		})
	}
	return conflicts
}

// ConflictSet answers pairwise conflict lookups for one candidate set.
type ConflictSet struct {
	pairs map[[2]string]bool
}

// NewConflictSet indexes conflicts for lookup in either direction.
func NewConflictSet(conflicts []Conflict) ConflictSet {
	set := ConflictSet{pairs: make(map[[2]string]bool, len(conflicts))}
	for _, c := range conflicts {
		set.pairs[pairKey(c.TaskA, c.TaskB)] = true
	}
	return set
}

// Conflicts reports whether a and b were found to conflict.
func (s ConflictSet) Conflicts(a, b string) bool {
	return s.pairs[pairKey(a, b)]
}

// Len returns the number of conflicting pairs.
func (s ConflictSet) Len() int {
	return len(s.pairs)
}

func pairKey(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

func uniquePaths(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
