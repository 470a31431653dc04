package batch

import (
	"github.com/aristath/batchplan/internal/scheduler"
)

// Batch is a set of tasks that may run concurrently, in input order.
type Batch []*scheduler.Task

// IDs returns the task IDs of the batch.
func (b Batch) IDs() []string {
	ids := make([]string, 0, len(b))
	for _, t := range b {
		ids = append(ids, t.ID)
	}
	return ids
}

// Writes returns every file written by a member of the batch.
func (b Batch) Writes() []string {
	var files []string
	for _, t := range b {
		files = append(files, t.Writes...)
	}
	return uniquePaths(files)
}

// PartitionByConflicts splits tasks into batches such that:
//   - every task lands in exactly one batch,
//   - no batch holds two tasks with a write-write conflict,
//   - a task without a manifest is always alone in its batch,
//   - manifested tasks are packed first-fit in input order.
//
// Batches are ordered by the input position of the task that opened them.
// First-fit is a greedy colouring and may use more batches than the minimum.
func PartitionByConflicts(tasks []*scheduler.Task) []Batch {
	return PartitionWithLimit(tasks, 0)
}

// PartitionWithLimit is PartitionByConflicts with at most maxSize tasks per
// batch. maxSize <= 0 means no limit.
func PartitionWithLimit(tasks []*scheduler.Task, maxSize int) []Batch {
	conflicts := NewConflictSet(DetectFileConflicts(tasks))

	var (
		batches []*Batch // in opening order
		open    []*Batch // batches that accept manifested tasks
	)

	for _, t := range tasks {
		if t == nil {
			continue
		}

		// Unknown footprint: treat as conflicting with everything.
		if !HasFileManifest(t) {
			b := Batch{t}
			batches = append(batches, &b)
			continue
		}

		var target *Batch
		for _, b := range open {
			if maxSize > 0 && len(*b) >= maxSize {
				continue
			}
			if !conflictsWithAny(conflicts, t, *b) {
				target = b
				break
			}
		}

		if target == nil {
			b := Batch{}
			target = &b
			open = append(open, target)
			batches = append(batches, target)
		}
		*target = append(*target, t)
	}

	out := make([]Batch, 0, len(batches))
	for _, b := range batches {
		out = append(out, *b)
	}
	return out
}

func conflictsWithAny(conflicts ConflictSet, t *scheduler.Task, members Batch) bool {
	if conflicts.Len() == 0 {
		return false
	}
	for _, m := range members {
		if conflicts.Conflicts(t.ID, m.ID) {
			return true
		}
	}
	return false
}
