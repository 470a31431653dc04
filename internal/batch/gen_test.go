package batch

import (
	"fmt"
	"math/rand/v2"

	"github.com/aristath/batchplan/internal/scheduler"
)

// gen produces seeded task sets for property-style tests.
type gen struct {
	rng *rand.Rand
}

func newGen(seed uint64) *gen {
	return &gen{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

var (
	genDirs = []string{"", "src/", "internal/", "web/ui/", "docs/"}
	genExts = []string{".py", ".js", ".ts", ".json", ".md", ".txt", ".go"}
)

func (g *gen) path() string {
	dir := genDirs[g.rng.IntN(len(genDirs))]
	ext := genExts[g.rng.IntN(len(genExts))]
	return fmt.Sprintf("%sf%d%s", dir, g.rng.IntN(40), ext)
}

func (g *gen) paths(limit int) []string {
	n := g.rng.IntN(limit + 1)
	var out []string
	for i := 0; i < n; i++ {
		out = append(out, g.path())
	}
	return out
}

// conflictingPair returns two tasks that both write shared.
func (g *gen) conflictingPair() (*scheduler.Task, *scheduler.Task, string) {
	shared := g.path()
	a := &scheduler.Task{
		ID:     fmt.Sprint(1 + g.rng.IntN(50)),
		Writes: append([]string{shared}, g.paths(2)...),
	}
	b := &scheduler.Task{
		ID:     fmt.Sprint(51 + g.rng.IntN(50)),
		Writes: append([]string{shared}, g.paths(2)...),
	}
	return a, b, shared
}

// disjointTasks returns 2-5 manifested tasks whose write sets never overlap.
// Reads may overlap freely.
func (g *gen) disjointTasks() []*scheduler.Task {
	n := 2 + g.rng.IntN(4)
	used := make(map[string]bool)
	tasks := make([]*scheduler.Task, 0, n)
	for i := 0; i < n; i++ {
		t := &scheduler.Task{ID: fmt.Sprint(i + 1), Reads: g.paths(3)}
		writes := 1 + g.rng.IntN(3)
		for w := 0; w < writes; w++ {
			file := fmt.Sprintf("task%d/out%d.go", i, w)
			if !used[file] {
				used[file] = true
				t.Writes = append(t.Writes, file)
			}
		}
		tasks = append(tasks, t)
	}
	return tasks
}

// mixedTasks returns 1-4 manifested tasks (which may conflict) followed by
// 0-3 unmanifested ones, with unique IDs, shuffled together.
func (g *gen) mixedTasks() (all []*scheduler.Task, unmanifested map[string]bool) {
	unmanifested = make(map[string]bool)
	manifested := 1 + g.rng.IntN(4)
	for i := 0; i < manifested; i++ {
		all = append(all, &scheduler.Task{
			ID:     fmt.Sprintf("m%d", i),
			Writes: g.paths(5),
			Reads:  g.paths(5),
		})
	}
	bare := g.rng.IntN(4)
	for i := 0; i < bare; i++ {
		id := fmt.Sprintf("u%d", i)
		unmanifested[id] = true
		all = append(all, &scheduler.Task{ID: id})
	}
	g.rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })

	// A generated manifested task may end up with no reads or writes.
	for _, t := range all {
		if !t.HasFileManifest() {
			unmanifested[t.ID] = true
		}
	}
	return all, unmanifested
}
