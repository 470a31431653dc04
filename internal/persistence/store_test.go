package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/aristath/batchplan/internal/scheduler"
)

// testStore creates an in-memory store for testing and registers cleanup.
func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewMemoryStore(context.Background())
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func sampleTasks() []*scheduler.Task {
	return []*scheduler.Task{
		{
			ID:          "task-2",
			Name:        "Implement login form",
			DependsOn:   []string{"task-1"},
			Writes:      []string{"src/Login.tsx", "src/login.css"},
			Reads:       []string{"src/api.ts"},
			TestCommand: "npm test",
			Backend:     "gemini",
			Type:        "ui",
		},
		{
			ID:     "task-1",
			Name:   "Add auth API",
			Writes: []string{"src/api.ts"},
		},
		{
			ID:        "task-3",
			Name:      "Wire everything",
			DependsOn: []string{"task-2", "task-1"},
		},
	}
}

func TestSaveAndLoadSpec(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	tasks := sampleTasks()
	if err := store.SaveSpec(ctx, "user-auth", tasks); err != nil {
		t.Fatalf("failed to save spec: %v", err)
	}

	loaded, err := store.LoadSpec(ctx, "user-auth")
	if err != nil {
		t.Fatalf("failed to load spec: %v", err)
	}

	if !reflect.DeepEqual(loaded, tasks) {
		for i := range loaded {
			t.Logf("loaded[%d] = %+v", i, loaded[i])
		}
		t.Fatalf("loaded tasks do not match saved tasks")
	}
}

func TestSaveSpecDoesNotStoreStatus(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	tasks := []*scheduler.Task{{ID: "a", Writes: []string{"a.go"}, Status: scheduler.TaskDone}}
	if err := store.SaveSpec(ctx, "s", tasks); err != nil {
		t.Fatalf("failed to save spec: %v", err)
	}

	loaded, err := store.LoadSpec(ctx, "s")
	if err != nil {
		t.Fatalf("failed to load spec: %v", err)
	}
	if loaded[0].Status != scheduler.TaskPending {
		t.Errorf("Status = %v, want pending", loaded[0].Status)
	}
}

func TestSaveSpecReplaces(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.SaveSpec(ctx, "s", sampleTasks()); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	replacement := []*scheduler.Task{{ID: "only", Name: "Only task", Reads: []string{"README.md"}}}
	if err := store.SaveSpec(ctx, "s", replacement); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	loaded, err := store.LoadSpec(ctx, "s")
	if err != nil {
		t.Fatalf("failed to load spec: %v", err)
	}
	if !reflect.DeepEqual(loaded, replacement) {
		t.Errorf("loaded %+v, want %+v", loaded, replacement)
	}

	specs, err := store.ListSpecs(ctx)
	if err != nil {
		t.Fatalf("ListSpecs failed: %v", err)
	}
	if len(specs) != 1 || specs[0].Tasks != 1 {
		t.Errorf("ListSpecs = %+v, want one spec with one task", specs)
	}
}

func TestSaveSpecRejectsInvalidGraph(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		tasks []*scheduler.Task
		want  error
	}{
		{
			name:  "missing dependency",
			tasks: []*scheduler.Task{{ID: "a", DependsOn: []string{"ghost"}}},
			want:  scheduler.ErrMissingDependency,
		},
		{
			name: "cycle",
			tasks: []*scheduler.Task{
				{ID: "a", DependsOn: []string{"b"}},
				{ID: "b", DependsOn: []string{"a"}},
			},
			want: scheduler.ErrCycle,
		},
		{
			name:  "duplicate",
			tasks: []*scheduler.Task{{ID: "a"}, {ID: "a"}},
			want:  scheduler.ErrDuplicateTask,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.SaveSpec(ctx, tt.name, tt.tasks)
			if !errors.Is(err, tt.want) {
				t.Fatalf("SaveSpec error = %v, want %v", err, tt.want)
			}
			if _, err := store.LoadSpec(ctx, tt.name); !errors.Is(err, ErrSpecNotFound) {
				t.Errorf("invalid spec was stored: %v", err)
			}
		})
	}
}

func TestSaveSpecEmptyName(t *testing.T) {
	store := testStore(t)
	if err := store.SaveSpec(context.Background(), "", sampleTasks()); err == nil {
		t.Fatal("expected error for empty spec name")
	}
}

func TestListSpecs(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.SaveSpec(ctx, "zeta", sampleTasks()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.SaveSpec(ctx, "alpha", []*scheduler.Task{{ID: "x"}}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.SaveSpec(ctx, "empty", nil); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	specs, err := store.ListSpecs(ctx)
	if err != nil {
		t.Fatalf("ListSpecs failed: %v", err)
	}

	var names []string
	counts := make(map[string]int)
	for _, s := range specs {
		names = append(names, s.Name)
		counts[s.Name] = s.Tasks
		if s.CreatedAt.IsZero() {
			t.Errorf("spec %s has zero CreatedAt", s.Name)
		}
	}
	if want := []string{"alpha", "empty", "zeta"}; !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
	if counts["zeta"] != 3 || counts["alpha"] != 1 || counts["empty"] != 0 {
		t.Errorf("task counts = %v", counts)
	}
}

func TestDeleteSpec(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.SaveSpec(ctx, "s", sampleTasks()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.DeleteSpec(ctx, "s"); err != nil {
		t.Fatalf("DeleteSpec failed: %v", err)
	}

	if _, err := store.LoadSpec(ctx, "s"); !errors.Is(err, ErrSpecNotFound) {
		t.Errorf("LoadSpec after delete = %v, want ErrSpecNotFound", err)
	}
	if err := store.DeleteSpec(ctx, "s"); !errors.Is(err, ErrSpecNotFound) {
		t.Errorf("second DeleteSpec = %v, want ErrSpecNotFound", err)
	}

	// The name is free for reuse.
	if err := store.SaveSpec(ctx, "s", []*scheduler.Task{{ID: "fresh"}}); err != nil {
		t.Fatalf("save after delete failed: %v", err)
	}
}

func TestMemoryStoresAreIsolated(t *testing.T) {
	ctx := context.Background()
	first := testStore(t)
	second := testStore(t)

	if err := first.SaveSpec(ctx, "s", sampleTasks()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := second.LoadSpec(ctx, "s"); !errors.Is(err, ErrSpecNotFound) {
		t.Errorf("second store sees first store's spec: %v", err)
	}
}

func TestSQLiteStoreOnDisk(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "catalog.db")

	store, err := NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	if err := store.SaveSpec(ctx, "s", sampleTasks()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	store.Close()

	reopened, err := NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	loaded, err := reopened.LoadSpec(ctx, "s")
	if err != nil {
		t.Fatalf("LoadSpec failed: %v", err)
	}
	if len(loaded) != 3 || loaded[0].ID != "task-2" {
		t.Errorf("loaded %d tasks starting with %q", len(loaded), loaded[0].ID)
	}
}
