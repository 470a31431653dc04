package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aristath/batchplan/internal/scheduler"
)

const testTaskFile = `tasks:
  - id: api
    name: Add auth API
    writes: [src/api.ts]
  - id: types
    name: Shared types
    writes: [src/types.ts]
  - id: api-docs
    name: Document the API
    writes: [src/api.ts]
  - id: form
    name: Login form component
    dependencies: [api, types]
    writes: [src/components/Login.tsx]
`

// setup isolates config lookup and the catalog from the real environment and
// writes the sample task file.
func setup(t *testing.T) (taskPath, storePath string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BATCHPLAN_BACKENDS", "")
	t.Setenv("BATCHPLAN_CONCURRENCY", "")
	t.Setenv("BATCHPLAN_STORE", "")

	taskPath = filepath.Join(dir, "tasks.yaml")
	if err := os.WriteFile(taskPath, []byte(testTaskFile), 0644); err != nil {
		t.Fatalf("writing task file: %v", err)
	}
	return taskPath, filepath.Join(dir, "catalog.db")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestOrderCommand(t *testing.T) {
	taskPath, _ := setup(t)

	out, err := execute(t, "order", "--source", taskPath)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	want := "api\ntypes\napi-docs\nform\n"
	if out != want {
		t.Errorf("order output = %q, want %q", out, want)
	}

	out, err = execute(t, "order", "--levels", "-s", taskPath)
	if err != nil {
		t.Fatalf("order --levels: %v", err)
	}
	want = "0: api, types, api-docs\n1: form\n"
	if out != want {
		t.Errorf("order --levels output = %q, want %q", out, want)
	}
}

func TestBatchesCommand(t *testing.T) {
	taskPath, _ := setup(t)

	out, err := execute(t, "batches", "-s", taskPath)
	if err != nil {
		t.Fatalf("batches: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 batches, got %q", out)
	}
	if !strings.HasSuffix(lines[0], "api, types") || !strings.HasSuffix(lines[1], "api-docs") {
		t.Errorf("unexpected batches %q", out)
	}

	out, err = execute(t, "batches", "-s", taskPath, "--concurrency", "1")
	if err != nil {
		t.Fatalf("batches --concurrency 1: %v", err)
	}
	if n := strings.Count(out, "\n"); n != 3 {
		t.Errorf("expected 3 batches with limit 1, got %q", out)
	}
}

func TestConflictsCommand(t *testing.T) {
	taskPath, _ := setup(t)

	out, err := execute(t, "conflicts", "-s", taskPath)
	if err != nil {
		t.Fatalf("conflicts: %v", err)
	}
	if !strings.Contains(out, "api") || !strings.Contains(out, "api-docs") || !strings.Contains(out, "src/api.ts") {
		t.Errorf("conflict output missing the api/api-docs pair: %q", out)
	}
}

func TestPlanCommand(t *testing.T) {
	taskPath, _ := setup(t)

	out, err := execute(t, "plan", "-s", taskPath)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	for _, id := range []string{"api", "types", "api-docs", "form"} {
		if !strings.Contains(out, id) {
			t.Errorf("plan output missing %s: %q", id, out)
		}
	}
}

func TestDryRunCommand(t *testing.T) {
	taskPath, _ := setup(t)

	out, err := execute(t, "dry-run", "-s", taskPath, "--fail", "types")
	if err != nil {
		t.Fatalf("dry-run: %v", err)
	}
	if !strings.Contains(out, "fail") || !strings.Contains(out, "skipping form") {
		t.Errorf("dry-run output missing propagated failure: %q", out)
	}
	if !strings.Contains(out, "2/4") {
		t.Errorf("dry-run progress should show 2/4 done: %q", out)
	}

	_, err = execute(t, "dry-run", "-s", taskPath, "--fail", "nope")
	if !errors.Is(err, scheduler.ErrUnknownTask) {
		t.Errorf("dry-run --fail nope: error = %v, want ErrUnknownTask", err)
	}
}

func TestEmitCommand(t *testing.T) {
	taskPath, _ := setup(t)
	outPath := filepath.Join(t.TempDir(), "parallel.txt")

	if _, err := execute(t, "emit", "-s", taskPath, "-o", outPath); err != nil {
		t.Fatalf("emit: %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading emitted file: %v", err)
	}
	if got := strings.Count(string(data), "---TASK---"); got != 4 {
		t.Errorf("expected 4 task blocks, got %d", got)
	}
	// Routing fills in the backend for every task.
	if strings.Contains(string(data), "backend: \n") {
		t.Errorf("emitted a task without a backend:\n%s", data)
	}
}

func TestCatalogRoundTrip(t *testing.T) {
	taskPath, storePath := setup(t)

	out, err := execute(t, "catalog", "save", "auth", "-s", taskPath, "--store", storePath)
	if err != nil {
		t.Fatalf("catalog save: %v", err)
	}
	if !strings.Contains(out, `saved 4 tasks as "auth"`) {
		t.Errorf("unexpected save output %q", out)
	}

	out, err = execute(t, "catalog", "list", "--store", storePath)
	if err != nil {
		t.Fatalf("catalog list: %v", err)
	}
	if !strings.Contains(out, "auth") {
		t.Errorf("catalog list missing entry: %q", out)
	}

	out, err = execute(t, "order", "--catalog", "auth", "--store", storePath)
	if err != nil {
		t.Fatalf("order --catalog: %v", err)
	}
	if out != "api\ntypes\napi-docs\nform\n" {
		t.Errorf("order from catalog = %q", out)
	}

	out, err = execute(t, "catalog", "show", "auth", "--store", storePath)
	if err != nil {
		t.Fatalf("catalog show: %v", err)
	}
	if !strings.Contains(out, "id: form") {
		t.Errorf("catalog show output missing task: %q", out)
	}

	if _, err := execute(t, "catalog", "delete", "auth", "--store", storePath); err != nil {
		t.Fatalf("catalog delete: %v", err)
	}
	if _, err := execute(t, "catalog", "show", "auth", "--store", storePath); err == nil {
		t.Error("expected error showing a deleted entry")
	}
}

func TestMissingSource(t *testing.T) {
	setup(t)
	if _, err := execute(t, "order"); err == nil {
		t.Error("expected error without --source or --catalog")
	}
}

func TestConfigInitAndShow(t *testing.T) {
	setup(t)

	out, err := execute(t, "config", "init", "--global")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	path := filepath.Join(os.Getenv("HOME"), ".batchplan", "config.json")
	if !strings.Contains(out, path) {
		t.Errorf("config init output = %q, want it to name %s", out, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written config: %v", err)
	}
	if !strings.Contains(string(data), `"test_command": "npm test -- --coverage"`) {
		t.Errorf("written config lacks defaults:\n%s", data)
	}

	if _, err := execute(t, "config", "init", "--global"); err == nil {
		t.Error("expected error re-initializing without --force")
	}
	if _, err := execute(t, "config", "init", "--global", "--force"); err != nil {
		t.Errorf("config init --force: %v", err)
	}

	out, err = execute(t, "config", "show", "--concurrency", "3")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, `"concurrency": 3`) {
		t.Errorf("config show ignored the flag override:\n%s", out)
	}
}
