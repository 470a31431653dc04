package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/batchplan/internal/scheduler"
)

const (
	accessWrite = "write"
	accessRead  = "read"
)

// SaveSpec stores tasks under name, replacing any previous definition. The
// set must form a valid graph; invalid sets are rejected before anything is
// written.
func (s *SQLiteStore) SaveSpec(ctx context.Context, name string, tasks []*scheduler.Task) error {
	if name == "" {
		return fmt.Errorf("spec name must not be empty")
	}
	if _, err := scheduler.Build(tasks); err != nil {
		return fmt.Errorf("invalid spec %q: %w", name, err)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO specs (name, created_at, updated_at)
		VALUES (?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET updated_at = CURRENT_TIMESTAMP
	`, name)
	if err != nil {
		return fmt.Errorf("failed to upsert spec: %w", err)
	}

	if err := deleteTasks(ctx, tx, name); err != nil {
		return err
	}

	for pos, task := range tasks {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO spec_tasks (spec_name, task_id, position, name, test_command, backend, task_type)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, name, task.ID, pos, task.Name, task.TestCommand, task.Backend, task.Type)
		if err != nil {
			return fmt.Errorf("failed to insert task %s: %w", task.ID, err)
		}
		if err := insertFiles(ctx, tx, name, task.ID, accessWrite, task.Writes); err != nil {
			return err
		}
		if err := insertFiles(ctx, tx, name, task.ID, accessRead, task.Reads); err != nil {
			return err
		}
	}

	// Dependencies go in once every task row exists, so forward references
	// satisfy the foreign keys.
	for _, task := range tasks {
		seen := make(map[string]bool, len(task.DependsOn))
		for pos, depID := range task.DependsOn {
			if seen[depID] {
				continue
			}
			seen[depID] = true
			_, err = tx.ExecContext(ctx, `
				INSERT INTO spec_task_dependencies (spec_name, task_id, depends_on_id, position)
				VALUES (?, ?, ?, ?)
			`, name, task.ID, depID, pos)
			if err != nil {
				return fmt.Errorf("failed to insert dependency %s -> %s: %w", task.ID, depID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertFiles(ctx context.Context, tx *sql.Tx, spec, taskID, access string, paths []string) error {
	for pos, path := range paths {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO spec_task_files (spec_name, task_id, access, position, path)
			VALUES (?, ?, ?, ?, ?)
		`, spec, taskID, access, pos, path)
		if err != nil {
			return fmt.Errorf("failed to insert %s file for task %s: %w", access, taskID, err)
		}
	}
	return nil
}

func deleteTasks(ctx context.Context, tx *sql.Tx, spec string) error {
	for _, table := range []string{"spec_task_dependencies", "spec_task_files", "spec_tasks"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE spec_name = ?`, spec); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// LoadSpec returns the tasks stored under name in their saved order, every
// one pending.
func (s *SQLiteStore) LoadSpec(ctx context.Context, name string) ([]*scheduler.Task, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM specs WHERE name = ?`, name).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrSpecNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query spec: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, name, test_command, backend, task_type
		FROM spec_tasks
		WHERE spec_name = ?
		ORDER BY position
	`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*scheduler.Task{}
	byID := make(map[string]*scheduler.Task)
	for rows.Next() {
		task := &scheduler.Task{Status: scheduler.TaskPending}
		if err := rows.Scan(&task.ID, &task.Name, &task.TestCommand, &task.Backend, &task.Type); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
		byID[task.ID] = task
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	if err := s.loadDependencies(ctx, name, byID); err != nil {
		return nil, err
	}
	if err := s.loadFiles(ctx, name, byID); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *SQLiteStore) loadDependencies(ctx context.Context, spec string, byID map[string]*scheduler.Task) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, depends_on_id
		FROM spec_task_dependencies
		WHERE spec_name = ?
		ORDER BY task_id, position
	`, spec)
	if err != nil {
		return fmt.Errorf("failed to query dependencies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var taskID, depID string
		if err := rows.Scan(&taskID, &depID); err != nil {
			return fmt.Errorf("failed to scan dependency: %w", err)
		}
		if task, ok := byID[taskID]; ok {
			task.DependsOn = append(task.DependsOn, depID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating dependencies: %w", err)
	}
	return nil
}

func (s *SQLiteStore) loadFiles(ctx context.Context, spec string, byID map[string]*scheduler.Task) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, access, path
		FROM spec_task_files
		WHERE spec_name = ?
		ORDER BY task_id, access, position
	`, spec)
	if err != nil {
		return fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var taskID, access, path string
		if err := rows.Scan(&taskID, &access, &path); err != nil {
			return fmt.Errorf("failed to scan file: %w", err)
		}
		task, ok := byID[taskID]
		if !ok {
			continue
		}
		if access == accessWrite {
			task.Writes = append(task.Writes, path)
		} else {
			task.Reads = append(task.Reads, path)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating files: %w", err)
	}
	return nil
}

// ListSpecs returns every catalog entry ordered by name.
func (s *SQLiteStore) ListSpecs(ctx context.Context) ([]SpecInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.name, COUNT(t.task_id), s.created_at, s.updated_at
		FROM specs s
		LEFT JOIN spec_tasks t ON t.spec_name = s.name
		GROUP BY s.name
		ORDER BY s.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query specs: %w", err)
	}
	defer rows.Close()

	var specs []SpecInfo
	for rows.Next() {
		var info SpecInfo
		var created, updated string
		if err := rows.Scan(&info.Name, &info.Tasks, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan spec: %w", err)
		}
		info.CreatedAt = parseTimestamp(created)
		info.UpdatedAt = parseTimestamp(updated)
		specs = append(specs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating specs: %w", err)
	}
	return specs, nil
}

// parseTimestamp accepts both SQLite's CURRENT_TIMESTAMP text and the
// RFC 3339 form the driver produces for DATETIME columns.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// DeleteSpec removes name and all of its tasks.
func (s *SQLiteStore) DeleteSpec(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteTasks(ctx, tx, name); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM specs WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete spec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSpecNotFound, name)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
