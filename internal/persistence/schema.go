package persistence

import (
	"context"
)

// initSchema creates all required tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS specs (
		name TEXT PRIMARY KEY,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS spec_tasks (
		spec_name TEXT NOT NULL,
		task_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		test_command TEXT NOT NULL,
		backend TEXT NOT NULL,
		task_type TEXT NOT NULL,
		PRIMARY KEY (spec_name, task_id),
		FOREIGN KEY (spec_name) REFERENCES specs(name) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS spec_task_dependencies (
		spec_name TEXT NOT NULL,
		task_id TEXT NOT NULL,
		depends_on_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (spec_name, task_id, depends_on_id),
		FOREIGN KEY (spec_name, task_id) REFERENCES spec_tasks(spec_name, task_id) ON DELETE CASCADE,
		FOREIGN KEY (spec_name, depends_on_id) REFERENCES spec_tasks(spec_name, task_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS spec_task_files (
		spec_name TEXT NOT NULL,
		task_id TEXT NOT NULL,
		access TEXT NOT NULL CHECK (access IN ('write', 'read')),
		position INTEGER NOT NULL,
		path TEXT NOT NULL,
		PRIMARY KEY (spec_name, task_id, access, position),
		FOREIGN KEY (spec_name, task_id) REFERENCES spec_tasks(spec_name, task_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_spec_tasks_position ON spec_tasks(spec_name, position);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
