package store

// schemaStatements is applied in order on every Open call. Statements use
// IF NOT EXISTS so re-running against an already-migrated file is a no-op.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		priority INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		payload TEXT,
		assigned_role TEXT,
		result TEXT,
		cancelled INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		started_at INTEGER,
		completed_at INTEGER
	);`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_type ON tasks(type);`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at);`,

	`CREATE TABLE IF NOT EXISTS memories (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		namespace TEXT NOT NULL,
		content TEXT NOT NULL,
		metadata TEXT,
		created_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_memories_type_namespace ON memories(type, namespace);`,

	`CREATE TABLE IF NOT EXISTS execution_log (
		id TEXT PRIMARY KEY,
		task_id TEXT,
		tool_name TEXT,
		actor TEXT NOT NULL,
		success INTEGER NOT NULL,
		duration_ms INTEGER,
		error TEXT,
		created_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_execution_log_task_id ON execution_log(task_id);`,

	`CREATE TABLE IF NOT EXISTS self_evaluations (
		id TEXT PRIMARY KEY,
		summary TEXT NOT NULL,
		findings TEXT,
		score REAL,
		created_at INTEGER NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS audit_trail (
		id TEXT PRIMARY KEY,
		sequence_number INTEGER NOT NULL UNIQUE,
		timestamp INTEGER NOT NULL,
		actor TEXT NOT NULL,
		action TEXT NOT NULL,
		target TEXT,
		details TEXT,
		previous_hash TEXT NOT NULL,
		hash TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_audit_sequence_number ON audit_trail(sequence_number);`,
	`CREATE INDEX IF NOT EXISTS idx_audit_actor ON audit_trail(actor);`,
	`CREATE INDEX IF NOT EXISTS idx_audit_action ON audit_trail(action);`,
	`CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_trail(timestamp);`,

	`CREATE TABLE IF NOT EXISTS graph_entities (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		attributes TEXT,
		created_at INTEGER NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS graph_relationships (
		id TEXT PRIMARY KEY,
		from_entity_id TEXT NOT NULL REFERENCES graph_entities(id),
		to_entity_id TEXT NOT NULL REFERENCES graph_entities(id),
		relation TEXT NOT NULL,
		attributes TEXT,
		created_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_graph_rel_from ON graph_relationships(from_entity_id);`,
	`CREATE INDEX IF NOT EXISTS idx_graph_rel_to ON graph_relationships(to_entity_id);`,

	`CREATE TABLE IF NOT EXISTS marketplace_tools (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		schema TEXT,
		installed INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);`,
}
