package journal

import "database/sql"

const currentSchemaVersion = 1

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			player_session INTEGER NOT NULL,
			source TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			media_type TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			ended_at INTEGER,
			final_state TEXT NOT NULL,
			last_position_ms INTEGER,
			error TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_source ON sessions(source, started_at);
		CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);

		CREATE TABLE IF NOT EXISTS transitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			state TEXT NOT NULL,
			position_ms INTEGER,
			message TEXT,
			at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_transitions_session ON transitions(session_id, id);
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, currentSchemaVersion)
	return err
}
