package storage

import "strings"

// schema uses two placeholders that differ between drivers:
// {{serial}} for auto-increment keys and {{timestamp}} for time columns.
const schema = `
-- Sources track where imported cards come from: a local directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id {{serial}},
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local',
    last_scanned {{timestamp}}
);

-- Modules and sub-modules of the EASA Part 66 syllabus.
CREATE TABLE IF NOT EXISTS modules (
    id TEXT PRIMARY KEY,
    number TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sub_modules (
    id TEXT PRIMARY KEY,
    module_id TEXT NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
    number TEXT NOT NULL,
    title TEXT NOT NULL,
    position INTEGER NOT NULL DEFAULT 0
);

-- The 'cards' table stores the flashcards themselves.
CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    module_id TEXT NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
    sub_module_id TEXT REFERENCES sub_modules(id) ON DELETE SET NULL,
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    context TEXT NOT NULL DEFAULT '',
    difficulty TEXT NOT NULL DEFAULT 'medium',
    tags TEXT NOT NULL DEFAULT '[]',
    author_id TEXT NOT NULL DEFAULT '',
    source_id BIGINT REFERENCES sources(id) ON DELETE CASCADE,
    approved BOOLEAN NOT NULL DEFAULT FALSE,
    created_at {{timestamp}} NOT NULL,
    updated_at {{timestamp}} NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cards_module ON cards(module_id, created_at);
CREATE INDEX IF NOT EXISTS idx_cards_pending ON cards(approved, created_at);

-- One progress row per (user, card) once the card has been reviewed.
CREATE TABLE IF NOT EXISTS progress (
    user_id TEXT NOT NULL,
    card_id TEXT NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
    status TEXT NOT NULL DEFAULT 'new',
    next_review {{timestamp}} NOT NULL,
    review_count INTEGER NOT NULL DEFAULT 0,
    streak INTEGER NOT NULL DEFAULT 0,
    last_rating INTEGER NOT NULL DEFAULT 0,
    last_reviewed_at {{timestamp}},
    updated_at {{timestamp}} NOT NULL,
    PRIMARY KEY (user_id, card_id)
);

CREATE TABLE IF NOT EXISTS study_sessions (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    module_id TEXT NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
    sub_module_id TEXT,
    start_time {{timestamp}} NOT NULL,
    end_time {{timestamp}},
    cards_studied INTEGER NOT NULL DEFAULT 0,
    correct_count INTEGER NOT NULL DEFAULT 0,
    incorrect_count INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_study_sessions_user ON study_sessions(user_id, start_time);

-- Study records are append-only rating events.
CREATE TABLE IF NOT EXISTS study_records (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES study_sessions(id) ON DELETE CASCADE,
    card_id TEXT NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
    rating INTEGER NOT NULL,
    is_correct BOOLEAN NOT NULL,
    time_spent_ms BIGINT NOT NULL DEFAULT 0,
    created_at {{timestamp}} NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_study_records_session ON study_records(session_id);

CREATE TABLE IF NOT EXISTS user_modules (
    user_id TEXT NOT NULL,
    module_id TEXT NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    PRIMARY KEY (user_id, module_id)
);
`

func schemaFor(driver string) string {
	serial, timestamp := "INTEGER PRIMARY KEY AUTOINCREMENT", "DATETIME"
	if driver == DriverPostgres {
		serial, timestamp = "BIGSERIAL PRIMARY KEY", "TIMESTAMPTZ"
	}
	return strings.NewReplacer("{{serial}}", serial, "{{timestamp}}", timestamp).Replace(schema)
}
