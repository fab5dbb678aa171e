// ABOUTME: SQLite database schema for the assistant's durable state
// ABOUTME: Users, embeddings, reminders, activity logs, and persona preferences
package sqlite

// Schema contains all SQL statements for database initialization.
const Schema = `
-- Users: transcript and conversation state stored as JSON documents,
-- training bookkeeping as plain columns.
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    transcript TEXT NOT NULL DEFAULT '[]',
    state TEXT NOT NULL DEFAULT '{"type":"normal"}',
    last_training_at DATETIME,
    training_data_size INTEGER NOT NULL DEFAULT 0,
    is_training INTEGER NOT NULL DEFAULT 0,
    fine_tune_job_id TEXT,
    personalized_model_id TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Embeddings: one row per (chunk, vector) pair, owned by a user.
CREATE TABLE IF NOT EXISTS embeddings (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    content TEXT NOT NULL,
    vector BLOB NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Reminders: sent flips false -> true exactly once.
CREATE TABLE IF NOT EXISTS reminders (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    due_at DATETIME NOT NULL,
    description TEXT NOT NULL,
    sent INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Activity logs recorded by the "jek, catat" command.
CREATE TABLE IF NOT EXISTS activity_logs (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    activity_type TEXT NOT NULL,
    details TEXT NOT NULL DEFAULT '{}',
    activity_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    is_archived INTEGER NOT NULL DEFAULT 0
);

-- Persona preference: at most one row per user (upsert).
CREATE TABLE IF NOT EXISTS ai_preferences (
    user_id TEXT PRIMARY KEY,
    persona_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL,
    focus_areas TEXT NOT NULL DEFAULT '[]',
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Indexes for efficient querying
CREATE INDEX IF NOT EXISTS idx_embeddings_user ON embeddings(user_id);
CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(sent, due_at);
CREATE INDEX IF NOT EXISTS idx_reminders_user ON reminders(user_id);
CREATE INDEX IF NOT EXISTS idx_logs_user_archived ON activity_logs(user_id, is_archived);
`

// SchemaVersion is the current schema version for migrations.
const SchemaVersion = 1
