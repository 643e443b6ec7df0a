package database

import (
	"log"
	"strings"
)

// createTables creates the full schema. DDL is written to the common subset
// accepted by both modernc sqlite and MySQL (VARCHAR keys, TEXT bodies, no
// auto-increment — all primary keys are UUIDs minted by the services).
func (db *DB) createTables() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL DEFAULT '',
			tone_preference VARCHAR(64) NOT NULL DEFAULT '',
			character_class VARCHAR(64) NOT NULL DEFAULT '',
			backstory TEXT,
			motto VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS journals (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			date VARCHAR(10) NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'draft',
			initial_message TEXT,
			chat_session TEXT,
			summary TEXT,
			title VARCHAR(255) NOT NULL DEFAULT '',
			synopsis TEXT,
			tone_tags TEXT,
			day_rating INTEGER,
			inferred_day_rating INTEGER,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			CONSTRAINT uniq_journal_user_date UNIQUE (user_id, date)
		)`,
		`CREATE TABLE IF NOT EXISTS tags (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			name VARCHAR(128) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			CONSTRAINT uniq_tag_user_name UNIQUE (user_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS character_stats (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			name VARCHAR(128) NOT NULL,
			description TEXT,
			example_activities TEXT,
			level INTEGER NOT NULL DEFAULT 1,
			total_xp INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS family_members (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			name VARCHAR(128) NOT NULL,
			relationship VARCHAR(64) NOT NULL DEFAULT '',
			likes TEXT,
			dislikes TEXT,
			connection_level INTEGER NOT NULL DEFAULT 1,
			connection_xp INTEGER NOT NULL DEFAULT 0,
			last_interaction_date VARCHAR(10),
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_attributes (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			category VARCHAR(64) NOT NULL,
			value VARCHAR(255) NOT NULL,
			source VARCHAR(32) NOT NULL DEFAULT 'user_set',
			last_updated TIMESTAMP NOT NULL,
			CONSTRAINT uniq_attr_user_cat_value UNIQUE (user_id, category, value)
		)`,
		`CREATE TABLE IF NOT EXISTS xp_grants (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			entity_type VARCHAR(32) NOT NULL,
			entity_id VARCHAR(36) NOT NULL,
			xp_amount INTEGER NOT NULL DEFAULT 0,
			source_type VARCHAR(32) NOT NULL,
			source_id VARCHAR(36) NOT NULL,
			reason TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS journal_summaries (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			period VARCHAR(8) NOT NULL,
			start_date VARCHAR(10) NOT NULL,
			end_date VARCHAR(10) NOT NULL,
			summary TEXT,
			tags TEXT,
			created_at TIMESTAMP NOT NULL,
			CONSTRAINT uniq_summary_window UNIQUE (user_id, period, start_date, end_date)
		)`,
		`CREATE TABLE IF NOT EXISTS todos (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			content VARCHAR(255) NOT NULL,
			source_type VARCHAR(32) NOT NULL DEFAULT '',
			source_id VARCHAR(36) NOT NULL DEFAULT '',
			completed INTEGER NOT NULL DEFAULT 0,
			expires_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS goals (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			archived INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS llm_providers (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(128) NOT NULL,
			base_url VARCHAR(255) NOT NULL,
			api_key VARCHAR(255) NOT NULL DEFAULT '',
			default_model VARCHAR(128) NOT NULL DEFAULT '',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_journals_user_status ON journals (user_id, status, date)`,
		`CREATE INDEX IF NOT EXISTS idx_grants_entity ON xp_grants (entity_type, entity_id)`,
		`CREATE INDEX IF NOT EXISTS idx_grants_source ON xp_grants (user_id, source_type, source_id)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_user_period ON journal_summaries (user_id, period, end_date)`,
		`CREATE INDEX IF NOT EXISTS idx_todos_expiry ON todos (expires_at)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			// MySQL has no CREATE INDEX IF NOT EXISTS; duplicate-index errors are benign
			if isDuplicateIndexErr(err) {
				continue
			}
			return err
		}
	}

	log.Println("📦 Schema ensured (11 tables)")
	return nil
}

func isDuplicateIndexErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate key name") || strings.Contains(msg, "already exists")
}
