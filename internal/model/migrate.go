package model

import (
	"fmt"

	"gorm.io/gorm"
)

var preMigrationSQL = []string{
	// gen_random_uuid() for users.id
	`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
}

var postMigrationSQL = []string{
	`CREATE OR REPLACE FUNCTION set_current_timestamp_updated_at() RETURNS trigger LANGUAGE plpgsql AS $$
	DECLARE _new_value TIMESTAMP WITH TIME ZONE;
	BEGIN
	  _new_value := now();
	  IF NEW.updated_at IS DISTINCT FROM _new_value THEN NEW.updated_at = _new_value; END IF;
	  RETURN NEW;
	END; $$;`,

	`DROP TRIGGER IF EXISTS set_users_updated_at ON users;`,
	`CREATE TRIGGER set_users_updated_at BEFORE UPDATE ON users
	 FOR EACH ROW EXECUTE FUNCTION set_current_timestamp_updated_at();`,

	// The sweeper only scans anonymous rows.
	`CREATE INDEX IF NOT EXISTS idx_notes_anonymous_expiry ON notes (expires_at) WHERE user_id IS NULL;`,
}

// Migrate creates or updates the schema. It is idempotent.
func Migrate(db *gorm.DB) error {
	for _, sql := range preMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("pre-migration: %w", err)
		}
	}

	if err := db.AutoMigrate(&User{}, &UserProvider{}, &Note{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("post-migration: %w", err)
		}
	}
	return nil
}
