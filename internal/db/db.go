package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hpungsan/vault/internal/config"
	"github.com/hpungsan/vault/internal/errors"
	"github.com/hpungsan/vault/internal/prompt"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when the prompt attribute set changes; crossing that boundary
// drops and recreates the prompts table (data loss by design, see migrate).
const CurrentSchemaVersion = 3

// Init initializes the SQLite database at baseDir/vault.db.
// Idempotent: safe to call against an already-migrated database.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.vault.
func Init(baseDir string) (*sql.DB, error) {
	// Create base directory with restricted permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, errors.NewStorageInit(fmt.Errorf("failed to create base directory: %w", err))
	}
	// Explicit chmod (best-effort, may not work on all platforms)
	_ = os.Chmod(baseDir, 0700)

	// Open database with pragmas in connection string (applies to all connections)
	dbPath := filepath.Join(baseDir, "vault.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.NewStorageInit(fmt.Errorf("failed to open database: %w", err))
	}

	// Verify WAL mode is active
	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, errors.NewStorageInit(err)
	}

	// Run migrations (this creates the file if it doesn't exist)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, errors.NewStorageInit(err)
	}

	// Set file permissions after file exists (best-effort)
	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate brings the schema to CurrentSchemaVersion based on user_version.
//
// Versions below CurrentSchemaVersion changed the prompt attribute set, so
// the prompts table is dropped and recreated rather than migrated in place.
// Categories survive the boundary. The destructive step is logged before it
// runs rather than performed silently.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	if version == CurrentSchemaVersion {
		return nil
	}
	if version > CurrentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, CurrentSchemaVersion)
	}

	if version > 0 {
		slog.Warn("schema version bump changed prompt attributes; dropping prompts table",
			"from_version", version, "to_version", CurrentSchemaVersion)
		if _, err := db.Exec(`DROP TABLE IF EXISTS prompts`); err != nil {
			return fmt.Errorf("failed to drop prompts table: %w", err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS prompts (
	  id               INTEGER PRIMARY KEY AUTOINCREMENT,
	  content          TEXT NOT NULL,
	  ai_draft_content TEXT NOT NULL DEFAULT '',
	  title            TEXT NOT NULL DEFAULT '',
	  summary          TEXT NOT NULL DEFAULT '',
	  category_id      INTEGER,
	  created_at       INTEGER NOT NULL,
	  updated_at       INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_prompts_category
	ON prompts(category_id);

	CREATE INDEX IF NOT EXISTS idx_prompts_updated
	ON prompts(updated_at);

	CREATE TABLE IF NOT EXISTS categories (
	  id   INTEGER PRIMARY KEY AUTOINCREMENT,
	  name TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name
	ON categories(name);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migration to version %d failed: %w", CurrentSchemaVersion, err)
	}

	if err := seedCategories(db); err != nil {
		return err
	}

	return SetUserVersion(db, CurrentSchemaVersion)
}

// seedCategories inserts the default category set on first run.
// A non-empty categories table is left untouched.
func seedCategories(db *sql.DB) error {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, name := range prompt.DefaultCategories {
		if _, err := db.Exec(`INSERT INTO categories (name) VALUES (?)`, name); err != nil {
			return fmt.Errorf("failed to seed category %q: %w", name, err)
		}
	}
	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
