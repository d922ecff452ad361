// Package history is the session-history audit log SPEC_FULL.md §2 adds: a
// local, single-file SQLite-backed record of past driver invocations, kept
// for "-v" diagnostics and offline inspection. It is not a cache — nothing
// here ever causes a pass to be skipped on a hit.
//
// Grounded on the teacher's db/sqlite.go Connect() (gorm.Open against a
// local file, PRAGMA foreign_keys, directory creation for the DSN) and
// models/models.go (one gorm model per table, string primary keys), but
// restricted to the single glebarez/sqlite (pure Go, no cgo) dialector —
// the teacher's libsql/postgres branches have no tenant here: this is a
// single-process, single-user CLI writing one local file.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Run is one row per driver invocation, keyed by the session ID stamped by
// internal/session (via google/uuid).
type Run struct {
	ID string `gorm:"primaryKey;type:varchar(36)"`

	ScriptPath string `gorm:"type:varchar(1024)"`
	ScriptHash string `gorm:"type:varchar(64);index"` // SHA-256 of the user script text; internal/driver leaves it empty

	LastPassRequested int `gorm:"column:last_pass_requested"`
	LastPassReached   int `gorm:"column:last_pass_reached"`

	ErrorCount   int `gorm:"column:error_count"`
	WarningCount int `gorm:"column:warning_count"`

	ListingHash string `gorm:"type:varchar(64);index"` // SHA-256 of internal/listing's dump, empty if not a listing run

	StartedAt  time.Time `gorm:"index"`
	FinishedAt time.Time
	DurationMS int64 `gorm:"column:duration_ms"`
}

func (Run) TableName() string { return "runs" }

// Open connects to the sqlite file at path, creating its parent directory
// if needed, and runs Migrate. An empty path disables history entirely:
// callers get a nil *gorm.DB, on which Record and Recent are no-ops.
func Open(path string, debug bool) (*gorm.DB, error) {
	if path == "" {
		return nil, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("history: creating %s: %w", dir, err)
		}
	}

	cfg := &gorm.Config{}
	if !debug {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("history: opening %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("history: acquiring *sql.DB: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return nil, fmt.Errorf("history: enabling foreign keys: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate applies the schema. Idempotent: AutoMigrate only adds what's
// missing, the same convention as the teacher's internal/db/migrate.go
// (CREATE TABLE IF NOT EXISTS, run repeatedly on every startup).
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Run{}); err != nil {
		return fmt.Errorf("history: migrating schema: %w", err)
	}
	return nil
}

// Record inserts one completed run. db may be nil (history disabled), in
// which case Record is a no-op — callers need not guard every call site.
func Record(db *gorm.DB, run Run) error {
	if db == nil {
		return nil
	}
	if err := db.Create(&run).Error; err != nil {
		return fmt.Errorf("history: recording run %s: %w", run.ID, err)
	}
	return nil
}

// Recent returns the limit most recent runs, newest first, for -v
// diagnostics and offline inspection (SPEC_FULL.md §2). db may be nil.
func Recent(db *gorm.DB, limit int) ([]Run, error) {
	if db == nil {
		return nil, nil
	}
	var runs []Run
	if err := db.Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("history: querying recent runs: %w", err)
	}
	return runs, nil
}
