package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"marginalia/internal/entities"
)

// ftsSchema creates the external-content FTS5 index over annotation
// captions and transcriptions, plus the triggers that keep it in sync.
// Every insert/update/delete on annotations is mirrored into the index
// in the same statement, so search never observes a stale row.
var ftsSchema = []string{
	`CREATE VIRTUAL TABLE IF NOT EXISTS annotations_fts USING fts5(
		caption,
		transcription,
		content='annotations',
		content_rowid='rowid'
	)`,
	`CREATE TRIGGER IF NOT EXISTS annotations_fts_ai AFTER INSERT ON annotations BEGIN
		INSERT INTO annotations_fts(rowid, caption, transcription)
		VALUES (new.rowid, new.caption, new.transcription);
	END`,
	`CREATE TRIGGER IF NOT EXISTS annotations_fts_ad AFTER DELETE ON annotations BEGIN
		INSERT INTO annotations_fts(annotations_fts, rowid, caption, transcription)
		VALUES ('delete', old.rowid, old.caption, old.transcription);
	END`,
	`CREATE TRIGGER IF NOT EXISTS annotations_fts_au AFTER UPDATE ON annotations BEGIN
		INSERT INTO annotations_fts(annotations_fts, rowid, caption, transcription)
		VALUES ('delete', old.rowid, old.caption, old.transcription);
		INSERT INTO annotations_fts(rowid, caption, transcription)
		VALUES (new.rowid, new.caption, new.transcription);
	END`,
}

type Database struct {
	DB *gorm.DB

	ftsAvailable bool
}

// NewDatabase opens (or creates) the SQLite database at dbPath, runs
// migrations and installs the full-text index. If the linked SQLite
// lacks the FTS5 extension the database still opens, but search
// operations will fail with a StoreError until the binary is rebuilt
// with the sqlite_fts5 build tag.
func NewDatabase(dbPath string) (*Database, error) {
	return newDatabase(dbPath, logger.Default.LogMode(logger.Info))
}

// NewTestDatabase opens a database with SQL logging silenced. Intended
// for tests.
func NewTestDatabase(dbPath string) (*Database, error) {
	return newDatabase(dbPath, logger.Default.LogMode(logger.Silent))
}

func newDatabase(dbPath string, gormLogger logger.Interface) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath+"?_journal=WAL&_busy_timeout=5000&_foreign_keys=on"), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&entities.Book{}, &entities.Annotation{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db}

	if err := database.installFTS(); err != nil {
		log.Printf("WARNING: full-text index unavailable, search disabled: %v", err)
		log.Printf("WARNING: rebuild with '-tags sqlite_fts5' to enable search")
	} else {
		database.ftsAvailable = true
	}

	return database, nil
}

func (d *Database) installFTS() error {
	for _, stmt := range ftsSchema {
		if err := d.DB.Exec(stmt).Error; err != nil {
			return fmt.Errorf("install fts schema: %w", err)
		}
	}
	// Resync the index with any rows written before the triggers existed.
	if err := d.DB.Exec(`INSERT INTO annotations_fts(annotations_fts) VALUES ('rebuild')`).Error; err != nil {
		return fmt.Errorf("rebuild fts index: %w", err)
	}
	return nil
}

// FTSAvailable reports whether the FTS5 index was installed.
func (d *Database) FTSAvailable() bool {
	return d.ftsAvailable
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
