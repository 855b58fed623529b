// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, FTS5 index install
//	├── errors.go        # StoreError taxonomy
//	├── books/           # Book CRUD and listing
//	└── annotations/     # Annotation CRUD plus ranked/ordered raw-SQL queries
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	// Initialize database connection
//	db, err := database.NewDatabase("./marginalia.db")
//
//	// Create domain-specific repositories
//	booksRepo := books.NewRepository(db.DB)
//	annotationsRepo := annotations.NewRepository(db.DB)
//
//	// Use repositories
//	book, err := booksRepo.FindBook("2f6c...")
//	notes, err := annotationsRepo.ListForBook(book.ID)
//
// # Error Handling
//
// Driver and SQL failures surface as *database.StoreError. A row that
// does not exist is reported with a nil result and a nil error, never
// an error: readers race with deletions by design.
//
// # Full-Text Search
//
// database.go installs an external-content FTS5 table
// (annotations_fts) with triggers mirroring every write to the
// annotations table. annotations.Repository.Match runs ranked queries
// against it. The mattn sqlite driver only compiles in FTS5 with the
// sqlite_fts5 build tag; without it, Database.FTSAvailable reports
// false and Match fails with ErrFTSUnavailable.
package database
