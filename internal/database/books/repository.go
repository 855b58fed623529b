// Package books provides database operations for book management.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.FindBook("2f6c...")
package books

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"marginalia/internal/database"
	"marginalia/internal/entities"
)

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindBook retrieves a book by ID. Returns (nil, nil) when no book with
// that ID exists.
func (r *Repository) FindBook(id string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, database.Wrap("find book", err)
	}
	return &book, nil
}

// ListBooks returns books matching the archived flag, most recently
// updated first.
func (r *Repository) ListBooks(archived bool) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Where("archived = ?", archived).
		Order("updated_at DESC, id ASC").
		Find(&books).Error
	if err != nil {
		return nil, database.Wrap("list books", err)
	}
	return books, nil
}

// SaveBook upserts a book, refreshing its updated timestamp.
func (r *Repository) SaveBook(book *entities.Book) error {
	if book.Title == "" {
		return fmt.Errorf("book requires a title")
	}
	if err := r.db.Save(book).Error; err != nil {
		return database.Wrap("save book", err)
	}
	return nil
}

// SetArchived flips the archived flag on a book.
func (r *Repository) SetArchived(id string, archived bool) error {
	err := r.db.Model(&entities.Book{}).Where("id = ?", id).
		Update("archived", archived).Error
	return database.Wrap("archive book", err)
}

// CountAnnotations returns the number of annotations attached to a book.
func (r *Repository) CountAnnotations(bookID string) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Annotation{}).Where("book_id = ?", bookID).Count(&count).Error
	if err != nil {
		return 0, database.Wrap("count annotations", err)
	}
	return count, nil
}

// DeleteBook deletes a book and all of its annotations in one
// transaction. It returns the media paths the deleted annotations were
// backed by, plus the book's cached cover, so the caller can remove the
// files afterwards.
func (r *Repository) DeleteBook(id string) ([]string, error) {
	var orphaned []string

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.First(&book, "id = ?", id).Error; err != nil {
			return err
		}

		var annotations []entities.Annotation
		if err := tx.Where("book_id = ?", id).Find(&annotations).Error; err != nil {
			return err
		}
		for _, a := range annotations {
			if p := a.MediaPath(); p != "" {
				orphaned = append(orphaned, p)
			}
		}
		if book.CoverImagePath != "" {
			orphaned = append(orphaned, book.CoverImagePath)
		}

		if err := tx.Where("book_id = ?", id).Delete(&entities.Annotation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Book{}, "id = ?", id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, database.Wrap("delete book", err)
	}
	return orphaned, nil
}

// UpdateMetadata updates specific metadata fields on a book.
func (r *Repository) UpdateMetadata(id string, fields map[string]any) error {
	err := r.db.Model(&entities.Book{}).Where("id = ?", id).Updates(fields).Error
	return database.Wrap("update book metadata", err)
}
