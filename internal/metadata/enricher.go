package metadata

import (
	"context"
	"fmt"

	"marginalia/internal/entities"
)

// Provider resolves metadata for an ISBN.
type Provider interface {
	LookupISBN(ctx context.Context, isbn string) (*BookMetadata, error)
}

// BookUpdater is the slice of the books repository the enricher needs.
type BookUpdater interface {
	FindBook(id string) (*entities.Book, error)
	UpdateMetadata(id string, fields map[string]any) error
}

// CoverCacher stores a remote cover locally and returns the relative
// path to record on the book. Implemented by media.Store.
type CoverCacher interface {
	CacheCover(bookID, coverURL string) (string, error)
}

// EnrichmentResult reports which fields an enrichment filled in.
type EnrichmentResult struct {
	Book          *entities.Book `json:"book"`
	FieldsUpdated []string       `json:"fields_updated"`
}

// Enricher fills missing book fields (title, author, cover) from an
// external metadata provider. Fields the user already set are never
// overwritten.
type Enricher struct {
	provider Provider
	books    BookUpdater
	covers   CoverCacher
}

func NewEnricher(provider Provider, books BookUpdater, covers CoverCacher) *Enricher {
	return &Enricher{
		provider: provider,
		books:    books,
		covers:   covers,
	}
}

// EnrichBook looks the book up by its ISBN and applies any missing
// fields. Books without an ISBN cannot be enriched.
func (e *Enricher) EnrichBook(ctx context.Context, bookID string) (*EnrichmentResult, error) {
	book, err := e.books.FindBook(bookID)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	if book == nil {
		return nil, fmt.Errorf("book %s not found", bookID)
	}
	if book.ISBN == "" {
		return nil, fmt.Errorf("book %s has no ISBN", bookID)
	}

	meta, err := e.provider.LookupISBN(ctx, book.ISBN)
	if err != nil {
		return nil, fmt.Errorf("metadata lookup failed: %w", err)
	}

	updates := make(map[string]any)
	var fieldsUpdated []string

	if book.Author == "" && meta.Author != "" {
		updates["author"] = meta.Author
		fieldsUpdated = append(fieldsUpdated, "author")
	}
	// Only replace a placeholder title, never a user-entered one.
	if (book.Title == "" || book.Title == book.ISBN) && meta.Title != "" {
		updates["title"] = meta.Title
		fieldsUpdated = append(fieldsUpdated, "title")
	}
	if book.CoverImagePath == "" && meta.CoverURL != "" && e.covers != nil {
		coverPath, err := e.covers.CacheCover(book.ID, meta.CoverURL)
		if err == nil && coverPath != "" {
			updates["cover_image_path"] = coverPath
			fieldsUpdated = append(fieldsUpdated, "cover_image_path")
		}
	}

	if len(updates) > 0 {
		if err := e.books.UpdateMetadata(book.ID, updates); err != nil {
			return nil, fmt.Errorf("update book metadata: %w", err)
		}
		book, err = e.books.FindBook(book.ID)
		if err != nil {
			return nil, fmt.Errorf("refresh book: %w", err)
		}
	}

	return &EnrichmentResult{
		Book:          book,
		FieldsUpdated: fieldsUpdated,
	}, nil
}
