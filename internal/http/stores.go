package http

import (
	"marginalia/internal/entities"
	"marginalia/internal/feed"
	"marginalia/internal/search"
)

// BookStore is the slice of books.Repository the controllers use.
type BookStore interface {
	FindBook(id string) (*entities.Book, error)
	ListBooks(archived bool) ([]entities.Book, error)
	SaveBook(book *entities.Book) error
	SetArchived(id string, archived bool) error
	CountAnnotations(bookID string) (int64, error)
	DeleteBook(id string) ([]string, error)
}

// AnnotationStore is the slice of annotations.Repository the
// controllers use.
type AnnotationStore interface {
	FindAnnotation(id string) (*entities.Annotation, error)
	ListForBook(bookID string) ([]entities.Annotation, error)
	Save(annotation *entities.Annotation) error
	SetTranscription(id, transcription string) error
	Delete(id string) (mediaPath string, err error)
}

// Searcher executes full-text searches. Implemented by search.Engine.
type Searcher interface {
	Search(query string) ([]search.Result, error)
}

// FeedPager serves shuffled feed pages. Implemented by feed.Paginator.
type FeedPager interface {
	RandomizedPage(seed uint64, limit, offset int) ([]feed.Item, error)
}
