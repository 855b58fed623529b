// Package search implements ranked full-text search over annotations
// with display highlighting.
//
// Ranking and highlighting are intentionally different functions: rows
// are selected and ordered by an FTS5 prefix match over the
// caption/transcription index, while highlight spans are literal
// case-insensitive occurrences of the raw query in the matched field.
// A query like "quic bro" can therefore rank a row it cannot highlight.
package search

import (
	"strings"

	"marginalia/internal/entities"
)

// DefaultResultLimit caps how many matches a single search returns.
const DefaultResultLimit = 50

// AnnotationMatcher runs ranked FTS queries. Implemented by
// annotations.Repository.
type AnnotationMatcher interface {
	Match(matchExpr string, limit int) ([]entities.Annotation, error)
}

// BookFinder resolves a book by id, returning (nil, nil) for a book
// that no longer exists. Implemented by books.Repository.
type BookFinder interface {
	FindBook(id string) (*entities.Book, error)
}

// Result is one search hit: the annotation, its owning book (nil when
// the book was deleted out from under the annotation), the text field
// the query matched against, and the highlight spans within it.
type Result struct {
	Annotation  entities.Annotation `json:"annotation"`
	Book        *entities.Book      `json:"book"`
	MatchedText string              `json:"matched_text"`
	Highlights  []Range             `json:"highlights"`
}

// Engine executes searches against injected store handles. It holds no
// state between calls: abandoned searches can be discarded freely and
// identical queries against an unchanged store return identical results.
type Engine struct {
	annotations AnnotationMatcher
	books       BookFinder
	limit       int
}

// NewEngine creates a search engine. limit <= 0 selects
// DefaultResultLimit.
func NewEngine(annotations AnnotationMatcher, books BookFinder, limit int) *Engine {
	if limit <= 0 {
		limit = DefaultResultLimit
	}
	return &Engine{
		annotations: annotations,
		books:       books,
		limit:       limit,
	}
}

// Search returns ranked matches for query. A query that is empty after
// trimming returns an empty result set; it is not an error and it never
// matches everything.
func (e *Engine) Search(query string) ([]Result, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return []Result{}, nil
	}

	matches, err := e.annotations.Match(matchExpression(trimmed), e.limit)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(matches))
	bookCache := make(map[string]*entities.Book)
	for _, annotation := range matches {
		book, cached := bookCache[annotation.BookID]
		if !cached {
			book, err = e.books.FindBook(annotation.BookID)
			if err != nil {
				return nil, err
			}
			bookCache[annotation.BookID] = book
		}

		matchedText := annotation.Transcription
		if matchedText == "" {
			matchedText = annotation.Caption
		}

		results = append(results, Result{
			Annotation:  annotation,
			Book:        book,
			MatchedText: matchedText,
			Highlights:  HighlightRanges(matchedText, trimmed),
		})
	}
	return results, nil
}

// matchExpression turns the trimmed user query into an FTS5 expression:
// one quoted phrase with a trailing prefix operator, so the last (and
// typically still half-typed) word matches by prefix. Embedded quotes
// are doubled per FTS5 string syntax.
func matchExpression(query string) string {
	return `"` + strings.ReplaceAll(query, `"`, `""`) + `"*`
}
