// Package feed implements the seeded shuffle feed: a deterministic,
// gapless pagination over all annotations in a seed-dependent order.
//
// The shuffle key is a pure function of (annotation id, seed), computed
// in-process rather than inside SQL. The paginator fetches all ids,
// sorts them by key, slices the requested window and hydrates only that
// window, so pages for a fixed seed partition the full set with no
// duplicates and no gaps even though SQLite never sees the ordering
// function.
package feed

import (
	"hash/fnv"
	"sort"
	"strconv"

	"marginalia/internal/entities"
)

// keySpace bounds the shuffle key. Collisions are expected and fine;
// the id tie-break below keeps the total order strict.
const keySpace = 1_000_000

// AnnotationPager provides the id listing and batched fetch the
// paginator is built on. Implemented by annotations.Repository.
type AnnotationPager interface {
	ListIDs() ([]string, error)
	FindByIDs(ids []string) ([]entities.Annotation, error)
}

// BookFinder resolves a book by id, returning (nil, nil) for a book
// that no longer exists. Implemented by books.Repository.
type BookFinder interface {
	FindBook(id string) (*entities.Book, error)
}

// Item is one feed entry: an annotation and its owning book, which is
// nil when the book was deleted out-of-band.
type Item struct {
	Annotation entities.Annotation `json:"annotation"`
	Book       *entities.Book      `json:"book"`
}

// Paginator serves shuffled pages from injected store handles. It holds
// no state between calls; the ordering is recomputed from the seed on
// every request.
type Paginator struct {
	annotations AnnotationPager
	books       BookFinder
}

func NewPaginator(annotations AnnotationPager, books BookFinder) *Paginator {
	return &Paginator{annotations: annotations, books: books}
}

// SortKey computes the shuffle key for an annotation id under a seed.
// The first 8 characters of the id (the leading group of a UUID) are
// read as a hex integer; ids without a hex prefix fall back to an
// FNV-1a hash of the whole id. The result is (prefix + seed) mod
// keySpace, a pure function of its arguments only.
func SortKey(id string, seed uint64) uint64 {
	var prefix uint64
	if len(id) >= 8 {
		if v, err := strconv.ParseUint(id[:8], 16, 64); err == nil {
			prefix = v
		} else {
			prefix = fnvHash(id)
		}
	} else {
		prefix = fnvHash(id)
	}
	return (prefix + seed) % keySpace
}

func fnvHash(id string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	return h.Sum64()
}

// RandomizedPage returns the [offset, offset+limit) window of the
// seed-dependent permutation of all annotations. An offset past the end
// returns an empty page, which callers use to detect end-of-feed.
func (p *Paginator) RandomizedPage(seed uint64, limit, offset int) ([]Item, error) {
	if limit <= 0 || offset < 0 {
		return []Item{}, nil
	}

	ids, err := p.annotations.ListIDs()
	if err != nil {
		return nil, err
	}
	if offset >= len(ids) {
		return []Item{}, nil
	}

	// Strict total order: key ascending, id as tie-break. Without the
	// tie-break, rows sharing a key could land on two pages or none.
	sort.Slice(ids, func(i, j int) bool {
		ki, kj := SortKey(ids[i], seed), SortKey(ids[j], seed)
		if ki != kj {
			return ki < kj
		}
		return ids[i] < ids[j]
	})

	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}
	window := ids[offset:end]

	annotations, err := p.annotations.FindByIDs(window)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]entities.Annotation, len(annotations))
	for _, a := range annotations {
		byID[a.ID] = a
	}

	items := make([]Item, 0, len(window))
	bookCache := make(map[string]*entities.Book)
	for _, id := range window {
		annotation, ok := byID[id]
		if !ok {
			// Deleted between the id listing and the fetch.
			continue
		}

		book, cached := bookCache[annotation.BookID]
		if !cached {
			book, err = p.books.FindBook(annotation.BookID)
			if err != nil {
				return nil, err
			}
			bookCache[annotation.BookID] = book
		}
		items = append(items, Item{Annotation: annotation, Book: book})
	}
	return items, nil
}
