package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marginalia/internal/entities"
	"marginalia/internal/feed"
	"marginalia/internal/search"
)

type fakeBookStore struct {
	books map[string]*entities.Book
	err   error
}

func (f *fakeBookStore) FindBook(id string) (*entities.Book, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.books[id], nil
}

func (f *fakeBookStore) ListBooks(archived bool) ([]entities.Book, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []entities.Book
	for _, b := range f.books {
		if b.Archived == archived {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookStore) SaveBook(book *entities.Book) error {
	if f.err != nil {
		return f.err
	}
	if book.ID == "" {
		book.ID = "generated-id"
	}
	f.books[book.ID] = book
	return nil
}

func (f *fakeBookStore) SetArchived(id string, archived bool) error {
	if b, ok := f.books[id]; ok {
		b.Archived = archived
	}
	return f.err
}

func (f *fakeBookStore) CountAnnotations(bookID string) (int64, error) {
	return 2, f.err
}

func (f *fakeBookStore) DeleteBook(id string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.books[id]; !ok {
		return nil, nil
	}
	delete(f.books, id)
	return []string{"audio/one.m4a"}, nil
}

type fakeAnnotationStore struct {
	annotations map[string]*entities.Annotation
	err         error
}

func (f *fakeAnnotationStore) FindAnnotation(id string) (*entities.Annotation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.annotations[id], nil
}

func (f *fakeAnnotationStore) ListForBook(bookID string) ([]entities.Annotation, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []entities.Annotation
	for _, a := range f.annotations {
		if a.BookID == bookID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAnnotationStore) Save(annotation *entities.Annotation) error {
	if err := annotation.Validate(); err != nil {
		return err
	}
	if annotation.ID == "" {
		annotation.ID = "generated-id"
	}
	f.annotations[annotation.ID] = annotation
	return nil
}

func (f *fakeAnnotationStore) SetTranscription(id, transcription string) error {
	if a, ok := f.annotations[id]; ok {
		a.Transcription = transcription
	}
	return f.err
}

func (f *fakeAnnotationStore) Delete(id string) (string, error) {
	a, ok := f.annotations[id]
	if !ok {
		return "", f.err
	}
	delete(f.annotations, id)
	return a.MediaPath(), f.err
}

type fakeSearcher struct {
	gotQuery string
	results  []search.Result
	err      error
}

func (f *fakeSearcher) Search(query string) ([]search.Result, error) {
	f.gotQuery = query
	return f.results, f.err
}

type fakeFeed struct {
	gotSeed   uint64
	gotLimit  int
	gotOffset int
	items     []feed.Item
	err       error
}

func (f *fakeFeed) RandomizedPage(seed uint64, limit, offset int) ([]feed.Item, error) {
	f.gotSeed = seed
	f.gotLimit = limit
	f.gotOffset = offset
	return f.items, f.err
}

type testEnv struct {
	router      *gin.Engine
	books       *fakeBookStore
	annotations *fakeAnnotationStore
	searcher    *fakeSearcher
	feed        *fakeFeed
}

func setupRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		books:       &fakeBookStore{books: make(map[string]*entities.Book)},
		annotations: &fakeAnnotationStore{annotations: make(map[string]*entities.Annotation)},
		searcher:    &fakeSearcher{},
		feed:        &fakeFeed{},
	}
	env.router = NewRouter(RouterConfig{
		Books:       env.books,
		Annotations: env.annotations,
		Searcher:    env.searcher,
		Feed:        env.feed,
		Version:     "test",
	})
	return env
}

func doRequest(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestPing(t *testing.T) {
	env := setupRouter(t)

	w := doRequest(t, env.router, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", decodeBody(t, w)["message"])
}

func TestHealth_NoDatabaseConfigured(t *testing.T) {
	env := setupRouter(t)

	w := doRequest(t, env.router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "healthy", body["status"])
}

func TestGetBook(t *testing.T) {
	env := setupRouter(t)
	env.books.books["b1"] = &entities.Book{ID: "b1", Title: "A Book"}

	w := doRequest(t, env.router, http.MethodGet, "/api/books/b1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.EqualValues(t, 2, body["annotation_count"])
}

func TestGetBook_NotFound(t *testing.T) {
	env := setupRouter(t)

	w := doRequest(t, env.router, http.MethodGet, "/api/books/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateBook(t *testing.T) {
	env := setupRouter(t)

	w := doRequest(t, env.router, http.MethodPost, "/api/books",
		`{"title": "New Book", "author": "Author", "isbn": "9780140449334"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, env.books.books, 1)
}

func TestCreateBook_RequiresTitle(t *testing.T) {
	env := setupRouter(t)

	w := doRequest(t, env.router, http.MethodPost, "/api/books", `{"author": "Author"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.books.books)
}

func TestUpdateBook_PartialPatch(t *testing.T) {
	env := setupRouter(t)
	env.books.books["b1"] = &entities.Book{ID: "b1", Title: "Old Title", Author: "Kept Author"}

	w := doRequest(t, env.router, http.MethodPatch, "/api/books/b1", `{"title": "New Title"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "New Title", env.books.books["b1"].Title)
	assert.Equal(t, "Kept Author", env.books.books["b1"].Author, "fields absent from the patch stay put")
}

func TestDeleteBook(t *testing.T) {
	env := setupRouter(t)
	env.books.books["b1"] = &entities.Book{ID: "b1", Title: "Doomed"}

	w := doRequest(t, env.router, http.MethodDelete, "/api/books/b1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, env.books.books)
}

func TestEnrichBook_DisabledWithoutTaskClient(t *testing.T) {
	env := setupRouter(t)
	env.books.books["b1"] = &entities.Book{ID: "b1", Title: "t", ISBN: "9780140449334"}

	w := doRequest(t, env.router, http.MethodPost, "/api/books/b1/enrich", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCreateAnnotation(t *testing.T) {
	env := setupRouter(t)
	env.books.books["b1"] = &entities.Book{ID: "b1", Title: "A Book"}

	w := doRequest(t, env.router, http.MethodPost, "/api/annotations",
		`{"book_id": "b1", "type": "audio", "audio_path": "audio/one.m4a", "duration": 12.5}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, env.annotations.annotations, 1)
}

func TestCreateAnnotation_UnknownBook(t *testing.T) {
	env := setupRouter(t)

	w := doRequest(t, env.router, http.MethodPost, "/api/annotations",
		`{"book_id": "missing", "type": "text", "caption": "note"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateAnnotation_InvalidMediaRejected(t *testing.T) {
	env := setupRouter(t)
	env.books.books["b1"] = &entities.Book{ID: "b1", Title: "A Book"}

	// Audio annotation without an audio file.
	w := doRequest(t, env.router, http.MethodPost, "/api/annotations",
		`{"book_id": "b1", "type": "audio"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateAnnotation_SetsTranscription(t *testing.T) {
	env := setupRouter(t)
	env.annotations.annotations["a1"] = &entities.Annotation{
		ID: "a1", BookID: "b1", Type: entities.AnnotationTypeAudio, AudioPath: "audio/one.m4a",
	}

	w := doRequest(t, env.router, http.MethodPatch, "/api/annotations/a1",
		`{"transcription": "the spoken words"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "the spoken words", env.annotations.annotations["a1"].Transcription)
}

func TestDeleteAnnotation_MissingIsOK(t *testing.T) {
	env := setupRouter(t)

	w := doRequest(t, env.router, http.MethodDelete, "/api/annotations/missing", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSearch_PassesQueryThrough(t *testing.T) {
	env := setupRouter(t)
	env.searcher.results = []search.Result{{MatchedText: "the fox"}}

	w := doRequest(t, env.router, http.MethodGet, "/api/search?q=fox", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fox", env.searcher.gotQuery)
	assert.EqualValues(t, 1, decodeBody(t, w)["count"])
}

func TestSearch_StoreErrorIs500(t *testing.T) {
	env := setupRouter(t)
	env.searcher.err = errors.New("index broken")

	w := doRequest(t, env.router, http.MethodGet, "/api/search?q=fox", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestFeed_EchoesSeed(t *testing.T) {
	env := setupRouter(t)

	w := doRequest(t, env.router, http.MethodGet, "/api/feed?seed=12345&limit=10&offset=20", "")
	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "12345", body["seed"])
	assert.EqualValues(t, 12345, env.feed.gotSeed)
	assert.Equal(t, 10, env.feed.gotLimit)
	assert.Equal(t, 20, env.feed.gotOffset)
}

func TestFeed_GeneratesSeedWhenOmitted(t *testing.T) {
	env := setupRouter(t)

	w := doRequest(t, env.router, http.MethodGet, "/api/feed", "")
	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	seed, ok := body["seed"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, seed)
	assert.Equal(t, defaultFeedLimit, env.feed.gotLimit)
	assert.Zero(t, env.feed.gotOffset)
}

func TestFeed_InvalidSeedRejected(t *testing.T) {
	env := setupRouter(t)

	w := doRequest(t, env.router, http.MethodGet, "/api/feed?seed=not-a-number", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeed_LimitClampedToMax(t *testing.T) {
	env := setupRouter(t)

	w := doRequest(t, env.router, http.MethodGet, "/api/feed?seed=1&limit=5000", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, maxFeedLimit, env.feed.gotLimit)
}
