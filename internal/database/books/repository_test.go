package books

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marginalia/internal/database"
	"marginalia/internal/entities"
)

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()

	db, err := database.NewTestDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func mustSave(t *testing.T, repo *Repository, book *entities.Book) *entities.Book {
	t.Helper()
	require.NoError(t, repo.SaveBook(book))
	return book
}

func TestFindBook_MissingReturnsNil(t *testing.T) {
	repo := NewRepository(setupTestDB(t).DB)

	book, err := repo.FindBook("no-such-id")
	require.NoError(t, err)
	assert.Nil(t, book)
}

func TestSaveBook_AssignsIDAndRoundTrips(t *testing.T) {
	repo := NewRepository(setupTestDB(t).DB)

	book := mustSave(t, repo, &entities.Book{Title: "The Master and Margarita", Author: "Bulgakov"})
	require.NotEmpty(t, book.ID)

	found, err := repo.FindBook(book.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "The Master and Margarita", found.Title)
	assert.Equal(t, "Bulgakov", found.Author)
}

func TestSaveBook_RequiresTitle(t *testing.T) {
	repo := NewRepository(setupTestDB(t).DB)

	assert.Error(t, repo.SaveBook(&entities.Book{Author: "Anonymous"}))
}

func TestListBooks_FiltersArchivedAndOrdersByUpdate(t *testing.T) {
	repo := NewRepository(setupTestDB(t).DB)

	older := mustSave(t, repo, &entities.Book{Title: "Older"})
	mustSave(t, repo, &entities.Book{Title: "Archived", Archived: true})
	time.Sleep(10 * time.Millisecond)
	newer := mustSave(t, repo, &entities.Book{Title: "Newer"})

	active, err := repo.ListBooks(false)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, newer.ID, active[0].ID, "most recently updated first")
	assert.Equal(t, older.ID, active[1].ID)

	archived, err := repo.ListBooks(true)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, "Archived", archived[0].Title)
}

func TestSetArchived(t *testing.T) {
	repo := NewRepository(setupTestDB(t).DB)

	book := mustSave(t, repo, &entities.Book{Title: "To Archive"})
	require.NoError(t, repo.SetArchived(book.ID, true))

	found, err := repo.FindBook(book.ID)
	require.NoError(t, err)
	assert.True(t, found.Archived)
}

func TestCountAnnotations(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)

	book := mustSave(t, repo, &entities.Book{Title: "Counted"})
	for i := 0; i < 3; i++ {
		a := &entities.Annotation{BookID: book.ID, Type: entities.AnnotationTypeText, Caption: "note"}
		require.NoError(t, db.DB.Create(a).Error)
	}

	count, err := repo.CountAnnotations(book.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestDeleteBook_CascadesAndReportsOrphans(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)

	book := mustSave(t, repo, &entities.Book{Title: "Doomed", CoverImagePath: "covers/doomed.jpg"})
	audio := &entities.Annotation{
		BookID: book.ID, Type: entities.AnnotationTypeAudio, AudioPath: "audio/one.m4a",
	}
	text := &entities.Annotation{BookID: book.ID, Type: entities.AnnotationTypeText, Caption: "note"}
	require.NoError(t, db.DB.Create(audio).Error)
	require.NoError(t, db.DB.Create(text).Error)

	orphaned, err := repo.DeleteBook(book.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"audio/one.m4a", "covers/doomed.jpg"}, orphaned)

	found, err := repo.FindBook(book.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	var remaining int64
	require.NoError(t, db.DB.Model(&entities.Annotation{}).Where("book_id = ?", book.ID).Count(&remaining).Error)
	assert.Zero(t, remaining, "annotations must not survive their book")
}

func TestDeleteBook_MissingIsNoop(t *testing.T) {
	repo := NewRepository(setupTestDB(t).DB)

	orphaned, err := repo.DeleteBook("no-such-id")
	require.NoError(t, err)
	assert.Nil(t, orphaned)
}

func TestUpdateMetadata(t *testing.T) {
	repo := NewRepository(setupTestDB(t).DB)

	book := mustSave(t, repo, &entities.Book{Title: "9780140449334"})
	require.NoError(t, repo.UpdateMetadata(book.ID, map[string]any{
		"title":  "Crime and Punishment",
		"author": "Dostoevsky",
	}))

	found, err := repo.FindBook(book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Crime and Punishment", found.Title)
	assert.Equal(t, "Dostoevsky", found.Author)
}
