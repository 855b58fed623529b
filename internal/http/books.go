package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marginalia/internal/entities"
	"marginalia/internal/tasks"
)

type BooksController struct {
	books          BookStore
	taskClient     *tasks.Client
	metadataLookup bool
}

func NewBooksController(books BookStore, taskClient *tasks.Client, metadataLookup bool) *BooksController {
	return &BooksController{
		books:          books,
		taskClient:     taskClient,
		metadataLookup: metadataLookup,
	}
}

func (controller *BooksController) ListBooks(c *gin.Context) {
	archived := c.Query("archived") == "true"

	books, err := controller.books.ListBooks(archived)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

func (controller *BooksController) GetBook(c *gin.Context) {
	book, err := controller.books.FindBook(c.Param("id"))
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if book == nil {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "book not found"})
		return
	}

	count, err := controller.books.CountAnnotations(book.ID)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"book": book, "annotation_count": count})
}

type createBookRequest struct {
	Title  string `json:"title" binding:"required"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

func (controller *BooksController) CreateBook(c *gin.Context) {
	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	book := &entities.Book{
		Title:  req.Title,
		Author: req.Author,
		ISBN:   req.ISBN,
	}
	if err := controller.books.SaveBook(book); err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// A fresh ISBN-only book gets its metadata filled in the background.
	if controller.metadataLookup && controller.taskClient != nil && book.ISBN != "" {
		_, _ = controller.taskClient.Add(tasks.EnrichBookTask{BookID: book.ID}).Save()
	}

	c.IndentedJSON(http.StatusCreated, book)
}

type updateBookRequest struct {
	Title    *string `json:"title"`
	Author   *string `json:"author"`
	ISBN     *string `json:"isbn"`
	Archived *bool   `json:"archived"`
}

func (controller *BooksController) UpdateBook(c *gin.Context) {
	book, err := controller.books.FindBook(c.Param("id"))
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if book == nil {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "book not found"})
		return
	}

	var req updateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Title != nil {
		book.Title = *req.Title
	}
	if req.Author != nil {
		book.Author = *req.Author
	}
	if req.ISBN != nil {
		book.ISBN = *req.ISBN
	}
	if req.Archived != nil {
		book.Archived = *req.Archived
	}

	if err := controller.books.SaveBook(book); err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

// DeleteBook removes the book and all its annotations; the backing
// media files are deleted by a background task once the rows are gone.
func (controller *BooksController) DeleteBook(c *gin.Context) {
	orphaned, err := controller.books.DeleteBook(c.Param("id"))
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if len(orphaned) > 0 && controller.taskClient != nil {
		_, _ = controller.taskClient.Add(tasks.CleanupMediaTask{Paths: orphaned}).Save()
	}

	c.IndentedJSON(http.StatusOK, gin.H{"deleted": true, "media_files": len(orphaned)})
}

// EnrichBook queues a metadata lookup for the book's ISBN.
func (controller *BooksController) EnrichBook(c *gin.Context) {
	if controller.taskClient == nil || !controller.metadataLookup {
		c.IndentedJSON(http.StatusServiceUnavailable, gin.H{"error": "metadata lookup is disabled"})
		return
	}

	book, err := controller.books.FindBook(c.Param("id"))
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if book == nil {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "book not found"})
		return
	}
	if book.ISBN == "" {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "book has no ISBN"})
		return
	}

	ids, err := controller.taskClient.Add(tasks.EnrichBookTask{BookID: book.ID}).Save()
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusAccepted, gin.H{"task_ids": ids})
}
