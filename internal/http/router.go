package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	booksController := NewBooksController(cfg.Books, cfg.TaskClient, cfg.MetadataLookup)
	annotationsController := NewAnnotationsController(cfg.Annotations, cfg.Books, cfg.TaskClient)
	searchController := NewSearchController(cfg.Searcher)
	feedController := NewFeedController(cfg.Feed)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Books API endpoints
	router.GET("/api/books", booksController.ListBooks)
	router.POST("/api/books", booksController.CreateBook)
	router.GET("/api/books/:id", booksController.GetBook)
	router.PATCH("/api/books/:id", booksController.UpdateBook)
	router.DELETE("/api/books/:id", booksController.DeleteBook)
	router.POST("/api/books/:id/enrich", booksController.EnrichBook)
	router.GET("/api/books/:id/annotations", annotationsController.ListForBook)

	// Annotations API endpoints
	router.POST("/api/annotations", annotationsController.CreateAnnotation)
	router.GET("/api/annotations/:id", annotationsController.GetAnnotation)
	router.PATCH("/api/annotations/:id", annotationsController.UpdateAnnotation)
	router.DELETE("/api/annotations/:id", annotationsController.DeleteAnnotation)

	// Search and feed
	router.GET("/api/search", searchController.Search)
	router.GET("/api/feed", feedController.Page)

	return router
}
