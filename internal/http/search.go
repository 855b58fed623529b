package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type SearchController struct {
	searcher Searcher
}

func NewSearchController(searcher Searcher) *SearchController {
	return &SearchController{searcher: searcher}
}

// Search runs a ranked full-text search over annotation captions and
// transcriptions. An empty or whitespace-only query returns an empty
// result set. Debouncing rapid keystrokes is the client's job; every
// call here hits the store.
func (controller *SearchController) Search(c *gin.Context) {
	results, err := controller.searcher.Search(c.Query("q"))
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}
