package http

import (
	"crypto/rand"
	"encoding/binary"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

type FeedController struct {
	feed FeedPager
}

func NewFeedController(feed FeedPager) *FeedController {
	return &FeedController{feed: feed}
}

// Page serves one window of the shuffled feed. When the client omits
// the seed (a fresh pull-to-refresh), a new one is generated and echoed
// back; the client passes it on subsequent requests so later pages
// belong to the same shuffle. An empty items list with a non-zero
// offset means end-of-feed.
func (controller *FeedController) Page(c *gin.Context) {
	seed, err := parseSeed(c.Query("seed"))
	if err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid seed"})
		return
	}

	limit, err := parseBoundedInt(c.Query("limit"), defaultFeedLimit, 1, maxFeedLimit)
	if err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	offset, err := parseBoundedInt(c.Query("offset"), 0, 0, 1<<30)
	if err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
		return
	}

	items, err := controller.feed.RandomizedPage(seed, limit, offset)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"seed":   strconv.FormatUint(seed, 10),
		"limit":  limit,
		"offset": offset,
		"items":  items,
		"count":  len(items),
	})
}

func parseSeed(raw string) (uint64, error) {
	if raw == "" {
		var buf [8]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, err
		}
		return binary.BigEndian.Uint64(buf[:]), nil
	}
	return strconv.ParseUint(raw, 10, 64)
}

func parseBoundedInt(raw string, fallback, min, max int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	return v, nil
}
