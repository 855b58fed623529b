package http

import (
	"marginalia/internal/database"
	"marginalia/internal/tasks"
)

// RouterConfig carries all dependencies for the HTTP router. Optional
// fields (TaskClient) may be nil; the affected endpoints degrade to
// synchronous or disabled behavior.
type RouterConfig struct {
	Database    *database.Database
	Books       BookStore
	Annotations AnnotationStore
	Searcher    Searcher
	Feed        FeedPager

	TaskClient     *tasks.Client
	MetadataLookup bool

	Version string
}
