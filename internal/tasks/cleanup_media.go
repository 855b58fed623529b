package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// MediaRemover deletes a media file by its stored relative path.
// Implemented by media.Store.
type MediaRemover interface {
	Remove(rel string) error
}

// CleanupMediaTask deletes the media files left behind by an
// annotation or book deletion. The row deletion commits first; file
// removal happens here so a slow filesystem never holds up the request.
type CleanupMediaTask struct {
	Paths []string `json:"paths"`
}

// Config returns the queue configuration for media cleanup tasks.
func (t CleanupMediaTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_media",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupMediaProcessor creates a processor function for CleanupMediaTask.
func CleanupMediaProcessor(remover MediaRemover) backlite.QueueProcessor[CleanupMediaTask] {
	return func(ctx context.Context, task CleanupMediaTask) error {
		if remover == nil {
			return fmt.Errorf("media remover not configured")
		}

		for _, p := range task.Paths {
			if err := remover.Remove(p); err != nil {
				return fmt.Errorf("remove media %s: %w", p, err)
			}
		}

		log.Printf("[TASK] Removed %d media files", len(task.Paths))
		return nil
	}
}

// NewCleanupMediaQueue creates a backlite queue for media cleanup tasks.
func NewCleanupMediaQueue(remover MediaRemover) backlite.Queue {
	return backlite.NewQueue(CleanupMediaProcessor(remover))
}
