// Package annotations provides database operations for annotation
// management, including the ranked full-text queries and the ordered id
// fetches the search and feed layers are built on.
package annotations

import (
	"errors"

	"gorm.io/gorm"

	"marginalia/internal/database"
	"marginalia/internal/entities"
)

// Repository handles all annotation database operations.
type Repository struct {
	db  *gorm.DB
	fts bool
}

// NewRepository creates a new annotations repository. ftsAvailable
// should come from database.Database.FTSAvailable; when false, Match
// fails fast instead of erroring inside SQLite.
func NewRepository(db *gorm.DB, ftsAvailable bool) *Repository {
	return &Repository{db: db, fts: ftsAvailable}
}

// FindAnnotation retrieves an annotation by ID. Returns (nil, nil) when
// no annotation with that ID exists.
func (r *Repository) FindAnnotation(id string) (*entities.Annotation, error) {
	var annotation entities.Annotation
	err := r.db.First(&annotation, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, database.Wrap("find annotation", err)
	}
	return &annotation, nil
}

// ListForBook returns a book's annotations, newest first.
func (r *Repository) ListForBook(bookID string) ([]entities.Annotation, error) {
	var annotations []entities.Annotation
	err := r.db.Where("book_id = ?", bookID).
		Order("created_at DESC, id ASC").
		Find(&annotations).Error
	if err != nil {
		return nil, database.Wrap("list annotations", err)
	}
	return annotations, nil
}

// Save validates and upserts an annotation. The FTS index follows via
// triggers, so the row is searchable as soon as Save returns.
func (r *Repository) Save(annotation *entities.Annotation) error {
	if err := annotation.Validate(); err != nil {
		return err
	}
	if err := r.db.Save(annotation).Error; err != nil {
		return database.Wrap("save annotation", err)
	}
	return nil
}

// SetTranscription records the transcription for an annotation once the
// speech-to-text collaborator delivers it.
func (r *Repository) SetTranscription(id, transcription string) error {
	err := r.db.Model(&entities.Annotation{}).Where("id = ?", id).
		Update("transcription", transcription).Error
	return database.Wrap("set transcription", err)
}

// Delete removes an annotation and returns the media path it was backed
// by so the caller can remove the file. Deleting a missing annotation
// is a no-op.
func (r *Repository) Delete(id string) (mediaPath string, err error) {
	var annotation entities.Annotation
	findErr := r.db.First(&annotation, "id = ?", id).Error
	if errors.Is(findErr, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if findErr != nil {
		return "", database.Wrap("delete annotation", findErr)
	}

	if err := r.db.Delete(&entities.Annotation{}, "id = ?", id).Error; err != nil {
		return "", database.Wrap("delete annotation", err)
	}
	return annotation.MediaPath(), nil
}

// Match runs a ranked FTS5 query against the caption/transcription
// index and returns up to limit annotations, best match first. matchExpr
// must be a valid FTS5 match expression; ties in relevance break on id
// so repeated identical queries return identical orderings.
func (r *Repository) Match(matchExpr string, limit int) ([]entities.Annotation, error) {
	if !r.fts {
		return nil, database.Wrap("match annotations", database.ErrFTSUnavailable)
	}

	var annotations []entities.Annotation
	err := r.db.Raw(`
		SELECT a.*
		FROM annotations a
		JOIN annotations_fts f ON f.rowid = a.rowid
		WHERE annotations_fts MATCH ?
		ORDER BY bm25(annotations_fts), a.id
		LIMIT ?`, matchExpr, limit).
		Scan(&annotations).Error
	if err != nil {
		return nil, database.Wrap("match annotations", err)
	}
	return annotations, nil
}

// ListIDs returns the ids of all annotations in stable (lexical) order.
func (r *Repository) ListIDs() ([]string, error) {
	var ids []string
	err := r.db.Model(&entities.Annotation{}).Order("id ASC").Pluck("id", &ids).Error
	if err != nil {
		return nil, database.Wrap("list annotation ids", err)
	}
	return ids, nil
}

// FindByIDs fetches the given annotations in one query. Ids that no
// longer resolve are simply absent from the result; callers decide how
// to handle the gap.
func (r *Repository) FindByIDs(ids []string) ([]entities.Annotation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var annotations []entities.Annotation
	err := r.db.Where("id IN ?", ids).Find(&annotations).Error
	if err != nil {
		return nil, database.Wrap("find annotations by ids", err)
	}
	return annotations, nil
}

// AllMediaPaths returns every media path referenced by an annotation.
// Used by the orphan sweep to decide which files are still live.
func (r *Repository) AllMediaPaths() (map[string]struct{}, error) {
	var annotations []entities.Annotation
	err := r.db.Select("type", "audio_path", "image_path", "video_path").Find(&annotations).Error
	if err != nil {
		return nil, database.Wrap("list media paths", err)
	}

	paths := make(map[string]struct{}, len(annotations))
	for _, a := range annotations {
		if p := a.MediaPath(); p != "" {
			paths[p] = struct{}{}
		}
	}
	return paths, nil
}
