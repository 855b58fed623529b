// Package media manages the on-disk files backing annotations (audio,
// image, video) and cached book covers. Database rows reference files
// by path relative to the store's root directory.
package media

import (
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store is a flat directory of media files addressed by relative path.
type Store struct {
	root       string
	httpClient *http.Client
}

// NewStore creates (if needed) and opens the media directory.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &Store{
		root: root,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.root
}

// AbsPath resolves a stored relative path to an absolute one. Paths
// escaping the root are rejected.
func (s *Store) AbsPath(rel string) (string, error) {
	abs := filepath.Join(s.root, filepath.Clean("/"+rel))
	if !strings.HasPrefix(abs, filepath.Clean(s.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("media path %q escapes store", rel)
	}
	return abs, nil
}

// Remove deletes a media file by relative path. A file that is already
// gone is not an error.
func (s *Store) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	abs, err := s.AbsPath(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove media file: %w", err)
	}
	return nil
}

// Write stores content under the given relative path, creating parent
// directories as needed.
func (s *Store) Write(rel string, r io.Reader) error {
	abs, err := s.AbsPath(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Errorf("create media subdir: %w", err)
	}

	f, err := os.Create(abs)
	if err != nil {
		return fmt.Errorf("create media file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(abs)
		return fmt.Errorf("write media file: %w", err)
	}
	return nil
}

// CacheCover downloads a book cover and stores it, returning the
// relative path to record on the book.
func (s *Store) CacheCover(bookID, coverURL string) (string, error) {
	if coverURL == "" {
		return "", nil
	}

	hash := sha256.Sum256([]byte(coverURL))
	rel := filepath.Join("covers", fmt.Sprintf("cover_%s_%x.jpg", bookID, hash[:8]))

	abs, err := s.AbsPath(rel)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err == nil {
		return rel, nil
	}

	req, err := http.NewRequest(http.MethodGet, coverURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Marginalia/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch cover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch cover: unexpected status %d", resp.StatusCode)
	}

	if err := s.Write(rel, resp.Body); err != nil {
		return "", err
	}
	return rel, nil
}

// AllFiles lists every file in the store as relative paths.
func (s *Store) AllFiles() ([]string, error) {
	var files []string
	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk media dir: %w", err)
	}
	return files, nil
}

// SweepOrphans deletes every file not present in inUse and returns how
// many were removed. Callers pass the union of media paths referenced
// by annotations and cover paths referenced by books.
func (s *Store) SweepOrphans(inUse map[string]struct{}) (int, error) {
	files, err := s.AllFiles()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, rel := range files {
		if _, ok := inUse[rel]; ok {
			continue
		}
		if err := s.Remove(rel); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
