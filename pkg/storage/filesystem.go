package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// Blob categories map to directories under the public storage root.
const (
	CategoryFilieres       = "filieres"
	CategoryNotes          = "notes"
	CategoryHeroSlides     = "hero_slides"
	CategoryPlannings      = "plannings"
	CategoryScheduleImages = "schedule_images"

	CategoryAnnouncementImages   = "announcements/images"
	CategoryAnnouncementPDFs     = "announcements/pdfs"
	CategoryDownloadImages       = "downloads/images"
	CategoryDownloadFiles        = "downloads/files"
	CategoryRegulatoryTextImages = "regulatory_texts/images"
	CategoryRegulatoryTextFiles  = "regulatory_texts/files"
)

// LocalStorage persists uploaded blobs on disk under a base directory,
// namespaced by category.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./storage/public"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// StoredName derives a collision-resistant file name for a category,
// keeping the original extension.
func StoredName(category, originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	prefix := strings.ReplaceAll(category, "/", "_")
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s_%d%s", prefix, time.Now().UnixNano(), ext)
	}
	return fmt.Sprintf("%s_%d_%s%s", prefix, time.Now().UnixNano(), hex.EncodeToString(buf), ext)
}

// SanitizeFilename strips everything but alphanumerics, underscores and
// dashes from the display name, capped at 100 characters. The extension is
// preserved. Used for the human-readable name only, never for disk paths.
func SanitizeFilename(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(filepath.Base(name), ext)

	var b strings.Builder
	for _, r := range stem {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r), r == '_', r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	clean := b.String()
	if clean == "" {
		clean = "file"
	}
	if len(clean) > 100 {
		clean = clean[:100]
	}
	return clean + strings.ToLower(ext)
}

// Save writes the given bytes to the category-relative path.
func (s *LocalStorage) Save(relPath string, data []byte) (string, error) {
	path := s.resolve(relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare storage directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return relPath, nil
}

// SaveStream copies from reader into the target path.
func (s *LocalStorage) SaveStream(relPath string, r io.Reader) (string, error) {
	path := s.resolve(relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare storage directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create blob file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		return "", fmt.Errorf("write blob stream: %w", err)
	}
	return relPath, nil
}

// Open returns a read-only handle for the stored blob.
func (s *LocalStorage) Open(relPath string) (*os.File, error) {
	file, err := os.Open(s.resolve(relPath))
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return file, nil
}

// Exists reports whether a blob is actually present on disk. Seeded records
// may reference paths with no backing file.
func (s *LocalStorage) Exists(relPath string) bool {
	if relPath == "" {
		return false
	}
	info, err := os.Stat(s.resolve(relPath))
	return err == nil && !info.IsDir()
}

// Delete removes a stored blob if present.
func (s *LocalStorage) Delete(relPath string) error {
	if err := os.Remove(s.resolve(relPath)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

// Path exposes the underlying absolute path (useful for debugging).
func (s *LocalStorage) Path(relPath string) string {
	return s.resolve(relPath)
}

// resolve confines every path to the base directory. Absolute inputs and
// parent traversals are rooted before joining so a stored path can never
// escape the storage tree.
func (s *LocalStorage) resolve(relPath string) string {
	return filepath.Join(s.baseDir, filepath.Clean("/"+relPath))
}
