package storage

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"Cours Anatomie.pdf":        "Cours_Anatomie.pdf",
		"../../etc/passwd":          "passwd",
		"résumé final.PDF":          "rsum_final.pdf",
		"???":                       "file",
		"a b-c_d.png":               "a_b-c_d.png",
		strings.Repeat("x", 150) + ".pdf": strings.Repeat("x", 100) + ".pdf",
	}
	for input, want := range cases {
		assert.Equal(t, want, SanitizeFilename(input), "input %q", input)
	}
}

func TestStoredNameKeepsExtension(t *testing.T) {
	name := StoredName(CategoryNotes, "Cours.PDF")
	assert.True(t, strings.HasPrefix(name, "notes_"))
	assert.True(t, strings.HasSuffix(name, ".pdf"))

	nested := StoredName(CategoryAnnouncementImages, "photo.jpg")
	assert.True(t, strings.HasPrefix(nested, "announcements_images_"))
	assert.False(t, strings.Contains(nested, "/"))
}

func TestLocalStorageSaveExistsDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	rel := filepath.ToSlash(filepath.Join(CategoryNotes, "file.pdf"))
	saved, err := store.Save(rel, []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, rel, saved)
	assert.True(t, store.Exists(rel))

	f, err := store.Open(rel)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, store.Delete(rel))
	assert.False(t, store.Exists(rel))

	// Deleting a missing blob is not an error.
	require.NoError(t, store.Delete(rel))
}

func TestLocalStorageResolveConfinesPaths(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base)
	require.NoError(t, err)

	path := store.Path("../../secret.txt")
	assert.True(t, strings.HasPrefix(path, base))

	// Absolute inputs are rooted under the base directory too, never
	// resolved as-is.
	abs := store.Path("/etc/passwd")
	assert.True(t, strings.HasPrefix(abs, base))
	assert.Equal(t, filepath.Join(base, "etc", "passwd"), abs)
	assert.False(t, store.Exists("/etc/passwd"))
}
