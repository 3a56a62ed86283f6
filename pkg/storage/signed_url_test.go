package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("note-1", "notes/notes_1_ab.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	recordID, relPath, parsedExpiry, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "note-1", recordID)
	require.Equal(t, "notes/notes_1_ab.pdf", relPath)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerRejectsTamperedToken(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("note-1", "notes/a.pdf")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 4)
	parts[0] = "note-2"
	_, _, _, err = signer.Parse(strings.Join(parts, "."))
	require.Error(t, err)
}

func TestSignedURLSignerRejectsWrongSecret(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	other := NewSignedURLSigner("other", time.Hour)
	token, _, err := signer.Generate("note-1", "notes/a.pdf")
	require.NoError(t, err)

	_, _, _, err = other.Parse(token)
	require.Error(t, err)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Millisecond)
	token, _, err := signer.Generate("note-1", "notes/a.pdf")
	require.NoError(t, err)
	time.Sleep(time.Millisecond * 1100)

	_, _, _, err = signer.Parse(token)
	require.Error(t, err)
}

func TestSignedURLSignerRequiresSecret(t *testing.T) {
	signer := NewSignedURLSigner("", time.Hour)
	_, _, err := signer.Generate("note-1", "notes/a.pdf")
	require.Error(t, err)
}
