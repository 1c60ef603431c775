package jsonfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func TestWriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "doc.json")

	require.NoError(t, Write(path, doc{Name: "zelda", Items: []string{"a", "b"}}))

	var got doc
	require.NoError(t, Read(path, &got))
	assert.Equal(t, "zelda", got.Name)
	assert.Equal(t, []string{"a", "b"}, got.Items)

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should not survive a write")
}

func TestWriteOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, Write(path, doc{Name: "first"}))
	require.NoError(t, Write(path, doc{Name: "second"}))

	var got doc
	require.NoError(t, Read(path, &got))
	assert.Equal(t, "second", got.Name)
}

func TestFailedWriteKeepsPreviousDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, Write(path, doc{Name: "first"}))
	// A directory in the temp file's place makes the write fail.
	require.NoError(t, os.Mkdir(path+".tmp", 0o755))

	assert.Error(t, Write(path, doc{Name: "second"}))

	var got doc
	require.NoError(t, Read(path, &got))
	assert.Equal(t, "first", got.Name)
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp path should be cleaned up")
}

func TestReadMissing(t *testing.T) {
	var got doc
	err := Read(filepath.Join(t.TempDir(), "missing.json"), &got)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestReadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var got doc
	err := Read(path, &got)
	require.Error(t, err)
	assert.False(t, errors.Is(err, os.ErrNotExist))
}
