package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const granTurismo = `{
  "Name": "Gran Turismo",
  "Platform": "PlayStation 1",
  "Genre": "Racing",
  "Publisher": "Sony Computer Entertainment",
  "Description": "A realistic racing simulator.",
  "YearOfRelease": 1997
}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSearchableContent(t *testing.T) {
	r := Record{
		Name: "Gran Turismo", Platform: "PlayStation 1", Genre: "Racing",
		Publisher: "Sony Computer Entertainment", Description: "A realistic racing simulator.",
		YearOfRelease: 1997,
	}
	assert.Equal(t,
		"[PlayStation 1] Gran Turismo (1997) - Genre: Racing, Publisher: Sony Computer Entertainment. A realistic racing simulator.",
		r.SearchableContent())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Record{Name: "a", Platform: "b", Genre: "c", Publisher: "d", Description: "e", YearOfRelease: 2000}.Validate())

	err := Record{Name: "a"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Platform is required")
	assert.Contains(t, err.Error(), "YearOfRelease")
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "001.json"), granTurismo)
	writeFile(t, filepath.Join(dir, "nested", "002.json"), `{"Name":"Halo","Platform":"Xbox","Genre":"Shooter","Publisher":"Microsoft","Description":"Sci-fi shooter.","YearOfRelease":2001}`)
	writeFile(t, filepath.Join(dir, "broken.json"), `{"Name":`)
	writeFile(t, filepath.Join(dir, "incomplete.json"), `{"Name":"Nameless"}`)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	files, failed, err := LoadDir(dir, "")
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.Equal(t, "001", files[0].ID)
	assert.Equal(t, "Gran Turismo", files[0].Record.Name)
	assert.Equal(t, 1997, files[0].Record.YearOfRelease)
	assert.JSONEq(t, granTurismo, string(files[0].Raw))
	assert.Equal(t, "002", files[1].ID)

	require.Len(t, failed, 2)
	paths := []string{failed[0].Path, failed[1].Path}
	assert.Contains(t, paths, filepath.Join(dir, "broken.json"))
	assert.Contains(t, paths, filepath.Join(dir, "incomplete.json"))
}

func TestLoadDirMissing(t *testing.T) {
	_, _, err := LoadDir(filepath.Join(t.TempDir(), "nope"), "")
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	a := Record{Name: "Halo", Platform: "Xbox"}
	b := Record{Name: "HALO", Platform: "xbox"}
	assert.Equal(t, a.Key(), b.Key())
}
