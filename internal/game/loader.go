package game

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// File is a validated game record read from disk.
type File struct {
	// ID is the file name without extension.
	ID     string
	Path   string
	Record Record
	// Raw is the file content as read, kept for traceability backups.
	Raw json.RawMessage
}

// LoadError describes a game file that could not be used.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

func (e *LoadError) Unwrap() error { return e.Err }

// LoadDir reads every file under dir matching pattern (default "**/*.json"),
// sorted by path. Files that fail to parse or validate are reported in the
// second return value and skipped. A missing directory is an error.
func LoadDir(dir, pattern string) ([]File, []LoadError, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("games directory: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("games directory %s is not a directory", dir)
	}
	if pattern == "" {
		pattern = "**/*.json"
	}

	matches, err := doublestar.Glob(os.DirFS(dir), pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("matching %s in %s: %w", pattern, dir, err)
	}
	sort.Strings(matches)

	var (
		files  []File
		failed []LoadError
	)
	for _, rel := range matches {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		f, err := readFile(path)
		if err != nil {
			failed = append(failed, LoadError{Path: path, Err: err})
			continue
		}
		files = append(files, f)
	}
	return files, failed, nil
}

func readFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return File{}, fmt.Errorf("parsing game: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return File{}, fmt.Errorf("invalid game: %w", err)
	}

	base := filepath.Base(path)
	return File{
		ID:     strings.TrimSuffix(base, filepath.Ext(base)),
		Path:   path,
		Record: rec,
		Raw:    json.RawMessage(data),
	}, nil
}
