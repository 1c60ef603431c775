// Package game defines the video game record stored in the knowledge base
// and loads records from a directory of JSON files.
package game

import (
	"errors"
	"fmt"
	"strings"
)

// Record is one game entry. The JSON field names match the on-disk game
// file format.
type Record struct {
	Name          string `json:"Name"`
	Platform      string `json:"Platform"`
	Genre         string `json:"Genre"`
	Publisher     string `json:"Publisher"`
	Description   string `json:"Description"`
	YearOfRelease int    `json:"YearOfRelease"`
}

// Validate reports missing required fields.
func (r Record) Validate() error {
	var errs []error
	required := map[string]string{
		"Name":        r.Name,
		"Platform":    r.Platform,
		"Genre":       r.Genre,
		"Publisher":   r.Publisher,
		"Description": r.Description,
	}
	for _, field := range []string{"Name", "Platform", "Genre", "Publisher", "Description"} {
		if strings.TrimSpace(required[field]) == "" {
			errs = append(errs, fmt.Errorf("%s is required", field))
		}
	}
	if r.YearOfRelease <= 0 {
		errs = append(errs, fmt.Errorf("YearOfRelease must be positive, got %d", r.YearOfRelease))
	}
	return errors.Join(errs...)
}

// SearchableContent renders the text that is embedded for semantic search.
func (r Record) SearchableContent() string {
	return fmt.Sprintf("[%s] %s (%d) - Genre: %s, Publisher: %s. %s",
		r.Platform, r.Name, r.YearOfRelease, r.Genre, r.Publisher, r.Description)
}

// Key identifies a game across platforms for deduplication.
func (r Record) Key() string {
	return strings.ToLower(r.Name) + "|" + strings.ToLower(r.Platform)
}
