package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ziadkadry99/udaplay/internal/game"
	"github.com/ziadkadry99/udaplay/internal/jsonfile"
	"github.com/ziadkadry99/udaplay/internal/vectordb"
)

// Progress receives per-file ingest notifications.
type Progress interface {
	Start(total int)
	Advance(name string)
	Done()
}

type nopProgress struct{}

func (nopProgress) Start(int)      {}
func (nopProgress) Advance(string) {}
func (nopProgress) Done()          {}

// LoadReport summarizes a directory ingest.
type LoadReport struct {
	Loaded  int
	Skipped []game.LoadError
}

// LoadGames indexes every valid game JSON file under dir, using the file
// name (without extension) as document ID and writing a copy of the raw
// file to documents/. Invalid files are reported and skipped.
func (b *Base) LoadGames(ctx context.Context, dir string, progress Progress) (LoadReport, error) {
	if progress == nil {
		progress = nopProgress{}
	}

	files, failed, err := game.LoadDir(dir, "")
	if err != nil {
		return LoadReport{}, err
	}
	for _, f := range failed {
		b.logger.Error("skipping game file", zap.String("path", f.Path), zap.Error(f.Err))
	}

	report := LoadReport{Skipped: failed}
	progress.Start(len(files))
	defer progress.Done()

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := b.store.AddDocuments(ctx, []vectordb.Document{gameDocument(f.ID, f.Record)}); err != nil {
			b.logger.Error("could not index game", zap.String("path", f.Path), zap.Error(err))
			report.Skipped = append(report.Skipped, game.LoadError{Path: f.Path, Err: err})
			progress.Advance(f.ID)
			continue
		}
		if err := jsonfile.Write(b.backupPath(f.ID+".json"), f.Raw); err != nil {
			b.logger.Debug("could not back up game file", zap.String("path", f.Path), zap.Error(err))
		}
		report.Loaded++
		b.logger.Info("loaded game", zap.String("name", f.Record.Name), zap.String("platform", f.Record.Platform))
		progress.Advance(f.ID)
	}

	b.logger.Info("finished loading games", zap.Int("loaded", report.Loaded), zap.Int("skipped", len(report.Skipped)))
	return report, nil
}

// AddGame indexes a single record. An empty id gets a time-based one.
func (b *Base) AddGame(ctx context.Context, rec game.Record, id string) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", fmt.Errorf("invalid game: %w", err)
	}
	if id == "" {
		id = fmt.Sprintf("game_%d", b.now().UnixMilli())
	}
	if err := b.store.AddDocuments(ctx, []vectordb.Document{gameDocument(id, rec)}); err != nil {
		return "", fmt.Errorf("adding game %s: %w", rec.Name, err)
	}
	if err := jsonfile.Write(b.backupPath(id+".game.json"), rec); err != nil {
		b.logger.Debug("could not back up game", zap.String("id", id), zap.Error(err))
	}
	b.logger.Info("added game", zap.String("name", rec.Name), zap.String("id", id))
	return id, nil
}

// Hit is a document matched by a semantic search. Record is populated for
// games; Title and URL for web documents.
type Hit struct {
	ID         string
	Kind       vectordb.DocumentKind
	Record     game.Record
	Title      string
	URL        string
	Content    string
	Similarity float64
}

// Search returns the documents of any kind most similar to query.
func (b *Base) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	return b.search(ctx, query, limit, nil)
}

// SearchGames is Search restricted to game records.
func (b *Base) SearchGames(ctx context.Context, query string, limit int) ([]Hit, error) {
	return b.search(ctx, query, limit, vectordb.KindFilter(vectordb.KindGame))
}

func (b *Base) search(ctx context.Context, query string, limit int, filter *vectordb.SearchFilter) ([]Hit, error) {
	results, err := b.store.Search(ctx, query, limit, filter)
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, len(results))
	for i, r := range results {
		md := r.Document.Metadata
		hits[i] = Hit{
			ID:         r.Document.ID,
			Kind:       md.Kind,
			Record:     recordFromMetadata(md),
			Title:      md.Title,
			URL:        md.URL,
			Content:    r.Document.Content,
			Similarity: float64(r.Similarity),
		}
	}
	return hits, nil
}

// Games returns every distinct game (by name and platform), sorted by name.
func (b *Base) Games(ctx context.Context) ([]game.Record, error) {
	docs, err := b.store.List(ctx, vectordb.KindFilter(vectordb.KindGame))
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(docs))
	var out []game.Record
	for _, d := range docs {
		rec := recordFromMetadata(d.Metadata)
		if seen[rec.Key()] {
			continue
		}
		seen[rec.Key()] = true
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !strings.EqualFold(out[i].Name, out[j].Name) {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		}
		return out[i].Platform < out[j].Platform
	})
	return out, nil
}

// Stats describes the knowledge base.
type Stats struct {
	Collection       string `json:"collection_name"`
	TotalDocuments   int    `json:"total_documents"`
	IngestedWebPages int    `json:"ingested_web_pages"`
	PersistDirectory string `json:"persist_directory"`
}

// Stats reports document counts.
func (b *Base) Stats(collection string) Stats {
	return Stats{
		Collection:       collection,
		TotalDocuments:   b.store.Count(),
		IngestedWebPages: b.IngestedCount(),
		PersistDirectory: b.dir,
	}
}

func gameDocument(id string, rec game.Record) vectordb.Document {
	return vectordb.Document{
		ID:      id,
		Content: rec.SearchableContent(),
		Metadata: vectordb.DocumentMetadata{
			Kind:          vectordb.KindGame,
			Name:          rec.Name,
			Platform:      rec.Platform,
			Genre:         rec.Genre,
			Publisher:     rec.Publisher,
			Description:   rec.Description,
			YearOfRelease: rec.YearOfRelease,
		},
	}
}

func recordFromMetadata(m vectordb.DocumentMetadata) game.Record {
	return game.Record{
		Name:          m.Name,
		Platform:      m.Platform,
		Genre:         m.Genre,
		Publisher:     m.Publisher,
		Description:   m.Description,
		YearOfRelease: m.YearOfRelease,
	}
}
