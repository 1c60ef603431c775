package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/udaplay/internal/db"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("history entry not found")

// Fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store provides persistence for history entries.
type Store struct {
	db  *db.DB
	now func() time.Time
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// Record inserts a new entry with its web results. If entry.ID is empty a
// UUID is generated; a zero Timestamp is set to now. It returns the ID.
func (s *Store) Record(ctx context.Context, entry Entry) (string, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}
	if entry.UserID == "" {
		entry.UserID = "default"
	}

	sources, err := json.Marshal(nonNil(entry.Sources))
	if err != nil {
		return "", fmt.Errorf("marshalling sources: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO query_history (
			id, timestamp, user_id, question, answer, confidence,
			search_method, sources, local_results, evaluation_useful,
			evaluation_confidence, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp.UTC().Format(timeLayout),
		entry.UserID,
		entry.Question,
		entry.Answer,
		entry.Confidence,
		entry.SearchMethod,
		string(sources),
		entry.LocalResults,
		entry.EvaluationUseful,
		entry.EvaluationConfidence,
		entry.DurationMS,
	)
	if err != nil {
		return "", fmt.Errorf("inserting history entry: %w", err)
	}

	for i, w := range entry.WebResults {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO query_web_results (query_id, position, title, url, relevance_score) VALUES (?, ?, ?, ?, ?)`,
			entry.ID, i, w.Title, w.URL, w.RelevanceScore)
		if err != nil {
			return "", fmt.Errorf("inserting web result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing history entry: %w", err)
	}
	return entry.ID, nil
}

// Get retrieves a single entry including its web results.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	e, err := scanInto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading history entry: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT title, url, relevance_score FROM query_web_results WHERE query_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("reading web results: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var w WebResult
		if err := rows.Scan(&w.Title, &w.URL, &w.RelevanceScore); err != nil {
			return nil, err
		}
		e.WebResults = append(e.WebResults, w)
	}
	return e, rows.Err()
}

// QueryFilter controls which entries are returned by Query.
type QueryFilter struct {
	UserID       string
	SearchMethod string
	Since        *time.Time
	Until        *time.Time
	Contains     string
	Limit        int
	Offset       int
}

// Query returns entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	where, args := filter.clauses()
	query := selectColumns + where + " ORDER BY timestamp DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Summarize aggregates entries matching the filter. Limit and Offset are
// ignored.
func (s *Store) Summarize(ctx context.Context, filter QueryFilter) (Summary, error) {
	where, args := filter.clauses()
	rows, err := s.db.QueryContext(ctx,
		"SELECT search_method, COUNT(*), COALESCE(SUM(confidence), 0) FROM query_history"+where+" GROUP BY search_method", args...)
	if err != nil {
		return Summary{}, fmt.Errorf("summarizing history: %w", err)
	}
	defer rows.Close()

	sum := Summary{ByMethod: make(map[string]int)}
	var totalConfidence float64
	for rows.Next() {
		var (
			method string
			count  int
			conf   float64
		)
		if err := rows.Scan(&method, &count, &conf); err != nil {
			return Summary{}, err
		}
		sum.ByMethod[method] = count
		sum.Total += count
		totalConfidence += conf
	}
	if sum.Total > 0 {
		sum.MeanConfidence = totalConfidence / float64(sum.Total)
	}
	return sum, rows.Err()
}

// DeleteBefore removes all entries older than the given time.
// Returns the number of deleted rows.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM query_history WHERE timestamp < ?",
		before.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old history entries: %w", err)
	}
	return res.RowsAffected()
}

func (f QueryFilter) clauses() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.SearchMethod != "" {
		clauses = append(clauses, "search_method = ?")
		args = append(args, f.SearchMethod)
	}
	if f.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, f.Since.UTC().Format(timeLayout))
	}
	if f.Until != nil {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, f.Until.UTC().Format(timeLayout))
	}
	if f.Contains != "" {
		clauses = append(clauses, "question LIKE ?")
		args = append(args, "%"+f.Contains+"%")
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

const selectColumns = `SELECT id, timestamp, user_id, question, answer, confidence, search_method,
	sources, local_results, evaluation_useful, evaluation_confidence, duration_ms
	FROM query_history`

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Entry, error) {
	var (
		e           Entry
		ts, sources string
	)
	err := sc.Scan(
		&e.ID, &ts, &e.UserID, &e.Question, &e.Answer, &e.Confidence, &e.SearchMethod,
		&sources, &e.LocalResults, &e.EvaluationUseful, &e.EvaluationConfidence, &e.DurationMS,
	)
	if err != nil {
		return nil, err
	}

	if t, parseErr := time.Parse(timeLayout, ts); parseErr == nil {
		e.Timestamp = t
	} else if t, parseErr := time.Parse(time.RFC3339Nano, ts); parseErr == nil {
		e.Timestamp = t
	}

	if err := json.Unmarshal([]byte(sources), &e.Sources); err != nil {
		e.Sources = nil
	}
	return &e, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
