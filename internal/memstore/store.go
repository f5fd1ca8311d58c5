// Package memstore is a SQLite-backed long-term fact store for the memory tools.
//
// Facts are small free-text entries with optional string metadata. Retrieval is
// lexical: case-insensitive term matching with a hit-count ranking. No embedding
// model is involved; the store stays usable offline.
package memstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no memory exists for the requested ID.
var ErrNotFound = errors.New("memory not found")

// Memory is one stored fact.
type Memory struct {
	ID        string            `json:"id"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Store wraps the backing database. Safe for use from a single session loop.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS memories (
	id         TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	metadata   TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Open opens (creating if needed) the store at path. The parent directory is
// created when missing; any failure is reported to the caller, which typically
// disables the memory tools rather than aborting startup.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("memstore: create dir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("memstore: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("memstore: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the backing database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add stores a new fact and returns its ID. A timestamp metadata entry is
// added when the caller did not provide one.
func (s *Store) Add(ctx context.Context, content string, metadata map[string]string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("memstore: content must not be empty")
	}
	now := time.Now().UTC()
	if metadata == nil {
		metadata = map[string]string{}
	}
	if _, ok := metadata["timestamp"]; !ok {
		metadata["timestamp"] = now.Format("2006-01-02 15:04:05")
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO memories (id, content, metadata, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, content, string(metaJSON), now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return "", err
	}
	return id, nil
}

// Get returns the fact with the given ID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Memory, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, content, metadata, created_at, updated_at FROM memories WHERE id = ?`, id)
	m, err := scanMemory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

// Update replaces the content (and, when non-nil, metadata) of an existing fact.
func (s *Store) Update(ctx context.Context, id, content string, metadata map[string]string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if metadata == nil {
		metadata = existing.Metadata
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		`UPDATE memories SET content = ?, metadata = ?, updated_at = ? WHERE id = ?`,
		content, string(metaJSON), now, id)
	return err
}

// Delete removes the fact with the given ID, or returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes all stored facts.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM memories`)
	return err
}

// List returns up to limit facts, newest first. limit <= 0 means no cap.
func (s *Store) List(ctx context.Context, limit int) ([]Memory, error) {
	q := `SELECT id, content, metadata, created_at, updated_at FROM memories ORDER BY updated_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMemories(rows)
}

// Search returns up to limit facts relevant to query, ranked by the number of
// distinct query terms found in the content (case-insensitive), ties broken by
// recency. An empty query matches nothing.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Memory, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	// The store is expected to stay small (hundreds of facts); scoring in
	// process keeps ranking logic out of SQL.
	all, err := s.List(ctx, 0)
	if err != nil {
		return nil, err
	}

	type scored struct {
		m     Memory
		score int
	}
	matches := make([]scored, 0, len(all))
	for _, m := range all {
		lc := strings.ToLower(m.Content)
		score := 0
		for _, term := range terms {
			if strings.Contains(lc, term) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{m: m, score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].m.UpdatedAt.After(matches[j].m.UpdatedAt)
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]Memory, 0, len(matches))
	for _, sc := range matches {
		out = append(out, sc.m)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(r rowScanner) (*Memory, error) {
	var m Memory
	var metaJSON, created, updated string
	if err := r.Scan(&m.ID, &m.Content, &metaJSON, &created, &updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(metaJSON), &m.Metadata); err != nil {
		return nil, fmt.Errorf("memstore: corrupt metadata for %s: %w", m.ID, err)
	}
	var err error
	if m.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("memstore: corrupt created_at for %s: %w", m.ID, err)
	}
	if m.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return nil, fmt.Errorf("memstore: corrupt updated_at for %s: %w", m.ID, err)
	}
	return &m, nil
}

func collectMemories(rows *sql.Rows) ([]Memory, error) {
	var out []Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}
