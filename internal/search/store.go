// internal/search/store.go
package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Result is one similarity hit.
type Result struct {
	Title     string  `json:"title"`
	Namespace int     `json:"namespace"`
	Snippet   string  `json:"snippet"`
	Score     float64 `json:"score"`
}

// Store runs similarity queries against pgvector-indexed wiki pages.
// Embeddings are written by the indexing pipeline (MWAssistant pushes page
// text, we embed and upsert); reads are tenant-scoped.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store { return &Store{pool: pool} }

// EnsureSchema creates the page embedding table. Requires the pgvector
// extension; dimension matches text-embedding-3-large.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS wiki_pages (
  wiki_id text NOT NULL,
  page_title text NOT NULL,
  namespace int NOT NULL DEFAULT 0,
  content text NOT NULL DEFAULT '',
  embedding vector(3072),
  updated_at timestamptz NOT NULL DEFAULT NOW(),
  PRIMARY KEY (wiki_id, page_title)
);
`)
	return err
}

// Upsert stores or replaces one page's text and embedding.
func (s *Store) Upsert(ctx context.Context, wikiID, title string, namespace int, content string, embedding []float32) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO wiki_pages (wiki_id, page_title, namespace, content, embedding)
VALUES ($1, $2, $3, $4, $5::vector)
ON CONFLICT (wiki_id, page_title)
DO UPDATE SET namespace=EXCLUDED.namespace, content=EXCLUDED.content, embedding=EXCLUDED.embedding, updated_at=NOW()`,
		wikiID, title, namespace, content, vectorLiteral(embedding))
	if err != nil {
		return fmt.Errorf("search: upsert: %w", err)
	}
	return nil
}

// Delete removes one page's row and reports whether anything was there.
func (s *Store) Delete(ctx context.Context, wikiID, title string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM wiki_pages WHERE wiki_id = $1 AND page_title = $2`, wikiID, title)
	if err != nil {
		return 0, fmt.Errorf("search: delete: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Stats reports how much of the tenant's corpus is indexed.
type Stats struct {
	TotalPages    int64 `json:"total_pages"`
	EmbeddedPages int64 `json:"embedded_pages"`
}

func (s *Store) Stats(ctx context.Context, wikiID string) (Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx, `
SELECT count(*), count(embedding)
FROM wiki_pages
WHERE wiki_id = $1`,
		wikiID).Scan(&st.TotalPages, &st.EmbeddedPages)
	if err != nil {
		return Stats{}, fmt.Errorf("search: stats: %w", err)
	}
	return st, nil
}

// Similar returns the pages closest to the query embedding, best first.
func (s *Store) Similar(ctx context.Context, wikiID string, embedding []float32, limit int) ([]Result, error) {
	rows, err := s.pool.Query(ctx, `
SELECT page_title, namespace, left(content, 300), 1 - (embedding <=> $2::vector) AS score
FROM wiki_pages
WHERE wiki_id = $1 AND embedding IS NOT NULL
ORDER BY embedding <=> $2::vector
LIMIT $3`,
		wikiID, vectorLiteral(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("search: similar: %w", err)
	}
	defer rows.Close()
	var out []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Title, &r.Namespace, &r.Snippet, &r.Score); err != nil {
			return nil, fmt.Errorf("search: scan: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// vectorLiteral renders the pgvector input format: [0.1,0.2,...].
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
