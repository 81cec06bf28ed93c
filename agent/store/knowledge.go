package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/healthcare-assistant/agent/contract"
	"github.com/uptrace/bun"
)

type knowledgeRow struct {
	bun.BaseModel `bun:"table:knowledge_vectors,alias:kv"`

	ID             string `bun:"id,pk"`
	Title          string `bun:"title"`
	Content        string `bun:"content"`
	Category       string `bun:"category"`
	SearchableText string `bun:"searchable_text"`
}

type knowledgeHit struct {
	ID       string  `bun:"id"`
	Title    string  `bun:"title"`
	Content  string  `bun:"content"`
	Category string  `bun:"category"`
	Score    float64 `bun:"similarity_score"`
}

// KnowledgeDoc is one knowledge entry as written by the loader. Embedding may
// be nil, in which case the row is only reachable through keyword search.
type KnowledgeDoc struct {
	ID             string
	Title          string
	Content        string
	Category       string
	SearchableText string
	Embedding      []float32
}

// SearchableText is the lowercase text keyword search matches against.
func SearchableText(title, content string) string {
	return strings.ToLower(title + " " + content)
}

// VectorSearch returns the topK nearest rows by cosine distance. Lower scores
// are closer.
func (s *Store) VectorSearch(ctx context.Context, vec []float32, topK int) ([]contractx.KnowledgeItem, error) {
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", contractx.ErrValidation)
	}

	var hits []knowledgeHit
	err := s.db.NewSelect().
		TableExpr("knowledge_vectors AS kv").
		ColumnExpr("kv.id, kv.title, kv.content, kv.category").
		ColumnExpr("kv.embedding <=> ?::vector AS similarity_score", VectorLiteral(vec)).
		Where("kv.embedding IS NOT NULL").
		OrderExpr("similarity_score ASC").
		Limit(topK).
		Scan(ctx, &hits)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	items := make([]contractx.KnowledgeItem, 0, len(hits))
	for _, h := range hits {
		items = append(items, contractx.KnowledgeItem{
			ID:              h.ID,
			Title:           h.Title,
			Content:         h.Content,
			Category:        h.Category,
			SimilarityScore: h.Score,
		})
	}
	return items, nil
}

// KeywordSearch matches word case-insensitively against the searchable text,
// title and content.
func (s *Store) KeywordSearch(ctx context.Context, word string, limit int) ([]contractx.KnowledgeItem, error) {
	pattern := "%" + escapeLike(strings.ToLower(word)) + "%"

	var rows []knowledgeRow
	err := s.db.NewSelect().
		Model(&rows).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("kv.searchable_text ILIKE ?", pattern).
				WhereOr("kv.title ILIKE ?", pattern).
				WhereOr("kv.content ILIKE ?", pattern)
		}).
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("keyword search %q: %w", word, err)
	}
	return rowsToItems(rows), nil
}

// Sample returns up to limit arbitrary rows.
func (s *Store) Sample(ctx context.Context, limit int) ([]contractx.KnowledgeItem, error) {
	var rows []knowledgeRow
	if err := s.db.NewSelect().Model(&rows).Limit(limit).Scan(ctx); err != nil {
		return nil, fmt.Errorf("sample knowledge: %w", err)
	}
	return rowsToItems(rows), nil
}

// UpsertKnowledge writes docs in one transaction, replacing rows that share an
// id.
func (s *Store) UpsertKnowledge(ctx context.Context, docs []KnowledgeDoc) error {
	if len(docs) == 0 {
		return nil
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, doc := range docs {
			row := knowledgeRow{
				ID:             doc.ID,
				Title:          doc.Title,
				Content:        doc.Content,
				Category:       doc.Category,
				SearchableText: doc.SearchableText,
			}
			if row.SearchableText == "" {
				row.SearchableText = SearchableText(doc.Title, doc.Content)
			}

			q := tx.NewInsert().
				Model(&row).
				On("CONFLICT (id) DO UPDATE").
				Set("title = EXCLUDED.title").
				Set("content = EXCLUDED.content").
				Set("category = EXCLUDED.category").
				Set("searchable_text = EXCLUDED.searchable_text")
			if len(doc.Embedding) > 0 {
				q = q.Value("embedding", "?::vector", VectorLiteral(doc.Embedding)).
					Set("embedding = EXCLUDED.embedding")
			}
			if _, err := q.Exec(ctx); err != nil {
				return fmt.Errorf("upsert knowledge %s: %w", doc.ID, err)
			}
		}
		return nil
	})
}

// VectorLiteral renders vec in pgvector's text input format.
func VectorLiteral(vec []float32) string {
	var b strings.Builder
	b.Grow(len(vec)*10 + 2)
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

func rowsToItems(rows []knowledgeRow) []contractx.KnowledgeItem {
	items := make([]contractx.KnowledgeItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, contractx.KnowledgeItem{
			ID:       r.ID,
			Title:    r.Title,
			Content:  r.Content,
			Category: r.Category,
		})
	}
	return items
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
